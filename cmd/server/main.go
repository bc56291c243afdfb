package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/fulfillment"
	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/intent"
	"github.com/iliyamo/event-ticketing/internal/lock"
	"github.com/iliyamo/event-ticketing/internal/notify"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/scheduler"
	"github.com/iliyamo/event-ticketing/internal/storage"
	"github.com/iliyamo/event-ticketing/internal/sweeper"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	events := repository.NewEventRepo(db)
	lockRepo := repository.NewSeatLockRepo(db)
	bookings := repository.NewBookingRepo(db, events)

	clk := clock.Real{}

	codec, err := intent.NewCodec(cfg.IntentKey)
	if err != nil {
		log.Fatalf("intent codec: %v", err)
	}

	locks := lock.NewManager(events, lockRepo, clk,
		lock.WithTTL(time.Duration(cfg.HoldTTLMin)*time.Minute))

	var gw gateway.PaymentGateway
	if cfg.GatewaySecretKey != "" {
		gw = gateway.NewClient(gateway.Config{
			SecretKey:   cfg.GatewaySecretKey,
			BaseURL:     cfg.GatewayBaseURL,
			CallbackURL: cfg.CheckoutSuccess,
		})
	} else {
		gw = gateway.NewSandbox()
	}

	var artifacts storage.ArtifactStore
	if cfg.ArtifactBucket != "" {
		artifacts, err = storage.NewS3Store(context.Background(), storage.S3Config{
			Bucket:          cfg.ArtifactBucket,
			Region:          cfg.ArtifactRegion,
			Endpoint:        cfg.ArtifactEndpoint,
			AccessKeyID:     cfg.ArtifactKeyID,
			SecretAccessKey: cfg.ArtifactSecret,
			PublicBaseURL:   cfg.ArtifactBaseURL,
		})
		if err != nil {
			log.Fatalf("artifact store: %v", err)
		}
	} else {
		artifacts, err = storage.NewLocalStore(cfg.ArtifactDir, cfg.ArtifactBaseURL)
		if err != nil {
			log.Fatalf("artifact store: %v", err)
		}
	}

	issuer := ticket.NewIssuer(cfg.TicketSecret, artifacts, bookings, clk)
	redeemer := ticket.NewRedeemer(cfg.TicketSecret, bookings, clk)

	svc := fulfillment.NewService(gw, codec, events, bookings, locks, issuer,
		notify.PublishBookingConfirmed, clk, cfg.CheckoutSuccess, cfg.CheckoutCancel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := notify.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	sweep := sweeper.New(lockRepo)
	go scheduler.New("lock-sweeper", scheduler.JobFunc(func(ctx context.Context) error {
		_, err := sweep.Sweep(ctx)
		return err
	}), time.Duration(cfg.SweepEveryMin)*time.Minute).Start(ctx)

	e := echo.New()
	router.Register(e, router.Handlers{
		Events:   handler.NewEventHandler(events, locks),
		Holds:    handler.NewHoldHandler(locks),
		Checkout: handler.NewCheckoutHandler(svc),
		Webhook:  handler.NewWebhookHandler(svc),
		Tickets:  handler.NewTicketHandler(svc, redeemer),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
