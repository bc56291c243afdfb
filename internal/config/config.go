package config // package config loads application configuration from environment variables

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations in minutes, raw bytes for the intent encryption key.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign API access tokens
	TicketSecret  string // secret used to sign ticket redemption tokens
	IntentKey     []byte // 32-byte key for payment intent encryption
	HoldTTLMin    int    // seat hold lifetime in minutes
	SweepEveryMin int    // expired-lock sweep interval in minutes

	GatewaySecretKey string // payment gateway secret key; empty selects the sandbox
	GatewayBaseURL   string // payment gateway API base URL (optional override)
	CheckoutSuccess  string // redirect URL after a completed checkout
	CheckoutCancel   string // redirect URL after an abandoned checkout

	ArtifactBucket   string // S3 bucket for ticket artifacts; empty selects local storage
	ArtifactRegion   string // S3 region
	ArtifactEndpoint string // S3-compatible endpoint override (e.g. R2)
	ArtifactKeyID    string // S3 access key id
	ArtifactSecret   string // S3 secret access key
	ArtifactBaseURL  string // public base URL artifacts are served from
	ArtifactDir      string // local artifact directory when no bucket is set
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		TicketSecret:  must("TICKET_SECRET"),
		IntentKey:     mustHexKey("INTENT_KEY", 32),
		HoldTTLMin:    mustInt("HOLD_TTL_MIN"),
		SweepEveryMin: mustInt("SWEEP_INTERVAL_MIN"),

		GatewaySecretKey: os.Getenv("GATEWAY_SECRET_KEY"),
		GatewayBaseURL:   os.Getenv("GATEWAY_BASE_URL"),
		CheckoutSuccess:  must("CHECKOUT_SUCCESS_URL"),
		CheckoutCancel:   must("CHECKOUT_CANCEL_URL"),

		ArtifactBucket:   os.Getenv("ARTIFACT_BUCKET"),
		ArtifactRegion:   os.Getenv("ARTIFACT_REGION"),
		ArtifactEndpoint: os.Getenv("ARTIFACT_ENDPOINT"),
		ArtifactKeyID:    os.Getenv("ARTIFACT_ACCESS_KEY_ID"),
		ArtifactSecret:   os.Getenv("ARTIFACT_SECRET_ACCESS_KEY"),
		ArtifactBaseURL:  os.Getenv("ARTIFACT_BASE_URL"),
		ArtifactDir:      getenv("ARTIFACT_DIR", "artifacts"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustHexKey decodes a required hex-encoded key and enforces its exact
// byte length, halting on any mismatch.
func mustHexKey(key string, size int) []byte {
	b, err := hex.DecodeString(must(key))
	if err != nil {
		log.Fatalf("invalid hex for %s: %v", key, err)
	}
	if len(b) != size {
		log.Fatalf("%s must decode to %d bytes, got %d", key, size, len(b))
	}
	return b
}
