package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their seats.
// A booking groups the seats bought in one paid checkout session. The
// bookings table carries a unique key on gateway_session_id; together
// with the reserved_seats unique key (see EventRepo) it forms the two
// atomic guards of fulfillment. All timestamps are stored in UTC.
type BookingRepo struct {
	db     *sql.DB
	events *EventRepo
}

// NewBookingRepo returns a new BookingRepo. The EventRepo is needed so
// the reserved-seat append and the booking insert share one transaction.
func NewBookingRepo(db *sql.DB, events *EventRepo) *BookingRepo {
	return &BookingRepo{db: db, events: events}
}

// CreateWithSeats inserts the booking row, its per-seat rows and the
// reserved_seats rows in a single transaction. Either everything
// commits or nothing does, so a failure after the seat append can
// never strand sold seats without a booking.
//
// Two failure modes are distinguished for the orchestrator:
//   - ErrDuplicateSession: a booking for this gateway session already
//     exists (duplicate or concurrent callback). No state was changed.
//   - SeatConflictError(ErrSeatConflict): a seat was sold by another
//     fulfillment first. No state was changed.
func (r *BookingRepo) CreateWithSeats(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO bookings
		(id, user_id, event_id, total_cents, ticket_type, booking_date, payment_status,
		 gateway_session_id, gateway_payment_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, ins,
		b.ID, b.UserID, b.EventID, b.TotalCents, b.TicketType,
		b.BookingDate.UTC().Format("2006-01-02 15:04:05"), b.PaymentStatus,
		b.Payment.GatewaySessionID, b.Payment.GatewayPaymentID)
	if isDuplicateKey(err) {
		return ErrDuplicateSession
	}
	if err != nil {
		return err
	}

	// The reserved-seat append is the authoritative availability check:
	// its unique key rejects any seat another fulfillment committed.
	if err := r.events.AppendReservedSeatsTx(ctx, tx, b.EventID, b.ID, b.Seats); err != nil {
		return err
	}

	if len(b.Seats) > 0 {
		query := `INSERT INTO booking_seats (booking_id, seat_number) VALUES `
		args := make([]interface{}, 0, len(b.Seats)*2)
		for i, seat := range b.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, b.ID, seat)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// FindByGatewaySession loads the booking created for a gateway
// checkout session, or ErrBookingNotFound.
func (r *BookingRepo) FindByGatewaySession(ctx context.Context, sessionID string) (*model.Booking, error) {
	return r.findOne(ctx, `gateway_session_id = ?`, sessionID)
}

// FindByID loads a booking by its primary id, or ErrBookingNotFound.
func (r *BookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *BookingRepo) findOne(ctx context.Context, where string, arg interface{}) (*model.Booking, error) {
	const sel = `SELECT id, user_id, event_id, total_cents, ticket_type, booking_date,
		payment_status, qr_token, artifact_url, qr_scan_status, qr_scan_date,
		gateway_session_id, gateway_payment_id, created_at
		FROM bookings WHERE `
	b := &model.Booking{}
	var qrToken, artifactURL sql.NullString
	var scanDate sql.NullTime
	err := r.db.QueryRowContext(ctx, sel+where, arg).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.TotalCents, &b.TicketType, &b.BookingDate,
		&b.PaymentStatus, &qrToken, &artifactURL, &b.QRScanStatus, &scanDate,
		&b.Payment.GatewaySessionID, &b.Payment.GatewayPaymentID, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	b.QRToken = qrToken.String
	b.ArtifactURL = artifactURL.String
	if scanDate.Valid {
		d := scanDate.Time
		b.QRScanDate = &d
	}
	b.Seats, err = r.seatsOf(ctx, b.ID)
	return b, err
}

func (r *BookingRepo) seatsOf(ctx context.Context, bookingID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM booking_seats WHERE booking_id = ? ORDER BY seat_number`,
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// SaveTicket persists the redemption token and artifact URL produced
// by ticket issuance.
func (r *BookingRepo) SaveTicket(ctx context.Context, bookingID, token, artifactURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET qr_token = ?, artifact_url = ? WHERE id = ?`,
		token, artifactURL, bookingID)
	return err
}

// MarkRedeemed flips the booking from unredeemed to redeemed exactly
// once. The WHERE clause is the compare-and-set: it reports false when
// the booking was already redeemed (or does not exist), in which case
// no state changed.
func (r *BookingRepo) MarkRedeemed(ctx context.Context, bookingID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET qr_scan_status = 1, qr_scan_date = ? WHERE id = ? AND qr_scan_status = 0`,
		at.UTC().Format("2006-01-02 15:04:05"), bookingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
