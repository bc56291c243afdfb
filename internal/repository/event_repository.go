package repository

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo reads the seat map for an event and appends to its
// permanently reserved set. Three tables back it: events (scalar
// metadata), event_seats (every valid seat number with its price) and
// reserved_seats (sold seats, one row each, unique per event+seat).
//
// The unique key on reserved_seats(event_id, seat_number) is the
// engine's central consistency guarantee: appending a sold seat is an
// insert-if-absent, so two fulfillments racing for the same seat
// cannot both commit. No code path ever deletes from reserved_seats.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// that span repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// GetEvent loads the seat map view of an event: its metadata, the full
// seat/price map and the reserved set. Returns ErrEventNotFound when
// the event row does not exist.
func (r *EventRepo) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	ev := &model.Event{ID: eventID}
	const q = `SELECT organizer_id, title, ticket_type, starts_at FROM events WHERE id = ?`
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&ev.OrganizerID, &ev.Title, &ev.TicketType, &ev.StartsAt)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number, price_cents FROM event_seats WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ev.SeatPrices = make(map[string]uint32)
	for rows.Next() {
		var seat string
		var price uint32
		if err := rows.Scan(&seat, &price); err != nil {
			return nil, err
		}
		ev.SeatPrices[seat] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM reserved_seats WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	ev.Reserved = make(map[string]bool)
	for res.Next() {
		var seat string
		if err := res.Scan(&seat); err != nil {
			return nil, err
		}
		ev.Reserved[seat] = true
	}
	return ev, res.Err()
}

// AppendReservedSeatsTx inserts one reserved_seats row per seat within
// the provided transaction. The caller must commit or roll back. A
// duplicate-key failure means at least one seat was sold concurrently;
// the conflicting seats are looked up inside the same transaction and
// returned as a SeatConflictError wrapping ErrSeatConflict.
func (r *EventRepo) AppendReservedSeatsTx(ctx context.Context, tx *sql.Tx, eventID, bookingID string, seats []string) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO reserved_seats (event_id, seat_number, booking_id) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, eventID, seat, bookingID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	if isDuplicateKey(err) {
		taken, lookupErr := r.reservedAmongTx(ctx, tx, eventID, seats)
		if lookupErr != nil || len(taken) == 0 {
			// Conflict is certain even if the lookup failed; report
			// the whole request so operators see every candidate.
			taken = seats
		}
		return NewSeatConflict(ErrSeatConflict, taken)
	}
	return err
}

// reservedAmongTx returns the subset of seats already present in
// reserved_seats for the event.
func (r *EventRepo) reservedAmongTx(ctx context.Context, tx *sql.Tx, eventID string, seats []string) ([]string, error) {
	query := `SELECT seat_number FROM reserved_seats WHERE event_id = ? AND seat_number IN (` + placeholders(len(seats)) + `)`
	args := make([]interface{}, 0, len(seats)+1)
	args = append(args, eventID)
	for _, s := range seats {
		args = append(args, s)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taken []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		taken = append(taken, s)
	}
	return taken, rows.Err()
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',', ' ')
		}
		out = append(out, '?')
	}
	return string(out)
}

// isDuplicateKey reports whether err is a MySQL 1062 duplicate entry error.
func isDuplicateKey(err error) bool {
	me, ok := err.(*mysql.MySQLError)
	return ok && me.Number == 1062
}
