package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// SeatLockRepo provides data access to the seat_locks table. One row
// exists per held seat; the rows sharing an (event_id, session_id)
// pair form that session's lock. The primary key is
// (event_id, seat_number), which makes acquiring a seat an
// insert-if-absent: two sessions can never hold the same seat at the
// same instant, no matter how their requests interleave.
//
// Expired rows are treated as absent everywhere: every query filters
// on expires_at > UTC_TIMESTAMP(), and AcquireOrRenew deletes expired
// rows for the requested seats before inserting. The sweeper only
// bounds table growth.
type SeatLockRepo struct {
	db *sql.DB
}

// NewSeatLockRepo returns a new SeatLockRepo bound to the provided database.
func NewSeatLockRepo(db *sql.DB) *SeatLockRepo { return &SeatLockRepo{db: db} }

// AcquireOrRenew replaces the session's lock with the given seat set
// and expiry in a single transaction. When any requested seat is held
// by another unexpired session it returns a SeatConflictError wrapping
// ErrSeatTemporarilyHeld with the conflicting seat numbers and leaves
// the session's prior lock untouched.
func (r *SeatLockRepo) AcquireOrRenew(ctx context.Context, lock model.SeatLock) error {
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

	seatArgs := make([]interface{}, 0, len(lock.Seats)+2)
	seatArgs = append(seatArgs, lock.EventID)
	for _, s := range lock.Seats {
		seatArgs = append(seatArgs, s)
	}
	in := placeholders(len(lock.Seats))

	// Lazily reclaim expired claims on the requested seats so they do
	// not block the insert below.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM seat_locks WHERE event_id = ? AND seat_number IN (`+in+`) AND expires_at <= UTC_TIMESTAMP()`,
		seatArgs...); err != nil {
		return err
	}

	// Surface conflicts before attempting the insert so the caller
	// gets the full conflicting seat list in one round trip. FOR UPDATE
	// pins the competing rows until this transaction resolves.
	conflictArgs := append(append([]interface{}{}, seatArgs...), lock.SessionID)
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_number FROM seat_locks
		 WHERE event_id = ? AND seat_number IN (`+in+`)
		   AND session_id <> ? AND expires_at > UTC_TIMESTAMP()
		 FOR UPDATE`,
		conflictArgs...)
	if err != nil {
		return err
	}
	var conflicts []string
	for rows.Next() {
		var s string
		if scanErr := rows.Scan(&s); scanErr != nil {
			rows.Close()
			return scanErr
		}
		conflicts = append(conflicts, s)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return NewSeatConflict(ErrSeatTemporarilyHeld, conflicts)
	}

	// Overwrite the session's previous selection.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM seat_locks WHERE event_id = ? AND session_id = ?`,
		lock.EventID, lock.SessionID); err != nil {
		return err
	}

	query := `INSERT INTO seat_locks (event_id, seat_number, session_id, user_id, expires_at) VALUES `
	args := make([]interface{}, 0, len(lock.Seats)*5)
	for i, seat := range lock.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, lock.EventID, seat, lock.SessionID, lock.UserID,
			lock.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			// A competing session inserted between our scan and our
			// insert. The primary key has already decided the race.
			return NewSeatConflict(ErrSeatTemporarilyHeld, lock.Seats)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// HeldSeats returns the union of seat numbers across all unexpired
// locks for the event. Holder identities are not exposed.
func (r *SeatLockRepo) HeldSeats(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM seat_locks WHERE event_id = ? AND expires_at > UTC_TIMESTAMP()`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ActiveLock returns the session's unexpired lock for the event, or
// ErrLockNotFound when no unexpired rows exist.
func (r *SeatLockRepo) ActiveLock(ctx context.Context, eventID, sessionID string) (*model.SeatLock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number, user_id, expires_at, created_at FROM seat_locks
		 WHERE event_id = ? AND session_id = ? AND expires_at > UTC_TIMESTAMP()`,
		eventID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lock := &model.SeatLock{EventID: eventID, SessionID: sessionID}
	for rows.Next() {
		var seat string
		var userID sql.NullString
		var expiresAt, createdAt time.Time
		if err := rows.Scan(&seat, &userID, &expiresAt, &createdAt); err != nil {
			return nil, err
		}
		lock.Seats = append(lock.Seats, seat)
		lock.ExpiresAt = expiresAt
		lock.CreatedAt = createdAt
		if userID.Valid {
			uid := userID.String
			lock.UserID = &uid
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lock.Seats) == 0 {
		return nil, ErrLockNotFound
	}
	return lock, nil
}

// Release deletes the session's lock rows for the event. Idempotent:
// releasing an absent lock is not an error.
func (r *SeatLockRepo) Release(ctx context.Context, eventID, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_locks WHERE event_id = ? AND session_id = ?`,
		eventID, sessionID)
	return err
}

// Sweep deletes every expired lock row and returns how many were
// removed. Reads already filter expired rows, so this exists purely to
// bound storage and keep HeldSeats queries cheap.
func (r *SeatLockRepo) Sweep(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_locks WHERE expires_at <= UTC_TIMESTAMP()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
