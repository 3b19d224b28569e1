package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements reservation.Store on PostgreSQL. A room scope is a
// transaction holding the room row lock (SELECT ... FOR UPDATE); every writer
// of that room's bookings takes the same lock, so contention stays per room.
type Store struct {
	bookings
	DB *pgxpool.Pool
	// LockTimeout bounds the wait for a room row lock; expiry is reported as
	// contention and retried by the caller.
	LockTimeout time.Duration
}

var _ reservation.Store = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{bookings: bookings{q: db}, DB: db, LockTimeout: 3 * time.Second}
}

const roomCols = `id, room_type, rate_cents, created_at, updated_at`

func scanRoom(row pgx.Row) (reservation.Room, error) {
	var (
		r    reservation.Room
		rate int64
	)
	if err := row.Scan(&r.ID, &r.Type, &rate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return reservation.Room{}, err
	}
	r.Rate = reservation.Money(rate)
	return r, nil
}

func (s *Store) Room(ctx context.Context, id string) (reservation.Room, error) {
	r, err := scanRoom(s.DB.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return reservation.Room{}, fmt.Errorf("%w: %s", reservation.ErrRoomNotFound, id)
	}
	if err != nil {
		return reservation.Room{}, classify("get room", err)
	}
	return r, nil
}

func (s *Store) RoomsByType(ctx context.Context, roomType string) ([]reservation.Room, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+roomCols+` FROM rooms WHERE room_type=$1 ORDER BY rate_cents, id`, roomType)
	if err != nil {
		return nil, classify("list rooms", err)
	}
	defer rows.Close()

	var out []reservation.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, classify("scan room", err)
		}
		out = append(out, r)
	}
	return out, classify("list rooms", rows.Err())
}

func (s *Store) InsertRoom(ctx context.Context, r reservation.Room) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO rooms(id, room_type, rate_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.Type, r.Rate.Cents(), r.CreatedAt, r.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", reservation.ErrRoomExists, r.ID)
	}
	return classify("insert room", err)
}

func (s *Store) UpdateRoomRate(ctx context.Context, id string, rate reservation.Money) (reservation.Room, error) {
	r, err := scanRoom(s.DB.QueryRow(ctx, `
		UPDATE rooms SET rate_cents=$2, updated_at=now()
		WHERE id=$1
		RETURNING `+roomCols, id, rate.Cents()))
	if errors.Is(err, pgx.ErrNoRows) {
		return reservation.Room{}, fmt.Errorf("%w: %s", reservation.ErrRoomNotFound, id)
	}
	if err != nil {
		return reservation.Room{}, classify("update room rate", err)
	}
	return r, nil
}

func (s *Store) BookingsByUser(ctx context.Context, userID string) ([]reservation.Booking, error) {
	return s.list(ctx, s.DB, `SELECT `+bookingCols+` FROM bookings b WHERE b.user_id=$1 ORDER BY b.check_in DESC, b.id`, userID)
}

func (s *Store) Bookings(ctx context.Context, f reservation.Filter) ([]reservation.Booking, error) {
	var (
		where []string
		args  []any
	)
	// add appends a predicate; each "?" becomes the placeholder of v.
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.Status != nil {
		add("b.status = ?", string(*f.Status))
	}
	if f.Overlaps != nil {
		add("b.check_in < ?", f.Overlaps.CheckOut.Time())
		add("b.check_out > ?", f.Overlaps.CheckIn.Time())
	}
	if f.Text != "" {
		add("(r.room_type ILIKE ? OR b.guest_name ILIKE ?)", "%"+escapeLike(f.Text)+"%")
	}
	q := `SELECT ` + bookingCols + ` FROM bookings b JOIN rooms r ON r.id = b.room_id`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY b.check_in DESC, b.id`
	return s.list(ctx, s.DB, q, args...)
}

func (s *Store) CountByStatus(ctx context.Context) (reservation.StatusCounts, error) {
	rows, err := s.DB.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, classify("count bookings", err)
	}
	defer rows.Close()

	counts := reservation.StatusCounts{
		reservation.StatusPending:   0,
		reservation.StatusConfirmed: 0,
		reservation.StatusCancelled: 0,
	}
	for rows.Next() {
		var (
			st string
			n  int64
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, classify("scan count", err)
		}
		counts[reservation.Status(st)] = n
	}
	return counts, classify("count bookings", rows.Err())
}

func (s *Store) Revenue(ctx context.Context) (reservation.Money, error) {
	var cents int64
	err := s.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_cents), 0)::BIGINT
		FROM bookings WHERE status <> 'Cancelled'`).Scan(&cents)
	if err != nil {
		return 0, classify("sum revenue", err)
	}
	return reservation.Money(cents), nil
}

func (s *Store) MonthlyTotals(ctx context.Context, r reservation.DateRange) ([]reservation.MonthTotal, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT to_char(date_trunc('month', check_in), 'YYYY-MM') AS month,
		       COUNT(*), COALESCE(SUM(total_cents), 0)::BIGINT
		FROM bookings
		WHERE status <> 'Cancelled' AND check_in >= $1 AND check_in < $2
		GROUP BY month
		ORDER BY month`, r.CheckIn.Time(), r.CheckOut.Time())
	if err != nil {
		return nil, classify("monthly totals", err)
	}
	defer rows.Close()

	var out []reservation.MonthTotal
	for rows.Next() {
		var (
			t     reservation.MonthTotal
			cents int64
		)
		if err := rows.Scan(&t.Month, &t.Bookings, &cents); err != nil {
			return nil, classify("scan monthly totals", err)
		}
		t.Revenue = reservation.Money(cents)
		out = append(out, t)
	}
	return out, classify("monthly totals", rows.Err())
}

// InRoomScope locks the room row for the life of one transaction and commits
// fn's writes only if it returns nil.
func (s *Store) InRoomScope(ctx context.Context, roomID string, fn func(tx reservation.BookingTx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if s.LockTimeout > 0 {
		ms := s.LockTimeout.Milliseconds()
		if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL lock_timeout = %d`, ms)); err != nil {
			return classify("set lock timeout", err)
		}
	}

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", reservation.ErrRoomNotFound, roomID)
	}
	if err != nil {
		return classify("lock room", err)
	}

	if err := fn(&bookings{q: tx, roomID: roomID}); err != nil {
		return err
	}
	return classify("commit", tx.Commit(ctx))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// classify maps driver errors onto the reservation error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return reservation.Contention(op, err)
		}
	}
	return reservation.Persistence(op, err)
}
