package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/jackc/pgx/v5"
)

var errOutOfScope = errors.New("booking belongs to another room")

const bookingCols = `b.id, b.user_id, b.guest_name, b.room_id, b.check_in, b.check_out,
	b.guests, b.total_cents, b.status, b.created_at, b.updated_at`

// bookings serves booking reads and writes either straight on the pool or,
// with roomID set, inside a room scope transaction.
type bookings struct {
	q      querier
	roomID string
}

func scanBooking(row pgx.Row) (reservation.Booking, error) {
	var (
		b       reservation.Booking
		in, out time.Time
		cents   int64
		status  string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.GuestName, &b.RoomID, &in, &out,
		&b.Guests, &cents, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return reservation.Booking{}, err
	}
	b.CheckIn, b.CheckOut = reservation.DateOf(in), reservation.DateOf(out)
	b.TotalCost = reservation.Money(cents)
	b.Status = reservation.Status(status)
	return b, nil
}

func (s *bookings) list(ctx context.Context, q querier, sql string, args ...any) ([]reservation.Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	defer rows.Close()

	var out []reservation.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, classify("scan booking", err)
		}
		out = append(out, b)
	}
	return out, classify("list bookings", rows.Err())
}

func (s *bookings) inScope(roomID string) bool {
	return s.roomID == "" || s.roomID == roomID
}

func (s *bookings) Booking(ctx context.Context, id string) (reservation.Booking, error) {
	b, err := scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return reservation.Booking{}, fmt.Errorf("%w: %s", reservation.ErrBookingNotFound, id)
	}
	if err != nil {
		return reservation.Booking{}, classify("get booking", err)
	}
	return b, nil
}

func (s *bookings) ActiveBookings(ctx context.Context, roomID, excluding string) ([]reservation.Booking, error) {
	if !s.inScope(roomID) {
		return nil, reservation.Persistence("read active bookings", errOutOfScope)
	}
	return s.list(ctx, s.q, `
		SELECT `+bookingCols+` FROM bookings b
		WHERE b.room_id=$1 AND b.status IN ('Pending', 'Confirmed') AND b.id <> $2`,
		roomID, excluding)
}

func (s *bookings) InsertBooking(ctx context.Context, b reservation.Booking) error {
	if !s.inScope(b.RoomID) {
		return reservation.Persistence("insert booking", errOutOfScope)
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO bookings(id, user_id, guest_name, room_id, check_in, check_out,
		                     guests, total_cents, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.UserID, b.GuestName, b.RoomID, b.CheckIn.Time(), b.CheckOut.Time(),
		b.Guests, b.TotalCost.Cents(), string(b.Status), b.CreatedAt, b.UpdatedAt)
	return classify("insert booking", err)
}

func (s *bookings) UpdateBooking(ctx context.Context, b reservation.Booking) error {
	if !s.inScope(b.RoomID) {
		return reservation.Persistence("update booking", errOutOfScope)
	}
	ct, err := s.q.Exec(ctx, `
		UPDATE bookings
		SET check_in=$3, check_out=$4, total_cents=$5, status=$6, updated_at=$7
		WHERE id=$1 AND room_id=$2`,
		b.ID, b.RoomID, b.CheckIn.Time(), b.CheckOut.Time(), b.TotalCost.Cents(), string(b.Status), b.UpdatedAt)
	if err != nil {
		return classify("update booking", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: %s", reservation.ErrBookingNotFound, b.ID)
	}
	return nil
}

func (s *bookings) DeleteBooking(ctx context.Context, id string) error {
	sql, args := `DELETE FROM bookings WHERE id=$1`, []any{id}
	if s.roomID != "" {
		sql, args = `DELETE FROM bookings WHERE id=$1 AND room_id=$2`, []any{id, s.roomID}
	}
	ct, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return classify("delete booking", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: %s", reservation.ErrBookingNotFound, id)
	}
	return nil
}
