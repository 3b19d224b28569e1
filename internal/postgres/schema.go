package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id          TEXT PRIMARY KEY,
	room_type   TEXT NOT NULL,
	rate_cents  BIGINT NOT NULL CHECK (rate_cents > 0),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS rooms_type_rate_idx ON rooms (room_type, rate_cents, id);

CREATE TABLE IF NOT EXISTS bookings (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	guest_name   TEXT,
	room_id      TEXT NOT NULL REFERENCES rooms (id),
	check_in     DATE NOT NULL,
	check_out    DATE NOT NULL,
	guests       INT NOT NULL CHECK (guests >= 1),
	total_cents  BIGINT NOT NULL CHECK (total_cents > 0),
	status       TEXT NOT NULL CHECK (status IN ('Pending', 'Confirmed', 'Cancelled')),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (check_out > check_in)
);

CREATE INDEX IF NOT EXISTS bookings_room_status_idx ON bookings (room_id, status);
CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id);
CREATE INDEX IF NOT EXISTS bookings_check_in_idx ON bookings (check_in DESC);
`

// Migrate creates the tables when missing. It is safe to run on every start.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
