package redisx

import "time"

const (
	// Idempotent create: idem:booking:create:{idempotency_key} -> booking_id
	KeyIdemBookingCreate = "idem:booking:create:%s"

	// Booking cache: booking:{booking_id} -> booking JSON
	KeyBooking = "booking:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Dashboard counters: hash status -> count
	KeyStatusCounts = "booking_status_counts"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLBookingCache = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
