package reservation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrRoomUnavailable   = errors.New("room unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPersistence       = errors.New("persistence failure")
	// ErrContention marks a persistence failure caused by a competing writer; the
	// atomic unit may be retried.
	ErrContention = fmt.Errorf("%w: contention", ErrPersistence)
)

var (
	ErrInvalidRange      = fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	ErrInvalidGuestCount = fmt.Errorf("%w: guests must be at least 1", ErrValidation)
	ErrInvalidRate       = fmt.Errorf("%w: nightly rate must be positive", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: unknown booking status", ErrValidation)
	ErrInvalidMoney      = fmt.Errorf("%w: malformed amount", ErrValidation)
	ErrInvalidDate       = fmt.Errorf("%w: malformed date", ErrValidation)
	ErrMissingField      = fmt.Errorf("%w: missing required field", ErrValidation)

	ErrRoomNotFound    = fmt.Errorf("room %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrRoomExists      = fmt.Errorf("%w: room already exists", ErrValidation)
)

// UnavailableError is returned when the requested stay overlaps active bookings.
type UnavailableError struct {
	RoomID    string
	Requested DateRange
	Conflicts []DateRange
}

func (e *UnavailableError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("room %s unavailable for %s: conflicts with %s",
		e.RoomID, e.Requested, strings.Join(parts, ", "))
}

func (e *UnavailableError) Is(target error) bool { return target == ErrRoomUnavailable }

type TransitionError struct {
	BookingID string
	From, To  Status
	// Op names a non-status operation refused in From, e.g. "change dates".
	Op string
}

func (e *TransitionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("booking %s: cannot %s while %s", e.BookingID, e.Op, e.From)
	}
	return fmt.Sprintf("booking %s: cannot move from %s to %s", e.BookingID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Persistence wraps a store failure so callers can branch on ErrPersistence.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Contention wraps a store failure that was caused by a competing transaction.
func Contention(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrContention, op, err)
}
