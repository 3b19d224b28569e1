package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-hotel-reservations/internal/kafka"
	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// BookingCache is satisfied by *redisx.Cache. Cache failures never fail a
// request; the ledger stays the source of truth.
type BookingCache interface {
	RememberCreate(ctx context.Context, idemKey, bookingID string) error
	CreatedBooking(ctx context.Context, idemKey string) (string, bool, error)
	PutBooking(ctx context.Context, b reservation.Booking) error
	CachedBooking(ctx context.Context, id string) ([]byte, bool, error)
	DropBooking(ctx context.Context, id string) error
	StatusCounts(ctx context.Context) (reservation.StatusCounts, bool, error)
}

type createBookingReq struct {
	UserID    string           `json:"user_id" validate:"required,max=64"`
	GuestName *string          `json:"guest_name" validate:"omitempty,max=128"`
	RoomID    string           `json:"room_id" validate:"required,max=64"`
	CheckIn   reservation.Date `json:"check_in"`
	CheckOut  reservation.Date `json:"check_out"`
	Guests    int              `json:"guests"`
}

type createBookingResp struct {
	reservation.Booking
	Idempotent bool `json:"idempotent"`
}

type statsResp struct {
	Counts  reservation.StatusCounts `json:"counts"`
	Revenue reservation.Money        `json:"revenue"`
}

type rebookReq struct {
	CheckIn  reservation.Date `json:"check_in"`
	CheckOut reservation.Date `json:"check_out"`
}

type changeResp struct {
	reservation.Booking
	PreviousStatus reservation.Status `json:"previous_status,omitempty"`
	Noop           bool               `json:"noop,omitempty"`
}

type BookingsHandler struct {
	Coordinator *reservation.Coordinator
	Producer    Publisher    // optional
	Cache       BookingCache // optional
	Service     string
}

func (h *BookingsHandler) Register(r chi.Router) {
	r.Post("/bookings", h.createBooking)
	r.Get("/bookings", h.listBookings)
	r.Get("/bookings/stats", h.stats)
	r.Get("/bookings/stats/monthly", h.monthly)
	r.Get("/bookings/{id}", h.getBooking)
	r.Post("/bookings/{id}/confirm", h.confirmBooking)
	r.Post("/bookings/{id}/cancel", h.cancelBooking)
	r.Patch("/bookings/{id}/dates", h.rebookDates)
	r.Delete("/bookings/{id}", h.deleteBooking)
	r.Get("/users/{id}/bookings", h.listUserBookings)
}

func (h *BookingsHandler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// a replayed Idempotency-Key returns the booking it created the first time
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && h.Cache != nil {
		if id, ok, _ := h.Cache.CreatedBooking(ctx, idemKey); ok {
			if b, err := h.Coordinator.Ledger().Get(ctx, id); err == nil {
				writeJSON(w, http.StatusOK, createBookingResp{Booking: b, Idempotent: true})
				return
			}
		}
	}

	b, err := h.Coordinator.CreateBooking(ctx, reservation.BookingRequest{
		UserID:    req.UserID,
		GuestName: req.GuestName,
		RoomID:    req.RoomID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests:    req.Guests,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Cache != nil {
		if idemKey != "" {
			_ = h.Cache.RememberCreate(ctx, idemKey, b.ID)
		}
		_ = h.Cache.PutBooking(ctx, b)
	}
	h.publish(r, reservation.EventBookingCreated, reservation.Created(b))

	writeJSON(w, http.StatusCreated, createBookingResp{Booking: b})
}

func (h *BookingsHandler) getBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) cache
	if h.Cache != nil {
		if raw, ok, _ := h.Cache.CachedBooking(ctx, id); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(raw)
			return
		}
	}

	// 2) fallback ledger
	b, err := h.Coordinator.Ledger().Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.PutBooking(ctx, b)
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) confirmBooking(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, reservation.EventBookingConfirmed, h.Coordinator.ConfirmBooking)
}

func (h *BookingsHandler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, reservation.EventBookingCancelled, h.Coordinator.CancelBooking)
}

func (h *BookingsHandler) deleteBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.Coordinator.DeleteBooking(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.DropBooking(ctx, id)
	}
	h.publish(r, reservation.EventBookingDeleted, ch)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingsHandler) rebookDates(w http.ResponseWriter, r *http.Request) {
	var req rebookReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.change(w, r, reservation.EventBookingRebooked, func(ctx context.Context, id string) (reservation.Change, error) {
		return h.Coordinator.RebookDates(ctx, id, req.CheckIn, req.CheckOut)
	})
}

// change runs one lifecycle operation on the booking in the URL, refreshes the
// cache and publishes the event unless nothing changed.
func (h *BookingsHandler) change(w http.ResponseWriter, r *http.Request, eventType string,
	op func(ctx context.Context, id string) (reservation.Change, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ch, err := op(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ch.Noop {
		// drop, not overwrite: concurrent changes may finish out of order
		if h.Cache != nil {
			_ = h.Cache.DropBooking(ctx, ch.Booking.ID)
		}
		h.publish(r, eventType, ch)
	}
	writeJSON(w, http.StatusOK, changeResp{Booking: ch.Booking, PreviousStatus: ch.From, Noop: ch.Noop})
}

func (h *BookingsHandler) listBookings(w http.ResponseWriter, r *http.Request) {
	var f reservation.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := reservation.ParseStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		f.Status = &st
	}
	overlaps, err := queryRange(r, "from", "to")
	if err != nil {
		writeError(w, err)
		return
	}
	f.Overlaps = overlaps
	f.Text = r.URL.Query().Get("q")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	bs, err := h.Coordinator.Ledger().ListAll(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBookings(w, bs)
}

func (h *BookingsHandler) listUserBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bs, err := h.Coordinator.Ledger().ListByUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeBookings(w, bs)
}

// stats serves the dashboard counters from Redis when the projector has
// populated them, else counts in the ledger. Revenue always comes from the ledger.
func (h *BookingsHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var resp statsResp
	if h.Cache != nil {
		if counts, ok, err := h.Cache.StatusCounts(ctx); err == nil && ok {
			resp.Counts = counts
		}
	}
	if resp.Counts == nil {
		counts, err := h.Coordinator.Ledger().StatusCounts(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Counts = counts
	}
	rev, err := h.Coordinator.Ledger().Revenue(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	resp.Revenue = rev
	writeJSON(w, http.StatusOK, resp)
}

// monthly reports bookings and revenue per check-in month, for the `months`
// months (default 6) ending with the month of `through` (default today).
func (h *BookingsHandler) monthly(w http.ResponseWriter, r *http.Request) {
	through, ok, err := queryDate(r, "through")
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		through = reservation.DateOf(time.Now().UTC())
	}
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: months %q", reservation.ErrValidation, v))
			return
		}
		months = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	totals, err := h.Coordinator.Ledger().MonthlySummary(ctx, through, months)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func writeBookings(w http.ResponseWriter, bs []reservation.Booking) {
	if bs == nil {
		bs = []reservation.Booking{}
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *BookingsHandler) publish(r *http.Request, eventType string, ch reservation.Change) {
	if h.Producer == nil {
		return
	}
	ev := reservation.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  reservation.EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: ch.Booking.ID,
		Payload:       kafkax.MustMarshal(reservation.PayloadOf(ch)),
	}
	h.Producer.Publish(reservation.PartitionKey(ch.Booking.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(reservation.EventVersion))},
	)
}
