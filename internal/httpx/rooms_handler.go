package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/go-chi/chi/v5"
)

type addRoomReq struct {
	ID   string            `json:"id" validate:"required,max=64"`
	Type string            `json:"room_type" validate:"required,max=64"`
	Rate reservation.Money `json:"nightly_rate"`
}

type updateRateReq struct {
	Rate reservation.Money `json:"nightly_rate"`
}

type availabilityResp struct {
	RoomID    string           `json:"room_id"`
	CheckIn   reservation.Date `json:"check_in"`
	CheckOut  reservation.Date `json:"check_out"`
	Available bool             `json:"available"`
}

type RoomsHandler struct {
	Coordinator *reservation.Coordinator
}

func (h *RoomsHandler) Register(r chi.Router) {
	r.Get("/rooms", h.listRooms)
	r.Post("/rooms", h.addRoom)
	r.Get("/rooms/{id}", h.getRoom)
	r.Put("/rooms/{id}/rate", h.updateRate)
	r.Get("/rooms/{id}/availability", h.availability)
}

// listRooms lists rooms of one type, cheapest first; with check_in/check_out it
// keeps only the rooms free for that stay.
func (h *RoomsHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	roomType := r.URL.Query().Get("type")
	if roomType == "" {
		writeError(w, reservation.ErrMissingField)
		return
	}
	stay, err := queryRange(r, "check_in", "check_out")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var rooms []reservation.Room
	if stay != nil {
		rooms, err = h.Coordinator.AvailableRooms(ctx, roomType, stay.CheckIn, stay.CheckOut)
	} else {
		rooms, err = h.Coordinator.Catalog().RoomsByType(ctx, roomType)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if rooms == nil {
		rooms = []reservation.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomsHandler) addRoom(w http.ResponseWriter, r *http.Request) {
	var req addRoomReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	room, err := h.Coordinator.Catalog().AddRoom(ctx, req.ID, req.Type, req.Rate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *RoomsHandler) getRoom(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	room, err := h.Coordinator.Catalog().Room(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *RoomsHandler) updateRate(w http.ResponseWriter, r *http.Request) {
	var req updateRateReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	room, err := h.Coordinator.Catalog().UpdateRate(ctx, chi.URLParam(r, "id"), req.Rate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *RoomsHandler) availability(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	stay, err := queryRange(r, "check_in", "check_out")
	if err == nil && stay == nil {
		err = reservation.ErrMissingField
	}
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Coordinator.Catalog().Room(ctx, roomID); err != nil {
		writeError(w, err)
		return
	}
	ok, err := h.Coordinator.Availability().IsAvailable(ctx, roomID, stay.CheckIn, stay.CheckOut, r.URL.Query().Get("exclude"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResp{RoomID: roomID, CheckIn: stay.CheckIn, CheckOut: stay.CheckOut, Available: ok})
}
