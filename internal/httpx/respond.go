package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResp struct {
	Error     string                  `json:"error"`
	Code      string                  `json:"code"`
	Conflicts []reservation.DateRange `json:"conflicts,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the reservation error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorResp{Error: err.Error(), Code: "internal"}
	var ue *reservation.UnavailableError
	switch {
	case errors.As(err, &ue):
		status, body.Code, body.Conflicts = http.StatusConflict, "room_unavailable", ue.Conflicts
	case errors.Is(err, reservation.ErrRoomUnavailable):
		status, body.Code = http.StatusConflict, "room_unavailable"
	case errors.Is(err, reservation.ErrValidation):
		status, body.Code = http.StatusBadRequest, "validation"
	case errors.Is(err, reservation.ErrNotFound):
		status, body.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, reservation.ErrInvalidTransition):
		status, body.Code = http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, reservation.ErrPersistence):
		status, body.Code = http.StatusServiceUnavailable, "unavailable"
		body.Error = "storage unavailable, retry later"
	default:
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", reservation.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: invalid fields: %s", reservation.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", reservation.ErrValidation, err)
	}
	return nil
}

func queryDate(r *http.Request, key string) (reservation.Date, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return reservation.Date{}, false, nil
	}
	d, err := reservation.ParseDate(v)
	return d, true, err
}

// queryRange reads a check-in/check-out style pair; both or neither must be given.
func queryRange(r *http.Request, fromKey, toKey string) (*reservation.DateRange, error) {
	from, okFrom, err := queryDate(r, fromKey)
	if err != nil {
		return nil, err
	}
	to, okTo, err := queryDate(r, toKey)
	if err != nil {
		return nil, err
	}
	if !okFrom && !okTo {
		return nil, nil
	}
	if okFrom != okTo {
		return nil, fmt.Errorf("%w: %s and %s go together", reservation.ErrMissingField, fromKey, toKey)
	}
	dr, err := reservation.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return &dr, nil
}
