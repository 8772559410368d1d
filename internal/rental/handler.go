// internal/rental/handler.go
package rental

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Rental periods offered by the API, mirroring the due-date presets renters
// choose from.
var rentPeriods = map[string]time.Duration{
	"ONE_DAY":  24 * time.Hour,
	"ONE_WEEK": 7 * 24 * time.Hour,
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the rental endpoints on a chi router. The renter identity is
// taken from the X-Renter-ID header supplied by the identity layer in front
// of this service.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/{id}/rent", h.HandleRent)
	r.Put("/{id}/return", h.HandleReturn)
	r.Get("/user/{id}/rentals", h.HandleListRentals)
	return r
}

func (h *Handler) HandleRent(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return
	}
	renterID, ok := renterIdentity(w, r)
	if !ok {
		return
	}

	period, ok := rentPeriods[r.URL.Query().Get("dueDate")]
	if !ok {
		http.Error(w, "dueDate must be one of ONE_DAY, ONE_WEEK", http.StatusBadRequest)
		return
	}

	record, err := h.service.Rent(r.Context(), movieID, renterID, time.Now().UTC().Add(period))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	movieID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return
	}
	renterID, ok := renterIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Return(r.Context(), movieID, renterID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListRentals(w http.ResponseWriter, r *http.Request) {
	renterID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid renter id", http.StatusBadRequest)
		return
	}

	returned := r.URL.Query().Get("returned") == "true"
	page, err := strconv.Atoi(queryDefault(r, "page", "0"))
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(queryDefault(r, "size", "10"))
	if err != nil {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	views, err := h.service.ListRentals(r.Context(), renterID, returned, page, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func renterIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	renterID, err := uuid.Parse(r.Header.Get("X-Renter-ID"))
	if err != nil {
		http.Error(w, "missing or invalid renter identity", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return renterID, true
}

func queryDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMovieNotFound), errors.Is(err, ErrNoActiveRental):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMovieUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidPage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
