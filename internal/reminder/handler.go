// internal/reminder/handler.go
package reminder

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// HandlePending lists the caller's pending reminders. The identity layer in
// front of the service supplies the renter's email; the store's full listing
// is filtered here by that contact identifier.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	all := h.store.ListAll()
	reminders := make([]Record, 0, len(all))
	for _, rec := range all {
		if rec.UserEmail == email {
			reminders = append(reminders, rec)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reminders)
}
