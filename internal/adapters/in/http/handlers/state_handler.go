// internal/adapters/in/http/handlers/state_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/application/storefront"
	"storefront/internal/domain/mintsession"
)

// StateHandler serves the aggregated storefront view: machine counts,
// the caller's eligibility verdict, and the price breakdown for the
// requested quantity.
type StateHandler struct {
	svc *storefront.Service
}

func NewStateHandler(svc *storefront.Service) http.Handler {
	return &StateHandler{svc: svc}
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	wallet := strings.TrimSpace(q.Get("wallet"))
	label := strings.TrimSpace(q.Get("group"))
	quantity := parseIntDefault(q.Get("quantity"), 1)

	state, err := h.svc.State(r.Context(), wallet, label, quantity)
	if err != nil {
		writeStateErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(state)
}

func writeStateErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, mintsession.ErrConfigUnavailable) {
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
