package health

import (
	"net/http"

	"github.com/chronicler-app/chronicler/internal/infrastructure/json"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type healthResponse struct {
	Status string `json:"status"`
}

// GetHealth reports liveness. Readiness is the same check: the relay
// has no warm-up phase once the store has opened.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, healthResponse{Status: "ok"})
}
