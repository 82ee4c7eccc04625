package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/spigell/career-compass/internal/messaging"
)

// Dispatcher answers a single message.
type Dispatcher interface {
	Handle(ctx context.Context, msg messaging.Message) (messaging.Response, error)
}

type Handler struct {
	Dispatcher Dispatcher
}

// Messages decodes a message, waits for the coordinator and writes the reply
// as JSON. A client that goes away stops the wait, not the action.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	var msg messaging.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(string(msg.Action)) == "" {
		http.Error(w, "invalid request: action is required", http.StatusBadRequest)
		return
	}

	resp, err := h.Dispatcher.Handle(r.Context(), msg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, resp)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
