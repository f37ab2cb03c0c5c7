package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/turnosbot/turnos/internal/chat"
	"github.com/turnosbot/turnos/pkg/logging"
)

const maxWebhookBody = 64 << 10

// Webhook answers chat messages posted as JSON by an external gateway. The
// reply is returned in the response body; discarded messages get 204.
type Webhook struct {
	session *Session
	logger  *logging.Logger
}

func NewWebhook(session *Session, logger *logging.Logger) *Webhook {
	if session == nil {
		panic("transport: session cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Webhook{session: session, logger: logger}
}

type webhookReply struct {
	Reply string `json:"reply"`
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg chat.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message body"})
		return
	}

	reply, ok, err := h.session.Process(r.Context(), TransportWebhook, msg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrSessionNotReady) || errors.Is(err, ErrSessionClosed) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("webhook: message not processed", "error", err, "message_id", msg.ID)
		writeJSON(w, status, map[string]string{"error": "chat unavailable"})
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, webhookReply{Reply: reply})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
