package transport

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/turnosbot/turnos/internal/chat"
	"github.com/turnosbot/turnos/pkg/logging"
)

// ErrNoConnection is returned when a reply targets a closed webchat session.
var ErrNoConnection = errors.New("transport: no webchat connection")

const webchatErrorText = "Ocurrió un error al procesar tu mensaje. Intentá de nuevo."

// Frame is the JSON unit exchanged with the webchat widget.
type Frame struct {
	Type      string `json:"type"` // "message", "ping", "pong", "session", "error"
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Webchat serves the websocket chat and delivers session replies back to the
// connection that asked.
//
// Session ids are issued by the server and signed with key. A reconnect may
// resume its conversation by presenting the id it was given; anything else
// gets a fresh id. Holding a valid id is the only proof of ownership, so the
// widget must keep it private.
type Webchat struct {
	session *Session
	logger  *logging.Logger
	key     []byte

	mu    sync.RWMutex
	conns map[string]*websocket.Conn // conversation id -> connection
}

// WebchatOption customizes a Webchat.
type WebchatOption func(*Webchat)

// WithSessionKey sets the key that signs session ids. Replicas that share a
// key accept each other's ids. Without it a random per-process key is used.
func WithSessionKey(key []byte) WebchatOption {
	return func(h *Webchat) {
		if len(key) > 0 {
			h.key = key
		}
	}
}

// NewWebchat attaches the handler as the session's webchat outbox.
func NewWebchat(session *Session, logger *logging.Logger, opts ...WebchatOption) *Webchat {
	if session == nil {
		panic("transport: session cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Webchat{
		session: session,
		logger:  logger,
		conns:   make(map[string]*websocket.Conn),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if len(h.key) == 0 {
		h.key = make([]byte, 32)
		_, _ = rand.Read(h.key)
	}
	session.Attach(TransportWebchat, h)
	return h
}

// ConversationID is the sender id used for a webchat session.
func ConversationID(sessionID string) string {
	return "webchat:" + sessionID
}

// issueSessionID returns nonce.signature.
func (h *Webchat) issueSessionID() string {
	nonce := generateSessionID()
	return nonce + "." + h.sign(nonce)
}

func (h *Webchat) sign(nonce string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil)[:16])
}

// validSessionID reports whether id was issued under this key.
func (h *Webchat) validSessionID(id string) bool {
	nonce, sig, ok := strings.Cut(id, ".")
	if !ok || len(nonce) != 32 || sig == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(h.sign(nonce)))
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

func (h *Webchat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serve(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Webchat) serve(conn *websocket.Conn, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if !h.validSessionID(sessionID) {
		if sessionID != "" {
			h.logger.Warn("webchat: rejected unsigned session id")
		}
		sessionID = h.issueSessionID()
	}
	convID := ConversationID(sessionID)

	_ = websocket.JSON.Send(conn, Frame{Type: "session", SessionID: sessionID})

	h.mu.Lock()
	h.conns[convID] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[convID] == conn {
			delete(h.conns, convID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)
	for {
		var in Frame
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch in.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, Frame{Type: "pong"})
			continue
		case "message":
		default:
			continue
		}
		if strings.TrimSpace(in.Text) == "" {
			continue
		}

		msg := chat.Message{ID: uuid.NewString(), From: convID, Body: in.Text}
		if err := h.session.Submit(r.Context(), TransportWebchat, convID, msg); err != nil {
			h.logger.Error("webchat: failed to submit message", "error", err, "session_id", sessionID)
			_ = websocket.JSON.Send(conn, Frame{Type: "error", Text: webchatErrorText})
		}
	}
}

// Deliver sends text to the open connection for replyTo.
func (h *Webchat) Deliver(_ context.Context, replyTo, text string) error {
	h.mu.RLock()
	conn, ok := h.conns[replyTo]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConnection, replyTo)
	}
	if err := websocket.JSON.Send(conn, Frame{Type: "message", Text: text}); err != nil {
		return fmt.Errorf("transport: webchat send: %w", err)
	}
	return nil
}
