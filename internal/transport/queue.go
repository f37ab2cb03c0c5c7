package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/turnosbot/turnos/internal/chat"
)

// Transport names carried on queued envelopes and metric labels.
const (
	TransportWebchat = "webchat"
	TransportWebhook = "webhook"
)

// Queue carries inbound chat messages from transports to session workers.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// QueueMessage is one raw queue entry.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// envelope is the queued payload: the message plus where its reply goes.
type envelope struct {
	ID        string       `json:"id"`
	Transport string       `json:"transport"`
	ReplyTo   string       `json:"replyTo,omitempty"`
	Message   chat.Message `json:"message"`
}

func encodeEnvelope(env envelope) (envelope, string, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Message.ID == "" {
		env.Message.ID = env.ID
	}

	body, err := json.Marshal(env)
	if err != nil {
		return envelope{}, "", fmt.Errorf("transport: failed to encode envelope: %w", err)
	}
	return env, string(body), nil
}

func decodeEnvelope(body string) (envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return envelope{}, fmt.Errorf("transport: failed to decode envelope: %w", err)
	}
	return env, nil
}
