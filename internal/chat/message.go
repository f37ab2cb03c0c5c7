package chat

import (
	"strings"

	"github.com/turnosbot/turnos/internal/intent"
)

// groupSuffix marks sender ids that belong to a group conversation.
const groupSuffix = "@g.us"

// Message is one inbound chat message as handed over by a transport.
type Message struct {
	ID      string         `json:"id"`
	From    string         `json:"from"`
	Body    string         `json:"body"`
	FromMe  bool           `json:"fromMe"`
	IsGroup bool           `json:"isGroup"`
	Intent  *intent.Result `json:"intent,omitempty"`
}

// Discard reasons.
const (
	DiscardSelf  = "self"
	DiscardGroup = "group"
	DiscardEmpty = "empty"
)

// DiscardReason returns why the message must be dropped without a reply, or
// "" when it should be routed.
func (m Message) DiscardReason() string {
	switch {
	case m.FromMe:
		return DiscardSelf
	case m.IsGroup || strings.HasSuffix(m.From, groupSuffix):
		return DiscardGroup
	case strings.TrimSpace(m.Body) == "":
		return DiscardEmpty
	default:
		return ""
	}
}
