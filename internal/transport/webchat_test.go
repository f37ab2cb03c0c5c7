package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/turnosbot/turnos/pkg/logging"
)

func dialWebchat(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws" + query
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))
	return conn
}

func receiveSession(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	var hello Frame
	require.NoError(t, websocket.JSON.Receive(conn, &hello))
	require.Equal(t, "session", hello.Type)
	return hello.SessionID
}

func TestWebchatRoundTrip(t *testing.T) {
	s := startSession(t, &echoHandler{}, NewMemoryQueue(8), WithReceiveWaitSeconds(1))
	srv := httptest.NewServer(NewWebchat(s, logging.New("error")))
	t.Cleanup(srv.Close)

	conn := dialWebchat(t, srv, "")
	assert.NotEmpty(t, receiveSession(t, conn))

	require.NoError(t, websocket.JSON.Send(conn, Frame{Type: "ping"}))
	var pong Frame
	require.NoError(t, websocket.JSON.Receive(conn, &pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, websocket.JSON.Send(conn, Frame{Type: "message", Text: "servicios"}))
	var reply Frame
	require.NoError(t, websocket.JSON.Receive(conn, &reply))
	assert.Equal(t, Frame{Type: "message", Text: "eco: servicios"}, reply)
}

func TestWebchatIssuesSignedSessionID(t *testing.T) {
	s := startSession(t, &echoHandler{}, NewMemoryQueue(1))
	srv := httptest.NewServer(NewWebchat(s, nil))
	t.Cleanup(srv.Close)

	id := receiveSession(t, dialWebchat(t, srv, ""))
	nonce, sig, ok := strings.Cut(id, ".")
	require.True(t, ok)
	assert.Len(t, nonce, 32)
	assert.Len(t, sig, 32)
}

func TestWebchatResumesIssuedSessionOnly(t *testing.T) {
	s := startSession(t, &echoHandler{}, NewMemoryQueue(1))
	srv := httptest.NewServer(NewWebchat(s, nil))
	t.Cleanup(srv.Close)

	issued := receiveSession(t, dialWebchat(t, srv, ""))
	assert.Equal(t, issued, receiveSession(t, dialWebchat(t, srv, "?session="+issued)))

	forged := receiveSession(t, dialWebchat(t, srv, "?session=abc123"))
	assert.NotEqual(t, "abc123", forged)

	nonce, _, _ := strings.Cut(issued, ".")
	tampered := nonce + "." + strings.Repeat("0", 32)
	assert.NotEqual(t, tampered, receiveSession(t, dialWebchat(t, srv, "?session="+tampered)))
}

func TestWebchatSharedSessionKey(t *testing.T) {
	key := []byte("clave-compartida")
	a := NewWebchat(NewSession(&echoHandler{}, NewMemoryQueue(1), nil), nil, WithSessionKey(key))
	b := NewWebchat(NewSession(&echoHandler{}, NewMemoryQueue(1), nil), nil, WithSessionKey(key))
	other := NewWebchat(NewSession(&echoHandler{}, NewMemoryQueue(1), nil), nil)

	id := a.issueSessionID()
	assert.True(t, a.validSessionID(id))
	assert.True(t, b.validSessionID(id))
	assert.False(t, other.validSessionID(id))
	assert.False(t, a.validSessionID(""))
}

func TestWebchatDeliverWithoutConnection(t *testing.T) {
	s := NewSession(&echoHandler{}, NewMemoryQueue(1), nil)
	h := NewWebchat(s, nil)

	err := h.Deliver(context.Background(), ConversationID("gone"), "hola")
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestGenerateSessionIDUnique(t *testing.T) {
	a, b := generateSessionID(), generateSessionID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}
