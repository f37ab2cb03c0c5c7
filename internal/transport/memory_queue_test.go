package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueBatches(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()
	for _, body := range []string{"a", "b", "c"} {
		require.NoError(t, q.Send(ctx, body))
	}

	got, err := q.Receive(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Body)
	assert.Equal(t, "b", got[1].Body)
	assert.NotEmpty(t, got[0].ReceiptHandle)

	got, err = q.Receive(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Body)
	assert.Zero(t, q.Len())
}

func TestMemoryQueueReceiveHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := q.Receive(ctx, 1, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, got)
}

func TestMemoryQueueSendBlocksWhenFull(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Send(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Send(ctx, "b"), context.DeadlineExceeded)
}

func TestEnvelopeRoundTripAssignsIDs(t *testing.T) {
	env, body, err := encodeEnvelope(envelope{Transport: TransportWebchat, ReplyTo: "webchat:abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, env.ID, env.Message.ID)

	decoded, err := decodeEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)

	_, err = decodeEnvelope("{not json")
	assert.Error(t, err)
}
