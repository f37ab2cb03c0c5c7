package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	sent     []*sqs.SendMessageInput
	deleted  []string
	receive  *sqs.ReceiveMessageOutput
	sendErr  error
	lastRecv *sqs.ReceiveMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.lastRecv = in
	return f.receive, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueueSendReceiveDelete(t *testing.T) {
	api := &fakeSQS{receive: &sqs.ReceiveMessageOutput{Messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		Body:          aws.String(`{"id":"x"}`),
		ReceiptHandle: aws.String("rh-1"),
	}}}}
	q := newSQSQueueWithAPI(api, "https://sqs.local/000/turnos-chat")
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "payload"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "payload", aws.ToString(api.sent[0].MessageBody))
	assert.Equal(t, "https://sqs.local/000/turnos-chat", aws.ToString(api.sent[0].QueueUrl))

	got, err := q.Receive(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []QueueMessage{{ID: "m-1", Body: `{"id":"x"}`, ReceiptHandle: "rh-1"}}, got)
	assert.Equal(t, int32(5), api.lastRecv.MaxNumberOfMessages)
	assert.Equal(t, int32(10), api.lastRecv.WaitTimeSeconds)

	require.NoError(t, q.Delete(ctx, ""))
	require.NoError(t, q.Delete(ctx, "rh-1"))
	assert.Equal(t, []string{"rh-1"}, api.deleted)
}

func TestSQSQueueWrapsErrors(t *testing.T) {
	cause := errors.New("throttled")
	q := newSQSQueueWithAPI(&fakeSQS{sendErr: cause}, "url")

	err := q.Send(context.Background(), "payload")
	assert.ErrorIs(t, err, cause)
}

func TestSQSQueueRequiresURL(t *testing.T) {
	assert.Panics(t, func() { newSQSQueueWithAPI(&fakeSQS{}, "") })
}
