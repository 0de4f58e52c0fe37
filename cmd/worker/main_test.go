package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"bidsflow-backend/internal/ingestion"
	"bidsflow-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeProcessor struct {
	err   error
	calls *int
}

func (f fakeProcessor) ProcessJob(ctx context.Context, jobID string) error {
	if f.calls != nil {
		*f.calls++
	}
	return f.err
}

func sqsMessage(t *testing.T, id string, msg queue.Message) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("r-" + id),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestWorkerHandleMessage(t *testing.T) {
	tests := []struct {
		name        string
		msg         func(t *testing.T) sqstypes.Message
		err         error
		wantDeleted int
		wantCalls   int
	}{
		{
			name:        "success deletes",
			msg:         func(t *testing.T) sqstypes.Message { return sqsMessage(t, "m1", queue.Message{JobID: "job-1", RequestID: "req-1"}) },
			wantDeleted: 1,
			wantCalls:   1,
		},
		{
			name:        "retryable failure keeps message",
			msg:         func(t *testing.T) sqstypes.Message { return sqsMessage(t, "m2", queue.Message{JobID: "job-2"}) },
			err:         errors.New("storage: open object: timeout"),
			wantDeleted: 0,
			wantCalls:   1,
		},
		{
			name:        "missing job deletes",
			msg:         func(t *testing.T) sqstypes.Message { return sqsMessage(t, "m3", queue.Message{JobID: "job-3"}) },
			err:         fmt.Errorf("load job: %w", ingestion.ErrJobNotFound),
			wantDeleted: 1,
			wantCalls:   1,
		},
		{
			name: "invalid json deletes",
			msg: func(t *testing.T) sqstypes.Message {
				return sqstypes.Message{MessageId: aws.String("m4"), ReceiptHandle: aws.String("r4"), Body: aws.String("{bad-json")}
			},
			wantDeleted: 1,
		},
		{
			name:        "missing job id deletes",
			msg:         func(t *testing.T) sqstypes.Message { return sqsMessage(t, "m5", queue.Message{RequestID: "req-5"}) },
			wantDeleted: 1,
		},
		{
			name: "empty body deletes",
			msg: func(t *testing.T) sqstypes.Message {
				return sqstypes.Message{MessageId: aws.String("m6"), ReceiptHandle: aws.String("r6")}
			},
			wantDeleted: 1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSQS{}
			calls := 0
			handleMessage(context.Background(), client, "queue", fakeProcessor{err: tt.err, calls: &calls}, tt.msg(t))
			if len(client.deleted) != tt.wantDeleted {
				t.Fatalf("expected %d deletes, got %d", tt.wantDeleted, len(client.deleted))
			}
			if calls != tt.wantCalls {
				t.Fatalf("expected %d processor calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestReceiveCount(t *testing.T) {
	if got := receiveCount(sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "3"}}); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := receiveCount(sqstypes.Message{}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
