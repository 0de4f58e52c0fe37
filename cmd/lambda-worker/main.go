package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"bidsflow-backend/internal/bootstrap"
	"bidsflow-backend/internal/shared/config"
	"bidsflow-backend/internal/shared/metrics"
	"bidsflow-backend/internal/shared/telemetry"
	"bidsflow-backend/internal/workerproc"
)

// batchHandler processes an SQS batch and reports partial failures so only
// the failed records are redelivered.
type batchHandler struct {
	once      sync.Once
	build     func() (workerproc.JobProcessor, error)
	processor workerproc.JobProcessor
	err       error
}

func (b *batchHandler) init() {
	b.processor, b.err = b.build()
	if b.err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": b.err.Error()})
	}
}

func (b *batchHandler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	b.once.Do(b.init)
	if b.err != nil {
		return events.SQSEventResponse{BatchItemFailures: allFailed(event.Records)}, b.err
	}

	var failures []events.SQSBatchItemFailure
	for _, record := range event.Records {
		metrics.IncWorkerJobsReceived()
		err := workerproc.HandleMessage(ctx, b.processor, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerJobsCompleted()
		case workerproc.Unrecoverable(err):
			metrics.IncWorkerJobsDeletedUnrecoverable()
			telemetry.Warn("worker.message_dropped", map[string]any{
				"message_id": record.MessageId,
				"error":      err.Error(),
			})
		default:
			metrics.IncWorkerJobsFailed()
			telemetry.Error("worker.message_failed", map[string]any{
				"message_id":    record.MessageId,
				"receive_count": record.Attributes["ApproximateReceiveCount"],
				"error":         err.Error(),
			})
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func allFailed(records []events.SQSMessage) []events.SQSBatchItemFailure {
	failures := make([]events.SQSBatchItemFailure, 0, len(records))
	for _, record := range records {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return failures
}

func buildProcessor() (workerproc.JobProcessor, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return app.JobProcessor, nil
}

func main() {
	lambda.Start((&batchHandler{build: buildProcessor}).Handle)
}
