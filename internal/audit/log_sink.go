package audit

import (
	"context"

	"bidsflow-backend/internal/shared/telemetry"
)

// LogSink writes audit events as structured log lines.
type LogSink struct{}

// Record logs the event.
func (LogSink) Record(ctx context.Context, event Event) error {
	_ = ctx
	fields := map[string]any{
		"event_id":    event.ID,
		"bid_id":      event.BidID,
		"change_type": string(event.ChangeType),
		"action":      event.Action,
		"actor":       event.Actor,
	}
	if event.PreviousValue != "" || event.NewValue != "" {
		fields["status_transition"] = event.PreviousValue + "->" + event.NewValue
	}
	for k, v := range event.Details {
		fields[k] = v
	}
	telemetry.Info("audit.event", fields)
	return nil
}
