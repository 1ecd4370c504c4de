package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-leavedesk/internal/activity"
	"go-leavedesk/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeLeaveLifecycle feeds the activity audit trail from lifecycle
// events. Delivery is at-least-once, so duplicates are expected and skipped.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	activityService activity.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.LeaveLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode leave lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		eventID := headerValue(msg, "outbox_id")
		if eventID == "" {
			log.Warn("leave lifecycle event without outbox_id header, skipping")
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := activityService.Record(ctx, eventID, event); err != nil {
			if errors.Is(err, activity.ErrDuplicateEvent) {
				log.Warn("duplicate leave lifecycle event, skipping",
					zap.String("event_id", eventID),
					zap.String("leave_id", event.LeaveID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("record leave lifecycle activity failed",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
			// Leave the message uncommitted so it is retried.
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
		}
	}
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
