package activity

import (
	"context"
	"errors"

	"go-leavedesk/internal/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrDuplicateEvent marks an event that was already recorded; consumers
// treat it as success and commit the message.
var ErrDuplicateEvent = errors.New("activity event already recorded")

//go:generate mockgen -source=activity_service.go -destination=mock/activity_service_mock.go -package=mock
type Service interface {
	Record(ctx context.Context, eventID string, event events.LeaveLifecycleEvent) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("activity.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("activity.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Record(ctx context.Context, eventID string, event events.LeaveLifecycleEvent) error {
	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return err
	}
	recordID, err := uuid.Parse(event.LeaveID)
	if err != nil {
		return err
	}
	actorID, err := uuid.Parse(event.ActorID)
	if err != nil {
		return err
	}

	log := &ActivityLog{
		ID:         uuid.New(),
		EventID:    eventUUID,
		Module:     event.Module,
		EventType:  event.EventType,
		RecordID:   recordID,
		ActorID:    actorID,
		OccurredAt: event.OccurredAt,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		s.logger.Error("record activity failed",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("activity recorded",
		zap.String("event_type", event.EventType),
		zap.String("record_id", event.LeaveID),
	)
	return nil
}
