package status

import (
	"context"
	"fmt"

	statuserrors "go-leavedesk/internal/status/errors"

	"go.uber.org/zap"
)

// Vocabulary is the seeded, startup-validated set of leave statuses.
// Missing entries are a deployment defect, so Load fails fast instead of
// letting every transition discover the gap at request time.
type Vocabulary interface {
	Load(ctx context.Context) error
	Get(name string) (LeaveStatus, error)
	All() []LeaveStatus
}

type vocabulary struct {
	repo    Repository
	byName  map[string]LeaveStatus
	ordered []LeaveStatus
	logger  *zap.Logger
}

func NewVocabulary(repo Repository, logger ...*zap.Logger) Vocabulary {
	l := zap.L().Named("status.vocabulary")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("status.vocabulary")
	}
	return &vocabulary{
		repo:   repo,
		byName: make(map[string]LeaveStatus),
		logger: l,
	}
}

func (v *vocabulary) Load(ctx context.Context) error {
	if err := v.repo.Seed(ctx, Required()); err != nil {
		v.logger.Error("seed status vocabulary failed", zap.Error(err))
		return err
	}

	statuses, err := v.repo.FindAll(ctx)
	if err != nil {
		v.logger.Error("load status vocabulary failed", zap.Error(err))
		return err
	}

	byName := make(map[string]LeaveStatus, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}

	for _, required := range Required() {
		if _, ok := byName[required]; !ok {
			v.logger.Error("status vocabulary incomplete", zap.String("missing", required))
			return fmt.Errorf("%w: %s", statuserrors.ErrVocabularyIncomplete, required)
		}
	}

	v.byName = byName
	v.ordered = statuses
	v.logger.Info("status vocabulary loaded", zap.Int("entries", len(statuses)))
	return nil
}

func (v *vocabulary) Get(name string) (LeaveStatus, error) {
	s, ok := v.byName[name]
	if !ok {
		return LeaveStatus{}, statuserrors.ErrUnknownStatus
	}
	return s, nil
}

func (v *vocabulary) All() []LeaveStatus {
	return v.ordered
}
