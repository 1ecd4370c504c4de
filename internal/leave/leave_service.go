package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-leavedesk/internal/events"
	"go-leavedesk/internal/identity"
	leaveerrors "go-leavedesk/internal/leave/errors"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/quota"
	quotaerrors "go-leavedesk/internal/quota/errors"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/status"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, actorID string, req ApplyLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, actorID, actorRole string) ([]LeaveResponse, error)
	GetByID(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error)
	Cancel(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error)
	Confirm(ctx context.Context, actorID, actorRole, id string) (TransitionResponse, error)
	AdminCancel(ctx context.Context, actorID, actorRole, id, notes string) (TransitionResponse, error)
	Reverse(ctx context.Context, actorID, actorRole, id, notes string) (TransitionResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	quotas     quota.Repository
	identities identity.Repository
	vocabulary status.Vocabulary
	outbox     kafka.OutboxRepository
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	quotaRepo quota.Repository,
	identityRepo identity.Repository,
	vocabulary status.Vocabulary,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, quotaRepo, identityRepo, vocabulary, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	quotaRepo quota.Repository,
	identityRepo identity.Repository,
	vocabulary status.Vocabulary,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithClock(db, repo, quotaRepo, identityRepo, vocabulary, outboxRepo, time.Now, logger...)
}

// NewServiceWithClock pins "today" for the date-sensitive operations; tests
// use it to exercise reversal arithmetic deterministically.
func NewServiceWithClock(
	db *sql.DB,
	repo Repository,
	quotaRepo quota.Repository,
	identityRepo identity.Repository,
	vocabulary status.Vocabulary,
	outboxRepo kafka.OutboxRepository,
	now func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:         db,
		repo:       repo,
		quotas:     quotaRepo,
		identities: identityRepo,
		vocabulary: vocabulary,
		outbox:     outboxRepo,
		now:        now,
		logger:     l,
	}
}

func (s *service) Apply(ctx context.Context, actorID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("apply leave requested",
		zap.String("actor_id", actorID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}
	if startDate.Before(dateOnly(s.now())) {
		return LeaveResponse{}, leaveerrors.ErrStartDateInPast
	}

	pending, err := s.vocabulary.Get(status.Pending)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	exists, err := s.identities.Exists(ctx, actorID)
	if err != nil {
		s.logger.Error("apply leave employee lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !exists {
		return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
	}

	overlap, err := qtx.FindActiveOverlap(ctx, actorID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("apply leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap != nil {
		s.logger.Warn("apply leave overlap detected",
			zap.String("employee_id", actorID),
			zap.String("conflicting_leave_id", overlap.ID.String()),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	days := inclusiveDays(startDate, endDate)

	q, err := s.quotas.FindByEmployeeAndYear(ctx, actorID, startDate.Year())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, quotaerrors.ErrQuotaNotFound
		}
		s.logger.Error("apply leave quota lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if q.RemainingDays() < days {
		s.logger.Warn("apply leave insufficient balance",
			zap.String("employee_id", actorID),
			zap.Int("requested_days", days),
			zap.Int("remaining_days", q.RemainingDays()),
		)
		return LeaveResponse{}, quotaerrors.ErrInsufficientBalance
	}

	l := &Leave{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		StartDate:  startDate,
		EndDate:    endDate,
		Days:       days,
		Reason:     req.Reason,
		Status:     pending.Name,
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.enqueue(ctx, tx, events.LeaveApplied, l, actorID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", actorID),
		zap.Int("days", days),
	)

	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, actorID, actorRole string) ([]LeaveResponse, error) {
	var (
		leaves []Leave
		err    error
	)

	if identity.Elevated(actorRole) {
		leaves, err = s.repo.FindAll(ctx)
	} else {
		leaves, err = s.repo.FindAllByEmployee(ctx, actorID)
	}
	if err != nil {
		return nil, err
	}

	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error) {
	l, err := s.findLeave(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	if l.EmployeeID.String() != actorID && !identity.Elevated(actorRole) {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}

	return mapToResponse(*l), nil
}

// Cancel withdraws a pending request. An approved leave must go through
// AdminCancel so the ledger is credited back.
func (s *service) Cancel(ctx context.Context, actorID, actorRole, id string) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(actorID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	cancelled, err := s.vocabulary.Get(status.Cancelled)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	l, err := s.findLeave(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	if l.EmployeeID.String() != actorID && !identity.Elevated(actorRole) {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}
	if l.Status != status.Pending {
		return LeaveResponse{}, leaveerrors.StatusConflict("cancel", l.Status)
	}

	ok, err := s.repo.WithTx(tx).TransitionFrom(ctx, id, status.Pending, StatusPatch{
		Status: cancelled.Name,
	})
	if err != nil {
		s.logger.Error("cancel leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if !ok {
		return LeaveResponse{}, leaveerrors.ErrLeaveStatusChanged
	}

	if err := s.enqueue(ctx, tx, events.LeaveCancelled, l, actorID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	l.Status = cancelled.Name
	l.ApprovedBy = nil
	l.ApprovedAt = nil

	s.logger.Info("cancel leave success", zap.String("leave_id", id))
	return mapToResponse(*l), nil
}

// Confirm is the only operation that debits the ledger. The balance check
// and the status flip are conditional updates inside one transaction, so
// two racing confirms cannot double-debit.
func (s *service) Confirm(ctx context.Context, actorID, actorRole, id string) (TransitionResponse, error) {
	s.logger.Debug("confirm leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	approverID, err := uuid.Parse(actorID)
	if err != nil {
		return TransitionResponse{}, leaveerrors.ErrInvalidActorID
	}
	if !identity.Elevated(actorRole) {
		return TransitionResponse{}, leaveerrors.ErrElevatedRoleRequired
	}

	approved, err := s.vocabulary.Get(status.Approved)
	if err != nil {
		return TransitionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("confirm leave begin tx failed", zap.Error(err))
		return TransitionResponse{}, err
	}
	defer tx.Rollback()

	l, err := s.findLeave(ctx, id)
	if err != nil {
		return TransitionResponse{}, err
	}
	if l.Status != status.Pending {
		return TransitionResponse{}, leaveerrors.StatusConflict("confirm", l.Status)
	}

	employeeID := l.EmployeeID.String()
	year := l.StartDate.Year()

	if _, err := s.quotas.FindByEmployeeAndYear(ctx, employeeID, year); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TransitionResponse{}, quotaerrors.ErrQuotaNotFound
		}
		s.logger.Error("confirm leave quota lookup failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	debited, err := s.quotas.WithTx(tx).Debit(ctx, employeeID, year, l.Days)
	if err != nil {
		s.logger.Error("confirm leave debit failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}
	if !debited {
		s.logger.Warn("confirm leave insufficient balance",
			zap.String("leave_id", id),
			zap.Int("days", l.Days),
		)
		return TransitionResponse{}, quotaerrors.ErrInsufficientBalance
	}

	now := time.Now().UTC()
	ok, err := s.repo.WithTx(tx).TransitionFrom(ctx, id, status.Pending, StatusPatch{
		Status:     approved.Name,
		ApprovedBy: &approverID,
		ApprovedAt: &now,
	})
	if err != nil {
		s.logger.Error("confirm leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}
	if !ok {
		return TransitionResponse{}, leaveerrors.ErrLeaveStatusChanged
	}

	if err := s.enqueue(ctx, tx, events.LeaveConfirmed, l, actorID); err != nil {
		return TransitionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("confirm leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}

	l.Status = approved.Name
	l.ApprovedBy = &approverID
	l.ApprovedAt = &now

	s.logger.Info("confirm leave success",
		zap.String("leave_id", id),
		zap.String("approved_by", actorID),
		zap.Int("days", l.Days),
	)

	return TransitionResponse{
		Leave: mapToResponse(*l),
		Quota: s.quotaSnapshot(ctx, employeeID, year),
	}, nil
}

// AdminCancel closes out any non-cancelled leave. If the leave had been
// approved, the ledger gets its days back.
func (s *service) AdminCancel(ctx context.Context, actorID, actorRole, id, notes string) (TransitionResponse, error) {
	s.logger.Debug("admin cancel leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	approverID, err := uuid.Parse(actorID)
	if err != nil {
		return TransitionResponse{}, leaveerrors.ErrInvalidActorID
	}
	if !identity.Elevated(actorRole) {
		return TransitionResponse{}, leaveerrors.ErrElevatedRoleRequired
	}

	cancelled, err := s.vocabulary.Get(status.Cancelled)
	if err != nil {
		return TransitionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("admin cancel begin tx failed", zap.Error(err))
		return TransitionResponse{}, err
	}
	defer tx.Rollback()

	l, err := s.findLeave(ctx, id)
	if err != nil {
		return TransitionResponse{}, err
	}
	if l.Status == status.Cancelled {
		return TransitionResponse{}, leaveerrors.StatusConflict("cancel", l.Status)
	}

	employeeID := l.EmployeeID.String()
	year := l.StartDate.Year()

	if l.Status == status.Approved {
		credited, err := s.quotas.WithTx(tx).Credit(ctx, employeeID, year, l.Days)
		if err != nil {
			s.logger.Error("admin cancel credit failed", zap.String("leave_id", id), zap.Error(err))
			return TransitionResponse{}, err
		}
		if !credited {
			return TransitionResponse{}, quotaerrors.ErrQuotaNotFound
		}
	}

	now := time.Now().UTC()
	ok, err := s.repo.WithTx(tx).TransitionFrom(ctx, id, l.Status, StatusPatch{
		Status:       cancelled.Name,
		ApprovedBy:   &approverID,
		ApprovedAt:   &now,
		ManagerNotes: notesPtr(notes),
	})
	if err != nil {
		s.logger.Error("admin cancel persist failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}
	if !ok {
		return TransitionResponse{}, leaveerrors.ErrLeaveStatusChanged
	}

	if err := s.enqueue(ctx, tx, events.LeaveCancelled, l, actorID); err != nil {
		return TransitionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("admin cancel commit failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}

	l.Status = cancelled.Name
	l.ApprovedBy = &approverID
	l.ApprovedAt = &now
	if p := notesPtr(notes); p != nil {
		l.ManagerNotes = p
	}

	s.logger.Info("admin cancel success", zap.String("leave_id", id))

	return TransitionResponse{
		Leave: mapToResponse(*l),
		Quota: s.quotaSnapshot(ctx, employeeID, year),
	}, nil
}

// Reverse moves an approved leave back to pending. The full debit is
// refunded and only the days already elapsed as of "today" are re-debited,
// so a reversal before the start date is a full refund and one after the
// end date is a no-op on the balance.
func (s *service) Reverse(ctx context.Context, actorID, actorRole, id, notes string) (TransitionResponse, error) {
	s.logger.Debug("reverse leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(actorID); err != nil {
		return TransitionResponse{}, leaveerrors.ErrInvalidActorID
	}
	if !identity.Elevated(actorRole) {
		return TransitionResponse{}, leaveerrors.ErrElevatedRoleRequired
	}

	pending, err := s.vocabulary.Get(status.Pending)
	if err != nil {
		return TransitionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reverse leave begin tx failed", zap.Error(err))
		return TransitionResponse{}, err
	}
	defer tx.Rollback()

	l, err := s.findLeave(ctx, id)
	if err != nil {
		return TransitionResponse{}, err
	}
	if l.Status != status.Approved {
		return TransitionResponse{}, leaveerrors.StatusConflict("reverse", l.Status)
	}

	employeeID := l.EmployeeID.String()
	year := l.StartDate.Year()

	actualUsed := actualUsedDays(dateOnly(s.now()), l.StartDate, l.EndDate, l.Days)

	rebalanced, err := s.quotas.WithTx(tx).Rebalance(ctx, employeeID, year, l.Days, actualUsed)
	if err != nil {
		s.logger.Error("reverse leave rebalance failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}
	if !rebalanced {
		return TransitionResponse{}, quotaerrors.ErrQuotaNotFound
	}

	if notes == "" {
		notes = fmt.Sprintf("approval reversed, %d day(s) already taken", actualUsed)
	}

	ok, err := s.repo.WithTx(tx).TransitionFrom(ctx, id, status.Approved, StatusPatch{
		Status:       pending.Name,
		ManagerNotes: &notes,
	})
	if err != nil {
		s.logger.Error("reverse leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}
	if !ok {
		return TransitionResponse{}, leaveerrors.ErrLeaveStatusChanged
	}

	if err := s.enqueue(ctx, tx, events.LeaveReversed, l, actorID); err != nil {
		return TransitionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reverse leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return TransitionResponse{}, err
	}

	l.Status = pending.Name
	l.ApprovedBy = nil
	l.ApprovedAt = nil
	l.ManagerNotes = &notes

	s.logger.Info("reverse leave success",
		zap.String("leave_id", id),
		zap.Int("actual_used_days", actualUsed),
	)

	return TransitionResponse{
		Leave: mapToResponse(*l),
		Quota: s.quotaSnapshot(ctx, employeeID, year),
	}, nil
}

func (s *service) findLeave(ctx context.Context, id string) (*Leave, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, lv *Leave, actorID string) error {
	if s.outbox == nil {
		return nil
	}

	l := contextutil.GetLogger(ctx, s.logger)

	rid := contextutil.GetRequestID(ctx)
	event := events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    lv.ID.String(),
		EmployeeID: lv.EmployeeID.String(),
		ActorID:    actorID,
		Module:     "Leave",
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		l.Error("marshal lifecycle event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave",
		AggregateID:   lv.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		l.Error("enqueue lifecycle event failed",
			zap.String("leave_id", lv.ID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (s *service) quotaSnapshot(ctx context.Context, employeeID string, year int) quota.Snapshot {
	q, err := s.quotas.FindByEmployeeAndYear(ctx, employeeID, year)
	if err != nil {
		s.logger.Warn("quota snapshot read failed",
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.Error(err),
		)
		return quota.Snapshot{}
	}
	return quota.SnapshotOf(*q)
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// actualUsedDays is the portion of the leave already taken as of today:
// zero before the start date, capped at the full day count once the end
// date has passed.
func actualUsedDays(today, start, end time.Time, days int) int {
	if today.Before(start) {
		return 0
	}

	elapsedEnd := today
	if end.Before(today) {
		elapsedEnd = end
	}

	used := inclusiveDays(start, elapsedEnd)
	if used < 0 {
		used = 0
	}
	if used > days {
		used = days
	}
	return used
}

func notesPtr(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		StartDate:  l.StartDate.Format("2006-01-02"),
		EndDate:    l.EndDate.Format("2006-01-02"),
		Days:       l.Days,
		Reason:     l.Reason,
		Status:     l.Status,
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.ManagerNotes = l.ManagerNotes
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
