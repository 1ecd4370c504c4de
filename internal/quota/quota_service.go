package quota

import (
	"context"
	"errors"

	"go-leavedesk/internal/identity"
	quotaerrors "go-leavedesk/internal/quota/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=quota_service.go -destination=mock/quota_service_mock.go -package=mock
type Service interface {
	Grant(ctx context.Context, req GrantQuotaRequest) (QuotaResponse, error)
	Get(ctx context.Context, employeeID string, year int) (QuotaResponse, error)
}

type service struct {
	repo     Repository
	identity identity.Repository
	logger   *zap.Logger
}

func NewService(repo Repository, identityRepo identity.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("quota.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("quota.service")
	}
	return &service{repo: repo, identity: identityRepo, logger: l}
}

func (s *service) Grant(ctx context.Context, req GrantQuotaRequest) (QuotaResponse, error) {
	s.logger.Debug("grant quota requested",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("year", req.Year),
	)

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return QuotaResponse{}, quotaerrors.ErrInvalidEmployeeID
	}
	if req.Year < 1000 || req.Year > 9999 {
		return QuotaResponse{}, quotaerrors.ErrInvalidYear
	}

	totalDays := DefaultTotalDays
	if req.TotalDays != nil {
		if *req.TotalDays < 0 {
			return QuotaResponse{}, quotaerrors.ErrInvalidTotalDays
		}
		totalDays = *req.TotalDays
	}

	exists, err := s.identity.Exists(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("grant quota employee lookup failed", zap.Error(err))
		return QuotaResponse{}, err
	}
	if !exists {
		return QuotaResponse{}, quotaerrors.ErrEmployeeNotFound
	}

	q := &AnnualLeaveQuota{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Year:       req.Year,
		TotalDays:  totalDays,
		UsedDays:   0,
	}

	if err := s.repo.Create(ctx, q); err != nil {
		if isUniqueViolation(err) {
			return QuotaResponse{}, quotaerrors.ErrQuotaAlreadyExists
		}
		s.logger.Error("grant quota persist failed", zap.Error(err))
		return QuotaResponse{}, err
	}

	s.logger.Info("grant quota success",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("year", req.Year),
		zap.Int("total_days", totalDays),
	)

	return mapToResponse(*q), nil
}

func (s *service) Get(ctx context.Context, employeeID string, year int) (QuotaResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return QuotaResponse{}, quotaerrors.ErrInvalidEmployeeID
	}

	q, err := s.repo.FindByEmployeeAndYear(ctx, employeeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return QuotaResponse{}, quotaerrors.ErrQuotaNotFound
		}
		return QuotaResponse{}, err
	}

	return mapToResponse(*q), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(q AnnualLeaveQuota) QuotaResponse {
	return QuotaResponse{
		ID:            q.ID.String(),
		EmployeeID:    q.EmployeeID.String(),
		Year:          q.Year,
		TotalDays:     q.TotalDays,
		UsedDays:      q.UsedDays,
		RemainingDays: q.RemainingDays(),
	}
}
