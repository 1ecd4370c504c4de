package leave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-leavedesk/internal/identity"
	"go-leavedesk/internal/leave"
	leaveerrors "go-leavedesk/internal/leave/errors"
	"go-leavedesk/internal/quota"
	quotaerrors "go-leavedesk/internal/quota/errors"
	"go-leavedesk/internal/status"
	statuserrors "go-leavedesk/internal/status/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn            func(tx *sql.Tx) leave.Repository
	createFn            func(ctx context.Context, l *leave.Leave) error
	findAllFn           func(ctx context.Context) ([]leave.Leave, error)
	findAllByEmployeeFn func(ctx context.Context, employeeID string) ([]leave.Leave, error)
	findByIDFn          func(ctx context.Context, id string) (*leave.Leave, error)
	findActiveOverlapFn func(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) (*leave.Leave, error)
	transitionFromFn    func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.Leave) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindAll(ctx context.Context) ([]leave.Leave, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindAllByEmployee(ctx context.Context, employeeID string) ([]leave.Leave, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.Leave, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindActiveOverlap(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) (*leave.Leave, error) {
	if f.findActiveOverlapFn != nil {
		return f.findActiveOverlapFn(ctx, employeeID, startDate, endDate, excludeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) TransitionFrom(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
	if f.transitionFromFn != nil {
		return f.transitionFromFn(ctx, id, fromStatus, patch)
	}
	return true, nil
}

type fakeQuotaRepository struct {
	withTxFn                func(tx *sql.Tx) quota.Repository
	createFn                func(ctx context.Context, q *quota.AnnualLeaveQuota) error
	findByEmployeeAndYearFn func(ctx context.Context, employeeID string, year int) (*quota.AnnualLeaveQuota, error)
	debitFn                 func(ctx context.Context, employeeID string, year, days int) (bool, error)
	creditFn                func(ctx context.Context, employeeID string, year, days int) (bool, error)
	rebalanceFn             func(ctx context.Context, employeeID string, year, creditDays, debitDays int) (bool, error)
}

func (f *fakeQuotaRepository) WithTx(tx *sql.Tx) quota.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeQuotaRepository) Create(ctx context.Context, q *quota.AnnualLeaveQuota) error {
	if f.createFn != nil {
		return f.createFn(ctx, q)
	}
	return nil
}

func (f *fakeQuotaRepository) FindByEmployeeAndYear(ctx context.Context, employeeID string, year int) (*quota.AnnualLeaveQuota, error) {
	if f.findByEmployeeAndYearFn != nil {
		return f.findByEmployeeAndYearFn(ctx, employeeID, year)
	}
	return &quota.AnnualLeaveQuota{
		ID:         uuid.New(),
		EmployeeID: uuid.MustParse(employeeID),
		Year:       year,
		TotalDays:  quota.DefaultTotalDays,
	}, nil
}

func (f *fakeQuotaRepository) Debit(ctx context.Context, employeeID string, year, days int) (bool, error) {
	if f.debitFn != nil {
		return f.debitFn(ctx, employeeID, year, days)
	}
	return true, nil
}

func (f *fakeQuotaRepository) Credit(ctx context.Context, employeeID string, year, days int) (bool, error) {
	if f.creditFn != nil {
		return f.creditFn(ctx, employeeID, year, days)
	}
	return true, nil
}

func (f *fakeQuotaRepository) Rebalance(ctx context.Context, employeeID string, year, creditDays, debitDays int) (bool, error) {
	if f.rebalanceFn != nil {
		return f.rebalanceFn(ctx, employeeID, year, creditDays, debitDays)
	}
	return true, nil
}

type fakeIdentityRepository struct {
	existsFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeIdentityRepository) Exists(ctx context.Context, id string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, id)
	}
	return true, nil
}

type fakeVocabulary struct{}

func (fakeVocabulary) Load(ctx context.Context) error { return nil }

func (fakeVocabulary) Get(name string) (status.LeaveStatus, error) {
	for _, required := range status.Required() {
		if required == name {
			return status.LeaveStatus{ID: uuid.New(), Name: name}, nil
		}
	}
	return status.LeaveStatus{}, statuserrors.ErrUnknownStatus
}

func (fakeVocabulary) All() []status.LeaveStatus {
	statuses := make([]status.LeaveStatus, 0, len(status.Required()))
	for _, name := range status.Required() {
		statuses = append(statuses, status.LeaveStatus{ID: uuid.New(), Name: name})
	}
	return statuses
}

type leaveServiceDeps struct {
	db         *sql.DB
	sqlMock    sqlmock.Sqlmock
	service    leave.Service
	repo       *fakeLeaveRepository
	quotas     *fakeQuotaRepository
	identities *fakeIdentityRepository
}

func setupLeaveServiceTest(t *testing.T, today time.Time) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	quotas := &fakeQuotaRepository{}
	identities := &fakeIdentityRepository{}
	svc := leave.NewServiceWithClock(
		db, repo, quotas, identities, fakeVocabulary{}, nil,
		func() time.Time { return today },
	)

	return &leaveServiceDeps{
		db:         db,
		sqlMock:    sqlMock,
		service:    svc,
		repo:       repo,
		quotas:     quotas,
		identities: identities,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func pendingLeave(employeeID uuid.UUID, start, end time.Time) *leave.Leave {
	return &leave.Leave{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Days:       int(end.Sub(start).Hours()/24) + 1,
		Status:     status.Pending,
	}
}

func TestLeaveService_Apply(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.ApplyLeaveRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-03",
			Reason:    "Family event",
		}

		deps.repo.findActiveOverlapFn = func(ctx context.Context, eid string, startDate, endDate time.Time, excludeID *string) (*leave.Leave, error) {
			assert.Equal(t, actorID, eid)
			assert.Nil(t, excludeID)
			assert.Equal(t, "2026-09-01", startDate.Format("2006-01-02"))
			assert.Equal(t, "2026-09-03", endDate.Format("2006-01-02"))
			return nil, nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			assert.Equal(t, uuid.MustParse(actorID), l.EmployeeID)
			assert.Equal(t, 3, l.Days)
			assert.Equal(t, status.Pending, l.Status)
			return nil
		}

		resp, err := deps.service.Apply(ctx, actorID, req)

		assert.NoError(t, err)
		assert.Equal(t, actorID, resp.EmployeeID)
		assert.Equal(t, 3, resp.Days)
		assert.Equal(t, status.Pending, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("single day counts as one", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leave.ApplyLeaveRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-01",
		}

		deps.repo.createFn = func(ctx context.Context, l *leave.Leave) error {
			assert.Equal(t, 1, l.Days)
			return nil
		}

		resp, err := deps.service.Apply(ctx, actorID, req)

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.Days)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid date format", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "01-09-2026",
			EndDate:   "2026-09-03",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("negative start after end", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-09-05",
			EndDate:   "2026-09-03",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})

	t.Run("negative start in past", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-07-31",
			EndDate:   "2026-08-02",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrStartDateInPast)
	})

	t.Run("start today is allowed", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-08-01",
			EndDate:   "2026-08-01",
		})

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.identities.existsFn = func(ctx context.Context, id string) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-03",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlapping leave", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findActiveOverlapFn = func(ctx context.Context, eid string, startDate, endDate time.Time, excludeID *string) (*leave.Leave, error) {
			return pendingLeave(uuid.MustParse(actorID),
				time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
			), nil
		}

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-03",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative no quota for year", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.quotas.findByEmployeeAndYearFn = func(ctx context.Context, eid string, year int) (*quota.AnnualLeaveQuota, error) {
			assert.Equal(t, 2026, year)
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-03",
		})

		assert.ErrorIs(t, err, quotaerrors.ErrQuotaNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.quotas.findByEmployeeAndYearFn = func(ctx context.Context, eid string, year int) (*quota.AnnualLeaveQuota, error) {
			return &quota.AnnualLeaveQuota{
				EmployeeID: uuid.MustParse(eid),
				Year:       year,
				TotalDays:  12,
				UsedDays:   10,
			}, nil
		}

		_, err := deps.service.Apply(ctx, actorID, leave.ApplyLeaveRequest{
			StartDate: "2026-09-01",
			EndDate:   "2026-09-03",
		})

		assert.ErrorIs(t, err, quotaerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_GetAll(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	actorID := uuid.New().String()

	t.Run("employee sees only own leaves", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		deps.repo.findAllByEmployeeFn = func(ctx context.Context, eid string) ([]leave.Leave, error) {
			assert.Equal(t, actorID, eid)
			return []leave.Leave{*pendingLeave(uuid.MustParse(actorID),
				time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			)}, nil
		}

		resp, err := deps.service.GetAll(ctx, actorID, identity.RoleEmployee)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, actorID, resp[0].EmployeeID)
	})

	t.Run("elevated role sees everything", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		deps.repo.findAllFn = func(ctx context.Context) ([]leave.Leave, error) {
			return []leave.Leave{
				*pendingLeave(uuid.New(), today, today),
				*pendingLeave(uuid.New(), today, today),
			}, nil
		}

		resp, err := deps.service.GetAll(ctx, actorID, identity.RoleHR)

		assert.NoError(t, err)
		assert.Len(t, resp, 2)
	})
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	ownerID := uuid.New()
	l := pendingLeave(ownerID,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	)

	t.Run("owner may read", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		resp, err := deps.service.GetByID(ctx, ownerID.String(), identity.RoleEmployee, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, l.ID.String(), resp.ID)
	})

	t.Run("negative other employee forbidden", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.GetByID(ctx, uuid.New().String(), identity.RoleEmployee, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotOwner)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, ownerID.String(), identity.RoleEmployee, uuid.New().String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	ownerID := uuid.New()

	t.Run("owner cancels pending", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(ownerID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			assert.Equal(t, l.ID.String(), id)
			assert.Equal(t, status.Pending, fromStatus)
			assert.Equal(t, status.Cancelled, patch.Status)
			assert.Nil(t, patch.ApprovedBy)
			return true, nil
		}

		resp, err := deps.service.Cancel(ctx, ownerID.String(), identity.RoleEmployee, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, status.Cancelled, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative other employee forbidden", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(ownerID, today, today)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, uuid.New().String(), identity.RoleEmployee, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative approved leave names its status", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(ownerID, today, today)
		l.Status = status.Approved
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, ownerID.String(), identity.RoleEmployee, l.ID.String())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot cancel a leave in status APPROVED")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Confirm(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	approverID := uuid.New().String()
	employeeID := uuid.New()

	t.Run("success debits ledger and flips status", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(employeeID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		)

		ledger := &quota.AnnualLeaveQuota{
			EmployeeID: employeeID,
			Year:       2026,
			TotalDays:  12,
		}
		deps.quotas.findByEmployeeAndYearFn = func(ctx context.Context, eid string, year int) (*quota.AnnualLeaveQuota, error) {
			return ledger, nil
		}
		deps.quotas.debitFn = func(ctx context.Context, eid string, year, days int) (bool, error) {
			assert.Equal(t, employeeID.String(), eid)
			assert.Equal(t, 2026, year)
			assert.Equal(t, 5, days)
			ledger.UsedDays += days
			return true, nil
		}
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			assert.Equal(t, status.Pending, fromStatus)
			assert.Equal(t, status.Approved, patch.Status)
			assert.NotNil(t, patch.ApprovedBy)
			assert.Equal(t, approverID, patch.ApprovedBy.String())
			assert.NotNil(t, patch.ApprovedAt)
			return true, nil
		}

		resp, err := deps.service.Confirm(ctx, approverID, identity.RoleManager, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, status.Approved, resp.Leave.Status)
		assert.Equal(t, 5, resp.Quota.UsedDays)
		assert.Equal(t, 7, resp.Quota.RemainingDays)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative employee role rejected", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		_, err := deps.service.Confirm(ctx, approverID, identity.RoleEmployee, uuid.New().String())

		assert.ErrorIs(t, err, leaveerrors.ErrElevatedRoleRequired)
	})

	t.Run("negative already approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(employeeID, today, today)
		l.Status = status.Approved
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Confirm(ctx, approverID, identity.RoleAdmin, l.ID.String())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot confirm a leave in status APPROVED")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative balance does not cover days", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(employeeID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.quotas.debitFn = func(ctx context.Context, eid string, year, days int) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Confirm(ctx, approverID, identity.RoleManager, l.ID.String())

		assert.ErrorIs(t, err, quotaerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative lost race on status flip", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(employeeID, today, today)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Confirm(ctx, approverID, identity.RoleManager, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveStatusChanged)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_AdminCancel(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	approverID := uuid.New().String()
	employeeID := uuid.New()

	t.Run("approved leave credits days back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(employeeID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		)
		l.Status = status.Approved

		credited := 0
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.quotas.creditFn = func(ctx context.Context, eid string, year, days int) (bool, error) {
			assert.Equal(t, employeeID.String(), eid)
			assert.Equal(t, 2026, year)
			credited = days
			return true, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			assert.Equal(t, status.Approved, fromStatus)
			assert.Equal(t, status.Cancelled, patch.Status)
			assert.NotNil(t, patch.ManagerNotes)
			assert.Equal(t, "policy violation", *patch.ManagerNotes)
			return true, nil
		}

		resp, err := deps.service.AdminCancel(ctx, approverID, identity.RoleHR, l.ID.String(), "policy violation")

		assert.NoError(t, err)
		assert.Equal(t, status.Cancelled, resp.Leave.Status)
		assert.Equal(t, 4, credited)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("pending leave leaves ledger untouched", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingLeave(employeeID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.quotas.creditFn = func(ctx context.Context, eid string, year, days int) (bool, error) {
			t.Fatal("credit must not be called for a pending leave")
			return false, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			assert.Equal(t, status.Pending, fromStatus)
			assert.Equal(t, status.Cancelled, patch.Status)
			assert.Nil(t, patch.ManagerNotes)
			return true, nil
		}

		resp, err := deps.service.AdminCancel(ctx, approverID, identity.RoleAdmin, l.ID.String(), "")

		assert.NoError(t, err)
		assert.Equal(t, status.Cancelled, resp.Leave.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already cancelled", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(employeeID, today, today)
		l.Status = status.Cancelled
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.AdminCancel(ctx, approverID, identity.RoleHR, l.ID.String(), "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot cancel a leave in status CANCELLED")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative employee role rejected", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		_, err := deps.service.AdminCancel(ctx, approverID, identity.RoleEmployee, uuid.New().String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrElevatedRoleRequired)
	})
}

func TestLeaveService_Reverse(t *testing.T) {
	ctx := context.Background()
	approverID := uuid.New().String()
	employeeID := uuid.New()

	approvedLeave := func() *leave.Leave {
		l := pendingLeave(employeeID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		)
		l.Status = status.Approved
		return l
	}

	run := func(t *testing.T, today time.Time, wantCredit, wantDebit int, wantNote string) {
		t.Helper()

		deps := setupLeaveServiceTest(t, today)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := approvedLeave()
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.quotas.rebalanceFn = func(ctx context.Context, eid string, year, creditDays, debitDays int) (bool, error) {
			assert.Equal(t, wantCredit, creditDays)
			assert.Equal(t, wantDebit, debitDays)
			return true, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			assert.Equal(t, status.Approved, fromStatus)
			assert.Equal(t, status.Pending, patch.Status)
			assert.Nil(t, patch.ApprovedBy)
			assert.NotNil(t, patch.ManagerNotes)
			assert.Equal(t, wantNote, *patch.ManagerNotes)
			return true, nil
		}

		resp, err := deps.service.Reverse(ctx, approverID, identity.RoleManager, l.ID.String(), "")

		assert.NoError(t, err)
		assert.Equal(t, status.Pending, resp.Leave.Status)
		assert.Nil(t, resp.Leave.ApprovedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	}

	t.Run("before start refunds everything", func(t *testing.T) {
		run(t, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC), 5, 0,
			"approval reversed, 0 day(s) already taken")
	})

	t.Run("midway keeps elapsed days", func(t *testing.T) {
		run(t, time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), 5, 2,
			"approval reversed, 2 day(s) already taken")
	})

	t.Run("after end keeps full debit", func(t *testing.T) {
		run(t, time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC), 5, 5,
			"approval reversed, 5 day(s) already taken")
	})

	t.Run("explicit notes win over the default", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := approvedLeave()
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			assert.NotNil(t, patch.ManagerNotes)
			assert.Equal(t, "approved by mistake", *patch.ManagerNotes)
			return true, nil
		}

		_, err := deps.service.Reverse(ctx, approverID, identity.RoleAdmin, l.ID.String(), "approved by mistake")

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative pending leave cannot be reversed", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingLeave(employeeID,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}

		_, err := deps.service.Reverse(ctx, approverID, identity.RoleManager, l.ID.String(), "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot reverse a leave in status PENDING")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative missing quota row", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := approvedLeave()
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.quotas.rebalanceFn = func(ctx context.Context, eid string, year, creditDays, debitDays int) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Reverse(ctx, approverID, identity.RoleManager, l.ID.String(), "")

		assert.ErrorIs(t, err, quotaerrors.ErrQuotaNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

// TestLeaveService_ConfirmReverseConfirm walks one leave through
// confirm, reverse midway, and a second confirm, asserting the ledger
// balance after each step with an in-memory quota row behind the fakes.
func TestLeaveService_ConfirmReverseConfirm(t *testing.T) {
	ctx := context.Background()
	approverID := uuid.New().String()
	employeeID := uuid.New()

	l := pendingLeave(employeeID,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	)

	ledger := &quota.AnnualLeaveQuota{
		EmployeeID: employeeID,
		Year:       2026,
		TotalDays:  12,
	}

	wireLedger := func(deps *leaveServiceDeps) {
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.Leave, error) {
			return l, nil
		}
		deps.repo.transitionFromFn = func(ctx context.Context, id, fromStatus string, patch leave.StatusPatch) (bool, error) {
			if l.Status != fromStatus {
				return false, nil
			}
			l.Status = patch.Status
			l.ApprovedBy = patch.ApprovedBy
			l.ApprovedAt = patch.ApprovedAt
			if patch.ManagerNotes != nil {
				l.ManagerNotes = patch.ManagerNotes
			}
			return true, nil
		}
		deps.quotas.findByEmployeeAndYearFn = func(ctx context.Context, eid string, year int) (*quota.AnnualLeaveQuota, error) {
			return ledger, nil
		}
		deps.quotas.debitFn = func(ctx context.Context, eid string, year, days int) (bool, error) {
			if ledger.TotalDays-ledger.UsedDays < days {
				return false, nil
			}
			ledger.UsedDays += days
			return true, nil
		}
		deps.quotas.rebalanceFn = func(ctx context.Context, eid string, year, creditDays, debitDays int) (bool, error) {
			used := ledger.UsedDays - creditDays + debitDays
			if used < 0 {
				used = 0
			}
			ledger.UsedDays = used
			return true, nil
		}
	}

	// Step 1: confirm debits the full five days.
	deps := setupLeaveServiceTest(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	wireLedger(deps)
	expectTx(t, deps.sqlMock, true)

	resp, err := deps.service.Confirm(ctx, approverID, identity.RoleManager, l.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, status.Approved, l.Status)
	assert.Equal(t, 5, resp.Quota.UsedDays)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	deps.db.Close()

	// Step 2: reverse on day two keeps only the two elapsed days.
	deps = setupLeaveServiceTest(t, time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC))
	wireLedger(deps)
	expectTx(t, deps.sqlMock, true)

	resp, err = deps.service.Reverse(ctx, approverID, identity.RoleManager, l.ID.String(), "")
	assert.NoError(t, err)
	assert.Equal(t, status.Pending, l.Status)
	assert.Equal(t, 2, resp.Quota.UsedDays)
	assert.Equal(t, 10, resp.Quota.RemainingDays)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	deps.db.Close()

	// Step 3: a second confirm debits the full amount again on top of the
	// elapsed days kept by the reversal.
	deps = setupLeaveServiceTest(t, time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC))
	wireLedger(deps)
	expectTx(t, deps.sqlMock, true)

	resp, err = deps.service.Confirm(ctx, approverID, identity.RoleManager, l.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, status.Approved, l.Status)
	assert.Equal(t, 7, resp.Quota.UsedDays)
	assert.Equal(t, 5, resp.Quota.RemainingDays)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	deps.db.Close()

	// A stale confirm against the already-approved leave must fail without
	// touching the ledger.
	deps = setupLeaveServiceTest(t, time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC))
	wireLedger(deps)
	expectTx(t, deps.sqlMock, false)

	_, err = deps.service.Confirm(ctx, approverID, identity.RoleManager, l.ID.String())
	assert.Error(t, err)
	assert.Equal(t, 7, ledger.UsedDays)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	deps.db.Close()
}
