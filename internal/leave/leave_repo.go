package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-leavedesk/internal/status"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusPatch is the full post-transition shape of the status columns.
// Nil ApprovedBy/ApprovedAt clear the columns; nil ManagerNotes leaves the
// existing note untouched.
type StatusPatch struct {
	Status       string
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	ManagerNotes *string
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *Leave) error
	FindAll(ctx context.Context) ([]Leave, error)
	FindAllByEmployee(ctx context.Context, employeeID string) ([]Leave, error)
	FindByID(ctx context.Context, id string) (*Leave, error)
	FindActiveOverlap(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) (*Leave, error)
	TransitionFrom(ctx context.Context, id, fromStatus string, patch StatusPatch) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		First(&l, "id = ?", id).Error
	return &l, err
}

// FindActiveOverlap returns a Pending or Approved leave for the employee
// whose closed date interval touches [startDate, endDate], or nil when the
// range is clear.
func (r *repository) FindActiveOverlap(ctx context.Context, employeeID string, startDate, endDate time.Time, excludeID *string) (*Leave, error) {
	db := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{status.Pending, status.Approved}).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate)

	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var l Leave
	err := db.First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// TransitionFrom flips the status columns only when the row is still in
// fromStatus. A false return means a concurrent operation got there first.
func (r *repository) TransitionFrom(ctx context.Context, id, fromStatus string, patch StatusPatch) (bool, error) {
	const query = `
UPDATE leaves
SET status = $1,
	approved_by = $2,
	approved_at = $3,
	manager_notes = COALESCE($4, manager_notes),
	updated_at = NOW()
WHERE id = $5
  AND status = $6
  AND deleted_at IS NULL
`

	args := []any{patch.Status, patch.ApprovedBy, patch.ApprovedAt, patch.ManagerNotes, id, fromStatus}

	if r.tx != nil {
		res, err := r.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return false, err
		}
		affected, err := res.RowsAffected()
		return affected > 0, err
	}

	res := r.db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected > 0, res.Error
}
