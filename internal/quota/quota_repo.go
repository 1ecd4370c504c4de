package quota

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=quota_repo.go -destination=mock/quota_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, q *AnnualLeaveQuota) error
	FindByEmployeeAndYear(ctx context.Context, employeeID string, year int) (*AnnualLeaveQuota, error)
	Debit(ctx context.Context, employeeID string, year, days int) (bool, error)
	Credit(ctx context.Context, employeeID string, year, days int) (bool, error)
	Rebalance(ctx context.Context, employeeID string, year, creditDays, debitDays int) (bool, error)
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

func (r *repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	if r.tx != nil {
		res, err := r.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	res := r.db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected, res.Error
}

func (r *repository) Create(ctx context.Context, q *AnnualLeaveQuota) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *repository) FindByEmployeeAndYear(ctx context.Context, employeeID string, year int) (*AnnualLeaveQuota, error) {
	var q AnnualLeaveQuota
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		First(&q).Error
	return &q, err
}

// Debit consumes days only when the remaining balance still covers them.
// The balance check and the write are a single statement, so two racing
// debits can never both pass an exact-fit balance.
func (r *repository) Debit(ctx context.Context, employeeID string, year, days int) (bool, error) {
	const query = `
UPDATE annual_leave_quotas
SET used_days = used_days + $1, updated_at = NOW()
WHERE employee_id = $2
  AND year = $3
  AND total_days - used_days >= $1
`
	affected, err := r.exec(ctx, query, days, employeeID, year)
	return affected > 0, err
}

// Credit hands days back, clamping at zero so over-crediting can never
// drive used_days negative.
func (r *repository) Credit(ctx context.Context, employeeID string, year, days int) (bool, error) {
	const query = `
UPDATE annual_leave_quotas
SET used_days = GREATEST(used_days - $1, 0), updated_at = NOW()
WHERE employee_id = $2
  AND year = $3
`
	affected, err := r.exec(ctx, query, days, employeeID, year)
	return affected > 0, err
}

// Rebalance applies a credit and a re-debit as one clamped statement. Used
// by reversal: refund the full grant, keep only the elapsed portion.
func (r *repository) Rebalance(ctx context.Context, employeeID string, year, creditDays, debitDays int) (bool, error) {
	const query = `
UPDATE annual_leave_quotas
SET used_days = GREATEST(used_days - $1 + $2, 0), updated_at = NOW()
WHERE employee_id = $3
  AND year = $4
`
	affected, err := r.exec(ctx, query, creditDays, debitDays, employeeID, year)
	return affected > 0, err
}
