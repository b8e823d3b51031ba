package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

const planColumns = `id, user_id, name, description, category, subcategory, establishment,
	total_amount, total_installments, installment_amount, start_date, end_date,
	is_recurring, recurring_type, source_wallet_id, is_active, created_at, updated_at`

const paymentColumns = `id, plan_id, installment_number, due_date, scheduled_amount, status,
	paid_amount, paid_date, transaction_id`

type planRepository struct {
	db sqlx.ExtContext
}

// NewPlanRepository works on a *sqlx.DB or a *sqlx.Tx
func NewPlanRepository(db sqlx.ExtContext) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *domain.InstallmentPlan) error {
	query := r.db.Rebind(`
		INSERT INTO installment_plans (` + planColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.UserID,
		plan.Name,
		plan.Description,
		plan.Category,
		plan.Subcategory,
		plan.Establishment,
		plan.TotalAmount,
		plan.TotalInstallments,
		plan.InstallmentAmount,
		utc(plan.StartDate),
		utcPtr(plan.EndDate),
		plan.IsRecurring,
		string(plan.RecurringType),
		plan.SourceWalletID,
		plan.IsActive,
		utc(plan.CreatedAt),
		utc(plan.UpdatedAt),
	)
	if err != nil {
		return err
	}

	paymentQuery := r.db.Rebind(`
		INSERT INTO installment_payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	for _, payment := range plan.Payments {
		_, err = r.db.ExecContext(ctx, paymentQuery,
			payment.ID,
			plan.ID,
			payment.InstallmentNumber,
			utc(payment.DueDate),
			payment.ScheduledAmount,
			string(payment.Status),
			payment.PaidAmount,
			utcPtr(payment.PaidDate),
			payment.TransactionID,
		)
		if err != nil {
			return err
		}
	}

	for _, entry := range plan.AdjustmentHistory {
		if err := r.AppendAdjustment(ctx, plan.ID, entry); err != nil {
			return err
		}
	}

	return nil
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.InstallmentPlan, error) {
	query := r.db.Rebind(`SELECT ` + planColumns + ` FROM installment_plans WHERE id = ?`)

	var plan domain.InstallmentPlan
	if err := sqlx.GetContext(ctx, r.db, &plan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	plans := []*domain.InstallmentPlan{&plan}
	if err := r.loadChildren(ctx, plans); err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepository) ListByUser(ctx context.Context, userID string) ([]*domain.InstallmentPlan, error) {
	return r.list(ctx, `WHERE user_id = ?`, userID)
}

func (r *planRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.InstallmentPlan, error) {
	return r.list(ctx, `WHERE user_id = ? AND is_active = ?`, userID, true)
}

func (r *planRepository) list(ctx context.Context, where string, args ...interface{}) ([]*domain.InstallmentPlan, error) {
	query := r.db.Rebind(`SELECT ` + planColumns + ` FROM installment_plans ` + where + ` ORDER BY created_at DESC, id`)

	plans := []*domain.InstallmentPlan{}
	if err := sqlx.SelectContext(ctx, r.db, &plans, query, args...); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, plans); err != nil {
		return nil, err
	}

	return plans, nil
}

// loadChildren fills payments and adjustment history of plans with one
// query per child table
func (r *planRepository) loadChildren(ctx context.Context, plans []*domain.InstallmentPlan) error {
	if len(plans) == 0 {
		return nil
	}

	byID := make(map[string]*domain.InstallmentPlan, len(plans))
	ids := make([]string, 0, len(plans))
	for _, plan := range plans {
		plan.StartDate = utc(plan.StartDate)
		plan.EndDate = utcPtr(plan.EndDate)
		plan.CreatedAt = utc(plan.CreatedAt)
		plan.UpdatedAt = utc(plan.UpdatedAt)
		plan.Payments = []*domain.InstallmentPayment{}
		plan.AdjustmentHistory = []domain.AdjustmentEntry{}

		byID[plan.ID] = plan
		ids = append(ids, plan.ID)
	}

	query, args, err := sqlx.In(`SELECT `+paymentColumns+` FROM installment_payments
		WHERE plan_id IN (?) ORDER BY plan_id, installment_number`, ids)
	if err != nil {
		return err
	}

	var payments []*domain.InstallmentPayment
	if err := sqlx.SelectContext(ctx, r.db, &payments, r.db.Rebind(query), args...); err != nil {
		return err
	}

	for _, payment := range payments {
		payment.DueDate = utc(payment.DueDate)
		payment.PaidDate = utcPtr(payment.PaidDate)

		plan := byID[payment.PlanID]
		plan.Payments = append(plan.Payments, payment)
	}

	query, args, err = sqlx.In(`SELECT plan_id, adjusted_at, previous_amount, new_amount, reason
		FROM plan_adjustments WHERE plan_id IN (?) ORDER BY plan_id, position`, ids)
	if err != nil {
		return err
	}

	var entries []struct {
		PlanID string `db:"plan_id"`
		domain.AdjustmentEntry
	}
	if err := sqlx.SelectContext(ctx, r.db, &entries, r.db.Rebind(query), args...); err != nil {
		return err
	}

	for _, entry := range entries {
		entry.Date = utc(entry.Date)

		plan := byID[entry.PlanID]
		plan.AdjustmentHistory = append(plan.AdjustmentHistory, entry.AdjustmentEntry)
	}

	return nil
}

func (r *planRepository) Update(ctx context.Context, plan *domain.InstallmentPlan) error {
	query := r.db.Rebind(`
		UPDATE installment_plans
		SET name = ?, description = ?, category = ?, subcategory = ?, establishment = ?,
			total_amount = ?, installment_amount = ?, end_date = ?, source_wallet_id = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		plan.Name,
		plan.Description,
		plan.Category,
		plan.Subcategory,
		plan.Establishment,
		plan.TotalAmount,
		plan.InstallmentAmount,
		utcPtr(plan.EndDate),
		plan.SourceWalletID,
		plan.IsActive,
		utc(plan.UpdatedAt),
		plan.ID,
	)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *planRepository) Delete(ctx context.Context, id string) (bool, error) {
	// children go first so the delete does not depend on cascade support
	for _, query := range []string{
		`DELETE FROM installment_payments WHERE plan_id = ?`,
		`DELETE FROM plan_adjustments WHERE plan_id = ?`,
	} {
		if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), id); err != nil {
			return false, err
		}
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM installment_plans WHERE id = ?`), id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *planRepository) SettlePayment(ctx context.Context, planID string, installmentNumber int, settlement domain.Settlement) (bool, error) {
	query := r.db.Rebind(`
		UPDATE installment_payments
		SET status = ?, paid_amount = ?, paid_date = ?, transaction_id = ?
		WHERE plan_id = ? AND installment_number = ? AND status = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		string(domain.PaymentStatusPaid),
		settlement.PaidAmount,
		utc(settlement.PaidDate),
		settlement.TransactionID,
		planID,
		installmentNumber,
		string(domain.PaymentStatusPending),
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	touch := r.db.Rebind(`UPDATE installment_plans SET updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, touch, utc(settledAt(settlement)), planID); err != nil {
		return false, err
	}

	return true, nil
}

func (r *planRepository) UpdateScheduledAmounts(ctx context.Context, planID string, from time.Time, amount decimal.Decimal) (int, error) {
	query := r.db.Rebind(`
		UPDATE installment_payments
		SET scheduled_amount = ?
		WHERE plan_id = ? AND status = ? AND due_date >= ?
	`)

	result, err := r.db.ExecContext(ctx, query, amount, planID, string(domain.PaymentStatusPending), utc(from))
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	return int(rows), err
}

func (r *planRepository) AppendAdjustment(ctx context.Context, planID string, entry domain.AdjustmentEntry) error {
	query := r.db.Rebind(`
		INSERT INTO plan_adjustments (id, plan_id, position, adjusted_at, previous_amount, new_amount, reason)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1, ?, ?, ?, ?
		FROM plan_adjustments WHERE plan_id = ?
	`)

	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		planID,
		utc(entry.Date),
		entry.PreviousAmount,
		entry.NewAmount,
		entry.Reason,
		planID,
	)
	return err
}

func (r *planRepository) UpdateAmounts(ctx context.Context, planID string, amount decimal.Decimal, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE installment_plans
		SET installment_amount = ?, total_amount = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query, amount, amount, utc(at), planID)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *planRepository) UpdateWalletRef(ctx context.Context, planID, walletID string, at time.Time) error {
	query := r.db.Rebind(`UPDATE installment_plans SET source_wallet_id = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, walletID, utc(at), planID)
	if err != nil {
		return err
	}

	return requireAffected(result)
}

func (r *planRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := sqlx.SelectContext(ctx, r.db, &ids, `SELECT DISTINCT user_id FROM installment_plans ORDER BY user_id`)
	return ids, err
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func settledAt(settlement domain.Settlement) time.Time {
	if settlement.SettledAt.IsZero() {
		return time.Now()
	}
	return settlement.SettledAt
}
