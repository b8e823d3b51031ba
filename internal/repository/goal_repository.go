package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

type goalRepository struct {
	db sqlx.ExtContext
}

func NewGoalRepository(db sqlx.ExtContext) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	query := r.db.Rebind(`
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		utc(goal.CreatedAt),
	)
	return err
}

func (r *goalRepository) ListByUser(ctx context.Context, userID string) ([]domain.Goal, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, name, target_amount, current_amount, created_at
		FROM goals
		WHERE user_id = ?
		ORDER BY created_at, id
	`)

	goals := []domain.Goal{}
	err := sqlx.SelectContext(ctx, r.db, &goals, query, userID)
	return goals, err
}

type budgetRepository struct {
	db sqlx.ExtContext
}

func NewBudgetRepository(db sqlx.ExtContext) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	query := r.db.Rebind(`
		INSERT INTO budgets (id, user_id, name, category, amount, period, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		budget.ID,
		budget.UserID,
		budget.Name,
		budget.Category,
		budget.Amount,
		budget.Period,
		utc(budget.CreatedAt),
	)
	return err
}

func (r *budgetRepository) ListByUser(ctx context.Context, userID string) ([]domain.Budget, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, name, category, amount, period, created_at
		FROM budgets
		WHERE user_id = ?
		ORDER BY created_at, id
	`)

	budgets := []domain.Budget{}
	err := sqlx.SelectContext(ctx, r.db, &budgets, query, userID)
	return budgets, err
}
