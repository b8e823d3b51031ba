package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConditionFailed is returned when a guarded update matched no row
	ErrConditionFailed = errors.New("update condition not met")

	// ErrBalanceConflict is returned when the balance kept changing under a debit
	ErrBalanceConflict = errors.New("wallet balance changed concurrently")
)

// PlanRepository stores installment plans together with their payment rows
// and adjustment history
type PlanRepository interface {
	// Create stores the plan and every payment row it carries
	Create(ctx context.Context, plan *domain.InstallmentPlan) error

	// GetByID loads a plan with payments and adjustment history
	GetByID(ctx context.Context, id string) (*domain.InstallmentPlan, error)

	// ListByUser returns every plan of a user, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.InstallmentPlan, error)

	// ListActiveByUser returns the plans of a user flagged active, newest first
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.InstallmentPlan, error)

	// Update writes the editable plan columns. Payment rows are not touched.
	Update(ctx context.Context, plan *domain.InstallmentPlan) error

	// Delete removes the plan with its payments and history
	Delete(ctx context.Context, id string) (bool, error)

	// SettlePayment marks one row paid only if it is still pending and
	// reports whether a row was changed
	SettlePayment(ctx context.Context, planID string, installmentNumber int, settlement domain.Settlement) (bool, error)

	// UpdateScheduledAmounts rewrites pending rows due on or after from
	UpdateScheduledAmounts(ctx context.Context, planID string, from time.Time, amount decimal.Decimal) (int, error)

	// AppendAdjustment adds one entry at the end of the plan's history
	AppendAdjustment(ctx context.Context, planID string, entry domain.AdjustmentEntry) error

	// UpdateAmounts sets both the installment and the total amount, leaving
	// every other column alone
	UpdateAmounts(ctx context.Context, planID string, amount decimal.Decimal, at time.Time) error

	// UpdateWalletRef points the plan at another source wallet
	UpdateWalletRef(ctx context.Context, planID, walletID string, at time.Time) error

	// ListUserIDs returns every user owning at least one plan
	ListUserIDs(ctx context.Context) ([]string, error)
}

// WalletRepository is the view this service has on the wallet store
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	FindByID(ctx context.Context, id string) (*domain.Wallet, error)

	// ListByUser returns the wallets of a user ordered by creation, then id
	ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error)

	// AdjustBalance adds delta to the balance. It fails with
	// ErrConditionFailed when the result would be negative.
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) error
}

// TransactionRepository is the view this service has on the ledger
type TransactionRepository interface {
	// Create stores the transaction, assigning an id when empty, and returns the id
	Create(ctx context.Context, transaction *domain.Transaction) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
	UpdateWalletID(ctx context.Context, id, walletID string) error
}

type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) error
	ListByUser(ctx context.Context, userID string) ([]domain.Goal, error)
}

type BudgetRepository interface {
	Create(ctx context.Context, budget *domain.Budget) error
	ListByUser(ctx context.Context, userID string) ([]domain.Budget, error)
}

// Repositories groups the stores bound to one connection or transaction
type Repositories struct {
	Plans        PlanRepository
	Wallets      WalletRepository
	Transactions TransactionRepository
	Goals        GoalRepository
	Budgets      BudgetRepository
}

// TxManager runs fn as one unit of work. Every write made through the
// repositories handed to fn is committed together when fn returns nil and
// discarded otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
