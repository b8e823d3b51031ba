package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target from the goal store
type Goal struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"userId" db:"user_id"`
	Name          string          `json:"name" db:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount" db:"target_amount"`
	CurrentAmount decimal.Decimal `json:"currentAmount" db:"current_amount"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// IsCompleted reports whether the saved amount reached the target
func (g Goal) IsCompleted() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Budget is a monthly spending cap from the budget store
type Budget struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	Name      string          `json:"name" db:"name"`
	Category  string          `json:"category" db:"category"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Period    string          `json:"period" db:"period"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
