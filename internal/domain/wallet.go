package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is owned by the wallet store. This service only reads it and moves
// its balance during settlement.
type Wallet struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	Name      string          `json:"name" db:"name"`
	Type      string          `json:"type" db:"type"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// Transaction is a ledger entry in the external transaction store
type Transaction struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"userId" db:"user_id"`
	WalletID      string          `json:"walletId" db:"wallet_id"`
	Date          time.Time       `json:"date" db:"date"`
	Item          string          `json:"item" db:"item"`
	Category      string          `json:"category" db:"category"`
	Subcategory   string          `json:"subcategory,omitempty" db:"subcategory"`
	Establishment string          `json:"establishment,omitempty" db:"establishment"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Type          TransactionType `json:"type" db:"type"`
}

// RepairResult counts the references rewritten by a bulk repair pass
type RepairResult struct {
	PlansRepaired        int `json:"plansRepaired"`
	TransactionsRepaired int `json:"transactionsRepaired"`
}
