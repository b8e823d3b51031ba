package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Store is the SQL backed TxManager. Its embedded Repositories run outside
// any transaction.
type Store struct {
	Repositories
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Repositories: newRepositories(db),
		db:           db,
	}
}

func newRepositories(db sqlx.ExtContext) Repositories {
	return Repositories{
		Plans:        NewPlanRepository(db),
		Wallets:      NewWalletRepository(db),
		Transactions: NewTransactionRepository(db),
		Goals:        NewGoalRepository(db),
		Budgets:      NewBudgetRepository(db),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
