package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

// maxBalanceAttempts bounds the read-compute-write loop under concurrent writers
const maxBalanceAttempts = 3

type walletRepository struct {
	db sqlx.ExtContext
}

func NewWalletRepository(db sqlx.ExtContext) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := r.db.Rebind(`
		INSERT INTO wallets (id, user_id, name, type, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.Name,
		wallet.Type,
		wallet.Balance,
		utc(wallet.CreatedAt),
	)
	return err
}

func (r *walletRepository) FindByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := r.db.Rebind(`SELECT id, user_id, name, type, balance, created_at FROM wallets WHERE id = ?`)

	var wallet domain.Wallet
	if err := sqlx.GetContext(ctx, r.db, &wallet, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	wallet.CreatedAt = utc(wallet.CreatedAt)
	return &wallet, nil
}

func (r *walletRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, name, type, balance, created_at
		FROM wallets
		WHERE user_id = ?
		ORDER BY created_at, id
	`)

	wallets := []*domain.Wallet{}
	if err := sqlx.SelectContext(ctx, r.db, &wallets, query, userID); err != nil {
		return nil, err
	}

	for _, wallet := range wallets {
		wallet.CreatedAt = utc(wallet.CreatedAt)
	}
	return wallets, nil
}

// AdjustBalance does the arithmetic in decimal and writes the result back
// only if the balance is still the one it read. Postgres also locks the row.
func (r *walletRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	read := `SELECT balance FROM wallets WHERE id = ?`
	if r.db.DriverName() == "postgres" {
		read += ` FOR UPDATE`
	}
	read = r.db.Rebind(read)
	write := r.db.Rebind(`UPDATE wallets SET balance = ? WHERE id = ? AND balance = ?`)

	for attempt := 0; attempt < maxBalanceAttempts; attempt++ {
		var balance decimal.Decimal
		if err := sqlx.GetContext(ctx, r.db, &balance, read, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		next := balance.Add(delta)
		if next.IsNegative() {
			return ErrConditionFailed
		}

		result, err := r.db.ExecContext(ctx, write, next, id, balance)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 1 {
			return nil
		}
	}

	return ErrBalanceConflict
}
