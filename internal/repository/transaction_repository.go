package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

const transactionColumns = `id, user_id, wallet_id, date, item, category, subcategory, establishment, amount, type`

type transactionRepository struct {
	db sqlx.ExtContext
}

func NewTransactionRepository(db sqlx.ExtContext) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (string, error) {
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}

	query := r.db.Rebind(`
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		transaction.ID,
		transaction.UserID,
		transaction.WalletID,
		utc(transaction.Date),
		transaction.Item,
		transaction.Category,
		transaction.Subcategory,
		transaction.Establishment,
		transaction.Amount,
		string(transaction.Type),
	)
	if err != nil {
		return "", err
	}

	return transaction.ID, nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := r.db.Rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`)

	var transaction domain.Transaction
	if err := sqlx.GetContext(ctx, r.db, &transaction, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	transaction.Date = utc(transaction.Date)
	return &transaction, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	query := r.db.Rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ? ORDER BY date, id`)

	transactions := []*domain.Transaction{}
	if err := sqlx.SelectContext(ctx, r.db, &transactions, query, userID); err != nil {
		return nil, err
	}

	for _, transaction := range transactions {
		transaction.Date = utc(transaction.Date)
	}
	return transactions, nil
}

func (r *transactionRepository) UpdateWalletID(ctx context.Context, id, walletID string) error {
	query := r.db.Rebind(`UPDATE transactions SET wallet_id = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, walletID, id)
	if err != nil {
		return err
	}

	return requireAffected(result)
}
