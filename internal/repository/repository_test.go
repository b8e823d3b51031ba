package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advansoftware/finwise-installments/internal/config"
	"github.com/advansoftware/finwise-installments/internal/domain"
)

var start = time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return NewStore(db), db
}

func newPlan(userID, walletID string, rows int) *domain.InstallmentPlan {
	id := uuid.NewString()
	plan := &domain.InstallmentPlan{
		ID:                id,
		UserID:            userID,
		Name:              "Geladeira",
		Category:          "Casa",
		TotalAmount:       dec("100").Mul(decimal.NewFromInt(int64(rows))),
		TotalInstallments: rows,
		InstallmentAmount: dec("100"),
		StartDate:         start,
		SourceWalletID:    walletID,
		IsActive:          true,
		CreatedAt:         start,
		UpdatedAt:         start,
	}
	for i := 0; i < rows; i++ {
		plan.Payments = append(plan.Payments, &domain.InstallmentPayment{
			ID:                uuid.NewString(),
			PlanID:            id,
			InstallmentNumber: i + 1,
			DueDate:           start.AddDate(0, i, 0),
			ScheduledAmount:   dec("100"),
			Status:            domain.PaymentStatusPending,
		})
	}
	return plan
}

func TestPlanRepository_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "wallet-1", 3)
	end := start.AddDate(2, 0, 0)
	plan.EndDate = &end
	require.NoError(t, store.Plans.Create(ctx, plan))

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, plan.Name, got.Name)
	assert.Equal(t, "Casa", got.Category)
	assert.True(t, got.TotalAmount.Equal(dec("300")))
	assert.Equal(t, start, got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, end, *got.EndDate)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsRecurring)
	assert.Empty(t, got.AdjustmentHistory)

	require.Len(t, got.Payments, 3)
	for i, p := range got.Payments {
		assert.Equal(t, i+1, p.InstallmentNumber)
		assert.Equal(t, start.AddDate(0, i, 0), p.DueDate)
		assert.Equal(t, domain.PaymentStatusPending, p.Status)
		assert.Nil(t, p.PaidAmount)
		assert.Nil(t, p.PaidDate)
		assert.Nil(t, p.TransactionID)
	}
}

func TestPlanRepository_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Plans.GetByID(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPlanRepository_ListByUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	older := newPlan("user-1", "w", 1)
	newer := newPlan("user-1", "w", 2)
	newer.CreatedAt = start.Add(time.Hour)
	inactive := newPlan("user-1", "w", 1)
	inactive.IsActive = false
	other := newPlan("user-2", "w", 1)

	for _, p := range []*domain.InstallmentPlan{older, newer, inactive, other} {
		require.NoError(t, store.Plans.Create(ctx, p))
	}

	all, err := store.Plans.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Len(t, all[0].Payments, 2)

	active, err := store.Plans.ListActiveByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	none, err := store.Plans.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	users, err := store.Plans.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1", "user-2"}, users)
}

func TestPlanRepository_SettlePaymentIsConditional(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "w", 2)
	require.NoError(t, store.Plans.Create(ctx, plan))

	txID := "tx-1"
	settlement := domain.Settlement{PaidAmount: dec("100"), PaidDate: start.Add(time.Hour), TransactionID: &txID}

	ok, err := store.Plans.SettlePayment(ctx, plan.ID, 1, settlement)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Plans.SettlePayment(ctx, plan.ID, 1, settlement)
	require.NoError(t, err)
	assert.False(t, ok, "a paid row must not be settled twice")

	ok, err = store.Plans.SettlePayment(ctx, plan.ID, 9, settlement)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)

	paid := got.Payment(1)
	assert.Equal(t, domain.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAmount)
	assert.True(t, paid.PaidAmount.Equal(dec("100")))
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, start.Add(time.Hour), *paid.PaidDate)
	require.NotNil(t, paid.TransactionID)
	assert.Equal(t, "tx-1", *paid.TransactionID)

	assert.Equal(t, domain.PaymentStatusPending, got.Payment(2).Status)
}

func TestPlanRepository_UpdateScheduledAmounts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "w", 4)
	require.NoError(t, store.Plans.Create(ctx, plan))

	_, err := store.Plans.SettlePayment(ctx, plan.ID, 3, domain.Settlement{PaidAmount: dec("100"), PaidDate: start})
	require.NoError(t, err)

	// rows 2..4 are due on or after the cut, row 3 is already paid
	changed, err := store.Plans.UpdateScheduledAmounts(ctx, plan.ID, plan.Payments[1].DueDate, dec("120"))
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, got.Payment(1).ScheduledAmount.Equal(dec("100")))
	assert.True(t, got.Payment(2).ScheduledAmount.Equal(dec("120")))
	assert.True(t, got.Payment(3).ScheduledAmount.Equal(dec("100")))
	assert.True(t, got.Payment(4).ScheduledAmount.Equal(dec("120")))
}

func TestPlanRepository_UpdateAmountsLeavesOtherColumns(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "w1", 2)
	require.NoError(t, store.Plans.Create(ctx, plan))
	require.NoError(t, store.Plans.UpdateWalletRef(ctx, plan.ID, "w2", start.Add(time.Hour)))

	at := start.Add(2 * time.Hour)
	require.NoError(t, store.Plans.UpdateAmounts(ctx, plan.ID, dec("65.50"), at))

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, got.InstallmentAmount.Equal(dec("65.50")))
	assert.True(t, got.TotalAmount.Equal(dec("65.50")))
	assert.Equal(t, "w2", got.SourceWalletID)
	assert.Equal(t, "Geladeira", got.Name)
	assert.Equal(t, at, got.UpdatedAt)

	assert.True(t, errors.Is(store.Plans.UpdateAmounts(ctx, "missing", dec("1"), at), ErrNotFound))
}

func TestPlanRepository_SettlePaymentStampsSettlementTime(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "w1", 2)
	require.NoError(t, store.Plans.Create(ctx, plan))

	settledAt := start.AddDate(0, 0, 10)
	ok, err := store.Plans.SettlePayment(ctx, plan.ID, 1, domain.Settlement{
		PaidAmount: dec("100"),
		PaidDate:   start.Add(-48 * time.Hour),
		SettledAt:  settledAt,
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, settledAt, got.UpdatedAt)
	assert.Equal(t, start.Add(-48*time.Hour), *got.Payment(1).PaidDate)
}

func TestPlanRepository_AdjustmentHistoryOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "w", 1)
	require.NoError(t, store.Plans.Create(ctx, plan))

	first := domain.AdjustmentEntry{Date: start, PreviousAmount: dec("100"), NewAmount: dec("110"), Reason: "reajuste"}
	second := domain.AdjustmentEntry{Date: start, PreviousAmount: dec("110"), NewAmount: dec("90")}
	require.NoError(t, store.Plans.AppendAdjustment(ctx, plan.ID, first))
	require.NoError(t, store.Plans.AppendAdjustment(ctx, plan.ID, second))

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.AdjustmentHistory, 2)
	assert.True(t, got.AdjustmentHistory[0].NewAmount.Equal(dec("110")))
	assert.Equal(t, "reajuste", got.AdjustmentHistory[0].Reason)
	assert.True(t, got.AdjustmentHistory[1].NewAmount.Equal(dec("90")))
}

func TestPlanRepository_UpdateAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	plan := newPlan("user-1", "w", 2)
	require.NoError(t, store.Plans.Create(ctx, plan))

	plan.Name = "Fogão"
	plan.IsActive = false
	plan.UpdatedAt = start.Add(time.Minute)
	require.NoError(t, store.Plans.Update(ctx, plan))

	require.NoError(t, store.Plans.UpdateWalletRef(ctx, plan.ID, "w2", start.Add(2*time.Minute)))

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fogão", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, "w2", got.SourceWalletID)

	deleted, err := store.Plans.Delete(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Plans.Delete(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Plans.GetByID(ctx, plan.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	missing := newPlan("user-1", "w", 1)
	assert.True(t, errors.Is(store.Plans.Update(ctx, missing), ErrNotFound))
}

func TestWalletRepository_AdjustBalance(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	wallet := &domain.Wallet{ID: "w1", UserID: "user-1", Name: "Conta", Balance: dec("150"), CreatedAt: start}
	require.NoError(t, store.Wallets.Create(ctx, wallet))

	require.NoError(t, store.Wallets.AdjustBalance(ctx, "w1", dec("-100")))

	err := store.Wallets.AdjustBalance(ctx, "w1", dec("-60"))
	assert.True(t, errors.Is(err, ErrConditionFailed))

	err = store.Wallets.AdjustBalance(ctx, "missing", dec("-1"))
	assert.True(t, errors.Is(err, ErrNotFound))

	got, err := store.Wallets.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("50")), "balance %s", got.Balance)
}

func TestWalletRepository_CentAmountsStayExact(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Wallets.Create(ctx, &domain.Wallet{ID: "w1", UserID: "user-1", Name: "Conta", Balance: dec("0.30"), CreatedAt: start}))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Wallets.AdjustBalance(ctx, "w1", dec("-0.10")), "debit %d", i+1)
	}
	assert.True(t, errors.Is(store.Wallets.AdjustBalance(ctx, "w1", dec("-0.01")), ErrConditionFailed))

	got, err := store.Wallets.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero(), "balance %s", got.Balance)

	var storage string
	require.NoError(t, db.GetContext(ctx, &storage, `SELECT typeof(balance) FROM wallets WHERE id = 'w1'`))
	assert.Equal(t, "text", storage)
}

func TestWalletRepository_ListByUserOrdersByCreation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	wallets := []*domain.Wallet{
		{ID: "b", UserID: "u", Name: "B", Balance: decimal.Zero, CreatedAt: start},
		{ID: "c", UserID: "u", Name: "C", Balance: decimal.Zero, CreatedAt: start.Add(-time.Hour)},
		{ID: "a", UserID: "u", Name: "A", Balance: decimal.Zero, CreatedAt: start},
	}
	for _, w := range wallets {
		require.NoError(t, store.Wallets.Create(ctx, w))
	}

	got, err := store.Wallets.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestTransactionRepository(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Transactions.Create(ctx, &domain.Transaction{
		UserID:   "u",
		WalletID: "old",
		Date:     start,
		Item:     "Geladeira - Parcela 1/3",
		Amount:   dec("100"),
		Type:     domain.TransactionExpense,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, store.Transactions.UpdateWalletID(ctx, id, "new"))

	got, err := store.Transactions.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", got.WalletID)
	assert.Equal(t, domain.TransactionExpense, got.Type)

	list, err := store.Transactions.ListByUser(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.True(t, errors.Is(store.Transactions.UpdateWalletID(ctx, "missing", "new"), ErrNotFound))
}

func TestGoalAndBudgetRepositories(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Goals.Create(ctx, &domain.Goal{ID: "g1", UserID: "u", Name: "Viagem", TargetAmount: dec("1000"), CurrentAmount: dec("1000"), CreatedAt: start}))
	require.NoError(t, store.Budgets.Create(ctx, &domain.Budget{ID: "b1", UserID: "u", Name: "Mercado", Amount: dec("800"), Period: "monthly", CreatedAt: start}))

	goals, err := store.Goals.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].IsCompleted())

	budgets, err := store.Budgets.ListByUser(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Wallets.Create(ctx, &domain.Wallet{ID: "w1", UserID: "u", Name: "Conta", Balance: dec("100"), CreatedAt: start}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		require.NoError(t, repos.Wallets.AdjustBalance(ctx, "w1", dec("-40")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	wallet, err := store.Wallets.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("100")))

	err = store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.Wallets.AdjustBalance(ctx, "w1", dec("-40"))
	})
	require.NoError(t, err)

	wallet, err = store.Wallets.FindByID(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("60")))
}
