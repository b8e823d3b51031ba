package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/repository"
)

type planRepository struct {
	run runner
}

func (r *planRepository) Create(ctx context.Context, plan *domain.InstallmentPlan) error {
	return r.run(OpCreatePlan, func(st *state) error {
		stored := plan.Clone()
		if stored.Payments == nil {
			stored.Payments = []*domain.InstallmentPayment{}
		}
		if stored.AdjustmentHistory == nil {
			stored.AdjustmentHistory = []domain.AdjustmentEntry{}
		}
		for _, payment := range stored.Payments {
			payment.PlanID = stored.ID
		}
		st.plans[stored.ID] = stored
		return nil
	})
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.InstallmentPlan, error) {
	var plan *domain.InstallmentPlan
	err := r.run(OpGetPlan, func(st *state) error {
		stored, ok := st.plans[id]
		if !ok {
			return repository.ErrNotFound
		}
		plan = stored.Clone()
		return nil
	})
	return plan, err
}

func (r *planRepository) ListByUser(ctx context.Context, userID string) ([]*domain.InstallmentPlan, error) {
	return r.list(func(plan *domain.InstallmentPlan) bool {
		return plan.UserID == userID
	})
}

func (r *planRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.InstallmentPlan, error) {
	return r.list(func(plan *domain.InstallmentPlan) bool {
		return plan.UserID == userID && plan.IsActive
	})
}

func (r *planRepository) list(match func(*domain.InstallmentPlan) bool) ([]*domain.InstallmentPlan, error) {
	plans := []*domain.InstallmentPlan{}
	err := r.run(OpListPlans, func(st *state) error {
		for _, plan := range st.plans {
			if match(plan) {
				plans = append(plans, plan.Clone())
			}
		}
		return nil
	})

	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].CreatedAt.After(plans[j].CreatedAt)
		}
		return plans[i].ID < plans[j].ID
	})
	return plans, err
}

func (r *planRepository) Update(ctx context.Context, plan *domain.InstallmentPlan) error {
	return r.run(OpUpdatePlan, func(st *state) error {
		stored, ok := st.plans[plan.ID]
		if !ok {
			return repository.ErrNotFound
		}

		stored.Name = plan.Name
		stored.Description = plan.Description
		stored.Category = plan.Category
		stored.Subcategory = plan.Subcategory
		stored.Establishment = plan.Establishment
		stored.TotalAmount = plan.TotalAmount
		stored.InstallmentAmount = plan.InstallmentAmount
		stored.SourceWalletID = plan.SourceWalletID
		stored.IsActive = plan.IsActive
		stored.UpdatedAt = plan.UpdatedAt
		stored.EndDate = nil
		if plan.EndDate != nil {
			end := *plan.EndDate
			stored.EndDate = &end
		}
		return nil
	})
}

func (r *planRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.run(OpDeletePlan, func(st *state) error {
		_, deleted = st.plans[id]
		delete(st.plans, id)
		return nil
	})
	return deleted, err
}

func (r *planRepository) SettlePayment(ctx context.Context, planID string, installmentNumber int, settlement domain.Settlement) (bool, error) {
	var settled bool
	err := r.run(OpSettlePayment, func(st *state) error {
		plan, ok := st.plans[planID]
		if !ok {
			return nil
		}

		payment := plan.Payment(installmentNumber)
		if payment == nil || payment.Status != domain.PaymentStatusPending {
			return nil
		}

		amount := settlement.PaidAmount
		date := settlement.PaidDate
		payment.Status = domain.PaymentStatusPaid
		payment.PaidAmount = &amount
		payment.PaidDate = &date
		payment.TransactionID = nil
		if settlement.TransactionID != nil {
			id := *settlement.TransactionID
			payment.TransactionID = &id
		}

		plan.UpdatedAt = settlement.SettledAt
		if plan.UpdatedAt.IsZero() {
			plan.UpdatedAt = time.Now()
		}
		settled = true
		return nil
	})
	return settled, err
}

func (r *planRepository) UpdateScheduledAmounts(ctx context.Context, planID string, from time.Time, amount decimal.Decimal) (int, error) {
	var changed int
	err := r.run(OpUpdateScheduledAmounts, func(st *state) error {
		plan, ok := st.plans[planID]
		if !ok {
			return nil
		}

		for _, payment := range plan.Payments {
			if payment.Status == domain.PaymentStatusPending && !payment.DueDate.Before(from) {
				payment.ScheduledAmount = amount
				changed++
			}
		}
		return nil
	})
	return changed, err
}

func (r *planRepository) AppendAdjustment(ctx context.Context, planID string, entry domain.AdjustmentEntry) error {
	return r.run(OpAppendAdjustment, func(st *state) error {
		plan, ok := st.plans[planID]
		if !ok {
			return repository.ErrNotFound
		}
		plan.AdjustmentHistory = append(plan.AdjustmentHistory, entry)
		return nil
	})
}

func (r *planRepository) UpdateAmounts(ctx context.Context, planID string, amount decimal.Decimal, at time.Time) error {
	return r.run(OpUpdatePlanAmounts, func(st *state) error {
		plan, ok := st.plans[planID]
		if !ok {
			return repository.ErrNotFound
		}
		plan.InstallmentAmount = amount
		plan.TotalAmount = amount
		plan.UpdatedAt = at
		return nil
	})
}

func (r *planRepository) UpdateWalletRef(ctx context.Context, planID, walletID string, at time.Time) error {
	return r.run(OpUpdateWalletRef, func(st *state) error {
		plan, ok := st.plans[planID]
		if !ok {
			return repository.ErrNotFound
		}
		plan.SourceWalletID = walletID
		plan.UpdatedAt = at
		return nil
	})
}

func (r *planRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := r.run(OpListUserIDs, func(st *state) error {
		seen := make(map[string]bool)
		for _, plan := range st.plans {
			if !seen[plan.UserID] {
				seen[plan.UserID] = true
				ids = append(ids, plan.UserID)
			}
		}
		return nil
	})

	sort.Strings(ids)
	return ids, err
}

type walletRepository struct {
	run runner
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return r.run(OpCreateWallet, func(st *state) error {
		stored := *wallet
		st.wallets[stored.ID] = &stored
		return nil
	})
}

func (r *walletRepository) FindByID(ctx context.Context, id string) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := r.run(OpFindWallet, func(st *state) error {
		stored, ok := st.wallets[id]
		if !ok {
			return repository.ErrNotFound
		}
		w := *stored
		wallet = &w
		return nil
	})
	return wallet, err
}

func (r *walletRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	wallets := []*domain.Wallet{}
	err := r.run(OpListWallets, func(st *state) error {
		for _, stored := range st.wallets {
			if stored.UserID == userID {
				w := *stored
				wallets = append(wallets, &w)
			}
		}
		return nil
	})

	sort.Slice(wallets, func(i, j int) bool {
		if !wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
		}
		return wallets[i].ID < wallets[j].ID
	})
	return wallets, err
}

func (r *walletRepository) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	return r.run(OpAdjustBalance, func(st *state) error {
		wallet, ok := st.wallets[id]
		if !ok {
			return repository.ErrNotFound
		}

		balance := wallet.Balance.Add(delta)
		if balance.IsNegative() {
			return repository.ErrConditionFailed
		}
		wallet.Balance = balance
		return nil
	})
}

type transactionRepository struct {
	run runner
}

func (r *transactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (string, error) {
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}

	err := r.run(OpCreateTransaction, func(st *state) error {
		stored := *transaction
		st.transactions[stored.ID] = &stored
		return nil
	})
	if err != nil {
		return "", err
	}
	return transaction.ID, nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var transaction *domain.Transaction
	err := r.run(OpFindTransaction, func(st *state) error {
		stored, ok := st.transactions[id]
		if !ok {
			return repository.ErrNotFound
		}
		t := *stored
		transaction = &t
		return nil
	})
	return transaction, err
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	transactions := []*domain.Transaction{}
	err := r.run(OpListTransactions, func(st *state) error {
		for _, stored := range st.transactions {
			if stored.UserID == userID {
				t := *stored
				transactions = append(transactions, &t)
			}
		}
		return nil
	})

	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		return transactions[i].ID < transactions[j].ID
	})
	return transactions, err
}

func (r *transactionRepository) UpdateWalletID(ctx context.Context, id, walletID string) error {
	return r.run(OpUpdateTransactionRef, func(st *state) error {
		transaction, ok := st.transactions[id]
		if !ok {
			return repository.ErrNotFound
		}
		transaction.WalletID = walletID
		return nil
	})
}

type goalRepository struct {
	run runner
}

func (r *goalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	return r.run(OpCreateGoal, func(st *state) error {
		st.goals[goal.ID] = *goal
		return nil
	})
}

func (r *goalRepository) ListByUser(ctx context.Context, userID string) ([]domain.Goal, error) {
	goals := []domain.Goal{}
	err := r.run(OpListGoals, func(st *state) error {
		for _, goal := range st.goals {
			if goal.UserID == userID {
				goals = append(goals, goal)
			}
		}
		return nil
	})

	sort.Slice(goals, func(i, j int) bool {
		if !goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].CreatedAt.Before(goals[j].CreatedAt)
		}
		return goals[i].ID < goals[j].ID
	})
	return goals, err
}

type budgetRepository struct {
	run runner
}

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	return r.run(OpCreateBudget, func(st *state) error {
		st.budgets[budget.ID] = *budget
		return nil
	})
}

func (r *budgetRepository) ListByUser(ctx context.Context, userID string) ([]domain.Budget, error) {
	budgets := []domain.Budget{}
	err := r.run(OpListBudgets, func(st *state) error {
		for _, budget := range st.budgets {
			if budget.UserID == userID {
				budgets = append(budgets, budget)
			}
		}
		return nil
	})

	sort.Slice(budgets, func(i, j int) bool {
		if !budgets[i].CreatedAt.Equal(budgets[j].CreatedAt) {
			return budgets[i].CreatedAt.Before(budgets[j].CreatedAt)
		}
		return budgets[i].ID < budgets[j].ID
	})
	return budgets, err
}
