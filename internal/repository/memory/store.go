// Package memory is an in-process implementation of the repository
// interfaces. It keeps the same contract as the SQL store, adds fault
// injection, and backs the service and handler tests.
package memory

import (
	"context"
	"sync"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/repository"
)

// Operation names accepted by InjectFault
const (
	OpCreatePlan             = "plans.create"
	OpGetPlan                = "plans.get"
	OpListPlans              = "plans.list"
	OpUpdatePlan             = "plans.update"
	OpDeletePlan             = "plans.delete"
	OpSettlePayment          = "plans.settle_payment"
	OpUpdateScheduledAmounts = "plans.update_scheduled_amounts"
	OpAppendAdjustment       = "plans.append_adjustment"
	OpUpdatePlanAmounts      = "plans.update_amounts"
	OpUpdateWalletRef        = "plans.update_wallet_ref"
	OpListUserIDs            = "plans.list_user_ids"
	OpCreateWallet           = "wallets.create"
	OpFindWallet             = "wallets.find"
	OpListWallets            = "wallets.list"
	OpAdjustBalance          = "wallets.adjust_balance"
	OpCreateTransaction      = "transactions.create"
	OpFindTransaction        = "transactions.find"
	OpListTransactions       = "transactions.list"
	OpUpdateTransactionRef   = "transactions.update_wallet"
	OpCreateGoal             = "goals.create"
	OpListGoals              = "goals.list"
	OpCreateBudget           = "budgets.create"
	OpListBudgets            = "budgets.list"
	OpCommit                 = "commit"
)

// Store holds every collection behind one mutex. A unit of work runs on a
// private copy of the state that replaces the committed state only when the
// unit succeeds. Repositories embedded in Store must not be used from inside
// WithinTx.
type Store struct {
	repository.Repositories

	mu     sync.Mutex
	state  *state
	faults map[string]error
}

func NewStore() *Store {
	s := &Store{
		state:  newState(),
		faults: make(map[string]error),
	}
	s.Repositories = bind(s.direct)
	return s
}

// InjectFault makes every later call of op fail with err until ClearFaults
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]error)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	repos := bind(func(op string, apply func(st *state) error) error {
		if err := s.faults[op]; err != nil {
			return err
		}
		return apply(working)
	})

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := s.faults[OpCommit]; err != nil {
		return err
	}

	s.state = working
	return nil
}

// Ping reports the store as healthy unless a commit fault is injected
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults[OpCommit]
}

func (s *Store) direct(op string, apply func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.faults[op]; err != nil {
		return err
	}
	return apply(s.state)
}

type runner func(op string, apply func(st *state) error) error

type state struct {
	plans        map[string]*domain.InstallmentPlan
	wallets      map[string]*domain.Wallet
	transactions map[string]*domain.Transaction
	goals        map[string]domain.Goal
	budgets      map[string]domain.Budget
}

func newState() *state {
	return &state{
		plans:        make(map[string]*domain.InstallmentPlan),
		wallets:      make(map[string]*domain.Wallet),
		transactions: make(map[string]*domain.Transaction),
		goals:        make(map[string]domain.Goal),
		budgets:      make(map[string]domain.Budget),
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, plan := range st.plans {
		c.plans[id] = plan.Clone()
	}
	for id, wallet := range st.wallets {
		w := *wallet
		c.wallets[id] = &w
	}
	for id, transaction := range st.transactions {
		t := *transaction
		c.transactions[id] = &t
	}
	for id, goal := range st.goals {
		c.goals[id] = goal
	}
	for id, budget := range st.budgets {
		c.budgets[id] = budget
	}
	return c
}

func bind(run runner) repository.Repositories {
	return repository.Repositories{
		Plans:        &planRepository{run: run},
		Wallets:      &walletRepository{run: run},
		Transactions: &transactionRepository{run: run},
		Goals:        &goalRepository{run: run},
		Budgets:      &budgetRepository{run: run},
	}
}
