package service

import (
	"context"
	"errors"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/repository"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
)

// ensureWallet returns the source wallet of plan, repairing the reference
// when it no longer points at a wallet of the plan's owner
func (s *InstallmentService) ensureWallet(ctx context.Context, plan *domain.InstallmentPlan) (*domain.Wallet, error) {
	wallet, err := s.repos.Wallets.FindByID(ctx, plan.SourceWalletID)
	switch {
	case err == nil && wallet.UserID == plan.UserID:
		return wallet, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		s.log.Error("loading source wallet", "plan_id", plan.ID, "wallet_id", plan.SourceWalletID, "error", err)
		return nil, storageError(err)
	}

	return s.repairPlan(ctx, plan)
}

// repairPlan points plan at the user's earliest wallet and moves the
// transactions still referencing the old wallet along with it
func (s *InstallmentService) repairPlan(ctx context.Context, plan *domain.InstallmentPlan) (*domain.Wallet, error) {
	wallets, err := s.repos.Wallets.ListByUser(ctx, plan.UserID)
	if err != nil {
		return nil, storageError(err)
	}
	if len(wallets) == 0 {
		return nil, customError.WrapReferenceIntegrity(plan.UserID)
	}

	replacement := wallets[0]
	previous := plan.SourceWalletID
	now := s.now()

	var moved int
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Plans.UpdateWalletRef(ctx, plan.ID, replacement.ID, now); err != nil {
			return err
		}

		transactions, err := repos.Transactions.ListByUser(ctx, plan.UserID)
		if err != nil {
			return err
		}

		for _, transaction := range transactions {
			if transaction.WalletID != previous {
				continue
			}
			if err := repos.Transactions.UpdateWalletID(ctx, transaction.ID, replacement.ID); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		s.log.Error("repairing wallet reference", "plan_id", plan.ID, "error", err)
		return nil, storageError(err)
	}

	plan.SourceWalletID = replacement.ID
	plan.UpdatedAt = now

	s.log.Warn("dangling wallet reference repaired",
		"plan_id", plan.ID,
		"previous_wallet_id", previous,
		"wallet_id", replacement.ID,
		"transactions_moved", moved,
	)
	return replacement, nil
}

// RepairOrphanedReferences rewrites, in one unit, every plan and transaction
// of the user whose wallet is gone to the user's earliest wallet
func (s *InstallmentService) RepairOrphanedReferences(ctx context.Context, userID string) (*domain.RepairResult, error) {
	plans, err := s.repos.Plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	transactions, err := s.repos.Transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	wallets, err := s.repos.Wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}

	owned := make(map[string]bool, len(wallets))
	for _, wallet := range wallets {
		owned[wallet.ID] = true
	}

	var orphanedPlans []*domain.InstallmentPlan
	for _, plan := range plans {
		if !owned[plan.SourceWalletID] {
			orphanedPlans = append(orphanedPlans, plan)
		}
	}

	var orphanedTransactions []*domain.Transaction
	for _, transaction := range transactions {
		if !owned[transaction.WalletID] {
			orphanedTransactions = append(orphanedTransactions, transaction)
		}
	}

	result := &domain.RepairResult{}
	if len(orphanedPlans) == 0 && len(orphanedTransactions) == 0 {
		return result, nil
	}
	if len(wallets) == 0 {
		return nil, customError.WrapReferenceIntegrity(userID)
	}

	replacement := wallets[0]
	now := s.now()

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		for _, plan := range orphanedPlans {
			if err := repos.Plans.UpdateWalletRef(ctx, plan.ID, replacement.ID, now); err != nil {
				return err
			}
		}
		for _, transaction := range orphanedTransactions {
			if err := repos.Transactions.UpdateWalletID(ctx, transaction.ID, replacement.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("bulk reference repair", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	result.PlansRepaired = len(orphanedPlans)
	result.TransactionsRepaired = len(orphanedTransactions)

	s.log.Warn("orphaned references repaired",
		"user_id", userID,
		"wallet_id", replacement.ID,
		"plans", result.PlansRepaired,
		"transactions", result.TransactionsRepaired,
	)
	return result, nil
}

// RepairAllUsers runs RepairOrphanedReferences for every user owning a plan.
// Users without any wallet are logged and skipped.
func (s *InstallmentService) RepairAllUsers(ctx context.Context) (*domain.RepairResult, error) {
	users, err := s.repos.Plans.ListUserIDs(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	total := &domain.RepairResult{}
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := s.RepairOrphanedReferences(ctx, userID)
		if err != nil {
			if errors.Is(err, customError.ErrReferenceIntegrity) {
				s.log.Warn("skipping user without wallets", "user_id", userID)
				continue
			}
			return total, err
		}

		total.PlansRepaired += result.PlansRepaired
		total.TransactionsRepaired += result.TransactionsRepaired
	}
	return total, nil
}
