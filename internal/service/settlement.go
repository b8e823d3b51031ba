package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/lock"
	"github.com/advansoftware/finwise-installments/internal/repository"
	"github.com/advansoftware/finwise-installments/internal/status"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
)

// PayInstallment settles one pending row with money movement. The ledger
// entry, the wallet debit and the row update commit together or not at all.
func (s *InstallmentService) PayInstallment(ctx context.Context, planID string, installmentNumber int, request *domain.PayInstallmentRequest) (*domain.InstallmentPayment, error) {
	if !request.PaidAmount.IsPositive() {
		return nil, customError.WrapValidation("paidAmount must be greater than 0")
	}
	if request.PaidDate.IsZero() {
		return nil, customError.WrapValidation("paidDate is required")
	}

	release, err := s.locker.Acquire(ctx, lock.SettlementKey(planID, installmentNumber), s.config.Business.SettlementLockTTL)
	switch {
	case errors.Is(err, lock.ErrHeld):
		return nil, customError.WrapSettlementInProgress(planID, installmentNumber)
	case err != nil:
		// the conditional row update still rejects a second settlement
		s.log.Warn("settlement guard unavailable", "plan_id", planID, "installment", installmentNumber, "error", err)
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("releasing settlement guard", "plan_id", planID, "installment", installmentNumber, "error", err)
			}
		}()
	}

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	payment := plan.Payment(installmentNumber)
	if payment == nil || payment.IsPaid() {
		return nil, customError.WrapPaymentNotFound(planID, installmentNumber)
	}

	wallet, err := s.ensureWallet(ctx, plan)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(request.PaidAmount) {
		s.log.Info("settlement rejected", "plan_id", planID, "installment", installmentNumber, "reason", "insufficient balance")
		return nil, customError.WrapInsufficientBalance(wallet.ID, wallet.Balance.String(), request.PaidAmount.String())
	}

	settlement := domain.Settlement{
		PaidAmount:    request.PaidAmount,
		PaidDate:      request.PaidDate,
		TransactionID: request.TransactionID,
		SettledAt:     s.now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if settlement.TransactionID == nil {
			id, err := repos.Transactions.Create(ctx, &domain.Transaction{
				UserID:        plan.UserID,
				WalletID:      wallet.ID,
				Date:          request.PaidDate,
				Item:          fmt.Sprintf("%s - Parcela %d/%d", plan.Name, installmentNumber, plan.TotalInstallments),
				Category:      plan.Category,
				Subcategory:   plan.Subcategory,
				Establishment: plan.Establishment,
				Amount:        request.PaidAmount,
				Type:          domain.TransactionExpense,
			})
			if err != nil {
				return err
			}
			settlement.TransactionID = &id
		}

		if err := repos.Wallets.AdjustBalance(ctx, wallet.ID, request.PaidAmount.Neg()); err != nil {
			switch {
			case errors.Is(err, repository.ErrConditionFailed):
				return customError.WrapInsufficientBalance(wallet.ID, wallet.Balance.String(), request.PaidAmount.String())
			case errors.Is(err, repository.ErrNotFound):
				return customError.WrapReferenceIntegrity(plan.UserID)
			}
			return err
		}

		settled, err := repos.Plans.SettlePayment(ctx, planID, installmentNumber, settlement)
		if err != nil {
			return err
		}
		if !settled {
			return customError.WrapPaymentNotFound(planID, installmentNumber)
		}
		return nil
	})
	if err != nil {
		if customError.IsRetryable(storageError(err)) {
			s.log.Error("settlement failed, nothing applied", "plan_id", planID, "installment", installmentNumber, "error", err)
		} else {
			s.log.Info("settlement rejected", "plan_id", planID, "installment", installmentNumber, "error", err)
		}
		return nil, storageError(err)
	}

	s.log.Info("installment paid",
		"plan_id", planID,
		"installment", installmentNumber,
		"wallet_id", wallet.ID,
		"amount", request.PaidAmount.String(),
	)
	return s.settledRow(plan, payment, settlement), nil
}

// MarkInstallmentPaidManually settles a row for reconciliation. No ledger
// entry is created and no wallet is touched.
func (s *InstallmentService) MarkInstallmentPaidManually(ctx context.Context, planID string, installmentNumber int, request *domain.MarkPaidRequest) (*domain.InstallmentPayment, error) {
	if !request.PaidAmount.IsPositive() {
		return nil, customError.WrapValidation("paidAmount must be greater than 0")
	}
	if request.PaidDate.IsZero() {
		return nil, customError.WrapValidation("paidDate is required")
	}

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	payment := plan.Payment(installmentNumber)
	if payment == nil || payment.IsPaid() {
		return nil, customError.WrapPaymentNotFound(planID, installmentNumber)
	}

	settlement := domain.Settlement{
		PaidAmount: request.PaidAmount,
		PaidDate:   request.PaidDate,
		SettledAt:  s.now(),
	}
	settled, err := s.repos.Plans.SettlePayment(ctx, planID, installmentNumber, settlement)
	if err != nil {
		s.log.Error("marking installment paid", "plan_id", planID, "installment", installmentNumber, "error", err)
		return nil, storageError(err)
	}
	if !settled {
		return nil, customError.WrapPaymentNotFound(planID, installmentNumber)
	}

	s.log.Info("installment marked paid", "plan_id", planID, "installment", installmentNumber)
	return s.settledRow(plan, payment, settlement), nil
}

// AdjustRecurringPlan changes the amount of a recurring plan from
// effectiveDate on. Paid rows and rows due earlier keep their amount.
func (s *InstallmentService) AdjustRecurringPlan(ctx context.Context, planID string, request *domain.AdjustRecurringRequest) (bool, error) {
	if !request.NewAmount.IsPositive() {
		return false, customError.WrapValidation("newAmount must be greater than 0")
	}
	if request.EffectiveDate.IsZero() {
		return false, customError.WrapValidation("effectiveDate is required")
	}

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return false, err
	}
	if !plan.IsRecurring {
		return false, customError.WrapNotRecurring(planID)
	}

	now := s.now()
	entry := domain.AdjustmentEntry{
		Date:           now,
		PreviousAmount: plan.InstallmentAmount,
		NewAmount:      request.NewAmount,
		Reason:         request.Reason,
	}

	var changed int
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Plans.AppendAdjustment(ctx, planID, entry); err != nil {
			return err
		}

		if err := repos.Plans.UpdateAmounts(ctx, planID, request.NewAmount, now); err != nil {
			return err
		}

		var err error
		changed, err = repos.Plans.UpdateScheduledAmounts(ctx, planID, request.EffectiveDate, request.NewAmount)
		return err
	})
	if err != nil {
		s.log.Error("adjusting recurring plan", "plan_id", planID, "error", err)
		return false, storageError(err)
	}

	s.log.Info("recurring plan adjusted",
		"plan_id", planID,
		"previous_amount", entry.PreviousAmount.String(),
		"new_amount", entry.NewAmount.String(),
		"rows_changed", changed,
	)
	return true, nil
}

// settledRow is the row as stored after settlement, resolved at now
func (s *InstallmentService) settledRow(plan *domain.InstallmentPlan, payment *domain.InstallmentPayment, settlement domain.Settlement) *domain.InstallmentPayment {
	amount := settlement.PaidAmount
	date := settlement.PaidDate

	payment.Status = domain.PaymentStatusPaid
	payment.PaidAmount = &amount
	payment.PaidDate = &date
	payment.TransactionID = settlement.TransactionID

	view := status.Resolve(plan, s.now())
	return view.Payment(payment.InstallmentNumber)
}
