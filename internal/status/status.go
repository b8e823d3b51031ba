// Package status derives the live state of a stored plan. Stored rows are
// only ever pending or paid; overdue and every total are computed here.
package status

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/pkg/utils"
)

// Resolve returns the view of plan at instant now. The stored plan is not modified.
func Resolve(plan *domain.InstallmentPlan, now time.Time) *domain.PlanView {
	if plan == nil {
		return nil
	}

	view := &domain.PlanView{InstallmentPlan: *plan.Clone()}

	var (
		paid        int
		totalPaid   = decimal.Zero
		nextPending *time.Time
		nextOverdue *time.Time
	)

	for _, payment := range view.Payments {
		switch payment.Status {
		case domain.PaymentStatusPaid:
			paid++
			if payment.PaidAmount != nil {
				totalPaid = totalPaid.Add(*payment.PaidAmount)
			}
			continue
		case domain.PaymentStatusPending, domain.PaymentStatusOverdue:
			if utils.IsDateOverdue(payment.DueDate, now) {
				payment.Status = domain.PaymentStatusOverdue
			} else {
				payment.Status = domain.PaymentStatusPending
			}
		}

		due := payment.DueDate
		if payment.Status == domain.PaymentStatusOverdue {
			if nextOverdue == nil || due.Before(*nextOverdue) {
				nextOverdue = &due
			}
		} else if nextPending == nil || due.Before(*nextPending) {
			nextPending = &due
		}
	}

	view.PaidInstallments = paid
	view.RemainingInstallments = len(view.Payments) - paid
	view.TotalPaid = totalPaid
	view.IsCompleted = len(view.Payments) > 0 && paid == len(view.Payments)

	// Recurring plans keep the per-period amount in totalAmount, so this goes
	// negative once more than one period is paid
	view.RemainingAmount = plan.TotalAmount.Sub(totalPaid)

	if !view.IsCompleted {
		if nextPending != nil {
			view.NextDueDate = nextPending
		} else {
			view.NextDueDate = nextOverdue
		}
	}

	return view
}

// ResolveAll resolves every plan at the same instant
func ResolveAll(plans []*domain.InstallmentPlan, now time.Time) []*domain.PlanView {
	views := make([]*domain.PlanView, 0, len(plans))
	for _, plan := range plans {
		views = append(views, Resolve(plan, now))
	}
	return views
}

// Overdue lists the overdue rows of the given views ordered by due date
func Overdue(views []*domain.PlanView) []domain.ScheduledPayment {
	return collect(views, func(p *domain.InstallmentPayment) bool {
		return p.Status == domain.PaymentStatusOverdue
	})
}

// Upcoming lists pending rows due in (now, now+days] ordered by due date
func Upcoming(views []*domain.PlanView, now time.Time, days int) []domain.ScheduledPayment {
	until := now.AddDate(0, 0, days)
	return collect(views, func(p *domain.InstallmentPayment) bool {
		return p.Status == domain.PaymentStatusPending && p.DueDate.After(now) && !p.DueDate.After(until)
	})
}

func collect(views []*domain.PlanView, keep func(*domain.InstallmentPayment) bool) []domain.ScheduledPayment {
	out := make([]domain.ScheduledPayment, 0)
	for _, view := range views {
		for _, payment := range view.Payments {
			if keep(payment) {
				out = append(out, domain.ScheduledPayment{
					InstallmentPayment: *payment,
					PlanName:           view.Name,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}
