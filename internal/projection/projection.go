// Package projection forecasts committed spend per calendar month.
package projection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/pkg/utils"
)

// Project sums the pending rows of active, unfinished plans for each of the
// next months calendar months, starting with the month now falls in. Month
// boundaries are taken in loc. Rows already overdue at now are not projected.
func Project(views []*domain.PlanView, now time.Time, months int, loc *time.Location) []domain.MonthlyProjection {
	if months <= 0 {
		return []domain.MonthlyProjection{}
	}
	if loc == nil {
		loc = time.UTC
	}

	first := utils.MonthStart(now.In(loc))
	projections := make([]domain.MonthlyProjection, months)
	for i := range projections {
		projections[i] = domain.MonthlyProjection{
			Month:           first.AddDate(0, i, 0).Format(utils.MonthKeyLayout),
			TotalCommitment: decimal.Zero,
			Plans:           []domain.ProjectedPayment{},
		}
	}

	for _, view := range views {
		if !view.IsActive || view.IsCompleted {
			continue
		}

		for _, payment := range view.Payments {
			if payment.Status != domain.PaymentStatusPending {
				continue
			}

			idx := monthIndex(first, payment.DueDate.In(loc))
			if idx < 0 || idx >= months {
				continue
			}

			p := &projections[idx]
			p.TotalCommitment = p.TotalCommitment.Add(payment.ScheduledAmount)
			p.Plans = append(p.Plans, domain.ProjectedPayment{
				PlanID:            view.ID,
				Name:              view.Name,
				InstallmentNumber: payment.InstallmentNumber,
				Amount:            payment.ScheduledAmount,
			})
		}
	}

	return projections
}

func monthIndex(first, t time.Time) int {
	return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
}
