package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/gamification"
	"github.com/advansoftware/finwise-installments/internal/projection"
	"github.com/advansoftware/finwise-installments/internal/status"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
	"github.com/advansoftware/finwise-installments/pkg/utils"
)

var monthsPerYear = decimal.NewFromInt(12)

// GetSummary builds the dashboard aggregate of a user from freshly resolved plans
func (s *InstallmentService) GetSummary(ctx context.Context, userID string) (*domain.PlanSummary, error) {
	views, err := s.ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loc := s.config.Location()
	active := openPlans(views)

	commitment := decimal.Zero
	projected := make([]domain.ProjectedCompletion, 0, len(active))
	for _, view := range active {
		amount := view.InstallmentAmount
		if view.IsRecurring && view.RecurringType == domain.RecurringYearly {
			amount = amount.Div(monthsPerYear).Round(2)
		}
		commitment = commitment.Add(amount)

		projected = append(projected, domain.ProjectedCompletion{
			PlanID:        view.ID,
			Name:          view.Name,
			ProjectedDate: projectedCompletion(view),
		})
	}

	profile, err := s.evaluate(ctx, userID, views)
	if err != nil {
		return nil, err
	}

	return &domain.PlanSummary{
		TotalActivePlans:         len(active),
		MonthlyCommitment:        commitment,
		UpcomingPayments:         status.Upcoming(active, now, s.config.Business.UpcomingWindowDays),
		OverduePayments:          status.Overdue(active),
		CompletedThisMonth:       paidInMonth(views, utils.MonthStart(now.In(loc))),
		ProjectedCompletionDates: projected,
		Gamification:             profile,
	}, nil
}

// ProjectCommitments forecasts the next months calendar months. A
// non-positive months uses the configured default.
func (s *InstallmentService) ProjectCommitments(ctx context.Context, userID string, months int) ([]domain.MonthlyProjection, error) {
	if months <= 0 {
		months = s.config.Business.DefaultProjectionMonths
	}
	if months > s.config.Business.MaxProjectionMonths {
		return nil, customError.WrapValidation(fmt.Sprintf("months must be at most %d", s.config.Business.MaxProjectionMonths))
	}

	views, err := s.ListActivePlans(ctx, userID)
	if err != nil {
		return nil, err
	}

	return projection.Project(views, s.now(), months, s.config.Location()), nil
}

// GetGamification scores every plan, goal and budget of the user
func (s *InstallmentService) GetGamification(ctx context.Context, userID string) (*domain.GamificationProfile, error) {
	views, err := s.ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.evaluate(ctx, userID, views)
}

func (s *InstallmentService) evaluate(ctx context.Context, userID string, views []*domain.PlanView) (*domain.GamificationProfile, error) {
	goals, err := s.repos.Goals.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("listing goals", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	budgets, err := s.repos.Budgets.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("listing budgets", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	return gamification.Evaluate(gamification.Input{
		Plans:    views,
		Goals:    goals,
		Budgets:  budgets,
		Now:      s.now(),
		Location: s.config.Location(),
	}), nil
}

// projectedCompletion is the latest due date still unpaid, or the start date
// when nothing is left
func projectedCompletion(view *domain.PlanView) time.Time {
	date := view.StartDate
	found := false
	for _, payment := range view.Payments {
		if payment.IsPaid() {
			continue
		}
		if !found || payment.DueDate.After(date) {
			date = payment.DueDate
			found = true
		}
	}
	return date
}

// paidInMonth counts the rows paid inside the month starting at monthStart
func paidInMonth(views []*domain.PlanView, monthStart time.Time) int {
	count := 0
	for _, view := range views {
		for _, payment := range view.Payments {
			if payment.IsPaid() && payment.PaidDate != nil && utils.InMonth(*payment.PaidDate, monthStart) {
				count++
			}
		}
	}
	return count
}
