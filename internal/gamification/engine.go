// Package gamification turns installment, goal and budget history into
// points, a level, badges, achievements and a payment streak. Every value is
// recomputed from the inputs on each call; nothing is awarded or stored.
package gamification

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/pkg/utils"
)

// Counters are the facts every rule is evaluated against
type Counters struct {
	ScheduledPayments int
	PaidPayments      int
	OnTimePayments    int
	LatePayments      int
	OverduePayments   int

	TotalPlans     int
	CompletedPlans int
	OpenPlans      int

	Goals          int
	CompletedGoals int
	TotalSaved     decimal.Decimal

	Budgets int

	Streak int
}

// Input is everything the engine looks at for one user. Plans must already
// be resolved at Now.
type Input struct {
	Plans    []*domain.PlanView
	Goals    []domain.Goal
	Budgets  []domain.Budget
	Now      time.Time
	Location *time.Location
}

// Count computes the counters for in
func Count(in Input) Counters {
	c := Counters{TotalSaved: decimal.Zero}

	for _, plan := range in.Plans {
		c.TotalPlans++
		if plan.IsCompleted {
			c.CompletedPlans++
		} else if plan.IsActive {
			c.OpenPlans++
		}

		for _, payment := range plan.Payments {
			c.ScheduledPayments++
			switch payment.Status {
			case domain.PaymentStatusPaid:
				c.PaidPayments++
				if payment.PaidOnTime() {
					c.OnTimePayments++
				} else {
					c.LatePayments++
				}
			case domain.PaymentStatusOverdue:
				c.OverduePayments++
			}
		}
	}

	for _, goal := range in.Goals {
		c.Goals++
		if goal.IsCompleted() {
			c.CompletedGoals++
		}
		c.TotalSaved = c.TotalSaved.Add(goal.CurrentAmount)
	}

	c.Budgets = len(in.Budgets)
	c.Streak = Streak(in.Plans, in.Now, in.Location)

	return c
}

// Points applies the fixed point formula, floored at zero
func Points(c Counters) int {
	points := c.PaidPayments*PointsPerPaidInstallment +
		c.CompletedPlans*PointsPerCompletedPlan +
		c.Goals*PointsPerGoal +
		c.CompletedGoals*PointsPerCompletedGoal +
		c.Budgets*PointsPerBudget

	return max(0, points)
}

// Streak counts consecutive months, ending with the month of now, in which
// at least one payment was paid. The walk stops at the first month without one.
func Streak(plans []*domain.PlanView, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	months := make(map[string]bool)
	for _, plan := range plans {
		for _, payment := range plan.Payments {
			if payment.IsPaid() && payment.PaidDate != nil {
				months[payment.PaidDate.In(loc).Format(utils.MonthKeyLayout)] = true
			}
		}
	}

	current := utils.MonthStart(now.In(loc))
	streak := 0
	for i := 0; i < StreakLookbackMonths; i++ {
		if !months[current.AddDate(0, -i, 0).Format(utils.MonthKeyLayout)] {
			break
		}
		streak++
	}
	return streak
}

// LevelFor returns the highest tier whose threshold is at most points
func LevelFor(points int) domain.Level {
	idx := 0
	for i, tier := range Levels {
		if points >= tier.Threshold {
			idx = i
		}
	}

	tier := Levels[idx]
	level := domain.Level{
		Level:          idx + 1,
		Name:           tier.Name,
		Title:          tier.Title,
		PointsRequired: tier.Threshold,
		Benefits:       append([]string(nil), tier.Benefits...),
	}
	if idx+1 < len(Levels) {
		level.PointsToNext = Levels[idx+1].Threshold - points
	}
	return level
}

// EarnedBadges evaluates every badge rule independently
func EarnedBadges(c Counters) []domain.Badge {
	badges := make([]domain.Badge, 0)
	for _, rule := range Badges {
		if rule.Qualifies(c) {
			badges = append(badges, rule.Badge)
		}
	}
	return badges
}

// Progress reports every achievement against c
func Progress(c Counters) []domain.Achievement {
	achievements := make([]domain.Achievement, 0, len(Achievements))
	for _, rule := range Achievements {
		progress, target := rule.Progress(c), rule.Target(c)

		completed := progress >= target
		if rule.Completed != nil {
			completed = rule.Completed(c)
		}

		achievements = append(achievements, domain.Achievement{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
			Category:    rule.Category,
			Progress:    progress,
			Target:      target,
			IsCompleted: completed,
			Points:      rule.Points,
		})
	}
	return achievements
}

// CompletionRate is paid over scheduled rows as a rounded percentage
func CompletionRate(c Counters) int {
	if c.ScheduledPayments == 0 {
		return 0
	}
	return int(math.Round(float64(c.PaidPayments) / float64(c.ScheduledPayments) * 100))
}

// Snapshot evaluates the whole catalog in one pass over the counters
func Snapshot(c Counters) domain.GamificationSnapshot {
	points := Points(c)
	return domain.GamificationSnapshot{
		Points:         points,
		Streak:         c.Streak,
		Level:          LevelFor(points),
		Badges:         EarnedBadges(c),
		Achievements:   Progress(c),
		CompletionRate: CompletionRate(c),
	}
}

// Evaluate computes the snapshot and its profile insights for in
func Evaluate(in Input) *domain.GamificationProfile {
	snapshot := Snapshot(Count(in))
	return &domain.GamificationProfile{
		GamificationSnapshot: snapshot,
		Insights:             Insights(snapshot),
	}
}
