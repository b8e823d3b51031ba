package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanView is a plan as presented to callers: payments carry their derived
// status and the totals are recomputed for the instant it was resolved at.
// Nothing in it is persisted.
type PlanView struct {
	InstallmentPlan

	PaidInstallments      int             `json:"paidInstallments"`
	RemainingInstallments int             `json:"remainingInstallments"`
	TotalPaid             decimal.Decimal `json:"totalPaid"`
	RemainingAmount       decimal.Decimal `json:"remainingAmount"`
	NextDueDate           *time.Time      `json:"nextDueDate,omitempty"`
	IsCompleted           bool            `json:"isCompleted"`

	// WalletUnresolved is set when the source wallet no longer exists and
	// could not be repaired on read
	WalletUnresolved bool `json:"walletUnresolved,omitempty"`
}

// ScheduledPayment is a payment row listed outside its plan
type ScheduledPayment struct {
	InstallmentPayment
	PlanName string `json:"installmentName"`
}

type ProjectedCompletion struct {
	PlanID        string    `json:"installmentId"`
	Name          string    `json:"name"`
	ProjectedDate time.Time `json:"projectedDate"`
}

// PlanSummary is the dashboard aggregate for one user
type PlanSummary struct {
	TotalActivePlans         int                   `json:"totalActiveInstallments"`
	MonthlyCommitment        decimal.Decimal       `json:"totalMonthlyCommitment"`
	UpcomingPayments         []ScheduledPayment    `json:"upcomingPayments"`
	OverduePayments          []ScheduledPayment    `json:"overduePayments"`
	CompletedThisMonth       int                   `json:"completedThisMonth"`
	ProjectedCompletionDates []ProjectedCompletion `json:"projectedCompletionDates"`
	Gamification             *GamificationProfile  `json:"gamification"`
}

type ProjectedPayment struct {
	PlanID            string          `json:"installmentId"`
	Name              string          `json:"name"`
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
}

// MonthlyProjection is the committed spend of one calendar month
type MonthlyProjection struct {
	Month           string             `json:"month"`
	TotalCommitment decimal.Decimal    `json:"totalCommitment"`
	Plans           []ProjectedPayment `json:"installments"`
}
