// Package schedule builds the payment rows of a new installment plan.
package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/advansoftware/finwise-installments/internal/domain"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
	"github.com/advansoftware/finwise-installments/pkg/utils"
)

// Horizon caps how many rows an open-ended plan gets at creation
type Horizon struct {
	Monthly int
	Yearly  int
}

var DefaultHorizon = Horizon{Monthly: 24, Yearly: 5}

// Params are the plan fields the schedule depends on
type Params struct {
	PlanID            string
	TotalAmount       decimal.Decimal
	TotalInstallments int
	StartDate         time.Time
	EndDate           *time.Time
	IsRecurring       bool
	RecurringType     domain.RecurringType
	CustomAmounts     []decimal.Decimal
}

// Result is the generated schedule plus the per-installment amount to store on the plan
type Result struct {
	InstallmentAmount decimal.Decimal
	RecurringType     domain.RecurringType
	Payments          []*domain.InstallmentPayment
}

type Generator struct {
	horizon Horizon
}

func NewGenerator(horizon Horizon) *Generator {
	if horizon.Monthly <= 0 {
		horizon.Monthly = DefaultHorizon.Monthly
	}
	if horizon.Yearly <= 0 {
		horizon.Yearly = DefaultHorizon.Yearly
	}
	return &Generator{horizon: horizon}
}

// Generate validates params and returns every row with status pending.
func (g *Generator) Generate(params Params) (*Result, error) {
	if err := validate(params); err != nil {
		return nil, err
	}

	if params.IsRecurring {
		return g.recurring(params)
	}
	return fixed(params), nil
}

func validate(params Params) error {
	if params.TotalInstallments < 1 {
		return customError.WrapValidation("totalInstallments must be at least 1")
	}

	if !params.TotalAmount.IsPositive() {
		return customError.WrapValidation("totalAmount must be greater than 0")
	}

	if params.StartDate.IsZero() {
		return customError.WrapValidation("startDate is required")
	}

	if len(params.CustomAmounts) == 0 {
		return nil
	}

	if params.IsRecurring {
		return customError.WrapValidation("customInstallmentAmounts are not allowed on recurring plans")
	}

	if len(params.CustomAmounts) != params.TotalInstallments {
		return customError.WrapValidation(fmt.Sprintf(
			"customInstallmentAmounts has %d entries, expected %d",
			len(params.CustomAmounts), params.TotalInstallments,
		))
	}

	for i, amount := range params.CustomAmounts {
		if !amount.IsPositive() {
			return customError.WrapValidation(fmt.Sprintf("customInstallmentAmounts[%d] must be greater than 0", i))
		}
	}

	return nil
}

func fixed(params Params) *Result {
	amount := utils.CalculateInstallmentAmount(params.TotalAmount, params.TotalInstallments)
	if len(params.CustomAmounts) > 0 {
		amount = params.CustomAmounts[0]
	}

	payments := make([]*domain.InstallmentPayment, 0, params.TotalInstallments)
	for i := 0; i < params.TotalInstallments; i++ {
		scheduled := amount
		if len(params.CustomAmounts) > 0 {
			scheduled = params.CustomAmounts[i]
		}

		payments = append(payments, newPayment(params.PlanID, i+1, utils.AddMonths(params.StartDate, i), scheduled))
	}

	return &Result{InstallmentAmount: amount, Payments: payments}
}

func (g *Generator) recurring(params Params) (*Result, error) {
	recurringType := params.RecurringType
	if recurringType == "" {
		recurringType = domain.RecurringMonthly
	}

	var limit, step int
	switch recurringType {
	case domain.RecurringMonthly:
		limit, step = g.horizon.Monthly, 1
	case domain.RecurringYearly:
		limit, step = g.horizon.Yearly, 12
	default:
		return nil, customError.WrapValidation(fmt.Sprintf("recurringType %q must be monthly or yearly", recurringType))
	}

	// A recurring plan charges its whole amount every period
	amount := params.TotalAmount

	payments := make([]*domain.InstallmentPayment, 0, limit)
	for i := 0; i < limit; i++ {
		due := utils.AddMonths(params.StartDate, i*step)
		if params.EndDate != nil && due.After(*params.EndDate) {
			break
		}

		payments = append(payments, newPayment(params.PlanID, i+1, due, amount))
	}

	if len(payments) == 0 {
		return nil, customError.WrapValidation("endDate is before the first due date")
	}

	return &Result{InstallmentAmount: amount, RecurringType: recurringType, Payments: payments}, nil
}

func newPayment(planID string, number int, due time.Time, amount decimal.Decimal) *domain.InstallmentPayment {
	return &domain.InstallmentPayment{
		ID:                uuid.NewString(),
		PlanID:            planID,
		InstallmentNumber: number,
		DueDate:           due,
		ScheduledAmount:   amount,
		Status:            domain.PaymentStatusPending,
	}
}
