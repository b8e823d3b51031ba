package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringType is the interval unit of an open-ended plan
type RecurringType string

const (
	RecurringMonthly RecurringType = "monthly"
	RecurringYearly  RecurringType = "yearly"
)

// InstallmentPlan is a multi-payment commitment owned by one user. It owns its
// payments exclusively; SourceWalletID is only a lookup key into the wallet store.
type InstallmentPlan struct {
	ID                string            `json:"id" db:"id"`
	UserID            string            `json:"userId" db:"user_id"`
	Name              string            `json:"name" db:"name"`
	Description       string            `json:"description,omitempty" db:"description"`
	Category          string            `json:"category,omitempty" db:"category"`
	Subcategory       string            `json:"subcategory,omitempty" db:"subcategory"`
	Establishment     string            `json:"establishment,omitempty" db:"establishment"`
	TotalAmount       decimal.Decimal   `json:"totalAmount" db:"total_amount"`
	TotalInstallments int               `json:"totalInstallments" db:"total_installments"`
	InstallmentAmount decimal.Decimal   `json:"installmentAmount" db:"installment_amount"`
	StartDate         time.Time         `json:"startDate" db:"start_date"`
	EndDate           *time.Time        `json:"endDate,omitempty" db:"end_date"`
	IsRecurring       bool              `json:"isRecurring" db:"is_recurring"`
	RecurringType     RecurringType     `json:"recurringType,omitempty" db:"recurring_type"`
	SourceWalletID    string            `json:"sourceWalletId" db:"source_wallet_id"`
	IsActive          bool              `json:"isActive" db:"is_active"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at"`
	AdjustmentHistory []AdjustmentEntry `json:"adjustmentHistory,omitempty" db:"-"`

	Payments []*InstallmentPayment `json:"payments" db:"-"`
}

// AdjustmentEntry records one amount change of a recurring plan
type AdjustmentEntry struct {
	Date           time.Time       `json:"date" db:"adjusted_at"`
	PreviousAmount decimal.Decimal `json:"previousAmount" db:"previous_amount"`
	NewAmount      decimal.Decimal `json:"newAmount" db:"new_amount"`
	Reason         string          `json:"reason,omitempty" db:"reason"`
}

// Payment returns the row with the given installment number, or nil
func (p *InstallmentPlan) Payment(installmentNumber int) *InstallmentPayment {
	for _, payment := range p.Payments {
		if payment.InstallmentNumber == installmentNumber {
			return payment
		}
	}
	return nil
}

// Clone returns a deep copy so callers can derive views without touching storage
func (p *InstallmentPlan) Clone() *InstallmentPlan {
	if p == nil {
		return nil
	}

	clone := *p
	if p.EndDate != nil {
		end := *p.EndDate
		clone.EndDate = &end
	}

	clone.AdjustmentHistory = append([]AdjustmentEntry(nil), p.AdjustmentHistory...)

	clone.Payments = make([]*InstallmentPayment, len(p.Payments))
	for i, payment := range p.Payments {
		clone.Payments[i] = payment.Clone()
	}

	return &clone
}

// DTOs for requests

type CreatePlanRequest struct {
	Name                     string            `json:"name" validate:"required,max=200"`
	Description              string            `json:"description,omitempty" validate:"max=1000"`
	Category                 string            `json:"category,omitempty"`
	Subcategory              string            `json:"subcategory,omitempty"`
	Establishment            string            `json:"establishment,omitempty"`
	TotalAmount              decimal.Decimal   `json:"totalAmount" validate:"decimal_gt0"`
	TotalInstallments        int               `json:"totalInstallments" validate:"gte=1"`
	StartDate                time.Time         `json:"startDate" validate:"required"`
	EndDate                  *time.Time        `json:"endDate,omitempty"`
	IsRecurring              bool              `json:"isRecurring"`
	RecurringType            RecurringType     `json:"recurringType,omitempty" validate:"omitempty,oneof=monthly yearly"`
	SourceWalletID           string            `json:"sourceWalletId" validate:"required"`
	CustomInstallmentAmounts []decimal.Decimal `json:"customInstallmentAmounts,omitempty"`
}

// UpdatePlanRequest carries the partial fields a caller may change. Amounts
// and the schedule are not editable here; recurring amounts go through
// AdjustRecurringRequest.
type UpdatePlanRequest struct {
	Name           *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category       *string    `json:"category,omitempty"`
	Subcategory    *string    `json:"subcategory,omitempty"`
	Establishment  *string    `json:"establishment,omitempty"`
	SourceWalletID *string    `json:"sourceWalletId,omitempty" validate:"omitempty,min=1"`
	IsActive       *bool      `json:"isActive,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
}

// Apply copies the set fields onto plan
func (r *UpdatePlanRequest) Apply(plan *InstallmentPlan) {
	if r.Name != nil {
		plan.Name = *r.Name
	}
	if r.Description != nil {
		plan.Description = *r.Description
	}
	if r.Category != nil {
		plan.Category = *r.Category
	}
	if r.Subcategory != nil {
		plan.Subcategory = *r.Subcategory
	}
	if r.Establishment != nil {
		plan.Establishment = *r.Establishment
	}
	if r.SourceWalletID != nil {
		plan.SourceWalletID = *r.SourceWalletID
	}
	if r.IsActive != nil {
		plan.IsActive = *r.IsActive
	}
	if r.EndDate != nil && plan.IsRecurring {
		end := *r.EndDate
		plan.EndDate = &end
	}
}

type AdjustRecurringRequest struct {
	NewAmount     decimal.Decimal `json:"newAmount" validate:"decimal_gt0"`
	EffectiveDate time.Time       `json:"effectiveDate" validate:"required"`
	Reason        string          `json:"reason,omitempty" validate:"max=500"`
}
