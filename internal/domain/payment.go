package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus of a scheduled installment. Storage only ever holds pending
// or paid; overdue is derived at read time.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// InstallmentPayment is one scheduled installment within a plan
type InstallmentPayment struct {
	ID                string           `json:"id" db:"id"`
	PlanID            string           `json:"installmentId" db:"plan_id"`
	InstallmentNumber int              `json:"installmentNumber" db:"installment_number"`
	DueDate           time.Time        `json:"dueDate" db:"due_date"`
	ScheduledAmount   decimal.Decimal  `json:"scheduledAmount" db:"scheduled_amount"`
	Status            PaymentStatus    `json:"status" db:"status"`
	PaidAmount        *decimal.Decimal `json:"paidAmount,omitempty" db:"paid_amount"`
	PaidDate          *time.Time       `json:"paidDate,omitempty" db:"paid_date"`
	TransactionID     *string          `json:"transactionId,omitempty" db:"transaction_id"`
}

// IsPaid reports whether the row has been settled
func (p *InstallmentPayment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// PaidOnTime reports whether a settled row was paid on or before its due date
func (p *InstallmentPayment) PaidOnTime() bool {
	return p.IsPaid() && p.PaidDate != nil && !p.PaidDate.After(p.DueDate)
}

// Clone returns a deep copy of the row
func (p *InstallmentPayment) Clone() *InstallmentPayment {
	if p == nil {
		return nil
	}

	clone := *p
	if p.PaidAmount != nil {
		amount := *p.PaidAmount
		clone.PaidAmount = &amount
	}
	if p.PaidDate != nil {
		date := *p.PaidDate
		clone.PaidDate = &date
	}
	if p.TransactionID != nil {
		id := *p.TransactionID
		clone.TransactionID = &id
	}
	return &clone
}

// Settlement is the row mutation applied when an installment is paid
type Settlement struct {
	PaidAmount    decimal.Decimal
	PaidDate      time.Time
	TransactionID *string

	// SettledAt stamps the plan's updatedAt; PaidDate may lie in the past
	SettledAt time.Time
}

type PayInstallmentRequest struct {
	PaidAmount    decimal.Decimal `json:"paidAmount" validate:"decimal_gt0"`
	PaidDate      time.Time       `json:"paidDate" validate:"required"`
	TransactionID *string         `json:"transactionId,omitempty" validate:"omitempty,min=1"`
}

type MarkPaidRequest struct {
	PaidAmount decimal.Decimal `json:"paidAmount" validate:"decimal_gt0"`
	PaidDate   time.Time       `json:"paidDate" validate:"required"`
}
