package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation          = errors.New("validation failed")
	ErrPlanNotFound        = errors.New("installment plan not found")
	ErrPaymentNotFound     = errors.New("installment payment not found or already paid")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrNotRecurring        = errors.New("installment plan is not recurring")
	ErrReferenceIntegrity  = errors.New("wallet reference cannot be repaired")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodePlanNotFound        = "PLAN_NOT_FOUND"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeNotRecurring        = "NOT_RECURRING"
	ErrCodeReferenceIntegrity  = "REFERENCE_INTEGRITY_ERROR"
	ErrCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
)

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapPlanNotFound(planID string) *BusinessError {
	return NewBusinessError(
		ErrCodePlanNotFound,
		fmt.Sprintf("Installment plan %s not found", planID),
		ErrPlanNotFound,
	)
}

func WrapPaymentNotFound(planID string, installmentNumber int) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Installment %d of plan %s not found or already paid", installmentNumber, planID),
		ErrPaymentNotFound,
	)
}

func WrapSettlementInProgress(planID string, installmentNumber int) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Installment %d of plan %s is already being settled", installmentNumber, planID),
		ErrPaymentNotFound,
	)
}

func WrapInsufficientBalance(walletID, balance, requested string) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientBalance,
		fmt.Sprintf("Wallet %s balance %s is below requested amount %s", walletID, balance, requested),
		ErrInsufficientBalance,
	)
}

func WrapNotRecurring(planID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotRecurring,
		fmt.Sprintf("Installment plan %s is not recurring", planID),
		ErrNotRecurring,
	)
}

func WrapReferenceIntegrity(userID string) *BusinessError {
	return NewBusinessError(
		ErrCodeReferenceIntegrity,
		fmt.Sprintf("User %s owns no wallet to repair references with", userID),
		ErrReferenceIntegrity,
	)
}

// WrapStorageUnavailable marks an infrastructure failure. The cause stays
// reachable through errors.Is/As.
func WrapStorageUnavailable(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeStorageUnavailable,
		"storage operation failed",
		errors.Join(ErrStorageUnavailable, err),
	)
}

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
