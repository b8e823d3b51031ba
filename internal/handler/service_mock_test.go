package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/advansoftware/finwise-installments/internal/domain"
)

type MockInstallmentService struct {
	mock.Mock
}

func (m *MockInstallmentService) CreatePlan(ctx context.Context, userID string, request *domain.CreatePlanRequest) (*domain.PlanView, error) {
	args := m.Called(ctx, userID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanView), args.Error(1)
}

func (m *MockInstallmentService) GetPlan(ctx context.Context, id string) (*domain.PlanView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanView), args.Error(1)
}

func (m *MockInstallmentService) ListPlans(ctx context.Context, userID string) ([]*domain.PlanView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PlanView), args.Error(1)
}

func (m *MockInstallmentService) ListActivePlans(ctx context.Context, userID string) ([]*domain.PlanView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PlanView), args.Error(1)
}

func (m *MockInstallmentService) ListUpcomingPayments(ctx context.Context, userID string, days int) ([]domain.ScheduledPayment, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledPayment), args.Error(1)
}

func (m *MockInstallmentService) ListOverduePayments(ctx context.Context, userID string) ([]domain.ScheduledPayment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledPayment), args.Error(1)
}

func (m *MockInstallmentService) UpdatePlan(ctx context.Context, id string, request *domain.UpdatePlanRequest) (*domain.PlanView, error) {
	args := m.Called(ctx, id, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanView), args.Error(1)
}

func (m *MockInstallmentService) DeletePlan(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstallmentService) GetPlanPayments(ctx context.Context, id string) ([]*domain.InstallmentPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InstallmentPayment), args.Error(1)
}

func (m *MockInstallmentService) PayInstallment(ctx context.Context, planID string, installmentNumber int, request *domain.PayInstallmentRequest) (*domain.InstallmentPayment, error) {
	args := m.Called(ctx, planID, installmentNumber, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentPayment), args.Error(1)
}

func (m *MockInstallmentService) MarkInstallmentPaidManually(ctx context.Context, planID string, installmentNumber int, request *domain.MarkPaidRequest) (*domain.InstallmentPayment, error) {
	args := m.Called(ctx, planID, installmentNumber, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentPayment), args.Error(1)
}

func (m *MockInstallmentService) AdjustRecurringPlan(ctx context.Context, planID string, request *domain.AdjustRecurringRequest) (bool, error) {
	args := m.Called(ctx, planID, request)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstallmentService) GetSummary(ctx context.Context, userID string) (*domain.PlanSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanSummary), args.Error(1)
}

func (m *MockInstallmentService) ProjectCommitments(ctx context.Context, userID string, months int) ([]domain.MonthlyProjection, error) {
	args := m.Called(ctx, userID, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyProjection), args.Error(1)
}

func (m *MockInstallmentService) GetGamification(ctx context.Context, userID string) (*domain.GamificationProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GamificationProfile), args.Error(1)
}

func (m *MockInstallmentService) RepairOrphanedReferences(ctx context.Context, userID string) (*domain.RepairResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepairResult), args.Error(1)
}
