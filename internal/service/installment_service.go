package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advansoftware/finwise-installments/internal/config"
	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/lock"
	"github.com/advansoftware/finwise-installments/internal/repository"
	"github.com/advansoftware/finwise-installments/internal/schedule"
	"github.com/advansoftware/finwise-installments/internal/status"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
)

type InstallmentService struct {
	repos     repository.Repositories
	tx        repository.TxManager
	locker    lock.Locker
	generator *schedule.Generator
	config    *config.Config
	log       *slog.Logger
	now       func() time.Time
}

type Option func(*InstallmentService)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *InstallmentService) {
		s.now = now
	}
}

func WithLocker(locker lock.Locker) Option {
	return func(s *InstallmentService) {
		s.locker = locker
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *InstallmentService) {
		s.log = log
	}
}

func NewInstallmentService(
	repos repository.Repositories,
	tx repository.TxManager,
	config *config.Config,
	opts ...Option,
) *InstallmentService {
	s := &InstallmentService{
		repos:  repos,
		tx:     tx,
		locker: lock.NoopLocker{},
		generator: schedule.NewGenerator(schedule.Horizon{
			Monthly: config.Business.MonthlyHorizon,
			Yearly:  config.Business.YearlyHorizon,
		}),
		config: config,
		log:    slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePlan generates the schedule and stores the plan with every payment row
func (s *InstallmentService) CreatePlan(ctx context.Context, userID string, request *domain.CreatePlanRequest) (*domain.PlanView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, customError.WrapValidation("userId is required")
	}
	if strings.TrimSpace(request.Name) == "" {
		return nil, customError.WrapValidation("name is required")
	}
	if strings.TrimSpace(request.SourceWalletID) == "" {
		return nil, customError.WrapValidation("sourceWalletId is required")
	}
	if request.EndDate != nil && !request.IsRecurring {
		return nil, customError.WrapValidation("endDate is only allowed on recurring plans")
	}

	planID := uuid.NewString()
	result, err := s.generator.Generate(schedule.Params{
		PlanID:            planID,
		TotalAmount:       request.TotalAmount,
		TotalInstallments: request.TotalInstallments,
		StartDate:         request.StartDate,
		EndDate:           request.EndDate,
		IsRecurring:       request.IsRecurring,
		RecurringType:     request.RecurringType,
		CustomAmounts:     request.CustomInstallmentAmounts,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	plan := &domain.InstallmentPlan{
		ID:                planID,
		UserID:            userID,
		Name:              request.Name,
		Description:       request.Description,
		Category:          request.Category,
		Subcategory:       request.Subcategory,
		Establishment:     request.Establishment,
		TotalAmount:       request.TotalAmount,
		TotalInstallments: request.TotalInstallments,
		InstallmentAmount: result.InstallmentAmount,
		StartDate:         request.StartDate,
		EndDate:           request.EndDate,
		IsRecurring:       request.IsRecurring,
		RecurringType:     result.RecurringType,
		SourceWalletID:    request.SourceWalletID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
		AdjustmentHistory: []domain.AdjustmentEntry{},
		Payments:          result.Payments,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Plans.Create(ctx, plan)
	})
	if err != nil {
		s.log.Error("creating installment plan", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	s.log.Info("installment plan created",
		"plan_id", plan.ID,
		"user_id", userID,
		"installments", len(plan.Payments),
		"recurring", plan.IsRecurring,
	)
	return status.Resolve(plan, now), nil
}

// GetPlan returns the resolved plan. With repair-on-read enabled a dangling
// wallet reference is repaired first. Any failure of that step, storage
// included, only flags the view: the plan itself was read fine.
func (s *InstallmentService) GetPlan(ctx context.Context, id string) (*domain.PlanView, error) {
	plan, err := s.loadPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	unresolved := false
	if s.config.Business.RepairOnRead {
		if _, err := s.ensureWallet(ctx, plan); err != nil {
			unresolved = true
			s.log.Warn("wallet reference left as-is on read", "plan_id", plan.ID, "wallet_id", plan.SourceWalletID, "error", err)
		}
	}

	view := status.Resolve(plan, s.now())
	view.WalletUnresolved = unresolved
	return view, nil
}

// ListPlans returns every plan of the user, newest first
func (s *InstallmentService) ListPlans(ctx context.Context, userID string) ([]*domain.PlanView, error) {
	plans, err := s.repos.Plans.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("listing installment plans", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	return status.ResolveAll(plans, s.now()), nil
}

// ListActivePlans returns the plans that are active and not yet completed
func (s *InstallmentService) ListActivePlans(ctx context.Context, userID string) ([]*domain.PlanView, error) {
	plans, err := s.repos.Plans.ListActiveByUser(ctx, userID)
	if err != nil {
		s.log.Error("listing active installment plans", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	return openPlans(status.ResolveAll(plans, s.now())), nil
}

// ListUpcomingPayments lists pending rows of active plans due within the
// next days. A non-positive days uses the configured window.
func (s *InstallmentService) ListUpcomingPayments(ctx context.Context, userID string, days int) ([]domain.ScheduledPayment, error) {
	if days <= 0 {
		days = s.config.Business.UpcomingWindowDays
	}

	views, err := s.ListActivePlans(ctx, userID)
	if err != nil {
		return nil, err
	}

	return status.Upcoming(views, s.now(), days), nil
}

func (s *InstallmentService) ListOverduePayments(ctx context.Context, userID string) ([]domain.ScheduledPayment, error) {
	views, err := s.ListActivePlans(ctx, userID)
	if err != nil {
		return nil, err
	}

	return status.Overdue(views), nil
}

// UpdatePlan applies the set fields. Schedule and amounts are left alone.
func (s *InstallmentService) UpdatePlan(ctx context.Context, id string, request *domain.UpdatePlanRequest) (*domain.PlanView, error) {
	if request.Name != nil && strings.TrimSpace(*request.Name) == "" {
		return nil, customError.WrapValidation("name cannot be empty")
	}
	if request.SourceWalletID != nil && strings.TrimSpace(*request.SourceWalletID) == "" {
		return nil, customError.WrapValidation("sourceWalletId cannot be empty")
	}

	plan, err := s.loadPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.EndDate != nil && !plan.IsRecurring {
		return nil, customError.WrapValidation("endDate is only allowed on recurring plans")
	}

	now := s.now()
	request.Apply(plan)
	plan.UpdatedAt = now

	if err := s.repos.Plans.Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapPlanNotFound(id)
		}
		s.log.Error("updating installment plan", "plan_id", id, "error", err)
		return nil, storageError(err)
	}

	return status.Resolve(plan, now), nil
}

// DeletePlan removes the plan with all its payments and reports whether it existed
func (s *InstallmentService) DeletePlan(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		deleted, err = repos.Plans.Delete(ctx, id)
		return err
	})
	if err != nil {
		s.log.Error("deleting installment plan", "plan_id", id, "error", err)
		return false, storageError(err)
	}

	if deleted {
		s.log.Info("installment plan deleted", "plan_id", id)
	}
	return deleted, nil
}

// GetPlanPayments returns the resolved payment rows of a plan
func (s *InstallmentService) GetPlanPayments(ctx context.Context, id string) ([]*domain.InstallmentPayment, error) {
	view, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return view.Payments, nil
}

func (s *InstallmentService) loadPlan(ctx context.Context, id string) (*domain.InstallmentPlan, error) {
	plan, err := s.repos.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapPlanNotFound(id)
		}
		s.log.Error("loading installment plan", "plan_id", id, "error", err)
		return nil, storageError(err)
	}
	return plan, nil
}

func openPlans(views []*domain.PlanView) []*domain.PlanView {
	open := make([]*domain.PlanView, 0, len(views))
	for _, view := range views {
		if view.IsActive && !view.IsCompleted {
			open = append(open, view)
		}
	}
	return open
}

// storageError keeps business errors raised inside a unit of work and marks
// everything else as a retryable storage failure
func storageError(err error) error {
	var be *customError.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return customError.WrapStorageUnavailable(err)
}
