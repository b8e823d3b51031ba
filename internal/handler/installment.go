package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/advansoftware/finwise-installments/internal/domain"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
	"github.com/advansoftware/finwise-installments/pkg/response"
)

// InstallmentService is what the HTTP layer needs from the service
type InstallmentService interface {
	CreatePlan(ctx context.Context, userID string, request *domain.CreatePlanRequest) (*domain.PlanView, error)
	GetPlan(ctx context.Context, id string) (*domain.PlanView, error)
	ListPlans(ctx context.Context, userID string) ([]*domain.PlanView, error)
	ListActivePlans(ctx context.Context, userID string) ([]*domain.PlanView, error)
	ListUpcomingPayments(ctx context.Context, userID string, days int) ([]domain.ScheduledPayment, error)
	ListOverduePayments(ctx context.Context, userID string) ([]domain.ScheduledPayment, error)
	UpdatePlan(ctx context.Context, id string, request *domain.UpdatePlanRequest) (*domain.PlanView, error)
	DeletePlan(ctx context.Context, id string) (bool, error)
	GetPlanPayments(ctx context.Context, id string) ([]*domain.InstallmentPayment, error)
	PayInstallment(ctx context.Context, planID string, installmentNumber int, request *domain.PayInstallmentRequest) (*domain.InstallmentPayment, error)
	MarkInstallmentPaidManually(ctx context.Context, planID string, installmentNumber int, request *domain.MarkPaidRequest) (*domain.InstallmentPayment, error)
	AdjustRecurringPlan(ctx context.Context, planID string, request *domain.AdjustRecurringRequest) (bool, error)
	GetSummary(ctx context.Context, userID string) (*domain.PlanSummary, error)
	ProjectCommitments(ctx context.Context, userID string, months int) ([]domain.MonthlyProjection, error)
	GetGamification(ctx context.Context, userID string) (*domain.GamificationProfile, error)
	RepairOrphanedReferences(ctx context.Context, userID string) (*domain.RepairResult, error)
}

type InstallmentHandler struct {
	service   InstallmentService
	validator *validator.Validate
	log       *slog.Logger
}

func NewInstallmentHandler(service InstallmentService, log *slog.Logger) *InstallmentHandler {
	return &InstallmentHandler{
		service:   service,
		validator: NewValidator(),
		log:       log,
	}
}

// Register mounts every installment route on api
func (h *InstallmentHandler) Register(api *mux.Router) {
	users := api.PathPrefix("/users/{userId}").Subrouter()
	users.HandleFunc("/plans", h.CreatePlan).Methods(http.MethodPost)
	users.HandleFunc("/plans", h.ListPlans).Methods(http.MethodGet)
	users.HandleFunc("/payments/upcoming", h.ListUpcomingPayments).Methods(http.MethodGet)
	users.HandleFunc("/payments/overdue", h.ListOverduePayments).Methods(http.MethodGet)
	users.HandleFunc("/summary", h.GetSummary).Methods(http.MethodGet)
	users.HandleFunc("/projections", h.ProjectCommitments).Methods(http.MethodGet)
	users.HandleFunc("/gamification", h.GetGamification).Methods(http.MethodGet)
	users.HandleFunc("/repair", h.RepairOrphanedReferences).Methods(http.MethodPost)

	plans := api.PathPrefix("/plans/{planId}").Subrouter()
	plans.HandleFunc("", h.GetPlan).Methods(http.MethodGet)
	plans.HandleFunc("", h.UpdatePlan).Methods(http.MethodPatch)
	plans.HandleFunc("", h.DeletePlan).Methods(http.MethodDelete)
	plans.HandleFunc("/payments", h.GetPlanPayments).Methods(http.MethodGet)
	plans.HandleFunc("/payments/{number:[0-9]+}/pay", h.PayInstallment).Methods(http.MethodPost)
	plans.HandleFunc("/payments/{number:[0-9]+}/mark-paid", h.MarkInstallmentPaid).Methods(http.MethodPost)
	plans.HandleFunc("/adjustments", h.AdjustRecurringPlan).Methods(http.MethodPost)
}

func (h *InstallmentHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreatePlanRequest
	if !h.decode(w, r, &request) {
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), mux.Vars(r)["userId"], &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, plan)
}

// ListPlans returns all plans, or only the open ones with ?active=true
func (h *InstallmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "Invalid query parameter", customError.WrapValidation("active must be a boolean"))
			return
		}
		activeOnly = parsed
	}

	var (
		plans []*domain.PlanView
		err   error
	)
	if activeOnly {
		plans, err = h.service.ListActivePlans(r.Context(), userID)
	} else {
		plans, err = h.service.ListPlans(r.Context(), userID)
	}
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, plans)
}

func (h *InstallmentHandler) ListUpcomingPayments(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}

	payments, err := h.service.ListUpcomingPayments(r.Context(), mux.Vars(r)["userId"], days)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *InstallmentHandler) ListOverduePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListOverduePayments(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *InstallmentHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *InstallmentHandler) ProjectCommitments(w http.ResponseWriter, r *http.Request) {
	months, ok := queryInt(w, r, "months")
	if !ok {
		return
	}

	projections, err := h.service.ProjectCommitments(r.Context(), mux.Vars(r)["userId"], months)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, projections)
}

func (h *InstallmentHandler) GetGamification(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetGamification(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, profile)
}

func (h *InstallmentHandler) RepairOrphanedReferences(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RepairOrphanedReferences(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *InstallmentHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(r.Context(), mux.Vars(r)["planId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, plan)
}

func (h *InstallmentHandler) GetPlanPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.GetPlanPayments(r.Context(), mux.Vars(r)["planId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *InstallmentHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var request domain.UpdatePlanRequest
	if !h.decode(w, r, &request) {
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), mux.Vars(r)["planId"], &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, plan)
}

func (h *InstallmentHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["planId"]

	deleted, err := h.service.DeletePlan(r.Context(), planID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	if !deleted {
		response.BusinessError(w, customError.WrapPlanNotFound(planID))
		return
	}

	response.Success(w, map[string]bool{"deleted": true})
}

func (h *InstallmentHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	number, ok := installmentNumber(w, r)
	if !ok {
		return
	}

	var request domain.PayInstallmentRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.PayInstallment(r.Context(), mux.Vars(r)["planId"], number, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payment)
}

func (h *InstallmentHandler) MarkInstallmentPaid(w http.ResponseWriter, r *http.Request) {
	number, ok := installmentNumber(w, r)
	if !ok {
		return
	}

	var request domain.MarkPaidRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.MarkInstallmentPaidManually(r.Context(), mux.Vars(r)["planId"], number, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payment)
}

func (h *InstallmentHandler) AdjustRecurringPlan(w http.ResponseWriter, r *http.Request) {
	var request domain.AdjustRecurringRequest
	if !h.decode(w, r, &request) {
		return
	}

	adjusted, err := h.service.AdjustRecurringPlan(r.Context(), mux.Vars(r)["planId"], &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]bool{"adjusted": adjusted})
}

// decode reads the JSON body into dst and validates it, writing the 400
// response itself when either step fails
func (h *InstallmentHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid JSON payload", customError.WrapValidation(err.Error()))
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.log.Debug("request validation failed", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Validation failed", customError.WrapValidation(err.Error()))
		return false
	}

	return true
}

func installmentNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil || number < 1 {
		response.BadRequest(w, "Invalid installment number", customError.WrapValidation("installment number must be a positive integer"))
		return 0, false
	}
	return number, true
}

// queryInt reads an optional integer query parameter; absent means 0
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		response.BadRequest(w, "Invalid query parameter", customError.WrapValidation(name+" must be a non-negative integer"))
		return 0, false
	}
	return value, true
}
