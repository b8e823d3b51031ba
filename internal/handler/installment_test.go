package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/advansoftware/finwise-installments/internal/domain"
	"github.com/advansoftware/finwise-installments/internal/repository/memory"
	customError "github.com/advansoftware/finwise-installments/pkg/errors"
	"github.com/advansoftware/finwise-installments/pkg/logger"
)

var startDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestRouter(service InstallmentService) http.Handler {
	log := logger.Discard()
	health := NewHealthHandler(memory.NewStore(), nil, time.Second)
	return NewRouter(NewInstallmentHandler(service, log), health, log)
}

func serve(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	wrapper := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.True(t, wrapper.Success)
	require.NoError(t, json.Unmarshal(wrapper.Data, dst))
}

func samplePlan() *domain.PlanView {
	return &domain.PlanView{
		InstallmentPlan: domain.InstallmentPlan{
			ID:                "p1",
			UserID:            "u1",
			Name:              "Notebook",
			TotalAmount:       decimal.NewFromInt(1200),
			TotalInstallments: 12,
			InstallmentAmount: decimal.NewFromInt(100),
			StartDate:         startDate,
			SourceWalletID:    "w1",
			IsActive:          true,
		},
		RemainingInstallments: 12,
		TotalPaid:             decimal.Zero,
		RemainingAmount:       decimal.NewFromInt(1200),
	}
}

func TestInstallmentHandler_CreatePlan(t *testing.T) {
	valid := domain.CreatePlanRequest{
		Name:              "Notebook",
		TotalAmount:       decimal.NewFromInt(1200),
		TotalInstallments: 12,
		StartDate:         startDate,
		SourceWalletID:    "w1",
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockInstallmentService)
		expectedStatus int
		expectedBody   string
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "successful plan creation",
			requestBody: valid,
			setupMock: func(m *MockInstallmentService) {
				m.On("CreatePlan", mock.Anything, "u1", mock.MatchedBy(func(req *domain.CreatePlanRequest) bool {
					return req.Name == "Notebook" &&
						req.TotalAmount.Equal(decimal.NewFromInt(1200)) &&
						req.TotalInstallments == 12 &&
						req.StartDate.Equal(startDate)
				})).Return(samplePlan(), nil).Once()
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var plan domain.PlanView
				decodeData(t, w, &plan)
				assert.Equal(t, "p1", plan.ID)
				assert.True(t, plan.InstallmentAmount.Equal(decimal.NewFromInt(100)))
			},
		},
		{
			name:           "invalid JSON payload",
			requestBody:    "invalid json",
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid JSON payload",
		},
		{
			name: "validation error - missing name",
			requestBody: domain.CreatePlanRequest{
				TotalAmount:       decimal.NewFromInt(1200),
				TotalInstallments: 12,
				StartDate:         startDate,
				SourceWalletID:    "w1",
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "validation error - zero total amount",
			requestBody: domain.CreatePlanRequest{
				Name:              "Notebook",
				TotalAmount:       decimal.Zero,
				TotalInstallments: 12,
				StartDate:         startDate,
				SourceWalletID:    "w1",
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "validation error - negative total amount",
			requestBody: domain.CreatePlanRequest{
				Name:              "Notebook",
				TotalAmount:       decimal.NewFromInt(-5),
				TotalInstallments: 12,
				StartDate:         startDate,
				SourceWalletID:    "w1",
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "validation error - zero installments",
			requestBody: domain.CreatePlanRequest{
				Name:           "Notebook",
				TotalAmount:    decimal.NewFromInt(1200),
				StartDate:      startDate,
				SourceWalletID: "w1",
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "validation error - missing start date",
			requestBody: domain.CreatePlanRequest{
				Name:              "Notebook",
				TotalAmount:       decimal.NewFromInt(1200),
				TotalInstallments: 12,
				SourceWalletID:    "w1",
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "validation error - unknown recurring type",
			requestBody: domain.CreatePlanRequest{
				Name:              "Gym",
				TotalAmount:       decimal.NewFromInt(90),
				TotalInstallments: 1,
				StartDate:         startDate,
				IsRecurring:       true,
				RecurringType:     "weekly",
				SourceWalletID:    "w1",
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name:        "service error - storage unavailable",
			requestBody: valid,
			setupMock: func(m *MockInstallmentService) {
				m.On("CreatePlan", mock.Anything, "u1", mock.Anything).
					Return(nil, customError.WrapStorageUnavailable(assert.AnError)).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var body struct {
					Code      string `json:"code"`
					Retryable bool   `json:"retryable"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, customError.ErrCodeStorageUnavailable, body.Code)
				assert.True(t, body.Retryable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockInstallmentService)
			tt.setupMock(mockService)

			w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/users/u1/plans", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestInstallmentHandler_PayInstallment(t *testing.T) {
	paidDate := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	valid := domain.PayInstallmentRequest{
		PaidAmount: decimal.NewFromInt(100),
		PaidDate:   paidDate,
	}

	tests := []struct {
		name           string
		path           string
		requestBody    interface{}
		setupMock      func(*MockInstallmentService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "successful payment",
			path:        "/api/v1/plans/p1/payments/1/pay",
			requestBody: valid,
			setupMock: func(m *MockInstallmentService) {
				amount := decimal.NewFromInt(100)
				txID := "tx1"
				m.On("PayInstallment", mock.Anything, "p1", 1, mock.MatchedBy(func(req *domain.PayInstallmentRequest) bool {
					return req.PaidAmount.Equal(amount) && req.TransactionID == nil
				})).Return(&domain.InstallmentPayment{
					PlanID:            "p1",
					InstallmentNumber: 1,
					Status:            domain.PaymentStatusPaid,
					PaidAmount:        &amount,
					PaidDate:          &paidDate,
					TransactionID:     &txID,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"transactionId":"tx1"`,
		},
		{
			name:           "installment number zero",
			path:           "/api/v1/plans/p1/payments/0/pay",
			requestBody:    valid,
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid installment number",
		},
		{
			name:           "non numeric installment number does not route",
			path:           "/api/v1/plans/p1/payments/first/pay",
			requestBody:    valid,
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "validation error - zero amount",
			path: "/api/v1/plans/p1/payments/1/pay",
			requestBody: domain.PayInstallmentRequest{
				PaidAmount: decimal.Zero,
				PaidDate:   paidDate,
			},
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name:        "already paid",
			path:        "/api/v1/plans/p1/payments/2/pay",
			requestBody: valid,
			setupMock: func(m *MockInstallmentService) {
				m.On("PayInstallment", mock.Anything, "p1", 2, mock.Anything).
					Return(nil, customError.WrapPaymentNotFound("p1", 2)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   customError.ErrCodePaymentNotFound,
		},
		{
			name:        "insufficient balance",
			path:        "/api/v1/plans/p1/payments/1/pay",
			requestBody: valid,
			setupMock: func(m *MockInstallmentService) {
				m.On("PayInstallment", mock.Anything, "p1", 1, mock.Anything).
					Return(nil, customError.WrapInsufficientBalance("w1", "50", "100")).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   customError.ErrCodeInsufficientBalance,
		},
		{
			name:        "wallet cannot be repaired",
			path:        "/api/v1/plans/p1/payments/1/pay",
			requestBody: valid,
			setupMock: func(m *MockInstallmentService) {
				m.On("PayInstallment", mock.Anything, "p1", 1, mock.Anything).
					Return(nil, customError.WrapReferenceIntegrity("u1")).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   customError.ErrCodeReferenceIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockInstallmentService)
			tt.setupMock(mockService)

			w := serve(t, newTestRouter(mockService), http.MethodPost, tt.path, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestInstallmentHandler_MarkInstallmentPaid(t *testing.T) {
	mockService := new(MockInstallmentService)
	paidDate := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(100)

	mockService.On("MarkInstallmentPaidManually", mock.Anything, "p1", 3, mock.MatchedBy(func(req *domain.MarkPaidRequest) bool {
		return req.PaidAmount.Equal(amount) && req.PaidDate.Equal(paidDate)
	})).Return(&domain.InstallmentPayment{
		PlanID:            "p1",
		InstallmentNumber: 3,
		Status:            domain.PaymentStatusPaid,
		PaidAmount:        &amount,
		PaidDate:          &paidDate,
	}, nil).Once()

	w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/plans/p1/payments/3/mark-paid",
		domain.MarkPaidRequest{PaidAmount: amount, PaidDate: paidDate})

	assert.Equal(t, http.StatusOK, w.Code)
	var payment domain.InstallmentPayment
	decodeData(t, w, &payment)
	assert.Equal(t, domain.PaymentStatusPaid, payment.Status)
	assert.Nil(t, payment.TransactionID)

	mockService.AssertExpectations(t)
}

func TestInstallmentHandler_AdjustRecurringPlan(t *testing.T) {
	valid := domain.AdjustRecurringRequest{
		NewAmount:     decimal.NewFromInt(65),
		EffectiveDate: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		Reason:        "price increase",
	}

	t.Run("adjusted", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("AdjustRecurringPlan", mock.Anything, "p1", mock.MatchedBy(func(req *domain.AdjustRecurringRequest) bool {
			return req.NewAmount.Equal(decimal.NewFromInt(65)) && req.Reason == "price increase"
		})).Return(true, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/plans/p1/adjustments", valid)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]bool
		decodeData(t, w, &body)
		assert.True(t, body["adjusted"])
		mockService.AssertExpectations(t)
	})

	t.Run("fixed plan", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("AdjustRecurringPlan", mock.Anything, "p1", mock.Anything).
			Return(false, customError.WrapNotRecurring("p1")).Once()

		w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/plans/p1/adjustments", valid)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), customError.ErrCodeNotRecurring)
		mockService.AssertExpectations(t)
	})

	t.Run("missing effective date", func(t *testing.T) {
		mockService := new(MockInstallmentService)

		w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/plans/p1/adjustments",
			domain.AdjustRecurringRequest{NewAmount: decimal.NewFromInt(65)})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "AdjustRecurringPlan", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestInstallmentHandler_ListPlans(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockInstallmentService)
		expectedStatus int
	}{
		{
			name: "all plans",
			setupMock: func(m *MockInstallmentService) {
				m.On("ListPlans", mock.Anything, "u1").Return([]*domain.PlanView{samplePlan()}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "active only",
			query: "?active=true",
			setupMock: func(m *MockInstallmentService) {
				m.On("ListActivePlans", mock.Anything, "u1").Return([]*domain.PlanView{samplePlan()}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid active flag",
			query:          "?active=maybe",
			setupMock:      func(m *MockInstallmentService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "storage unavailable",
			query: "?active=false",
			setupMock: func(m *MockInstallmentService) {
				m.On("ListPlans", mock.Anything, "u1").
					Return(nil, customError.WrapStorageUnavailable(assert.AnError)).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockInstallmentService)
			tt.setupMock(mockService)

			w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/plans"+tt.query, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestInstallmentHandler_QueryParameters(t *testing.T) {
	t.Run("upcoming days passed through", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("ListUpcomingPayments", mock.Anything, "u1", 7).Return([]domain.ScheduledPayment{}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/payments/upcoming?days=7", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("upcoming without days uses service default", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("ListUpcomingPayments", mock.Anything, "u1", 0).Return([]domain.ScheduledPayment{}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/payments/upcoming", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid days", func(t *testing.T) {
		mockService := new(MockInstallmentService)

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/payments/upcoming?days=-3", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "days")
	})

	t.Run("projection months above max", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("ProjectCommitments", mock.Anything, "u1", 61).
			Return(nil, customError.WrapValidation("months must not exceed 60")).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/projections?months=61", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("projection", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("ProjectCommitments", mock.Anything, "u1", 2).Return([]domain.MonthlyProjection{
			{Month: "2025-05", TotalCommitment: decimal.NewFromInt(100)},
			{Month: "2025-06", TotalCommitment: decimal.NewFromInt(100)},
		}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/projections?months=2", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var projections []domain.MonthlyProjection
		decodeData(t, w, &projections)
		require.Len(t, projections, 2)
		assert.Equal(t, "2025-06", projections[1].Month)
		mockService.AssertExpectations(t)
	})
}

func TestInstallmentHandler_PlanRoutes(t *testing.T) {
	t.Run("get plan", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("GetPlan", mock.Anything, "p1").Return(samplePlan(), nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/plans/p1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var plan domain.PlanView
		decodeData(t, w, &plan)
		assert.Equal(t, "Notebook", plan.Name)
		mockService.AssertExpectations(t)
	})

	t.Run("get missing plan", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("GetPlan", mock.Anything, "nope").Return(nil, customError.WrapPlanNotFound("nope")).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/plans/nope", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), customError.ErrCodePlanNotFound)
		mockService.AssertExpectations(t)
	})

	t.Run("update plan", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		updated := samplePlan()
		updated.Name = "Laptop"
		mockService.On("UpdatePlan", mock.Anything, "p1", mock.MatchedBy(func(req *domain.UpdatePlanRequest) bool {
			return req.Name != nil && *req.Name == "Laptop" && req.SourceWalletID == nil
		})).Return(updated, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodPatch, "/api/v1/plans/p1", `{"name":"Laptop"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Laptop")
		mockService.AssertExpectations(t)
	})

	t.Run("update plan with empty name", func(t *testing.T) {
		mockService := new(MockInstallmentService)

		w := serve(t, newTestRouter(mockService), http.MethodPatch, "/api/v1/plans/p1", `{"name":""}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete plan", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("DeletePlan", mock.Anything, "p1").Return(true, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodDelete, "/api/v1/plans/p1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("delete missing plan", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("DeletePlan", mock.Anything, "p1").Return(false, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodDelete, "/api/v1/plans/p1", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("plan payments", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("GetPlanPayments", mock.Anything, "p1").Return([]*domain.InstallmentPayment{
			{PlanID: "p1", InstallmentNumber: 1, Status: domain.PaymentStatusOverdue},
		}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/plans/p1/payments", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"overdue"`)
		mockService.AssertExpectations(t)
	})
}

func TestInstallmentHandler_UserAggregates(t *testing.T) {
	t.Run("summary", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("GetSummary", mock.Anything, "u1").Return(&domain.PlanSummary{
			TotalActivePlans:  2,
			MonthlyCommitment: decimal.NewFromInt(200),
		}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/summary", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"totalActiveInstallments":2`)
		mockService.AssertExpectations(t)
	})

	t.Run("overdue", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("ListOverduePayments", mock.Anything, "u1").Return([]domain.ScheduledPayment{}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/payments/overdue", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("gamification", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("GetGamification", mock.Anything, "u1").Return(&domain.GamificationProfile{}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodGet, "/api/v1/users/u1/gamification", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("repair", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("RepairOrphanedReferences", mock.Anything, "u1").
			Return(&domain.RepairResult{PlansRepaired: 2, TransactionsRepaired: 1}, nil).Once()

		w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/users/u1/repair", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var result domain.RepairResult
		decodeData(t, w, &result)
		assert.Equal(t, 2, result.PlansRepaired)
		assert.Equal(t, 1, result.TransactionsRepaired)
		mockService.AssertExpectations(t)
	})

	t.Run("repair without wallets", func(t *testing.T) {
		mockService := new(MockInstallmentService)
		mockService.On("RepairOrphanedReferences", mock.Anything, "u1").
			Return(nil, customError.WrapReferenceIntegrity("u1")).Once()

		w := serve(t, newTestRouter(mockService), http.MethodPost, "/api/v1/users/u1/repair", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestRouter_UnknownRoute(t *testing.T) {
	w := serve(t, newTestRouter(new(MockInstallmentService)), http.MethodGet, "/api/v2/plans", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestRouter_CORSHeaders(t *testing.T) {
	mockService := new(MockInstallmentService)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newTestRouter(mockService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
