package register

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/services/status"
)

type MockService struct{ mock.Mock }

func (m *MockService) RegisterSubscription(ctx context.Context, clientID string, in models.SubscriptionInput) (*models.Payment, models.SubscriptionStatus, error) {
	args := m.Called(ctx, clientID, in)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Get(1).(models.SubscriptionStatus), args.Error(2)
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "end date with payment",
			body: `{"end_date":"2024-04-15","payment":{"method":"cash"}}`,
			setupMock: func(m *MockService) {
				m.On("RegisterSubscription", mock.Anything, "c1", mock.MatchedBy(func(in models.SubscriptionInput) bool {
					return in.EndDate != nil && *in.EndDate == "2024-04-15" && in.Payment != nil && in.Payment.Method == "cash"
				})).Return(&models.Payment{ID: "p1", Method: models.MethodCash}, models.StatusActive, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"payment":{"id":"p1"`,
		},
		{
			name: "exemption only",
			body: `{"is_payment_exempt":true}`,
			setupMock: func(m *MockService) {
				m.On("RegisterSubscription", mock.Anything, "c1", mock.Anything).
					Return(nil, models.StatusActive, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"status":"active"}}`,
		},
		{
			name: "bad end date",
			body: `{"end_date":"15/04/2024"}`,
			setupMock: func(m *MockService) {
				m.On("RegisterSubscription", mock.Anything, "c1", mock.Anything).
					Return(nil, models.SubscriptionStatus(""), fmt.Errorf("status.RegisterSubscription: %w", daykey.ErrBadDate)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `date must be YYYY-MM-DD`,
		},
		{
			name:           "payment without method",
			body:           `{"payment":{"amount":10}}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Method is a required field`,
		},
		{
			name: "unknown client",
			body: `{"end_date":""}`,
			setupMock: func(m *MockService) {
				m.On("RegisterSubscription", mock.Anything, "c1", mock.Anything).
					Return(nil, models.SubscriptionStatus(""), status.ErrClientNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `client not found`,
		},
		{
			name: "write failure",
			body: `{"end_date":"2024-04-15"}`,
			setupMock: func(m *MockService) {
				m.On("RegisterSubscription", mock.Anything, "c1", mock.Anything).
					Return(nil, models.SubscriptionStatus(""), errors.New("tx aborted")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not register subscription`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/clients/c1/subscription", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("clientID", "c1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
