package paymentremove

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/services/status"
)

type MockService struct{ mock.Mock }

func (m *MockService) DeletePayment(ctx context.Context, clientID, paymentID string) (models.SubscriptionStatus, error) {
	args := m.Called(ctx, clientID, paymentID)
	return args.Get(0).(models.SubscriptionStatus), args.Error(1)
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name           string
		result         models.SubscriptionStatus
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{name: "last payment removed", result: models.StatusPending, expectedStatus: http.StatusOK, expectedBody: `{"status":"OK","data":{"status":"pending"}}`},
		{name: "unknown payment", err: status.ErrPaymentNotFound, expectedStatus: http.StatusNotFound, expectedBody: `{"status":"Error","error":"payment not found"}`},
		{name: "unknown client", err: status.ErrClientNotFound, expectedStatus: http.StatusNotFound, expectedBody: `{"status":"Error","error":"client not found"}`},
		{name: "write failure", err: errors.New("tx aborted"), expectedStatus: http.StatusInternalServerError, expectedBody: `{"status":"Error","error":"could not delete payment"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("DeletePayment", mock.Anything, "c1", "p1").Return(tt.result, tt.err).Once()

			req := httptest.NewRequest(http.MethodDelete, "/clients/c1/payments/p1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("clientID", "c1")
			rctx.URLParams.Add("paymentID", "p1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
