package remove

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
	"github.com/magabrotheeeer/coach-portal/internal/services/records"
)

type MockService struct{ mock.Mock }

func (m *MockService) Delete(ctx context.Context, clientID string, kind models.RecordKind, recordID string) error {
	return m.Called(ctx, clientID, kind, recordID).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name           string
		kind           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "deleted",
			kind: "PR",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, "c1", models.KindPR, "r1").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"deleted":"r1"}}`,
		},
		{
			name: "not found",
			kind: "rm",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, "c1", models.KindRM, "r1").Return(records.ErrRecordNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"record not found"}`,
		},
		{
			name:           "bad kind",
			kind:           "xx",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"record kind must be RM or PR"}`,
		},
		{
			name: "write failure",
			kind: "RM",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, "c1", models.KindRM, "r1").Return(errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not delete record"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodDelete, "/clients/c1/records/"+tt.kind+"/r1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("clientID", "c1")
			rctx.URLParams.Add("kind", tt.kind)
			rctx.URLParams.Add("recordID", "r1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
