package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Method string `json:"method" validate:"required,oneof=cash transfer"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes  string `json:"notes" validate:"max=3"`
}

func TestValidationError(t *testing.T) {
	err := validator.New().Struct(payload{Date: "15-03-2024", Notes: "long"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Method is a required field")
	assert.Contains(t, resp.Error, "field Date must be a date in format YYYY-MM-DD")
	assert.Contains(t, resp.Error, "field Notes must be at most 3 characters")

	err = validator.New().Struct(payload{Method: "bitcoin"})
	resp = ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, "field Method must be one of [cash transfer]", resp.Error)
}

func TestFailAndInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	w := httptest.NewRecorder()
	Fail(w, r, http.StatusNotFound, "client not found")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"Error","error":"client not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	Invalid(w, r, errors.New("boom"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request")

	w = httptest.NewRecorder()
	JSON(w, r, http.StatusOK, StatusOKWithData(map[string]string{"status": "active"}))
	assert.JSONEq(t, `{"status":"OK","data":{"status":"active"}}`, w.Body.String())
}
