package rest_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopsphere/payments-core/internal/application"
	"github.com/shopsphere/payments-core/internal/interfaces/rest"
)

func TestWriteError_ServiceErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()

	rest.WriteError(rr, application.NewStateConflictError("order is already paid"))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), application.ErrCodeStateConflict)
	assert.Contains(t, rr.Body.String(), "order is already paid")
}

func TestWriteError_HidesWrappedCause(t *testing.T) {
	rr := httptest.NewRecorder()

	rest.WriteError(rr, application.NewInternalError(errors.New("connect to db-primary:5432 refused")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), application.ErrCodeInternal)
	assert.NotContains(t, rr.Body.String(), "db-primary")
}

func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	rr := httptest.NewRecorder()

	rest.WriteError(rr, errors.New("raw failure"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), application.ErrCodeInternal)
	assert.NotContains(t, rr.Body.String(), "raw failure")
}
