package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		apperror.NotFound("job card", 1):                                   http.StatusNotFound,
		fmt.Errorf("sweep: %w", &apperror.InsufficientStockError{}):       http.StatusBadRequest,
		apperror.Conflict("Cannot delete approved or rejected returns"):    http.StatusBadRequest,
		apperror.Validation("quantity", "must be positive"):                http.StatusBadRequest,
		apperror.Storage("commit", errors.New("connection reset by peer")): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusOf(err), err.Error())
	}
}

func TestErrorHidesInfrastructureDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, logger.NewNop(), errors.New("pq: password authentication failed"), "Failed to update job card")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to update job card"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, logger.NewNop(), &apperror.InsufficientStockError{ItemName: "Nozzle", Available: 3, Requested: 4}, "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient stock for Nozzle. Available: 3, needed: 4")
}

type addReq struct {
	Quantity int    `json:"quantity" validate:"gt=0"`
	Name     string `json:"name" validate:"required"`
}

func TestDecode(t *testing.T) {
	var ok addReq
	require.NoError(t, Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2,"name":"Seal"}`)), &ok))
	assert.Equal(t, 2, ok.Quantity)

	var bad addReq
	err := Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0,"name":"Seal"}`)), &bad)
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Quantity", ve.Field)

	err = Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &bad)
	require.ErrorAs(t, err, &ve)
}

func TestListEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, []int{}, 0)
	assert.JSONEq(t, `{"success":true,"data":[],"count":0}`, rec.Body.String())
}
