package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"retail-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doWriteDomainError(t *testing.T, err error) (int, errorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/sales", nil)
	writeDomainError(w, r, err)

	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestWriteDomainErrorMapping(t *testing.T) {
	status, body := doWriteDomainError(t, &core.PriceMismatchError{
		ProductID: "SKU-1",
		Expected:  decimal.NewFromInt(90),
		Submitted: decimal.NewFromInt(100),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PRICE_MISMATCH", body.Code)

	status, body = doWriteDomainError(t, &core.InsufficientStockError{
		ProductID: "SKU-1", Available: 2, Requested: 3,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)

	status, body = doWriteDomainError(t, &core.NotFoundError{Entity: "sale", ID: "7"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Code)

	status, body = doWriteDomainError(t, core.ErrEmptySale)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	status, body = doWriteDomainError(t, core.ErrProductReferenced)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "PRODUCT_REFERENCED", body.Code)

	status, body = doWriteDomainError(t, errors.New("database on fire"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Equal(t, "internal server error", body.Error)
}

func TestWriteDomainErrorWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("line 2"), &core.InsufficientStockError{
		ProductID: "SKU-9", Available: 0, Requested: 1,
	})
	status, body := doWriteDomainError(t, wrapped)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
}
