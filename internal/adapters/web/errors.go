package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"retail-ledger/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps core errors onto HTTP statuses and stable error
// codes. Unknown errors become opaque 500s; the details stay in the logs.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var priceErr *core.PriceMismatchError
	var stockErr *core.InsufficientStockError
	var notFound *core.NotFoundError

	switch {
	case errors.As(err, &priceErr):
		writeError(w, r, priceErr.Error(), "PRICE_MISMATCH", http.StatusBadRequest)
	case errors.As(err, &stockErr):
		writeError(w, r, stockErr.Error(), "INSUFFICIENT_STOCK", http.StatusBadRequest)
	case errors.As(err, &notFound):
		writeError(w, r, notFound.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrEmptySale),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInvalidDiscount),
		errors.Is(err, core.ErrPaymentTarget),
		errors.Is(err, core.ErrPaymentRetarget),
		errors.Is(err, core.ErrInvalidAmount):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrProductReferenced):
		writeError(w, r, err.Error(), "PRODUCT_REFERENCED", http.StatusConflict)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, "invalid request body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
