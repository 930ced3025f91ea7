package web

import (
	"net/http"
	"strconv"

	"retail-ledger/internal/core"
)

// ── Payments ──────────────────────────────────────────────────────────────────

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var in core.PaymentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Payments.CreatePayment(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	var customerID, supplierID *int
	q := r.URL.Query()
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid customer_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		customerID = &id
	}
	if v := q.Get("supplier_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid supplier_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		supplierID = &id
	}
	payments, err := h.svc.Payments.ListPayments(r.Context(), customerID, supplierID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"payments": payments})
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.Payments.GetPayment(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var in core.PaymentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Payments.UpdatePayment(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Payments.DeletePayment(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Purchases ─────────────────────────────────────────────────────────────────

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var in core.PurchaseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Purchases.CreatePurchase(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	var supplierID *int
	if v := r.URL.Query().Get("supplier_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid supplier_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		supplierID = &id
	}
	purchases, err := h.svc.Purchases.ListPurchases(r.Context(), supplierID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"purchases": purchases})
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.Purchases.GetPurchase(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var in core.PurchaseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Purchases.UpdatePurchase(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Purchases.DeletePurchase(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
