package web

import (
	"net/http"
)

func (h *Handler) customerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	st, err := h.svc.Reconciler.CustomerLedger(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, st)
}

func (h *Handler) recalculateCustomerBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	corr, err := h.svc.Reconciler.RecalculateCustomerBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, corr)
}

func (h *Handler) supplierHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	st, err := h.svc.Reconciler.SupplierLedger(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, st)
}

func (h *Handler) recalculateSupplierBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	corr, err := h.svc.Reconciler.RecalculateSupplierBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, corr)
}
