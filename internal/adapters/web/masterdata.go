package web

import (
	"net/http"
	"strconv"

	"retail-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// ── Products ──────────────────────────────────────────────────────────────────

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in core.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.ProductFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	if v := q.Get("low_stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid low_stock", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		f.LowStock = &n
	}
	products, err := h.svc.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in core.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StockQuantity int `json:"stock_quantity"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.Catalog.AdjustStock(r.Context(), chi.URLParam(r, "id"), in.StockQuantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	hard := r.URL.Query().Get("hard") == "true"
	if err := h.svc.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id"), hard); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Customers ─────────────────────────────────────────────────────────────────

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.CustomerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Customers.CreateCustomer(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers.ListCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"customers": customers})
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.Customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var in core.CustomerInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.svc.Customers.UpdateCustomer(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Customers.DeleteCustomer(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in core.SupplierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s, err := h.svc.Suppliers.CreateSupplier(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, s)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.Suppliers.ListSuppliers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"suppliers": suppliers})
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.svc.Suppliers.GetSupplier(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var in core.SupplierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s, err := h.svc.Suppliers.UpdateSupplier(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Suppliers.DeleteSupplier(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
