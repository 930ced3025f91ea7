package web

import (
	"net/http"
	"strconv"
	"time"

	"retail-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// saleCreatedResponse is the slim 201 body for POST /api/sales. Clients that
// want the full document follow up with GET /api/sales/{id}.
type saleCreatedResponse struct {
	SaleID             int    `json:"sale_id"`
	Subtotal           string `json:"subtotal"`
	DiscountAmount     string `json:"discount_amount"`
	DiscountPercentage string `json:"discount_percentage"`
	TotalAmount        string `json:"total_amount"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var input core.SaleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	sale, err := h.svc.Sales.CreateSale(r.Context(), input, cashierFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, saleCreatedResponse{
		SaleID:             sale.ID,
		Subtotal:           sale.Subtotal.StringFixed(2),
		DiscountAmount:     sale.DiscountAmount.StringFixed(2),
		DiscountPercentage: sale.DiscountPercentage.String(),
		TotalAmount:        sale.TotalAmount.StringFixed(2),
	})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.svc.Sales.GetSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	var f core.SaleFilter

	q := r.URL.Query()
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid customer_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		f.CustomerID = &id
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, r, "invalid from date, want YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		f.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, r, "invalid to date, want YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		f.To = &ts
	}
	if v := q.Get("status"); v != "" {
		st := core.SaleStatus(v)
		if st != core.SaleCompleted && st != core.SaleVoided {
			writeError(w, r, "invalid status", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		f.Status = &st
	}

	sales, err := h.svc.Sales.ListSales(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"sales": sales})
}

func (h *Handler) voidSale(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.svc.Sales.VoidSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// intParam parses a numeric chi URL parameter, writing a 400 on failure.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
