package web

import (
	"net/http"

	"retail-ledger/internal/core"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Services bundles the core services the web adapter exposes.
type Services struct {
	Sales      *core.SaleService
	Reconciler *core.Reconciler
	Payments   *core.PaymentService
	Purchases  *core.PurchaseService
	Catalog    *core.CatalogService
	Customers  *core.CustomerService
	Suppliers  *core.SupplierService
}

// Handler holds the core services and the chi router.
type Handler struct {
	svc       Services
	router    chi.Router
	jwtSecret string
	log       *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc Services, allowedOrigins, jwtSecret string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, jwtSecret: jwtSecret, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// Sales
		r.Post("/api/sales", h.createSale)
		r.Get("/api/sales", h.listSales)
		r.Get("/api/sales/{id}", h.getSale)
		r.Post("/api/sales/{id}/void", h.voidSale)

		// Products
		r.Post("/api/products", h.createProduct)
		r.Get("/api/products", h.listProducts)
		r.Get("/api/products/{id}", h.getProduct)
		r.Put("/api/products/{id}", h.updateProduct)
		r.Put("/api/products/{id}/stock", h.adjustStock)
		r.Delete("/api/products/{id}", h.deleteProduct)

		// Customers
		r.Post("/api/customers", h.createCustomer)
		r.Get("/api/customers", h.listCustomers)
		r.Get("/api/customers/{id}", h.getCustomer)
		r.Put("/api/customers/{id}", h.updateCustomer)
		r.Delete("/api/customers/{id}", h.deleteCustomer)
		r.Get("/api/customers/{id}/history", h.customerHistory)
		r.Post("/api/customers/{id}/recalculate-balance", h.recalculateCustomerBalance)

		// Suppliers
		r.Post("/api/suppliers", h.createSupplier)
		r.Get("/api/suppliers", h.listSuppliers)
		r.Get("/api/suppliers/{id}", h.getSupplier)
		r.Put("/api/suppliers/{id}", h.updateSupplier)
		r.Delete("/api/suppliers/{id}", h.deleteSupplier)
		r.Get("/api/suppliers/{id}/history", h.supplierHistory)
		r.Post("/api/suppliers/{id}/recalculate-balance", h.recalculateSupplierBalance)

		// Payments
		r.Post("/api/payments", h.createPayment)
		r.Get("/api/payments", h.listPayments)
		r.Get("/api/payments/{id}", h.getPayment)
		r.Put("/api/payments/{id}", h.updatePayment)
		r.Delete("/api/payments/{id}", h.deletePayment)

		// Purchases
		r.Post("/api/purchases", h.createPurchase)
		r.Get("/api/purchases", h.listPurchases)
		r.Get("/api/purchases/{id}", h.getPurchase)
		r.Put("/api/purchases/{id}", h.updatePurchase)
		r.Delete("/api/purchases/{id}", h.deletePurchase)
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
