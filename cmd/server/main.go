package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "retail-ledger/internal/adapters/web"
	"retail-ledger/internal/core"
	"retail-ledger/internal/db"
	"retail-ledger/internal/notify"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	reconciler := core.NewReconciler(pool, log)
	stock := core.NewStockLedger(log)
	publisher := notify.NewLogPublisher(log)

	svc := webAdapter.Services{
		Sales:      core.NewSaleService(pool, stock, publisher, log),
		Reconciler: reconciler,
		Payments:   core.NewPaymentService(pool, reconciler),
		Purchases:  core.NewPurchaseService(pool, reconciler),
		Catalog:    core.NewCatalogService(pool),
		Customers:  core.NewCustomerService(pool, reconciler),
		Suppliers:  core.NewSupplierService(pool, reconciler),
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Warn("JWT_SECRET is not set; API authentication will reject every request")
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, log)

	log.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
