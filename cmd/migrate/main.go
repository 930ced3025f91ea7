package main

import (
	"context"
	"fmt"
	"os"

	"retail-ledger/internal/db"

	"github.com/joho/godotenv"
)

// Applies a schema file against DATABASE_URL. Defaults to the base schema;
// pass a path to apply a later patch instead.
func main() {
	_ = godotenv.Load()

	path := "migrations/schema.sql"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	sqlFile, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read sql file: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Printf("Failed to connect to DB: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, string(sqlFile)); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migration successful.")
}
