package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/foodcartapp/backend/internal/config"
	"github.com/foodcartapp/backend/internal/importer"
	"github.com/foodcartapp/backend/internal/models"
	"github.com/foodcartapp/backend/pkg/db"
)

// Reads products.json from the working directory and upserts the catalog.
func main() {
	cfg := config.LoadConfig()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	database, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	records, err := importer.LoadProductRecords("products.json")
	if err != nil {
		log.Fatal(err)
	}

	stats, err := importer.ImportProducts(database, records, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("done: %d created, %d updated\n", stats.Created, stats.Updated)
}
