package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/foodcartapp/backend/internal/config"
	"github.com/foodcartapp/backend/internal/importer"
	"github.com/foodcartapp/backend/internal/models"
	"github.com/foodcartapp/backend/pkg/db"
)

// Takes one or more source URLs; each must return a JSON array of
// {title, address, contact_phone} objects. Per-source failures never fail
// the run.
func main() {
	urls := os.Args[1:]
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: loadrestaurants <url> [<url> ...]")
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	database, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	client := &http.Client{Timeout: importer.FetchTimeout}
	stats := importer.ImportRestaurants(database, client, urls, os.Stdout, os.Stderr, importer.ConnectBackoff)

	fmt.Printf("done: %d created, %d skipped, %d sources failed\n", stats.Created, stats.Skipped, stats.Failed)
}
