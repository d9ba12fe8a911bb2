package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/config"
)

func main() {
	resetDrawer := flag.Bool("reset-drawer", false, "set every denomination count back to the seed count")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	denoms, err := config.ParseDenominations(envOrDefault("TILL_DENOMINATIONS", config.DefaultDenominations))
	if err != nil {
		log.Fatalf("TILL_DENOMINATIONS: %v", err)
	}
	seedCount, err := strconv.ParseInt(envOrDefault("TILL_DENOMINATION_SEED_COUNT", "50"), 10, 64)
	if err != nil || seedCount < 0 {
		log.Fatalf("TILL_DENOMINATION_SEED_COUNT must be a non-negative integer")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(db)
	seedDrawer(db, denoms, seedCount, *resetDrawer)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) {
	log.Println("Seeding Products...")
	for _, p := range catalog.DemoProducts() {
		res, err := db.Exec(`
			INSERT INTO products (sku, name, available_stock, price, tax_percentage)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (sku) DO NOTHING;
		`, p.SKU, p.Name, p.AvailableStock, p.Price.String(), p.TaxPercentage.String())
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.SKU, err)
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Printf("Product %s already present, skipped", p.SKU)
		}
	}
}

func seedDrawer(db *sql.DB, denoms []int64, seedCount int64, reset bool) {
	log.Println("Seeding Denominations...")
	query := `
		INSERT INTO denominations (value, count)
		VALUES ($1, $2)
		ON CONFLICT (value) DO NOTHING;`
	if reset {
		query = `
		INSERT INTO denominations (value, count)
		VALUES ($1, $2)
		ON CONFLICT (value) DO UPDATE SET count = EXCLUDED.count, updated_at = now();`
	}
	for _, v := range denoms {
		if _, err := db.Exec(query, v, seedCount); err != nil {
			log.Printf("Failed to seed denomination %d: %v", v, err)
		}
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
