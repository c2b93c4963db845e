package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/biomathcore/email-service/internal/mailing"
)

// Seeds the default email template catalog, upserting by slug.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	store := mailing.NewEmailTemplateStore(db)
	count, err := mailing.Seed(context.Background(), store)
	if err != nil {
		log.Fatalf("seed failed after %d templates: %v", count, err)
	}
	log.Printf("Seeded %d templates", count)
}
