package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/biomathcore/email-service/internal/api"
	"github.com/biomathcore/email-service/internal/config"
	"github.com/biomathcore/email-service/internal/mailing"
	"github.com/biomathcore/email-service/internal/resend"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database url is required (config database.url or DATABASE_URL)")
	}
	if cfg.Resend.APIKey == "" {
		log.Fatal("Resend API key is required (config resend.api_key or RESEND_API_KEY)")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	templates := mailing.NewEmailTemplateStore(db)
	sendLogs := mailing.NewSendLogStore(db)
	invitations := mailing.NewInvitationStore(db)
	provider := resend.NewClient(cfg.Resend.APIKey, cfg.Resend.BaseURL, cfg.Resend.Timeout())

	// Dispatch resolves templates through Redis when configured.
	var resolver mailing.TemplateResolver = templates
	var cache *mailing.TemplateCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable (%v), template cache disabled", err)
		} else {
			cache = mailing.NewTemplateCache(templates, rdb, cfg.Redis.TTL())
			resolver = cache
			log.Printf("Template cache enabled (redis %s)", cfg.Redis.Addr)
		}
	}

	dispatcher := mailing.NewDispatcher(resolver, sendLogs, provider, cfg.Email.DefaultFrom)
	issuer := mailing.NewIssuer(invitations, dispatcher, cfg.Email.SiteBaseURL)

	handlers := api.NewHandlers(templates, sendLogs, invitations, dispatcher, issuer, cache)
	server := api.NewServer(cfg.Server, handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		log.Printf("Email service listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
