package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kodbank/internal/assistant"
	"kodbank/internal/auth"
	"kodbank/internal/config"
	"kodbank/internal/db"
	"kodbank/internal/httpapi"
	"kodbank/internal/ledger"
	"kodbank/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	users := repository.NewUserRepository(d)
	sessions := repository.NewSessionRepository(d)
	transactions := repository.NewTransactionRepository(d)

	engine := ledger.NewEngine(d, users, transactions)
	srv := &httpapi.Server{
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret, sessions),
		Issuer:   auth.NewIssuer(cfg.Auth.JWTSecret, users, sessions),
		Engine:   engine,
	}

	if cfg.Gemini.APIKey != "" {
		a, err := assistant.New(context.Background(), cfg.Gemini.APIKey, engine)
		if err != nil {
			log.Fatalf("init assistant: %v", err)
		}
		srv.Assistant = a
	} else {
		log.Printf("GEMINI_API_KEY not set; chat assistant disabled")
	}

	// Start HTTP
	shutdown, err := srv.Start(cfg.HTTP.Address)
	if err != nil {
		log.Fatalf("start http: %v", err)
	}
	log.Printf("HTTP server listening on %s", cfg.HTTP.Address)

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
