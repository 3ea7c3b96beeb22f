package main

import (
	"context"
	"log"
	"net/http"

	"invoicepay-server/src/api"
	"invoicepay-server/src/config"
	"invoicepay-server/src/db"
	"invoicepay-server/src/middleware"
	"invoicepay-server/src/plaid"
	"invoicepay-server/src/session"
	"invoicepay-server/src/stripe"
	"invoicepay-server/src/web"
	"invoicepay-server/src/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	ctx := context.Background()

	// Sessions live in Postgres when a database is configured, in memory otherwise
	var sessions session.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("DB connection failed: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("DB migration failed: %v", err)
		}
		store := session.NewPostgresStore(pool)
		if n, err := store.Prune(ctx); err != nil {
			log.Printf("ERROR: Failed to prune expired sessions: %v", err)
		} else if n > 0 {
			log.Printf("INFO: Pruned %d expired sessions", n)
		}
		sessions = store
	} else {
		store, err := session.NewMemoryStore(cfg.Session.CacheBytes)
		if err != nil {
			log.Fatalf("Session cache init failed: %v", err)
		}
		defer store.Close()
		sessions = store
	}

	codec, err := session.NewCodec(cfg.Session.Secret)
	if err != nil {
		log.Fatalf("Invalid session secret: %v", err)
	}

	plaidClient, err := plaid.NewPlaidClient(plaid.Options{
		ClientID:     cfg.Plaid.ClientID,
		Secret:       cfg.Plaid.Secret,
		Env:          cfg.Plaid.Env,
		ClientName:   cfg.Plaid.ClientName,
		Products:     cfg.Plaid.Products,
		CountryCodes: cfg.Plaid.CountryCodes,
		RedirectURI:  cfg.Plaid.RedirectURI,
	})
	if err != nil {
		log.Fatalf("Plaid client init failed: %v", err)
	}
	stripeClient := stripe.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	pages, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("Template parsing failed: %v", err)
	}

	router := api.NewRouter(api.Deps{
		Service:  workflow.NewService(plaidClient, stripeClient, cfg.InvoiceLinkTTL),
		Pages:    pages,
		Sessions: sessions,
		Codec:    codec,
		SessionOptions: middleware.SessionOptions{
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.SecureCookies,
		},
		AllowedOrigins:   cfg.AllowedOrigins,
		StripeWebhookURL: cfg.Stripe.WebhookURL,
	})

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
