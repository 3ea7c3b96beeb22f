package api

import (
	"net/http"

	"invoicepay-server/src/handlers"
	"invoicepay-server/src/metrics"
	"invoicepay-server/src/middleware"
	"invoicepay-server/src/session"
	"invoicepay-server/src/web"
	"invoicepay-server/src/workflow"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Service          *workflow.Service
	Pages            *web.Renderer
	Sessions         session.Store
	Codec            *session.Codec
	SessionOptions   middleware.SessionOptions
	AllowedOrigins   []string
	StripeWebhookURL string
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	// Stripe talks to these directly; no browser session.
	r.Route("/payment", func(r chi.Router) {
		r.Get("/webhook", handlers.RegisterWebhook(d.Service, d.StripeWebhookURL))
		r.Post("/insert-link", handlers.InsertLink(d.Service))

		r.With(middleware.SessionMiddleware(d.Sessions, d.Codec, d.SessionOptions)).Group(func(r chi.Router) {
			r.Post("/proof-payment", handlers.ProofPayment(d.Service, d.Pages))
			r.Post("/payment", handlers.AuthorizePayment(d.Service, d.Pages))
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(d.Sessions, d.Codec, d.SessionOptions))

		r.Post("/get_link_token", handlers.CreateLinkToken(d.Service))
		r.Post("/get_access_token", handlers.ExchangePublicToken(d.Service))
		r.Get("/accounts", handlers.GetAccounts(d.Service, d.Pages))
		r.Get("/invoice/{id}", handlers.GetInvoice(d.Service, d.Pages))
	})

	return r
}
