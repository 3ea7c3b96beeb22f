package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"invoicepay-server/src/metrics"
	"invoicepay-server/src/util"
	"invoicepay-server/src/workflow"
)

const maxWebhookBytes = int64(65536)

// RegisterWebhook subscribes webhookURL to invoice.created events. The URL
// must be publicly reachable; locally, forward events with the Stripe CLI.
// Repeated calls return the endpoint already registered for the URL.
func RegisterWebhook(svc *workflow.Service, webhookURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := webhookURL
		if url == "" {
			url = util.Scheme(r) + r.Host + "/payment/insert-link"
		}

		id, err := svc.RegisterWebhook(r.Context(), url)
		metrics.ObserveStep("register_webhook", err)
		if err != nil {
			log.Printf("ERROR: Failed to register webhook %s: %v", url, err)
			http.Error(w, "failed to register webhook", statusFor(err))
			return
		}

		log.Printf("INFO: Registered webhook endpoint %s for %s", id, url)
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "url": url})
	}
}

// InsertLink writes the payment link into the description of newly created
// invoices.
func InsertLink(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("ERROR: Failed to read webhook body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		event, err := svc.DecodeEvent(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			log.Printf("ERROR: Failed to decode webhook event: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		base := util.Scheme(r) + r.Host
		handled, err := svc.HandleEvent(r.Context(), event, func(invoiceID string) string {
			return base + "/user/invoice/" + invoiceID
		})
		metrics.ObserveWebhook(event.Type, handled)
		if err != nil {
			log.Printf("ERROR: Failed to handle webhook event %s (%s): %v", event.ID, event.Type, err)
			if errors.Is(err, workflow.ErrBadPayload) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if handled {
			log.Printf("INFO: Inserted payment link into invoice %s", event.ObjectID)
		}
		w.WriteHeader(http.StatusOK)
	}
}
