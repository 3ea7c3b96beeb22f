package handlers

import (
	"log"
	"net/http"

	"invoicepay-server/src/metrics"
	"invoicepay-server/src/web"
	"invoicepay-server/src/workflow"

	"github.com/go-chi/chi/v5"
)

// GetInvoice shows an invoice and selects it for the session.
func GetInvoice(svc *workflow.Service, pages *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())
		invoiceID := chi.URLParam(r, "id")

		invoice, err := svc.OpenInvoice(r.Context(), st, invoiceID)
		metrics.ObserveStep("invoice", err)
		if err != nil {
			renderError(w, pages, "invoice "+invoiceID, err)
			return
		}

		pages.Render(w, http.StatusOK, "invoice_detail.html", invoice)
	}
}

// ProofPayment shows the invoice next to the account chosen to pay it.
func ProofPayment(svc *workflow.Service, pages *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())

		proof, err := svc.ProofPayment(r.Context(), st, r.PostFormValue("account"))
		metrics.ObserveStep("proof_payment", err)
		if err != nil {
			renderError(w, pages, "proof payment", err)
			return
		}

		pages.Render(w, http.StatusOK, "proof_payment.html", proof)
	}
}

// AuthorizePayment charges the selected invoice from the selected account.
func AuthorizePayment(svc *workflow.Service, pages *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())

		result, err := svc.Pay(r.Context(), st)
		metrics.ObserveStep("payment", err)
		if err != nil {
			renderError(w, pages, "payment of invoice "+st.InvoiceID, err)
			return
		}

		log.Printf("INFO: Payment submitted for invoice %s, status %s", result.InvoiceID, result.Status)
		pages.Render(w, http.StatusOK, "result_payment.html", result)
	}
}
