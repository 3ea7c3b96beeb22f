package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"invoicepay-server/src/metrics"
	"invoicepay-server/src/middleware"
	"invoicepay-server/src/web"
	"invoicepay-server/src/workflow"
)

// CreateLinkToken creates a link_token, which is required as a parameter when
// initializing Link.
func CreateLinkToken(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())
		sessionID := middleware.SessionID(r.Context())

		linkToken, err := svc.CreateLinkToken(r.Context(), st, sessionID)
		metrics.ObserveStep("link_token", err)
		if err != nil {
			writeJSONError(w, "link token creation for session "+sessionID, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"link_token": linkToken})
	}
}

// ExchangePublicToken exchanges a Link public_token for an access_token.
func ExchangePublicToken(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())

		var req struct {
			PublicToken string `json:"public_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			err = fmt.Errorf("%w: decode exchange request: %v", workflow.ErrBadPayload, err)
			metrics.ObserveStep("access_token", err)
			writeJSONError(w, "public token exchange", err)
			return
		}

		accessToken, err := svc.ExchangePublicToken(r.Context(), st, req.PublicToken)
		metrics.ObserveStep("access_token", err)
		if err != nil {
			writeJSONError(w, "public token exchange", err)
			return
		}

		log.Printf("INFO: Exchanged public token for session %s", middleware.SessionID(r.Context()))
		writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
	}
}

// GetAccounts lists the linked accounts eligible to pay the selected invoice.
func GetAccounts(svc *workflow.Service, pages *web.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := workflow.FromContext(r.Context())

		accounts, err := svc.Accounts(r.Context(), st)
		metrics.ObserveStep("accounts", err)
		if err != nil {
			renderError(w, pages, "accounts", err)
			return
		}

		pages.Render(w, http.StatusOK, "accounts.html", struct {
			InvoiceID string
			Accounts  []workflow.Record
		}{st.InvoiceID, accounts})
	}
}
