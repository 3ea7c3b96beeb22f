package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"invoicepay-server/src/web"
	"invoicepay-server/src/workflow"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrMissingState),
		errors.Is(err, workflow.ErrBadPayload),
		errors.Is(err, workflow.ErrIneligibleAccount):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrExpired):
		return http.StatusGone
	case errors.Is(err, workflow.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, workflow.ErrMissingState):
		return "Your session is missing a step of the payment flow. Please open the invoice link again."
	case errors.Is(err, workflow.ErrExpired):
		return "This invoice link has expired."
	case errors.Is(err, workflow.ErrIneligibleAccount):
		return "Please choose a checking or savings account."
	}
	return "Something went wrong. Please try again later."
}

func renderError(w http.ResponseWriter, pages *web.Renderer, step string, err error) {
	log.Printf("ERROR: %s failed: %v", step, err)
	pages.Render(w, statusFor(err), "error.html", struct{ Message string }{messageFor(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError keeps the {"status": "false"} shape the Link page expects.
func writeJSONError(w http.ResponseWriter, step string, err error) {
	log.Printf("ERROR: %s failed: %v", step, err)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"status":  "false",
		"message": "something went wrong",
	})
}
