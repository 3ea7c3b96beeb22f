package metrics

import (
	"errors"
	"net/http"

	"invoicepay-server/src/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicepay_webhook_events_total",
		Help: "Payments webhook events received, by event type and whether they were acted on.",
	}, []string{"type", "handled"})

	workflowSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicepay_workflow_steps_total",
		Help: "Workflow steps executed, by step and outcome.",
	}, []string{"step", "outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Event types come from unauthenticated request bodies, so only known types
// get their own label value.
var knownEventTypes = map[string]bool{
	workflow.EventInvoiceCreated: true,
}

func ObserveWebhook(eventType string, handled bool) {
	if !knownEventTypes[eventType] {
		eventType = "other"
	}
	h := "false"
	if handled {
		h = "true"
	}
	webhookEvents.WithLabelValues(eventType, h).Inc()
}

// ObserveStep counts a workflow step, classifying err by kind.
func ObserveStep(step string, err error) {
	workflowSteps.WithLabelValues(step, Outcome(err)).Inc()
}

func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, workflow.ErrMissingState):
		return "missing_state"
	case errors.Is(err, workflow.ErrBadPayload):
		return "bad_payload"
	case errors.Is(err, workflow.ErrExpired):
		return "expired"
	case errors.Is(err, workflow.ErrIneligibleAccount):
		return "ineligible_account"
	case errors.Is(err, workflow.ErrUpstream):
		return "upstream_error"
	}
	return "error"
}
