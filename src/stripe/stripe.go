package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invoicepay-server/src/workflow"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/tidwall/gjson"
)

// Client implements workflow.Payments on top of the Stripe API.
type Client struct {
	api           *client.API
	webhookSecret string
}

// NewStripeClient builds a client. With an empty webhookSecret, incoming
// events are decoded without signature verification.
func NewStripeClient(secretKey, webhookSecret string) *Client {
	return NewStripeClientWithBackends(secretKey, webhookSecret, nil)
}

func NewStripeClientWithBackends(secretKey, webhookSecret string, backends *stripe.Backends) *Client {
	return &Client{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (c *Client) Invoice(ctx context.Context, invoiceID string) (*workflow.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	inv, err := c.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return nil, err
	}
	if inv.LastResponse == nil || len(inv.LastResponse.RawJSON) == 0 {
		return nil, fmt.Errorf("invoice %s: empty response body", invoiceID)
	}
	return invoiceFromJSON(inv.LastResponse.RawJSON)
}

func (c *Client) SetInvoiceDescription(ctx context.Context, invoiceID, description string) error {
	params := &stripe.InvoiceParams{Description: stripe.String(description)}
	params.Context = ctx
	_, err := c.api.Invoices.Update(invoiceID, params)
	return err
}

// AttachSource makes sourceToken the customer's source and returns the
// resulting default source id.
func (c *Client) AttachSource(ctx context.Context, customerID, sourceToken string) (string, error) {
	params := &stripe.CustomerParams{Source: stripe.String(sourceToken)}
	params.Context = ctx
	cus, err := c.api.Customers.Update(customerID, params)
	if err != nil {
		return "", err
	}
	if cus.DefaultSource == nil || cus.DefaultSource.ID == "" {
		return "", fmt.Errorf("customer %s has no default source", customerID)
	}
	return cus.DefaultSource.ID, nil
}

func (c *Client) PayInvoice(ctx context.Context, invoiceID, sourceID string) (*workflow.PaymentResult, error) {
	params := &stripe.InvoicePayParams{Source: stripe.String(sourceID)}
	params.Context = ctx
	inv, err := c.api.Invoices.Pay(invoiceID, params)
	if err != nil {
		return nil, err
	}
	return &workflow.PaymentResult{
		InvoiceID:  inv.ID,
		Status:     string(inv.Status),
		AmountPaid: inv.AmountPaid,
		Currency:   string(inv.Currency),
	}, nil
}

// RegisterWebhook returns the id of an enabled endpoint already delivering
// events to url, creating one only when none exists.
func (c *Client) RegisterWebhook(ctx context.Context, url string, events []string) (string, error) {
	list := &stripe.WebhookEndpointListParams{}
	list.Context = ctx
	it := c.api.WebhookEndpoints.List(list)
	for it.Next() {
		ep := it.WebhookEndpoint()
		if ep.URL == url && ep.Status != "disabled" && subscribes(ep.EnabledEvents, events) {
			return ep.ID, nil
		}
	}
	if err := it.Err(); err != nil {
		return "", err
	}

	params := &stripe.WebhookEndpointParams{
		URL:           stripe.String(url),
		EnabledEvents: stripe.StringSlice(events),
	}
	params.Context = ctx
	endpoint, err := c.api.WebhookEndpoints.New(params)
	if err != nil {
		return "", err
	}
	return endpoint.ID, nil
}

func subscribes(enabled, events []string) bool {
	have := make(map[string]bool, len(enabled))
	for _, e := range enabled {
		have[e] = true
	}
	if have["*"] {
		return true
	}
	for _, e := range events {
		if !have[e] {
			return false
		}
	}
	return true
}

// DecodeEvent parses a webhook body, verifying the Stripe-Signature header
// when a signing secret is configured.
func (c *Client) DecodeEvent(payload []byte, signature string) (*workflow.Event, error) {
	var event stripe.Event
	if c.webhookSecret != "" {
		var err error
		event, err = webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	if event.Type == "" {
		return nil, errors.New("event has no type")
	}
	return &workflow.Event{
		ID:       event.ID,
		Type:     string(event.Type),
		ObjectID: gjson.GetBytes(payload, "data.object.id").String(),
	}, nil
}

func invoiceFromJSON(raw []byte) (*workflow.Invoice, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid invoice json")
	}
	var doc workflow.Record
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(raw)
	customer := parsed.Get("customer")
	customerID := customer.String()
	if customer.IsObject() {
		customerID = customer.Get("id").String()
	}

	var lines []workflow.Record
	for _, line := range parsed.Get("lines.data").Array() {
		if m, ok := line.Value().(map[string]interface{}); ok {
			lines = append(lines, m)
		}
	}

	inv := &workflow.Invoice{
		ID:         parsed.Get("id").String(),
		CustomerID: customerID,
		Currency:   parsed.Get("currency").String(),
		Document:   doc,
		Lines:      lines,
	}
	if created := parsed.Get("created").Int(); created > 0 {
		inv.Created = time.Unix(created, 0)
	}
	return inv, nil
}
