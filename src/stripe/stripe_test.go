package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const invoiceJSON = `{
  "id": "in_1HzFq2LCBQOzNn35",
  "object": "invoice",
  "created": 1606780800,
  "currency": "usd",
  "customer": "cus_IU8vl97l8utQXH",
  "customer_name": "Jenny Rosen",
  "number": "ABC-0001",
  "period_end": 1606780800,
  "status": "open",
  "subtotal": 1000,
  "total": 1000,
  "invoice_pdf": "https://pay.stripe.com/invoice/acct_1/invst_1/pdf",
  "status_transitions": {"finalized_at": 1606780900, "paid_at": null},
  "lines": {
    "object": "list",
    "data": [
      {"id": "il_1", "object": "line_item", "description": "Widget", "quantity": 2,
       "price": {"id": "price_1", "object": "price", "unit_amount": 500, "currency": "usd"}}
    ]
  }
}`

func TestInvoiceFromJSON(t *testing.T) {
	inv, err := invoiceFromJSON([]byte(invoiceJSON))
	require.NoError(t, err)

	assert.Equal(t, "in_1HzFq2LCBQOzNn35", inv.ID)
	assert.Equal(t, "cus_IU8vl97l8utQXH", inv.CustomerID)
	assert.Equal(t, "usd", inv.Currency)
	assert.Equal(t, int64(1606780800), inv.Created.Unix())
	assert.Equal(t, "Jenny Rosen", inv.Document["customer_name"])
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Widget", inv.Lines[0]["description"])
}

func TestInvoiceFromJSON_expandedCustomer(t *testing.T) {
	inv, err := invoiceFromJSON([]byte(`{"id":"in_1","customer":{"id":"cus_1","object":"customer"}}`))
	require.NoError(t, err)

	assert.Equal(t, "cus_1", inv.CustomerID)
	assert.Empty(t, inv.Lines)
	assert.True(t, inv.Created.IsZero())
}

func TestInvoiceFromJSON_invalid(t *testing.T) {
	_, err := invoiceFromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

const eventJSON = `{"id":"evt_1","object":"event","type":"invoice.created","api_version":"2020-08-27",
"data":{"object":{"id":"in_1HzFq2LCBQOzNn35","object":"invoice"}}}`

func TestDecodeEvent_unsigned(t *testing.T) {
	c := NewStripeClient("sk_test_123", "")

	ev, err := c.DecodeEvent([]byte(eventJSON), "")
	require.NoError(t, err)

	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "invoice.created", ev.Type)
	assert.Equal(t, "in_1HzFq2LCBQOzNn35", ev.ObjectID)
}

func TestDecodeEvent_malformed(t *testing.T) {
	c := NewStripeClient("sk_test_123", "")

	_, err := c.DecodeEvent([]byte(`not json`), "")
	assert.Error(t, err)

	_, err = c.DecodeEvent([]byte(`{"id":"evt_1"}`), "")
	assert.Error(t, err)
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestDecodeEvent_signed(t *testing.T) {
	secret := "whsec_test"
	c := NewStripeClient("sk_test_123", secret)
	payload := []byte(eventJSON)

	ev, err := c.DecodeEvent(payload, sign(payload, secret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "in_1HzFq2LCBQOzNn35", ev.ObjectID)

	_, err = c.DecodeEvent(payload, sign(payload, "whsec_other", time.Now()))
	assert.Error(t, err)

	_, err = c.DecodeEvent(payload, "")
	assert.Error(t, err)
}

func newFakeStripe(t *testing.T, mux *http.ServeMux) *Client {
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(srv.URL),
		HTTPClient:    srv.Client(),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeClientWithBackends("sk_test_123", "", &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func TestClient_InvoiceAndPay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/invoices/in_1HzFq2LCBQOzNn35", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(invoiceJSON))
	})
	mux.HandleFunc("/v1/customers/cus_IU8vl97l8utQXH", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "btok_1", r.PostForm.Get("source"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cus_IU8vl97l8utQXH","object":"customer","default_source":"ba_1"}`))
	})
	mux.HandleFunc("/v1/invoices/in_1HzFq2LCBQOzNn35/pay", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "ba_1", r.PostForm.Get("source"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"in_1HzFq2LCBQOzNn35","object":"invoice","status":"paid","amount_paid":1000,"currency":"usd"}`))
	})
	c := newFakeStripe(t, mux)
	ctx := context.Background()

	inv, err := c.Invoice(ctx, "in_1HzFq2LCBQOzNn35")
	require.NoError(t, err)
	assert.Equal(t, "cus_IU8vl97l8utQXH", inv.CustomerID)
	require.Len(t, inv.Lines, 1)

	source, err := c.AttachSource(ctx, inv.CustomerID, "btok_1")
	require.NoError(t, err)
	assert.Equal(t, "ba_1", source)

	result, err := c.PayInvoice(ctx, inv.ID, source)
	require.NoError(t, err)
	assert.Equal(t, "paid", result.Status)
	assert.Equal(t, int64(1000), result.AmountPaid)
}

func TestClient_InvoiceNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/invoices/in_missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such invoice: 'in_missing'"}}`))
	})
	c := newFakeStripe(t, mux)

	_, err := c.Invoice(context.Background(), "in_missing")
	assert.Error(t, err)
}

func TestClient_RegisterWebhook(t *testing.T) {
	const url = "https://pay.example.com/payment/insert-link"
	tests := []struct {
		name     string
		existing string
		wantID   string
		created  bool
	}{
		{
			name:     "reuses matching endpoint",
			existing: `{"id":"we_old","object":"webhook_endpoint","url":"` + url + `","status":"enabled","enabled_events":["invoice.created"]}`,
			wantID:   "we_old",
		},
		{
			name:     "reuses wildcard endpoint",
			existing: `{"id":"we_all","object":"webhook_endpoint","url":"` + url + `","status":"enabled","enabled_events":["*"]}`,
			wantID:   "we_all",
		},
		{
			name:     "ignores disabled endpoint",
			existing: `{"id":"we_off","object":"webhook_endpoint","url":"` + url + `","status":"disabled","enabled_events":["invoice.created"]}`,
			wantID:   "we_new",
			created:  true,
		},
		{
			name:     "ignores other url",
			existing: `{"id":"we_other","object":"webhook_endpoint","url":"https://other.example.com/hook","status":"enabled","enabled_events":["invoice.created"]}`,
			wantID:   "we_new",
			created:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			created := false
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/webhook_endpoints", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method == http.MethodGet {
					fmt.Fprintf(w, `{"object":"list","url":"/v1/webhook_endpoints","has_more":false,"data":[%s]}`, tc.existing)
					return
				}
				created = true
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, url, r.PostForm.Get("url"))
				assert.Equal(t, "invoice.created", r.PostForm.Get("enabled_events[0]"))
				w.Write([]byte(`{"id":"we_new","object":"webhook_endpoint","url":"` + url + `","status":"enabled","enabled_events":["invoice.created"]}`))
			})
			c := newFakeStripe(t, mux)

			id, err := c.RegisterWebhook(context.Background(), url, []string{"invoice.created"})
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.created, created)
		})
	}
}
