package workflow

import (
	"context"
	"fmt"
	"log"
	"time"
)

// BankLink is the bank-aggregation side of the flow.
type BankLink interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	Accounts(ctx context.Context, accessToken string, accountIDs ...string) ([]Record, error)
	StripeBankAccountToken(ctx context.Context, accessToken, accountID string) (string, error)
}

// Payments is the invoicing side of the flow.
type Payments interface {
	Invoice(ctx context.Context, invoiceID string) (*Invoice, error)
	SetInvoiceDescription(ctx context.Context, invoiceID, description string) error
	AttachSource(ctx context.Context, customerID, sourceToken string) (string, error)
	PayInvoice(ctx context.Context, invoiceID, sourceID string) (*PaymentResult, error)
	RegisterWebhook(ctx context.Context, url string, events []string) (string, error)
	DecodeEvent(payload []byte, signature string) (*Event, error)
}

// Invoice is an upstream invoice: a few typed fields plus the raw document.
type Invoice struct {
	ID         string
	CustomerID string
	Currency   string
	Created    time.Time
	Document   Record
	Lines      []Record
}

type PaymentResult struct {
	InvoiceID  string
	Status     string
	AmountPaid int64
	Currency   string
}

// Event is a decoded payments webhook event.
type Event struct {
	ID       string
	Type     string
	ObjectID string
}

const EventInvoiceCreated = "invoice.created"

type Service struct {
	bank       BankLink
	payments   Payments
	invoiceTTL time.Duration
	now        func() time.Time
}

// NewService wires the flow. A zero invoiceTTL disables link expiry.
func NewService(bank BankLink, payments Payments, invoiceTTL time.Duration) *Service {
	return &Service{
		bank:       bank,
		payments:   payments,
		invoiceTTL: invoiceTTL,
		now:        time.Now,
	}
}

func (s *Service) CreateLinkToken(ctx context.Context, st *State, clientUserID string) (string, error) {
	token, err := s.bank.CreateLinkToken(ctx, clientUserID)
	if err != nil {
		return "", fmt.Errorf("%w: create link token: %v", ErrUpstream, err)
	}
	st.Set(SlotLinkToken, token)
	return token, nil
}

func (s *Service) ExchangePublicToken(ctx context.Context, st *State, publicToken string) (string, error) {
	if publicToken == "" {
		return "", fmt.Errorf("%w: public_token is required", ErrBadPayload)
	}
	accessToken, err := s.bank.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return "", fmt.Errorf("%w: exchange public token: %v", ErrUpstream, err)
	}
	st.Set(SlotAccessToken, accessToken)
	return accessToken, nil
}

// Accounts lists the linked accounts that can be debited for the invoice.
func (s *Service) Accounts(ctx context.Context, st *State) ([]Record, error) {
	if err := Require(st, "accounts", SlotAccessToken, SlotInvoiceID); err != nil {
		return nil, err
	}
	return s.eligibleAccounts(ctx, st.AccessToken)
}

func (s *Service) eligibleAccounts(ctx context.Context, accessToken string, accountIDs ...string) ([]Record, error) {
	raw, err := s.bank.Accounts(ctx, accessToken, accountIDs...)
	if err != nil {
		return nil, fmt.Errorf("%w: get accounts: %v", ErrUpstream, err)
	}
	return EligibleAccounts(raw), nil
}

// OpenInvoice selects an invoice for the session and returns its display
// context. Selecting a different invoice forgets the previously chosen account.
func (s *Service) OpenInvoice(ctx context.Context, st *State, invoiceID string) (*InvoiceContext, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoice id is required", ErrBadPayload)
	}
	inv, err := s.invoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if st.InvoiceID != invoiceID {
		st.Set(SlotAccountID, "")
		st.Paid = false
	}
	st.Set(SlotInvoiceID, invoiceID)
	return NewInvoiceContext(inv), nil
}

type ProofContext struct {
	Invoice  *InvoiceContext
	Accounts []Record
}

// ProofPayment records the chosen account and returns the confirmation page
// context.
func (s *Service) ProofPayment(ctx context.Context, st *State, accountID string) (*ProofContext, error) {
	if err := Require(st, "proof-payment", SlotAccessToken, SlotInvoiceID); err != nil {
		return nil, err
	}
	if accountID == "" {
		return nil, &MissingStateError{Step: "proof-payment", Missing: []Slot{SlotAccountID}}
	}

	inv, err := s.invoice(ctx, st.InvoiceID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.eligibleAccounts(ctx, st.AccessToken, accountID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIneligibleAccount, accountID)
	}

	st.Set(SlotAccountID, accountID)
	return &ProofContext{Invoice: NewInvoiceContext(inv), Accounts: accounts}, nil
}

// Pay tokenizes the selected account, attaches it to the invoice's customer
// and pays the invoice with the customer's default source.
func (s *Service) Pay(ctx context.Context, st *State) (*PaymentResult, error) {
	if err := Require(st, "payment", SlotAccessToken, SlotInvoiceID, SlotAccountID); err != nil {
		return nil, err
	}

	inv, err := s.invoice(ctx, st.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.CustomerID == "" {
		return nil, fmt.Errorf("%w: invoice %s has no customer", ErrUpstream, inv.ID)
	}

	bankToken, err := s.bank.StripeBankAccountToken(ctx, st.AccessToken, st.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: create bank account token: %v", ErrUpstream, err)
	}
	source, err := s.payments.AttachSource(ctx, inv.CustomerID, bankToken)
	if err != nil {
		return nil, fmt.Errorf("%w: attach source to customer %s: %v", ErrUpstream, inv.CustomerID, err)
	}
	result, err := s.payments.PayInvoice(ctx, inv.ID, source)
	if err != nil {
		return nil, fmt.Errorf("%w: pay invoice %s: %v", ErrUpstream, inv.ID, err)
	}

	st.markPaid()
	log.Printf("INFO: Paid invoice %s from account %s, status %s", inv.ID, st.AccountID, result.Status)
	return result, nil
}

// HandleEvent reacts to a payments webhook. It reports whether the event type
// was acted on.
func (s *Service) HandleEvent(ctx context.Context, ev *Event, invoiceURL func(invoiceID string) string) (bool, error) {
	if ev.Type != EventInvoiceCreated {
		return false, nil
	}
	if ev.ObjectID == "" {
		return false, fmt.Errorf("%w: %s event without object id", ErrBadPayload, ev.Type)
	}
	description := "Please follow link for ACH Direct Debit payment " + invoiceURL(ev.ObjectID)
	if err := s.payments.SetInvoiceDescription(ctx, ev.ObjectID, description); err != nil {
		return false, fmt.Errorf("%w: update invoice %s: %v", ErrUpstream, ev.ObjectID, err)
	}
	return true, nil
}

func (s *Service) RegisterWebhook(ctx context.Context, url string) (string, error) {
	id, err := s.payments.RegisterWebhook(ctx, url, []string{EventInvoiceCreated})
	if err != nil {
		return "", fmt.Errorf("%w: register webhook: %v", ErrUpstream, err)
	}
	return id, nil
}

func (s *Service) DecodeEvent(payload []byte, signature string) (*Event, error) {
	ev, err := s.payments.DecodeEvent(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return ev, nil
}

func (s *Service) invoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	inv, err := s.payments.Invoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve invoice %s: %v", ErrUpstream, invoiceID, err)
	}
	if s.expired(inv) {
		return nil, fmt.Errorf("%w: %s created %s", ErrExpired, inv.ID, inv.Created.Format(time.RFC3339))
	}
	return inv, nil
}

// expired uses the conventional reading: a link is dead once its deadline
// lies in the past.
func (s *Service) expired(inv *Invoice) bool {
	if s.invoiceTTL <= 0 || inv.Created.IsZero() {
		return false
	}
	return s.now().After(inv.Created.Add(s.invoiceTTL))
}
