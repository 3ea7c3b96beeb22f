package workflow

import "context"

type Slot string

const (
	SlotLinkToken   Slot = "link_token"
	SlotAccessToken Slot = "access_token"
	SlotInvoiceID   Slot = "invoice_id"
	SlotAccountID   Slot = "account_id"
)

type Stage string

const (
	StageNew             Stage = "new"
	StageLinked          Stage = "linked"
	StageTokenExchanged  Stage = "token_exchanged"
	StageInvoiceSelected Stage = "invoice_selected"
	StageAccountSelected Stage = "account_selected"
	StagePaid            Stage = "paid"
)

// State is the per-session workflow record. It is built by the session
// middleware at request entry and saved back when the request finishes.
type State struct {
	LinkToken   string `json:"link_token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	InvoiceID   string `json:"invoice_id,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	Paid        bool   `json:"paid,omitempty"`

	dirty bool
}

func (s *State) Get(slot Slot) string {
	switch slot {
	case SlotLinkToken:
		return s.LinkToken
	case SlotAccessToken:
		return s.AccessToken
	case SlotInvoiceID:
		return s.InvoiceID
	case SlotAccountID:
		return s.AccountID
	}
	return ""
}

func (s *State) Set(slot Slot, value string) {
	switch slot {
	case SlotLinkToken:
		s.LinkToken = value
	case SlotAccessToken:
		s.AccessToken = value
	case SlotInvoiceID:
		s.InvoiceID = value
	case SlotAccountID:
		s.AccountID = value
	default:
		return
	}
	s.dirty = true
}

func (s *State) markPaid() {
	s.Paid = true
	s.dirty = true
}

// Dirty reports whether a slot changed since the state was loaded.
func (s *State) Dirty() bool {
	return s.dirty
}

// Stage derives the furthest point of the flow the populated slots allow.
func (s *State) Stage() Stage {
	switch {
	case s.Paid:
		return StagePaid
	case s.AccessToken != "" && s.InvoiceID != "" && s.AccountID != "":
		return StageAccountSelected
	case s.AccessToken != "" && s.InvoiceID != "":
		return StageInvoiceSelected
	case s.AccessToken != "":
		return StageTokenExchanged
	case s.LinkToken != "":
		return StageLinked
	}
	return StageNew
}

type stateKey struct{}

func NewContext(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

// FromContext returns the request's state, or a fresh detached state when
// the session middleware did not run.
func FromContext(ctx context.Context) *State {
	if s, ok := ctx.Value(stateKey{}).(*State); ok && s != nil {
		return s
	}
	return &State{}
}
