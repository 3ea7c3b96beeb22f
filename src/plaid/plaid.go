package plaid

import (
	"context"
	"fmt"

	"invoicepay-server/src/workflow"

	"github.com/plaid/plaid-go/v41/plaid"
)

type Options struct {
	ClientID     string
	Secret       string
	Env          string
	ClientName   string
	Products     []string
	CountryCodes []string
	RedirectURI  string
}

// Client implements workflow.BankLink on top of the Plaid API.
type Client struct {
	api          *plaid.APIClient
	clientName   string
	products     []plaid.Products
	countryCodes []plaid.CountryCode
	redirectURI  string
}

func NewPlaidClient(opts Options) (*Client, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", opts.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", opts.Secret)

	switch opts.Env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		return nil, fmt.Errorf("invalid Plaid environment: %s", opts.Env)
	}

	return &Client{
		api:          plaid.NewAPIClient(configuration),
		clientName:   opts.ClientName,
		products:     toProducts(opts.Products),
		countryCodes: toCountryCodes(opts.CountryCodes),
		redirectURI:  opts.RedirectURI,
	}, nil
}

func toProducts(names []string) []plaid.Products {
	out := make([]plaid.Products, 0, len(names))
	for _, name := range names {
		out = append(out, plaid.Products(name))
	}
	return out
}

func toCountryCodes(codes []string) []plaid.CountryCode {
	out := make([]plaid.CountryCode, 0, len(codes))
	for _, code := range codes {
		out = append(out, plaid.CountryCode(code))
	}
	return out
}

// CreateLinkToken creates a link_token for initializing Link, restricted to
// depository checking and savings accounts.
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: clientUserID,
	}
	request := plaid.NewLinkTokenCreateRequest(c.clientName, "en", c.countryCodes)
	request.SetUser(user)
	request.SetProducts(c.products)
	if c.redirectURI != "" {
		request.SetRedirectUri(c.redirectURI)
	}
	request.SetAccountFilters(plaid.LinkTokenAccountFilters{
		Depository: plaid.NewDepositoryFilter([]plaid.DepositoryAccountSubtype{
			plaid.DEPOSITORYACCOUNTSUBTYPE_CHECKING,
			plaid.DEPOSITORYACCOUNTSUBTYPE_SAVINGS,
		}),
	})

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", describe(err)
	}
	return resp.GetLinkToken(), nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", describe(err)
	}
	return resp.GetAccessToken(), nil
}

// Accounts returns the item's accounts as loosely-typed records. When
// accountIDs is non-empty only those accounts are returned.
func (c *Client) Accounts(ctx context.Context, accessToken string, accountIDs ...string) ([]workflow.Record, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	if len(accountIDs) > 0 {
		options := plaid.NewAccountsGetRequestOptions()
		options.SetAccountIds(accountIDs)
		request.SetOptions(*options)
	}

	resp, _, err := c.api.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, describe(err)
	}

	accounts := resp.GetAccounts()
	records := make([]workflow.Record, 0, len(accounts))
	for _, acc := range accounts {
		records = append(records, accountRecord(acc))
	}
	return records, nil
}

func (c *Client) StripeBankAccountToken(ctx context.Context, accessToken, accountID string) (string, error) {
	request := plaid.NewProcessorStripeBankAccountTokenCreateRequest(accessToken, accountID)
	resp, _, err := c.api.PlaidApi.ProcessorStripeBankAccountTokenCreate(ctx).
		ProcessorStripeBankAccountTokenCreateRequest(*request).
		Execute()
	if err != nil {
		return "", describe(err)
	}
	return resp.GetStripeBankAccountToken(), nil
}

func accountRecord(acc plaid.AccountBase) workflow.Record {
	b := acc.GetBalances()
	balances := workflow.Record{
		"available":         nil,
		"current":           nil,
		"limit":             nil,
		"iso_currency_code": b.GetIsoCurrencyCode(),
	}
	if v, ok := b.GetAvailableOk(); ok && v != nil {
		balances["available"] = *v
	}
	if v, ok := b.GetCurrentOk(); ok && v != nil {
		balances["current"] = *v
	}
	if v, ok := b.GetLimitOk(); ok && v != nil {
		balances["limit"] = *v
	}

	return workflow.Record{
		"account_id":    acc.GetAccountId(),
		"name":          acc.GetName(),
		"official_name": acc.GetOfficialName(),
		"mask":          acc.GetMask(),
		"type":          string(acc.GetType()),
		"subtype":       string(acc.GetSubtype()),
		"balances":      balances,
	}
}

// describe surfaces Plaid's error code and message instead of the generic
// HTTP status text.
func describe(err error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil || plaidErr.ErrorCode == "" {
		return err
	}
	return fmt.Errorf("%s: %s", plaidErr.ErrorCode, plaidErr.ErrorMessage)
}
