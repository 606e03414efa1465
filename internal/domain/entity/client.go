package entity

import "time"

// Address postal address used for billing and shipping.
type Address struct {
	Company    string `json:"company,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Client represents a customer of the concern (billing).
// CRUD lives in the CRM; this engine only reads clients to take snapshots.
type Client struct {
	ID             string
	ConcernID      string
	Name           string
	BillingAddress Address
	VATID          string // USt-IdNr., optional
	DefaultTaxKey  string // e.g. "DE19", "DE7", "DE0"
	Currency       string // default "EUR"
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ClientSnapshot frozen copy of the client fields embedded in a document at
// creation/conversion time. Later client edits never alter historical documents.
type ClientSnapshot struct {
	Name           string  `json:"name"`
	BillingAddress Address `json:"billing_address"`
	VATID          string  `json:"vat_id,omitempty"`
	DefaultTaxKey  string  `json:"default_tax_key,omitempty"`
	Currency       string  `json:"currency,omitempty"`
}

// Snapshot builds the frozen copy embedded in documents.
func (c *Client) Snapshot() ClientSnapshot {
	currency := c.Currency
	if currency == "" {
		currency = "EUR"
	}
	return ClientSnapshot{
		Name:           c.Name,
		BillingAddress: c.BillingAddress,
		VATID:          c.VATID,
		DefaultTaxKey:  c.DefaultTaxKey,
		Currency:       currency,
	}
}
