package domain

import "github.com/shopspring/decimal"

// CurrencyKind tags how a currency designator arrived from an upstream API.
type CurrencyKind string

const (
	// CurrencyUnknown means no designator was present; amounts are assumed
	// to already be in the reporting currency.
	CurrencyUnknown CurrencyKind = "unknown"
	// CurrencyCode is a bare ISO code ("USD", "840", "UZS").
	CurrencyCode CurrencyKind = "code"
	// CurrencyName is a display name ("US Dollar", "Доллар США").
	CurrencyName CurrencyKind = "name"
	// CurrencyHref is an entity reference URL from MoySklad metadata.
	CurrencyHref CurrencyKind = "href"
)

// CurrencyRef is the single clean form every heterogeneous upstream currency
// shape (bare string, {code}, {name}, {meta:{href}}) is resolved into at the
// response-parsing boundary. Downstream code never sees raw JSON shapes.
type CurrencyRef struct {
	Kind  CurrencyKind `json:"kind"`
	Value string       `json:"value,omitempty"`
}

// NoCurrency is the designator for prices that carried no currency at all.
var NoCurrency = CurrencyRef{Kind: CurrencyUnknown}

func CurrencyFromCode(code string) CurrencyRef {
	return CurrencyRef{Kind: CurrencyCode, Value: code}
}

func CurrencyFromName(name string) CurrencyRef {
	return CurrencyRef{Kind: CurrencyName, Value: name}
}

func CurrencyFromHref(href string) CurrencyRef {
	return CurrencyRef{Kind: CurrencyHref, Value: href}
}

// Money is an amount paired with its currency designator. The amount is kept
// in major units (upstream minor units are divided out during parsing).
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency CurrencyRef     `json:"currency"`
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}
