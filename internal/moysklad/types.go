package moysklad

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

type meta struct {
	Size int    `json:"size"`
	Href string `json:"href"`
}

type listResponse[T any] struct {
	Meta meta `json:"meta"`
	Rows []T  `json:"rows"`
}

// rawCurrency accepts every shape MoySklad uses for a currency designator:
// a bare string, {"code": ...}, {"name": ...} or {"meta": {"href": ...}}.
// It resolves to the tagged CurrencyRef once, at the parse boundary.
type rawCurrency struct {
	ref domain.CurrencyRef
}

func (c *rawCurrency) UnmarshalJSON(data []byte) error {
	c.ref = domain.NoCurrency

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			c.ref = domain.CurrencyFromCode(s)
		}
		return nil
	}

	var obj struct {
		Code string `json:"code"`
		Name string `json:"name"`
		Meta struct {
			Href string `json:"href"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// tolerate unexpected shapes; the price just stays UZS-assumed
		return nil
	}
	switch {
	case obj.Code != "":
		c.ref = domain.CurrencyFromCode(obj.Code)
	case obj.Name != "":
		c.ref = domain.CurrencyFromName(obj.Name)
	case obj.Meta.Href != "":
		c.ref = domain.CurrencyFromHref(obj.Meta.Href)
	}
	return nil
}

func (c *rawCurrency) Ref() domain.CurrencyRef {
	if c == nil {
		return domain.NoCurrency
	}
	return c.ref
}

// rawPrice accepts either a bare number or {"value": ..., "currency": ...}.
// Values arrive in minor units (kopecks) throughout the MoySklad API.
type rawPrice struct {
	value    float64
	currency *rawCurrency
}

func (p *rawPrice) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		p.value = n
		return nil
	}

	var obj struct {
		Value    float64      `json:"value"`
		Currency *rawCurrency `json:"currency"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	p.value = obj.Value
	p.currency = obj.Currency
	return nil
}

var minorUnits = decimal.NewFromInt(100)

// amount converts the minor-unit value into major units.
func (p *rawPrice) amount() decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p.value).Div(minorUnits)
}

func (p *rawPrice) hasValue() bool {
	return p != nil && p.value != 0
}

type rawProduct struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Code              string       `json:"code"`
	BuyPrice          *rawPrice    `json:"buyPrice"`
	PurchasePrice     *rawPrice    `json:"purchasePrice"`
	SalePrices        []rawPrice   `json:"salePrices"`
	SalePrice         *rawPrice    `json:"salePrice"`
	BuyPriceCurrency  *rawCurrency `json:"buyPriceCurrency"`
	SalePriceCurrency *rawCurrency `json:"salePriceCurrency"`
	Currency          *rawCurrency `json:"currency"`
}

// toDomain resolves the product's price fields: cost from buyPrice with
// purchasePrice as fallback, sale from the first of salePrices (the primary
// price) with the flat salePrice field as fallback. Currency designators
// nested in the price objects win over the product-level fields.
func (rp rawProduct) toDomain() domain.Product {
	buy := rp.BuyPrice
	if !buy.hasValue() && rp.PurchasePrice.hasValue() {
		buy = rp.PurchasePrice
	}

	var sale *rawPrice
	if len(rp.SalePrices) > 0 {
		sale = &rp.SalePrices[0]
	} else if rp.SalePrice.hasValue() {
		sale = rp.SalePrice
	}

	buyCurrency := domain.NoCurrency
	if buy != nil && buy.currency != nil {
		buyCurrency = buy.currency.Ref()
	} else if rp.BuyPriceCurrency != nil {
		buyCurrency = rp.BuyPriceCurrency.Ref()
	}

	saleCurrency := domain.NoCurrency
	if sale != nil && sale.currency != nil {
		saleCurrency = sale.currency.Ref()
	} else if rp.SalePriceCurrency != nil {
		saleCurrency = rp.SalePriceCurrency.Ref()
	} else if rp.Currency != nil {
		saleCurrency = rp.Currency.Ref()
	}

	productName := rp.Name
	if productName == "" {
		productName = "Неизвестный товар"
	}

	return domain.Product{
		ID:        rp.ID,
		Name:      productName,
		Code:      rp.Code,
		BuyPrice:  domain.Money{Amount: buy.amount(), Currency: buyCurrency},
		SalePrice: domain.Money{Amount: sale.amount(), Currency: saleCurrency},
	}
}

type rawStore struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type rawAssortment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Href string `json:"href"`
	Meta struct {
		Href string `json:"href"`
	} `json:"meta"`
}

func (a rawAssortment) href() string {
	if a.Meta.Href != "" {
		return a.Meta.Href
	}
	return a.Href
}

type rawPosition struct {
	ID                    string        `json:"id"`
	Price                 float64       `json:"price"`
	Quantity              float64       `json:"quantity"`
	Discount              float64       `json:"discount"`
	PurchasePrice         *rawPrice     `json:"purchasePrice"`
	PurchasePriceCurrency *rawCurrency  `json:"purchasePriceCurrency"`
	Assortment            rawAssortment `json:"assortment"`
}

type rawDocument struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	Moment    string `json:"moment"`
	Created   string `json:"created"`
	Positions *struct {
		Rows []rawPosition `json:"rows"`
	} `json:"positions"`
}

func (d rawDocument) saleDate() string {
	if d.Moment != "" {
		return d.Moment
	}
	return d.Created
}

type rawProfitRow struct {
	SellSum   float64 `json:"sellSum"`
	ReturnSum float64 `json:"returnSum"`
}
