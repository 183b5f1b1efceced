package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductKind distinguishes products that need an attribute selection from those that don't.
type ProductKind string

const (
	ProductSimple       ProductKind = "simple"
	ProductConfigurable ProductKind = "configurable"
)

// AttributeKind is the presentation type of an attribute set.
type AttributeKind string

const (
	AttributeText   AttributeKind = "text"
	AttributeSwatch AttributeKind = "swatch"
)

// Valid reports whether k is one of the known attribute kinds.
func (k AttributeKind) Valid() bool {
	return k == AttributeText || k == AttributeSwatch
}

type Currency struct {
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
}

type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

type AttributeItem struct {
	ID           string `json:"id"`
	DisplayValue string `json:"displayValue"`
	Value        string `json:"value"`
}

// AttributeSet is one selectable dimension of a configurable product, e.g. "Size".
// Items holds only the values the owning product allows.
type AttributeSet struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Kind  AttributeKind   `json:"type"`
	Items []AttributeItem `json:"items"`
}

// HasValue reports whether value matches the canonical value of one of the set's items.
func (s AttributeSet) HasValue(value string) bool {
	for _, item := range s.Items {
		if item.Value == value {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Brand       string         `json:"brand"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category"`
	InStock     bool           `json:"inStock"`
	Gallery     []string       `json:"gallery"`
	Prices      []Price        `json:"prices"`
	Attributes  []AttributeSet `json:"attributes"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Kind is derived from the attribute sets: a product without any is simple.
func (p Product) Kind() ProductKind {
	if len(p.Attributes) == 0 {
		return ProductSimple
	}
	return ProductConfigurable
}

// PriceIn returns the product's price for the currency label, if it has one.
func (p Product) PriceIn(label string) (Price, bool) {
	for _, price := range p.Prices {
		if price.Currency.Label == label {
			return price, true
		}
	}
	return Price{}, false
}
