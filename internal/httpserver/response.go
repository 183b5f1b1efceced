package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// money renders as a JSON number with exactly two decimals.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type orderView struct {
	ID        string          `json:"id"`
	Total     money           `json:"total"`
	Status    string          `json:"status"`
	Currency  domain.Currency `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
	Items     []orderLineView `json:"items"`
}

type orderLineView struct {
	ID                 string                     `json:"id"`
	ProductID          string                     `json:"productId"`
	ProductName        string                     `json:"productName"`
	Quantity           int                        `json:"quantity"`
	UnitPrice          money                      `json:"unitPrice"`
	Total              money                      `json:"total"`
	SelectedAttributes []domain.SelectedAttribute `json:"selectedAttributes"`
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderLineView, 0, len(o.Lines))
	for _, line := range o.Lines {
		attrs := line.SelectedAttributes
		if attrs == nil {
			attrs = []domain.SelectedAttribute{}
		}
		items = append(items, orderLineView{
			ID:                 line.ID,
			ProductID:          line.ProductID,
			ProductName:        line.ProductName,
			Quantity:           line.Quantity,
			UnitPrice:          money(line.UnitPrice),
			Total:              money(line.Total()),
			SelectedAttributes: attrs,
		})
	}
	return orderView{
		ID:        o.ID,
		Total:     money(o.Total),
		Status:    o.Status.String(),
		Currency:  o.Currency,
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
}

type priceView struct {
	Amount   money           `json:"amount"`
	Currency domain.Currency `json:"currency"`
}

type productView struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Brand       string                `json:"brand"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	InStock     bool                  `json:"inStock"`
	Kind        domain.ProductKind    `json:"kind"`
	Gallery     []string              `json:"gallery"`
	Prices      []priceView           `json:"prices"`
	Attributes  []domain.AttributeSet `json:"attributes"`
}

func toProductView(p domain.Product) productView {
	prices := make([]priceView, 0, len(p.Prices))
	for _, price := range p.Prices {
		prices = append(prices, priceView{Amount: money(price.Amount), Currency: price.Currency})
	}
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	attrs := p.Attributes
	if attrs == nil {
		attrs = []domain.AttributeSet{}
	}
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Description: p.Description,
		Category:    p.Category,
		InStock:     p.InStock,
		Kind:        p.Kind(),
		Gallery:     gallery,
		Prices:      prices,
		Attributes:  attrs,
	}
}
