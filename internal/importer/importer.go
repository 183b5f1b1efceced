package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) error
}

// JSONImporter loads a storefront catalog export and upserts categories then products.
// Re-running the same export leaves the catalog unchanged.
type JSONImporter struct {
	reader     io.Reader
	categories CategoryWriter
	products   ProductWriter
	validate   *validator.Validate
}

func NewJSONImporter(r io.Reader, categories CategoryWriter, products ProductWriter) *JSONImporter {
	return &JSONImporter{
		reader:     r,
		categories: categories,
		products:   products,
		validate:   validator.New(),
	}
}

type export struct {
	Data struct {
		Categories []exportCategory `json:"categories"`
		Products   []exportProduct  `json:"products"`
	} `json:"data"`
}

type exportCategory struct {
	Name string `json:"name" validate:"required"`
}

type exportProduct struct {
	ID          string            `json:"id" validate:"required"`
	Name        string            `json:"name" validate:"required"`
	InStock     bool              `json:"inStock"`
	Gallery     []string          `json:"gallery" validate:"dive,url"`
	Description string            `json:"description"`
	Category    string            `json:"category" validate:"required"`
	Attributes  []exportAttribute `json:"attributes" validate:"dive"`
	Prices      []exportPrice     `json:"prices" validate:"dive"`
	Brand       string            `json:"brand"`
}

type exportAttribute struct {
	ID    string       `json:"id" validate:"required"`
	Name  string       `json:"name" validate:"required"`
	Type  string       `json:"type" validate:"oneof=text swatch"`
	Items []exportItem `json:"items" validate:"dive"`
}

type exportItem struct {
	ID           string `json:"id" validate:"required"`
	DisplayValue string `json:"displayValue"`
	Value        string `json:"value" validate:"required"`
}

type exportPrice struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency struct {
		Label  string `json:"label" validate:"required"`
		Symbol string `json:"symbol"`
	} `json:"currency"`
}

// Summary counts what a run wrote.
type Summary struct {
	Categories int
	Products   int
}

// Run decodes the export and writes it. It stops at the first invalid or failing record.
func (i *JSONImporter) Run(ctx context.Context) (Summary, error) {
	var (
		doc     export
		summary Summary
	)
	if err := json.NewDecoder(i.reader).Decode(&doc); err != nil {
		return summary, fmt.Errorf("decode catalog: %w", err)
	}

	// Products may name categories the export does not list.
	names := make([]string, 0, len(doc.Data.Categories))
	known := map[string]struct{}{}
	addCategory := func(name string) {
		if _, ok := known[name]; ok {
			return
		}
		known[name] = struct{}{}
		names = append(names, name)
	}
	for _, c := range doc.Data.Categories {
		if err := i.validate.Struct(c); err != nil {
			return summary, fmt.Errorf("invalid category: %w", err)
		}
		addCategory(c.Name)
	}
	for _, p := range doc.Data.Products {
		addCategory(p.Category)
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := i.categories.Upsert(ctx, domain.Category{Name: name}); err != nil {
			return summary, fmt.Errorf("upsert category %q: %w", name, err)
		}
		summary.Categories++
	}

	for _, raw := range doc.Data.Products {
		p, err := i.toProduct(raw)
		if err != nil {
			return summary, err
		}
		if err := i.products.Upsert(ctx, p); err != nil {
			return summary, fmt.Errorf("upsert product %q: %w", p.ID, err)
		}
		summary.Products++
	}
	return summary, nil
}

func (i *JSONImporter) toProduct(raw exportProduct) (domain.Product, error) {
	if err := i.validate.Struct(raw); err != nil {
		return domain.Product{}, fmt.Errorf("invalid product %q: %w", raw.ID, err)
	}

	p := domain.Product{
		ID:          raw.ID,
		Name:        raw.Name,
		Brand:       raw.Brand,
		Description: raw.Description,
		Category:    raw.Category,
		InStock:     raw.InStock,
		Gallery:     raw.Gallery,
	}

	seenCurrency := map[string]struct{}{}
	for _, price := range raw.Prices {
		if price.Amount.IsNegative() {
			return domain.Product{}, fmt.Errorf("invalid product %q: negative price %s", raw.ID, price.Amount)
		}
		if _, dup := seenCurrency[price.Currency.Label]; dup {
			return domain.Product{}, fmt.Errorf("invalid product %q: duplicate price in %s", raw.ID, price.Currency.Label)
		}
		seenCurrency[price.Currency.Label] = struct{}{}
		p.Prices = append(p.Prices, domain.Price{
			Amount:   price.Amount.Round(2),
			Currency: domain.Currency{Label: price.Currency.Label, Symbol: price.Currency.Symbol},
		})
	}

	seenSet := map[string]struct{}{}
	for _, attr := range raw.Attributes {
		if _, dup := seenSet[attr.ID]; dup {
			return domain.Product{}, fmt.Errorf("invalid product %q: duplicate attribute set %s", raw.ID, attr.ID)
		}
		seenSet[attr.ID] = struct{}{}

		set := domain.AttributeSet{ID: attr.ID, Name: attr.Name, Kind: domain.AttributeKind(attr.Type)}
		seenItem := map[string]struct{}{}
		seenValue := map[string]struct{}{}
		for _, item := range attr.Items {
			if _, dup := seenItem[item.ID]; dup {
				return domain.Product{}, fmt.Errorf("invalid product %q: duplicate item %s in attribute set %s", raw.ID, item.ID, attr.ID)
			}
			seenItem[item.ID] = struct{}{}
			if _, dup := seenValue[item.Value]; dup {
				return domain.Product{}, fmt.Errorf("invalid product %q: duplicate value %q in attribute set %s", raw.ID, item.Value, attr.ID)
			}
			seenValue[item.Value] = struct{}{}
			display := item.DisplayValue
			if display == "" {
				display = item.Value
			}
			set.Items = append(set.Items, domain.AttributeItem{ID: item.ID, DisplayValue: display, Value: item.Value})
		}
		if len(set.Items) == 0 {
			return domain.Product{}, fmt.Errorf("invalid product %q: attribute set %s has no items", raw.ID, attr.ID)
		}
		p.Attributes = append(p.Attributes, set)
	}
	return p, nil
}
