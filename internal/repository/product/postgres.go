package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

// PostgresRepo reads and writes the catalog tables.
type PostgresRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *logrus.Logger) *PostgresRepo {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PostgresRepo{pool: pool, logger: logger}
}

var (
	_ Repository = (*PostgresRepo)(nil)
	_ Writer     = (*PostgresRepo)(nil)
)

const selectProducts = `
SELECT id, name, brand, COALESCE(description, ''), category, in_stock, created_at
FROM products
`

func (r *PostgresRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	q := selectProducts + `WHERE ($1::text = '' OR category = $1) ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, category)
	if err != nil {
		r.logger.WithError(err).WithField("category", category).Error("product repo: list")
		return nil, err
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, products); err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"category": category, "count": len(products)}).Debug("product repo: list")
	return products, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectProducts+`WHERE id = $1`, id)
	if err != nil {
		r.logger.WithError(err).WithField("product_id", id).Error("product repo: get")
		return nil, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("product_id", id).Error("product repo: get")
		return nil, err
	}

	products := []domain.Product{p}
	if err := r.loadDetails(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *PostgresRepo) StockStatus(ctx context.Context, ids []string) (map[string]bool, error) {
	const q = `SELECT id, in_stock FROM products WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	status := make(map[string]bool, len(ids))
	for rows.Next() {
		var (
			id      string
			inStock bool
		)
		if err := rows.Scan(&id, &inStock); err != nil {
			return nil, err
		}
		status[id] = inStock
	}
	return status, rows.Err()
}

func scanProduct(row pgx.CollectableRow) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Description, &p.Category, &p.InStock, &p.CreatedAt)
	p.Gallery = []string{}
	p.Prices = []domain.Price{}
	p.Attributes = []domain.AttributeSet{}
	return p, err
}

// loadDetails fills gallery, prices and attribute sets for products in place.
func (r *PostgresRepo) loadDetails(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	if err := r.loadGallery(ctx, ids, products, index); err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	if err := r.loadPrices(ctx, ids, products, index); err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	if err := r.loadAttributes(ctx, ids, products, index); err != nil {
		return fmt.Errorf("load attributes: %w", err)
	}
	return nil
}

func (r *PostgresRepo) loadGallery(ctx context.Context, ids []string, products []domain.Product, index map[string]int) error {
	const q = `
SELECT product_id, image_url
FROM product_gallery
WHERE product_id = ANY($1)
ORDER BY product_id, position
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var productID, url string
		if err := rows.Scan(&productID, &url); err != nil {
			return err
		}
		p := &products[index[productID]]
		p.Gallery = append(p.Gallery, url)
	}
	return rows.Err()
}

func (r *PostgresRepo) loadPrices(ctx context.Context, ids []string, products []domain.Product, index map[string]int) error {
	const q = `
SELECT p.product_id, c.label, c.symbol, p.amount::text
FROM prices p
JOIN currencies c ON c.id = p.currency_id
WHERE p.product_id = ANY($1)
ORDER BY p.product_id, c.id
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			productID, amount string
			price             domain.Price
		)
		if err := rows.Scan(&productID, &price.Currency.Label, &price.Currency.Symbol, &amount); err != nil {
			return err
		}
		price.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("parse amount %q for product %s: %w", amount, productID, err)
		}
		p := &products[index[productID]]
		p.Prices = append(p.Prices, price)
	}
	return rows.Err()
}

// loadAttributes returns only the items each product allows, keeping set order per product.
// A linked set with no allowed items is still returned, with an empty item list.
func (r *PostgresRepo) loadAttributes(ctx context.Context, ids []string, products []domain.Product, index map[string]int) error {
	const q = `
SELECT pa.product_id, s.id, s.name, s.type, i.id, i.display_value, i.value
FROM product_attributes pa
JOIN attribute_sets s ON s.id = pa.attribute_set_id
LEFT JOIN product_attribute_items pai
    ON pai.product_id = pa.product_id AND pai.attribute_set_id = pa.attribute_set_id
LEFT JOIN attribute_items i
    ON i.attribute_set_id = pai.attribute_set_id AND i.id = pai.item_id
WHERE pa.product_id = ANY($1)
ORDER BY pa.product_id, pa.position, i.position, i.id
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var productID string
		var set domain.AttributeSet
		var itemID, display, itemValue *string
		if err := rows.Scan(&productID, &set.ID, &set.Name, &set.Kind, &itemID, &display, &itemValue); err != nil {
			return err
		}
		p := &products[index[productID]]
		n := len(p.Attributes)
		if n == 0 || p.Attributes[n-1].ID != set.ID {
			set.Items = []domain.AttributeItem{}
			p.Attributes = append(p.Attributes, set)
			n++
		}
		if itemID != nil {
			last := &p.Attributes[n-1]
			last.Items = append(last.Items, domain.AttributeItem{ID: *itemID, DisplayValue: *display, Value: *itemValue})
		}
	}
	return rows.Err()
}

// Upsert writes the product and replaces its gallery, prices and attribute links in one transaction.
// The product's category must already exist.
func (r *PostgresRepo) Upsert(ctx context.Context, p domain.Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const upsertProduct = `
INSERT INTO products (id, name, brand, description, category, in_stock)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    brand = EXCLUDED.brand,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    in_stock = EXCLUDED.in_stock
`
	if _, err := tx.Exec(ctx, upsertProduct, p.ID, p.Name, p.Brand, p.Description, p.Category, p.InStock); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_gallery WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	for pos, url := range p.Gallery {
		if _, err := tx.Exec(ctx, `INSERT INTO product_gallery (product_id, position, image_url) VALUES ($1, $2, $3)`, p.ID, pos, url); err != nil {
			return fmt.Errorf("insert gallery image for %s: %w", p.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM prices WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	for _, price := range p.Prices {
		var currencyID int64
		const upsertCurrency = `
INSERT INTO currencies (label, symbol) VALUES ($1, $2)
ON CONFLICT (label) DO UPDATE SET symbol = EXCLUDED.symbol
RETURNING id
`
		if err := tx.QueryRow(ctx, upsertCurrency, price.Currency.Label, price.Currency.Symbol).Scan(&currencyID); err != nil {
			return fmt.Errorf("upsert currency %s: %w", price.Currency.Label, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO prices (product_id, currency_id, amount) VALUES ($1, $2, $3::numeric)`,
			p.ID, currencyID, price.Amount.StringFixed(2)); err != nil {
			return fmt.Errorf("insert price %s for %s: %w", price.Currency.Label, p.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_attributes WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	for pos, set := range p.Attributes {
		if err := upsertAttributeSet(ctx, tx, p.ID, pos, set); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{"product_id": p.ID, "attributes": len(p.Attributes), "prices": len(p.Prices)}).Info("product repo: upserted")
	return nil
}

func upsertAttributeSet(ctx context.Context, tx pgx.Tx, productID string, pos int, set domain.AttributeSet) error {
	const upsertSet = `
INSERT INTO attribute_sets (id, name, type) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type
`
	if _, err := tx.Exec(ctx, upsertSet, set.ID, set.Name, string(set.Kind)); err != nil {
		return fmt.Errorf("upsert attribute set %s: %w", set.ID, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO product_attributes (product_id, attribute_set_id, position) VALUES ($1, $2, $3)`,
		productID, set.ID, pos); err != nil {
		return fmt.Errorf("link attribute set %s to %s: %w", set.ID, productID, err)
	}

	const upsertItem = `
INSERT INTO attribute_items (attribute_set_id, id, display_value, value, position) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (attribute_set_id, id) DO UPDATE SET
    display_value = EXCLUDED.display_value,
    value = EXCLUDED.value
`
	// Items are shared across products; the first writer fixes an item's position.
	for itemPos, item := range set.Items {
		if _, err := tx.Exec(ctx, upsertItem, set.ID, item.ID, item.DisplayValue, item.Value, itemPos); err != nil {
			return fmt.Errorf("upsert attribute item %s/%s: %w", set.ID, item.ID, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO product_attribute_items (product_id, attribute_set_id, item_id) VALUES ($1, $2, $3)`,
			productID, set.ID, item.ID); err != nil {
			return fmt.Errorf("allow attribute item %s/%s for %s: %w", set.ID, item.ID, productID, err)
		}
	}
	return nil
}
