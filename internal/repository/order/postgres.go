package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *logrus.Logger) Repository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	log := r.logger.WithField("order_id", o.ID)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var currencyID int64
	err = tx.QueryRow(ctx, `SELECT id FROM currencies WHERE label = $1`, o.Currency.Label).Scan(&currencyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("unknown currency %q", o.Currency.Label)
		}
		return fmt.Errorf("lookup currency: %w", err)
	}

	const insertOrder = `
INSERT INTO orders (id, total_amount, currency_id, status)
VALUES ($1, $2::numeric, $3, $4)
RETURNING created_at
`
	err = tx.QueryRow(ctx, insertOrder, o.ID, o.Total.StringFixed(2), currencyID, string(o.Status)).Scan(&o.CreatedAt)
	if err != nil {
		log.WithError(err).Error("order repo: insert header")
		return fmt.Errorf("insert order: %w", err)
	}

	const insertLine = `
INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price, selected_attributes)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::jsonb)
RETURNING created_at
`
	for i := range o.Lines {
		line := &o.Lines[i]
		attrs := line.SelectedAttributes
		if attrs == nil {
			attrs = []domain.SelectedAttribute{}
		}
		payload, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("encode selected attributes for %s: %w", line.ProductID, err)
		}
		line.OrderID = o.ID
		err = tx.QueryRow(ctx, insertLine, line.ID, o.ID, i, line.ProductID, line.Quantity, line.UnitPrice.StringFixed(2), string(payload)).
			Scan(&line.CreatedAt)
		if err != nil {
			log.WithError(err).WithField("product_id", line.ProductID).Error("order repo: insert line")
			return fmt.Errorf("insert order line %d (%s): %w", i, line.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	log.WithField("lines", len(o.Lines)).Info("order repo: created")
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT o.id::text, o.total_amount::text, o.status::text, c.label, c.symbol, o.created_at
FROM orders o
JOIN currencies c ON c.id = o.currency_id
WHERE o.id = $1::uuid
`
	var (
		o     domain.Order
		total string
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&o.ID, &total, &o.Status, &o.Currency.Label, &o.Currency.Symbol, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("order_id", id).Error("order repo: get")
		return nil, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}

	lines, err := r.lines(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load lines for %s: %w", o.ID, err)
	}
	o.Lines = lines
	return &o, nil
}

func (r *postgresRepo) lines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	const q = `
SELECT oi.id::text, oi.order_id::text, oi.product_id, COALESCE(p.name, ''), oi.quantity,
       oi.unit_price::text, oi.selected_attributes, oi.created_at
FROM order_items oi
LEFT JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = $1::uuid
ORDER BY oi.position
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderLine, error) {
		var (
			line      domain.OrderLine
			unitPrice string
			attrs     []byte
		)
		err := row.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &unitPrice, &attrs, &line.CreatedAt)
		if err != nil {
			return line, err
		}
		if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return line, fmt.Errorf("parse unit price %q: %w", unitPrice, err)
		}
		line.SelectedAttributes = []domain.SelectedAttribute{}
		if err := json.Unmarshal(attrs, &line.SelectedAttributes); err != nil {
			return line, fmt.Errorf("decode selected attributes: %w", err)
		}
		return line, nil
	})
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	const q = `UPDATE orders SET status = $3::order_status WHERE id = $1::uuid AND status = $2::order_status`
	tag, err := r.pool.Exec(ctx, q, id, string(from), string(to))
	if err != nil {
		r.logger.WithError(err).WithField("order_id", id).Error("order repo: update status")
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// isInvalidText matches a malformed uuid literal.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
