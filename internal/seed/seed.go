package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"storefront/internal/importer"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
)

//go:embed catalog.json
var demoCatalog []byte

// Apply imports the embedded demo catalog. It is idempotent.
// A non-nil cache has the entries of every written product dropped.
func Apply(ctx context.Context, pool *pgxpool.Pool, cache productrepo.Cache, logger *logrus.Logger) (importer.Summary, error) {
	var products importer.ProductWriter = productrepo.NewPostgres(pool, logger)
	if cache != nil {
		products = productrepo.NewInvalidatingWriter(products, cache, logger)
	}
	imp := importer.NewJSONImporter(bytes.NewReader(demoCatalog), categoryrepo.NewPostgres(pool), products)
	summary, err := imp.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("import demo catalog: %w", err)
	}
	return summary, nil
}
