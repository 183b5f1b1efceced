package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type memCache struct {
	data   map[string][]byte
	getErr error
	delErr error
	sets   int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.data, key)
	return nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	c.sets++
	return nil
}

type stubRepo struct {
	Repository
	product *domain.Product
	err     error
	calls   int
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Product, error) {
	s.calls++
	return s.product, s.err
}

func ps5() *domain.Product {
	return &domain.Product{
		ID:       "ps5",
		Name:     "PlayStation 5",
		Category: "tech",
		InStock:  true,
		Gallery:  []string{},
		Prices: []domain.Price{
			{Amount: decimal.RequireFromString("499.99"), Currency: domain.Currency{Label: "USD", Symbol: "$"}},
		},
		Attributes: []domain.AttributeSet{{
			ID: "color", Name: "Color", Kind: domain.AttributeSwatch,
			Items: []domain.AttributeItem{{ID: "Red", DisplayValue: "Red", Value: "red"}},
		}},
	}
}

func TestCachedRepo_ReadThrough(t *testing.T) {
	repo := &stubRepo{product: ps5()}
	cache := &memCache{data: map[string][]byte{}}
	cached := NewCached(repo, cache, time.Minute, nil)

	first, err := cached.GetByID(context.Background(), "ps5")
	require.NoError(t, err)
	second, err := cached.GetByID(context.Background(), "ps5")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)
	if diff := cmp.Diff(first.Attributes, second.Attributes); diff != "" {
		t.Fatalf("cached attributes differ (-first +second):\n%s", diff)
	}
	assert.True(t, first.Prices[0].Amount.Equal(second.Prices[0].Amount))
}

func TestCachedRepo_NotFoundIsNotCached(t *testing.T) {
	repo := &stubRepo{err: domain.ErrNotFound}
	cache := &memCache{data: map[string][]byte{}}
	cached := NewCached(repo, cache, time.Minute, nil)

	_, err := cached.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, cache.sets)
}

func TestCachedRepo_FallsBackWhenCacheFails(t *testing.T) {
	repo := &stubRepo{product: ps5()}
	cache := &memCache{data: map[string][]byte{}, getErr: errors.New("connection refused")}
	cached := NewCached(repo, cache, time.Minute, nil)

	p, err := cached.GetByID(context.Background(), "ps5")
	require.NoError(t, err)
	assert.Equal(t, "ps5", p.ID)
	assert.Equal(t, 1, repo.calls)
}

type stubWriter struct {
	upserted []string
	err      error
}

func (w *stubWriter) Upsert(_ context.Context, p domain.Product) error {
	if w.err != nil {
		return w.err
	}
	w.upserted = append(w.upserted, p.ID)
	return nil
}

func TestInvalidatingWriter_DropsStaleEntry(t *testing.T) {
	cache := &memCache{data: map[string][]byte{}}
	cached := NewCached(&stubRepo{product: ps5()}, cache, time.Minute, nil)
	_, err := cached.GetByID(context.Background(), "ps5")
	require.NoError(t, err)
	require.Contains(t, cache.data, "product:ps5")

	writer := &stubWriter{}
	updated := *ps5()
	updated.Prices = []domain.Price{{Amount: decimal.RequireFromString("449.99"), Currency: domain.Currency{Label: "USD", Symbol: "$"}}}
	require.NoError(t, NewInvalidatingWriter(writer, cache, nil).Upsert(context.Background(), updated))

	assert.Equal(t, []string{"ps5"}, writer.upserted)
	assert.NotContains(t, cache.data, "product:ps5")
}

func TestInvalidatingWriter_KeepsEntryWhenUpsertFails(t *testing.T) {
	cache := &memCache{data: map[string][]byte{"product:ps5": []byte("{}")}}
	writer := &stubWriter{err: errors.New("tx aborted")}

	err := NewInvalidatingWriter(writer, cache, nil).Upsert(context.Background(), *ps5())
	require.Error(t, err)
	assert.Contains(t, cache.data, "product:ps5")
}

func TestInvalidatingWriter_ReportsCacheFailure(t *testing.T) {
	cache := &memCache{data: map[string][]byte{}, delErr: errors.New("connection refused")}

	err := NewInvalidatingWriter(&stubWriter{}, cache, nil).Upsert(context.Background(), *ps5())
	require.ErrorContains(t, err, "invalidate cached product ps5")
}
