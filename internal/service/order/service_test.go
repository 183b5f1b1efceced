package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/service/attribute"
)

type stubRepo struct {
	orders    map[string]domain.Order
	createErr error
	updateOK  *bool

	lastCreated *domain.Order
	lastFrom    domain.OrderStatus
	lastTo      domain.OrderStatus
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[string]domain.Order{}}
}

func (s *stubRepo) Create(_ context.Context, o *domain.Order) error {
	s.lastCreated = o
	if s.createErr != nil {
		return s.createErr
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	s.lastFrom, s.lastTo = from, to
	if s.updateOK != nil {
		return *s.updateOK, nil
	}
	o := s.orders[id]
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	s.orders[id] = o
	return true, nil
}

type stubCatalog struct {
	products map[string]domain.Product
	calls    int
}

func (c *stubCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	c.calls++
	p, ok := c.products[id]
	if !ok {
		return nil, domain.NewProductNotFound(id)
	}
	return &p, nil
}

func (c *stubCatalog) CheckAvailability(_ context.Context, ids []string) error {
	c.calls++
	for _, id := range ids {
		p, ok := c.products[id]
		if !ok {
			return domain.NewProductNotFound(id)
		}
		if !p.InStock {
			return domain.NewProductUnavailable(id)
		}
	}
	return nil
}

var (
	usd = domain.Currency{Label: "USD", Symbol: "$"}
	eur = domain.Currency{Label: "EUR", Symbol: "€"}
)

func price(amount string, c domain.Currency) domain.Price {
	return domain.Price{Amount: decimal.RequireFromString(amount), Currency: c}
}

func newCatalog() *stubCatalog {
	color := domain.AttributeSet{ID: "color", Name: "Color", Kind: domain.AttributeSwatch, Items: []domain.AttributeItem{
		{ID: "Red", DisplayValue: "Red", Value: "red"},
		{ID: "Black", DisplayValue: "Black", Value: "black"},
	}}
	return &stubCatalog{products: map[string]domain.Product{
		"ps5":       {ID: "ps5", Name: "PlayStation 5", InStock: true, Prices: []domain.Price{price("499.99", usd), price("460.00", eur)}, Attributes: []domain.AttributeSet{color}},
		"airtag":    {ID: "airtag", Name: "AirTag", InStock: true, Prices: []domain.Price{price("120.57", usd)}},
		"sold-out":  {ID: "sold-out", Name: "Sold Out", InStock: false, Prices: []domain.Price{price("10.00", usd)}},
		"freebie":   {ID: "freebie", Name: "Freebie", InStock: true, Prices: []domain.Price{price("0.00", usd)}},
		"cent":      {ID: "cent", Name: "Cent", InStock: true, Prices: []domain.Price{price("0.335", usd)}},
		"euro-only": {ID: "euro-only", Name: "Euro Only", InStock: true, Prices: []domain.Price{price("5.00", eur)}},
	}}
}

func qty(n int) *int { return &n }

func newService(repo *stubRepo, catalog *stubCatalog) *Service {
	svc := New(repo, catalog, "USD", nil)
	n := 0
	svc.newID = func() string {
		n++
		return "00000000-0000-4000-8000-00000000000" + string(rune('0'+n))
	}
	return svc
}

func requireCode(t *testing.T, err error, code string) *domain.Error {
	t.Helper()
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %v", err)
	require.Equal(t, code, de.Code, de.Message)
	return de
}

func TestCreate_PS5Scenario(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, newCatalog())

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{{
		ProductID:          "ps5",
		Quantity:           qty(2),
		SelectedAttributes: []attribute.Selection{{ID: "color", Value: "red"}},
	}}})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, "999.98", o.Total.StringFixed(2))
	assert.Equal(t, usd, o.Currency)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "499.99", o.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "PlayStation 5", o.Lines[0].ProductName)
	want := []domain.SelectedAttribute{{ID: "color", Name: "Color", Value: "red"}}
	if diff := cmp.Diff(want, o.Lines[0].SelectedAttributes); diff != "" {
		t.Fatalf("selected attributes mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, repo.lastCreated)
	assert.Equal(t, o.ID, repo.lastCreated.ID)
}

func TestCreate_TotalRoundedAfterSum(t *testing.T) {
	svc := newService(newStubRepo(), newCatalog())

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{ProductID: "cent", Quantity: qty(3)},
		{ProductID: "airtag", Quantity: qty(1)},
	}})
	require.NoError(t, err)
	// 1.005 + 120.57 = 121.575
	assert.Equal(t, "121.58", o.Total.StringFixed(2))
}

func TestCreate_UsesRequestedCurrency(t *testing.T) {
	svc := newService(newStubRepo(), newCatalog())

	o, err := svc.Create(context.Background(), CreateInput{Currency: "eur", Items: []LineInput{{
		ProductID: "ps5", Quantity: qty(1), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "black"}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, eur, o.Currency)
	assert.Equal(t, "460.00", o.Total.StringFixed(2))
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		in       CreateInput
		wantCode string
	}{
		{name: "no_items", in: CreateInput{}, wantCode: domain.CodeInvalidInput},
		{name: "missing_product_id", in: CreateInput{Items: []LineInput{{Quantity: qty(1)}}}, wantCode: domain.CodeInvalidInput},
		{name: "missing_quantity", in: CreateInput{Items: []LineInput{{ProductID: "airtag"}}}, wantCode: domain.CodeInvalidInput},
		{name: "empty_attribute_id", in: CreateInput{Items: []LineInput{{ProductID: "ps5", Quantity: qty(1), SelectedAttributes: []attribute.Selection{{Value: "red"}}}}}, wantCode: domain.CodeInvalidInput},
		{name: "zero_quantity", in: CreateInput{Items: []LineInput{{ProductID: "ps5", Quantity: qty(0)}}}, wantCode: domain.CodeInvalidQuantity},
		{name: "negative_quantity", in: CreateInput{Items: []LineInput{{ProductID: "airtag", Quantity: qty(-2)}}}, wantCode: domain.CodeInvalidQuantity},
		{name: "unknown_product", in: CreateInput{Items: []LineInput{{ProductID: "ghost", Quantity: qty(1)}}}, wantCode: domain.CodeProductNotFound},
		{name: "out_of_stock", in: CreateInput{Items: []LineInput{{ProductID: "sold-out", Quantity: qty(1)}}}, wantCode: domain.CodeProductUnavailable},
		{name: "missing_attributes", in: CreateInput{Items: []LineInput{{ProductID: "ps5", Quantity: qty(1)}}}, wantCode: domain.CodeMissingAttributes},
		{name: "invalid_value", in: CreateInput{Items: []LineInput{{ProductID: "ps5", Quantity: qty(1), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "blue"}}}}}, wantCode: domain.CodeInvalidAttribute},
		{name: "attributes_on_simple_product", in: CreateInput{Items: []LineInput{{ProductID: "airtag", Quantity: qty(1), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "red"}}}}}, wantCode: domain.CodeInvalidAttribute},
		{name: "zero_price", in: CreateInput{Items: []LineInput{{ProductID: "freebie", Quantity: qty(1)}}}, wantCode: domain.CodeInvalidProductPrice},
		{name: "quantity_above_int32", in: CreateInput{Items: []LineInput{{ProductID: "airtag", Quantity: qty(3_000_000_000)}}}, wantCode: domain.CodeInvalidQuantity},
		{name: "total_above_column_limit", in: CreateInput{Items: []LineInput{{ProductID: "ps5", Quantity: qty(300_000), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "red"}}}}}, wantCode: domain.CodeInvalidOrderAmount},
		{name: "no_price_in_currency", in: CreateInput{Items: []LineInput{{ProductID: "euro-only", Quantity: qty(1)}}}, wantCode: domain.CodeInvalidProductPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			_, err := newService(repo, newCatalog()).Create(context.Background(), tt.in)
			requireCode(t, err, tt.wantCode)
			assert.Nil(t, repo.lastCreated, "nothing may be persisted on failure")
		})
	}
}

func TestCreate_QuantityCheckedBeforeCatalog(t *testing.T) {
	catalog := newCatalog()
	svc := newService(newStubRepo(), catalog)

	_, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{
		{ProductID: "ghost", Quantity: qty(1), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "blue"}}},
		{ProductID: "ps5", Quantity: qty(0)},
	}})
	de := requireCode(t, err, domain.CodeInvalidQuantity)
	assert.Equal(t, "ps5", de.ProductID)
	assert.Equal(t, "Invalid quantity (0) for product ps5. Quantity must be greater than 0.", de.Message)
	assert.Zero(t, catalog.calls)
}

func TestCreate_QuantityAndTotalAtLimits(t *testing.T) {
	repo := newStubRepo()
	catalog := newCatalog()
	catalog.products["penny"] = domain.Product{ID: "penny", Name: "Penny", InStock: true, Prices: []domain.Price{price("0.01", usd)}}
	svc := newService(repo, catalog)

	o, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{{ProductID: "penny", Quantity: qty(domain.MaxLineQuantity)}}})
	require.NoError(t, err)
	assert.Equal(t, "21474836.47", o.Total.StringFixed(2))

	_, err = svc.Create(context.Background(), CreateInput{Items: []LineInput{{ProductID: "penny", Quantity: qty(domain.MaxLineQuantity + 1)}}})
	de := requireCode(t, err, domain.CodeInvalidQuantity)
	assert.Contains(t, de.Message, "must not exceed 2147483647")

	// 200000 x 499.99 = 99,998,000.00 fits; five more ps5 pass 99,999,999.99.
	line := LineInput{ProductID: "ps5", Quantity: qty(200_000), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "black"}}}
	_, err = svc.Create(context.Background(), CreateInput{Items: []LineInput{line}})
	require.NoError(t, err)

	extra := LineInput{ProductID: "ps5", Quantity: qty(5), SelectedAttributes: []attribute.Selection{{ID: "color", Value: "red"}}}
	_, err = svc.Create(context.Background(), CreateInput{Items: []LineInput{line, extra}})
	requireCode(t, err, domain.CodeInvalidOrderAmount)
}

func TestCreate_PersistenceFailure(t *testing.T) {
	repo := newStubRepo()
	cause := errors.New("connection reset")
	repo.createErr = cause
	svc := newService(repo, newCatalog())

	_, err := svc.Create(context.Background(), CreateInput{Items: []LineInput{{ProductID: "airtag", Quantity: qty(1)}}})
	de := requireCode(t, err, domain.CodePersistenceFailure)
	assert.Equal(t, domain.CategoryInternal, de.Category)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, repo.orders)
}

func seedOrder(repo *stubRepo, id string, status domain.OrderStatus) {
	repo.orders[id] = domain.Order{ID: id, Status: status, Currency: usd, Total: decimal.RequireFromString("1.00")}
}

const orderID = "6f1c2b3a-1d2e-4f50-9a8b-7c6d5e4f3a2b"

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		from     domain.OrderStatus
		to       string
		wantCode string
	}{
		{from: domain.StatusPending, to: "processing"},
		{from: domain.StatusPending, to: "cancelled"},
		{from: domain.StatusProcessing, to: "completed"},
		{from: domain.StatusProcessing, to: "CANCELLED"},
		{from: domain.StatusPending, to: "completed", wantCode: domain.CodeInvalidStatusTransition},
		{from: domain.StatusCompleted, to: "cancelled", wantCode: domain.CodeInvalidStatusTransition},
		{from: domain.StatusCancelled, to: "pending", wantCode: domain.CodeInvalidStatusTransition},
		{from: domain.StatusPending, to: "shipped", wantCode: domain.CodeInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+tt.to, func(t *testing.T) {
			repo := newStubRepo()
			seedOrder(repo, orderID, tt.from)
			o, err := newService(repo, newCatalog()).UpdateStatus(context.Background(), orderID, tt.to)
			if tt.wantCode != "" {
				requireCode(t, err, tt.wantCode)
				assert.Equal(t, tt.from, repo.orders[orderID].Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, repo.lastFrom)
			assert.Equal(t, o.Status, repo.orders[orderID].Status)
		})
	}
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	repo := newStubRepo()
	seedOrder(repo, orderID, domain.StatusPending)
	stale := false
	repo.updateOK = &stale

	_, err := newService(repo, newCatalog()).UpdateStatus(context.Background(), orderID, "processing")
	de := requireCode(t, err, domain.CodeStatusConflict)
	assert.Equal(t, 409, de.Status)
}

func TestGet_NotFound(t *testing.T) {
	svc := newService(newStubRepo(), newCatalog())

	_, err := svc.Get(context.Background(), orderID)
	requireCode(t, err, domain.CodeOrderNotFound)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	requireCode(t, err, domain.CodeOrderNotFound)
}
