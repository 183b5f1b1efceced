package order

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/service/attribute"
)

// Catalog is the product lookup the assembler prices and validates lines against.
type Catalog interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	CheckAvailability(ctx context.Context, ids []string) error
}

type CreateInput struct {
	// Currency is the price list label to charge in. Empty means the store currency.
	Currency string      `json:"currency"`
	Items    []LineInput `json:"items" validate:"dive"`
}

type LineInput struct {
	ProductID          string                `json:"productId" validate:"required"`
	Quantity           *int                  `json:"quantity" validate:"required"`
	SelectedAttributes []attribute.Selection `json:"selectedAttributes" validate:"dive"`
}

type Service struct {
	repo          orderrepo.Repository
	catalog       Catalog
	storeCurrency string
	validate      *validator.Validate
	logger        *logrus.Logger
	newID         func() string
}

func New(repo orderrepo.Repository, catalog Catalog, storeCurrency string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		repo:          repo,
		catalog:       catalog,
		storeCurrency: storeCurrency,
		validate:      v,
		logger:        logger,
		newID:         uuid.NewString,
	}
}

// Create validates, prices and persists a new pending order.
//
// Checks run in a fixed order and the first failure aborts the whole order:
// structure, quantities, availability, then per line attributes and price.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	if err := s.checkStructure(in); err != nil {
		return nil, err
	}
	for _, item := range in.Items {
		if *item.Quantity <= 0 || *item.Quantity > domain.MaxLineQuantity {
			return nil, domain.NewInvalidQuantity(item.ProductID, *item.Quantity)
		}
	}

	if err := s.catalog.CheckAvailability(ctx, distinctProductIDs(in.Items)); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.storeCurrency
	}

	order := &domain.Order{
		ID:     s.newID(),
		Status: domain.StatusPending,
		Lines:  make([]domain.OrderLine, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		line, price, err := s.buildLine(ctx, item, currency)
		if err != nil {
			return nil, err
		}
		order.Currency = price.Currency
		order.Lines = append(order.Lines, line)
	}

	order.Total = order.LinesTotal()
	if !order.Total.IsPositive() || order.Total.GreaterThan(domain.MaxOrderTotal) {
		return nil, domain.NewInvalidOrderAmount(order.Total.StringFixed(2))
	}

	log := s.logger.WithField("order_id", order.ID)
	if err := s.repo.Create(ctx, order); err != nil {
		log.WithError(err).WithField("code", domain.CodePersistenceFailure).Error("order create failed")
		return nil, domain.NewPersistenceFailure(err)
	}
	log.WithFields(logrus.Fields{
		"lines":    len(order.Lines),
		"total":    order.Total.StringFixed(2),
		"currency": order.Currency.Label,
	}).Info("order created")

	stored, err := s.repo.GetByID(ctx, order.ID)
	if err != nil {
		// The order is committed; answer with what was written.
		log.WithError(err).Warn("order reload failed")
		return order, nil
	}
	return stored, nil
}

func (s *Service) checkStructure(in CreateInput) error {
	if len(in.Items) == 0 {
		return domain.NewInvalidInput("Order must contain at least one item")
	}
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			_, field, _ := strings.Cut(fe.Namespace(), ".")
			fields = append(fields, field)
		}
		return domain.NewInvalidInput("Invalid order input, missing: " + strings.Join(fields, ", "))
	}
	return domain.NewInvalidInput(err.Error())
}

func (s *Service) buildLine(ctx context.Context, item LineInput, currency string) (domain.OrderLine, domain.Price, error) {
	p, err := s.catalog.Get(ctx, item.ProductID)
	if err != nil {
		return domain.OrderLine{}, domain.Price{}, err
	}

	selected, err := attribute.Resolve(p.ID, p.Attributes, item.SelectedAttributes)
	if err != nil {
		return domain.OrderLine{}, domain.Price{}, err
	}

	price, ok := p.PriceIn(currency)
	if !ok || !price.Amount.IsPositive() {
		return domain.OrderLine{}, domain.Price{}, domain.NewInvalidProductPrice(p.ID, currency)
	}

	return domain.OrderLine{
		ID:                 s.newID(),
		ProductID:          p.ID,
		ProductName:        p.Name,
		Quantity:           *item.Quantity,
		UnitPrice:          price.Amount,
		SelectedAttributes: selected,
	}, price, nil
}

func distinctProductIDs(items []LineInput) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewOrderNotFound(id)
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// UpdateStatus moves an order along the status state machine.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	next := domain.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, domain.NewInvalidStatus(status)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, domain.NewInvalidStatusTransition(current.Status, next)
	}

	ok, err := s.repo.UpdateStatus(ctx, current.ID, current.Status, next)
	if err != nil {
		return nil, fmt.Errorf("update order %s status: %w", id, err)
	}
	if !ok {
		return nil, domain.NewStatusConflict(id)
	}
	s.logger.WithFields(logrus.Fields{
		"order_id": current.ID,
		"from":     current.Status,
		"to":       next,
	}).Info("order status changed")

	current.Status = next
	return current, nil
}
