package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Limits of the order columns: quantity is INT, amounts are NUMERIC(10,2).
const MaxLineQuantity = math.MaxInt32

var MaxOrderTotal = decimal.New(9999999999, -2)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// completed and cancelled have no outgoing transitions.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(statusTransitions[s]) == 0
}

// SelectedAttribute is a line's chosen value, with the set's display name frozen at write time.
type SelectedAttribute struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type OrderLine struct {
	ID                 string              `json:"id"`
	OrderID            string              `json:"orderId"`
	ProductID          string              `json:"productId"`
	ProductName        string              `json:"productName,omitempty"`
	Quantity           int                 `json:"quantity"`
	UnitPrice          decimal.Decimal     `json:"unitPrice"`
	SelectedAttributes []SelectedAttribute `json:"selectedAttributes"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// Total is the unit price snapshot times quantity.
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID        string          `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	Currency  Currency        `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
	Lines     []OrderLine     `json:"items"`
}

// LinesTotal sums the line totals and rounds the result to two decimal places.
func (o Order) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range o.Lines {
		sum = sum.Add(line.Total())
	}
	return sum.Round(2)
}
