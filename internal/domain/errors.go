package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// ErrorCategory groups failures for client-facing error shaping.
type ErrorCategory string

const (
	CategoryUser     ErrorCategory = "user"
	CategoryBusiness ErrorCategory = "business"
	CategoryInternal ErrorCategory = "internal"
)

const (
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInvalidQuantity         = "INVALID_QUANTITY"
	CodeProductNotFound         = "PRODUCT_NOT_FOUND"
	CodeProductUnavailable      = "PRODUCT_UNAVAILABLE"
	CodeMissingAttributes       = "MISSING_REQUIRED_ATTRIBUTES"
	CodeInvalidAttribute        = "INVALID_ATTRIBUTE"
	CodeInvalidProductPrice     = "INVALID_PRODUCT_PRICE"
	CodeInvalidOrderAmount      = "INVALID_ORDER_AMOUNT"
	CodePersistenceFailure      = "PERSISTENCE_FAILURE"
	CodeInvalidStatus           = "INVALID_STATUS"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeStatusConflict          = "STATUS_CONFLICT"
	CodeOrderNotFound           = "ORDER_NOT_FOUND"
	CodeNotFound                = "NOT_FOUND"
	CodeInternal                = "INTERNAL_ERROR"
)

// Error is a categorized domain failure carrying the transport status it maps to.
type Error struct {
	Category ErrorCategory
	Code     string
	Status   int
	Message  string

	// ProductID is set for failures tied to a single order line.
	ProductID string
	// Attributes lists the attribute set names a MISSING_REQUIRED_ATTRIBUTES error refers to.
	Attributes []string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the domain code of err, or CodeInternal if err is not a domain error.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

func NewInvalidInput(msg string) *Error {
	return &Error{Category: CategoryUser, Code: CodeInvalidInput, Status: http.StatusBadRequest, Message: msg}
}

func NewInvalidQuantity(productID string, quantity int) *Error {
	msg := fmt.Sprintf("Invalid quantity (%d) for product %s. Quantity must be greater than 0.", quantity, productID)
	if quantity > 0 {
		msg = fmt.Sprintf("Invalid quantity (%d) for product %s. Quantity must not exceed %d.", quantity, productID, MaxLineQuantity)
	}
	return &Error{
		Category:  CategoryUser,
		Code:      CodeInvalidQuantity,
		Status:    http.StatusBadRequest,
		Message:   msg,
		ProductID: productID,
	}
}

func NewProductNotFound(productID string) *Error {
	return &Error{
		Category:  CategoryUser,
		Code:      CodeProductNotFound,
		Status:    http.StatusNotFound,
		Message:   "Product not found: " + productID,
		ProductID: productID,
	}
}

func NewProductUnavailable(productID string) *Error {
	return &Error{
		Category:  CategoryUser,
		Code:      CodeProductUnavailable,
		Status:    http.StatusBadRequest,
		Message:   "Product is not available: " + productID,
		ProductID: productID,
	}
}

func NewMissingAttributes(productID string, names []string) *Error {
	return &Error{
		Category:   CategoryUser,
		Code:       CodeMissingAttributes,
		Status:     http.StatusBadRequest,
		Message:    fmt.Sprintf("Missing required attributes for product %s: %s", productID, strings.Join(names, ", ")),
		ProductID:  productID,
		Attributes: names,
	}
}

func NewInvalidAttribute(productID, msg string) *Error {
	return &Error{
		Category:  CategoryUser,
		Code:      CodeInvalidAttribute,
		Status:    http.StatusBadRequest,
		Message:   msg,
		ProductID: productID,
	}
}

func NewInvalidProductPrice(productID, currency string) *Error {
	return &Error{
		Category:  CategoryBusiness,
		Code:      CodeInvalidProductPrice,
		Status:    http.StatusBadRequest,
		Message:   fmt.Sprintf("Invalid product price for %s in %s", productID, currency),
		ProductID: productID,
	}
}

func NewInvalidOrderAmount(total string) *Error {
	return &Error{
		Category: CategoryBusiness,
		Code:     CodeInvalidOrderAmount,
		Status:   http.StatusInternalServerError,
		Message:  "Invalid order amount: " + total,
	}
}

func NewPersistenceFailure(err error) *Error {
	return &Error{
		Category: CategoryInternal,
		Code:     CodePersistenceFailure,
		Status:   http.StatusInternalServerError,
		Message:  "Order could not be saved",
		Err:      err,
	}
}

func NewInvalidStatus(status string) *Error {
	return &Error{
		Category: CategoryUser,
		Code:     CodeInvalidStatus,
		Status:   http.StatusBadRequest,
		Message:  "Invalid order status: " + status,
	}
}

func NewInvalidStatusTransition(from, to OrderStatus) *Error {
	return &Error{
		Category: CategoryUser,
		Code:     CodeInvalidStatusTransition,
		Status:   http.StatusBadRequest,
		Message:  fmt.Sprintf("Invalid status transition from %s to %s", from, to),
	}
}

func NewStatusConflict(orderID string) *Error {
	return &Error{
		Category: CategoryUser,
		Code:     CodeStatusConflict,
		Status:   http.StatusConflict,
		Message:  "Order status changed concurrently: " + orderID,
	}
}

func NewOrderNotFound(orderID string) *Error {
	return &Error{
		Category: CategoryUser,
		Code:     CodeOrderNotFound,
		Status:   http.StatusNotFound,
		Message:  "Order not found: " + orderID,
	}
}
