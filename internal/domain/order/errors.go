package order

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("Order not found")

// ErrDuplicateID is returned by Tx.InsertOrder when the order id is taken.
var ErrDuplicateID = errors.New("order id already exists")

// ValidationError reports checkout or status input the caller must fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrCartEmpty is returned when checking out an empty cart.
var ErrCartEmpty = &ValidationError{Message: "Cart is empty"}

// StockExceededError is returned by the stock gate. No writes happen.
type StockExceededError struct {
	ProductID string
	Name      string
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("Only %d units of %s available", e.Available, e.Name)
}

func invalidStatusError() error {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return &ValidationError{Message: "Status must be one of: " + strings.Join(names, ", ")}
}
