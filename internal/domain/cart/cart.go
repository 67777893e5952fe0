package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound is returned when a cart line does not belong to the user.
var ErrLineNotFound = errors.New("Cart item not found")

// ValidationError reports malformed cart input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StockExceededError is returned when a line would exceed available stock.
type StockExceededError struct {
	ProductID string
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("Only %d in stock", e.Available)
}

// Line is a cart line joined with the live product fields shown to shoppers.
type Line struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	AddedAt   time.Time       `json:"added_at"`
	Name      string          `json:"name"`
	Emoji     string          `json:"emoji"`
	Weight    string          `json:"weight"`
	Brand     string          `json:"brand"`
	Price     decimal.Decimal `json:"price"`
	MRP       decimal.Decimal `json:"mrp"`
	Discount  int             `json:"discount"`
	Stock     int             `json:"stock"`
}

// AddParams describes an add-or-increment of a cart line.
type AddParams struct {
	LineID    string
	UserID    string
	ProductID string
	Qty       int
	// Limit caps the resulting quantity; the write is skipped above it.
	Limit   int
	AddedAt time.Time
}

// Repository persists cart lines.
type Repository interface {
	// Lines returns the user's cart, most recently added first.
	Lines(ctx context.Context, userID string) ([]Line, error)
	// Line returns a single line of the user's cart or ErrLineNotFound.
	Line(ctx context.Context, userID, lineID string) (*Line, error)
	// Add inserts a line or increments an existing one in a single statement.
	// ok is false when the resulting quantity would exceed p.Limit.
	Add(ctx context.Context, p AddParams) (qty int, ok bool, err error)
	SetQty(ctx context.Context, userID, lineID string, qty int) error
	Remove(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}
