package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports an invalid admin product edit.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Draft holds the editable product fields. Nil pointers leave the current
// value in place on update.
type Draft struct {
	Name        *string
	Description *string
	CategoryID  *string
	Emoji       *string
	Brand       *string
	Weight      *string
	Price       *decimal.Decimal
	MRP         *decimal.Decimal
	Discount    *int
	Stock       *int
	Rating      *decimal.Decimal
	Active      *bool
}

// Apply merges d onto p.
func (d Draft) Apply(p *Product) {
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.Description != nil {
		p.Description = *d.Description
	}
	if d.CategoryID != nil {
		p.CategoryID = *d.CategoryID
	}
	if d.Emoji != nil {
		p.Emoji = *d.Emoji
	}
	if d.Brand != nil {
		p.Brand = *d.Brand
	}
	if d.Weight != nil {
		p.Weight = *d.Weight
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	if d.MRP != nil {
		p.MRP = *d.MRP
	}
	if d.Discount != nil {
		p.Discount = *d.Discount
	}
	if d.Stock != nil {
		p.Stock = *d.Stock
	}
	if d.Rating != nil {
		p.Rating = *d.Rating
	}
	if d.Active != nil {
		p.Active = *d.Active
	}
}

// RequireCreateFields checks the fields a new product must carry.
func (d Draft) RequireCreateFields() error {
	missing := func(s *string) bool { return s == nil || *s == "" }
	switch {
	case missing(d.Name):
		return &ValidationError{Message: "name is required"}
	case missing(d.CategoryID):
		return &ValidationError{Message: "category_id is required"}
	case d.Price == nil || d.Price.IsZero():
		return &ValidationError{Message: "price is required"}
	case d.MRP == nil || d.MRP.IsZero():
		return &ValidationError{Message: "mrp is required"}
	case missing(d.Emoji):
		return &ValidationError{Message: "emoji is required"}
	}
	return nil
}

// Validate checks the product invariants.
func Validate(p *Product) error {
	if p.Stock < 0 {
		return &ValidationError{Message: "stock must be >= 0"}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Message: "price must be >= 0"}
	}
	if p.Price.GreaterThan(p.MRP) {
		return &ValidationError{Message: fmt.Sprintf("price %s must not exceed mrp %s", p.Price, p.MRP)}
	}
	if p.Discount < 0 || p.Discount > 100 {
		return &ValidationError{Message: "discount must be between 0 and 100"}
	}
	return nil
}

// AdminRepository manages the full catalog, including inactive products.
type AdminRepository interface {
	ListAll(ctx context.Context) ([]Product, error)
	Find(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Deactivate(ctx context.Context, id string) error
}
