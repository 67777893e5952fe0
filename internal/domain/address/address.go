// Package address manages saved delivery addresses. A user's first address
// becomes the default; afterwards exactly one address is default until the
// user picks another.
package address

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an address does not belong to the user.
var ErrNotFound = errors.New("Address not found")

// ValidationError reports a missing address field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Address is a saved delivery address.
type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Label     string    `json:"label"`
	Line1     string    `json:"line1"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Default   bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is user input for a new address.
type Draft struct {
	Label   string
	Line1   string
	City    string
	State   string
	Pincode string
}

func (d Draft) validate() error {
	for _, f := range []struct{ name, value string }{
		{"line1", d.Line1},
		{"city", d.City},
		{"state", d.State},
		{"pincode", d.Pincode},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Message: f.name + " is required"}
		}
	}
	return nil
}

// Repository persists addresses.
type Repository interface {
	// List returns the user's addresses, default first.
	List(ctx context.Context, userID string) ([]Address, error)
	// Create stores a, marking it default when the user has no other address,
	// and reports the stored default flag back on a.
	Create(ctx context.Context, a *Address) error
	Delete(ctx context.Context, userID, id string) error
	// SetDefault makes id the only default address of the user.
	SetDefault(ctx context.Context, userID, id string) error
}

// Service implements the address book.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an address Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	out, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	if out == nil {
		out = []Address{}
	}
	return out, nil
}

// Add stores a new address.
func (s *Service) Add(ctx context.Context, userID string, d Draft) (*Address, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(d.Label)
	if label == "" {
		label = "Home"
	}
	a := &Address{
		ID:        uuid.NewString(),
		UserID:    userID,
		Label:     label,
		Line1:     strings.TrimSpace(d.Line1),
		City:      strings.TrimSpace(d.City),
		State:     strings.TrimSpace(d.State),
		Pincode:   strings.TrimSpace(d.Pincode),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

// Delete removes one of the user's addresses.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// SetDefault makes id the user's default address.
func (s *Service) SetDefault(ctx context.Context, userID, id string) error {
	return s.repo.SetDefault(ctx, userID, id)
}
