package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for any email/password mismatch.
var ErrInvalidCredentials = errors.New("Invalid email or password")

// ValidationError reports missing or malformed account input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

const minPasswordLen = 6

// Session is a freshly issued token together with the account it belongs to.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// RegisterRequest holds sign-up input.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Service implements account operations.
type Service struct {
	users  UserRepository
	tokens *TokenManager
	cost   int
	now    func() time.Time
}

// NewService creates an account Service.
func NewService(users UserRepository, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

// Register creates a user account with the user role and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, &ValidationError{Message: "Name, email and password are required"}
	}
	if len(req.Password) < minPasswordLen {
		return nil, &ValidationError{Message: "Password must be at least 6 characters"}
	}

	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, &ValidationError{Message: ErrEmailTaken.Error()}
		}
		return nil, errors.Wrap(err, "create user")
	}

	return s.session(u)
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, id Identity) (*User, error) {
	return s.users.GetByID(ctx, id.UserID)
}

// UpdateProfile changes the caller's name and phone.
func (s *Service) UpdateProfile(ctx context.Context, id Identity, name, phone string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: "Name is required"}
	}
	if err := s.users.UpdateProfile(ctx, id.UserID, name, strings.TrimSpace(phone)); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id.UserID)
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, id Identity, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return &ValidationError{Message: "New password must be at least 6 characters"}
	}
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := HashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id.UserID, hash)
}

// ErrWrongPassword is returned by ChangePassword when the old password does not match.
var ErrWrongPassword = errors.New("Old password is incorrect")

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

func (s *Service) session(u *User) (*Session, error) {
	tok, err := s.tokens.Issue(Identity{UserID: u.ID, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, User: u}, nil
}
