package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	custrepo "storefront/internal/repository/customer"
	tokenrepo "storefront/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
)

// Service handles customer signup/login flows.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int
}

func New(repo custrepo.Repository, tokens tokenrepo.Repository) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
	}
}

type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, domain.Invalid("email", "required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Invalid("email", "malformed")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
	})
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	c, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	access, err := s.tokens.Issue(ctx, c.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return c, access, nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	customerID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return domain.Invalid("password", fmt.Sprintf("must be at least %d characters", min))
	}
	hasUpper, hasLower, hasDigit := false, false, false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.Invalid("password", "must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
