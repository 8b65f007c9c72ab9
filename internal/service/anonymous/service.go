package anonymous

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// ErrInvalidSession is returned for session ids this service could not have issued.
var ErrInvalidSession = fmt.Errorf("invalid session id: %w", domain.ErrUnauthorized)

// Service issues and checks anonymous session ids. Sessions are only cart
// owner keys and carry no server-side state of their own.
type Service struct {
	newID func() (uuid.UUID, error)
}

func New() *Service {
	return &Service{newID: uuid.NewRandom}
}

// Issue returns a fresh session id.
func (s *Service) Issue(ctx context.Context) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return id.String(), nil
}

// Validate normalizes a presented session id.
func (s *Service) Validate(ctx context.Context, sessionID string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil || id == uuid.Nil {
		return "", ErrInvalidSession
	}
	return id.String(), nil
}
