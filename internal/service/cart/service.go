package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type Service struct {
	repo   cartrepo.Repository
	logger *slog.Logger
	added  metric.Int64Counter
	reject metric.Int64Counter
	merged metric.Int64Counter
}

func New(repo cartrepo.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter("storefront/cart")
	added, _ := meter.Int64Counter("cart.lines.added", metric.WithDescription("Quantity added to carts"))
	reject, _ := meter.Int64Counter("cart.stock.rejected", metric.WithDescription("Cart mutations rejected for insufficient stock"))
	merged, _ := meter.Int64Counter("cart.merge.lines", metric.WithDescription("Guest lines handled by login merges"))
	return &Service{repo: repo, logger: logger, added: added, reject: reject, merged: merged}
}

type AddInput struct {
	VariantID string `json:"variantId"`
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// List returns the owner's unexpired lines with totals.
func (s *Service) List(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return domain.Cart{}, err
	}
	lines, err := s.repo.List(ctx, owner)
	if err != nil {
		return domain.Cart{}, domain.Upstream("list cart", err)
	}
	return domain.NewCart(lines), nil
}

// AddToCart adds quantity of a variant to the owner's cart, incrementing the
// existing line for that variant when there is one.
func (s *Service) AddToCart(ctx context.Context, owner domain.CartOwner, in AddInput) (*domain.CartLine, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	variantID := strings.TrimSpace(in.VariantID)
	if variantID == "" {
		return nil, domain.Invalid("variantId", "required")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "must be positive")
	}

	var out *domain.CartLine
	err := s.repo.Within(ctx, func(ctx context.Context, tx cartrepo.Tx) error {
		stock, err := tx.LockVariant(ctx, variantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrVariantNotFound
			}
			return domain.Upstream("lock variant", err)
		}
		if in.ProductID != "" && in.ProductID != stock.ProductID {
			return domain.ErrVariantNotFound
		}

		// The increment alone must fit in free stock; this also bounds the sum below.
		if err := checkAvailability(stock, in.Quantity, 0); err != nil {
			return err
		}

		existing, err := tx.FindByVariant(ctx, owner, variantID)
		switch {
		case err == nil:
			desired := existing.Quantity + in.Quantity
			if err := checkAvailability(stock, desired, existing.Quantity); err != nil {
				return err
			}
			out, err = tx.SetQuantity(ctx, existing.ID, desired)
			if err != nil {
				return domain.Upstream("update cart line", err)
			}
		case errors.Is(err, domain.ErrNotFound):
			out, err = tx.Insert(ctx, cartrepo.NewLine{
				Owner:        owner,
				ProductID:    stock.ProductID,
				VariantID:    stock.VariantID,
				Option1:      stock.Option1,
				Option2:      stock.Option2,
				ProductTitle: stock.ProductTitle,
				Quantity:     in.Quantity,
				Price:        stock.Price,
			})
			if err != nil {
				if errors.Is(err, domain.ErrAlreadyExists) {
					return err
				}
				return domain.Upstream("insert cart line", err)
			}
		default:
			return domain.Upstream("find cart line", err)
		}
		return nil
	})
	if err != nil {
		s.recordReject(ctx, err, "add")
		return nil, err
	}

	s.added.Add(ctx, int64(in.Quantity))
	s.logger.Info("cart: add", "owner", owner.String(), "variant_id", variantID, "quantity", in.Quantity, "line_id", out.ID)
	return out, nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line and reports removed=true.
func (s *Service) UpdateQuantity(ctx context.Context, owner domain.CartOwner, lineID string, quantity int) (*domain.CartLine, bool, error) {
	if err := owner.Validate(); err != nil {
		return nil, false, err
	}
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return nil, false, domain.ErrLineNotFound
	}

	var (
		out     *domain.CartLine
		removed bool
	)
	err := s.repo.Within(ctx, func(ctx context.Context, tx cartrepo.Tx) error {
		line, stock, err := lockLine(ctx, tx, owner, lineID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			if err := tx.Delete(ctx, line.ID); err != nil {
				return domain.Upstream("delete cart line", err)
			}
			removed = true
			return nil
		}

		if err := checkAvailability(stock, quantity, line.Quantity); err != nil {
			return err
		}
		out, err = tx.SetQuantity(ctx, line.ID, quantity)
		if err != nil {
			return domain.Upstream("update cart line", err)
		}
		return nil
	})
	if err != nil {
		s.recordReject(ctx, err, "update")
		return nil, false, err
	}

	s.logger.Info("cart: update", "owner", owner.String(), "line_id", lineID, "quantity", quantity, "removed", removed)
	return out, removed, nil
}

// Remove deletes a line owned by owner.
func (s *Service) Remove(ctx context.Context, owner domain.CartOwner, lineID string) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	err := s.repo.Within(ctx, func(ctx context.Context, tx cartrepo.Tx) error {
		line, _, err := lockLine(ctx, tx, owner, strings.TrimSpace(lineID))
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, line.ID); err != nil {
			return domain.Upstream("delete cart line", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("cart: remove", "owner", owner.String(), "line_id", lineID)
	return nil
}

// ClearLines deletes the given lines of owner, typically after an order has
// taken them over.
func (s *Service) ClearLines(ctx context.Context, owner domain.CartOwner, lineIDs []string) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	n, err := s.repo.DeleteLines(ctx, owner, lineIDs)
	if err != nil {
		return domain.Upstream("clear cart lines", err)
	}
	s.logger.Info("cart: clear", "owner", owner.String(), "requested", len(lineIDs), "deleted", n)
	return nil
}

// CleanExpired purges lines past their expiry and returns how many were removed.
func (s *Service) CleanExpired(ctx context.Context) (int, error) {
	n, err := s.repo.CleanExpired(ctx)
	if err != nil {
		return 0, domain.Upstream("clean expired cart items", err)
	}
	s.logger.Info("cart: clean expired", "removed", n)
	return n, nil
}

// lockLine locks the line's variant and then the line itself, the same order
// AddToCart and MergeOnLogin take them in.
func lockLine(ctx context.Context, tx cartrepo.Tx, owner domain.CartOwner, lineID string) (*domain.CartLine, cartrepo.VariantStock, error) {
	if lineID == "" {
		return nil, cartrepo.VariantStock{}, domain.ErrLineNotFound
	}
	variantID, err := tx.LineVariant(ctx, owner, lineID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, cartrepo.VariantStock{}, domain.ErrLineNotFound
		}
		return nil, cartrepo.VariantStock{}, domain.Upstream("find cart line", err)
	}
	stock, err := tx.LockVariant(ctx, variantID)
	if err != nil {
		return nil, cartrepo.VariantStock{}, fmt.Errorf("%w: %s: %v", domain.ErrVariantLookupFailed, variantID, err)
	}
	line, err := tx.FindByID(ctx, owner, lineID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, cartrepo.VariantStock{}, domain.ErrLineNotFound
		}
		return nil, cartrepo.VariantStock{}, domain.Upstream("find cart line", err)
	}
	return line, stock, nil
}

func (s *Service) recordReject(ctx context.Context, err error, op string) {
	if errors.Is(err, domain.ErrInsufficientStock) {
		s.reject.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}
