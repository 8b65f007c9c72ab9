package cart

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// MergeOnLogin moves a guest cart into a user's cart in one transaction.
// A guest line whose variant the user already holds is combined into the
// user's line when stock allows and skipped otherwise; all other guest lines
// are reassigned to the user as they are.
func (s *Service) MergeOnLogin(ctx context.Context, sessionID, userID string) (domain.MergeResult, error) {
	guest := domain.SessionOwner(sessionID)
	user := domain.UserOwner(userID)
	if err := guest.Validate(); err != nil {
		return domain.MergeResult{}, err
	}
	if err := user.Validate(); err != nil {
		return domain.MergeResult{}, err
	}

	var res domain.MergeResult
	err := s.repo.Within(ctx, func(ctx context.Context, tx cartrepo.Tx) error {
		res = domain.MergeResult{}

		guestLines, err := tx.ListByOwner(ctx, guest)
		if err != nil {
			return domain.Upstream("list guest cart", err)
		}
		if len(guestLines) == 0 {
			return nil
		}
		// Variant locks are taken in a stable order across concurrent merges.
		sort.Slice(guestLines, func(i, j int) bool { return guestLines[i].VariantID < guestLines[j].VariantID })

		for _, listed := range guestLines {
			stock, err := tx.LockVariant(ctx, listed.VariantID)
			if err != nil {
				return domain.Upstream("lock variant", err)
			}
			// Both lines are re-read under the variant lock; a concurrent merge
			// may have moved or changed them since the listing.
			g, err := tx.FindByID(ctx, guest, listed.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return domain.Upstream("find guest line", err)
			}
			u, err := tx.FindByVariant(ctx, user, g.VariantID)
			if errors.Is(err, domain.ErrNotFound) {
				if err := tx.Reassign(ctx, g.ID, user.UserID); err != nil {
					return domain.Upstream("reassign cart line", err)
				}
				res.Reassigned = append(res.Reassigned, g.ID)
				continue
			}
			if err != nil {
				return domain.Upstream("find user line", err)
			}

			combined := g.Quantity + u.Quantity
			if err := checkAvailability(stock, combined, u.Quantity); err != nil {
				if !errors.Is(err, domain.ErrInsufficientStock) {
					return err
				}
				s.logger.Warn("cart: merge skipped line", "session_id", sessionID, "user_id", userID,
					"line_id", g.ID, "variant_id", g.VariantID, "error", err)
				res.Skipped = append(res.Skipped, g.ID)
				continue
			}
			if err := tx.Delete(ctx, g.ID); err != nil {
				return domain.Upstream("delete guest line", err)
			}
			if _, err := tx.SetQuantity(ctx, u.ID, combined); err != nil {
				return domain.Upstream("combine cart line", err)
			}
			res.Combined = append(res.Combined, g.ID)
		}
		return nil
	})
	if err != nil {
		return domain.MergeResult{}, err
	}

	s.countMerge(ctx, "combined", len(res.Combined))
	s.countMerge(ctx, "reassigned", len(res.Reassigned))
	s.countMerge(ctx, "skipped", len(res.Skipped))
	s.logger.Info("cart: merge", "session_id", sessionID, "user_id", userID,
		"combined", len(res.Combined), "reassigned", len(res.Reassigned), "skipped", len(res.Skipped))
	return res, nil
}

func (s *Service) countMerge(ctx context.Context, outcome string, n int) {
	if n > 0 {
		s.merged.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
