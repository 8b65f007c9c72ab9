package cart

import (
	"fmt"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// checkAvailability accepts desired iff it fits in the variant's free stock
// plus held, the quantity the caller's own line already reserves and is
// about to replace.
func checkAvailability(stock cartrepo.VariantStock, desired, held int) error {
	available := stock.Inventory - stock.Reserved + held
	if desired > available {
		return fmt.Errorf("%w: variant %s has %d available, %d requested", domain.ErrInsufficientStock, stock.VariantID, available, desired)
	}
	return nil
}
