package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v75"
)

// Comparator reports whether switching from current to next is an upgrade.
// Anything that is not an upgrade is handled as a deferred downgrade.
type Comparator func(current, next *stripe.Price) bool

// ByUnitAmount treats a strictly higher unit amount as an upgrade. Amounts
// are compared as-is; billing intervals and currencies are not normalised.
func ByUnitAmount(current, next *stripe.Price) bool {
	return next.UnitAmount > current.UnitAmount
}

// ByPriceID orders prices by their identifiers. It reproduces the legacy
// dashboard behaviour, where price ids happened to be minted in price order,
// and is kept only for deployments that depend on it.
func ByPriceID(current, next *stripe.Price) bool {
	return next.ID > current.ID
}

const (
	ComparatorUnitAmount = "unit_amount"
	ComparatorPriceID    = "price_id"
)

// ComparatorByName resolves the UPGRADE_COMPARATOR setting.
func ComparatorByName(name string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ComparatorUnitAmount:
		return ByUnitAmount, nil
	case ComparatorPriceID:
		return ByPriceID, nil
	}
	return nil, fmt.Errorf("unknown upgrade comparator %q", name)
}
