package billing

import (
	"strings"

	"github.com/stripe/stripe-go/v75"
)

// LifetimeAccessKey is the customer metadata key listing products bought
// outright, comma separated by product name.
const LifetimeAccessKey = "life_time_access"

// LifetimeProducts returns the product names the customer owns outright.
func LifetimeProducts(c *stripe.Customer) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, name := range strings.Split(c.Metadata[LifetimeAccessKey], ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func hasLifetime(c *stripe.Customer, product string) bool {
	for _, name := range LifetimeProducts(c) {
		if name == product {
			return true
		}
	}
	return false
}

// withLifetime returns the metadata value with product appended.
func withLifetime(c *stripe.Customer, product string) string {
	names := LifetimeProducts(c)
	if hasLifetime(c, product) {
		return strings.Join(names, ",")
	}
	return strings.Join(append(names, product), ",")
}

// productOf returns the id and display name of a price's product. The name
// is only known when the product was expanded.
func productOf(p *stripe.Price) (id, name string) {
	if p == nil || p.Product == nil {
		return "", ""
	}
	name = p.Product.Name
	if name == "" {
		name = p.Product.ID
	}
	return p.Product.ID, name
}

func subscribesTo(sub *stripe.Subscription, productID string) bool {
	if sub.Items == nil {
		return false
	}
	for _, it := range sub.Items.Data {
		if it.Price != nil && it.Price.Product != nil && it.Price.Product.ID == productID {
			return true
		}
	}
	return false
}
