package plans

import (
	"sort"

	"github.com/stripe/stripe-go/v75"
)

// Build groups prices under their products. Products without any displayable
// price are dropped; buckets are sorted by ascending unit amount.
func Build(products []*stripe.Product, prices []*stripe.Price) []Product {
	byProduct := make(map[string][]*stripe.Price)
	for _, p := range prices {
		if p == nil || p.Product == nil {
			continue
		}
		byProduct[p.Product.ID] = append(byProduct[p.Product.ID], p)
	}

	out := make([]Product, 0, len(products))
	for _, prod := range products {
		var b Buckets
		n := 0
		for _, p := range byProduct[prod.ID] {
			v := ViewOf(p)
			switch BucketOf(p) {
			case BucketFree:
				b.Free = append(b.Free, v)
			case BucketMonthly:
				b.Monthly = append(b.Monthly, v)
			case BucketYearly:
				b.Yearly = append(b.Yearly, v)
			case BucketOneTime:
				b.OneTime = append(b.OneTime, v)
			default:
				continue
			}
			n++
		}
		if n == 0 {
			continue
		}
		for _, bucket := range [][]Price{b.Free, b.Monthly, b.Yearly, b.OneTime} {
			sortByAmount(bucket)
		}
		b.fillEmpty()
		out = append(out, Product{ID: prod.ID, Name: prod.Name, Prices: b})
	}
	return out
}

func sortByAmount(ps []Price) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].UnitAmount != ps[j].UnitAmount {
			return ps[i].UnitAmount < ps[j].UnitAmount
		}
		return ps[i].ID < ps[j].ID
	})
}

// fillEmpty makes empty buckets encode as [] rather than null.
func (b *Buckets) fillEmpty() {
	for _, s := range []*[]Price{&b.Free, &b.Monthly, &b.Yearly, &b.OneTime} {
		if *s == nil {
			*s = []Price{}
		}
	}
}
