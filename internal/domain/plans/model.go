package plans

// Product is a catalog entry with its active prices grouped for display.
type Product struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Prices Buckets `json:"prices"`
}

type Buckets struct {
	Free    []Price `json:"free"`
	Monthly []Price `json:"monthly"`
	Yearly  []Price `json:"yearly"`
	OneTime []Price `json:"oneTime"`
}

// Price is the client-facing view of a processor price. Amounts are in minor
// currency units.
type Price struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	UnitAmount int64      `json:"unitAmount"`
	Currency   string     `json:"currency"`
	Trial      *Trial     `json:"trial,omitempty"`
	Recurring  *Recurring `json:"recurring,omitempty"`
}

type Trial struct {
	Days int `json:"days"`
}

type Recurring struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"intervalCount"`
}
