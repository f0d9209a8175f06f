package users

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	CustomerID     *string           `json:"customerId"`
	Access         string            `json:"access"` // full|trial|limited|locked
	LifetimeAccess []string          `json:"lifetimeAccess"`
	Subscriptions  []SubscriptionDTO `json:"subscriptions"`
}

type SubscriptionDTO struct {
	ID                string `json:"id"`
	Status            string `json:"status"` // active|trialing|past_due|canceled
	ProductID         string `json:"productId"`
	PriceID           string `json:"priceId"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
	CurrentPeriodEnd  int64  `json:"currentPeriodEnd"`
}
