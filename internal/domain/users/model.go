package users

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a dashboard account. Identity comes from the external OIDC
// provider; billing state lives with the payment processor and is reached
// through StripeCustomerID.
type User struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `json:"name"`
	Email     string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	GoogleSub *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role      string  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id" json:"customerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
