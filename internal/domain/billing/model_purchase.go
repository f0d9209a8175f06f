package billing

import "time"

// Purchase is the local record of a settled one-time payment.
type Purchase struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerID      string    `gorm:"column:customer_id;not null;index" json:"customerId"`
	PriceID         string    `gorm:"column:price_id;not null" json:"priceId"`
	ProductID       string    `gorm:"column:product_id" json:"productId"`
	ProductName     string    `gorm:"column:product_name" json:"productName"`
	PaymentIntentID string    `gorm:"column:payment_intent_id;not null;uniqueIndex:idx_purchases_payment_intent_id" json:"paymentIntentId"`
	Amount          int64     `json:"amount"`
	Currency        string    `gorm:"type:varchar(3)" json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
