package database

import (
	"context"
	"time"

	"billing-dashboard/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseStore struct {
	db *gorm.DB
}

func NewPurchaseStore(db *gorm.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

// RecordPurchase inserts the purchase; a second record for the same payment
// intent is ignored.
func (s *PurchaseStore) RecordPurchase(ctx context.Context, p *billing.Purchase) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "payment_intent_id"}}, DoNothing: true}).
		Create(p).Error
}

func (s *PurchaseStore) ListPurchases(ctx context.Context, customerID string, limit int) ([]billing.Purchase, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []billing.Purchase
	err := q.Find(&out).Error
	return out, err
}

// UpdateStatusByPaymentIntent syncs the status reported by processor events.
func (s *PurchaseStore) UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID, status string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&billing.Purchase{}).
		Where("payment_intent_id = ?", paymentIntentID).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// Revenue sums succeeded purchases per currency, optionally since a time.
func (s *PurchaseStore) Revenue(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		Currency string
		Total    int64
	}
	var rows []row
	q := s.db.WithContext(ctx).
		Model(&billing.Purchase{}).
		Select("currency, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", "succeeded").
		Group("currency")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Currency] = r.Total
	}
	return out, nil
}

var _ billing.Ledger = (*PurchaseStore)(nil)
