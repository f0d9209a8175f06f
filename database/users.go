package database

import (
	"context"
	"errors"

	"billing-dashboard/internal/domain/users"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertGoogleUser finds the user by Google subject, then by email (linking
// the subject), and creates it otherwise. role is applied on every login so
// ADMIN_EMAILS changes take effect without a migration.
func (s *UserStore) UpsertGoogleUser(ctx context.Context, sub, email, name, role string) (*users.User, error) {
	db := s.db.WithContext(ctx)
	var user users.User

	err := db.Where("google_sub = ?", sub).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("email = ?", email).First(&user).Error
	}
	switch {
	case err == nil:
		updates := map[string]interface{}{"role": role}
		if user.GoogleSub == nil {
			updates["google_sub"] = sub
		}
		if user.Name == "" && name != "" {
			updates["name"] = name
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
		user.Role = role
		if user.GoogleSub == nil {
			user.GoogleSub = &sub
		}
		if user.Name == "" {
			user.Name = name
		}
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	user = users.User{
		Name:      name,
		Email:     email,
		GoogleSub: &sub,
		Role:      role,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*users.User, error) {
	var user users.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&users.User{}).Count(&n).Error
	return n, err
}

func (s *UserStore) SetCustomerID(ctx context.Context, userID uint, customerID string) error {
	return s.db.WithContext(ctx).
		Model(&users.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID).Error
}

// UnlinkCustomer clears the customer reference after the processor deleted
// the customer. The next login provisions a new one.
func (s *UserStore) UnlinkCustomer(ctx context.Context, customerID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&users.User{}).
		Where("stripe_customer_id = ?", customerID).
		Update("stripe_customer_id", nil)
	return res.RowsAffected, res.Error
}
