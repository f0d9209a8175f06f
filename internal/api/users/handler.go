package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"billing-dashboard/database"
	"billing-dashboard/internal/api/respond"
	"billing-dashboard/internal/app/http/middleware"
	"billing-dashboard/internal/domain/access"
	"billing-dashboard/internal/domain/billing"
	"billing-dashboard/internal/domain/users"
	"billing-dashboard/internal/infra/payments"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type Handler struct {
	users  UserFinder
	svc    *billing.Service
	logger *slog.Logger
}

func NewHandler(users UserFinder, svc *billing.Service) *Handler {
	return &Handler{users: users, svc: svc, logger: slog.With("handler", "UsersHandler")}
}

// GET /me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.users.FindByID(ctx, c.GetUint(middleware.KeyUserID))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respond.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		respond.Error(c, h.logger, err)
		return
	}

	resp := MeResponse{
		User: UserDTO{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
		Billing: BillingDTO{
			CustomerID:     stringPtrIfNotEmpty(middleware.CustomerID(c)),
			Access:         string(access.AccessLocked),
			LifetimeAccess: []string{},
			Subscriptions:  []SubscriptionDTO{},
		},
	}

	if customerID := middleware.CustomerID(c); customerID != "" {
		cust, err := h.svc.Customer(ctx, customerID)
		if err != nil {
			respond.Error(c, h.logger, err)
			return
		}
		if names := billing.LifetimeProducts(cust); len(names) > 0 {
			resp.Billing.LifetimeAccess = names
		}

		subs, err := h.svc.ListSubscriptions(ctx, customerID)
		if err != nil {
			respond.Error(c, h.logger, err)
			return
		}
		for _, s := range subs {
			resp.Billing.Subscriptions = append(resp.Billing.Subscriptions, SubscriptionDTO{
				ID:                s.ID,
				Status:            payments.NormalizeStatus(stripe.SubscriptionStatus(s.Status)),
				ProductID:         s.ProductID,
				PriceID:           s.Plan.ID,
				CancelAtPeriodEnd: s.CancelAtPeriodEnd,
				CurrentPeriodEnd:  s.CurrentPeriodEnd,
			})
		}
		resp.Billing.Access = string(access.ComputeEffectiveAccessState(time.Now(), subs, resp.Billing.LifetimeAccess))
	}

	respond.Data(c, resp)
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
