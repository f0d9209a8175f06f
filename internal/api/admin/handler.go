package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"billing-dashboard/database"
	"billing-dashboard/internal/api/respond"
	"billing-dashboard/internal/domain/billing"
	"billing-dashboard/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type UserStore interface {
	List(ctx context.Context) ([]users.User, error)
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type PurchaseStore interface {
	ListPurchases(ctx context.Context, customerID string, limit int) ([]billing.Purchase, error)
	Revenue(ctx context.Context, since time.Time) (map[string]int64, error)
}

type Handler struct {
	users     UserStore
	purchases PurchaseStore
	now       func() time.Time
	logger    *slog.Logger
}

func NewHandler(users UserStore, purchases PurchaseStore) *Handler {
	return &Handler{
		users:     users,
		purchases: purchases,
		now:       time.Now,
		logger:    slog.With("handler", "AdminHandler"),
	}
}

type AdminUser struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Role             string  `json:"role"`
	StripeCustomerID *string `json:"stripe_customer_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type AdminPurchase struct {
	ID              uint   `json:"id"`
	CustomerID      string `json:"customer_id"`
	ProductName     string `json:"product_name"`
	PriceID         string `json:"price_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type AdminStats struct {
	TotalUsers    int              `json:"total_users"`
	TotalRevenue  map[string]int64 `json:"total_revenue"`
	RecentRevenue map[string]int64 `json:"recent_revenue"`
}

func (h *Handler) AdminDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the admin dashboard",
	})
}

// GET /admin/users
func (h *Handler) ListAllUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to load users")
		return
	}

	out := make([]AdminUser, 0, len(list))
	for _, u := range list {
		out = append(out, adminUser(u))
	}
	respond.Data(c, out)
}

// GET /admin/purchases?limit=
func (h *Handler) ListAllPurchases(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			respond.Fail(c, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	list, err := h.purchases.ListPurchases(c.Request.Context(), c.Query("customerId"), limit)
	if err != nil {
		h.logger.Error("list purchases failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to load purchases")
		return
	}
	respond.Data(c, adminPurchases(list))
}

// GET /admin/stats
func (h *Handler) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.users.Count(ctx)
	if err != nil {
		h.logger.Error("count users failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	revenue, err := h.purchases.Revenue(ctx, time.Time{})
	if err != nil {
		h.logger.Error("revenue failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	recent, err := h.purchases.Revenue(ctx, h.now().AddDate(0, 0, -30))
	if err != nil {
		h.logger.Error("recent revenue failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	respond.Data(c, AdminStats{
		TotalUsers:    int(total),
		TotalRevenue:  revenue,
		RecentRevenue: recent,
	})
}

// GET /admin/user/:id
func (h *Handler) GetUserDetails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respond.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("find user failed", "user_id", id, "error", err)
		respond.Fail(c, http.StatusInternalServerError, "Failed to load user")
		return
	}

	purchases := []AdminPurchase{}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		list, err := h.purchases.ListPurchases(c.Request.Context(), *user.StripeCustomerID, 0)
		if err != nil {
			h.logger.Error("list purchases failed", "user_id", id, "error", err)
			respond.Fail(c, http.StatusInternalServerError, "Failed to fetch purchases")
			return
		}
		purchases = adminPurchases(list)
	}

	respond.Data(c, gin.H{
		"user":      adminUser(*user),
		"purchases": purchases,
	})
}

func adminUser(u users.User) AdminUser {
	return AdminUser{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		StripeCustomerID: u.StripeCustomerID,
		CreatedAt:        u.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func adminPurchases(list []billing.Purchase) []AdminPurchase {
	out := make([]AdminPurchase, 0, len(list))
	for _, p := range list {
		out = append(out, AdminPurchase{
			ID:              p.ID,
			CustomerID:      p.CustomerID,
			ProductName:     p.ProductName,
			PriceID:         p.PriceID,
			PaymentIntentID: p.PaymentIntentID,
			Amount:          p.Amount,
			Currency:        p.Currency,
			Status:          p.Status,
			CreatedAt:       p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return out
}
