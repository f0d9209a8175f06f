package routes

import (
	adminapi "billing-dashboard/internal/api/admin"
	authapi "billing-dashboard/internal/api/auth"
	billingapi "billing-dashboard/internal/api/billing"
	"billing-dashboard/internal/api/plans"
	"billing-dashboard/internal/api/profile"
	stripewebhooks "billing-dashboard/internal/api/stripewebhook"
	"billing-dashboard/internal/api/users"
	"billing-dashboard/internal/app/http/middleware"
	domainusers "billing-dashboard/internal/domain/users"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	JWTSecret []byte

	Auth    *authapi.Handler
	Billing *billingapi.Handler
	Plans   *plans.Handler
	Profile *profile.Handler
	Users   *users.Handler
	Admin   *adminapi.Handler
	Webhook *stripewebhooks.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.POST("/webhook", h.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/auth/google", h.Auth.GoogleStart)
	r.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(h.JWTSecret))
	auth.GET("/me", h.Users.GetCurrentUser)
	auth.GET("/subscriptions/plans", h.Plans.ListPlans)

	// Bound to a billing customer
	customer := auth.Group("/")
	customer.Use(middleware.RequireCustomer(), middleware.SanitizeAndCleanInputMiddleware())

	customer.GET("/billingAddress", h.Profile.GetBillingAddress)
	customer.POST("/billingAddress", h.Profile.UpdateBillingAddress)

	customer.GET("/paymentDetails", h.Profile.ListCards)
	customer.DELETE("/paymentDetails", h.Profile.DeleteCard)
	customer.GET("/paymentDetails/defaultPaymentMethod", h.Profile.GetDefaultCard)
	customer.PUT("/paymentDetails/defaultPaymentMethod", h.Profile.SetDefaultCard)
	customer.GET("/paymentDetails/setup", h.Profile.SetupCard)

	customer.GET("/subscriptions", h.Billing.ListSubscriptions)
	customer.POST("/subscriptions", h.Billing.Subscribe)
	customer.PUT("/subscriptions", h.Billing.ChangePlan)
	customer.PUT("/subscriptions/cancel", h.Billing.Cancel)
	customer.PUT("/subscriptions/resume", h.Billing.Resume)

	customer.POST("/purchase", h.Billing.Purchase)
	customer.GET("/invoices", h.Billing.ListInvoices)
	customer.POST("/invoices", h.Billing.PayInvoice)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.JWTSecret), middleware.RequireRole(domainusers.RoleAdmin))
	admin.GET("/dashboard", h.Admin.AdminDashboard)
	admin.GET("/users", h.Admin.ListAllUsers)
	admin.GET("/user/:id", h.Admin.GetUserDetails)
	admin.GET("/purchases", h.Admin.ListAllPurchases)
	admin.GET("/stats", h.Admin.GetAdminStats)
	admin.POST("/sync-plans", h.Plans.SyncPlans)
}
