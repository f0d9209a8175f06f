package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"billing-dashboard/config"
	"billing-dashboard/database"
	adminapi "billing-dashboard/internal/api/admin"
	authapi "billing-dashboard/internal/api/auth"
	billingapi "billing-dashboard/internal/api/billing"
	"billing-dashboard/internal/api/plans"
	"billing-dashboard/internal/api/profile"
	stripewebhooks "billing-dashboard/internal/api/stripewebhook"
	"billing-dashboard/internal/api/users"
	routes "billing-dashboard/internal/app/http"
	"billing-dashboard/internal/domain/billing"
	"billing-dashboard/internal/domain/identity"
	"billing-dashboard/internal/infra/payments"
	"billing-dashboard/internal/infra/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnv()

	level := slog.LevelDebug
	if config.IsProduction() {
		level = slog.LevelInfo
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	database.InitDB(config.DB_URL, !config.IsProduction())
	userStore := database.NewUserStore(database.DB)
	purchaseStore := database.NewPurchaseStore(database.DB)

	gateway := payments.NewClient(config.STRIPE_SECRET_KEY)

	comparator, err := billing.ComparatorByName(config.UPGRADE_COMPARATOR)
	if err != nil {
		log.Fatal(err)
	}

	// Redis backs the catalog cache, the customer lock and webhook dedupe.
	// Without it a single instance falls back to an in-process lock.
	var (
		cache  billing.Cache
		marker stripewebhooks.EventMarker
		locker storage.Locker = storage.NewLocalLocker()
	)
	if config.REDIS_ADDR != "" {
		rc, err := storage.NewRedisClient(config.REDIS_ADDR, config.REDIS_PASSWORD, config.REDIS_DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		defer rc.Close()
		cache, marker, locker = rc, rc, storage.NewRedisLocker(rc)
	} else {
		slog.Warn("REDIS_ADDR not set; using in-process customer lock and no catalog cache")
	}

	svc := billing.NewService(gateway, billing.Options{
		Ledger:     purchaseStore,
		Cache:      cache,
		Comparator: comparator,
		CatalogTTL: config.CATALOG_TTL,
	})

	resolver := identity.NewResolver(gateway, locker)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		JWTSecret: []byte(config.JWT_SECRET),
		Auth: authapi.NewHandler(authapi.Config{
			ClientID:         config.GOOGLE_CLIENT_ID,
			ClientSecret:     config.GOOGLE_CLIENT_SECRET,
			RedirectURL:      config.GOOGLE_REDIRECT_URL,
			FrontendRedirect: config.GOOGLE_FRONTEND_REDIRECT,
			JWTSecret:        []byte(config.JWT_SECRET),
			SessionTTL:       config.SESSION_TTL,
			AdminEmails:      config.ADMIN_EMAILS,
			SecureCookies:    config.IsProduction(),
		}, userStore, resolver),
		Billing: billingapi.NewHandler(svc),
		Plans:   plans.NewHandler(svc),
		Profile: profile.NewHandler(svc),
		Users:   users.NewHandler(userStore, svc),
		Admin:   adminapi.NewHandler(userStore, purchaseStore),
		Webhook: stripewebhooks.NewHandler(config.STRIPE_WEBHOOK_SECRET, marker, userStore, purchaseStore, svc),
	})

	slog.Info("listening", "port", config.PORT)
	if err := r.Run(":" + config.PORT); err != nil {
		log.Fatal(err)
	}
}
