package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/config"
	"github.com/xyz-asif/oipet/internal/database"
	"github.com/xyz-asif/oipet/internal/features/admin"
	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/features/health"
	"github.com/xyz-asif/oipet/internal/features/notifications"
	"github.com/xyz-asif/oipet/internal/features/pets"
	"github.com/xyz-asif/oipet/internal/features/users"
	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/cloudinary"
	"github.com/xyz-asif/oipet/internal/pkg/jwt"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/password"
	"github.com/xyz-asif/oipet/internal/pkg/push"
	"github.com/xyz-asif/oipet/internal/pkg/ratelimit"
	"github.com/xyz-asif/oipet/internal/pkg/response"
)

// Deps are the process wide resources the API is built on. Mongo is nil
// when STORE_DRIVER=memory; Redis, Uploader and Push are optional.
type Deps struct {
	Config   *config.Config
	Mongo    *database.MongoDB
	Redis    *redis.Client
	Uploader cloudinary.Uploader
	Push     push.Sender
	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry
	Now      func() time.Time
}

// App is the wired API plus the services the background jobs need.
type App struct {
	Router        *gin.Engine
	Notifications *notifications.Service
}

type stores struct {
	users         auth.UserStore
	pets          pets.Store
	records       health.Store
	notifications notifications.Store
	revocations   auth.RevocationStore
}

func buildStores(ctx context.Context, d Deps) (*stores, error) {
	s := &stores{}
	if d.Redis != nil {
		s.revocations = auth.NewRedisRevocationStore(d.Redis, "oipet:revoked:")
	} else {
		s.revocations = auth.NewMemoryRevocationStore(d.Now)
	}

	if d.Mongo == nil {
		s.users = auth.NewMemoryStore()
		s.pets = pets.NewMemoryStore()
		s.records = health.NewMemoryStore()
		s.notifications = notifications.NewMemoryStore()
		return s, nil
	}

	db := d.Mongo.Database
	var err error
	if s.users, err = auth.NewRepository(ctx, db); err != nil {
		return nil, fmt.Errorf("users store: %w", err)
	}
	if s.pets, err = pets.NewRepository(ctx, db); err != nil {
		return nil, fmt.Errorf("pets store: %w", err)
	}
	if s.records, err = health.NewRepository(ctx, db); err != nil {
		return nil, fmt.Errorf("health store: %w", err)
	}
	if s.notifications, err = notifications.NewRepository(ctx, db); err != nil {
		return nil, fmt.Errorf("notifications store: %w", err)
	}
	return s, nil
}

// SetupRoutes builds every store, service and handler and mounts them
// under /api next to the monitoring endpoints. Background work started here
// stops when ctx is done.
func SetupRoutes(ctx context.Context, d Deps) (*App, error) {
	cfg := d.Config
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	response.ExposeInternalErrors(cfg.IsDevelopment())

	st, err := buildStores(ctx, d)
	if err != nil {
		return nil, err
	}

	jwtCfg := jwt.DefaultConfig(cfg.JWTSecret, cfg.JWTRefreshSecret)
	jwtCfg.AccessExpiry = cfg.JWTExpiresIn
	jwtCfg.RefreshExpiry = cfg.JWTRefreshIn
	tokens, err := jwt.NewManager(jwtCfg, d.Now)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewService(auth.Options{
		Users:        st.users,
		Tokens:       tokens,
		Hasher:       password.NewHasher(cfg.BcryptCost),
		Revocations:  st.revocations,
		IsAdminEmail: cfg.IsAdminEmail,
		Now:          d.Now,
	})
	petSvc := pets.NewService(st.pets, d.Uploader, d.Now)
	healthSvc := health.NewService(st.records, petSvc, d.Now)
	petSvc.SetRecordPurger(st.records)
	notificationSvc := notifications.NewService(notifications.Options{
		Store: st.notifications,
		Users: st.users,
		Push:  d.Push,
		Now:   d.Now,
	})
	userSvc := users.NewService(st.users, authSvc, d.Uploader)
	adminSvc := admin.NewService(admin.Options{
		Users:         st.users,
		Pets:          petSvc,
		Records:       healthSvc,
		Notifications: notificationSvc,
		Now:           d.Now,
	})

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: d.Registry})
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		metrics.Handler(),
		middleware.CORS(cfg.AllowedOrigins()),
	)

	router.GET("/health", healthCheck(d.Mongo, d.Now))
	router.GET("/ready", func(c *gin.Context) {
		response.Success(c, "ready", gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	if !cfg.IsProduction() {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(
			swaggerFiles.Handler,
			ginSwagger.URL("/swagger/doc.json"),
			ginSwagger.DefaultModelsExpandDepth(-1),
			ginSwagger.DocExpansion("none"),
			ginSwagger.PersistAuthorization(true),
		))
	}

	var limiter ratelimit.Limiter
	if d.Redis != nil {
		limiter = ratelimit.NewRedis(d.Redis, "oipet:ratelimit:", cfg.RateLimitAuth, cfg.RateLimitWindow)
	} else {
		mem := ratelimit.New(cfg.RateLimitAuth, cfg.RateLimitWindow)
		mem.StartCleanup(ctx, cfg.RateLimitWindow)
		limiter = mem
	}

	api := router.Group("/api")
	authRequired := middleware.Authenticate(authSvc)

	auth.RegisterRoutes(api, auth.NewHandler(authSvc, cfg.IsDevelopment()), authRequired, ratelimit.Middleware(limiter, ratelimit.ByIP))
	users.RegisterRoutes(api, users.NewHandler(userSvc), authRequired)
	pets.RegisterRoutes(api, pets.NewHandler(petSvc), authRequired)
	health.RegisterRoutes(api, health.NewHandler(healthSvc), authRequired)
	notifications.RegisterRoutes(api, notifications.NewHandler(notificationSvc), authRequired)
	admin.RegisterRoutes(api, admin.NewHandler(adminSvc), authRequired)

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "route not found", "NOT_FOUND")
	})

	return &App{Router: router, Notifications: notificationSvc}, nil
}

// healthCheck answers 503 when the database cannot be reached. The memory
// driver is always healthy.
func healthCheck(db *database.MongoDB, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := "memory"
		if db != nil {
			store = "mongo"
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				logger.FromContext(c.Request.Context()).Error("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{
					Error: "database unavailable",
					Code:  "SERVICE_UNAVAILABLE",
				})
				return
			}
		}
		response.Success(c, "ok", gin.H{
			"status": "ok",
			"store":  store,
			"time":   now().UTC(),
		})
	}
}
