package http

import (
	"log/slog"
	"strings"

	"github.com/geocoder89/medid/internal/config"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/http/handlers"
	"github.com/geocoder89/medid/internal/http/middlewares"
	"github.com/geocoder89/medid/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AccountService is everything the HTTP layer asks of the identity service.
type AccountService interface {
	handlers.SessionService
	handlers.AccountManager
}

type Deps struct {
	Config   config.Config
	Accounts AccountService
	Gate     middlewares.Authenticator

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Checker
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		handlers.RespondInternal(c)
	}))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(observability.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(d.Config.IsProduction()))
	r.Use(middlewares.CORSMiddleware(strings.Split(d.Config.FrontendURL, ",")))

	maxBody := d.Config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	r.Use(middlewares.MaxBodyBytes(maxBody))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondNotFound(c, "Route not found")
	})

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)

	authMW := middlewares.NewAuthMiddleware(d.Gate)

	// auth
	authHandler := handlers.NewAuthHandler(d.Accounts)
	authGroup := api.Group("/auth")
	if d.Config.AuthRateLimit > 0 {
		rl := middlewares.NewRateLimiter(d.Config.AuthRateLimit, d.Config.AuthRateWindow)
		authGroup.Use(rl.RateLimiterMiddleware(middlewares.KeyByIP))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/profile", authMW.RequireAuth(), authHandler.Profile)
	authGroup.POST("/logout", authMW.RequireAuth(), authHandler.Logout)

	// administration
	accounts := handlers.NewAccountsHandler(d.Accounts)
	users := api.Group("/users", authMW.RequireAuth(), authMW.RequireRole(account.RoleAdmin))
	users.GET("", accounts.List)
	users.GET("/stats", accounts.Stats)
	users.GET("/:id", accounts.Get)
	users.POST("", accounts.Create)
	users.PUT("/:id", accounts.Update)
	users.DELETE("/:id", accounts.Delete)
	users.PATCH("/:id/reactivate", accounts.Reactivate)

	return r
}
