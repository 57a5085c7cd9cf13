package endpoint

import (
	"fmt"
	"net/http"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/middleware"
	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds everything the router wires into handlers and middleware.
// Gatherer is optional; without it /metrics is not served.
type RouterConfig struct {
	AppName  string
	Auth     *auth.Service
	Tokens   *auth.TokenIssuer
	Security *util.SecurityLogger
	Gatherer prometheus.Gatherer
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	h := NewHandler(cfg.Auth, cfg.Tokens)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORSMiddleware(),
		middleware.SecurityLoggerMiddleware(cfg.Security),
		middleware.EndpointCallLogger(),
	)

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Login)
	authGroup.POST("/register", h.Register)

	requireAuth := middleware.RequireAuth(cfg.Tokens)
	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	authGroup.GET("/me", requireAuth, h.Me)
	authGroup.PUT("/password", requireAuth, h.ChangePassword)
	authGroup.GET("/users/:id", requireAuth, adminOnly, h.GetUser)
	authGroup.PUT("/users/:id", requireAuth, adminOnly, h.UpdateUser)

	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.GET("/login-history", h.ListLoginHistory)
	admin.GET("/roles", h.ListRoles)

	tasks := api.Group("/tasks", requireAuth, middleware.RequireRoles(model.RoleUser, model.RoleAdmin, model.RoleSalesperson))
	tasks.GET("/ping", h.TaskPing)

	return router
}
