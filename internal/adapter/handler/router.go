package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	httpmw "github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handlers groups the controllers mounted by the router
type Handlers struct {
	Auth    *Auth
	Meeting *Meeting
	Task    *Task
	Team    *Team
	Status  *Status
}

// Router holds all handlers
type Router struct {
	cfg      *config.Config
	handlers Handlers
	authMW   echo.MiddlewareFunc
	gatherer prometheus.Gatherer
	checks   map[string]HealthCheck
}

// NewRouter creates a new router with all handlers. gatherer may be nil to skip /metrics.
func NewRouter(cfg *config.Config, handlers Handlers, authMW echo.MiddlewareFunc, gatherer prometheus.Gatherer, checks map[string]HealthCheck) *Router {
	return &Router{
		cfg:      cfg,
		handlers: handlers,
		authMW:   authMW,
		gatherer: gatherer,
		checks:   checks,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	if rt.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{})))
	}
	if rt.cfg == nil || rt.cfg.Server.EnableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	v1 := e.Group("/v1")

	rt.setupAuthRoutes(v1)
	rt.setupMeetingRoutes(v1)
	rt.setupStatusRoutes(v1)
	rt.setupTaskRoutes(v1)
	rt.setupTeamRoutes(v1)
}

// setupAuthRoutes configures authentication routes
func (rt *Router) setupAuthRoutes(g *echo.Group) {
	h := rt.handlers.Auth
	authGroup := g.Group("/auth")

	if h == nil {
		authGroup.Any("/*", rt.notImplemented)
		return
	}

	authGroup.POST("/pm-login", h.PMLogin)
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout, rt.authMW)
	authGroup.GET("/me", h.Me, rt.authMW)
}

func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	h := rt.handlers.Meeting
	meetings := g.Group("/meetings", rt.authMW)

	if h == nil {
		meetings.Any("/*", rt.notImplemented)
		return
	}

	pmOnly := httpmw.RequireRole(entities.RoleProjectManager)
	meetings.POST("/analyze", h.AnalyzeAudio, pmOnly)
	meetings.POST("/analyze/transcript", h.AnalyzeTranscript, pmOnly)
	meetings.GET("/:id/status", h.GetStatus)
}

func (rt *Router) setupStatusRoutes(g *echo.Group) {
	h := rt.handlers.Status
	statusGroup := g.Group("/status", rt.authMW)

	if h == nil {
		statusGroup.Any("/*", rt.notImplemented)
		return
	}

	statusGroup.GET("/overview", h.Overview)
}

func (rt *Router) setupTaskRoutes(g *echo.Group) {
	h := rt.handlers.Task
	tasks := g.Group("/tasks", rt.authMW)

	if h == nil {
		tasks.Any("/*", rt.notImplemented)
		return
	}

	tasks.POST("", h.Create)
	tasks.POST("/from-text", h.CreateFromText)
	tasks.GET("", h.List)
	tasks.GET("/:id", h.Get)
	tasks.PUT("/:id", h.Update)
}

func (rt *Router) setupTeamRoutes(g *echo.Group) {
	h := rt.handlers.Team
	teamGroup := g.Group("/team", rt.authMW)

	if h == nil {
		teamGroup.Any("/*", rt.notImplemented)
		return
	}

	teamGroup.POST("", h.Create)
	teamGroup.GET("", h.Get)
	teamGroup.POST("/members", h.AddMember)
	teamGroup.GET("/members", h.Members)
	teamGroup.DELETE("/members/:id", h.RemoveMember)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck runs every registered dependency check
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	env := ""
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	return c.JSON(status, map[string]interface{}{
		"status":       overall,
		"environment":  env,
		"dependencies": deps,
		"time":         time.Now().UTC().Format(time.RFC3339),
	})
}
