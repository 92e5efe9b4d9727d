package server

import (
	"net/http"
	"time"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/flags"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = h.errorHandler()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)
	e.Use(middleware.BodyLimit("2M"))

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/quote", h.Quote, h.RequireRoute(flags.RouteQuote))

	limit := cfg.SwapRateLimit
	if limit <= 0 {
		limit = 5
	}
	burst := cfg.SwapBurst
	if burst <= 0 {
		burst = 10
	}

	// Swap building is the expensive upstream call, so it gets a per-client limit
	swapLimit := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     burst,
		ExpiresIn: 2 * time.Minute,
	}))
	v1.POST("/swap", h.Swap, swapLimit, h.RequireRoute(flags.RouteSwap))
	v1.POST("/swap-instructions", h.SwapInstructions, swapLimit, h.RequireRoute(flags.RouteSwapInstructions))

	// Route toggles, only with a flag store
	if h.Flags != nil {
		routeGroup := v1.Group("/routes")
		routeGroup.GET("", h.RoutesList)
		routeGroup.PUT("/:route", h.RoutesUpdate)
	}

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
