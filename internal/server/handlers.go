package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/feed"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/flags"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/journal"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// SwapAPI is the part of jupiter.Client the gateway calls.
type SwapAPI interface {
	Quote(ctx context.Context, req *jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	Swap(ctx context.Context, req *jupiter.SwapRequest) (*jupiter.SwapResponse, error)
	SwapInstructions(ctx context.Context, req *jupiter.SwapRequest) (*jupiter.SwapInstructionsResponse, error)
}

// RouteFlags is the part of flags.Store the gateway calls.
type RouteFlags interface {
	Set(ctx context.Context, route flags.Route, enabled bool) (*flags.Toggle, error)
	Enabled(ctx context.Context, route flags.Route) (bool, error)
	List(ctx context.Context) ([]*flags.Toggle, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Jupiter SwapAPI          // Swap service client
	Flags   RouteFlags       // Redis-backed route toggles (optional)
	Journal journal.Recorder // ClickHouse quote journal (optional)
	Feed    feed.Publisher   // Redis quote feed (optional)
	DevMode bool             // Enable detailed error responses in development
	Logger  *logrus.Logger
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// RequireRoute answers 503 while route is switched off. A failed toggle
// lookup lets the request through.
func (h *Handlers) RequireRoute(route flags.Route) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.Flags == nil {
				return next(c)
			}

			ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
			enabled, err := h.Flags.Enabled(ctx, route)
			cancel()
			if err != nil {
				h.logger().WithError(err).WithField("route", route).Warn("route toggle lookup failed")
				return next(c)
			}
			if !enabled {
				return h.err(c, http.StatusServiceUnavailable, "route disabled", map[string]any{"route": route})
			}
			return next(c)
		}
	}
}

type badRequest struct {
	msg     string
	details map[string]any
}

func bindSwapRequest(c echo.Context) (*jupiter.SwapRequest, *badRequest) {
	var req jupiter.SwapRequest
	if err := c.Bind(&req); err != nil {
		return nil, &badRequest{"invalid json", map[string]any{"err": err.Error()}}
	}
	if req.UserPublicKey.IsZero() {
		return nil, &badRequest{"invalid userPublicKey", map[string]any{"userPublicKey": "required"}}
	}
	if req.QuoteResponse.InputMint.IsZero() || req.QuoteResponse.OutputMint.IsZero() {
		return nil, &badRequest{"invalid quoteResponse", map[string]any{"quoteResponse": "required"}}
	}
	return &req, nil
}

// Swap builds a serialized transaction for the posted quote
func (h *Handlers) Swap(c echo.Context) error {
	req, bad := bindSwapRequest(c)
	if bad != nil {
		return h.err(c, http.StatusBadRequest, bad.msg, bad.details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	out, err := h.Jupiter.Swap(ctx, req)
	if err != nil {
		return h.upstreamErr(c, "swap", err)
	}
	return c.JSON(http.StatusOK, out)
}

// SwapInstructions returns the swap as individual instructions in the
// service's wire shape
func (h *Handlers) SwapInstructions(c echo.Context) error {
	req, bad := bindSwapRequest(c)
	if bad != nil {
		return h.err(c, http.StatusBadRequest, bad.msg, bad.details)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	out, err := h.Jupiter.SwapInstructions(ctx, req)
	if err != nil {
		return h.upstreamErr(c, "swap-instructions", err)
	}
	return c.JSON(http.StatusOK, out)
}

// RoutesList returns the toggle state of every route
func (h *Handlers) RoutesList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list routes", nil)
	}
	return c.JSON(http.StatusOK, RoutesResponse{Items: items})
}

// RoutesUpdate switches a single route on or off
func (h *Handlers) RoutesUpdate(c echo.Context) error {
	route, err := flags.ParseRoute(c.Param("route"))
	if err != nil {
		return h.err(c, http.StatusNotFound, "unknown route", map[string]any{"route": c.Param("route")})
	}

	var req RouteUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if req.Enabled == nil {
		return h.err(c, http.StatusBadRequest, "invalid enabled", map[string]any{"enabled": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Set(ctx, route, *req.Enabled)
	if err != nil {
		if errors.Is(err, flags.ErrUnknownRoute) {
			return h.err(c, http.StatusNotFound, "unknown route", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to update route", nil)
	}

	h.logger().WithFields(logrus.Fields{"route": route, "enabled": out.Enabled}).Info("route toggled")
	return c.JSON(http.StatusOK, out)
}
