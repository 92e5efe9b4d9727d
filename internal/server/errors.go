package server

import (
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
	"github.com/labstack/echo/v4"
)

// errorHandler keeps every error, including 404s and auth failures, in the
// ErrorResponse format.
func (h *Handlers) errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		h.logger().WithError(err).WithField("path", c.Path()).Error("unhandled error")
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// upstreamErr maps a failed client call to 502. Status errors from the swap
// service also carry the upstream status code.
func (h *Handlers) upstreamErr(c echo.Context, op string, err error) error {
	resp := ErrorResponse{Error: "jupiter " + op + " failed", Code: http.StatusBadGateway}

	var httpErr *jupiter.HTTPError
	if errors.As(err, &httpErr) {
		resp.UpstreamStatus = httpErr.StatusCode
	}
	if h.DevMode {
		resp.Details = map[string]any{"err": err.Error()}
	}

	h.logger().WithError(err).WithField("op", op).Warn("jupiter call failed")
	return c.JSON(http.StatusBadGateway, resp)
}
