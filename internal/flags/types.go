package flags

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownRoute = errors.New("unknown route")

// Route names a gateway endpoint that can be switched off.
type Route string

const (
	RouteQuote            Route = "quote"
	RouteSwap             Route = "swap"
	RouteSwapInstructions Route = "swap-instructions"
)

// Routes lists every toggleable route in display order.
var Routes = []Route{RouteQuote, RouteSwap, RouteSwapInstructions}

func ParseRoute(s string) (Route, error) {
	for _, r := range Routes {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoute, s)
}

type Toggle struct {
	Route     Route     `json:"route"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}
