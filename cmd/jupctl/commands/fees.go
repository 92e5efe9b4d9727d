package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
)

// parseComputeUnitPrice accepts "auto" or a micro-lamport amount.
func parseComputeUnitPrice(s string) (*jupiter.ComputeUnitPriceMicroLamports, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s == "auto" {
		v := jupiter.AutoComputeUnitPrice()
		return &v, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --cu-price %q: want auto or a number", s)
	}
	v := jupiter.MicroLamports(n)
	return &v, nil
}

// parsePriorityFee accepts "auto", "multiplier:N" or "jito:N".
func parsePriorityFee(s string) (*jupiter.PrioritizationFeeLamports, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s == "auto" {
		v := jupiter.AutoPrioritizationFee()
		return &v, nil
	}

	kind, num, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid --priority-fee %q: want auto, multiplier:N or jito:N", s)
	}
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --priority-fee %q: %q is not a number", s, num)
	}

	var v jupiter.PrioritizationFeeLamports
	switch kind {
	case "multiplier":
		v = jupiter.AutoMultiplier(n)
	case "jito":
		v = jupiter.JitoTipLamports(n)
	default:
		return nil, fmt.Errorf("invalid --priority-fee %q: unknown kind %q", s, kind)
	}
	return &v, nil
}
