package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/journal"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
)

// quoteParamError names the query parameter that failed to parse.
type quoteParamError struct {
	param  string
	reason string
}

func splitCSVQuery(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		parts := strings.Split(v, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func queryBool(c echo.Context, name string) (*bool, *quoteParamError) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &quoteParamError{name, "must be boolean"}
	}
	return &b, nil
}

func queryUint(c echo.Context, name string, bits int) (*uint64, *quoteParamError) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return nil, &quoteParamError{name, "must be uint" + strconv.Itoa(bits)}
	}
	return &n, nil
}

func queryString(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	return &v
}

func queryMint(c echo.Context, name string) (solana.PublicKey, *quoteParamError) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return solana.PublicKey{}, &quoteParamError{name, "required"}
	}
	pk, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, &quoteParamError{name, "must be a base58 public key"}
	}
	return pk, nil
}

// parseQuoteRequest reads the same flat parameters the quote endpoint takes.
func parseQuoteRequest(c echo.Context) (*jupiter.QuoteRequest, *quoteParamError) {
	var (
		req jupiter.QuoteRequest
		pe  *quoteParamError
	)

	if req.InputMint, pe = queryMint(c, "inputMint"); pe != nil {
		return nil, pe
	}
	if req.OutputMint, pe = queryMint(c, "outputMint"); pe != nil {
		return nil, pe
	}

	amount, pe := queryUint(c, "amount", 64)
	if pe != nil {
		return nil, pe
	}
	if amount == nil {
		return nil, &quoteParamError{"amount", "required"}
	}
	req.Amount = *amount

	if v := strings.TrimSpace(c.QueryParam("swapMode")); v != "" {
		mode, err := jupiter.ParseSwapMode(v)
		if err != nil {
			return nil, &quoteParamError{"swapMode", "must be ExactIn or ExactOut"}
		}
		req.SwapMode = &mode
	}

	n, pe := queryUint(c, "slippageBps", 16)
	if pe != nil {
		return nil, pe
	}
	if n != nil {
		req.SlippageBps = uint16(*n)
	}

	if n, pe = queryUint(c, "maxAutoSlippageBps", 16); pe != nil {
		return nil, pe
	} else if n != nil {
		v := uint16(*n)
		req.MaxAutoSlippageBps = &v
	}
	if n, pe = queryUint(c, "autoSlippageCollisionUsdValue", 32); pe != nil {
		return nil, pe
	} else if n != nil {
		v := uint32(*n)
		req.AutoSlippageCollisionUsdValue = &v
	}
	if n, pe = queryUint(c, "platformFeeBps", 8); pe != nil {
		return nil, pe
	} else if n != nil {
		v := uint8(*n)
		req.PlatformFeeBps = &v
	}
	if req.MaxAccounts, pe = queryUint(c, "maxAccounts", 64); pe != nil {
		return nil, pe
	}

	computeAuto, pe := queryBool(c, "computeAutoSlippage")
	if pe != nil {
		return nil, pe
	}
	if computeAuto != nil {
		req.ComputeAutoSlippage = *computeAuto
	}

	bools := []struct {
		name string
		dst  **bool
	}{
		{"autoSlippage", &req.AutoSlippage},
		{"minimizeSlippage", &req.MinimizeSlippage},
		{"dynamicSlippage", &req.DynamicSlippage},
		{"onlyDirectRoutes", &req.OnlyDirectRoutes},
		{"asLegacyTransaction", &req.AsLegacyTransaction},
		{"restrictIntermediateTokens", &req.RestrictIntermediateTokens},
		{"preferLiquidDexes", &req.PreferLiquidDexes},
		{"tokenCategoryBasedIntermediateTokens", &req.TokenCategoryBasedIntermediateTokens},
	}
	for _, b := range bools {
		if *b.dst, pe = queryBool(c, b.name); pe != nil {
			return nil, pe
		}
	}

	req.QuoteType = queryString(c, "quoteType")
	req.RoutingConstraints = queryString(c, "routingConstraints")

	if v := queryString(c, "instructionVersion"); v != nil {
		if *v != "V1" && *v != "V2" {
			return nil, &quoteParamError{"instructionVersion", "must be V1 or V2"}
		}
		req.InstructionVersion = v
	}

	if v := strings.TrimSpace(c.QueryParam("computeUnitScore[maxPenaltyBps]")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &quoteParamError{"computeUnitScore[maxPenaltyBps]", "must be a number"}
		}
		req.ComputeUnitScore = &jupiter.ComputeUnitScore{MaxPenaltyBps: &f}
	}

	req.Dexes = splitCSVQuery(c.QueryParams()["dexes"])
	req.ExcludeDexes = splitCSVQuery(c.QueryParams()["excludeDexes"])

	return &req, nil
}

// Quote fetches a quote, then journals and publishes it when configured
func (h *Handlers) Quote(c echo.Context) error {
	req, pe := parseQuoteRequest(c)
	if pe != nil {
		return h.err(c, http.StatusBadRequest, "invalid "+pe.param, map[string]any{pe.param: pe.reason})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	out, err := h.Jupiter.Quote(ctx, req)
	if err != nil {
		return h.upstreamErr(c, "quote", err)
	}

	if h.Journal != nil || h.Feed != nil {
		h.recordQuote(c, journal.FromQuote(out, time.Now()))
	}

	return c.JSON(http.StatusOK, out)
}

// recordQuote is best effort; failures are logged and the quote is still served.
func (h *Handlers) recordQuote(c echo.Context, rec journal.QuoteRecord) {
	ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if h.Journal != nil {
		if err := h.Journal.RecordQuote(ctx, rec); err != nil {
			h.logger().WithError(err).Warn("failed to journal quote")
		}
	}
	if h.Feed != nil {
		if err := h.Feed.PublishQuote(ctx, rec); err != nil {
			h.logger().WithError(err).Warn("failed to publish quote")
		}
	}
}
