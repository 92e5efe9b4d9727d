package jupiter

import (
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/google/go-querystring/query"
	"github.com/shopspring/decimal"
)

type SwapMode string

const (
	SwapModeExactIn  SwapMode = "ExactIn"
	SwapModeExactOut SwapMode = "ExactOut"
)

func ParseSwapMode(s string) (SwapMode, error) {
	switch SwapMode(s) {
	case SwapModeExactIn, SwapModeExactOut:
		return SwapMode(s), nil
	}
	return "", fmt.Errorf("invalid swap mode %q: must be ExactIn or ExactOut", s)
}

// ComputeUnitScore is encoded as computeUnitScore[maxPenaltyBps]=...
type ComputeUnitScore struct {
	MaxPenaltyBps *float64 `url:"maxPenaltyBps,omitempty"`
}

// QuoteRequest is sent as a flat query string. Pointer and slice fields are
// omitted when nil or empty.
type QuoteRequest struct {
	InputMint  solana.PublicKey `url:"-"`
	OutputMint solana.PublicKey `url:"-"`
	Amount     uint64           `url:"amount"`

	SwapMode    *SwapMode `url:"swapMode,omitempty"`
	SlippageBps uint16    `url:"slippageBps"`

	AutoSlippage                  *bool   `url:"autoSlippage,omitempty"`
	MaxAutoSlippageBps            *uint16 `url:"maxAutoSlippageBps,omitempty"`
	ComputeAutoSlippage           bool    `url:"computeAutoSlippage"`
	AutoSlippageCollisionUsdValue *uint32 `url:"autoSlippageCollisionUsdValue,omitempty"`
	MinimizeSlippage              *bool   `url:"minimizeSlippage,omitempty"`
	DynamicSlippage               *bool   `url:"dynamicSlippage,omitempty"`

	PlatformFeeBps *uint8 `url:"platformFeeBps,omitempty"`

	Dexes        []string `url:"dexes,comma,omitempty"`
	ExcludeDexes []string `url:"excludeDexes,comma,omitempty"`

	OnlyDirectRoutes                     *bool   `url:"onlyDirectRoutes,omitempty"`
	AsLegacyTransaction                  *bool   `url:"asLegacyTransaction,omitempty"`
	RestrictIntermediateTokens           *bool   `url:"restrictIntermediateTokens,omitempty"`
	MaxAccounts                          *uint64 `url:"maxAccounts,omitempty"`
	QuoteType                            *string `url:"quoteType,omitempty"`
	PreferLiquidDexes                    *bool   `url:"preferLiquidDexes,omitempty"`
	RoutingConstraints                   *string `url:"routingConstraints,omitempty"`
	TokenCategoryBasedIntermediateTokens *bool   `url:"tokenCategoryBasedIntermediateTokens,omitempty"`
	InstructionVersion                   *string `url:"instructionVersion,omitempty"`

	ComputeUnitScore *ComputeUnitScore `url:"computeUnitScore,omitempty"`

	// QuoteArgs are passed through as extra parameters. They never override
	// a typed field.
	QuoteArgs map[string]string `url:"-"`
}

// Values encodes the request the way the quote endpoint expects it.
func (r *QuoteRequest) Values() (url.Values, error) {
	v, err := query.Values(r)
	if err != nil {
		return nil, fmt.Errorf("encode quote request: %w", err)
	}
	v.Set("inputMint", r.InputMint.String())
	v.Set("outputMint", r.OutputMint.String())
	for k, val := range r.QuoteArgs {
		if _, taken := v[k]; !taken {
			v.Set(k, val)
		}
	}
	return v, nil
}

type PlatformFee struct {
	Amount uint64 `json:"amount,string"`
	FeeBps uint8  `json:"feeBps"`
}

type SwapInfo struct {
	AmmKey     solana.PublicKey `json:"ammKey"`
	Label      string           `json:"label,omitempty"`
	InputMint  solana.PublicKey `json:"inputMint"`
	OutputMint solana.PublicKey `json:"outputMint"`
	InAmount   uint64           `json:"inAmount,string"`
	OutAmount  uint64           `json:"outAmount,string"`
	FeeAmount  uint64           `json:"feeAmount,string"`
	FeeMint    solana.PublicKey `json:"feeMint"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent"`
	Bps      *uint16  `json:"bps,omitempty"`
}

// QuoteResponse is also the quoteResponse field of a SwapRequest, so it has
// to survive a decode/encode round trip unchanged.
type QuoteResponse struct {
	InputMint                   solana.PublicKey `json:"inputMint"`
	InAmount                    uint64           `json:"inAmount,string"`
	OutputMint                  solana.PublicKey `json:"outputMint"`
	OutAmount                   uint64           `json:"outAmount,string"`
	OtherAmountThreshold        uint64           `json:"otherAmountThreshold,string"`
	SwapMode                    SwapMode         `json:"swapMode"`
	SlippageBps                 uint16           `json:"slippageBps"`
	ComputedAutoSlippage        *uint16          `json:"computedAutoSlippage,omitempty"`
	UsesQuoteMinimizingSlippage *bool            `json:"usesQuoteMinimizingSlippage,omitempty"`
	PlatformFee                 *PlatformFee     `json:"platformFee"`
	PriceImpactPct              decimal.Decimal  `json:"priceImpactPct"`
	RoutePlan                   []RoutePlanStep  `json:"routePlan"`
	ContextSlot                 uint64           `json:"contextSlot"`
	TimeTaken                   float64          `json:"timeTaken"`
}

func (q *QuoteResponse) requiredFields() []string {
	return []string{"inputMint", "inAmount", "outputMint", "outAmount", "otherAmountThreshold", "swapMode", "routePlan"}
}

func (q *QuoteResponse) validate() error {
	if q.InputMint.IsZero() || q.OutputMint.IsZero() {
		return fmt.Errorf("quote without input or output mint")
	}
	return nil
}

// RouteLabels lists the AMM label of every hop in route order.
func (q *QuoteResponse) RouteLabels() []string {
	labels := make([]string, 0, len(q.RoutePlan))
	for _, step := range q.RoutePlan {
		labels = append(labels, step.SwapInfo.Label)
	}
	return labels
}
