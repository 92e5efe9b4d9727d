package jupiter

import (
	"encoding/json"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SwapRequest asks the service to build a transaction for a quote. Config is
// flattened into the request object on the wire.
type SwapRequest struct {
	UserPublicKey solana.PublicKey
	QuoteResponse QuoteResponse
	Config        TransactionConfig
}

// NewSwapRequest uses DefaultTransactionConfig.
func NewSwapRequest(user solana.PublicKey, quote QuoteResponse) SwapRequest {
	return SwapRequest{
		UserPublicKey: user,
		QuoteResponse: quote,
		Config:        DefaultTransactionConfig(),
	}
}

type swapRequestHead struct {
	UserPublicKey solana.PublicKey `json:"userPublicKey"`
	QuoteResponse QuoteResponse    `json:"quoteResponse"`
}

func (r SwapRequest) MarshalJSON() ([]byte, error) {
	// plainConfig drops UnmarshalJSON so the fields are promoted.
	type plainConfig TransactionConfig
	return json.Marshal(struct {
		swapRequestHead
		plainConfig
	}{
		swapRequestHead: swapRequestHead{UserPublicKey: r.UserPublicKey, QuoteResponse: r.QuoteResponse},
		plainConfig:     plainConfig(r.Config),
	})
}

func (r *SwapRequest) UnmarshalJSON(b []byte) error {
	var head swapRequestHead
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	var cfg TransactionConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return err
	}
	*r = SwapRequest{UserPublicKey: head.UserPublicKey, QuoteResponse: head.QuoteResponse, Config: cfg}
	return nil
}

type JitoPrioritization struct {
	Lamports uint64 `json:"lamports"`
}

type ComputeBudgetPrioritization struct {
	MicroLamports          uint64  `json:"microLamports"`
	EstimatedMicroLamports *uint64 `json:"estimatedMicroLamports,omitempty"`
}

// PrioritizationType reports how the fee was applied. Exactly one field is set.
type PrioritizationType struct {
	Jito          *JitoPrioritization          `json:"jito,omitempty"`
	ComputeBudget *ComputeBudgetPrioritization `json:"computeBudget,omitempty"`
}

type DynamicSlippageReport struct {
	SlippageBps                  uint16              `json:"slippageBps"`
	OtherAmount                  *uint64             `json:"otherAmount,omitempty"`
	SimulatedIncurredSlippageBps *int16              `json:"simulatedIncurredSlippageBps,omitempty"`
	AmplificationRatio           decimal.NullDecimal `json:"amplificationRatio"`
}

type UISimulationError struct {
	ErrorCode string `json:"errorCode"`
	Error     string `json:"error"`
}

type SwapResponse struct {
	// SwapTransaction is the serialized unsigned transaction.
	SwapTransaction           []byte                 `json:"swapTransaction"`
	LastValidBlockHeight      uint64                 `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports uint64                 `json:"prioritizationFeeLamports"`
	ComputeUnitLimit          uint32                 `json:"computeUnitLimit"`
	PrioritizationType        *PrioritizationType    `json:"prioritizationType,omitempty"`
	DynamicSlippageReport     *DynamicSlippageReport `json:"dynamicSlippageReport,omitempty"`
	SimulationError           *UISimulationError     `json:"simulationError,omitempty"`
}

func (r *SwapResponse) requiredFields() []string {
	return []string{"swapTransaction"}
}

func (r *SwapResponse) validate() error {
	if len(r.SwapTransaction) == 0 {
		return fmt.Errorf("empty swapTransaction")
	}
	return nil
}

// Transaction decodes SwapTransaction so it can be signed and sent.
func (r *SwapResponse) Transaction() (*solana.Transaction, error) {
	if len(r.SwapTransaction) == 0 {
		return nil, fmt.Errorf("swap response has no transaction")
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(r.SwapTransaction))
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}
	return tx, nil
}

// SwapInstructionsResponse is the swap broken into instructions so callers
// can compose their own transaction. Optional instructions are nil when the
// service did not return them.
type SwapInstructionsResponse struct {
	TokenLedgerInstruction      solana.Instruction
	ComputeBudgetInstructions   []solana.Instruction
	SetupInstructions           []solana.Instruction
	SwapInstruction             solana.Instruction
	CleanupInstruction          solana.Instruction
	OtherInstructions           []solana.Instruction
	AddressLookupTableAddresses []solana.PublicKey
	PrioritizationFeeLamports   uint64
	ComputeUnitLimit            uint32
	PrioritizationType          *PrioritizationType
	DynamicSlippageReport       *DynamicSlippageReport
	SimulationError             *UISimulationError
}

// Instructions returns every instruction in execution order.
func (r *SwapInstructionsResponse) Instructions() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(r.ComputeBudgetInstructions)+len(r.SetupInstructions)+len(r.OtherInstructions)+3)
	out = append(out, r.ComputeBudgetInstructions...)
	out = append(out, r.SetupInstructions...)
	if r.TokenLedgerInstruction != nil {
		out = append(out, r.TokenLedgerInstruction)
	}
	if r.SwapInstruction != nil {
		out = append(out, r.SwapInstruction)
	}
	if r.CleanupInstruction != nil {
		out = append(out, r.CleanupInstruction)
	}
	out = append(out, r.OtherInstructions...)
	return out
}
