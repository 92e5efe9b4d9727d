package jupiter

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type accountMetaWire struct {
	Pubkey     solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"isSigner"`
	IsWritable bool             `json:"isWritable"`
}

// instructionWire is how the service encodes an instruction; data is base64.
type instructionWire struct {
	ProgramID solana.PublicKey  `json:"programId"`
	Accounts  []accountMetaWire `json:"accounts"`
	Data      []byte            `json:"data"`
}

// instruction takes ownership of w.Data.
func (w *instructionWire) instruction() solana.Instruction {
	metas := make(solana.AccountMetaSlice, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		metas = append(metas, solana.NewAccountMeta(a.Pubkey, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(w.ProgramID, metas, w.Data)
}

func wireFromInstruction(ix solana.Instruction) (*instructionWire, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("instruction data for %s: %w", ix.ProgramID(), err)
	}
	accounts := ix.Accounts()
	w := &instructionWire{
		ProgramID: ix.ProgramID(),
		Accounts:  make([]accountMetaWire, 0, len(accounts)),
		Data:      data,
	}
	for _, a := range accounts {
		w.Accounts = append(w.Accounts, accountMetaWire{Pubkey: a.PublicKey, IsSigner: a.IsSigner, IsWritable: a.IsWritable})
	}
	return w, nil
}

func instructionsFromWire(ws []instructionWire) []solana.Instruction {
	out := make([]solana.Instruction, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].instruction())
	}
	return out
}

func optionalInstruction(w *instructionWire) solana.Instruction {
	if w == nil {
		return nil
	}
	return w.instruction()
}

// swapInstructionsResponseInternal is the body of /swap-instructions. Renames
// on the service side only touch this type and into.
type swapInstructionsResponseInternal struct {
	TokenLedgerInstruction      *instructionWire       `json:"tokenLedgerInstruction,omitempty"`
	ComputeBudgetInstructions   []instructionWire      `json:"computeBudgetInstructions"`
	SetupInstructions           []instructionWire      `json:"setupInstructions"`
	SwapInstruction             instructionWire        `json:"swapInstruction"`
	CleanupInstruction          *instructionWire       `json:"cleanupInstruction,omitempty"`
	OtherInstructions           []instructionWire      `json:"otherInstructions"`
	AddressLookupTableAddresses []solana.PublicKey     `json:"addressLookupTableAddresses"`
	PrioritizationFeeLamports   uint64                 `json:"prioritizationFeeLamports"`
	ComputeUnitLimit            uint32                 `json:"computeUnitLimit"`
	PrioritizationType          *PrioritizationType    `json:"prioritizationType,omitempty"`
	DynamicSlippageReport       *DynamicSlippageReport `json:"dynamicSlippageReport,omitempty"`
	SimulationError             *UISimulationError     `json:"simulationError,omitempty"`
}

func (r *swapInstructionsResponseInternal) requiredFields() []string {
	return []string{"computeBudgetInstructions", "setupInstructions", "swapInstruction", "addressLookupTableAddresses"}
}

func (r *swapInstructionsResponseInternal) validate() error {
	if r.SwapInstruction.ProgramID.IsZero() {
		return fmt.Errorf("swapInstruction without programId")
	}
	return nil
}

// into reshapes the wire response. It cannot fail: anything malformed has
// already been rejected by decoding and validate.
func (r *swapInstructionsResponseInternal) into() *SwapInstructionsResponse {
	return &SwapInstructionsResponse{
		TokenLedgerInstruction:      optionalInstruction(r.TokenLedgerInstruction),
		ComputeBudgetInstructions:   instructionsFromWire(r.ComputeBudgetInstructions),
		SetupInstructions:           instructionsFromWire(r.SetupInstructions),
		SwapInstruction:             r.SwapInstruction.instruction(),
		CleanupInstruction:          optionalInstruction(r.CleanupInstruction),
		OtherInstructions:           instructionsFromWire(r.OtherInstructions),
		AddressLookupTableAddresses: r.AddressLookupTableAddresses,
		PrioritizationFeeLamports:   r.PrioritizationFeeLamports,
		ComputeUnitLimit:            r.ComputeUnitLimit,
		PrioritizationType:          r.PrioritizationType,
		DynamicSlippageReport:       r.DynamicSlippageReport,
		SimulationError:             r.SimulationError,
	}
}

func wireList(ixs []solana.Instruction) ([]instructionWire, error) {
	out := make([]instructionWire, 0, len(ixs))
	for _, ix := range ixs {
		w, err := wireFromInstruction(ix)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, nil
}

func wireOptional(ix solana.Instruction) (*instructionWire, error) {
	if ix == nil {
		return nil, nil
	}
	return wireFromInstruction(ix)
}

// MarshalJSON encodes the response in the service's wire shape, so a
// gateway can hand it on unchanged.
func (r *SwapInstructionsResponse) MarshalJSON() ([]byte, error) {
	var (
		w   swapInstructionsResponseInternal
		err error
	)
	if w.TokenLedgerInstruction, err = wireOptional(r.TokenLedgerInstruction); err != nil {
		return nil, err
	}
	if w.ComputeBudgetInstructions, err = wireList(r.ComputeBudgetInstructions); err != nil {
		return nil, err
	}
	if w.SetupInstructions, err = wireList(r.SetupInstructions); err != nil {
		return nil, err
	}
	if r.SwapInstruction != nil {
		swap, err := wireFromInstruction(r.SwapInstruction)
		if err != nil {
			return nil, err
		}
		w.SwapInstruction = *swap
	}
	if w.CleanupInstruction, err = wireOptional(r.CleanupInstruction); err != nil {
		return nil, err
	}
	if w.OtherInstructions, err = wireList(r.OtherInstructions); err != nil {
		return nil, err
	}
	w.AddressLookupTableAddresses = r.AddressLookupTableAddresses
	if w.AddressLookupTableAddresses == nil {
		w.AddressLookupTableAddresses = []solana.PublicKey{}
	}
	w.PrioritizationFeeLamports = r.PrioritizationFeeLamports
	w.ComputeUnitLimit = r.ComputeUnitLimit
	w.PrioritizationType = r.PrioritizationType
	w.DynamicSlippageReport = r.DynamicSlippageReport
	w.SimulationError = r.SimulationError
	return json.Marshal(&w)
}
