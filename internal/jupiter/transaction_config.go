package jupiter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

const autoTag = "auto"

var autoJSON = []byte(`"auto"`)

// ComputeUnitPriceMicroLamports is either an explicit price per compute unit
// or the automatic price chosen by the swap service.
type ComputeUnitPriceMicroLamports struct {
	auto          bool
	microLamports uint64
}

// MicroLamports returns an explicit compute unit price.
func MicroLamports(n uint64) ComputeUnitPriceMicroLamports {
	return ComputeUnitPriceMicroLamports{microLamports: n}
}

// AutoComputeUnitPrice lets the swap service pick the compute unit price.
func AutoComputeUnitPrice() ComputeUnitPriceMicroLamports {
	return ComputeUnitPriceMicroLamports{auto: true}
}

func (c ComputeUnitPriceMicroLamports) IsAuto() bool { return c.auto }

// Value returns the explicit price; ok is false for the automatic variant.
func (c ComputeUnitPriceMicroLamports) Value() (n uint64, ok bool) {
	if c.auto {
		return 0, false
	}
	return c.microLamports, true
}

func (c ComputeUnitPriceMicroLamports) String() string {
	if c.auto {
		return autoTag
	}
	return strconv.FormatUint(c.microLamports, 10)
}

func (c ComputeUnitPriceMicroLamports) MarshalJSON() ([]byte, error) {
	if c.auto {
		return autoJSON, nil
	}
	return []byte(strconv.FormatUint(c.microLamports, 10)), nil
}

func (c *ComputeUnitPriceMicroLamports) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, autoJSON) {
		*c = AutoComputeUnitPrice()
		return nil
	}
	var n uint64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("computeUnitPriceMicroLamports: expected integer or %q, got %s", autoTag, b)
	}
	*c = MicroLamports(n)
	return nil
}

// EncodeValues implements query.Encoder for callers that put the price in a
// url-tagged struct; the swap endpoints themselves take it as JSON.
func (c ComputeUnitPriceMicroLamports) EncodeValues(key string, v *url.Values) error {
	v.Set(key, c.String())
	return nil
}

// PrioritizationFeeKind tags the variant held by a PrioritizationFeeLamports.
type PrioritizationFeeKind uint8

const (
	// PrioritizationFeeAuto lets the service set the fee, capped server-side
	// at 5,000,000 lamports.
	PrioritizationFeeAuto PrioritizationFeeKind = iota
	// PrioritizationFeeAutoMultiplier multiplies the automatic fee.
	PrioritizationFeeAutoMultiplier
	// PrioritizationFeeJitoTip adds a tip to a Jito block builder instead of
	// a priority fee.
	PrioritizationFeeJitoTip
)

func (k PrioritizationFeeKind) tag() string {
	switch k {
	case PrioritizationFeeAutoMultiplier:
		return "autoMultiplier"
	case PrioritizationFeeJitoTip:
		return "jitoTipLamports"
	default:
		return autoTag
	}
}

func (k PrioritizationFeeKind) String() string { return k.tag() }

// PrioritizationFeeLamports is the fee paid on top of the signature fee.
// The zero value is the automatic variant.
type PrioritizationFeeLamports struct {
	kind  PrioritizationFeeKind
	value uint64
}

func AutoPrioritizationFee() PrioritizationFeeLamports {
	return PrioritizationFeeLamports{kind: PrioritizationFeeAuto}
}

func AutoMultiplier(n uint64) PrioritizationFeeLamports {
	return PrioritizationFeeLamports{kind: PrioritizationFeeAutoMultiplier, value: n}
}

func JitoTipLamports(n uint64) PrioritizationFeeLamports {
	return PrioritizationFeeLamports{kind: PrioritizationFeeJitoTip, value: n}
}

func (p PrioritizationFeeLamports) Kind() PrioritizationFeeKind { return p.kind }

// Value returns the multiplier or tip; ok is false for the automatic variant.
func (p PrioritizationFeeLamports) Value() (n uint64, ok bool) {
	if p.kind == PrioritizationFeeAuto {
		return 0, false
	}
	return p.value, true
}

func (p PrioritizationFeeLamports) String() string {
	if p.kind == PrioritizationFeeAuto {
		return autoTag
	}
	return fmt.Sprintf("%s(%d)", p.kind.tag(), p.value)
}

func (p PrioritizationFeeLamports) MarshalJSON() ([]byte, error) {
	if p.kind == PrioritizationFeeAuto {
		return autoJSON, nil
	}
	return json.Marshal(map[string]uint64{p.kind.tag(): p.value})
}

func (p *PrioritizationFeeLamports) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, autoJSON) {
		*p = AutoPrioritizationFee()
		return nil
	}

	var tagged map[string]uint64
	if err := json.Unmarshal(b, &tagged); err != nil || len(tagged) != 1 {
		return fmt.Errorf("prioritizationFeeLamports: expected %q or single-key object, got %s", autoTag, b)
	}
	if n, ok := tagged[PrioritizationFeeAutoMultiplier.tag()]; ok {
		*p = AutoMultiplier(n)
		return nil
	}
	if n, ok := tagged[PrioritizationFeeJitoTip.tag()]; ok {
		*p = JitoTipLamports(n)
		return nil
	}
	return fmt.Errorf("prioritizationFeeLamports: unknown variant in %s", b)
}

// EncodeValues implements query.Encoder (key=auto or key[tag]=n) for callers
// that put the fee in a url-tagged struct; the swap endpoints take JSON.
func (p PrioritizationFeeLamports) EncodeValues(key string, v *url.Values) error {
	if p.kind == PrioritizationFeeAuto {
		v.Set(key, autoTag)
		return nil
	}
	v.Set(key+"["+p.kind.tag()+"]", strconv.FormatUint(p.value, 10))
	return nil
}

// TransactionConfig tunes how the swap service builds the transaction.
// Build one with DefaultTransactionConfig and override fields; decoding from
// JSON starts from the defaults as well.
type TransactionConfig struct {
	// WrapAndUnwrapSol is ignored by the service when DestinationTokenAccount
	// is set, since that account may belong to someone else.
	WrapAndUnwrapSol bool `json:"wrapAndUnwrapSol"`
	// FeeAccount receives the platform fee for the output token. Only set it
	// together with a platform fee on the quote.
	FeeAccount *solana.PublicKey `json:"feeAccount,omitempty"`
	// DestinationTokenAccount receives the output token. It must already be
	// initialized. Defaults to the user's ATA.
	DestinationTokenAccount *solana.PublicKey `json:"destinationTokenAccount,omitempty"`
	// ComputeUnitPriceMicroLamports and PrioritizationFeeLamports are
	// alternatives; the service picks one when both are set.
	ComputeUnitPriceMicroLamports *ComputeUnitPriceMicroLamports `json:"computeUnitPriceMicroLamports,omitempty"`
	PrioritizationFeeLamports     *PrioritizationFeeLamports     `json:"prioritizationFeeLamports,omitempty"`
	// DynamicComputeUnitLimit costs one extra simulation on the service side.
	DynamicComputeUnitLimit bool `json:"dynamicComputeUnitLimit"`
	// AsLegacyTransaction must match the quote, otherwise the transaction may
	// be too large.
	AsLegacyTransaction bool `json:"asLegacyTransaction"`
	UseSharedAccounts   bool `json:"useSharedAccounts"`
	// UseTokenLedger swaps the difference between the token ledger amount and
	// the post-instruction amount instead of a fixed input.
	UseTokenLedger bool `json:"useTokenLedger"`
	// BlockhashSlotsToExpiry overrides the service default of 150 slots.
	BlockhashSlotsToExpiry *uint64 `json:"blockhashSlotsToExpiry,omitempty"`
}

func DefaultTransactionConfig() TransactionConfig {
	return TransactionConfig{
		WrapAndUnwrapSol:  true,
		UseSharedAccounts: true,
	}
}

func (c *TransactionConfig) UnmarshalJSON(b []byte) error {
	type plain TransactionConfig
	p := plain(DefaultTransactionConfig())
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = TransactionConfig(p)
	return nil
}
