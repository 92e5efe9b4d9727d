package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/config"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/wallet"
)

type txOptions struct {
	user           string
	cuPrice        string
	priorityFee    string
	dynamicCULimit bool
	legacy         bool
	noWrapSol      bool
	feeAccount     string
	keypair        string

	signer *wallet.Wallet
}

func (o *txOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.user, "user", "", "wallet that signs the swap (default: the --keypair address)")
	f.StringVar(&o.cuPrice, "cu-price", "", "compute unit price: auto or micro-lamports")
	f.StringVar(&o.priorityFee, "priority-fee", "", "prioritization fee: auto, multiplier:N or jito:N")
	f.BoolVar(&o.dynamicCULimit, "dynamic-cu-limit", false, "simulate to size the compute unit limit")
	f.BoolVar(&o.legacy, "legacy", false, "build a legacy transaction instead of a versioned one")
	f.BoolVar(&o.noWrapSol, "no-wrap-sol", false, "use an existing wSOL account instead of wrapping")
	f.StringVar(&o.feeAccount, "fee-account", "", "token account that collects the platform fee")
}

// loadSigner resolves --keypair, falling back to WALLET_PRIVATE_KEY.
func (o *txOptions) loadSigner() error {
	if o.signer != nil {
		return nil
	}
	key := o.keypair
	if key == "" {
		key = config.Load().WalletKey
	}
	if key == "" {
		return nil
	}
	w, err := wallet.Load(key)
	if err != nil {
		return fmt.Errorf("invalid --keypair: %w", err)
	}
	o.signer = w
	return nil
}

func (o *txOptions) swapRequest(quote *jupiter.QuoteResponse) (*jupiter.SwapRequest, error) {
	var user solana.PublicKey
	switch {
	case o.user != "":
		pk, err := solana.PublicKeyFromBase58(o.user)
		if err != nil {
			return nil, fmt.Errorf("invalid --user: %w", err)
		}
		if o.signer != nil && !pk.Equals(o.signer.PublicKey()) {
			return nil, fmt.Errorf("--user %s does not match --keypair %s", pk, o.signer.Address())
		}
		user = pk
	case o.signer != nil:
		user = o.signer.PublicKey()
	default:
		return nil, fmt.Errorf("--user or --keypair is required")
	}

	var err error
	req := jupiter.NewSwapRequest(user, *quote)
	req.Config.DynamicComputeUnitLimit = o.dynamicCULimit
	req.Config.AsLegacyTransaction = o.legacy
	req.Config.WrapAndUnwrapSol = !o.noWrapSol

	if req.Config.ComputeUnitPriceMicroLamports, err = parseComputeUnitPrice(o.cuPrice); err != nil {
		return nil, err
	}
	if req.Config.PrioritizationFeeLamports, err = parsePriorityFee(o.priorityFee); err != nil {
		return nil, err
	}
	if o.feeAccount != "" {
		fee, err := solana.PublicKeyFromBase58(o.feeAccount)
		if err != nil {
			return nil, fmt.Errorf("invalid --fee-account: %w", err)
		}
		req.Config.FeeAccount = &fee
	}
	return &req, nil
}

// quoteForSwap validates every flag before the first request goes out.
func quoteForSwap(cmd *cobra.Command, root *rootOptions, qo *quoteOptions, to *txOptions) (*jupiter.Client, *jupiter.SwapRequest, error) {
	qreq, err := qo.request(to.legacy)
	if err != nil {
		return nil, nil, err
	}
	if err := to.loadSigner(); err != nil {
		return nil, nil, err
	}
	if _, err := to.swapRequest(&jupiter.QuoteResponse{}); err != nil {
		return nil, nil, err
	}

	c, err := root.client(cmd)
	if err != nil {
		return nil, nil, err
	}
	q, err := c.Quote(cmd.Context(), qreq)
	if err != nil {
		return nil, nil, fmt.Errorf("quote: %w", err)
	}
	sreq, err := to.swapRequest(q)
	if err != nil {
		return nil, nil, err
	}
	return c, sreq, nil
}

type swapSummary struct {
	InAmount                  uint64                         `json:"inAmount,string"`
	OutAmount                 uint64                         `json:"outAmount,string"`
	Route                     []string                       `json:"route"`
	LastValidBlockHeight      uint64                         `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports uint64                         `json:"prioritizationFeeLamports"`
	ComputeUnitLimit          uint32                         `json:"computeUnitLimit"`
	Instructions              int                            `json:"instructions"`
	RequiredSignatures        uint8                          `json:"requiredSignatures"`
	SimulationError           *jupiter.UISimulationError     `json:"simulationError,omitempty"`
	DynamicSlippageReport     *jupiter.DynamicSlippageReport `json:"dynamicSlippageReport,omitempty"`
	Transaction               string                         `json:"transaction"`
	Signature                 string                         `json:"signature,omitempty"`
	SignedTransaction         string                         `json:"signedTransaction,omitempty"`
	Sent                      bool                           `json:"sent,omitempty"`
	ConfirmationStatus        string                         `json:"confirmationStatus,omitempty"`
	Slot                      uint64                         `json:"slot,omitempty"`
}

func newSwapCmd(root *rootOptions) *cobra.Command {
	qo := &quoteOptions{}
	to := &txOptions{}
	so := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote, then build a swap transaction",
		Long: `swap quotes the pair, then asks the swap API for a serialized transaction.
With --keypair the transaction is signed locally, and --send submits it over Solana RPC.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := to.loadSigner(); err != nil {
				return err
			}
			if err := so.validate(to); err != nil {
				return err
			}
			c, req, err := quoteForSwap(cmd, root, qo, to)
			if err != nil {
				return err
			}
			resp, err := c.Swap(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("swap: %w", err)
			}
			tx, err := resp.Transaction()
			if err != nil {
				return err
			}

			out := swapSummary{
				InAmount:                  req.QuoteResponse.InAmount,
				OutAmount:                 req.QuoteResponse.OutAmount,
				Route:                     req.QuoteResponse.RouteLabels(),
				LastValidBlockHeight:      resp.LastValidBlockHeight,
				PrioritizationFeeLamports: resp.PrioritizationFeeLamports,
				ComputeUnitLimit:          resp.ComputeUnitLimit,
				Instructions:              len(tx.Message.Instructions),
				RequiredSignatures:        tx.Message.Header.NumRequiredSignatures,
				SimulationError:           resp.SimulationError,
				DynamicSlippageReport:     resp.DynamicSlippageReport,
				Transaction:               base64.StdEncoding.EncodeToString(resp.SwapTransaction),
			}

			if to.signer != nil {
				if err := to.signer.SignTx(tx); err != nil {
					return err
				}
				signed, err := tx.MarshalBinary()
				if err != nil {
					return fmt.Errorf("encode signed transaction: %w", err)
				}
				out.Signature = tx.Signatures[0].String()
				out.SignedTransaction = base64.StdEncoding.EncodeToString(signed)

				if so.send {
					if err := so.submit(cmd, root, tx, &out); err != nil {
						return err
					}
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	qo.register(cmd)
	to.register(cmd)
	so.register(cmd)
	cmd.Flags().StringVar(&to.keypair, "keypair", "", "sign locally with this key or keypair file (default $WALLET_PRIVATE_KEY)")
	return cmd
}

type instructionsSummary struct {
	ComputeBudget       int                `json:"computeBudget"`
	Setup               int                `json:"setup"`
	TokenLedger         bool               `json:"tokenLedger"`
	SwapProgram         solana.PublicKey   `json:"swapProgram"`
	Cleanup             bool               `json:"cleanup"`
	Other               int                `json:"other"`
	Total               int                `json:"total"`
	AddressLookupTables []solana.PublicKey `json:"addressLookupTables"`
	ComputeUnitLimit    uint32             `json:"computeUnitLimit"`
	PrioritizationFee   uint64             `json:"prioritizationFeeLamports"`
	SimulationErrorCode string             `json:"simulationErrorCode,omitempty"`
}

func newSwapInstructionsCmd(root *rootOptions) *cobra.Command {
	qo := &quoteOptions{}
	to := &txOptions{}
	cmd := &cobra.Command{
		Use:   "swap-instructions",
		Short: "Quote, then fetch the swap as individual instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, req, err := quoteForSwap(cmd, root, qo, to)
			if err != nil {
				return err
			}
			resp, err := c.SwapInstructions(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("swap-instructions: %w", err)
			}

			out := instructionsSummary{
				ComputeBudget:       len(resp.ComputeBudgetInstructions),
				Setup:               len(resp.SetupInstructions),
				TokenLedger:         resp.TokenLedgerInstruction != nil,
				Cleanup:             resp.CleanupInstruction != nil,
				Other:               len(resp.OtherInstructions),
				Total:               len(resp.Instructions()),
				AddressLookupTables: resp.AddressLookupTableAddresses,
				ComputeUnitLimit:    resp.ComputeUnitLimit,
				PrioritizationFee:   resp.PrioritizationFeeLamports,
			}
			if resp.SwapInstruction != nil {
				out.SwapProgram = resp.SwapInstruction.ProgramID()
			}
			if resp.SimulationError != nil {
				out.SimulationErrorCode = resp.SimulationError.ErrorCode
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	qo.register(cmd)
	to.register(cmd)
	return cmd
}
