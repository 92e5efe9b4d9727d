package commands

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
)

type quoteOptions struct {
	inputMint        string
	outputMint       string
	amount           uint64
	slippageBps      uint16
	swapMode         string
	onlyDirectRoutes bool
	dexes            []string
	excludeDexes     []string
	maxAccounts      uint64
}

func (o *quoteOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.inputMint, "in", "", "input token mint")
	f.StringVar(&o.outputMint, "out", "", "output token mint")
	f.Uint64Var(&o.amount, "amount", 0, "amount in base units of the input mint (output mint for ExactOut)")
	f.Uint16Var(&o.slippageBps, "slippage-bps", 50, "slippage tolerance in basis points")
	f.StringVar(&o.swapMode, "swap-mode", string(jupiter.SwapModeExactIn), "ExactIn or ExactOut")
	f.BoolVar(&o.onlyDirectRoutes, "only-direct-routes", false, "restrict to single-hop routes")
	f.StringSliceVar(&o.dexes, "dexes", nil, "only route through these dexes")
	f.StringSliceVar(&o.excludeDexes, "exclude-dexes", nil, "never route through these dexes")
	f.Uint64Var(&o.maxAccounts, "max-accounts", 0, "rough upper bound on accounts used by the route")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("amount")
}

func (o *quoteOptions) request(legacy bool) (*jupiter.QuoteRequest, error) {
	in, err := solana.PublicKeyFromBase58(o.inputMint)
	if err != nil {
		return nil, fmt.Errorf("invalid --in: %w", err)
	}
	out, err := solana.PublicKeyFromBase58(o.outputMint)
	if err != nil {
		return nil, fmt.Errorf("invalid --out: %w", err)
	}
	mode, err := jupiter.ParseSwapMode(o.swapMode)
	if err != nil {
		return nil, err
	}

	req := &jupiter.QuoteRequest{
		InputMint:    in,
		OutputMint:   out,
		Amount:       o.amount,
		SlippageBps:  o.slippageBps,
		SwapMode:     &mode,
		Dexes:        o.dexes,
		ExcludeDexes: o.excludeDexes,
	}
	if o.onlyDirectRoutes {
		req.OnlyDirectRoutes = &o.onlyDirectRoutes
	}
	if o.maxAccounts > 0 {
		req.MaxAccounts = &o.maxAccounts
	}
	// the quote has to agree with the transaction format
	if legacy {
		req.AsLegacyTransaction = &legacy
	}
	return req, nil
}

func newQuoteCmd(root *rootOptions) *cobra.Command {
	opts := &quoteOptions{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch a swap quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(false)
			if err != nil {
				return err
			}
			c, err := root.client(cmd)
			if err != nil {
				return err
			}
			q, err := c.Quote(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("quote: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}
	opts.register(cmd)
	return cmd
}
