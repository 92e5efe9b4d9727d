package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/config"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/rpc"
)

type sendOptions struct {
	send          bool
	rpcURL        string
	commitment    string
	noWait        bool
	skipPreflight bool
	waitTimeout   time.Duration
}

func (o *sendOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&o.send, "send", false, "submit the signed transaction (requires --keypair)")
	f.StringVar(&o.rpcURL, "rpc-url", "", "solana RPC endpoint (default $SOLANA_RPC_URL or "+rpc.DefaultURL+")")
	f.StringVar(&o.commitment, "commitment", rpc.CommitmentConfirmed, "commitment to wait for: processed, confirmed or finalized")
	f.BoolVar(&o.noWait, "no-wait", false, "return right after the node accepts the transaction")
	f.BoolVar(&o.skipPreflight, "skip-preflight", false, "skip the node's preflight simulation")
	f.DurationVar(&o.waitTimeout, "wait-timeout", 90*time.Second, "how long to wait for the commitment")
}

func (o *sendOptions) validate(to *txOptions) error {
	if !o.send {
		return nil
	}
	if to.signer == nil {
		return fmt.Errorf("--send requires --keypair")
	}
	switch o.commitment {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid --commitment %q", o.commitment)
	}
	if !o.noWait && o.waitTimeout <= 0 {
		return fmt.Errorf("--wait-timeout must be > 0")
	}
	return nil
}

func (o *sendOptions) client(cmd *cobra.Command, root *rootOptions) *rpc.Client {
	cfg := config.Load()
	if o.rpcURL != "" {
		cfg.SolanaRPCURL = o.rpcURL
	}
	return rpc.NewClient(cfg.RPCConfig(root.logger(cmd)))
}

// submit sends tx and, unless --no-wait, waits for the commitment.
func (o *sendOptions) submit(cmd *cobra.Command, root *rootOptions, tx *solana.Transaction, out *swapSummary) error {
	c := o.client(cmd, root)

	sig, err := c.SendTransaction(cmd.Context(), tx, rpc.SendOptions{
		SkipPreflight:       o.skipPreflight,
		PreflightCommitment: o.commitment,
	})
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	out.Sent = true
	out.Signature = sig.String()
	if o.noWait {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), o.waitTimeout)
	defer cancel()
	st, err := c.WaitForCommitment(ctx, sig, o.commitment, 2*time.Second)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", sig, err)
	}
	out.ConfirmationStatus = st.ConfirmationStatus
	out.Slot = st.Slot
	return nil
}
