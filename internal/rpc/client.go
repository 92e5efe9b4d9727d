package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sirupsen/logrus"
)

const DefaultURL = "https://api.mainnet-beta.solana.com"

// Client wraps the solana-go RPC client with retry and timeout support
type Client struct {
	node         *solrpc.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		node: solrpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(cfg.BaseURL, &jsonrpc.RPCClientOpts{
			HTTPClient: httpClient,
		})),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}
}

// retryable reports whether err is worth another attempt. JSON-RPC errors
// and 4xx answers other than 429 are final.
func retryable(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return false
	}
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= 500
	}
	return true
}

// withRetry runs fn with exponential backoff until it succeeds, returns a
// final error or the retry budget is spent.
func (c *Client) withRetry(ctx context.Context, method string, fn func() error) error {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
				"error":   lastErr,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SendTransaction submits a signed transaction and returns its signature
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error) {
	txOpts := solrpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: solrpc.CommitmentType(opts.PreflightCommitment),
		MaxRetries:          opts.MaxRetries,
	}

	var sig solana.Signature
	err := c.withRetry(ctx, "sendTransaction", func() error {
		var err error
		sig, err = c.node.SendTransactionWithOpts(ctx, tx, txOpts)
		return err
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetSignatureStatus returns nil when the node has not seen sig yet
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	var out *solrpc.GetSignatureStatusesResult
	err := c.withRetry(ctx, "getSignatureStatuses", func() error {
		var err error
		out, err = c.node.GetSignatureStatuses(ctx, false, sig)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	v := out.Value[0]
	return &SignatureStatus{
		Slot:               v.Slot,
		Confirmations:      v.Confirmations,
		Err:                v.Err,
		ConfirmationStatus: string(v.ConfirmationStatus),
	}, nil
}

// WaitForCommitment polls until sig reaches commitment, the transaction
// fails, or ctx is done.
func (c *Client) WaitForCommitment(ctx context.Context, sig solana.Signature, commitment string, every time.Duration) (*SignatureStatus, error) {
	if every <= 0 {
		every = 2 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		st, err := c.GetSignatureStatus(ctx, sig)
		if err != nil {
			return nil, err
		}
		if st != nil {
			if st.Err != nil {
				return st, &TransactionFailedError{Signature: sig.String(), Err: st.Err}
			}
			if st.Reached(commitment) {
				return st, nil
			}
		}

		c.logger.WithFields(logrus.Fields{
			"signature":  sig.String(),
			"commitment": commitment,
		}).Debug("waiting for transaction")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
