package rpc

import (
	"fmt"

	solrpc "github.com/gagliardetto/solana-go/rpc"
)

// Commitment levels accepted by the node
const (
	CommitmentProcessed = string(solrpc.CommitmentProcessed)
	CommitmentConfirmed = string(solrpc.CommitmentConfirmed)
	CommitmentFinalized = string(solrpc.CommitmentFinalized)
)

// SendOptions maps onto the sendTransaction config object
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *uint
}

// SignatureStatus is one entry of getSignatureStatuses
type SignatureStatus struct {
	Slot               uint64  `json:"slot"`
	Confirmations      *uint64 `json:"confirmations"`
	Err                any     `json:"err"`
	ConfirmationStatus string  `json:"confirmationStatus"`
}

// Reached reports whether the status is at least the given commitment.
func (s *SignatureStatus) Reached(commitment string) bool {
	rank := map[string]int{CommitmentProcessed: 1, CommitmentConfirmed: 2, CommitmentFinalized: 3}
	return rank[s.ConfirmationStatus] >= rank[commitment]
}

// TransactionFailedError is returned when a landed transaction carries an error
type TransactionFailedError struct {
	Signature string
	Err       any
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}
