package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var ErrNotSigner = errors.New("wallet: key is not a required signer of the transaction")

// Wallet holds a local keypair. It never talks to the network.
type Wallet struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// New accepts a base58-encoded 64-byte key or a solana-keygen JSON array.
func New(privateKey string) (*Wallet, error) {
	if strings.TrimSpace(privateKey) == "" {
		return nil, fmt.Errorf("wallet: private key is required")
	}
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return &Wallet{priv: priv, pub: priv.PublicKey()}, nil
}

// Load reads a keypair file if keyOrPath names one, otherwise it parses
// keyOrPath as the key itself.
func Load(keyOrPath string) (*Wallet, error) {
	keyOrPath = strings.TrimSpace(keyOrPath)
	if info, err := os.Stat(keyOrPath); err == nil && !info.IsDir() {
		b, err := os.ReadFile(keyOrPath)
		if err != nil {
			return nil, fmt.Errorf("wallet: read keypair file: %w", err)
		}
		return New(string(b))
	}
	return New(keyOrPath)
}

func (w *Wallet) Address() string             { return w.pub.String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }

// SignTx fills in the wallet's signature, replacing any placeholder the
// builder left. The wallet must be the only required signer.
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	if !tx.IsSigner(w.pub) {
		return ErrNotSigner
	}
	if n := tx.Message.Header.NumRequiredSignatures; n != 1 {
		return fmt.Errorf("wallet: transaction needs %d signatures, can only provide one", n)
	}
	tx.Signatures = nil
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("wallet: sign transaction: %w", err)
	}
	return nil
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}
