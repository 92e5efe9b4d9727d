package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keygenJSON(t *testing.T, priv solana.PrivateKey) string {
	t.Helper()
	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	out, err := json.Marshal(ints)
	require.NoError(t, err)
	return string(out)
}

func TestNew_Formats(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := New(priv.String())
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), w.PublicKey())

	w, err = New(keygenJSON(t, priv))
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey().String(), w.Address())
}

func TestNew_Invalid(t *testing.T) {
	for _, bad := range []string{"", "  ", "0OIl", "[1,2,3]", "[256]", "3mJr7AoUXx2Wqd"} {
		_, err := New(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoad_File(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, []byte(keygenJSON(t, priv)+"\n"), 0o600))

	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), w.PublicKey())

	w, err = Load(priv.String())
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), w.PublicKey())
}

func TestSignTx(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(priv.String())
	require.NoError(t, err)

	program := solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	ix := solana.NewInstruction(program, solana.AccountMetaSlice{
		solana.NewAccountMeta(w.PublicKey(), true, true),
	}, []byte{1})
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(w.PublicKey()))
	require.NoError(t, err)

	require.NoError(t, w.SignTx(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())

	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	stranger, err := New(other.String())
	require.NoError(t, err)
	assert.ErrorIs(t, stranger.SignTx(tx), ErrNotSigner)
}

func TestSignTx_ReplacesPlaceholder(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := New(priv.String())
	require.NoError(t, err)

	ix := solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(w.PublicKey(), true, true),
	}, []byte{2, 0, 0, 0})
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(w.PublicKey()))
	require.NoError(t, err)

	// unsigned transactions arrive with a zeroed signature slot
	tx.Signatures = []solana.Signature{{}}
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	decoded, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	require.Len(t, decoded.Signatures, 1)

	require.NoError(t, w.SignTx(decoded))
	require.Len(t, decoded.Signatures, 1)
	assert.NotEqual(t, solana.Signature{}, decoded.Signatures[0])
	assert.NoError(t, decoded.VerifySignatures())
}
