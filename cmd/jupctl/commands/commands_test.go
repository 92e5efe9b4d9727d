package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sol  = "So11111111111111111111111111111111111111112"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	amm  = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
)

const quoteBody = `{
	"inputMint": "` + sol + `", "inAmount": "1000", "outputMint": "` + usdc + `", "outAmount": "152",
	"otherAmountThreshold": "151", "swapMode": "ExactIn", "slippageBps": 50, "platformFee": null,
	"priceImpactPct": "0", "contextSlot": 1, "timeTaken": 0.01,
	"routePlan": [{"swapInfo": {"ammKey": "` + amm + `", "label": "Whirlpool", "inputMint": "` + sol + `",
		"outputMint": "` + usdc + `", "inAmount": "1000", "outAmount": "152", "feeAmount": "1", "feeMint": "` + sol + `"},
		"percent": 100}]
}`

const instructionsBody = `{
	"computeBudgetInstructions": [{"programId": "ComputeBudget111111111111111111111111111111", "accounts": [], "data": "AsBcFQA="}],
	"setupInstructions": [],
	"swapInstruction": {"programId": "` + amm + `", "accounts": [{"pubkey": "` + sol + `", "isSigner": true, "isWritable": true}], "data": "AQID"},
	"cleanupInstruction": {"programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", "accounts": [], "data": ""},
	"otherInstructions": [],
	"addressLookupTableAddresses": [],
	"prioritizationFeeLamports": 0,
	"computeUnitLimit": 1400000
}`

type fakeAPI struct {
	quoteQuery url.Values
	swapBody   map[string]any
}

func unsignedSwapTx(t *testing.T, payer solana.PublicKey) string {
	t.Helper()
	ix := solana.NewInstruction(solana.MustPublicKeyFromBase58(amm), solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
	}, []byte{1})
	tx, err := solana.NewTransaction([]solana.Instruction{ix, ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	tx.Signatures = []solana.Signature{{}}
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	t.Setenv("WALLET_PRIVATE_KEY", "")
	f := &fakeAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		f.quoteQuery = r.URL.Query()
		_, _ = io.WriteString(w, quoteBody)
	})
	mux.HandleFunc("/swap", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.swapBody)
		user, _ := f.swapBody["userPublicKey"].(string)
		payer, err := solana.PublicKeyFromBase58(user)
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"swapTransaction":"`+unsignedSwapTx(t, payer)+`","lastValidBlockHeight":99,"prioritizationFeeLamports":5000,"computeUnitLimit":300000}`)
	})
	mux.HandleFunc("/swap-instructions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.swapBody)
		_, _ = io.WriteString(w, instructionsBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	f, srv := newFakeAPI(t)

	out, err := run(t, "quote", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--dexes", "Whirlpool,Raydium", "--only-direct-routes")
	require.NoError(t, err)

	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, "152", q["outAmount"])

	assert.Equal(t, sol, f.quoteQuery.Get("inputMint"))
	assert.Equal(t, "1000", f.quoteQuery.Get("amount"))
	assert.Equal(t, "50", f.quoteQuery.Get("slippageBps"))
	assert.Equal(t, "ExactIn", f.quoteQuery.Get("swapMode"))
	assert.Equal(t, "Whirlpool,Raydium", f.quoteQuery.Get("dexes"))
	assert.Equal(t, "true", f.quoteQuery.Get("onlyDirectRoutes"))
	assert.Empty(t, f.quoteQuery.Get("asLegacyTransaction"))
}

func TestQuoteCommand_RequiredFlags(t *testing.T) {
	_, err := run(t, "quote", "--in", sol)
	assert.Error(t, err)

	_, err = run(t, "quote", "--base-url", "http://127.0.0.1:1", "--in", "not-a-key", "--out", usdc, "--amount", "1")
	assert.ErrorContains(t, err, "--in")
}

func TestSwapCommand(t *testing.T) {
	f, srv := newFakeAPI(t)

	out, err := run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--user", sol, "--priority-fee", "jito:10000", "--cu-price", "auto", "--dynamic-cu-limit", "--legacy")
	require.NoError(t, err)

	var summary swapSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, uint64(99), summary.LastValidBlockHeight)
	assert.Equal(t, uint32(300000), summary.ComputeUnitLimit)
	assert.Equal(t, 2, summary.Instructions)
	assert.Equal(t, uint8(1), summary.RequiredSignatures)
	assert.Equal(t, []string{"Whirlpool"}, summary.Route)

	assert.Equal(t, "true", f.quoteQuery.Get("asLegacyTransaction"))
	assert.Equal(t, sol, f.swapBody["userPublicKey"])
	assert.Equal(t, true, f.swapBody["dynamicComputeUnitLimit"])
	assert.Equal(t, true, f.swapBody["asLegacyTransaction"])
	assert.Equal(t, "auto", f.swapBody["computeUnitPriceMicroLamports"])
	assert.Equal(t, map[string]any{"jitoTipLamports": float64(10000)}, f.swapBody["prioritizationFeeLamports"])
}

func TestSwapCommand_SignsWithKeypair(t *testing.T) {
	f, srv := newFakeAPI(t)
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	out, err := run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--keypair", priv.String())
	require.NoError(t, err)

	assert.Equal(t, priv.PublicKey().String(), f.swapBody["userPublicKey"])

	var summary swapSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.NotEmpty(t, summary.SignedTransaction)

	raw, err := base64.StdEncoding.DecodeString(summary.SignedTransaction)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	require.Len(t, tx.Signatures, 1)
	assert.Equal(t, summary.Signature, tx.Signatures[0].String())
	assert.NoError(t, tx.VerifySignatures())
}

func TestSwapCommand_UserRequired(t *testing.T) {
	f, srv := newFakeAPI(t)

	_, err := run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000")
	assert.ErrorContains(t, err, "--user or --keypair")
	assert.Nil(t, f.quoteQuery)

	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	_, err = run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--user", sol, "--keypair", priv.String())
	assert.ErrorContains(t, err, "does not match")
}

func TestSwapCommand_BadFeeFailsBeforeQuote(t *testing.T) {
	f, srv := newFakeAPI(t)

	_, err := run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--user", sol, "--priority-fee", "tip:5")
	assert.ErrorContains(t, err, "--priority-fee")
	assert.Nil(t, f.quoteQuery)
}

func TestSwapInstructionsCommand(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, err := run(t, "swap-instructions", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--user", sol)
	require.NoError(t, err)

	var summary instructionsSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.ComputeBudget)
	assert.Equal(t, 0, summary.Setup)
	assert.True(t, summary.Cleanup)
	assert.False(t, summary.TokenLedger)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, amm, summary.SwapProgram.String())
	assert.Equal(t, uint32(1_400_000), summary.ComputeUnitLimit)
}

func TestWatchChannel(t *testing.T) {
	tests := []struct {
		name    string
		opts    watchOptions
		want    string
		wantErr string
	}{
		{"all", watchOptions{}, "quotes:all", ""},
		{"pair", watchOptions{in: sol, out: usdc}, "quotes:pair:" + sol + ":" + usdc, ""},
		{"half pair", watchOptions{in: sol}, "", "set together"},
		{"bad mint", watchOptions{in: sol, out: "nope"}, "", "--out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.channel()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatchCommand_RequiresRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	_, err := run(t, "watch")
	assert.ErrorContains(t, err, "REDIS_ADDR")
}

func newFakeRPC(t *testing.T) (*[]string, *httptest.Server) {
	t.Helper()
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		methods = append(methods, req.Method)
		id := string(req.ID)
		if id == "" {
			id = "1"
		}

		switch req.Method {
		case "sendTransaction":
			var encoded string
			require.NoError(t, json.Unmarshal(req.Params[0], &encoded))
			raw, err := base64.StdEncoding.DecodeString(encoded)
			require.NoError(t, err)
			tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
			require.NoError(t, err)
			_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":`+id+`,"result":"`+tx.Signatures[0].String()+`"}`)
		case "getSignatureStatuses":
			_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":`+id+`,"result":{"context":{"slot":77},"value":[{"slot":77,"err":null,"confirmationStatus":"confirmed"}]}}`)
		default:
			http.Error(w, "unexpected method", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return &methods, srv
}

func TestSwapCommand_Send(t *testing.T) {
	_, srv := newFakeAPI(t)
	methods, rpcSrv := newFakeRPC(t)
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	out, err := run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--keypair", priv.String(), "--send", "--rpc-url", rpcSrv.URL)
	require.NoError(t, err)

	var summary swapSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.Sent)
	assert.Equal(t, "confirmed", summary.ConfirmationStatus)
	assert.Equal(t, uint64(77), summary.Slot)
	assert.NotEmpty(t, summary.Signature)
	assert.Equal(t, []string{"sendTransaction", "getSignatureStatuses"}, *methods)
}

func TestSwapCommand_SendValidation(t *testing.T) {
	f, srv := newFakeAPI(t)
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--user", sol, "--send")
	assert.ErrorContains(t, err, "--send requires --keypair")

	_, err = run(t, "swap", "--base-url", srv.URL, "--in", sol, "--out", usdc, "--amount", "1000",
		"--keypair", priv.String(), "--send", "--commitment", "max")
	assert.ErrorContains(t, err, "--commitment")
	assert.Nil(t, f.quoteQuery)
}
