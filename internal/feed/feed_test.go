package feed

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/journal"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testRecord() journal.QuoteRecord {
	return journal.QuoteRecord{
		RecordedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		InputMint:      solMint,
		OutputMint:     usdcMint,
		InAmount:       1_000_000_000,
		OutAmount:      152_000_000,
		SwapMode:       "ExactIn",
		SlippageBps:    50,
		PriceImpactPct: decimal.RequireFromString("0.00012"),
		RouteLabels:    []string{"Whirlpool"},
		ContextSlot:    299283763,
	}
}

func TestPairChannel(t *testing.T) {
	assert.Equal(t, "quotes:pair:"+solMint+":"+usdcMint, PairChannel(solMint, usdcMint))
}

func TestNew_NilClient(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestPublishSubscribe(t *testing.T) {
	client := setupTestRedis(t)
	logger, _ := test.NewNullLogger()
	f, err := New(client, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan *journal.QuoteRecord, 16)
	done := make(chan error, 1)
	go func() {
		done <- f.Subscribe(ctx, PairChannel(solMint, usdcMint), func(rec *journal.QuoteRecord) {
			got <- rec
		})
	}()

	want := testRecord()
	var rec *journal.QuoteRecord
	require.Eventually(t, func() bool {
		require.NoError(t, f.PublishQuote(ctx, want))
		select {
		case rec = <-got:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, want.InAmount, rec.InAmount)
	assert.Equal(t, want.RouteLabels, rec.RouteLabels)
	assert.True(t, want.PriceImpactPct.Equal(rec.PriceImpactPct))
	assert.True(t, want.RecordedAt.Equal(rec.RecordedAt))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestSubscribe_SkipsMalformed(t *testing.T) {
	client := setupTestRedis(t)
	logger, hook := test.NewNullLogger()
	f, err := New(client, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan *journal.QuoteRecord, 16)
	go func() {
		_ = f.Subscribe(ctx, AllChannel, func(rec *journal.QuoteRecord) { got <- rec })
	}()

	require.Eventually(t, func() bool {
		require.NoError(t, client.Publish(ctx, AllChannel, "not json").Err())
		require.NoError(t, f.PublishQuote(ctx, testRecord()))
		select {
		case <-got:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "skipping malformed quote" {
			warned = true
		}
	}
	assert.True(t, warned)
}
