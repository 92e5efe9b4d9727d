package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
)

const createQuotesTable = `
	CREATE TABLE IF NOT EXISTS quotes (
		recorded_at            DateTime64(3, 'UTC'),
		input_mint             String,
		output_mint            String,
		in_amount              UInt64,
		out_amount             UInt64,
		other_amount_threshold UInt64,
		swap_mode              LowCardinality(String),
		slippage_bps           UInt16,
		price_impact_pct       Decimal(38, 18),
		route_labels           Array(String),
		context_slot           UInt64
	) ENGINE = MergeTree
	ORDER BY (input_mint, output_mint, recorded_at)
`

const insertQuote = `
	INSERT INTO quotes (
		recorded_at, input_mint, output_mint, in_amount, out_amount,
		other_amount_threshold, swap_mode, slippage_bps, price_impact_pct,
		route_labels, context_slot
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type Config struct {
	Addr     string
	Database string
	Username string
	Password string
}

// QuoteRecord is one served quote as stored in the quotes table.
type QuoteRecord struct {
	RecordedAt           time.Time       `json:"recordedAt"`
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             uint64          `json:"inAmount,string"`
	OutAmount            uint64          `json:"outAmount,string"`
	OtherAmountThreshold uint64          `json:"otherAmountThreshold,string"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PriceImpactPct       decimal.Decimal `json:"priceImpactPct"`
	RouteLabels          []string        `json:"routeLabels"`
	ContextSlot          uint64          `json:"contextSlot"`
}

// Recorder is what the gateway needs from the journal.
type Recorder interface {
	RecordQuote(ctx context.Context, rec QuoteRecord) error
}

type Journal struct {
	conn driver.Conn
}

func Open(ctx context.Context, cfg Config) (*Journal, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Journal{conn: conn}, nil
}

func (j *Journal) EnsureSchema(ctx context.Context) error {
	if err := j.conn.Exec(ctx, createQuotesTable); err != nil {
		return fmt.Errorf("failed to create quotes table: %w", err)
	}
	return nil
}

func (j *Journal) RecordQuote(ctx context.Context, rec QuoteRecord) error {
	labels := rec.RouteLabels
	if labels == nil {
		labels = []string{}
	}

	err := j.conn.Exec(ctx, insertQuote,
		rec.RecordedAt,
		rec.InputMint,
		rec.OutputMint,
		rec.InAmount,
		rec.OutAmount,
		rec.OtherAmountThreshold,
		rec.SwapMode,
		rec.SlippageBps,
		rec.PriceImpactPct,
		labels,
		rec.ContextSlot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

func (j *Journal) Ping(ctx context.Context) error {
	return j.conn.Ping(ctx)
}

func (j *Journal) Close() error {
	return j.conn.Close()
}

// FromQuote projects a quote response onto a journal row.
func FromQuote(q *jupiter.QuoteResponse, at time.Time) QuoteRecord {
	return QuoteRecord{
		RecordedAt:           at.UTC(),
		InputMint:            q.InputMint.String(),
		OutputMint:           q.OutputMint.String(),
		InAmount:             q.InAmount,
		OutAmount:            q.OutAmount,
		OtherAmountThreshold: q.OtherAmountThreshold,
		SwapMode:             string(q.SwapMode),
		SlippageBps:          q.SlippageBps,
		PriceImpactPct:       q.PriceImpactPct,
		RouteLabels:          q.RouteLabels(),
		ContextSlot:          q.ContextSlot,
	}
}
