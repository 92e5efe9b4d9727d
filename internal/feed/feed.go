package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/journal"
)

const (
	// AllChannel carries every quote the gateway serves.
	AllChannel = "quotes:all"
	// PairPattern matches every per-pair channel.
	PairPattern = "quotes:pair:*"
)

// PairChannel is the channel for quotes from inputMint to outputMint.
func PairChannel(inputMint, outputMint string) string {
	return fmt.Sprintf("quotes:pair:%s:%s", inputMint, outputMint)
}

// Publisher is what the gateway needs from the feed.
type Publisher interface {
	PublishQuote(ctx context.Context, rec journal.QuoteRecord) error
}

// Feed fans served quotes out over Redis pub/sub.
type Feed struct {
	client *redis.Client
	logger *logrus.Logger
}

func New(client *redis.Client, logger *logrus.Logger) (*Feed, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Feed{client: client, logger: logger}, nil
}

// PublishQuote sends rec to the all-quotes channel and to its pair channel.
func (f *Feed) PublishQuote(ctx context.Context, rec journal.QuoteRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	pipe := f.client.Pipeline()
	pipe.Publish(ctx, AllChannel, data)
	pipe.Publish(ctx, PairChannel(rec.InputMint, rec.OutputMint), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish quote: %w", err)
	}
	return nil
}

// Subscribe calls handler for each quote published on channels matching
// pattern until ctx is done. Malformed messages are logged and skipped.
func (f *Feed) Subscribe(ctx context.Context, pattern string, handler func(*journal.QuoteRecord)) error {
	ps := f.client.PSubscribe(ctx, pattern)
	defer ps.Close()

	// wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}
	f.logger.WithField("pattern", pattern).Debug("subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var rec journal.QuoteRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				f.logger.WithError(err).WithField("channel", msg.Channel).Warn("skipping malformed quote")
				continue
			}
			handler(&rec)
		}
	}
}
