package commands

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/config"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/feed"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/journal"
)

type watchOptions struct {
	redisAddr string
	in        string
	out       string
}

// channel picks the feed channel for the --in/--out filter.
func (o *watchOptions) channel() (string, error) {
	if o.in == "" && o.out == "" {
		return feed.AllChannel, nil
	}
	if o.in == "" || o.out == "" {
		return "", fmt.Errorf("--in and --out must be set together")
	}
	in, err := solana.PublicKeyFromBase58(o.in)
	if err != nil {
		return "", fmt.Errorf("invalid --in: %w", err)
	}
	out, err := solana.PublicKeyFromBase58(o.out)
	if err != nil {
		return "", fmt.Errorf("invalid --out: %w", err)
	}
	return feed.PairChannel(in.String(), out.String()), nil
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	o := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream quotes served by the gateway",
		Long:  `watch subscribes to the gateway's Redis quote feed and prints one JSON line per quote.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			channel, err := o.channel()
			if err != nil {
				return err
			}
			addr := o.redisAddr
			if addr == "" {
				addr = config.Load().RedisAddr
			}
			if addr == "" {
				return fmt.Errorf("--redis or REDIS_ADDR is required")
			}

			client := redis.NewClient(&redis.Options{Addr: addr})
			defer client.Close()

			logger := root.logger(cmd)
			qf, err := feed.New(client, logger)
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{"redis": addr, "channel": channel}).Info("watching quotes")
			enc := json.NewEncoder(cmd.OutOrStdout())
			return qf.Subscribe(cmd.Context(), channel, func(rec *journal.QuoteRecord) {
				if err := enc.Encode(rec); err != nil {
					logger.WithError(err).Warn("failed to print quote")
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.redisAddr, "redis", "", "redis address (default $REDIS_ADDR)")
	f.StringVar(&o.in, "in", "", "only quotes from this input mint")
	f.StringVar(&o.out, "out", "", "only quotes to this output mint")
	return cmd
}
