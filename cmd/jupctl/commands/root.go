package commands

// jupctl talks to the swap API directly, without the gateway.
// Connection settings come from flags, then JUPITER_* variables and .env.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/config"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
)

type rootOptions struct {
	baseURL string
	apiKey  string
	verbose bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "jupctl",
		Short:         "Query the Jupiter swap API from the command line",
		Long:          `jupctl fetches quotes and builds swap transactions or swap instructions against the Jupiter swap API, and can follow the gateway's quote feed.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "swap API base url (default $JUPITER_BASE_URL or "+jupiter.DefaultBaseURL+")")
	cmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key sent as x-api-key (default $JUPITER_API_KEY)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log request traces to stderr")

	cmd.AddCommand(newQuoteCmd(opts))
	cmd.AddCommand(newSwapCmd(opts))
	cmd.AddCommand(newSwapInstructionsCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

func Execute() error {
	// a missing .env is fine
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) client(cmd *cobra.Command) (*jupiter.Client, error) {
	cfg := config.Load()
	if o.baseURL != "" {
		cfg.JupiterBaseURL = o.baseURL
	}
	if o.apiKey != "" {
		cfg.JupiterAPIKey = o.apiKey
	}

	c, err := jupiter.NewClient(cfg.ClientConfig(o.logger(cmd)))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func (o *rootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.WarnLevel)
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
