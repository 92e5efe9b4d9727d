package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/rpc"
)

type Config struct {
	// Jupiter client settings
	JupiterBaseURL          string
	JupiterAPIKey           string
	JupiterTimeout          time.Duration
	JupiterConnectTimeout   time.Duration
	JupiterIdleConnTimeout  time.Duration
	JupiterMaxIdleConnsHost int

	// Gateway settings
	APIAddr       string
	APIKey        string
	DevMode       bool
	SwapRateLimit float64 // requests per second per client on swap routes
	SwapBurst     int

	// Redis settings, route toggles are disabled when the address is empty
	RedisAddr string

	// ClickHouse settings, journal is disabled when the address is empty
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	LogLevel string

	// Local signing and submission for jupctl swap
	WalletKey       string
	SolanaRPCURL    string
	RPCTimeout      time.Duration
	RPCMaxRetries   int
	RPCRetryBackoff time.Duration
}

func Load() *Config {
	return &Config{
		// Jupiter
		JupiterBaseURL:          getEnv("JUPITER_BASE_URL", jupiter.DefaultBaseURL),
		JupiterAPIKey:           getEnv("JUPITER_API_KEY", ""),
		JupiterTimeout:          getDurationEnv("JUPITER_TIMEOUT", 30*time.Second),
		JupiterConnectTimeout:   getDurationEnv("JUPITER_CONNECT_TIMEOUT", 5*time.Second),
		JupiterIdleConnTimeout:  getDurationEnv("JUPITER_IDLE_CONN_TIMEOUT", 90*time.Second),
		JupiterMaxIdleConnsHost: getIntEnv("JUPITER_MAX_IDLE_CONNS_PER_HOST", 10),

		// Gateway
		APIAddr: getEnv("API_ADDR", ":8080"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		SwapRateLimit: getFloatEnv("SWAP_RATE_LIMIT", 5),
		SwapBurst:     getIntEnv("SWAP_BURST", 10),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "jupiter"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Solana RPC
		WalletKey:       getEnv("WALLET_PRIVATE_KEY", ""),
		SolanaRPCURL:    getEnv("SOLANA_RPC_URL", rpc.DefaultURL),
		RPCTimeout:      getDurationEnv("RPC_TIMEOUT", 30*time.Second),
		RPCMaxRetries:   getIntEnv("RPC_MAX_RETRIES", 3),
		RPCRetryBackoff: getDurationEnv("RPC_RETRY_BACKOFF", 500*time.Millisecond),
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.JupiterBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("JUPITER_BASE_URL must be an absolute http(s) url")
	}
	if c.JupiterTimeout <= 0 {
		return fmt.Errorf("JUPITER_TIMEOUT must be > 0")
	}
	if c.JupiterConnectTimeout <= 0 {
		return fmt.Errorf("JUPITER_CONNECT_TIMEOUT must be > 0")
	}
	if c.JupiterMaxIdleConnsHost <= 0 {
		return fmt.Errorf("JUPITER_MAX_IDLE_CONNS_PER_HOST must be > 0")
	}
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	if c.SwapRateLimit <= 0 {
		return fmt.Errorf("SWAP_RATE_LIMIT must be > 0")
	}
	if c.SwapBurst <= 0 {
		return fmt.Errorf("SWAP_BURST must be > 0")
	}
	if !c.DevMode && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required unless DEV_MODE is set")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// ClientConfig maps the JUPITER_* settings onto the client.
func (c *Config) ClientConfig(logger *logrus.Logger) jupiter.ClientConfig {
	return jupiter.ClientConfig{
		BaseURL:             c.JupiterBaseURL,
		APIKey:              c.JupiterAPIKey,
		Timeout:             c.JupiterTimeout,
		ConnectTimeout:      c.JupiterConnectTimeout,
		MaxIdleConnsPerHost: c.JupiterMaxIdleConnsHost,
		IdleConnTimeout:     c.JupiterIdleConnTimeout,
		Logger:              logger,
	}
}

// RPCConfig maps the SOLANA_RPC_URL and RPC_* settings onto the RPC client.
func (c *Config) RPCConfig(logger *logrus.Logger) rpc.ClientConfig {
	return rpc.ClientConfig{
		BaseURL:      c.SolanaRPCURL,
		Timeout:      c.RPCTimeout,
		MaxRetries:   c.RPCMaxRetries,
		RetryBackoff: c.RPCRetryBackoff,
		Logger:       logger,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
