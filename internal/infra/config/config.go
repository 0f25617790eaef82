// internal/infra/config/config.go
package config

import (
	"os"
	"strings"
)

// Config holds the storefront's environment configuration.
type Config struct {
	Port string

	// Solana RPC endpoint and cluster name ("mainnet-beta", "devnet", …).
	SolanaRPCEndpoint string
	SolanaCluster     string

	// Candy machine / candy guard program accounts to serve.
	CandyMachineID string
	CandyGuardID   string

	// Group label the storefront defaults to when a request names none.
	DefaultGroupLabel string

	// Identity-gateway (captcha) issuer; empty disables the handshake
	// client even when a gatekeeper guard is configured.
	GatewayBaseURL string

	// Directory of per-group allow-list files (<label>.json with a JSON
	// array of wallet addresses). Empty skips allow-list loading.
	AllowlistDir string

	// Known token symbols for price display, "mint:SYMBOL" pairs
	// separated by commas.
	TokenSymbols map[string]string

	// Signing key for the session wallet: either a Secret Manager
	// version path (projects/…/secrets/…/versions/latest) or a local
	// solana-keygen key file. Secret wins when both are set.
	WalletKeySecret string
	WalletKeyFile   string

	// Frontend origin allowed by CORS.
	AllowedOrigin string

	// BatchMint submits a whole quantity as one transaction.
	BatchMint bool
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:              getenvDefault("PORT", "8080"),
		SolanaRPCEndpoint: getenvDefault("SOLANA_RPC_ENDPOINT", "https://api.devnet.solana.com"),
		SolanaCluster:     getenvDefault("SOLANA_CLUSTER", "devnet"),
		CandyMachineID:    os.Getenv("CANDY_MACHINE_ID"),
		CandyGuardID:      os.Getenv("CANDY_GUARD_ID"),
		DefaultGroupLabel: getenvDefault("DEFAULT_GUARD_GROUP", "default"),
		GatewayBaseURL:    os.Getenv("GATEWAY_BASE_URL"),
		AllowlistDir:      os.Getenv("ALLOWLIST_DIR"),
		TokenSymbols:      parseSymbolPairs(os.Getenv("TOKEN_SYMBOLS")),
		WalletKeySecret:   os.Getenv("SOLANA_WALLET_KEY_SECRET"),
		WalletKeyFile:     os.Getenv("SOLANA_WALLET_KEY_FILE"),
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),
		BatchMint:         os.Getenv("BATCH_MINT") == "true",
	}
}

// parseSymbolPairs parses "mint:SYMBOL,mint:SYMBOL" into a map.
func parseSymbolPairs(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			continue
		}
		mint := strings.TrimSpace(kv[0])
		sym := strings.TrimSpace(kv[1])
		if mint != "" && sym != "" {
			out[mint] = sym
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
