// Package config loads service configuration from environment variables,
// following the teacher's requireEnv/getEnvOrDefault split rather than a
// config-file format.
package config

import (
	"log"
	"os"
)

// Config holds every environment-derived setting the service needs.
type Config struct {
	RPCURL          string
	BasescanAPIKey  string
	FacilitatorURL  string
	PayToAddress    string
	Network         string
	Price           string
	DatabaseURL     string
	APIAuthToken    string
	Port            string
	EnableSynthetic bool
}

// Load reads the environment into a Config. PayToAddress is required unless
// ENABLE_SYNTHETIC=true, mirroring the original's required WALLET_ADDRESS —
// a local/dev deployment with synthetic payments doesn't need a real payout
// address wired up.
func Load() Config {
	synthetic := os.Getenv("ENABLE_SYNTHETIC") == "true"

	payTo := os.Getenv("PAY_TO_ADDRESS")
	if payTo == "" && !synthetic {
		log.Fatalf("FATAL: PAY_TO_ADDRESS environment variable is required " +
			"(or set ENABLE_SYNTHETIC=true for local development).")
	}

	return Config{
		RPCURL:          getEnvOrDefault("RPC_URL", "https://mainnet.base.org"),
		BasescanAPIKey:  os.Getenv("BASESCAN_API_KEY"),
		FacilitatorURL:  getEnvOrDefault("FACILITATOR_URL", "https://v2.facilitator.mogami.tech"),
		PayToAddress:    payTo,
		Network:         getEnvOrDefault("NETWORK", "eip155:8453"),
		Price:           getEnvOrDefault("PRICE", "$0.10"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		APIAuthToken:    os.Getenv("API_AUTH_TOKEN"),
		Port:            getEnvOrDefault("PORT", "5339"),
		EnableSynthetic: synthetic,
	}
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
