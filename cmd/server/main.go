package main

import (
	"context"
	"log"

	"github.com/rawblock/evm-risk-engine/internal/config"
	"github.com/rawblock/evm-risk-engine/internal/engine"
	"github.com/rawblock/evm-risk-engine/internal/httpapi"
	"github.com/rawblock/evm-risk-engine/internal/paygate"
	"github.com/rawblock/evm-risk-engine/internal/reputation"
	"github.com/rawblock/evm-risk-engine/internal/rpcclient"
	"github.com/rawblock/evm-risk-engine/internal/statslog"
)

func main() {
	log.Println("Starting EVM Risk Engine...")

	cfg := config.Load()

	var stats *statslog.Store
	if cfg.DatabaseURL != "" {
		s, err := statslog.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without request statistics. Error: %v", err)
		} else {
			stats = s
			defer stats.Close()
		}
	} else {
		log.Println("DATABASE_URL not set — running without request statistics")
	}

	rpc := rpcclient.New()
	rep := reputation.New()
	eng := engine.New(rpc, rep)

	hub := httpapi.NewHub()
	go hub.Run()

	gate := paygate.New(cfg.FacilitatorURL, paygate.Requirements{
		Scheme:  "exact",
		Network: cfg.Network,
		Asset:   "USDC",
		PayTo:   cfg.PayToAddress,
		Amount:  cfg.Price,
	}, cfg.EnableSynthetic)

	if cfg.EnableSynthetic {
		log.Println("WARNING: ENABLE_SYNTHETIC=true — payment gate is bypassed")
	}
	if cfg.BasescanAPIKey == "" {
		log.Println("WARNING: BASESCAN_API_KEY not set — deployer reputation checks are disabled")
	}

	r := httpapi.SetupRouter(httpapi.Deps{
		Engine:      eng,
		Stats:       stats,
		Gate:        gate,
		Hub:         hub,
		RPCURL:      cfg.RPCURL,
		ExplorerKey: cfg.BasescanAPIKey,
		AuthToken:   cfg.APIAuthToken,
		Price:       cfg.Price,
		Network:     cfg.Network,
		PayTo:       cfg.PayToAddress,
	})

	log.Printf("Engine running on :%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
