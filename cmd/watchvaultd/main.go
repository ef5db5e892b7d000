package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"watchvault/config"
	"watchvault/core"
	"watchvault/gateway"
	"watchvault/gateway/middleware"
	"watchvault/observability/logging"
	"watchvault/rpc"
	"watchvault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("WATCHVAULT_ENV"))
	logger := logging.Setup("watchvaultd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env == "" {
		env = cfg.Environment
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	mintAuthority, err := cfg.MintAuthorityAddress()
	if err != nil {
		logger.Error("Invalid mint authority", slog.Any("error", err))
		os.Exit(1)
	}
	oracleWriter, err := cfg.OracleWriterAddress()
	if err != nil {
		logger.Error("Invalid oracle writer", slog.Any("error", err))
		os.Exit(1)
	}

	node, err := core.NewNode(db, core.NodeConfig{
		MintAuthority:     mintAuthority,
		OracleWriter:      oracleWriter,
		CollateralRatioBP: cfg.CollateralRatioBP,
		InterestRateBP:    cfg.InterestRateBP,
		PausedModules:     cfg.PausedModules,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize node", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("node ready",
		slog.Uint64("height", node.Height()),
		slog.String("stateRoot", node.StateRoot().Hex()),
		slog.String("env", env))

	limits := map[string]middleware.RateLimit{}
	for _, key := range []string{"registry", "oracle", "lending", "fractional", "amm", "bank"} {
		limits[key] = middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimitPerMin,
			Burst:             cfg.RateLimitBurst,
		}
	}
	gatewayHandler := gateway.New(gateway.Config{
		Node:        node,
		RateLimiter: middleware.NewRateLimiter(limits, nil),
	})

	errCh := make(chan error, 2)

	go func() {
		logger.Info("gateway listening", slog.String("addr", cfg.GatewayAddress))
		errCh <- http.ListenAndServe(cfg.GatewayAddress, gatewayHandler)
	}()

	go func() {
		server := rpc.NewServer(node, cfg.RPCToken)
		logger.Info("rpc listening", slog.String("addr", cfg.RPCAddress))
		errCh <- server.Start(cfg.RPCAddress)
	}()

	if err := <-errCh; err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
