package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ailover379/solana-flash-loan-bot/internal/config"
	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
	"github.com/ailover379/solana-flash-loan-bot/internal/flashloan"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote"
	"github.com/ailover379/solana-flash-loan-bot/internal/quote/stub"
	"github.com/ailover379/solana-flash-loan-bot/internal/scanner"
	"github.com/ailover379/solana-flash-loan-bot/internal/scheduler"
	"github.com/ailover379/solana-flash-loan-bot/internal/selector"
	"github.com/ailover379/solana-flash-loan-bot/internal/simulation"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
	"github.com/ailover379/solana-flash-loan-bot/internal/stats"
	"github.com/ailover379/solana-flash-loan-bot/internal/status"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage"
	chstore "github.com/ailover379/solana-flash-loan-bot/internal/storage/clickhouse"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage/memory"
	"github.com/ailover379/solana-flash-loan-bot/internal/storage/migrations"
	pgstore "github.com/ailover379/solana-flash-loan-bot/internal/storage/postgres"
	"github.com/ailover379/solana-flash-loan-bot/internal/txbuilder"
)

func main() {
	mode := flag.String("mode", "", "Override FLASHBOT_MODE: live or dry-run")
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	signer, err := loadSigner(cfg)
	if err != nil {
		logger.Fatalf("Load signer: %v", err)
	}

	// Dry-run mode settles against an in-process ledger, so missing
	// on-chain identities are filled with generated ones.
	if cfg.Mode == config.ModeDryRun {
		if cfg.ProgramID == "" {
			cfg.ProgramID = mustNewPubkey(logger)
		}
		if cfg.Authority == "" {
			cfg.Authority = signer.Pubkey()
		}
		if cfg.Beneficiary == "" {
			cfg.Beneficiary = mustNewPubkey(logger)
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, logger, cfg, signer)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// loadSigner decodes the configured wallet key, or generates an ephemeral
// one for dry-run mode.
func loadSigner(cfg *config.Config) (*solana.Keypair, error) {
	if cfg.WalletPrivateKey != "" {
		return solana.KeypairFromBase58(cfg.WalletPrivateKey)
	}
	if cfg.Mode != config.ModeDryRun {
		return nil, fmt.Errorf("FLASHBOT_WALLET_PRIVATE_KEY is required in live mode")
	}
	return solana.NewKeypair()
}

func mustNewPubkey(logger *log.Logger) string {
	kp, err := solana.NewKeypair()
	if err != nil {
		logger.Fatalf("Generate keypair: %v", err)
	}
	return kp.Pubkey()
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, signer *solana.Keypair) error {
	tracker := stats.NewTracker()

	// Stores: in-memory unless DSNs are configured.
	var attemptStore storage.AttemptStore = memory.NewAttemptStore()
	var quoteStore storage.QuoteStore = memory.NewQuoteStore()

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		attemptStore = pgstore.NewAttemptStore(pool)
	}
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		quoteStore = chstore.NewQuoteStore(conn)
	}

	// Venues.
	venueClients := make([]quote.Client, 0, len(cfg.Venues))
	venueMap := make(map[string]quote.Client, len(cfg.Venues))
	var stubs []*stub.Client
	for _, v := range cfg.Venues {
		var client quote.Client
		if cfg.Mode == config.ModeLive {
			client = quote.NewHTTPClient(v.Name, v.ProgramID, v.BaseURL)
		} else {
			sc := stub.NewClient(v.Name, v.ProgramID)
			stubs = append(stubs, sc)
			client = sc
		}
		venueClients = append(venueClients, client)
		venueMap[v.Name] = client
	}
	if cfg.Mode == config.ModeDryRun {
		seedStubPrices(stubs, cfg.Pairs)
	}

	scan := scanner.New(scanner.Options{
		Venues:              venueClients,
		Cache:               scanner.NewPriceCache(cfg.Scanner.CacheTTL, cfg.Scanner.CacheMaxEntries),
		QuoteStore:          quoteStore,
		ProbeAmount:         cfg.Scanner.ProbeAmount,
		MinProfitabilityBps: cfg.Scanner.MinProfitabilityBps,
		GasEstimate:         cfg.Scanner.GasEstimate,
		MaxInFlight:         cfg.Scanner.MaxInFlight,
		QuoteTimeout:        cfg.Scanner.QuoteTimeout,
		Logger:              logger,
	})

	sel := selector.New(selector.Policy{
		MinProfit:           cfg.Selector.MinProfit,
		MinProfitabilityBps: cfg.Selector.MinProfitabilityBps,
		MaxPositionSize:     cfg.Selector.MaxPositionSize,
		DailyTxCap:          cfg.Selector.DailyTxCap,
		DailyVolumeCap:      cfg.Selector.DailyVolumeCap,
	}, logger)

	builder := txbuilder.New(txbuilder.Options{
		ProgramID:                     cfg.ProgramID,
		Wallet:                        signer.Pubkey(),
		Beneficiary:                   cfg.Beneficiary,
		Venues:                        venueMap,
		ComputeUnitLimit:              cfg.Builder.ComputeUnitLimit,
		ComputeUnitPriceMicroLamports: cfg.Builder.ComputeUnitPriceMicroLamports,
	})

	var (
		submitter scheduler.Submitter
		health    scheduler.Health
	)
	if cfg.Mode == config.ModeLive {
		rpc := solana.NewHTTPClient(cfg.RPCURL)
		ws, err := solana.NewWSClient(ctx, cfg.WSURL, nil)
		if err != nil {
			logger.Printf("websocket unavailable, confirmations fall back to polling: %v", err)
			ws = nil
		} else {
			defer ws.Close()
		}
		var wsClient solana.WSClient
		if ws != nil {
			wsClient = ws
		}
		submitter = scheduler.NewClusterSubmitter(solana.NewSubmitter(solana.SubmitterOptions{
			RPC:    rpc,
			WS:     wsClient,
			Signer: signer,
			Logger: logger,
		}))
		health = rpc
	} else {
		engine, err := setupSimulation(cfg, logger)
		if err != nil {
			return err
		}
		submitter = simulation.NewSubmitter(simulation.Options{
			Engine:    engine,
			ProgramID: cfg.ProgramID,
			Borrower:  signer.Pubkey(),
			Logger:    logger,
		})
	}

	// Status server.
	if cfg.StatusAddr != "" {
		statusSrv := status.NewServer(status.Options{
			Addr:     cfg.StatusAddr,
			Stats:    tracker,
			Attempts: attemptStore,
			Logger:   logger,
		})
		go func() {
			if err := statusSrv.Start(); err != nil {
				logger.Printf("status server: %v", err)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := statusSrv.Shutdown(shutCtx); err != nil {
				logger.Printf("status server shutdown: %v", err)
			}
		}()
	}

	runner := scheduler.NewRunner(scheduler.Options{
		Scanner:       scan,
		Selector:      sel,
		Builder:       builder,
		Submitter:     submitter,
		Health:        health,
		Stats:         tracker,
		Attempts:      attemptStore,
		Pairs:         cfg.Pairs,
		Interval:      cfg.Scheduler.Interval,
		SubmitTimeout: cfg.Scheduler.SubmitTimeout,
		Backoff: scheduler.BackoffConfig{
			Base:                   cfg.Scheduler.BackoffBase,
			Cap:                    cfg.Scheduler.BackoffCap,
			Cooldown:               cfg.Scheduler.Cooldown,
			MaxConsecutiveFailures: cfg.Scheduler.MaxConsecutiveFailures,
		},
		Logger: logger,
	})

	logger.Printf("Starting bot in %s mode...", cfg.Mode)
	return runner.Run(ctx)
}

// setupSimulation builds the in-process ledger, initializes one pool per
// borrowed mint, and seeds each reserve.
func setupSimulation(cfg *config.Config, logger *log.Logger) (*flashloan.Engine, error) {
	venuePrograms := make([]string, 0, len(cfg.Venues))
	for _, v := range cfg.Venues {
		venuePrograms = append(venuePrograms, v.ProgramID)
	}

	ledger := flashloan.NewLedger()
	engine := flashloan.NewEngine(ledger, flashloan.Config{
		ProgramID:            cfg.ProgramID,
		AllowedVenuePrograms: venuePrograms,
		ProfitTolerance:      cfg.Sim.ProfitTolerance,
		Logger:               logger,
	})

	seen := make(map[string]struct{})
	for _, pair := range cfg.Pairs {
		asset := pair.Quote
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}

		if _, err := engine.InitializePool(asset, cfg.Authority, cfg.Beneficiary, cfg.Sim.PoolFeeBps); err != nil {
			return nil, fmt.Errorf("initialize pool for %s: %w", asset, err)
		}
		reserve, err := engine.ReserveAddress(asset)
		if err != nil {
			return nil, fmt.Errorf("derive reserve for %s: %w", asset, err)
		}
		if err := ledger.Fund(reserve, asset, cfg.Sim.ReserveFunding); err != nil {
			return nil, fmt.Errorf("fund reserve for %s: %w", asset, err)
		}
	}
	return engine, nil
}

// seedStubPrices gives each stub venue a slightly different rate per pair so
// dry-run scans produce a spread. Later venues quote about 100 bps more base
// per borrowed unit, comfortably above the default pool fee.
func seedStubPrices(stubs []*stub.Client, pairs []domain.AssetPair) {
	for _, pair := range pairs {
		for i, venue := range stubs {
			rate := 0.001 * (1 + 0.01*float64(i))
			venue.SetPrice(pair.Quote, pair.Base, rate)
			venue.SetPrice(pair.Base, pair.Quote, 1/rate)
		}
	}
}
