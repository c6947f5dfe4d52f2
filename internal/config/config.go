// Package config defines the bot's runtime configuration, populated from
// FLASHBOT_* environment variables on top of built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ailover379/solana-flash-loan-bot/internal/domain"
)

// Modes the bot can run in.
const (
	ModeLive   = "live"
	ModeDryRun = "dry-run"
)

// VenueConfig identifies one quote venue.
type VenueConfig struct {
	Name      string
	ProgramID string
	BaseURL   string // empty in dry-run mode, where stub venues are used
}

// Config is the root configuration structure. Fields are populated from
// defaults and then overridden by FLASHBOT_* environment variables.
type Config struct {
	Mode string

	// Cluster endpoints.
	RPCURL string
	WSURL  string

	// Wallet is the base58-encoded 64-byte signing key.
	WalletPrivateKey string

	// Flash-loan program and pool parties.
	ProgramID   string
	Authority   string
	Beneficiary string

	Venues []VenueConfig
	Pairs  []domain.AssetPair

	Scanner   ScannerConfig
	Selector  SelectorConfig
	Builder   BuilderConfig
	Scheduler SchedulerConfig
	Sim       SimConfig

	// Storage DSNs; empty selects the in-memory stores.
	PostgresDSN   string
	ClickhouseDSN string

	// StatusAddr enables the status HTTP server when non-empty.
	StatusAddr string
}

// ScannerConfig holds market scanning parameters.
type ScannerConfig struct {
	ProbeAmount         uint64
	MinProfitabilityBps int64
	GasEstimate         uint64
	CacheTTL            time.Duration
	CacheMaxEntries     int
	MaxInFlight         int
	QuoteTimeout        time.Duration
}

// SelectorConfig holds the opportunity admission policy.
type SelectorConfig struct {
	MinProfit           uint64
	MinProfitabilityBps int64
	MaxPositionSize     uint64
	DailyTxCap          uint64
	DailyVolumeCap      uint64
}

// BuilderConfig holds transaction assembly parameters.
type BuilderConfig struct {
	ComputeUnitLimit              uint32
	ComputeUnitPriceMicroLamports uint64
}

// SchedulerConfig holds control-loop timing and failure handling.
type SchedulerConfig struct {
	Interval               time.Duration
	SubmitTimeout          time.Duration
	BackoffBase            time.Duration
	BackoffCap             time.Duration
	Cooldown               time.Duration
	MaxConsecutiveFailures int
}

// SimConfig seeds the in-process ledger in dry-run mode.
type SimConfig struct {
	ReserveFunding  uint64
	PoolFeeBps      uint64
	ProfitTolerance uint64
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Mode:   ModeDryRun,
		RPCURL: "https://api.devnet.solana.com",
		WSURL:  "wss://api.devnet.solana.com",
		// Default venues carry well-known DEX program identities; base URLs
		// must come from the environment for live mode.
		Venues: []VenueConfig{
			{Name: "raydium", ProgramID: "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"},
			{Name: "orca", ProgramID: "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"},
		},
		// wSOL priced in USDC.
		Pairs: []domain.AssetPair{{
			Base:  "So11111111111111111111111111111111111111112",
			Quote: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		}},
		Scanner: ScannerConfig{
			ProbeAmount:         1_000_000,
			MinProfitabilityBps: 10,
			GasEstimate:         10_000,
			CacheTTL:            2 * time.Second,
			CacheMaxEntries:     256,
			MaxInFlight:         4,
			QuoteTimeout:        5 * time.Second,
		},
		Selector: SelectorConfig{
			MinProfit:           1_000,
			MinProfitabilityBps: 10,
		},
		Builder: BuilderConfig{
			ComputeUnitLimit: 400_000,
		},
		Scheduler: SchedulerConfig{
			Interval:               5 * time.Second,
			SubmitTimeout:          90 * time.Second,
			BackoffBase:            2 * time.Second,
			BackoffCap:             5 * time.Minute,
			Cooldown:               10 * time.Minute,
			MaxConsecutiveFailures: 5,
		},
		Sim: SimConfig{
			ReserveFunding: 1_000_000_000,
			PoolFeeBps:     50,
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLive, ModeDryRun:
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.ProgramID == "" {
		return fmt.Errorf("program id is required")
	}
	if c.Beneficiary == "" {
		return fmt.Errorf("beneficiary is required")
	}
	if len(c.Venues) < 2 {
		return fmt.Errorf("at least two venues are required, got %d", len(c.Venues))
	}
	seen := make(map[string]struct{}, len(c.Venues))
	for _, v := range c.Venues {
		if v.Name == "" || v.ProgramID == "" {
			return fmt.Errorf("venue %+v missing name or program id", v)
		}
		if c.Mode == ModeLive && v.BaseURL == "" {
			return fmt.Errorf("venue %s missing base url", v.Name)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("duplicate venue %s", v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	if c.Mode == ModeLive {
		if c.RPCURL == "" || c.WSURL == "" {
			return fmt.Errorf("rpc and ws urls are required in live mode")
		}
		if c.WalletPrivateKey == "" {
			return fmt.Errorf("wallet private key is required in live mode")
		}
	}
	if c.Scanner.ProbeAmount == 0 {
		return fmt.Errorf("probe amount must be positive")
	}
	if c.Scheduler.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("max consecutive failures must be positive")
	}
	return nil
}

// ParseVenues parses the FLASHBOT_VENUES format:
// semicolon-separated entries of "name,programID[,baseURL]".
func ParseVenues(s string) ([]VenueConfig, error) {
	var venues []VenueConfig
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid venue entry %q, want name,programID[,baseURL]", entry)
		}
		v := VenueConfig{
			Name:      strings.TrimSpace(parts[0]),
			ProgramID: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			v.BaseURL = strings.TrimSpace(parts[2])
		}
		venues = append(venues, v)
	}
	return venues, nil
}

// ParsePairs parses the FLASHBOT_PAIRS format:
// comma-separated "baseMint/quoteMint" entries.
func ParsePairs(s string) ([]domain.AssetPair, error) {
	var pairs []domain.AssetPair
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pair, err := domain.ParseAssetPair(entry)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
