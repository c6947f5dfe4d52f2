package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load builds the Config from defaults plus FLASHBOT_* environment variable
// overrides. A .env file in the working directory is loaded first if present.
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load() (*Config, error) {
	// Silently ignore a missing .env file.
	_ = godotenv.Load()

	cfg := Defaults()

	setStr(&cfg.Mode, "FLASHBOT_MODE")
	setStr(&cfg.RPCURL, "FLASHBOT_RPC_URL")
	setStr(&cfg.WSURL, "FLASHBOT_WS_URL")
	setStr(&cfg.WalletPrivateKey, "FLASHBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.ProgramID, "FLASHBOT_PROGRAM_ID")
	setStr(&cfg.Authority, "FLASHBOT_AUTHORITY")
	setStr(&cfg.Beneficiary, "FLASHBOT_BENEFICIARY")

	if v := os.Getenv("FLASHBOT_VENUES"); v != "" {
		venues, err := ParseVenues(v)
		if err != nil {
			return nil, fmt.Errorf("FLASHBOT_VENUES: %w", err)
		}
		cfg.Venues = venues
	}
	if v := os.Getenv("FLASHBOT_PAIRS"); v != "" {
		pairs, err := ParsePairs(v)
		if err != nil {
			return nil, fmt.Errorf("FLASHBOT_PAIRS: %w", err)
		}
		cfg.Pairs = pairs
	}

	// Scanner
	setUint64(&cfg.Scanner.ProbeAmount, "FLASHBOT_SCANNER_PROBE_AMOUNT")
	setInt64(&cfg.Scanner.MinProfitabilityBps, "FLASHBOT_SCANNER_MIN_PROFITABILITY_BPS")
	setUint64(&cfg.Scanner.GasEstimate, "FLASHBOT_SCANNER_GAS_ESTIMATE")
	setDuration(&cfg.Scanner.CacheTTL, "FLASHBOT_SCANNER_CACHE_TTL")
	setInt(&cfg.Scanner.CacheMaxEntries, "FLASHBOT_SCANNER_CACHE_MAX_ENTRIES")
	setInt(&cfg.Scanner.MaxInFlight, "FLASHBOT_SCANNER_MAX_IN_FLIGHT")
	setDuration(&cfg.Scanner.QuoteTimeout, "FLASHBOT_SCANNER_QUOTE_TIMEOUT")

	// Selector
	setUint64(&cfg.Selector.MinProfit, "FLASHBOT_SELECTOR_MIN_PROFIT")
	setInt64(&cfg.Selector.MinProfitabilityBps, "FLASHBOT_SELECTOR_MIN_PROFITABILITY_BPS")
	setUint64(&cfg.Selector.MaxPositionSize, "FLASHBOT_SELECTOR_MAX_POSITION_SIZE")
	setUint64(&cfg.Selector.DailyTxCap, "FLASHBOT_SELECTOR_DAILY_TX_CAP")
	setUint64(&cfg.Selector.DailyVolumeCap, "FLASHBOT_SELECTOR_DAILY_VOLUME_CAP")

	// Builder
	setUint32(&cfg.Builder.ComputeUnitLimit, "FLASHBOT_BUILDER_COMPUTE_UNIT_LIMIT")
	setUint64(&cfg.Builder.ComputeUnitPriceMicroLamports, "FLASHBOT_BUILDER_COMPUTE_UNIT_PRICE")

	// Scheduler
	setDuration(&cfg.Scheduler.Interval, "FLASHBOT_SCHEDULER_INTERVAL")
	setDuration(&cfg.Scheduler.SubmitTimeout, "FLASHBOT_SCHEDULER_SUBMIT_TIMEOUT")
	setDuration(&cfg.Scheduler.BackoffBase, "FLASHBOT_SCHEDULER_BACKOFF_BASE")
	setDuration(&cfg.Scheduler.BackoffCap, "FLASHBOT_SCHEDULER_BACKOFF_CAP")
	setDuration(&cfg.Scheduler.Cooldown, "FLASHBOT_SCHEDULER_COOLDOWN")
	setInt(&cfg.Scheduler.MaxConsecutiveFailures, "FLASHBOT_SCHEDULER_MAX_CONSECUTIVE_FAILURES")

	// Simulation
	setUint64(&cfg.Sim.ReserveFunding, "FLASHBOT_SIM_RESERVE_FUNDING")
	setUint64(&cfg.Sim.PoolFeeBps, "FLASHBOT_SIM_POOL_FEE_BPS")
	setUint64(&cfg.Sim.ProfitTolerance, "FLASHBOT_SIM_PROFIT_TOLERANCE")

	// Storage and status
	setStr(&cfg.PostgresDSN, "FLASHBOT_POSTGRES_DSN")
	setStr(&cfg.ClickhouseDSN, "FLASHBOT_CLICKHOUSE_DSN")
	setStr(&cfg.StatusAddr, "FLASHBOT_STATUS_ADDR")

	return &cfg, nil
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint32(dst *uint32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
