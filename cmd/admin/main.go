// Command admin performs the authority-gated pool operations against a
// deployed flash-loan program: pool creation, beneficiary rotation, fee
// withdrawal, and the pause toggle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ailover379/solana-flash-loan-bot/internal/config"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
	"github.com/ailover379/solana-flash-loan-bot/internal/txbuilder"
)

func main() {
	logger := log.New(os.Stdout, "[admin] ", log.LstdFlags)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if cfg.RPCURL == "" {
		logger.Fatal("FLASHBOT_RPC_URL is required")
	}
	if cfg.ProgramID == "" {
		logger.Fatal("FLASHBOT_PROGRAM_ID is required")
	}
	if cfg.WalletPrivateKey == "" {
		logger.Fatal("FLASHBOT_WALLET_PRIVATE_KEY is required")
	}

	signer, err := solana.KeypairFromBase58(cfg.WalletPrivateKey)
	if err != nil {
		logger.Fatalf("Decode wallet key: %v", err)
	}

	admin := txbuilder.NewAdminBuilder(cfg.ProgramID, signer.Pubkey())

	var ix *solana.Instruction
	switch cmd := os.Args[1]; cmd {
	case "initialize-pool":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		asset := fs.String("asset", "", "Asset mint address")
		beneficiary := fs.String("beneficiary", "", "Surplus recipient address")
		feeBps := fs.Uint64("fee-bps", 50, "Pool fee in basis points")
		fs.Parse(os.Args[2:])
		requireStr(logger, "asset", *asset)
		requireStr(logger, "beneficiary", *beneficiary)
		ix, err = admin.InitializePool(*asset, *beneficiary, *feeBps)

	case "update-beneficiary":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		asset := fs.String("asset", "", "Asset mint address")
		beneficiary := fs.String("beneficiary", "", "New surplus recipient address")
		fs.Parse(os.Args[2:])
		requireStr(logger, "asset", *asset)
		requireStr(logger, "beneficiary", *beneficiary)
		ix, err = admin.UpdateBeneficiary(*asset, *beneficiary)

	case "withdraw-fees":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		asset := fs.String("asset", "", "Asset mint address")
		recipient := fs.String("recipient", "", "Token account receiving the fees")
		amount := fs.Uint64("amount", 0, "Amount to withdraw, in base units")
		fs.Parse(os.Args[2:])
		requireStr(logger, "asset", *asset)
		requireStr(logger, "recipient", *recipient)
		if *amount == 0 {
			logger.Fatal("--amount must be positive")
		}
		ix, err = admin.WithdrawFees(*asset, *recipient, *amount)

	case "set-pause":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		asset := fs.String("asset", "", "Asset mint address")
		paused := fs.Bool("paused", true, "Pause (true) or resume (false) the pool")
		fs.Parse(os.Args[2:])
		requireStr(logger, "asset", *asset)
		ix, err = admin.SetPauseState(*asset, *paused)

	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("Build instruction: %v", err)
	}

	submitter := solana.NewSubmitter(solana.SubmitterOptions{
		RPC:    solana.NewHTTPClient(cfg.RPCURL),
		Signer: signer,
		Logger: logger,
	})

	result, err := submitter.Submit(context.Background(), []solana.Instruction{*ix}, solana.SubmitOptions{})
	if err != nil {
		logger.Fatalf("Submit: %v", err)
	}
	if result.RevertReason != "" {
		logger.Fatalf("Transaction %s reverted: %s", result.Signature, result.RevertReason)
	}
	logger.Printf("Committed: %s", result.Signature)
}

func requireStr(logger *log.Logger, name, v string) {
	if v == "" {
		logger.Fatalf("--%s is required", name)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command> [flags]

commands:
  initialize-pool     --asset --beneficiary [--fee-bps]
  update-beneficiary  --asset --beneficiary
  withdraw-fees       --asset --recipient --amount
  set-pause           --asset [--paused=true|false]

configuration comes from FLASHBOT_RPC_URL, FLASHBOT_PROGRAM_ID and
FLASHBOT_WALLET_PRIVATE_KEY (or a .env file).`)
}
