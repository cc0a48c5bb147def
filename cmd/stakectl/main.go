package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"stakepool/config"
	"stakepool/gateway/routes"
	"stakepool/native/bank"
	"stakepool/native/stakepool"
	"stakepool/observability/logging"
	telemetry "stakepool/observability/otel"
	"stakepool/storage"
)

const (
	serviceName   = "stakectl"
	defaultConfig = "./stakepool.toml"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stakectl [-config path] <command> [flags]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  init                                    initialise the ledger from the configured identities")
	fmt.Fprintln(w, "  credit -account <addr> -amount <n>      fund a wallet from outside the ledger")
	fmt.Fprintln(w, "  contribute -staker <addr> -amount <n> [-referrer <addr>]")
	fmt.Fprintln(w, "  withdraw -staker <addr> -amount <n>")
	fmt.Fprintln(w, "  claim -staker <addr>")
	fmt.Fprintln(w, "  distribute-bonus")
	fmt.Fprintln(w, "  distribute-referral -caller <addr> [-force]")
	fmt.Fprintln(w, "  status [-staker <addr>]")
	fmt.Fprintln(w, "  balances")
	fmt.Fprintln(w, "  serve                                   expose the read-only query API")
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	configPath := global.String("config", defaultConfig, "Path to the stakepool config file (.toml or .yaml)")
	global.SetOutput(out)
	global.Usage = func() { usage(out) }
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		usage(out)
		return errors.New("command required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logWriter, logCloser := logging.Writer(logging.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logCloser.Close()
	logger := logging.SetupWithWriter(logWriter, serviceName, cfg.Environment)
	logger.Info("configuration loaded", logging.MaskField("config", filepath.Clean(*configPath)))

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err.Error())
		}
	}()

	params, err := cfg.StakepoolParams()
	if err != nil {
		return err
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	defer db.Close()

	h := newHost(db, params, cfg.Protocol.Paused, logger)
	return dispatch(ctx, h, cfg, rest[0], rest[1:], out)
}

func dispatch(ctx context.Context, h *host, cfg *config.Config, command string, args []string, out io.Writer) error {
	switch command {
	case "init":
		return runInit(ctx, h, cfg, out)
	case "credit":
		return runCredit(ctx, h, args, out)
	case "contribute":
		return runContribute(ctx, h, args, out)
	case "withdraw":
		return runWithdraw(ctx, h, args, out)
	case "claim":
		return runClaim(ctx, h, args, out)
	case "distribute-bonus":
		return runDistributeBonus(ctx, h, out)
	case "distribute-referral":
		return runDistributeReferral(ctx, h, args, out)
	case "status":
		return runStatus(h, args, out)
	case "balances":
		return runBalances(h, out)
	case "serve":
		return runServe(ctx, h, cfg)
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAddress(flagName, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return common.Address{}, fmt.Errorf("-%s is required", flagName)
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("-%s: invalid address %q", flagName, trimmed)
	}
	return common.HexToAddress(trimmed), nil
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func runInit(ctx context.Context, h *host, cfg *config.Config, out io.Writer) error {
	globals, err := cfg.Globals()
	if err != nil {
		return err
	}
	var res *stakepool.InitializeResult
	err = h.unit(ctx, "initialize", func(e *stakepool.Engine, _ *bank.Book) error {
		res, err = e.Initialize(globals)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(out, res)
}

func runCredit(ctx context.Context, h *host, args []string, out io.Writer) error {
	fs := newFlagSet("credit", out)
	account := fs.String("account", "", "Wallet address to fund")
	amount := fs.Uint64("amount", 0, "Amount in base units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := parseAddress("account", *account)
	if err != nil {
		return err
	}
	var mv bank.Movement
	err = h.unit(ctx, "credit", func(_ *stakepool.Engine, book *bank.Book) error {
		mv, err = book.Credit(bank.Wallet(addr), *amount, "credit")
		return err
	}, attribute.String("account", addr.Hex()))
	if err != nil {
		return err
	}
	return printJSON(out, mv)
}

func runContribute(ctx context.Context, h *host, args []string, out io.Writer) error {
	fs := newFlagSet("contribute", out)
	stakerFlag := fs.String("staker", "", "Contributing wallet address")
	amount := fs.Uint64("amount", 0, "Gross amount in base units")
	referrerFlag := fs.String("referrer", "", "Optional referrer address, bound on the first contribution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	staker, err := parseAddress("staker", *stakerFlag)
	if err != nil {
		return err
	}
	var referrer *common.Address
	if strings.TrimSpace(*referrerFlag) != "" {
		ref, err := parseAddress("referrer", *referrerFlag)
		if err != nil {
			return err
		}
		referrer = &ref
	}
	var res *stakepool.ContributeResult
	err = h.unit(ctx, "contribute", func(e *stakepool.Engine, _ *bank.Book) error {
		res, err = e.Contribute(staker, *amount, referrer)
		return err
	}, attribute.String("staker", staker.Hex()), attribute.Int64("amount", int64(*amount)))
	if err != nil {
		return err
	}
	h.recordContribute(res)
	return printJSON(out, res)
}

func runWithdraw(ctx context.Context, h *host, args []string, out io.Writer) error {
	fs := newFlagSet("withdraw", out)
	stakerFlag := fs.String("staker", "", "Withdrawing wallet address")
	amount := fs.Uint64("amount", 0, "Gross amount to unstake in base units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	staker, err := parseAddress("staker", *stakerFlag)
	if err != nil {
		return err
	}
	var res *stakepool.WithdrawResult
	err = h.unit(ctx, "withdraw", func(e *stakepool.Engine, _ *bank.Book) error {
		res, err = e.Withdraw(staker, *amount)
		return err
	}, attribute.String("staker", staker.Hex()), attribute.Int64("amount", int64(*amount)))
	if err != nil {
		return err
	}
	h.recordWithdraw(res)
	return printJSON(out, res)
}

func runClaim(ctx context.Context, h *host, args []string, out io.Writer) error {
	fs := newFlagSet("claim", out)
	stakerFlag := fs.String("staker", "", "Claiming wallet address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	staker, err := parseAddress("staker", *stakerFlag)
	if err != nil {
		return err
	}
	var res *stakepool.ClaimResult
	err = h.unit(ctx, "claim", func(e *stakepool.Engine, _ *bank.Book) error {
		res, err = e.Claim(staker)
		return err
	}, attribute.String("staker", staker.Hex()))
	if err != nil {
		return err
	}
	h.metrics.AddVolume("claim", res.AmountPaid)
	return printJSON(out, res)
}

func runDistributeBonus(ctx context.Context, h *host, out io.Writer) error {
	var res *stakepool.BonusResult
	err := h.unit(ctx, "distribute_bonus", func(e *stakepool.Engine, _ *bank.Book) error {
		var err error
		res, err = e.DistributeBonusPool()
		return err
	})
	if err != nil {
		return err
	}
	h.recordBonus(res)
	return printJSON(out, res)
}

func runDistributeReferral(ctx context.Context, h *host, args []string, out io.Writer) error {
	fs := newFlagSet("distribute-referral", out)
	callerFlag := fs.String("caller", "", "Caller address; must be the authority when forcing")
	force := fs.Bool("force", false, "Release before the period elapses")
	if err := fs.Parse(args); err != nil {
		return err
	}
	caller, err := parseAddress("caller", *callerFlag)
	if err != nil {
		return err
	}
	var res *stakepool.ReferralResult
	err = h.unit(ctx, "distribute_referral", func(e *stakepool.Engine, _ *bank.Book) error {
		res, err = e.DistributeReferralPool(caller, *force)
		return err
	}, attribute.String("caller", caller.Hex()), attribute.Bool("force", *force))
	if err != nil {
		return err
	}
	h.recordReferral(res)
	return printJSON(out, res)
}

func runStatus(h *host, args []string, out io.Writer) error {
	fs := newFlagSet("status", out)
	stakerFlag := fs.String("staker", "", "Show a single participant instead of the ledger snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*stakerFlag) == "" {
		snap, err := h.Snapshot()
		if err != nil {
			return err
		}
		return printJSON(out, routes.NewSnapshotView(snap))
	}
	staker, err := parseAddress("staker", *stakerFlag)
	if err != nil {
		return err
	}
	participant, ok, err := h.Participant(staker)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no participant record for %s", staker.Hex())
	}
	pending, err := h.Pending(staker)
	if err != nil {
		return err
	}
	return printJSON(out, routes.NewParticipantView(participant, pending))
}

func runBalances(h *host, out io.Writer) error {
	balances, err := h.Balances()
	if err != nil {
		return err
	}
	return printJSON(out, balances)
}
