package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"crypto_exec/internal/app"
	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"

	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	side := flag.String("side", "long", "entry direction: long or short")
	qty := flag.String("qty", "", "order quantity (decimal)")
	price := flag.String("price", "", "reference price (decimal)")
	leverage := flag.Int("leverage", 1, "position leverage")
	history := flag.Int("history", 0, "print the last N journaled entries and exit")
	failures := flag.Bool("failures", false, "print journaled failed entries and exit (honours -history as a limit)")
	flag.Parse()

	if *history > 0 || *failures {
		os.Exit(printHistory(*configPath, *history, *failures))
	}

	direction, ok := domain.ParseDirection(*side)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid -side %q (want long or short)\n", *side)
		os.Exit(2)
	}
	quantity, err := decimal.NewFromString(*qty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -qty %q: %v\n", *qty, err)
		os.Exit(2)
	}
	refPrice, err := decimal.NewFromString(*price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -price %q: %v\n", *price, err)
		os.Exit(2)
	}

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. One entry
	res, err := bootstrap.Execute(ctx, direction, quantity, refPrice, *leverage)

	snap := infra.GlobalMetrics.Snapshot()
	slog.InfoContext(ctx, "📊 Execution metrics",
		slog.Uint64("limit_fills", snap.LimitFills),
		slog.Uint64("market_fills", snap.MarketFills),
		slog.Uint64("submit_retries", snap.SubmitRetries),
		slog.Uint64("cancel_races", snap.CancelRaces),
		slog.Int64("avg_latency_ns", snap.AvgLatencyNs))

	if err != nil {
		slog.Error("❌ Entry failed", slog.Any("error", err))
		bootstrap.Close()
		os.Exit(1)
	}

	printJSON(res)
}

// printHistory dumps journal rows without connecting to the exchange.
func printHistory(configPath string, limit int, failuresOnly bool) int {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.OpenJournal(configPath); err != nil {
		slog.Error("❌ Opening journal failed", slog.Any("error", err))
		return 1
	}
	defer bootstrap.Close()

	recs, err := bootstrap.History(limit, failuresOnly)
	if err != nil {
		slog.Error("❌ Reading journal failed", slog.Any("error", err))
		return 1
	}
	printJSON(recs)
	return 0
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
