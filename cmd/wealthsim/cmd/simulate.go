package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/user/wealth-builder/internal/game"
	"github.com/user/wealth-builder/internal/history"
	"github.com/user/wealth-builder/internal/types"
	"github.com/user/wealth-builder/internal/whatsapp"
	"go.uber.org/zap"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play one game on autopilot",
	Long: `Simulate runs a full game on a virtual clock. Expenses are settled as soon
as they fire and the cash above the reserve is invested every month.

Allocations are asset:share pairs using the catalog ids, for example
"indexFund:0.5,TCS:0.2,BTC:0.1". Shares are fractions of the investable cash.

Example:
  wealthsim simulate -d hard --invest indexFund:0.6,gold:0.2 --reserve 50000 --seed 42`,
	RunE: runSimulate,
}

var (
	simDifficulty string
	simSeed       int64
	simInvest     string
	simReserve    string
	simStep       int64
	simLiquidate  bool
	simRecord     bool
	simPlayer     string
	simVerbose    bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simDifficulty, "difficulty", "d", "", "easy, medium or hard (default from config)")
	simulateCmd.Flags().Int64VarP(&simSeed, "seed", "s", 0, "random seed (0 picks one from the clock)")
	simulateCmd.Flags().StringVarP(&simInvest, "invest", "i", "", "monthly allocations as asset:share pairs")
	simulateCmd.Flags().StringVarP(&simReserve, "reserve", "r", "0", "cash kept uninvested")
	simulateCmd.Flags().Int64Var(&simStep, "step", 1000, "virtual milliseconds between ticks")
	simulateCmd.Flags().BoolVar(&simLiquidate, "liquidate", false, "sell holdings for expenses that cash cannot cover")
	simulateCmd.Flags().BoolVar(&simRecord, "record", false, "save the result to the history database")
	simulateCmd.Flags().StringVarP(&simPlayer, "player", "p", "wealthsim", "player id used for the result")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "log every simulated event")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	name := simDifficulty
	if name == "" {
		name = cfg.Game.DefaultDifficulty
	}
	difficulty, ok := types.ParseDifficulty(name)
	if !ok {
		return fmt.Errorf("unknown difficulty %q", name)
	}

	allocations, err := game.ParseAllocations(simInvest)
	if err != nil {
		return err
	}
	reserve, err := decimal.NewFromString(simReserve)
	if err != nil || reserve.IsNegative() {
		return fmt.Errorf("invalid reserve %q", simReserve)
	}

	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := zap.NewNop()
	if simVerbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	pilot := &game.Autopilot{Allocations: allocations, Reserve: reserve, Liquidate: simLiquidate}
	sim, err := game.NewSimulation(simPlayer, difficulty, game.SettingsFromConfig(cfg.Game), seed, pilot, simStep, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	accent.Fprintf(out, "Simulating a game on %s (seed %d)\n", difficulty, seed)
	started := time.Now()
	state, err := sim.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	printSummary(cmd, state, sim.Ticks, time.Since(started))

	if simRecord && state.Result != nil {
		store, err := history.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		if err := store.Record(ctx, *state.Result); err != nil {
			return fmt.Errorf("record result: %w", err)
		}
		success.Fprintf(out, "✓ Recorded result %s\n", state.Result.ID)
	}
	return nil
}

func printSummary(cmd *cobra.Command, state types.StateView, ticks int, took time.Duration) {
	out := cmd.OutOrStdout()

	accent.Fprintln(out, "\n== RESULT ==")
	neutral.Fprintf(out, "  Ticks: %d in %s\n", ticks, took.Round(time.Millisecond))
	neutral.Fprintf(out, "  Cash: %s\n", whatsapp.FormatRupees(state.Cash))
	neutral.Fprintf(out, "  Net worth: %s\n", whatsapp.FormatRupees(state.NetWorth))
	neutral.Fprintf(out, "  AI net worth: %s\n", whatsapp.FormatRupees(state.AINetWorth))
	neutral.Fprintf(out, "  Passive income: %s/month\n", whatsapp.FormatRupees(state.PassiveIncome))

	if len(state.Holdings) > 0 {
		accent.Fprintln(out, "\nHoldings")
		for _, h := range state.Holdings {
			value := h.Value
			if h.Class.Tradable() {
				value = h.MarketValue
			}
			neutral.Fprintf(out, "  %-12s %s\n", h.Asset, whatsapp.FormatRupees(value))
		}
	}

	expenses := 0
	for _, entry := range state.Events {
		if entry.Event.Kind == types.EventExpense {
			expenses++
		}
	}
	neutral.Fprintf(out, "\n  Events: %d (%d expenses)\n", len(state.Events), expenses)

	if state.Result == nil {
		return
	}
	if state.Result.Won {
		success.Fprintln(out, "  You beat the AI")
	} else {
		danger.Fprintln(out, "  The AI finished ahead")
	}
	if state.Result.ReachedTarget {
		success.Fprintln(out, "  Target net worth reached")
	} else {
		warn.Fprintln(out, "  Target net worth missed")
	}
}
