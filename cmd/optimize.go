package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltmesh/bessopt/core/forecast"
	"github.com/voltmesh/bessopt/core/pipeline"
	"github.com/voltmesh/bessopt/infra/history"
	"github.com/voltmesh/bessopt/infra/logger"
	"github.com/voltmesh/bessopt/pkg/export"
)

var (
	targetDate string
	initialSoC float64
	tempAdjust float64
	outPath    string
	outFormat  string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run a single optimization from a load history file",
	RunE:  optimizeOnce,
}

func init() {
	optimizeCmd.Flags().StringVar(&targetDate, "date", "", "target date (YYYY-MM-DD, default tomorrow)")
	optimizeCmd.Flags().Float64Var(&initialSoC, "soc", -1, "initial state of charge fraction")
	optimizeCmd.Flags().Float64Var(&tempAdjust, "temp-adjust", 0, "uniform temperature shift in degrees C")
	optimizeCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	optimizeCmd.Flags().StringVar(&outFormat, "format", "json", "output format: json or csv")
	rootCmd.AddCommand(optimizeCmd)
}

func optimizeOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prices, err := cfg.Prices.Expand()
	if err != nil {
		return fmt.Errorf("price schedule: %w", err)
	}

	engine := &pipeline.Engine{
		History: history.NewCSVProvider(historyPath),
		Prices:  prices,
		Battery: cfg.Battery.ToModel(),
		Pool:    forecast.DefaultPool(forecast.Options{Seed: cfg.Forecast.Seed}),
		Selector: forecast.Selector{
			Folds:           cfg.Forecast.Folds,
			HoldoutFraction: cfg.Forecast.HoldoutFraction,
			TieTolerance:    cfg.Forecast.TieTolerance,
			Workers:         cfg.Forecast.Workers,
			Log:             logger.New("selector"),
		},
		SolverOpts:     cfg.Solver.Options(),
		MinHistoryDays: cfg.Forecast.MinHistoryDays,
		Log:            logger.New("optimize-command"),
	}

	req := pipeline.Request{TempAdjust: tempAdjust}
	if targetDate != "" {
		t, err := time.Parse("2006-01-02", targetDate)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
		req.TargetDate = t
	}
	if initialSoC >= 0 {
		req.InitialSoC = &initialSoC
	}

	result, err := engine.Run(ctx, req)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	switch outFormat {
	case "json":
		return export.WriteJSON(out, result)
	case "csv":
		return export.WriteCSV(out, result)
	default:
		return fmt.Errorf("unknown format %q", outFormat)
	}
}
