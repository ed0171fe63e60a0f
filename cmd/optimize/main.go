// Command optimize computes one delivery route from a batch file, or from a
// built-in demo batch when no file is given, and prints it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"delivery-route-optimizer/internal/bootstrap"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/services"
)

func main() {
	var (
		batchPath = flag.String("batch", "", "YAML or JSON batch file (default: built-in demo)")
		mode      = flag.String("mode", "", "routing mode: auto, exact or greedy (default: batch mode, then auto)")
		maxExact  = flag.Int("max-exact", 0, "largest batch routed exactly in auto mode (default: MAX_EXACT_ORDERS)")
		verbose   = flag.Bool("v", false, "print arrival times and waits per stop")
	)
	flag.Parse()

	config.LoadDotEnv()
	obs.SetupLogger(config.Get("LOG_LEVEL", "warn"), true)

	if err := run(context.Background(), os.Stdout, *batchPath, *mode, *maxExact, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "optimize:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, batchPath, modeFlag string, maxExact int, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if maxExact > 0 {
		cfg.MaxExactOrders = maxExact
	}
	// The one-shot tool has no database; a sql cache falls back to none.
	if cfg.DistanceCache == "sql" {
		cfg.DistanceCache = "none"
	}

	b := demoBatch()
	if batchPath != "" {
		if b, err = loadBatch(batchPath); err != nil {
			return err
		}
	}

	m := b.Mode
	if modeFlag != "" {
		m = modeFlag
	}
	parsed, err := services.ParseMode(m)
	if err != nil {
		return err
	}

	source, closeSource, err := bootstrap.DistanceSource(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeSource()

	plan, err := services.PlanRoute(ctx, services.PlanRouteRequest{
		AgentID:  b.AgentID,
		Start:    b.Start,
		Orders:   b.Orders,
		DepartAt: time.Now(),
		Mode:     parsed,
	}, source, services.Options{MaxExactOrders: cfg.MaxExactOrders, ExactOrderLimit: cfg.ExactOrderLimit})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("invalid batch: %w", err)
		}
		return err
	}

	printPlan(out, plan, verbose)
	return nil
}

func printPlan(out io.Writer, plan *domain.RoutePlan, verbose bool) {
	names := make([]string, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		names = append(names, s.Stop.Name)
	}

	fmt.Fprintln(out, "Optimal delivery route:")
	fmt.Fprintln(out, strings.Join(names, " --> "))

	if verbose {
		for _, s := range plan.Stops {
			fmt.Fprintf(out, "  %-8s %-24s %s  +%.2f km  wait %.1f min\n",
				s.Kind, s.Stop.Name, s.ArriveAt.Format("15:04:05"), s.LegDistanceKm, s.WaitMinutes)
		}
	}
	fmt.Fprintf(out, "strategy=%s distance=%.2fkm duration=%s\n",
		plan.Strategy, plan.TotalDistanceKm, plan.TotalDuration.Round(time.Second))
	for _, w := range plan.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
}
