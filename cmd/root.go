package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/report"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/workload"
)

var (
	// CLI flags shared by run and experiment
	configPath       string   // Planner YAML config
	capacityFraction float64  // Share of total trace size granted to the cache
	seed             int64    // Seed for the optimizer and synthetic requests
	logLevel         string   // Log verbosity level
	policyNames      []string // Policies to evaluate, in order
	outputPath       string   // JSON results file
	metricsTextfile  string   // Prometheus textfile

	// CLI flags for run
	tracePath string // Observed trace (.csv, .yaml, .yml, .json)
	breakdown bool   // Print cached resources per policy
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cache-planner",
	Short: "Compare cache selection policies on web request traces",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd evaluates every configured policy on one trace
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate cache selection policies on a trace",
	Run: func(cmd *cobra.Command, args []string) {
		tr, err := workload.LoadTrace(tracePath)
		if err != nil {
			logrus.Fatalf("Unable to load trace: %v", err)
		}
		cfg, err := loadPlannerConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		logrus.Infof("Planning %d resources (%.2f KB total) with policies %v, capacity fraction %.2f",
			tr.Len(), tr.TotalSizeKB(), cfg.Policies, cfg.CapacityFraction)

		res, err := planner.EvaluateRound(tr, cfg, seed)
		if err != nil {
			logrus.Fatalf("Round failed: %v", err)
		}
		if err := writeRunReport(cmd.OutOrStdout(), tr, res, breakdown); err != nil {
			logrus.Fatalf("Unable to print results: %v", err)
		}
		if outputPath != "" {
			if err := report.WriteJSON(outputPath, report.NewRoundDocument(res)); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Results written to %s", outputPath)
		}
		if metricsTextfile != "" {
			exporter := report.NewExporter()
			exporter.ObserveRound(res)
			if err := exporter.WriteTextfile(metricsTextfile); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		logrus.Info("Planning complete.")
	},
}

// loadPlannerConfig reads --config (or the defaults) and applies the flags the user set.
func loadPlannerConfig(cmd *cobra.Command) (*planner.Config, error) {
	cfg := planner.DefaultConfig()
	if configPath != "" {
		loaded, err := planner.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("fraction") {
		cfg.CapacityFraction = capacityFraction
	}
	if cmd.Flags().Changed("policies") {
		cfg.Policies = policyNames
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}
	return cfg, nil
}

// writeRunReport prints the metrics table, the optimizer decisions when the
// SGD-based policy ran, and optionally the per-policy breakdown.
func writeRunReport(w io.Writer, tr *planner.Trace, res *planner.RoundResult, withBreakdown bool) error {
	if err := report.WriteRound(w, res); err != nil {
		return err
	}
	if res.OptimizerTable != nil {
		if _, err := fmt.Fprintf(w, "\n%s decisions:\n", planner.PolicySGD); err != nil {
			return err
		}
		if err := report.WriteOptimizerTable(w, res.OptimizerTable); err != nil {
			return err
		}
	}
	if withBreakdown {
		if _, err := fmt.Fprint(w, "\nCache usage breakdown:\n"); err != nil {
			return err
		}
		if err := report.WriteBreakdown(w, tr, res); err != nil {
			return err
		}
	}
	return nil
}

// registerPlannerFlags adds the planner flags shared by run and experiment.
func registerPlannerFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "Path to planner YAML config")
	c.Flags().Float64Var(&capacityFraction, "fraction", planner.DefaultCapacityFraction, "Share of total trace size granted to the cache, in (0, 1]")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for the optimizer and synthetic requests")
	c.Flags().StringSliceVar(&policyNames, "policies", planner.DefaultPolicyOrder, "Comma-separated policies to evaluate")
	c.Flags().StringVar(&outputPath, "output", "", "Write results as JSON to this file")
	c.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this textfile")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerPlannerFlags(runCmd)
	runCmd.Flags().StringVar(&tracePath, "trace", "", "Path to the trace file (.csv, .yaml, .yml, .json)")
	runCmd.Flags().BoolVar(&breakdown, "breakdown", false, "Print the cached resources of every policy")
	_ = runCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(runCmd)
}
