package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner/experiment"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/report"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/workload"
)

var (
	catalogPath string // Workload spec YAML (catalog and popularity)
	rounds      int    // Number of generated traces
	requests    int    // Requests per generated trace
	parallelism int    // Rounds evaluated concurrently
)

// experimentCmd repeats the planner over synthetic traces and aggregates the metrics
var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Evaluate cache selection policies over many synthetic traces",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadPlannerConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		spec, err := loadWorkloadSpec(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		expCfg := &experiment.Config{Rounds: rounds, Parallelism: parallelism, Workload: spec}

		logrus.Infof("Starting experiment: %d rounds of %d requests over %d catalog resources, parallelism %d",
			rounds, spec.Requests, len(spec.Catalog), parallelism)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := experiment.Run(ctx, expCfg, cfg, seed)
		if err != nil {
			logrus.Fatalf("Experiment failed: %v", err)
		}
		if err := report.WriteSummary(cmd.OutOrStdout(), res.Summary); err != nil {
			logrus.Fatalf("Unable to print results: %v", err)
		}
		if outputPath != "" {
			if err := report.WriteJSON(outputPath, res.Summary); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Averages written to %s", outputPath)
		}
		if metricsTextfile != "" {
			exporter := report.NewExporter()
			exporter.ObserveSummary(res.Summary)
			if err := exporter.WriteTextfile(metricsTextfile); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

// loadWorkloadSpec reads --catalog (or the default site) and applies --requests when set.
func loadWorkloadSpec(cmd *cobra.Command) (*workload.Spec, error) {
	spec := workload.DefaultSpec()
	if catalogPath != "" {
		loaded, err := workload.LoadSpec(catalogPath)
		if err != nil {
			return nil, err
		}
		spec = loaded
	}
	if cmd.Flags().Changed("requests") {
		spec.Requests = requests
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func init() {
	defaults := experiment.DefaultConfig()

	registerPlannerFlags(experimentCmd)
	experimentCmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to workload YAML (catalog, requests, popularity)")
	experimentCmd.Flags().IntVar(&rounds, "rounds", defaults.Rounds, "Number of synthetic traces to evaluate")
	experimentCmd.Flags().IntVar(&requests, "requests", defaults.Workload.Requests, "Requests per synthetic trace")
	experimentCmd.Flags().IntVar(&parallelism, "parallel", defaults.Parallelism, "Rounds evaluated concurrently")

	rootCmd.AddCommand(experimentCmd)
}
