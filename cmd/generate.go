package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
	"github.com/DamienTicer/Web-Caching-with-SGD/planner/workload"
)

// generateCmd writes one synthetic trace as YAML to stdout, for piping into run --trace
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic trace as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := loadWorkloadSpec(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		rng := planner.NewPartitionedRNG(planner.NewRunKey(seed))
		tr, err := workload.Generate(spec, rng.ForSubsystem(planner.SubsystemWorkload))
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}
		if err := workload.WriteYAML(cmd.OutOrStdout(), tr); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	generateCmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to workload YAML (catalog, requests, popularity)")
	generateCmd.Flags().IntVar(&requests, "requests", 100, "Number of requests")
	generateCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for request generation")

	rootCmd.AddCommand(generateCmd)
}
