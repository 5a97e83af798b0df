// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// reid-prepare downloads and prepares the VIPeR re-identification dataset:
// it ensures the raw images are present, generates (or loads) the standard
// 10 random train/test splits, prints the statistics of the selected split
// and optionally exports it to a SQLite container.
package main

import (
	goflag "flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/janpfeifer/must"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/gomlx/reid/export"
	"github.com/gomlx/reid/viper"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		rootFlag     string
		splitFlag    int
		seedFlag     int64
		exportDBFlag string
		quietFlag    bool
	)

	rootCmd := &cobra.Command{
		Use:          "reid-prepare",
		Short:        "Prepare the VIPeR person re-identification dataset",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rng *rand.Rand
			if seedFlag != 0 {
				rng = rand.New(rand.NewSource(seedFlag))
			}
			ds, err := viper.New(rootFlag, splitFlag, rng)
			if err != nil {
				return err
			}
			if !quietFlag {
				ds.PrintStats()
			}
			if exportDBFlag == "" {
				return nil
			}
			store, err := export.Open(exportDBFlag)
			if err != nil {
				return err
			}
			defer func() { must.M(store.Close()) }()
			if err = store.WriteDataset(cmd.Context(), ds); err != nil {
				return err
			}
			klog.V(1).Infof("Exported split %d to %q", splitFlag, exportDBFlag)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&rootFlag, "root", "~/datasets", "Directory under which the dataset is stored")
	rootCmd.Flags().IntVar(&splitFlag, "split", 0, fmt.Sprintf("Split to select, 0 to %d", viper.NumSplits-1))
	rootCmd.Flags().Int64Var(&seedFlag, "seed", 0, "Seed for split generation; 0 means time-seeded (non-reproducible)")
	rootCmd.Flags().StringVar(&exportDBFlag, "export-db", "", "If set, export the selected split to this SQLite file")
	rootCmd.Flags().BoolVar(&quietFlag, "quiet", false, "Don't print the dataset statistics table")

	klog.InitFlags(nil)
	rootCmd.Flags().AddGoFlagSet(goflag.CommandLine)
	return rootCmd
}
