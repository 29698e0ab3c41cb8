package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List the configured pools",
		RunE:  runPools,
	}

	cmd.Flags().String("pools", "", "pool registry file (defaults to the built-in pools)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runPools(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, pool := range reg.Pools() {
		fmt.Fprintf(out, "pool %d %s: %s (%s) / %s (%s)\n",
			pool.ID, pool.Address.Hex(),
			pool.Token0.Symbol, pool.Token0.Address.Hex(),
			pool.Token1.Symbol, pool.Token1.Address.Hex())
	}
	return nil
}
