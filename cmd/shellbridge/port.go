package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/shellbridge/pkg/ports"
)

var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Print the port published by the running bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		registry, closeRegistry, err := openRegistry(cfg.Registry)
		if err != nil {
			return fmt.Errorf("failed to open registry: %w", err)
		}
		defer closeRegistry()

		port, err := ports.LookupPort(context.Background(), registry)
		if err != nil {
			if ports.IsNotFound(err) {
				return fmt.Errorf("no bridge has published a port in the %s registry", cfg.Registry.Backend)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portCmd)
}
