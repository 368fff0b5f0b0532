package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/shellbridge/internal/jsoncodec"
	"github.com/aretw0/shellbridge/pkg/client"
	"github.com/aretw0/shellbridge/pkg/domain"
)

var sendCmd = &cobra.Command{
	Use:   "send <cmd> [json-value]",
	Short: "Send one message to a running bridge and print the reply",
	Args:  cobra.RangeArgs(1, 2),
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

		msg := domain.NewMessage(args[0], nil)
		if len(args) == 2 {
			if err := jsoncodec.Unmarshal([]byte(args[1]), &msg.Value); err != nil {
				return fmt.Errorf("value is not valid JSON: %w", err)
			}
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		c := client.New(registry)
		port, _ := cmd.Flags().GetInt("port")

		var reply *domain.Message
		if port > 0 {
			reply, err = c.SendTo(ctx, port, msg)
		} else {
			reply, err = c.Send(ctx, msg)
		}
		if err != nil {
			return err
		}

		if reply == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "(no reply)")
			return nil
		}
		out, err := jsoncodec.Marshal(reply)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntP("port", "p", 0, "Bridge port (default: read from the registry)")
	sendCmd.Flags().Duration("timeout", 5*time.Second, "Give up after this long")
}
