package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"globalinput/client"
	"globalinput/core"
)

var dialTimeout time.Duration

var callCmd = &cobra.Command{
	Use:   "call <method> [json-args]",
	Short: "Invoke a method on a running host",
	Example: `  globalinput call setBlockedKeys '[38, 40]'
  globalinput call simulateMouse '{"type": "move", "x": 10, "y": 10}'
  globalinput call clearBlockedKeys`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params any
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("%w: arguments are not JSON: %w", core.ErrInvalidRequest, err)
			}
		}
		c, err := dialHost(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Invoke(cmd.Context(), args[0], params); err != nil {
			return fmt.Errorf("%s failed (%s): %w", args[0], core.ErrorCode(err), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
	rootCmd.PersistentFlags().DurationVar(&dialTimeout, "dial-timeout", 5*time.Second, "how long to keep retrying the host")
}

func dialHost(ctx context.Context) (*client.Client, error) {
	return client.Dial(ctx, cfg.Host.Network, cfg.Host.Address, client.DialOptions{
		MaxElapsed: dialTimeout,
		Logger:     logger,
	})
}
