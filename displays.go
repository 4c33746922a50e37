package main

import (
	"github.com/spf13/cobra"

	"globalinput/core"
)

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List active displays and the virtual screen",
	RunE: func(cmd *cobra.Command, _ []string) error {
		displays := core.GetScreenSizes()
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"displays": displays,
			"virtual":  core.VirtualBounds(displays),
		})
	},
}

func init() {
	rootCmd.AddCommand(displaysCmd)
}
