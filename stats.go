package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"globalinput/store"
)

var (
	statsTop  int
	statsTail int
)

var statsCmd = &cobra.Command{
	Use:   "stats [recording]",
	Short: "Summarize events recorded by listen --record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Record.Path
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no recording given and record.path is not set")
		}
		s, err := store.Open(path, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		counts, err := s.CountByKind()
		if err != nil {
			return err
		}
		top, err := s.TopKeys(statsTop)
		if err != nil {
			return err
		}
		out := map[string]any{"counts": counts, "topKeys": top}
		if statsTail > 0 {
			recent, err := s.Recent(statsTail)
			if err != nil {
				return err
			}
			out["recent"] = recent
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of most pressed keys to show")
	statsCmd.Flags().IntVar(&statsTail, "tail", 0, "also show this many of the latest events")
}
