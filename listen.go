package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"globalinput/core"
	"globalinput/session"
	"globalinput/store"
)

var (
	listenBlock  []int32
	listenRecord string
	listenQuiet  bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print global input events as JSON lines",
	Long: `listen subscribes to the local listener and prints every canonical event as
one JSON object per line until interrupted. Keys given with --block are
withheld from other applications where the backend can suppress input.`,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctrl, err := newController(ctx, cfg, listenBlock, logger)
		if err != nil {
			return err
		}

		var sink session.Sink = session.SinkFunc(func(core.Event) error { return nil })
		if !listenQuiet {
			// stdout may be a slow pipe, keep it off the event path
			sink = session.NewQueue(&printSink{enc: json.NewEncoder(cmd.OutOrStdout())}, 0, logger)
		}
		if path := recordPath(); path != "" {
			rec, openErr := store.Open(path, logger)
			if openErr != nil {
				return openErr
			}
			defer func() { err = multierr.Append(err, rec.Close()) }()
			sink = rec.Tee(sink)
		}

		if err := ctrl.Subscribe(ctx, sink); err != nil {
			return err
		}
		logger.Info("listening, interrupt to stop", "blocked", ctrl.Blocks().Snapshot())
		<-ctx.Done()
		if err := ctrl.Unsubscribe(); err != nil {
			return err
		}
		logger.Info("done", "events", ctrl.Delivered())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().Int32SliceVar(&listenBlock, "block", nil, "key codes to block while listening")
	listenCmd.Flags().StringVar(&listenRecord, "record", "", "sqlite file to record events into")
	listenCmd.Flags().BoolVarP(&listenQuiet, "quiet", "q", false, "do not print events")
}

func recordPath() string {
	if listenRecord != "" {
		return listenRecord
	}
	return cfg.Record.Path
}

type printSink struct {
	enc *json.Encoder
}

func (p *printSink) Send(ev core.Event) error {
	return p.enc.Encode(ev)
}

func (p *printSink) Close() error { return nil }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}
