package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/followup/internal/scheduler"
)

var dispatchOnceCmd = &cobra.Command{
	Use:   "dispatch-once",
	Short: "Run a single scheduler tick and exit",
	Long: `dispatch-once processes every pending email that is due now, the same way
one tick of serve would, and prints a summary. Useful from an external cron.`,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, rt.close(ctx)) }()

		engine, err := rt.engine()
		if err != nil {
			return err
		}

		res := scheduler.New(engine, rt.store, scheduler.WithLogger(rt.log)).Tick(ctx)
		if res.Err != nil {
			return res.Err
		}

		return printJSON(cmd.OutOrStdout(), map[string]any{
			"tick_id":   res.ID,
			"due":       res.Due,
			"sent":      res.Batch.Sent,
			"recovered": res.Batch.Recovered,
			"failed":    res.Batch.Failed,
			"skipped":   res.Batch.Skipped,
		})
	},
}
