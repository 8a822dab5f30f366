package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, rt.close(ctx)) }()

		if rt.pool == nil {
			rt.log.Info("memory store selected, nothing to migrate")
			return nil
		}
		if err := rt.migrate(ctx); err != nil {
			return err
		}
		rt.log.Info("migrations applied")
		return nil
	},
}
