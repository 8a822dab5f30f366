package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/followup/internal/app"
	"github.com/dmitrymomot/followup/internal/scheduler"
	"github.com/dmitrymomot/followup/pkg/redis"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler loop and the ops server",
	Long: `serve ticks the scheduler on SCHEDULER_INTERVAL and exposes /health/live,
/health/ready and /metrics on OPS_ADDR until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}

		if serveMigrate {
			if err := rt.migrate(ctx); err != nil {
				return errors.Join(err, rt.close(ctx))
			}
		}

		engine, err := rt.engine()
		if err != nil {
			return errors.Join(err, rt.close(ctx))
		}

		loop := scheduler.New(engine, rt.store,
			scheduler.WithInterval(rt.cfg.SchedulerInterval),
			scheduler.WithLogger(rt.log),
		)

		opts := []app.Option{
			app.WithContext(ctx),
			app.WithAddress(rt.cfg.OpsAddr),
			app.WithLogger(rt.log),
			app.WithShutdownTimeout(rt.cfg.ShutdownTimeout),
			app.WithService("scheduler", loop),
			app.WithHealthCheck("store", rt.store.Ping),
			app.WithHealthCheck("scheduler", loop.Healthcheck),
			app.WithShutdownHook(rt.close),
		}
		if rt.redis != nil {
			opts = append(opts, app.WithHealthCheck("redis", redis.Healthcheck(rt.redis)))
		}

		return app.New(opts...).Run()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply pending migrations before starting")
}
