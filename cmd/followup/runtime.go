package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/followup/internal/config"
	"github.com/dmitrymomot/followup/internal/dispatch"
	"github.com/dmitrymomot/followup/internal/scheduler"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/internal/store/memory"
	"github.com/dmitrymomot/followup/internal/store/postgres"
	"github.com/dmitrymomot/followup/internal/store/postgres/migrations"
	"github.com/dmitrymomot/followup/pkg/cache"
	"github.com/dmitrymomot/followup/pkg/db"
	"github.com/dmitrymomot/followup/pkg/logger"
	"github.com/dmitrymomot/followup/pkg/mailer"
	"github.com/dmitrymomot/followup/pkg/mailer/resend"
	"github.com/dmitrymomot/followup/pkg/redis"
)

const markPrefix = "followup:marks"

// runtime holds the collaborators shared by subcommands.
type runtime struct {
	cfg     config.Config
	log     *slog.Logger
	store   store.Store
	pool    *pgxpool.Pool
	redis   goredis.UniversalClient
	closers []func(context.Context) error
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg: cfg,
		log: logger.NewWithSentry(cfg.Log, cfg.Sentry, scheduler.TickIDExtractor),
	}
	rt.closers = append(rt.closers, logger.FlushSentry)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		rt.log.Warn("using the in-memory store, data is lost on exit")
		rt.store = memory.New()
	default:
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, errors.Join(err, rt.close(ctx))
		}
		rt.pool = pool
		rt.store = postgres.New(pool)
		rt.closers = append(rt.closers, db.Shutdown(pool))
	}

	if cfg.RedisURL != "" {
		client, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.Join(err, rt.close(ctx))
		}
		rt.redis = client
		rt.closers = append(rt.closers, redis.Shutdown(client))
	}

	return rt, nil
}

// migrate applies pending migrations. It is a no-op for the memory store.
func (rt *runtime) migrate(ctx context.Context) error {
	if rt.pool == nil {
		return nil
	}
	return db.Migrate(ctx, rt.pool, migrations.FS, rt.cfg.DB.MigrationsTable, rt.log)
}

// engine builds the dispatch engine. Send marks live in Redis when it is
// configured, so they survive restarts.
func (rt *runtime) engine() (*dispatch.Engine, error) {
	if err := rt.cfg.ValidateMail(); err != nil {
		return nil, err
	}

	var sender mailer.Sender
	switch rt.cfg.MailDriver {
	case config.MailDriverLog:
		sender = mailer.NewLogSender(rt.log, rt.cfg.MailFrom)
	default:
		sender = resend.New(rt.cfg.Resend)
	}

	opts := []dispatch.Option{
		dispatch.WithLogger(rt.log),
		dispatch.WithFrom(rt.cfg.MailFrom),
		dispatch.WithMarkTTL(rt.cfg.SendMarkTTL),
	}
	if rt.redis != nil {
		opts = append(opts, dispatch.WithSendMarks(
			cache.NewRedis[dispatch.SendMark](rt.redis, nil, cache.WithPrefix(markPrefix)),
		))
	}

	e := dispatch.New(rt.store, sender, opts...)
	rt.closers = append(rt.closers, func(context.Context) error { return e.Close() })
	return e, nil
}

// close releases resources in reverse acquisition order.
func (rt *runtime) close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
