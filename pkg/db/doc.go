// Package db wraps pgxpool with startup retries, embedded goose
// migrations, a readiness probe and a transaction helper.
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, migrations.FS, cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Sentinel errors are joined with the underlying cause via errors.Join, so
// callers match them with errors.Is.
package db
