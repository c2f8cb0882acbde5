// Package pg provides PostgreSQL connection management for the metering
// engine: pooled pgx connections with startup retry, goose migrations from
// an embedded filesystem, and a health check closure for readiness probes.
//
// Typical startup:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, meter.Migrations, cfg, log); err != nil { ... }
package pg
