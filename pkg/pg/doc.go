// Package pg opens the pgx connection pool, applies goose migrations and
// classifies Postgres errors that callers translate into domain errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil { ... }
//
// Connect retries with exponential backoff so the service can start
// alongside its database container.
package pg
