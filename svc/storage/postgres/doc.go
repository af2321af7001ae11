// Package postgres implements the auth storage contracts on PostgreSQL via
// pgx. Uniqueness and the credential invariant are enforced by the schema in
// migrations/; constraint violations are translated into auth sentinels.
package postgres
