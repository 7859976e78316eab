// Package migrations embeds the SQL schema migrations applied by goose.
package migrations

import "embed"

// FS holds the server (postgres/) and device-local (local/) migration sets.
//
//go:embed postgres/*.sql local/*.sql
var FS embed.FS

// Directories inside FS.
const (
	PostgresDir = "postgres"
	LocalDir    = "local"
)
