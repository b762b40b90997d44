package migrations

import "embed"

// SQLite embeds the schema migrations.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
