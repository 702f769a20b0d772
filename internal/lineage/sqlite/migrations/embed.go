package migrations

import "embed"

// FS contains embedded SQLite migrations for the lineage store.
//
//go:embed *.sql
var FS embed.FS
