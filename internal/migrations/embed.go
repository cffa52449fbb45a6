package migrations

import "embed"

// FS holds one directory of golang-migrate files per SQL dialect.
//
//go:embed postgres mysql sqlite3
var FS embed.FS
