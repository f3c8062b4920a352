package migrations

import "embed"

// FS contains the embedded schema migrations. The statements are written to
// run unchanged on SQLite and Postgres.
//
//go:embed *.sql
var FS embed.FS
