// Package migrations embeds the PostgreSQL schema migrations so the server
// and migrate binaries do not depend on the working directory.
package migrations

import "embed"

// FS holds the numbered *.up.sql / *.down.sql pairs
//
//go:embed *.sql
var FS embed.FS
