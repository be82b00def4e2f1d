package migrations

import "embed"

// Files holds the gallery schema migrations
//
//go:embed *.sql
var Files embed.FS
