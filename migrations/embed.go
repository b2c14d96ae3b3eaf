// Package migrations embeds the SQL migration files for the snapshot store.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass it to goose.NewProvider rather than relying on a path at runtime.
//
//go:embed *.sql
var FS embed.FS
