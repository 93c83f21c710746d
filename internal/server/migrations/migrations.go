// Package migrations embeds the goose SQL migrations for the backend's
// postgres schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
