// Package migrations embeds the SQL schema of the local database.
//
// The bookmarked_stories migration drops and recreates its table: a schema
// bump never carries bookmarks across, so callers must not rely on bookmarks
// surviving an upgrade. Any future change to that table must follow the
// same drop-and-recreate pattern.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
