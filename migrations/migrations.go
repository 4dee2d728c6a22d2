package migrations

import "embed"

// Migration files are embedded so a single binary can bootstrap its own
// schema without shipping loose SQL alongside it.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
