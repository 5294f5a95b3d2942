package db

import "embed"

// MigrationFS expone los archivos SQL de internal/db/migrations para el runner.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
