package db

import "embed"

// Migrations holds the embedded SQL schema migrations consumed by the
// migrate command.
//
//go:embed migrations/*.sql
var Migrations embed.FS
