// Package monitordb holds all the migrations for the deposit monitor database
package monitordb

import "github.com/uptrace/bun/migrate"

// Migrations is the registered migration set, applied in file order.
var Migrations = migrate.NewMigrations()
