// Package database handles catalog database connections and schema inspection.
//
// It provides a wrapper around GORM to configure either an embedded SQLite
// file (the default) or a MySQL server based on the application's configuration.
//
// # Connect
//
// Connect selects the dialector from Config.Driver, applies pool settings
// suited to the driver and verifies the connection with a ping.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live column set of a table so the
// catalog can refuse to run against a database populated by an incompatible
// version.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "roms")
package database
