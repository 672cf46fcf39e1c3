// Package database provides SQLite connectivity for the persisted node graph.
//
// It manages the connection (WAL mode, busy timeout, a single pooled
// connection) and applies schema migrations registered with
// RegisterMigrations. The graph schema registers itself when the
// migrations package is imported.
//
// Usage:
//
//	db, err := database.Open(database.ConfigFrom(cfg.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Every migration has an .up.sql and a .down.sql file named
// YYYYMMDD_HHMMSS_description. The database file is created with 0600
// permissions.
package database
