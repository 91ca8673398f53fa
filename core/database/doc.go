// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure PostgreSQL connections
// based on the application's configuration, and an Inspector that reads
// table metadata from the system catalogs.
//
// # Connect
//
// The generic Connect function establishes a pooled connection. Every
// batch engine issues its own transactions against this pool; no outer
// transaction is ever held across batches.
//
// # Schema Inspection
//
// The Inspector answers the questions the batch engines ask before they
// run: does the table exist, which non-generated columns does it have,
// what is its single primary key column, which child partitions exist,
// and what settings comment is attached to it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	insp := database.NewInspector(db)
//	columns, err := insp.Columns(ctx, database.ParseTable("events", "public"))
package database
