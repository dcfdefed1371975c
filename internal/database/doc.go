// Package database provides SQLite persistence for mediasweep.
//
// It stores:
//   - the recycle bin, written as a whole snapshot in one transaction
//   - the keep list of items the user chose not to treat as duplicates
//   - key/value metadata such as the time of the last scan
//
// The database runs in WAL mode. Every query is recorded in the
// mediasweep_db_* Prometheus metrics.
package database
