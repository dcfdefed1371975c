package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"mediasweep/internal/logging"
	"mediasweep/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database persists recycle-bin state, the keep list and scan metadata.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if needed) the database file at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout prevents "database is locked" errors under concurrent writers
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, dbPath: dbPath}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recycle_bin (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		file_name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		creation_date INTEGER NOT NULL,
		deleted_date INTEGER,
		kind TEXT NOT NULL,
		is_duplicate INTEGER NOT NULL DEFAULT 0,
		similarity_score REAL NOT NULL DEFAULT 0,
		asset_handle TEXT,
		file_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_recycle_bin_position ON recycle_bin(position);

	CREATE TABLE IF NOT EXISTS kept_items (
		ref TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	recordQuery("initialize_schema", start, err)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// withTx runs fn inside a transaction, committing when it returns nil and
// rolling back otherwise. The caller must hold d.mu.
func (d *Database) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	txStart := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(txStart).Seconds())
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(txStart).Seconds())
	return tx.Commit()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	metrics.DBConnectionsOpen.Set(float64(d.db.Stats().OpenConnections))
}

// diagnoseDatabasePermissions checks that the database directory is writable
// and repairs read-only WAL/SHM files left behind by another user.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	if info, err := os.Stat(dbPath); err == nil && info.Mode().Perm()&0o200 == 0 {
		logging.Warn("Database file is read-only! Mode: %v", info.Mode())
	}

	for _, p := range []string{dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil || info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only (mode %v), this will cause write failures", filepath.Base(p), info.Mode())
		if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", p, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", p)
		}
	}

	return nil
}
