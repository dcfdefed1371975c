package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const lastScanKey = "last_scan"

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (value string, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := time.Now()
	defer func() {
		if errors.Is(err, sql.ErrNoRows) {
			recordQuery("get_metadata", start, nil)
			return
		}
		recordQuery("get_metadata", start, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	recordQuery("set_metadata", start, err)
	return err
}

// GetLastScan returns when the last duplicate scan completed.
// Returns zero time if no scan has completed yet.
func (d *Database) GetLastScan(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, lastScanKey)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastScan stores when the last duplicate scan completed.
func (d *Database) SetLastScan(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, lastScanKey, "")
	}
	return d.SetMetadata(ctx, lastScanKey, t.UTC().Format(time.RFC3339))
}
