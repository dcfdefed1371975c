package database

import (
	"context"
	"time"
)

// AddKept records that the item with ref should be excluded from future scans.
func (d *Database) AddKept(ctx context.Context, ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		"INSERT INTO kept_items (ref, created_at) VALUES (?, ?) ON CONFLICT(ref) DO NOTHING",
		ref, time.Now().Unix())
	recordQuery("add_kept", start, err)
	return err
}

// RemoveKept forgets a keep decision. Removing an unknown ref is not an error.
func (d *Database) RemoveKept(ctx context.Context, ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM kept_items WHERE ref = ?", ref)
	recordQuery("remove_kept", start, err)
	return err
}

// ListKept returns every kept ref in insertion order.
func (d *Database) ListKept(ctx context.Context) (refs []string, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := time.Now()
	defer func() { recordQuery("list_kept", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT ref FROM kept_items ORDER BY created_at, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
