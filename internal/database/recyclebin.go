package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mediatypes"
)

// ReplaceRecycleBin overwrites the persisted recycle bin with entries, in
// order, inside a single transaction.
func (d *Database) ReplaceRecycleBin(ctx context.Context, entries []media.RecycleBinEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM recycle_bin"); err != nil {
			return fmt.Errorf("clear recycle bin: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recycle_bin (id, position, file_name, size, creation_date, deleted_date,
				kind, is_duplicate, similarity_score, asset_handle, file_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, e := range entries {
			var deleted sql.NullInt64
			if e.DeletedAt != nil {
				deleted = sql.NullInt64{Int64: e.DeletedAt.UnixMilli(), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				e.ID, i, e.FileName, e.Size, e.CreatedAt.UnixMilli(), deleted,
				string(e.Kind), e.IsDuplicate, e.SimilarityScore,
				nullString(e.AssetHandle), nullString(e.FilePath),
			); err != nil {
				return fmt.Errorf("insert %s: %w", e.ID, err)
			}
		}
		return nil
	})

	recordQuery("replace_recycle_bin", start, err)
	return err
}

// LoadRecycleBin returns the persisted entries in their saved order. Rows
// that cannot be decoded, or that name neither an asset handle nor a file
// path, are skipped and counted in skipped.
func (d *Database) LoadRecycleBin(ctx context.Context) (entries []media.RecycleBinEntry, skipped int, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := time.Now()
	defer func() { recordQuery("load_recycle_bin", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, file_name, size, creation_date, deleted_date, kind,
			is_duplicate, similarity_score, asset_handle, file_path
		FROM recycle_bin
		ORDER BY position
	`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e           media.RecycleBinEntry
			created     int64
			deleted     sql.NullInt64
			kind        string
			handle, pth sql.NullString
		)
		if scanErr := rows.Scan(&e.ID, &e.FileName, &e.Size, &created, &deleted, &kind,
			&e.IsDuplicate, &e.SimilarityScore, &handle, &pth); scanErr != nil {
			logging.Warn("Skipping undecodable recycle bin row: %v", scanErr)
			skipped++
			continue
		}
		if !handle.Valid && !pth.Valid {
			logging.Warn("Skipping recycle bin row %s with neither handle nor path", e.ID)
			skipped++
			continue
		}

		e.CreatedAt = time.UnixMilli(created)
		if deleted.Valid {
			t := time.UnixMilli(deleted.Int64)
			e.DeletedAt = &t
		}
		e.Kind = mediatypes.ParseKind(kind)
		if handle.Valid {
			e.AssetHandle = &handle.String
		}
		if pth.Valid {
			e.FilePath = &pth.String
		}
		entries = append(entries, e)
	}
	return entries, skipped, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
