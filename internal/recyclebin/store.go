package recyclebin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"mediasweep/internal/catalog"
	"mediasweep/internal/filesystem"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/metrics"
)

// Persistence stores the recycle bin and the keep list. *database.Database
// implements it.
type Persistence interface {
	ReplaceRecycleBin(ctx context.Context, entries []media.RecycleBinEntry) error
	LoadRecycleBin(ctx context.Context) (entries []media.RecycleBinEntry, skipped int, err error)
	AddKept(ctx context.Context, ref string) error
	RemoveKept(ctx context.Context, ref string) error
	ListKept(ctx context.Context) ([]string, error)
}

// Invalidator drops cached thumbnails for items leaving the active set.
type Invalidator interface {
	Invalidate(ref string)
}

// Option configures a Store.
type Option func(*Store)

// WithThumbnailCache invalidates cached thumbnails of deleted items.
func WithThumbnailCache(c Invalidator) Option {
	return func(s *Store) { s.thumbs = c }
}

// WithFileRemover replaces filesystem.RemoveFile for file-backed entries.
func WithFileRemover(fn func(path string) error) Option {
	return func(s *Store) { s.removeFile = fn }
}

// WithFileResolver replaces the stat check used for file-backed entries on
// load.
func WithFileResolver(fn func(path string) bool) Option {
	return func(s *Store) { s.fileExists = fn }
}

// WithClock sets the time source for deletion dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the recycle bin. All mutations are serialized by one mutex,
// including the provider and filesystem calls of permanent deletion.
type Store struct {
	mu    sync.Mutex
	items []media.Item
	total int64
	kept  map[string]struct{}

	provider   catalog.Provider
	persist    Persistence
	thumbs     Invalidator
	removeFile func(path string) error
	fileExists func(path string) bool
	now        func() time.Time

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// DeleteReport summarizes a PermanentlyDeleteAll call.
type DeleteReport struct {
	Attempted  int   `json:"attempted"`
	Deleted    int   `json:"deleted"`
	Failed     int   `json:"failed"`
	FreedBytes int64 `json:"freedBytes"`
}

// Open builds a store and loads the persisted state. Entries whose handle
// or path cannot be resolved any more are dropped. A load failure leaves the
// store empty; it is logged, not returned. provider and persist may be nil.
func Open(ctx context.Context, provider catalog.Provider, persist Persistence, opts ...Option) *Store {
	s := &Store{
		kept:       make(map[string]struct{}),
		provider:   provider,
		persist:    persist,
		removeFile: filesystem.RemoveFile,
		fileExists: fileExists,
		now:        time.Now,
		subs:       make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

func fileExists(path string) bool {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return err == nil && info.Mode().IsRegular()
}

func (s *Store) load(ctx context.Context) {
	if s.persist == nil {
		return
	}

	entries, skipped, err := s.persist.LoadRecycleBin(ctx)
	if err != nil {
		logging.Error("Failed to load recycle bin, starting empty: %v", err)
		metrics.RecycleBinOperationsTotal.WithLabelValues("load", "error").Inc()
		return
	}

	dropped := 0
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		it := e.Item()
		if seen[it.ID] {
			continue
		}
		if !s.resolves(ctx, it) {
			logging.Warn("Dropping recycle bin entry %s (%s): no longer resolvable", it.ID, it.FileName)
			dropped++
			continue
		}
		seen[it.ID] = true
		s.items = append(s.items, it)
	}
	s.recompute()

	if dropped > 0 {
		metrics.RecycleBinLoadDropped.Add(float64(dropped))
		s.save(ctx)
	}
	if skipped > 0 || dropped > 0 {
		logging.Info("Recycle bin loaded %d entries (%d unreadable, %d unresolvable)", len(s.items), skipped, dropped)
	} else {
		logging.Debug("Recycle bin loaded %d entries", len(s.items))
	}

	refs, err := s.persist.ListKept(ctx)
	if err != nil {
		logging.Warn("Failed to load keep list: %v", err)
		return
	}
	for _, r := range refs {
		s.kept[r] = struct{}{}
	}
}

func (s *Store) resolves(ctx context.Context, it media.Item) bool {
	switch {
	case it.Handle != "":
		return s.provider != nil && s.provider.Resolve(ctx, it.Handle)
	case it.FilePath != "":
		return s.fileExists(it.FilePath)
	default:
		return false
	}
}

// recompute must be called with mu held.
func (s *Store) recompute() {
	var total int64
	for _, it := range s.items {
		total += it.Size
	}
	s.total = total
	metrics.RecycleBinItems.Set(float64(len(s.items)))
	metrics.RecycleBinBytes.Set(float64(total))
}

// save writes the list through. Failures are logged; memory stays
// authoritative. Must be called with mu held.
func (s *Store) save(ctx context.Context) {
	if s.persist == nil {
		return
	}
	entries := make([]media.RecycleBinEntry, len(s.items))
	for i, it := range s.items {
		entries[i] = it.Entry()
	}
	if err := s.persist.ReplaceRecycleBin(ctx, entries); err != nil {
		logging.Error("Failed to persist recycle bin (%d entries): %v", len(entries), err)
	}
}

// event must be called with mu held.
func (s *Store) event(t EventType, items []media.Item) Event {
	return Event{Type: t, Items: items, Count: len(s.items), TotalSize: s.total}
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(it media.Item) bool { return it.ID == id })
}

// Recycle moves item into the bin. Items already in the bin are ignored.
func (s *Store) Recycle(ctx context.Context, item media.Item) error {
	_, err := s.RecycleMany(ctx, []media.Item{item})
	return err
}

// RecycleMany moves items into the bin with a single save and a single
// event, and returns how many were added.
func (s *Store) RecycleMany(ctx context.Context, items []media.Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if it.ID == "" {
			return 0, errors.New("recyclebin: item has no id")
		}
	}

	now := s.now()
	var added []media.Item
	for _, it := range items {
		if it.InRecycleBin || s.indexOf(it.ID) >= 0 {
			continue
		}
		r := it.Recycled(now)
		s.items = append(s.items, r)
		added = append(added, r)
	}
	if len(added) == 0 {
		return 0, nil
	}

	s.recompute()
	s.save(ctx)
	metrics.RecycleBinOperationsTotal.WithLabelValues("recycle", "success").Add(float64(len(added)))
	s.emit(s.event(EventRecycled, added))
	logging.Debug("Recycled %d items, bin now %d items / %d bytes", len(added), len(s.items), s.total)
	return len(added), nil
}

// Restore removes an entry from the bin and returns it with its lifecycle
// flags cleared.
func (s *Store) Restore(ctx context.Context, id string) (media.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		metrics.RecycleBinOperationsTotal.WithLabelValues("restore", "not_found").Inc()
		return media.Item{}, fmt.Errorf("restore %s: %w", id, ErrNotFound)
	}

	restored := s.items[i].Restored()
	s.items = slices.Delete(s.items, i, i+1)
	s.recompute()
	s.save(ctx)
	metrics.RecycleBinOperationsTotal.WithLabelValues("restore", "success").Inc()
	s.emit(s.event(EventRestored, []media.Item{restored}))
	return restored, nil
}

// PermanentlyDelete deletes one entry from its backing storage and, only if
// that succeeds, from the bin.
func (s *Store) PermanentlyDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		metrics.RecycleBinOperationsTotal.WithLabelValues("delete", "not_found").Inc()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	it := s.items[i]

	if err := s.deleteOne(ctx, it); err != nil {
		metrics.RecycleBinOperationsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete %s: %w", it.FileName, err)
	}

	s.items = slices.Delete(s.items, i, i+1)
	s.recompute()
	s.save(ctx)
	s.invalidate(it)
	metrics.RecycleBinOperationsTotal.WithLabelValues("delete", "success").Inc()
	s.emit(s.event(EventDeleted, []media.Item{it}))
	return nil
}

func (s *Store) deleteOne(ctx context.Context, it media.Item) error {
	switch {
	case it.Handle != "":
		if s.provider == nil {
			return catalog.ErrProviderUnavailable
		}
		deleted, err := s.provider.DeleteAssets(ctx, []string{it.Handle})
		if slices.Contains(deleted, it.Handle) {
			return nil
		}
		metrics.RecycleBinDeleteFailures.WithLabelValues("catalog").Inc()
		if err == nil {
			err = errors.New("provider did not confirm deletion")
		}
		return err
	case it.FilePath != "":
		if err := s.removeFile(it.FilePath); err != nil {
			metrics.RecycleBinDeleteFailures.WithLabelValues("filesystem").Inc()
			return err
		}
		return nil
	default:
		return ErrNoHandle
	}
}

// PermanentlyDeleteAll deletes every entry: asset-backed entries in one
// provider call, file-backed entries one by one in bin order. The first file
// that cannot be removed stops the file pass, so it and every file entry
// after it stay in the bin. Exactly the entries confirmed deleted are
// removed, and the result is saved once. If anything failed the error is a
// *BatchError.
func (s *Store) PermanentlyDeleteAll(ctx context.Context) (DeleteReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := DeleteReport{Attempted: len(s.items)}
	if len(s.items) == 0 {
		return report, nil
	}

	var handles []string
	var files []media.Item
	for _, it := range s.items {
		switch {
		case it.Handle != "":
			handles = append(handles, it.Handle)
		case it.FilePath != "":
			files = append(files, it)
		}
	}

	var errs []error
	removed := make(map[string]bool, len(s.items))

	if len(handles) > 0 {
		if s.provider == nil {
			errs = append(errs, catalog.ErrProviderUnavailable)
		} else {
			deleted, err := s.provider.DeleteAssets(ctx, handles)
			confirmed := make(map[string]bool, len(deleted))
			for _, h := range deleted {
				confirmed[h] = true
			}
			for _, it := range s.items {
				if it.Handle != "" && confirmed[it.Handle] {
					removed[it.ID] = true
				}
			}
			if failed := len(handles) - len(deleted); failed > 0 {
				metrics.RecycleBinDeleteFailures.WithLabelValues("catalog").Add(float64(failed))
				if err == nil {
					err = fmt.Errorf("provider confirmed %d of %d deletions", len(deleted), len(handles))
				}
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, it := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.removeFile(it.FilePath); err != nil {
			metrics.RecycleBinDeleteFailures.WithLabelValues("filesystem").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", it.FilePath, err))
			break
		}
		removed[it.ID] = true
	}

	if len(handles)+len(files) < len(s.items) {
		errs = append(errs, fmt.Errorf("%d items: %w", len(s.items)-len(handles)-len(files), ErrNoHandle))
	}

	var gone []media.Item
	kept := s.items[:0:0]
	for _, it := range s.items {
		if removed[it.ID] {
			gone = append(gone, it)
			report.FreedBytes += it.Size
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	report.Deleted = len(gone)
	report.Failed = report.Attempted - report.Deleted

	if len(gone) > 0 {
		s.recompute()
		s.save(ctx)
		for _, it := range gone {
			s.invalidate(it)
		}
		s.emit(s.event(EventDeleted, gone))
	}

	if len(errs) > 0 {
		metrics.RecycleBinOperationsTotal.WithLabelValues("delete_all", "partial").Inc()
		logging.Warn("Permanent deletion incomplete: %d of %d deleted", report.Deleted, report.Attempted)
		return report, &BatchError{
			Attempted: report.Attempted,
			Deleted:   report.Deleted,
			Remaining: report.Failed,
			Err:       errors.Join(errs...),
		}
	}

	metrics.RecycleBinOperationsTotal.WithLabelValues("delete_all", "success").Inc()
	logging.Info("Permanently deleted %d items (%d bytes)", report.Deleted, report.FreedBytes)
	return report, nil
}

// EmptyRecycleBin forgets every entry without deleting anything from
// storage. It is a reset hook, not a deletion.
func (s *Store) EmptyRecycleBin(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := s.items
	s.items = nil
	s.recompute()
	s.save(ctx)
	metrics.RecycleBinOperationsTotal.WithLabelValues("empty", "success").Inc()
	s.emit(s.event(EventEmptied, dropped))
}

func (s *Store) invalidate(it media.Item) {
	if s.thumbs != nil {
		s.thumbs.Invalidate(it.Ref())
	}
}

// Items returns a copy of the entries in recycle order.
func (s *Store) Items() []media.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// TotalSize returns the summed size of all entries.
func (s *Store) TotalSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Contains reports whether an entry with id is in the bin.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// MarkKept adds item to the keep list so future scans skip it, and returns
// the item with MarkedForKeeping set.
func (s *Store) MarkKept(ctx context.Context, item media.Item) (media.Item, error) {
	ref := item.Ref()
	if ref == "" {
		return item, ErrNoHandle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.AddKept(ctx, ref); err != nil {
			logging.Warn("Failed to persist keep mark for %s: %v", ref, err)
		}
	}
	s.kept[ref] = struct{}{}
	metrics.RecycleBinOperationsTotal.WithLabelValues("keep", "success").Inc()
	return item.Kept(), nil
}

// Unmark removes item from the keep list and returns it with
// MarkedForKeeping cleared.
func (s *Store) Unmark(ctx context.Context, item media.Item) media.Item {
	ref := item.Ref()
	if ref == "" {
		return item.Unkept()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.RemoveKept(ctx, ref); err != nil {
			logging.Warn("Failed to remove keep mark for %s: %v", ref, err)
		}
	}
	delete(s.kept, ref)
	return item.Unkept()
}

// KeptCount returns the size of the keep list.
func (s *Store) KeptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kept)
}

// IsKept reports whether ref is on the keep list.
func (s *Store) IsKept(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.kept[ref]
	return ok
}
