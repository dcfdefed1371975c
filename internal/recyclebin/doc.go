// Package recyclebin holds items the user has chosen to delete until they
// are restored or permanently removed.
//
// # Lifecycle
//
// An item moves Active → Recycled → Restored or PermanentlyDeleted. The
// Store is the single source of truth once an item is recycled; every
// mutation recomputes the aggregate size, writes the whole list through to
// the Persistence layer and notifies subscribers.
//
// # Permanent deletion
//
// PermanentlyDeleteAll sends all asset-backed entries to the catalog in one
// DeleteAssets call and removes file-backed entries one at a time. Only the
// entries confirmed deleted leave the store. When some deletions fail the
// returned *BatchError says how many are still pending so the caller can
// retry just those.
//
// # Persistence failures
//
// A failed save is logged and the in-memory list stays authoritative. On
// Open, rows whose handle or path no longer resolves are dropped.
package recyclebin
