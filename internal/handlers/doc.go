// Package handlers implements the HTTP API: starting scans, reading
// duplicate results, recycling and keeping items, managing the recycle bin
// and serving cached thumbnails.
//
// Routes are registered by [NewRouter]. Errors are returned as
// {"error": "..."} JSON with a status derived from the sentinel errors of
// the catalog, cleaner and recyclebin packages. A partially failed "delete
// all" answers 207 Multi-Status with the report and the remaining count.
package handlers
