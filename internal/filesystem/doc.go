/*
Package filesystem wraps the few os calls mediasweep makes against library
and files volumes so they survive NFS stale file handles.

The library and the files directory are often network mounts. A stat, open
or remove that fails with ESTALE (errno 116) is retried with exponential
backoff; every other error, including "not exist", is returned on the first
attempt.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

DefaultRetryConfig allows 3 retries starting at 50ms and doubling up to
500ms.

RemoveFile is how the recycle bin purges file-backed items. It refuses
directories, so a corrupt entry can only ever cost one file.

# Reporting

Each call produces one Operation, tagged with the volume that
VolumeResolver maps the path to ("library", "files", "database" or
"unknown"). Install an Observer with SetObserver to receive them; the
metrics package supplies the Prometheus one. Without an observer nothing
is recorded.
*/
package filesystem
