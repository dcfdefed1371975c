// Package catalog defines the media catalog a scan reads from and provides a
// filesystem implementation of it.
//
// A Provider lists photo and video assets, deletes them in bulk, renders
// thumbnails and reports whether a previously seen handle still exists.
// Library implements Provider over a directory tree: files are discovered by
// a parallel walker, photo dimensions come from the image header and video
// dimensions and durations from ffprobe when it is installed.
//
// ScanFiles covers everything that is not a catalog asset, such as audio and
// documents, and yields file-backed items instead of descriptors.
package catalog
