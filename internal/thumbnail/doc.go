/*
Package thumbnail decodes thumbnails for photos and videos and keeps them in
an in-memory cache.

# Generator

Generator.Generate decodes a photo with libvips when InitVips has been
called, otherwise with imaging (EXIF auto-orientation, large images
downscaled first), and finally with ffmpeg. Video thumbnails are a frame
extracted by ffmpeg. The result is fitted into a square with Lanczos
resampling.

# Cache

Cache stores encoded Entry values keyed by an item reference (asset handle
or file path). Entries expire after a TTL (default 30 minutes) and a janitor
removes them every 10 minutes. Every operation is serialized by one mutex.

	cache := thumbnail.NewCache(thumbnail.DefaultTTL, thumbnail.DefaultCleanupInterval)
	cache.Prewarm(ctx, refs, fetch)       // best effort, never fails
	e, err := cache.GetOrFetch(ctx, ref, fetch)

Concurrent GetOrFetch misses for one reference share a single fetch.
ClearUnderPressure is wired to the memory monitor so the cache is dropped
when the heap reaches its critical watermark, and SetPauser makes Prewarm
stop starting loads while the monitor reports pressure.
*/
package thumbnail
