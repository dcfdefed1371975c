// Package detector finds near-duplicate photos and videos in a set of
// catalog items.
//
// Items are grouped by kind and each group is processed concurrently. Photo
// pairs are first screened by file size and capture time (PassesPreFilter);
// only survivors are scored. Photos are split into batches that run on a
// bounded worker pool, each photo being compared against every photo after it
// in the group, so each unordered pair is scored at most once. Videos are
// compared pairwise without a pre-filter.
//
// For every pair above the kind's threshold the smaller file is flagged as the
// duplicate. An item flagged by several pairs keeps its highest score.
//
//	d := detector.New(nil, detector.DefaultConfig())
//	dups, err := d.Detect(ctx, items, func(p float64) { ... })
package detector
