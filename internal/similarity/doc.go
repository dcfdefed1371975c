// Package similarity scores how alike two media items are, from metadata
// only: aspect ratio, resolution, byte size, creation time and, for videos,
// duration. Scores are in [0, 1].
//
// Scoring is deterministic by default. A Noise strategy can be injected with
// WithNoise to perturb scores; UniformNoise takes a seed so runs stay
// reproducible.
package similarity
