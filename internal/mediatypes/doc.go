// Package mediatypes classifies files into the media kinds mediasweep works
// with: photos and videos (catalog assets) and audio files and documents
// (plain filesystem items).
//
// # Kinds
//
//	mediatypes.KindPhoto    // still images
//	mediatypes.KindVideo    // videos
//	mediatypes.KindAudio    // audio files
//	mediatypes.KindDocument // everything else
//
// # Detection
//
// KindForExt is a pure lookup on the lowercase extension. DetectKind also
// sniffs file content with mimetype when the extension is unknown, which
// catches photos and videos exported without an extension:
//
//	kind := mediatypes.DetectKind("/library/IMG_0001")
//
// Kinds are persisted as their string value; ParseKind maps unknown strings
// to KindDocument so old or corrupt rows still load.
package mediatypes
