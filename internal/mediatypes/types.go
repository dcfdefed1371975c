package mediatypes

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the category of a media item.
type Kind string

const (
	// KindPhoto is a still image managed by the media catalog.
	KindPhoto Kind = "photo"
	// KindVideo is a video managed by the media catalog.
	KindVideo Kind = "video"
	// KindAudio is an audio file found on the filesystem.
	KindAudio Kind = "audio"
	// KindDocument is any other file found on the filesystem.
	KindDocument Kind = "document"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPhoto, KindVideo, KindAudio, KindDocument:
		return true
	}
	return false
}

// IsAsset reports whether items of this kind come from the media catalog
// rather than from an arbitrary filesystem path.
func (k Kind) IsAsset() bool {
	return k == KindPhoto || k == KindVideo
}

// ParseKind converts a persisted kind string back into a Kind.
// Unknown values map to KindDocument.
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k.Valid() {
		return k
	}
	return KindDocument
}

// PhotoExtensions maps file extensions to whether they are supported photo formats.
var PhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// AudioExtensions maps file extensions to whether they are audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// KindForExt returns the Kind for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// The second return value is false when the extension is not recognized.
func KindForExt(ext string) (Kind, bool) {
	switch {
	case PhotoExtensions[ext]:
		return KindPhoto, true
	case VideoExtensions[ext]:
		return KindVideo, true
	case AudioExtensions[ext]:
		return KindAudio, true
	}
	return KindDocument, false
}

// KindForMIME maps a MIME type to a Kind by its top-level type.
func KindForMIME(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindPhoto
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	}
	return KindDocument
}

// DetectKind classifies a file by extension first and falls back to content
// sniffing when the extension is unknown or missing.
func DetectKind(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := KindForExt(ext); ok {
		return kind
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return KindDocument
	}
	return KindForMIME(mt.String())
}
