package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mediasweep/internal/mediatypes"
)

// Kind is re-exported so most callers only need this package.
type Kind = mediatypes.Kind

// Kind values, re-exported from mediatypes.
const (
	KindPhoto    = mediatypes.KindPhoto
	KindVideo    = mediatypes.KindVideo
	KindAudio    = mediatypes.KindAudio
	KindDocument = mediatypes.KindDocument
)

// AssetDescriptor is what a catalog provider reports for one asset.
type AssetDescriptor struct {
	Handle    string          `json:"handle"`
	Kind      mediatypes.Kind `json:"kind"`
	FileName  string          `json:"fileName"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Duration  time.Duration   `json:"duration"`
	CreatedAt time.Time       `json:"createdAt"`
	// Size is the real byte size when the provider knows it, 0 otherwise.
	Size int64 `json:"size"`
}

// Item is one asset or file under consideration.
//
// Items are values: the detector and workers copy them and report results by
// producing new values. Lifecycle fields are only changed by the recycle bin
// or by an explicit keep decision.
type Item struct {
	ID       string           `json:"id"`
	Kind     mediatypes.Kind  `json:"kind"`
	Asset    *AssetDescriptor `json:"-"`
	Handle   string           `json:"handle,omitempty"`
	FilePath string           `json:"filePath,omitempty"`
	FileName string           `json:"fileName"`

	Size      int64         `json:"size"`
	CreatedAt time.Time     `json:"createdAt"`
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`

	SimilarityScore float64 `json:"similarityScore"`
	IsDuplicate     bool    `json:"isDuplicate"`

	InRecycleBin     bool       `json:"isInRecycleBin"`
	DeletedAt        *time.Time `json:"deletedDate,omitempty"`
	MarkedForKeeping bool       `json:"isMarkedForKeeping"`
}

// NewID returns a fresh item identity.
func NewID() string {
	return uuid.NewString()
}

// NewFromAsset builds an item for a catalog asset. When the provider did not
// report a byte size it is estimated from resolution and duration.
func NewFromAsset(desc AssetDescriptor) Item {
	d := desc
	size := desc.Size
	if size <= 0 {
		size = EstimateSize(desc.Kind, desc.Width, desc.Height, desc.Duration)
	}

	name := desc.FileName
	if name == "" {
		name = filepath.Base(desc.Handle)
	}

	return Item{
		ID:        NewID(),
		Kind:      desc.Kind,
		Asset:     &d,
		Handle:    desc.Handle,
		FileName:  name,
		Size:      size,
		CreatedAt: desc.CreatedAt,
		Width:     desc.Width,
		Height:    desc.Height,
		Duration:  desc.Duration,
	}
}

// NewFromFile builds an item for a plain file. The size comes from filesystem
// metadata, never from an estimate.
func NewFromFile(path string, kind mediatypes.Kind, size int64, created time.Time) Item {
	if size < 0 {
		size = 0
	}
	return Item{
		ID:        NewID(),
		Kind:      kind,
		FilePath:  path,
		FileName:  filepath.Base(path),
		Size:      size,
		CreatedAt: created,
	}
}

// Ref is the stable reference used for thumbnails and the keep list: the
// asset handle for catalog items, the path for files.
func (it Item) Ref() string {
	if it.Handle != "" {
		return it.Handle
	}
	return it.FilePath
}

// IsAssetBacked reports whether deletion goes through the catalog provider.
func (it Item) IsAssetBacked() bool {
	return it.Handle != ""
}

// AspectRatio returns width/height, or 0 when either dimension is unknown.
func (it Item) AspectRatio() float64 {
	if it.Width <= 0 || it.Height <= 0 {
		return 0
	}
	return float64(it.Width) / float64(it.Height)
}

// Pixels returns width*height.
func (it Item) Pixels() int64 {
	if it.Width <= 0 || it.Height <= 0 {
		return 0
	}
	return int64(it.Width) * int64(it.Height)
}

// Recycled returns a copy of the item placed in the recycle bin at t.
func (it Item) Recycled(t time.Time) Item {
	deleted := t
	it.InRecycleBin = true
	it.DeletedAt = &deleted
	return it
}

// Restored returns a copy of the item with the recycle-bin flags cleared.
func (it Item) Restored() Item {
	it.InRecycleBin = false
	it.DeletedAt = nil
	return it
}

// Kept returns a copy of the item marked for keeping.
func (it Item) Kept() Item {
	it.MarkedForKeeping = true
	return it
}

// Unkept returns a copy of the item with the keep mark cleared.
func (it Item) Unkept() Item {
	it.MarkedForKeeping = false
	return it
}

// Validate checks the item invariants.
func (it Item) Validate() error {
	var errs []error
	if it.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if it.Size < 0 {
		errs = append(errs, fmt.Errorf("negative size %d", it.Size))
	}
	if it.InRecycleBin != (it.DeletedAt != nil) {
		errs = append(errs, errors.New("deleted date must be set exactly when the item is in the recycle bin"))
	}
	if !it.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", it.Kind))
	}
	return errors.Join(errs...)
}
