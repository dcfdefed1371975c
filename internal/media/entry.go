package media

import (
	"time"

	"mediasweep/internal/mediatypes"
)

// RecycleBinEntry is the durable projection of an item held in the recycle bin.
type RecycleBinEntry struct {
	ID              string          `json:"id"`
	FileName        string          `json:"fileName"`
	Size            int64           `json:"size"`
	CreatedAt       time.Time       `json:"creationDate"`
	DeletedAt       *time.Time      `json:"deletedDate,omitempty"`
	Kind            mediatypes.Kind `json:"kind"`
	IsDuplicate     bool            `json:"isDuplicate"`
	SimilarityScore float64         `json:"similarityScore"`
	AssetHandle     *string         `json:"assetHandle,omitempty"`
	FilePath        *string         `json:"filePath,omitempty"`
}

// Entry projects a recycled item into its persisted form.
func (it Item) Entry() RecycleBinEntry {
	e := RecycleBinEntry{
		ID:              it.ID,
		FileName:        it.FileName,
		Size:            it.Size,
		CreatedAt:       it.CreatedAt,
		DeletedAt:       it.DeletedAt,
		Kind:            it.Kind,
		IsDuplicate:     it.IsDuplicate,
		SimilarityScore: it.SimilarityScore,
	}
	if it.Handle != "" {
		h := it.Handle
		e.AssetHandle = &h
	}
	if it.FilePath != "" {
		p := it.FilePath
		e.FilePath = &p
	}
	return e
}

// Item rebuilds an in-bin item from a persisted entry. Width, height and
// duration are not persisted and come back as zero.
func (e RecycleBinEntry) Item() Item {
	it := Item{
		ID:              e.ID,
		Kind:            e.Kind,
		FileName:        e.FileName,
		Size:            e.Size,
		CreatedAt:       e.CreatedAt,
		SimilarityScore: e.SimilarityScore,
		IsDuplicate:     e.IsDuplicate,
		InRecycleBin:    true,
		DeletedAt:       e.DeletedAt,
	}
	if it.DeletedAt == nil {
		now := time.Now()
		it.DeletedAt = &now
	}
	if e.AssetHandle != nil {
		it.Handle = *e.AssetHandle
	}
	if e.FilePath != nil {
		it.FilePath = *e.FilePath
	}
	return it
}
