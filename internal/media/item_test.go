package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromAsset(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	desc := AssetDescriptor{
		Handle:    "2024/IMG_0001.jpg",
		Kind:      KindPhoto,
		Width:     4000,
		Height:    3000,
		CreatedAt: created,
	}

	it := NewFromAsset(desc)

	require.NotEmpty(t, it.ID)
	assert.Equal(t, KindPhoto, it.Kind)
	assert.Equal(t, "2024/IMG_0001.jpg", it.Handle)
	assert.Equal(t, "IMG_0001.jpg", it.FileName)
	assert.Equal(t, int64(3_600_000), it.Size, "size should be estimated from resolution")
	assert.Equal(t, created, it.CreatedAt)
	assert.False(t, it.InRecycleBin)
	assert.Nil(t, it.DeletedAt)
	require.NotNil(t, it.Asset)
	assert.Equal(t, desc.Handle, it.Asset.Handle)
	assert.NoError(t, it.Validate())
}

func TestNewFromAssetPrefersReportedSize(t *testing.T) {
	t.Parallel()

	it := NewFromAsset(AssetDescriptor{Handle: "a.jpg", Kind: KindPhoto, Width: 100, Height: 100, Size: 12345})
	assert.Equal(t, int64(12345), it.Size)
}

func TestIdentityIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		it := NewFromFile("/tmp/x.pdf", KindDocument, 10, time.Now())
		require.False(t, seen[it.ID], "identity reused: %s", it.ID)
		seen[it.ID] = true
	}
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	it := NewFromFile("/docs/report.pdf", KindDocument, -5, time.Now())
	assert.Equal(t, "report.pdf", it.FileName)
	assert.Equal(t, int64(0), it.Size, "negative sizes are clamped")
	assert.Equal(t, "/docs/report.pdf", it.Ref())
	assert.False(t, it.IsAssetBacked())
}

func TestRecycledAndRestored(t *testing.T) {
	t.Parallel()

	it := NewFromAsset(AssetDescriptor{Handle: "a.jpg", Kind: KindPhoto, Width: 10, Height: 10})
	now := time.Now()

	recycled := it.Recycled(now)
	require.True(t, recycled.InRecycleBin)
	require.NotNil(t, recycled.DeletedAt)
	assert.Equal(t, now, *recycled.DeletedAt)
	assert.NoError(t, recycled.Validate())
	assert.False(t, it.InRecycleBin, "original value must not change")

	restored := recycled.Restored()
	assert.False(t, restored.InRecycleBin)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, it.ID, restored.ID)
	assert.NoError(t, restored.Validate())
}

func TestKeptAndUnkept(t *testing.T) {
	t.Parallel()

	it := NewFromAsset(AssetDescriptor{Handle: "a.jpg", Kind: KindPhoto})

	kept := it.Kept()
	assert.True(t, kept.MarkedForKeeping)
	assert.False(t, it.MarkedForKeeping, "original value must not change")
	assert.Equal(t, it.ID, kept.ID)
	assert.NoError(t, kept.Validate())

	assert.False(t, kept.Unkept().MarkedForKeeping)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{name: "valid", item: Item{ID: "a", Kind: KindPhoto}},
		{name: "missing id", item: Item{Kind: KindPhoto}, wantErr: true},
		{name: "negative size", item: Item{ID: "a", Kind: KindPhoto, Size: -1}, wantErr: true},
		{name: "in bin without date", item: Item{ID: "a", Kind: KindPhoto, InRecycleBin: true}, wantErr: true},
		{name: "date without bin", item: Item{ID: "a", Kind: KindPhoto, DeletedAt: &now}, wantErr: true},
		{name: "unknown kind", item: Item{ID: "a", Kind: "sticker"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.item.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAspectRatioAndPixels(t *testing.T) {
	t.Parallel()

	it := Item{Width: 1920, Height: 1080}
	assert.InDelta(t, 16.0/9.0, it.AspectRatio(), 1e-9)
	assert.Equal(t, int64(1920*1080), it.Pixels())

	unknown := Item{Width: 0, Height: 1080}
	assert.Equal(t, 0.0, unknown.AspectRatio())
	assert.Equal(t, int64(0), unknown.Pixels())
}

func TestEntryRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now()
	it := NewFromAsset(AssetDescriptor{Handle: "v.mp4", Kind: KindVideo, Width: 1920, Height: 1080, Duration: time.Minute})
	it.IsDuplicate = true
	it.SimilarityScore = 0.91
	it = it.Recycled(now)

	entry := it.Entry()
	require.NotNil(t, entry.AssetHandle)
	assert.Equal(t, "v.mp4", *entry.AssetHandle)
	assert.Nil(t, entry.FilePath)

	back := entry.Item()
	assert.Equal(t, it.ID, back.ID)
	assert.Equal(t, it.Handle, back.Handle)
	assert.Equal(t, it.Size, back.Size)
	assert.True(t, back.InRecycleBin)
	assert.True(t, back.IsDuplicate)
	assert.InDelta(t, 0.91, back.SimilarityScore, 1e-9)
	assert.NoError(t, back.Validate())
}

func TestEntryItemFillsMissingDeletedDate(t *testing.T) {
	t.Parallel()

	path := "/docs/a.pdf"
	e := RecycleBinEntry{ID: "x", Kind: KindDocument, FilePath: &path}
	it := e.Item()
	assert.True(t, it.InRecycleBin)
	assert.NotNil(t, it.DeletedAt, "in-bin items always carry a deleted date")
	assert.Equal(t, path, it.FilePath)
}
