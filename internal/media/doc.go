// Package media defines the item model shared by the detector, the recycle
// bin and the catalog: Item, AssetDescriptor and RecycleBinEntry.
//
// An Item is created once per catalog scan (NewFromAsset, NewFromFile) or once
// per recycle-bin load (RecycleBinEntry.Item). Its identity never changes.
// Byte sizes for assets are estimated from resolution and duration when the
// provider does not report them; file sizes always come from the filesystem.
package media
