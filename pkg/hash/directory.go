package hash

import (
	"encoding/binary"

	"pagekit/pkg/disk"
)

// DirectoryPage maps the low global_depth bits of a key's hash to a bucket
// page id, with a per-slot local depth recording how many of those bits the
// slot's bucket actually distinguishes on. Laid out as
// [max_depth: u32][global_depth: u32][local_depths: u8 x (1 << DirectoryMaxDepth)]
// [bucket_page_ids: i32 x (1 << DirectoryMaxDepth)].
type DirectoryPage struct {
	data []byte
}

// InitDirectoryPage formats data as a fresh directory page with the given
// max depth, global depth 0, and every slot pointing nowhere.
func InitDirectoryPage(data []byte, maxDepth uint32) *DirectoryPage {
	d := &DirectoryPage{data: data}
	binary.LittleEndian.PutUint32(data[dirMaxDepthOffset:], maxDepth)
	binary.LittleEndian.PutUint32(data[dirGlobalDepthOffset:], 0)
	for i := uint32(0); i < (1 << DirectoryMaxDepth); i++ {
		d.data[dirLocalDepthsOffset+i] = 0
		d.SetBucketPageID(i, disk.NoPage)
	}
	return d
}

// WrapDirectoryPage views an already-formatted page's bytes as a
// DirectoryPage.
func WrapDirectoryPage(data []byte) *DirectoryPage {
	return &DirectoryPage{data: data}
}

// MaxDepth returns the directory's configured max depth.
func (d *DirectoryPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(d.data[dirMaxDepthOffset:])
}

// GlobalDepth returns the number of hash bits this directory currently
// addresses with.
func (d *DirectoryPage) GlobalDepth() uint32 {
	return binary.LittleEndian.Uint32(d.data[dirGlobalDepthOffset:])
}

// SetGlobalDepth sets the directory's global depth.
func (d *DirectoryPage) SetGlobalDepth(g uint32) {
	binary.LittleEndian.PutUint32(d.data[dirGlobalDepthOffset:], g)
}

// LocalDepth returns the local depth of the bucket at slot idx.
func (d *DirectoryPage) LocalDepth(idx uint32) uint8 {
	return d.data[dirLocalDepthsOffset+idx]
}

// SetLocalDepth sets the local depth of the bucket at slot idx.
func (d *DirectoryPage) SetLocalDepth(idx uint32, depth uint8) {
	d.data[dirLocalDepthsOffset+idx] = depth
}

func (d *DirectoryPage) bucketOffset(idx uint32) int {
	return dirBucketPageIDsOffset + int(idx)*4
}

// BucketPageID returns the bucket page id at slot idx.
func (d *DirectoryPage) BucketPageID(idx uint32) disk.PageID {
	return disk.PageID(int32(binary.LittleEndian.Uint32(d.data[d.bucketOffset(idx):])))
}

// SetBucketPageID sets the bucket page id at slot idx.
func (d *DirectoryPage) SetBucketPageID(idx uint32, pid disk.PageID) {
	binary.LittleEndian.PutUint32(d.data[d.bucketOffset(idx):], uint32(int32(pid)))
}

// HashToBucketIndex returns the bucket slot a key with the given hash maps
// to: the low global_depth bits of hash.
func (d *DirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	g := d.GlobalDepth()
	if g == 0 {
		return 0
	}
	return hash & ((1 << g) - 1)
}

// SplitImage returns the index paired with idx by a flip of the highest
// used bit.
func (d *DirectoryPage) SplitImage(idx uint32) uint32 {
	g := d.GlobalDepth()
	if g == 0 {
		return idx
	}
	return idx ^ (1 << (g - 1))
}

// Grow doubles the directory's addressable range by incrementing global
// depth, mirroring every existing slot's bucket id and local depth into its
// split image.
func (d *DirectoryPage) Grow() {
	g := d.GlobalDepth()
	d.SetGlobalDepth(g + 1)
	for j := uint32(1) << g; j < uint32(1)<<(g+1); j++ {
		mirror := d.SplitImage(j)
		d.SetBucketPageID(j, d.BucketPageID(mirror))
		d.SetLocalDepth(j, d.LocalDepth(mirror))
	}
}

// Shrink halves the directory's addressable range by decrementing global
// depth. Callers must only call this when CanShrink holds.
func (d *DirectoryPage) Shrink() {
	d.SetGlobalDepth(d.GlobalDepth() - 1)
}

// CanShrink reports whether every slot in [0, 1<<global_depth) has a local
// depth strictly less than the global depth - the corrected bound: earlier
// implementations of this check scanned all the way to max_depth instead of
// stopping at the directory's actually-addressed range.
func (d *DirectoryPage) CanShrink() bool {
	g := d.GlobalDepth()
	if g == 0 {
		return false
	}
	for i := uint32(0); i < (1 << g); i++ {
		if d.LocalDepth(i) >= uint8(g) {
			return false
		}
	}
	return true
}
