package hash

import "pagekit/pkg/config"

// HeaderMaxDepth and DirectoryMaxDepth bound the header and directory page
// depths; both pages preallocate their full fixed-size arrays up front
// rather than growing them, so each array holds 1 << bound entries.
const (
	HeaderMaxDepth    = uint32(config.HeaderMaxDepth)
	DirectoryMaxDepth = uint32(config.DirectoryMaxDepth)
)

const (
	headerMaxDepthOffset   = 0
	headerDirPageIDsOffset = 4
)

const (
	dirMaxDepthOffset       = 0
	dirGlobalDepthOffset    = 4
	dirLocalDepthsOffset    = 8
	dirBucketPageIDsOffset  = dirLocalDepthsOffset + (1 << DirectoryMaxDepth)
)

const (
	bucketSizeOffset    = 0
	bucketMaxSizeOffset = 4
	bucketHeaderSize    = 8
	entrySize           = 16 // int64 key + RID{PageID int32, SlotNum int32}
)

// BucketCapacity returns the maximum number of entries a bucket page can
// hold, derived from the page size and the fixed entry width.
func BucketCapacity() int {
	return (int(config.PageSize) - bucketHeaderSize) / entrySize
}
