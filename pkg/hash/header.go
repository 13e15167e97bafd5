package hash

import (
	"encoding/binary"

	"pagekit/pkg/disk"
)

// HeaderPage is the root of a hash index: a fixed-size array mapping the top
// bits of a key's hash to a directory page id. Laid out as
// [max_depth: u32][directory_page_ids: i32 x (1 << HeaderMaxDepth)].
type HeaderPage struct {
	data []byte
}

// InitHeaderPage formats data as a fresh, empty header page with the given
// max depth.
func InitHeaderPage(data []byte, maxDepth uint32) *HeaderPage {
	h := &HeaderPage{data: data}
	binary.LittleEndian.PutUint32(data[headerMaxDepthOffset:], maxDepth)
	for i := uint32(0); i < (1 << HeaderMaxDepth); i++ {
		h.SetDirectoryPageID(i, disk.NoPage)
	}
	return h
}

// WrapHeaderPage views an already-formatted page's bytes as a HeaderPage.
func WrapHeaderPage(data []byte) *HeaderPage {
	return &HeaderPage{data: data}
}

// MaxDepth returns the header's configured max depth.
func (h *HeaderPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(h.data[headerMaxDepthOffset:])
}

// DirectoryIndex returns the directory slot a key with the given hash maps
// to: the top max_depth bits of hash.
func (h *HeaderPage) DirectoryIndex(hash uint32) uint32 {
	maxDepth := h.MaxDepth()
	if maxDepth == 0 {
		return 0
	}
	return hash >> (32 - maxDepth)
}

func (h *HeaderPage) dirOffset(idx uint32) int {
	return headerDirPageIDsOffset + int(idx)*4
}

// DirectoryPageID returns the directory page id at slot idx.
func (h *HeaderPage) DirectoryPageID(idx uint32) disk.PageID {
	return disk.PageID(int32(binary.LittleEndian.Uint32(h.data[h.dirOffset(idx):])))
}

// SetDirectoryPageID sets the directory page id at slot idx.
func (h *HeaderPage) SetDirectoryPageID(idx uint32, pid disk.PageID) {
	binary.LittleEndian.PutUint32(h.data[h.dirOffset(idx):], uint32(int32(pid)))
}
