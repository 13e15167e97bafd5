package hash

import (
	"encoding/binary"

	"pagekit/pkg/iterator"
)

// Entry is one key/value pair as stored in a bucket page.
type Entry struct {
	Key   int64
	Value iterator.RID
}

// BucketPage is a leaf of the hash index: a flat array of (key, value)
// entries. Laid out as [size: u32][max_size: u32][entries: (K,V) x max_size].
type BucketPage struct {
	data []byte
}

// InitBucketPage formats data as a fresh, empty bucket page. localDepth is
// accepted for symmetry with the directory's bookkeeping but isn't stored
// on the bucket itself - the directory is the sole owner of local depth.
func InitBucketPage(data []byte, localDepth uint8) *BucketPage {
	b := &BucketPage{data: data}
	b.setSize(0)
	binary.LittleEndian.PutUint32(data[bucketMaxSizeOffset:], uint32(BucketCapacity()))
	return b
}

// WrapBucketPage views an already-formatted page's bytes as a BucketPage.
func WrapBucketPage(data []byte) *BucketPage {
	return &BucketPage{data: data}
}

// Size returns the number of entries currently stored.
func (b *BucketPage) Size() int {
	return int(binary.LittleEndian.Uint32(b.data[bucketSizeOffset:]))
}

// MaxSize returns the maximum number of entries this bucket can hold.
func (b *BucketPage) MaxSize() int {
	return int(binary.LittleEndian.Uint32(b.data[bucketMaxSizeOffset:]))
}

func (b *BucketPage) setSize(n int) {
	binary.LittleEndian.PutUint32(b.data[bucketSizeOffset:], uint32(n))
}

func (b *BucketPage) entryOffset(i int) int {
	return bucketHeaderSize + i*entrySize
}

// KeyAt returns the key of the entry at index i.
func (b *BucketPage) KeyAt(i int) int64 {
	off := b.entryOffset(i)
	return int64(binary.LittleEndian.Uint64(b.data[off:]))
}

// ValueAt returns the value of the entry at index i.
func (b *BucketPage) ValueAt(i int) iterator.RID {
	off := b.entryOffset(i) + 8
	return iterator.RID{
		PageID:  int32(binary.LittleEndian.Uint32(b.data[off:])),
		SlotNum: int32(binary.LittleEndian.Uint32(b.data[off+4:])),
	}
}

func (b *BucketPage) setEntryAt(i int, key int64, value iterator.RID) {
	off := b.entryOffset(i)
	binary.LittleEndian.PutUint64(b.data[off:], uint64(key))
	binary.LittleEndian.PutUint32(b.data[off+8:], uint32(value.PageID))
	binary.LittleEndian.PutUint32(b.data[off+12:], uint32(value.SlotNum))
}

// IsFull reports whether the bucket has no room for another entry.
func (b *BucketPage) IsFull() bool {
	return b.Size() >= b.MaxSize()
}

// IsEmpty reports whether the bucket holds no entries.
func (b *BucketPage) IsEmpty() bool {
	return b.Size() == 0
}

// Find scans linearly for key, returning its value and whether it was
// found.
func (b *BucketPage) Find(key int64) (iterator.RID, bool) {
	for i := 0; i < b.Size(); i++ {
		if b.KeyAt(i) == key {
			return b.ValueAt(i), true
		}
	}
	return iterator.RID{}, false
}

// Insert appends key/value. The caller must have already checked for
// duplicates. Returns false if the bucket has no room.
func (b *BucketPage) Insert(key int64, value iterator.RID) bool {
	if b.IsFull() {
		return false
	}
	n := b.Size()
	b.setEntryAt(n, key, value)
	b.setSize(n + 1)
	return true
}

// Remove deletes the entry with the given key, shifting later entries down
// to keep the array dense. Returns false if key wasn't found.
func (b *BucketPage) Remove(key int64) bool {
	n := b.Size()
	for i := 0; i < n; i++ {
		if b.KeyAt(i) == key {
			for j := i; j < n-1; j++ {
				b.setEntryAt(j, b.KeyAt(j+1), b.ValueAt(j+1))
			}
			b.setSize(n - 1)
			return true
		}
	}
	return false
}

// Entries returns a copy of every entry currently stored, in array order.
func (b *BucketPage) Entries() []Entry {
	out := make([]Entry, b.Size())
	for i := range out {
		out[i] = Entry{Key: b.KeyAt(i), Value: b.ValueAt(i)}
	}
	return out
}

// clear empties the bucket without touching its stored bytes beyond size.
func (b *BucketPage) clear() {
	b.setSize(0)
}
