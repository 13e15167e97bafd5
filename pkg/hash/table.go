// Package hash implements the on-disk extendible hash index (C6): a
// three-level header/directory/bucket page hierarchy built on top of a
// buffer pool, supporting point lookup, insert, and delete with dynamic
// bucket splitting and merging.
package hash

import (
	"errors"

	"pagekit/pkg/buffer"
	"pagekit/pkg/disk"
	"pagekit/pkg/iterator"
)

// ErrDuplicateKey is returned by Insert when the key already exists.
var ErrDuplicateKey = errors.New("hash: key already exists")

// ErrIndexFull is returned by Insert when a split is required, the
// overflowing bucket's local depth equals the global depth, and the
// directory is already at its configured max depth.
var ErrIndexFull = errors.New("hash: index is full")

// ErrKeyNotFound is returned by Remove when the key doesn't exist.
var ErrKeyNotFound = errors.New("hash: key not found")

// ExtendibleHashTable is an on-disk extendible hash index: one header page
// fanning out to directory pages, each fanning out to bucket pages, all
// fetched and latched through a buffer pool.
type ExtendibleHashTable struct {
	bpm          *buffer.BufferPoolManager
	headerPageID disk.PageID
	hash         HashFunc
}

// Option configures an ExtendibleHashTable at construction time.
type Option func(*ExtendibleHashTable)

// WithHasher overrides the table's hash function. The default is XxHasher.
func WithHasher(h HashFunc) Option {
	return func(t *ExtendibleHashTable) { t.hash = h }
}

// NewExtendibleHashTable allocates a fresh header page and returns a table
// backed by it.
func NewExtendibleHashTable(bpm *buffer.BufferPoolManager, opts ...Option) (*ExtendibleHashTable, error) {
	guard, err := bpm.NewPageGuarded()
	if err != nil {
		return nil, err
	}
	InitHeaderPage(guard.Data(), HeaderMaxDepth)
	headerPageID := guard.PageID()
	guard.Drop()

	t := &ExtendibleHashTable{bpm: bpm, headerPageID: headerPageID, hash: XxHasher}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// OpenExtendibleHashTable wraps an existing header page id as a table - the
// handle a caller needs to reopen an index built in a previous run.
func OpenExtendibleHashTable(bpm *buffer.BufferPoolManager, headerPageID disk.PageID, opts ...Option) *ExtendibleHashTable {
	t := &ExtendibleHashTable{bpm: bpm, headerPageID: headerPageID, hash: XxHasher}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HeaderPageID returns the id of this table's header page.
func (t *ExtendibleHashTable) HeaderPageID() disk.PageID {
	return t.headerPageID
}

// GetValue looks up key, returning its value and whether it was found.
// Implements the read path with latch crabbing: each guard is released as
// soon as the next page down is pinned.
func (t *ExtendibleHashTable) GetValue(key int64) (iterator.RID, bool, error) {
	h := t.hash(key)

	headerGuard, err := t.bpm.FetchPageRead(t.headerPageID)
	if err != nil {
		return iterator.RID{}, false, err
	}
	header := WrapHeaderPage(headerGuard.Data())
	dirPageID := header.DirectoryPageID(header.DirectoryIndex(h))
	if dirPageID == disk.NoPage {
		headerGuard.Drop()
		return iterator.RID{}, false, nil
	}

	dirGuard, err := t.bpm.FetchPageRead(dirPageID)
	headerGuard.Drop()
	if err != nil {
		return iterator.RID{}, false, err
	}
	dir := WrapDirectoryPage(dirGuard.Data())
	bucketPageID := dir.BucketPageID(dir.HashToBucketIndex(h))
	if bucketPageID == disk.NoPage {
		dirGuard.Drop()
		return iterator.RID{}, false, nil
	}

	bucketGuard, err := t.bpm.FetchPageRead(bucketPageID)
	dirGuard.Drop()
	if err != nil {
		return iterator.RID{}, false, err
	}
	defer bucketGuard.Drop()
	value, found := WrapBucketPage(bucketGuard.Data()).Find(key)
	return value, found, nil
}

// Insert adds key/value to the index. Implements spec rules in order: wire
// up a missing directory, wire up a missing bucket, reject duplicates,
// insert if there's room, otherwise split (growing the directory first if
// every slot in the split group is still at the directory's global depth)
// and retry.
func (t *ExtendibleHashTable) Insert(key int64, value iterator.RID) error {
	h := t.hash(key)

	headerGuard, err := t.bpm.FetchPageWrite(t.headerPageID)
	if err != nil {
		return err
	}
	header := WrapHeaderPage(headerGuard.Data())
	dirIdx := header.DirectoryIndex(h)
	dirPageID := header.DirectoryPageID(dirIdx)

	if dirPageID == disk.NoPage {
		dirGuard, err := t.bpm.NewPageGuarded()
		if err != nil {
			headerGuard.Drop()
			return err
		}
		InitDirectoryPage(dirGuard.Data(), DirectoryMaxDepth)
		dir := WrapDirectoryPage(dirGuard.Data())

		bucketGuard, err := t.bpm.NewPageGuarded()
		if err != nil {
			dirGuard.Drop()
			headerGuard.Drop()
			return err
		}
		InitBucketPage(bucketGuard.Data(), 0)
		dir.SetBucketPageID(0, bucketGuard.PageID())
		dir.SetLocalDepth(0, 0)
		bucketGuard.Drop()

		dirPageID = dirGuard.PageID()
		header.SetDirectoryPageID(dirIdx, dirPageID)
		dirGuard.Drop()
	}
	headerGuard.Drop()

	return t.insertIntoDirectory(dirPageID, h, key, value)
}

func (t *ExtendibleHashTable) insertIntoDirectory(dirPageID disk.PageID, h uint32, key int64, value iterator.RID) error {
	for {
		dirGuard, err := t.bpm.FetchPageWrite(dirPageID)
		if err != nil {
			return err
		}
		dir := WrapDirectoryPage(dirGuard.Data())
		bucketIdx := dir.HashToBucketIndex(h)
		bucketPageID := dir.BucketPageID(bucketIdx)

		if bucketPageID == disk.NoPage {
			bucketGuard, err := t.bpm.NewPageGuarded()
			if err != nil {
				dirGuard.Drop()
				return err
			}
			InitBucketPage(bucketGuard.Data(), uint8(dir.GlobalDepth()))
			bucketPageID = bucketGuard.PageID()
			dir.SetBucketPageID(bucketIdx, bucketPageID)
			dir.SetLocalDepth(bucketIdx, uint8(dir.GlobalDepth()))
			bucketGuard.Drop()
		}

		bucketGuard, err := t.bpm.FetchPageWrite(bucketPageID)
		if err != nil {
			dirGuard.Drop()
			return err
		}
		bucket := WrapBucketPage(bucketGuard.Data())

		if _, found := bucket.Find(key); found {
			bucketGuard.Drop()
			dirGuard.Drop()
			return ErrDuplicateKey
		}

		if !bucket.IsFull() {
			bucket.Insert(key, value)
			bucketGuard.Drop()
			dirGuard.Drop()
			return nil
		}

		d := uint32(dir.LocalDepth(bucketIdx))
		g := dir.GlobalDepth()
		if d == g && g == DirectoryMaxDepth {
			bucketGuard.Drop()
			dirGuard.Drop()
			return ErrIndexFull
		}
		if d == g {
			dir.Grow()
			g++
		}

		if err := t.splitBucket(dir, bucketIdx, d, g, bucketGuard, bucketPageID); err != nil {
			dirGuard.Drop()
			return err
		}
		dirGuard.Drop()
		// The entry may belong in either half after redistribution; retry
		// against the now-split directory rather than recursing.
	}
}

// splitBucket allocates a sibling bucket at bucketIdx's split depth,
// redistributes entries between the two by their (depth)-th hash bit, and
// repoints every directory slot in the split group accordingly.
func (t *ExtendibleHashTable) splitBucket(dir *DirectoryPage, bucketIdx uint32, d uint32, g uint32, bucketGuard *buffer.WritePageGuard, bucketPageID disk.PageID) error {
	bucket := WrapBucketPage(bucketGuard.Data())

	newBucketGuard, err := t.bpm.NewPageGuarded()
	if err != nil {
		bucketGuard.Drop()
		return err
	}
	InitBucketPage(newBucketGuard.Data(), uint8(d+1))
	newBucket := WrapBucketPage(newBucketGuard.Data())

	entries := bucket.Entries()
	bucket.clear()
	for _, e := range entries {
		if (t.hash(e.Key)>>d)&1 == 1 {
			newBucket.Insert(e.Key, e.Value)
		} else {
			bucket.Insert(e.Key, e.Value)
		}
	}

	splitMask := uint32(1) << d
	oldPrefix := bucketIdx & (splitMask - 1)
	for i := oldPrefix; i < (uint32(1) << g); i += splitMask {
		if (i>>d)&1 == 1 {
			dir.SetBucketPageID(i, newBucketGuard.PageID())
		} else {
			dir.SetBucketPageID(i, bucketPageID)
		}
		dir.SetLocalDepth(i, uint8(d+1))
	}

	newBucketGuard.Drop()
	bucketGuard.Drop()
	return nil
}

// Remove deletes key's entry, then merges the emptied bucket into its split
// sibling as far as local depths allow, then shrinks the directory as far
// as global depth allows.
func (t *ExtendibleHashTable) Remove(key int64) error {
	h := t.hash(key)

	headerGuard, err := t.bpm.FetchPageRead(t.headerPageID)
	if err != nil {
		return err
	}
	header := WrapHeaderPage(headerGuard.Data())
	dirPageID := header.DirectoryPageID(header.DirectoryIndex(h))
	headerGuard.Drop()
	if dirPageID == disk.NoPage {
		return ErrKeyNotFound
	}

	dirGuard, err := t.bpm.FetchPageWrite(dirPageID)
	if err != nil {
		return err
	}
	defer dirGuard.Drop()
	dir := WrapDirectoryPage(dirGuard.Data())

	bucketIdx := dir.HashToBucketIndex(h)
	bucketPageID := dir.BucketPageID(bucketIdx)
	if bucketPageID == disk.NoPage {
		return ErrKeyNotFound
	}

	bucketGuard, err := t.bpm.FetchPageWrite(bucketPageID)
	if err != nil {
		return err
	}
	removed := WrapBucketPage(bucketGuard.Data()).Remove(key)
	bucketGuard.Drop()
	if !removed {
		return ErrKeyNotFound
	}

	if err := t.mergeLoop(dir, bucketIdx); err != nil {
		return err
	}
	for dir.CanShrink() {
		dir.Shrink()
	}
	return nil
}

func (t *ExtendibleHashTable) bucketIsEmpty(pageID disk.PageID) (bool, error) {
	guard, err := t.bpm.FetchPageRead(pageID)
	if err != nil {
		return false, err
	}
	defer guard.Drop()
	return WrapBucketPage(guard.Data()).IsEmpty(), nil
}

func (t *ExtendibleHashTable) mergeLoop(dir *DirectoryPage, bucketIdx uint32) error {
	for {
		d := uint32(dir.LocalDepth(bucketIdx))
		if d == 0 {
			return nil
		}
		bucketPageID := dir.BucketPageID(bucketIdx)
		siblingIdx := bucketIdx ^ (uint32(1) << (d - 1))
		if uint32(dir.LocalDepth(siblingIdx)) != d {
			return nil
		}
		siblingPageID := dir.BucketPageID(siblingIdx)

		bucketEmpty, err := t.bucketIsEmpty(bucketPageID)
		if err != nil {
			return err
		}
		siblingEmpty, err := t.bucketIsEmpty(siblingPageID)
		if err != nil {
			return err
		}
		if !bucketEmpty && !siblingEmpty {
			return nil
		}

		var survivorPageID, emptyPageID disk.PageID
		if bucketEmpty {
			survivorPageID, emptyPageID = siblingPageID, bucketPageID
		} else {
			survivorPageID, emptyPageID = bucketPageID, siblingPageID
		}

		newDepth := d - 1
		mergedPrefix := bucketIdx & ((uint32(1) << newDepth) - 1)
		for i := mergedPrefix; i < (uint32(1) << dir.GlobalDepth()); i += uint32(1) << newDepth {
			dir.SetBucketPageID(i, survivorPageID)
			dir.SetLocalDepth(i, uint8(newDepth))
		}
		t.bpm.DeletePage(emptyPageID)
	}
}
