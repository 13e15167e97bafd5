package hash

import (
	"pagekit/pkg/disk"
	"pagekit/pkg/iterator"
)

// Iterator walks every entry in an ExtendibleHashTable. Init snapshots the
// set of live bucket page ids reachable from the header; Next streams
// entries bucket by bucket from that snapshot. Not restartable without a
// fresh Init, not safe for concurrent use - exactly the contract
// pkg/iterator.Cursor describes.
type Iterator struct {
	table     *ExtendibleHashTable
	bucketIDs []disk.PageID
	bucketPos int
	entries   []Entry
	entryPos  int
}

// NewIterator constructs an Iterator over table. Callers must call Init
// before the first Next.
func NewIterator(table *ExtendibleHashTable) *Iterator {
	return &Iterator{table: table}
}

var _ iterator.Cursor = (*Iterator)(nil)

// Init snapshots every live bucket page id reachable from the header.
func (it *Iterator) Init() error {
	it.bucketIDs = nil
	it.bucketPos = 0
	it.entries = nil
	it.entryPos = 0

	headerGuard, err := it.table.bpm.FetchPageRead(it.table.headerPageID)
	if err != nil {
		return err
	}
	header := WrapHeaderPage(headerGuard.Data())
	maxDepth := header.MaxDepth()
	dirSlots := uint32(1)
	if maxDepth > 0 {
		dirSlots = 1 << maxDepth
	}
	var dirIDs []disk.PageID
	for i := uint32(0); i < dirSlots; i++ {
		if pid := header.DirectoryPageID(i); pid != disk.NoPage {
			dirIDs = append(dirIDs, pid)
		}
	}
	headerGuard.Drop()

	seen := make(map[disk.PageID]bool)
	for _, dirPageID := range dirIDs {
		dirGuard, err := it.table.bpm.FetchPageRead(dirPageID)
		if err != nil {
			return err
		}
		dir := WrapDirectoryPage(dirGuard.Data())
		for i := uint32(0); i < (uint32(1) << dir.GlobalDepth()); i++ {
			if pid := dir.BucketPageID(i); pid != disk.NoPage && !seen[pid] {
				seen[pid] = true
				it.bucketIDs = append(it.bucketIDs, pid)
			}
		}
		dirGuard.Drop()
	}
	return it.loadNextBucket()
}

// loadNextBucket advances bucketPos until it finds a non-empty bucket (or
// runs out), loading its entries.
func (it *Iterator) loadNextBucket() error {
	for it.bucketPos < len(it.bucketIDs) {
		pid := it.bucketIDs[it.bucketPos]
		it.bucketPos++
		guard, err := it.table.bpm.FetchPageRead(pid)
		if err != nil {
			return err
		}
		entries := WrapBucketPage(guard.Data()).Entries()
		guard.Drop()
		if len(entries) > 0 {
			it.entries = entries
			it.entryPos = 0
			return nil
		}
	}
	it.entries = nil
	return nil
}

// Next fills t and rid with the next entry and returns true, or returns
// false once every snapshotted bucket has been exhausted.
func (it *Iterator) Next(t *iterator.Tuple, rid *iterator.RID) bool {
	if it.entryPos >= len(it.entries) {
		if err := it.loadNextBucket(); err != nil || it.entryPos >= len(it.entries) {
			return false
		}
	}
	e := it.entries[it.entryPos]
	it.entryPos++
	*t = iterator.Tuple{Key: e.Key}
	*rid = e.Value
	return true
}

// Close releases the iterator's snapshot. Buckets are only read-pinned
// transiently during Init/Next, so there's nothing else to release.
func (it *Iterator) Close() error {
	it.bucketIDs = nil
	it.entries = nil
	return nil
}
