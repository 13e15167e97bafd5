package hash

import (
	"fmt"

	"pagekit/pkg/disk"
)

// CheckInvariants walks a live table and checks H1, H3, and H4 on every
// reachable directory and bucket page, grounded on the teacher's IsHash.
func CheckInvariants(table *ExtendibleHashTable) error {
	headerGuard, err := table.bpm.FetchPageRead(table.headerPageID)
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

	for _, dirPageID := range dirIDs {
		if err := checkDirectory(table, dirPageID); err != nil {
			return err
		}
	}
	return nil
}

func checkDirectory(table *ExtendibleHashTable, dirPageID disk.PageID) error {
	dirGuard, err := table.bpm.FetchPageRead(dirPageID)
	if err != nil {
		return err
	}
	defer dirGuard.Drop()
	dir := WrapDirectoryPage(dirGuard.Data())
	g := dir.GlobalDepth()

	checked := make(map[disk.PageID]bool)
	for i := uint32(0); i < (uint32(1) << g); i++ {
		ld := dir.LocalDepth(i)
		if uint32(ld) > g || g > dir.MaxDepth() {
			return fmt.Errorf("hash: H1 violated at directory slot %d: local depth %d, global depth %d, max depth %d", i, ld, g, dir.MaxDepth())
		}
		bucketPageID := dir.BucketPageID(i)
		if bucketPageID == disk.NoPage || checked[bucketPageID] {
			continue
		}
		checked[bucketPageID] = true
		if err := checkBucket(table, bucketPageID, i, ld); err != nil {
			return err
		}
	}
	if dir.CanShrink() {
		return fmt.Errorf("hash: H4 violated: directory at global depth %d can still shrink", g)
	}
	return nil
}

func checkBucket(table *ExtendibleHashTable, bucketPageID disk.PageID, idx uint32, localDepth uint8) error {
	bucketGuard, err := table.bpm.FetchPageRead(bucketPageID)
	if err != nil {
		return err
	}
	defer bucketGuard.Drop()
	mask := (uint32(1) << localDepth) - 1
	prefix := idx & mask
	for _, e := range WrapBucketPage(bucketGuard.Data()).Entries() {
		if h := table.hash(e.Key); h&mask != prefix {
			return fmt.Errorf("hash: H3 violated: key %d hashes to prefix %d, bucket holds prefix %d", e.Key, h&mask, prefix)
		}
	}
	return nil
}
