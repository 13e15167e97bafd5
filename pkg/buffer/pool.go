// Package buffer implements the buffer pool manager (C4) and page guards
// (C5): the component that mediates every access to a page, deciding what
// stays in memory and what gets written back to disk.
package buffer

import (
	"errors"
	"sync"

	"pagekit/pkg/config"
	"pagekit/pkg/disk"
	"pagekit/pkg/list"
	"pagekit/pkg/replacer"

	"github.com/ncw/directio"
)

// InvalidPageID is the PageID used to mean "no page".
const InvalidPageID = disk.NoPage

// FrameID indexes a frame within a buffer pool; re-exported from package
// replacer so callers don't need to import it directly.
type FrameID = replacer.FrameID

// ErrPoolExhausted is returned when every frame is pinned and the replacer
// found no evictable victim.
var ErrPoolExhausted = errors.New("buffer: pool exhausted, no frame available")

// ErrInvalidPageID is returned when a page id outside [0, next_page_id) is
// requested.
var ErrInvalidPageID = errors.New("buffer: invalid page id")

// BufferPoolManager owns a fixed-size pool of page frames backed by a disk
// scheduler, and coordinates an LRU-K replacer to decide which frame to
// reclaim when every frame is in use.
type BufferPoolManager struct {
	poolSize int

	latch      sync.Mutex
	frames     []Page
	freeList   *list.List[FrameID]
	pageTable  map[PageID]FrameID
	nextPageID PageID

	replacer  *replacer.LRUKReplacer
	scheduler *disk.Scheduler
}

// NewBufferPoolManager constructs a buffer pool of poolSize frames backed by
// manager, using an LRU-K replacer with history depth k.
func NewBufferPoolManager(poolSize int, manager disk.Manager, k int) *BufferPoolManager {
	bpm := &BufferPoolManager{
		poolSize:  poolSize,
		frames:    make([]Page, poolSize),
		freeList:  list.New[FrameID](),
		pageTable: make(map[PageID]FrameID),
		replacer:  replacer.NewLRUKReplacer(poolSize, k),
		scheduler: disk.NewScheduler(manager),
	}
	// Allocate one contiguous, page-aligned block for every frame's buffer,
	// exactly as the teacher's pager did, so the underlying I/O stays aligned.
	block := directio.AlignedBlock(int(config.PageSize) * poolSize)
	for i := 0; i < poolSize; i++ {
		bpm.frames[i] = Page{
			pageID: InvalidPageID,
			data:   block[i*int(config.PageSize) : (i+1)*int(config.PageSize)],
		}
		bpm.freeList.PushTail(FrameID(i))
	}
	return bpm
}

// Shutdown stops the buffer pool's disk scheduler. Callers should flush
// first if they want dirty pages persisted.
func (bpm *BufferPoolManager) Shutdown() {
	bpm.scheduler.Shutdown()
}

// acquireFrame finds a frame to (re)use: the free list first, then the
// replacer's eviction victim. If the chosen frame holds a dirty resident
// page, a write-back is scheduled (but not waited on) before this returns.
// Must be called with bpm.latch held.
func (bpm *BufferPoolManager) acquireFrame() (FrameID, *disk.Request, error) {
	var frameID FrameID
	if fid, ok := bpm.freeList.PopHead(); ok {
		frameID = fid
	} else if fid, ok := bpm.replacer.Evict(); ok {
		frameID = fid
	} else {
		return 0, nil, ErrPoolExhausted
	}

	bpm.replacer.RecordAccess(frameID)
	bpm.replacer.SetEvictable(frameID, false)

	page := &bpm.frames[frameID]
	var writeBack *disk.Request
	if page.pageID != InvalidPageID {
		delete(bpm.pageTable, page.pageID)
		if page.dirty {
			writeBack = bpm.scheduler.ScheduleWrite(page.pageID, page.data)
		}
	}
	return frameID, writeBack, nil
}

// NewPage allocates a fresh page id, assigns it a frame, and returns the
// zeroed, pinned page.
func (bpm *BufferPoolManager) NewPage() (*Page, error) {
	bpm.latch.Lock()
	frameID, writeBack, err := bpm.acquireFrame()
	if err != nil {
		bpm.latch.Unlock()
		return nil, err
	}
	pageID := bpm.nextPageID
	bpm.nextPageID++
	bpm.pageTable[pageID] = frameID
	page := &bpm.frames[frameID]
	page.pageID = pageID
	page.pinCount = 1
	page.dirty = false
	bpm.latch.Unlock()

	if writeBack != nil {
		<-writeBack.Done
	}

	for i := range page.data {
		page.data[i] = 0
	}
	return page, nil
}

// FetchPage returns the page for pageID, pinning it. If the page isn't
// already resident, a frame is acquired and its contents loaded from disk.
func (bpm *BufferPoolManager) FetchPage(pageID PageID) (*Page, error) {
	if pageID < 0 || pageID >= bpm.nextPageID {
		return nil, ErrInvalidPageID
	}

	bpm.latch.Lock()
	if frameID, ok := bpm.pageTable[pageID]; ok {
		page := &bpm.frames[frameID]
		page.pinCount++
		bpm.replacer.RecordAccess(frameID)
		bpm.replacer.SetEvictable(frameID, false)
		bpm.latch.Unlock()
		return page, nil
	}

	frameID, writeBack, err := bpm.acquireFrame()
	if err != nil {
		bpm.latch.Unlock()
		return nil, err
	}
	bpm.pageTable[pageID] = frameID
	page := &bpm.frames[frameID]
	page.pageID = pageID
	page.pinCount = 1
	page.dirty = false
	bpm.latch.Unlock()

	if writeBack != nil {
		<-writeBack.Done
	}

	readReq := bpm.scheduler.ScheduleRead(pageID, page.data)
	<-readReq.Done
	return page, nil
}

// UnpinPage releases one pin on pageID. If isDirty, the page's dirty bit is
// set (it is never cleared here - only a flush or eviction clears it).
// Returns false if pageID isn't resident or already has a zero pin count.
func (bpm *BufferPoolManager) UnpinPage(pageID PageID, isDirty bool) bool {
	bpm.latch.Lock()
	defer bpm.latch.Unlock()
	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false
	}
	page := &bpm.frames[frameID]
	if page.pinCount == 0 {
		return false
	}
	page.pinCount--
	if isDirty {
		page.dirty = true
	}
	if page.pinCount == 0 {
		bpm.replacer.SetEvictable(frameID, true)
	}
	return true
}

// FlushPage writes pageID's contents to disk and clears its dirty bit,
// regardless of pin count. Returns false if pageID isn't resident.
//
// Flushing is allowed on an unpinned page, so the frame can be evicted and
// reused for a different page id while the write is still in flight. The
// dirty bit is only cleared if pageID still owns frameID once the write
// completes - otherwise clearing it would clobber the new occupant's dirty
// bit instead.
func (bpm *BufferPoolManager) FlushPage(pageID PageID) bool {
	bpm.latch.Lock()
	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		bpm.latch.Unlock()
		return false
	}
	page := &bpm.frames[frameID]
	req := bpm.scheduler.ScheduleWrite(pageID, page.data)
	bpm.latch.Unlock()

	<-req.Done
	bpm.latch.Lock()
	if fid, ok := bpm.pageTable[pageID]; ok && fid == frameID {
		page.dirty = false
	}
	bpm.latch.Unlock()
	return true
}

// FlushAllPages flushes every resident page.
func (bpm *BufferPoolManager) FlushAllPages() {
	bpm.latch.Lock()
	pageIDs := make([]PageID, 0, len(bpm.pageTable))
	for pageID := range bpm.pageTable {
		pageIDs = append(pageIDs, pageID)
	}
	bpm.latch.Unlock()

	for _, pageID := range pageIDs {
		bpm.FlushPage(pageID)
	}
}

// DeletePage removes pageID from the pool, returning its frame to the free
// list. Idempotent: deleting a non-resident page succeeds trivially.
// Fails if the page is still pinned.
func (bpm *BufferPoolManager) DeletePage(pageID PageID) bool {
	bpm.latch.Lock()
	defer bpm.latch.Unlock()
	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return true
	}
	page := &bpm.frames[frameID]
	if page.pinCount > 0 {
		return false
	}
	delete(bpm.pageTable, pageID)
	page.pageID = InvalidPageID
	page.dirty = false
	bpm.replacer.Remove(frameID)
	bpm.freeList.PushTail(frameID)
	bpm.scheduler.Deallocate(pageID)
	return true
}
