package buffer

import (
	"sync"

	"pagekit/pkg/disk"
)

// PageID identifies a page on disk; it is shared with package disk so the
// buffer pool and the disk manager agree on page numbering.
type PageID = disk.PageID

// Page caches one page's worth of data in memory alongside the metadata the
// buffer pool and replacer need to manage it. A Page struct is permanently
// associated with one frame (slot in the pool's frame array) but is reused
// across many page ids over its lifetime.
type Page struct {
	pageID   PageID
	pinCount int
	dirty    bool
	rwlock   sync.RWMutex
	data     []byte
}

// PageID returns the id of the page currently resident in this frame, or
// disk.NoPage if the frame is free.
func (p *Page) PageID() PageID {
	return p.pageID
}

// PinCount returns the number of outstanding pins on this page.
func (p *Page) PinCount() int {
	return p.pinCount
}

// IsDirty reports whether the page has been modified since it was last
// flushed or loaded.
func (p *Page) IsDirty() bool {
	return p.dirty
}

// Data returns the page's raw byte buffer, of length config.PageSize.
// Mutating it without holding a write latch (via a WritePageGuard) races
// with concurrent readers.
func (p *Page) Data() []byte {
	return p.data
}

// RLock acquires the page's shared latch.
func (p *Page) RLock() { p.rwlock.RLock() }

// RUnlock releases the page's shared latch.
func (p *Page) RUnlock() { p.rwlock.RUnlock() }

// WLock acquires the page's exclusive latch.
func (p *Page) WLock() { p.rwlock.Lock() }

// WUnlock releases the page's exclusive latch.
func (p *Page) WUnlock() { p.rwlock.Unlock() }
