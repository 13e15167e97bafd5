package buffer

// BasicPageGuard wraps a fetched Page so its pin is released automatically
// via Drop instead of requiring a matching UnpinPage call at every call
// site. It does not acquire the page's RW latch.
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	page    *Page
	isDirty bool
	dropped bool
}

func newBasicPageGuard(bpm *BufferPoolManager, page *Page) *BasicPageGuard {
	return &BasicPageGuard{bpm: bpm, page: page}
}

// PageID returns the guarded page's id.
func (g *BasicPageGuard) PageID() PageID {
	return g.page.PageID()
}

// Data returns the guarded page's raw buffer.
func (g *BasicPageGuard) Data() []byte {
	return g.page.Data()
}

// MarkDirty records that the page was modified, so Drop unpins it dirty.
func (g *BasicPageGuard) MarkDirty() {
	g.isDirty = true
}

// Drop unpins the guarded page. Safe to call more than once; the second and
// later calls are no-ops, matching the teacher's page guards' drop-once
// contract.
func (g *BasicPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.bpm.UnpinPage(g.page.PageID(), g.isDirty)
}

// UpgradeRead hands this guard's pin to a new ReadPageGuard over the same
// page, acquiring its shared latch. This guard is left dropped without
// unpinning, so its own Drop becomes a no-op.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	page := g.page
	bpm := g.bpm
	isDirty := g.isDirty
	g.dropped = true
	page.RLock()
	return &ReadPageGuard{guard: &BasicPageGuard{bpm: bpm, page: page, isDirty: isDirty}}
}

// UpgradeWrite hands this guard's pin to a new WritePageGuard over the same
// page, acquiring its exclusive latch. This guard is left dropped without
// unpinning, so its own Drop becomes a no-op.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	page := g.page
	bpm := g.bpm
	isDirty := g.isDirty
	g.dropped = true
	page.WLock()
	return &WritePageGuard{guard: &BasicPageGuard{bpm: bpm, page: page, isDirty: isDirty}}
}

// ReadPageGuard holds a page's shared latch for the guard's lifetime, on top
// of a BasicPageGuard's pin.
type ReadPageGuard struct {
	guard *BasicPageGuard
}

// PageID returns the guarded page's id.
func (g *ReadPageGuard) PageID() PageID { return g.guard.PageID() }

// Data returns the guarded page's raw buffer, safe to read while held.
func (g *ReadPageGuard) Data() []byte { return g.guard.Data() }

// Drop releases the shared latch, then the pin. Safe to call more than once.
func (g *ReadPageGuard) Drop() {
	if g.guard.dropped {
		return
	}
	g.guard.page.RUnlock()
	g.guard.Drop()
}

// WritePageGuard holds a page's exclusive latch for the guard's lifetime,
// on top of a BasicPageGuard's pin. Any call to Data treats the page as
// modified, so once Data has been called Drop unpins it dirty.
type WritePageGuard struct {
	guard *BasicPageGuard
}

// PageID returns the guarded page's id.
func (g *WritePageGuard) PageID() PageID { return g.guard.PageID() }

// Data returns the guarded page's raw buffer, safe to read or write while
// held.
func (g *WritePageGuard) Data() []byte {
	g.guard.MarkDirty()
	return g.guard.Data()
}

// Drop releases the exclusive latch, then the pin (marking the page dirty
// if Data was called). Safe to call more than once.
func (g *WritePageGuard) Drop() {
	if g.guard.dropped {
		return
	}
	g.guard.page.WUnlock()
	g.guard.Drop()
}

// FetchPageBasic fetches pageID and wraps it in a BasicPageGuard.
func (bpm *BufferPoolManager) FetchPageBasic(pageID PageID) (*BasicPageGuard, error) {
	page, err := bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	return newBasicPageGuard(bpm, page), nil
}

// FetchPageRead fetches pageID and returns it with its shared latch held.
func (bpm *BufferPoolManager) FetchPageRead(pageID PageID) (*ReadPageGuard, error) {
	page, err := bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	page.RLock()
	return &ReadPageGuard{guard: newBasicPageGuard(bpm, page)}, nil
}

// FetchPageWrite fetches pageID and returns it with its exclusive latch
// held.
func (bpm *BufferPoolManager) FetchPageWrite(pageID PageID) (*WritePageGuard, error) {
	page, err := bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	page.WLock()
	return &WritePageGuard{guard: newBasicPageGuard(bpm, page)}, nil
}

// NewPageGuarded allocates a fresh page and returns it with its exclusive
// latch held, ready for the caller to initialize.
func (bpm *BufferPoolManager) NewPageGuarded() (*WritePageGuard, error) {
	page, err := bpm.NewPage()
	if err != nil {
		return nil, err
	}
	page.WLock()
	return &WritePageGuard{guard: newBasicPageGuard(bpm, page)}, nil
}
