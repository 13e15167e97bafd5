package buffer

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"pagekit/pkg/disk"
)

func newTestPool(poolSize, k int) (*BufferPoolManager, *disk.MemManager) {
	m := disk.NewMemManager()
	return NewBufferPoolManager(poolSize, m, k), m
}

// TestChurnEvictsLRUKVictim reproduces the "buffer pool churn" scenario:
// pool=3, k=2. Three NewPage calls fill the pool; after unpinning all three
// clean, a fourth NewPage must evict the LRU-K victim and succeed.
func TestChurnEvictsLRUKVictim(t *testing.T) {
	bpm, _ := newTestPool(3, 2)
	defer bpm.Shutdown()

	var ids []PageID
	for i := 0; i < 3; i++ {
		p, err := bpm.NewPage()
		if err != nil {
			t.Fatalf("NewPage %d: %v", i, err)
		}
		ids = append(ids, p.PageID())
		bpm.UnpinPage(p.PageID(), false)
	}

	p, err := bpm.NewPage()
	if err != nil {
		t.Fatalf("expected fourth NewPage to succeed by evicting, got %v", err)
	}
	if p.PageID() != 3 {
		t.Fatalf("got page id %d, want 3", p.PageID())
	}
	bpm.UnpinPage(p.PageID(), false)

	// Page 0 was evicted and never mutated after creation, so fetching it
	// back must read zeros from disk.
	fetched, err := bpm.FetchPage(0)
	if err != nil {
		t.Fatalf("FetchPage(0): %v", err)
	}
	defer bpm.UnpinPage(0, false)
	if !bytes.Equal(fetched.Data(), make([]byte, len(fetched.Data()))) {
		t.Fatal("expected page 0 to read back as zeros")
	}
}

// TestPinProtectsFromEviction: pool=1. NewPage pins page 0 and it is left
// pinned; a subsequent NewPage must fail rather than evicting the pinned page.
func TestPinProtectsFromEviction(t *testing.T) {
	bpm, _ := newTestPool(1, 2)
	defer bpm.Shutdown()

	p, err := bpm.NewPage()
	if err != nil {
		t.Fatal(err)
	}
	pageID := p.PageID()
	// Leave p pinned (don't unpin), so the pool's only frame has no
	// evictable occupant.
	_ = pageID

	if _, err := bpm.NewPage(); err != ErrPoolExhausted {
		t.Fatalf("got %v, want ErrPoolExhausted", err)
	}
}

// TestDirtyWriteBack: pool=1. new_page, write bytes, unpin dirty; a second
// new_page must force eviction, and the write-back must land before the
// frame is reused.
func TestDirtyWriteBack(t *testing.T) {
	bpm, m := newTestPool(1, 2)
	defer bpm.Shutdown()

	p, err := bpm.NewPage()
	if err != nil {
		t.Fatal(err)
	}
	copy(p.Data(), []byte{1, 2, 3, 4})
	firstID := p.PageID()
	bpm.UnpinPage(firstID, true)

	if _, err := bpm.NewPage(); err != nil {
		t.Fatalf("expected eviction to make room, got %v", err)
	}

	persisted := m.Snapshot(firstID)
	if len(persisted) < 4 || persisted[0] != 1 || persisted[1] != 2 || persisted[2] != 3 || persisted[3] != 4 {
		t.Fatalf("expected dirty page to be written back before eviction, got %v", persisted[:4])
	}
}

// TestUnpinDirtyBitIsSticky: an unpin(dirty=false) after an
// unpin(dirty=true) must not clear the dirty bit.
func TestUnpinDirtyBitIsSticky(t *testing.T) {
	bpm, m := newTestPool(1, 2)
	defer bpm.Shutdown()

	p, err := bpm.NewPage()
	if err != nil {
		t.Fatal(err)
	}
	copy(p.Data(), []byte{9})
	id := p.PageID()

	bpm.UnpinPage(id, true)
	if _, err := bpm.FetchPage(id); err != nil {
		t.Fatal(err)
	}
	bpm.UnpinPage(id, false)
	if !p.IsDirty() {
		t.Fatal("expected unpin(dirty=false) to leave the dirty bit set")
	}

	bpm.FlushAllPages()
	if m.Snapshot(id)[0] != 9 {
		t.Fatal("expected flush to persist the write")
	}
}

// TestFlushPageClearsDirty checks FlushPage's direct contract.
func TestFlushPageClearsDirty(t *testing.T) {
	bpm, m := newTestPool(2, 2)
	defer bpm.Shutdown()

	p, err := bpm.NewPage()
	if err != nil {
		t.Fatal(err)
	}
	copy(p.Data(), []byte{7})
	id := p.PageID()
	bpm.UnpinPage(id, true)

	if ok := bpm.FlushPage(id); !ok {
		t.Fatal("expected FlushPage to succeed on a resident page")
	}
	if m.Snapshot(id)[0] != 7 {
		t.Fatal("expected flush to persist the write")
	}
	if p.IsDirty() {
		t.Fatal("expected FlushPage to clear the dirty bit")
	}
	if ok := bpm.FlushPage(999); ok {
		t.Fatal("expected FlushPage on a non-resident page to return false")
	}
}

// TestDeletePageRejectsPinned verifies delete_page's pin-count precondition
// and its idempotence on a non-resident page.
func TestDeletePageRejectsPinned(t *testing.T) {
	bpm, _ := newTestPool(2, 2)
	defer bpm.Shutdown()

	p, err := bpm.NewPage()
	if err != nil {
		t.Fatal(err)
	}
	id := p.PageID()

	if ok := bpm.DeletePage(id); ok {
		t.Fatal("expected DeletePage to fail while the page is pinned")
	}
	bpm.UnpinPage(id, false)
	if ok := bpm.DeletePage(id); !ok {
		t.Fatal("expected DeletePage to succeed once unpinned")
	}
	if ok := bpm.DeletePage(id); !ok {
		t.Fatal("expected DeletePage on an already-deleted page to be idempotent")
	}
}

// churnFetchUnpin repeatedly fetches a random page from ids, touches its
// first byte, and unpins it, reporting success on done and any failure on
// errCh rather than calling t.Fatal directly - only the goroutine running
// the test should call that. A fetch that finds every frame pinned by other
// workers gets ErrPoolExhausted (FetchPage does not wait for a frame), so
// that iteration is retried instead of counted as a failure.
func churnFetchUnpin(bpm *BufferPoolManager, ids []PageID, iters int, done chan<- bool, errCh chan<- error) {
	for i := 0; i < iters; i++ {
		id := ids[rand.Intn(len(ids))]
		p, err := bpm.FetchPage(id)
		if err == ErrPoolExhausted {
			i--
			time.Sleep(time.Duration(rand.Intn(100)) * time.Microsecond)
			continue
		}
		if err != nil {
			errCh <- fmt.Errorf("FetchPage(%d): %w", id, err)
			return
		}
		p.WLock()
		p.Data()[0]++
		p.WUnlock()
		time.Sleep(time.Duration(rand.Intn(100)) * time.Microsecond)
		if ok := bpm.UnpinPage(id, i%2 == 0); !ok {
			errCh <- fmt.Errorf("UnpinPage(%d) reported no pin to release", id)
			return
		}
	}
	done <- true
}

// TestConcurrentFetchUnpinChurn drives many goroutines fetching and
// unpinning a shared set of pages through a small pool, forcing frequent
// eviction, frame reuse, and momentary pool exhaustion (more workers than
// frames). At quiescence every pin must have been released: the sum of pin
// counts across all frames must be zero.
func TestConcurrentFetchUnpinChurn(t *testing.T) {
	const poolSize = 4
	const numPages = 10
	const numWorkers = 16
	const itersPerWorker = 200

	bpm, _ := newTestPool(poolSize, 2)
	defer bpm.Shutdown()

	ids := make([]PageID, numPages)
	for i := range ids {
		p, err := bpm.NewPage()
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = p.PageID()
		bpm.UnpinPage(p.PageID(), false)
	}

	done := make(chan bool)
	errCh := make(chan error)
	for i := 0; i < numWorkers; i++ {
		go churnFetchUnpin(bpm, ids, itersPerWorker, done, errCh)
	}
	for i := 0; i < numWorkers; i++ {
		select {
		case <-done:
			continue
		case err := <-errCh:
			t.Fatal(err)
		}
	}

	totalPins := 0
	for i := range bpm.frames {
		totalPins += bpm.frames[i].PinCount()
	}
	if totalPins != 0 {
		t.Fatalf("expected every pin released once all workers finished, got total pin count %d", totalPins)
	}
}

func TestFetchPageRejectsInvalidID(t *testing.T) {
	bpm, _ := newTestPool(2, 2)
	defer bpm.Shutdown()

	if _, err := bpm.FetchPage(99); err != ErrInvalidPageID {
		t.Fatalf("got %v, want ErrInvalidPageID", err)
	}
	if _, err := bpm.FetchPage(-1); err != ErrInvalidPageID {
		t.Fatalf("got %v, want ErrInvalidPageID", err)
	}
}
