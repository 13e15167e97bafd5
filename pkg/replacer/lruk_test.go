package replacer

import "testing"

// TestTieBreak reproduces the worked example: k=2, frame ids 0..3, frames
// accessed [1,2,3,1,2] at timestamps 0..4 (current time 5). All evictable.
// The first eviction must pick frame 3 (the only frame with fewer than k
// accesses); the second must pick frame 1 (backward k-distance 5 beats
// frame 2's 4).
func TestTieBreak(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	for _, f := range []FrameID{1, 2, 3, 1, 2} {
		r.RecordAccess(f)
	}
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)
	r.SetEvictable(3, true)

	victim, ok := r.Evict()
	if !ok || victim != 3 {
		t.Fatalf("first evict: got %d, %v; want 3, true", victim, ok)
	}
	victim, ok = r.Evict()
	if !ok || victim != 1 {
		t.Fatalf("second evict: got %d, %v; want 1, true", victim, ok)
	}
}

func TestSetEvictableIsIdempotentOnSize(t *testing.T) {
	r := NewLRUKReplacer(2, 1)
	r.RecordAccess(0)
	r.SetEvictable(0, true)
	r.SetEvictable(0, true) // no-op, must not double-count
	if r.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", r.Size())
	}
	r.SetEvictable(0, false)
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", r.Size())
	}
}

func TestEvictNoneEvictable(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	r.RecordAccess(0)
	if _, ok := r.Evict(); ok {
		t.Fatal("expected Evict to fail when nothing is evictable")
	}
}

func TestRemoveUnknownFrameIsNoOp(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	r.Remove(1) // must not panic
}

func TestRemovePinnedFramePanics(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	r.RecordAccess(0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected Remove on a pinned (non-evictable) frame to panic")
		}
	}()
	r.Remove(0)
}

func TestRecordAccessOutOfRangePanics(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	defer func() {
		if recover() == nil {
			t.Fatal("expected RecordAccess with an out-of-range frame id to panic")
		}
	}()
	r.RecordAccess(5)
}

func TestBackwardKDistancePrefersLargerDistance(t *testing.T) {
	r := NewLRUKReplacer(3, 2)
	// frame 0 accessed at t=0,1 (k-distance measured from t=4: 4-0=4)
	r.RecordAccess(0)
	r.RecordAccess(0)
	// frame 1 accessed at t=2,3 (k-distance: 4-2=2)
	r.RecordAccess(1)
	r.RecordAccess(1)
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	if !ok || victim != 0 {
		t.Fatalf("got %d, %v; want 0 (larger backward k-distance), true", victim, ok)
	}
}
