package disk

import (
	"bytes"
	"testing"
)

func TestMemManagerReadUnwrittenIsZero(t *testing.T) {
	m := NewMemManager()
	buf := make([]byte, 16)
	if err := m.ReadPage(7, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, make([]byte, 16)) {
		t.Fatal("expected unwritten page to read as zeros")
	}
}

func TestMemManagerWriteThenSnapshot(t *testing.T) {
	m := NewMemManager()
	data := []byte{1, 2, 3, 4}
	if err := m.WritePage(1, data); err != nil {
		t.Fatal(err)
	}
	snap := m.Snapshot(1)
	if !bytes.Equal(snap, data) {
		t.Fatalf("got %v, want %v", snap, data)
	}
	// Snapshot must be a copy, not an alias.
	snap[0] = 99
	if m.Snapshot(1)[0] == 99 {
		t.Fatal("Snapshot leaked a reference to internal storage")
	}
}

func TestMemManagerDeallocateClears(t *testing.T) {
	m := NewMemManager()
	m.WritePage(2, []byte{5, 6})
	m.DeallocatePage(2)
	if snap := m.Snapshot(2); len(snap) != 0 {
		t.Fatalf("expected deallocated page to read back empty, got %v", snap)
	}
}
