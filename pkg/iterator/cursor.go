// Package iterator carries the external pull-model contract that query
// executors would consume - operator Init/Next/Close over row tuples - and
// the row-identifier type the storage layer hands back. The executors
// themselves are out of scope here; this package exists so the boundary
// they'd plug into is actually declared.
package iterator

// RID identifies a row's location: the page it lives on and its slot
// within that page.
type RID struct {
	PageID  int32
	SlotNum int32
}

// Tuple is the external row representation. pagekit's storage layer treats
// it opaquely beyond the key it was looked up by; an executor would attach
// whatever column payload it needs.
type Tuple struct {
	Key     int64
	Payload []byte
}

// Cursor is the pull-model interface an operator exposes to whatever reads
// rows from it one at a time.
type Cursor interface {
	// Init (re)starts iteration from the beginning.
	Init() error
	// Next fills t and rid with the next row and returns true, or returns
	// false once the cursor is exhausted. Not safe to call concurrently
	// with other methods on the same cursor.
	Next(t *Tuple, rid *RID) bool
	// Close releases any resources the cursor is holding.
	Close() error
}
