// Package list implements a generic intrusive doubly linked list.
//
// It backs three unrelated components elsewhere in this module: the LRU-K
// replacer's per-frame access history, the buffer pool's free-frame list,
// and the disk scheduler's request queue. All three want the same thing -
// push to one end, pop from the other, splice an arbitrary link out in
// O(1) - so one primitive serves all three instead of three ad-hoc queues.
package list

// List is a doubly linked list of values of type T.
type List[T any] struct {
	head *Link[T]
	tail *Link[T]
}

// New constructs an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// PeekHead returns the head link, or nil if the list is empty.
func (l *List[T]) PeekHead() *Link[T] {
	return l.head
}

// PeekTail returns the tail link, or nil if the list is empty.
func (l *List[T]) PeekTail() *Link[T] {
	return l.tail
}

// PushHead adds value to the front of the list, returning the new link.
func (l *List[T]) PushHead(value T) *Link[T] {
	newLink := &Link[T]{list: l, next: l.head, value: value}
	if l.head != nil {
		l.head.prev = newLink
	}
	l.head = newLink
	if l.tail == nil {
		l.tail = newLink
	}
	return newLink
}

// PushTail adds value to the back of the list, returning the new link.
func (l *List[T]) PushTail(value T) *Link[T] {
	newLink := &Link[T]{list: l, prev: l.tail, value: value}
	if l.tail != nil {
		l.tail.next = newLink
	}
	l.tail = newLink
	if l.head == nil {
		l.head = newLink
	}
	return newLink
}

// PopHead removes and returns the value at the front of the list.
func (l *List[T]) PopHead() (value T, ok bool) {
	head := l.head
	if head == nil {
		return value, false
	}
	value = head.value
	head.PopSelf()
	return value, true
}

// Find returns the first link for which f returns true, or nil if none do.
func (l *List[T]) Find(f func(*Link[T]) bool) *Link[T] {
	for link := l.head; link != nil; link = link.next {
		if f(link) {
			return link
		}
	}
	return nil
}

// Map applies f to every link in the list, in head-to-tail order.
// f may call PopSelf on the link it's given without disturbing the walk.
func (l *List[T]) Map(f func(*Link[T])) {
	link := l.head
	for link != nil {
		next := link.next
		f(link)
		link = next
	}
}

// Link is one node of a List.
type Link[T any] struct {
	list  *List[T]
	prev  *Link[T]
	next  *Link[T]
	value T
}

// GetList returns the list this link currently belongs to, or nil if it has
// been popped.
func (link *Link[T]) GetList() *List[T] {
	return link.list
}

// GetValue returns the link's value.
func (link *Link[T]) GetValue() T {
	return link.value
}

// SetValue replaces the link's value.
func (link *Link[T]) SetValue(value T) {
	link.value = value
}

// GetPrev returns the previous link, or nil.
func (link *Link[T]) GetPrev() *Link[T] {
	return link.prev
}

// GetNext returns the next link, or nil.
func (link *Link[T]) GetNext() *Link[T] {
	return link.next
}

// PopSelf removes link from its list.
func (link *Link[T]) PopSelf() {
	switch {
	case link.prev == nil && link.next == nil:
		link.list.head = nil
		link.list.tail = nil
	case link.prev == nil:
		link.next.prev = nil
		link.list.head = link.next
	case link.next == nil:
		link.prev.next = nil
		link.list.tail = link.prev
	default:
		link.prev.next = link.next
		link.next.prev = link.prev
	}
	link.list = nil
	link.next = nil
	link.prev = nil
}
