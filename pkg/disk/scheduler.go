package disk

import (
	"sync"

	"pagekit/pkg/list"
)

// Request is a single read or write request handed to the scheduler. Done
// delivers a single boolean success signal once the manager has serviced
// the request - the channel-of-one completion primitive spec.md calls for.
type Request struct {
	IsWrite bool
	PageID  PageID
	Data    []byte
	Done    chan bool
}

// Scheduler is a thread-safe unbounded FIFO of disk requests, drained by one
// background worker. Requests to the same page are serviced in submission
// order; requests to distinct pages may be reordered by nothing (there's
// only one worker), but nothing here promises they won't be in the future.
type Scheduler struct {
	manager Manager

	mu     sync.Mutex
	cond   *sync.Cond
	queue  *list.List[*Request]
	closed bool
	done   chan struct{}
}

// NewScheduler constructs a Scheduler over manager and starts its
// background worker goroutine.
func NewScheduler(manager Manager) *Scheduler {
	s := &Scheduler{
		manager: manager,
		queue:   list.New[*Request](),
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Schedule enqueues req and returns immediately. The caller waits on
// req.Done for the result.
func (s *Scheduler) Schedule(req *Request) {
	s.mu.Lock()
	s.queue.PushTail(req)
	s.cond.Signal()
	s.mu.Unlock()
}

// ScheduleRead enqueues a read of pageID into buf and returns the request
// the caller should wait on.
func (s *Scheduler) ScheduleRead(pageID PageID, buf []byte) *Request {
	req := &Request{PageID: pageID, Data: buf, Done: make(chan bool, 1)}
	s.Schedule(req)
	return req
}

// ScheduleWrite enqueues a write of buf to pageID and returns the request
// the caller should wait on.
func (s *Scheduler) ScheduleWrite(pageID PageID, buf []byte) *Request {
	req := &Request{IsWrite: true, PageID: pageID, Data: buf, Done: make(chan bool, 1)}
	s.Schedule(req)
	return req
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.queue.PeekHead() == nil && !s.closed {
			s.cond.Wait()
		}
		link := s.queue.PeekHead()
		if link == nil {
			s.mu.Unlock()
			return
		}
		req := link.GetValue()
		link.PopSelf()
		s.mu.Unlock()

		var err error
		if req.IsWrite {
			err = s.manager.WritePage(req.PageID, req.Data)
		} else {
			err = s.manager.ReadPage(req.PageID, req.Data)
		}
		req.Done <- err == nil
	}
}

// Deallocate hints to the underlying manager that pageID's storage may be
// reused. It bypasses the request queue since it carries no data and the
// manager treats it as advisory.
func (s *Scheduler) Deallocate(pageID PageID) {
	s.manager.DeallocatePage(pageID)
}

// Shutdown marks the scheduler closed, wakes the worker, and blocks until
// it exits. Requests already queued are still serviced before the worker
// exits; it's the enqueueing of new requests after Shutdown that's invalid.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}
