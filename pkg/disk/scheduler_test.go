package disk

import (
	"bytes"
	"testing"
)

func TestScheduleWriteThenRead(t *testing.T) {
	m := NewMemManager()
	s := NewScheduler(m)
	defer s.Shutdown()

	data := []byte{10, 20, 30}
	writeReq := s.ScheduleWrite(0, data)
	if ok := <-writeReq.Done; !ok {
		t.Fatal("write request did not complete successfully")
	}

	buf := make([]byte, 3)
	readReq := s.ScheduleRead(0, buf)
	if ok := <-readReq.Done; !ok {
		t.Fatal("read request did not complete successfully")
	}
	if !bytes.Equal(buf, data) {
		t.Fatalf("got %v, want %v", buf, data)
	}
}

func TestScheduleManyRequestsAllComplete(t *testing.T) {
	m := NewMemManager()
	s := NewScheduler(m)
	defer s.Shutdown()

	var dones []chan bool
	for i := 0; i < 50; i++ {
		req := s.ScheduleWrite(PageID(i), []byte{byte(i)})
		dones = append(dones, req.Done)
	}
	for _, done := range dones {
		if ok := <-done; !ok {
			t.Fatal("expected every write to complete successfully")
		}
	}
}

func TestShutdownDrainsQueuedRequests(t *testing.T) {
	m := NewMemManager()
	s := NewScheduler(m)

	req := s.ScheduleWrite(0, []byte{1})
	s.Shutdown()
	if ok := <-req.Done; !ok {
		t.Fatal("expected request queued before Shutdown to still complete")
	}
}
