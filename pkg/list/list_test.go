package list

import "testing"

func TestPushAndPop(t *testing.T) {
	l := New[int]()
	l.PushTail(1)
	l.PushTail(2)
	l.PushHead(0)

	var got []int
	for {
		v, ok := l.PopHead()
		if !ok {
			break
		}
		got = append(got, v)
	}

	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPopSelfMiddle(t *testing.T) {
	l := New[string]()
	l.PushTail("a")
	mid := l.PushTail("b")
	l.PushTail("c")

	mid.PopSelf()

	var got []string
	l.Map(func(link *Link[string]) {
		got = append(got, link.GetValue())
	})
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("got %v, want [a c]", got)
	}
}

func TestFind(t *testing.T) {
	l := New[int]()
	l.PushTail(10)
	l.PushTail(20)
	l.PushTail(30)

	link := l.Find(func(link *Link[int]) bool { return link.GetValue() == 20 })
	if link == nil {
		t.Fatal("expected to find 20")
	}
	link.SetValue(99)
	if l.PeekHead().GetNext().GetValue() != 99 {
		t.Fatal("SetValue did not take effect")
	}
}

func TestEmptyListPopHead(t *testing.T) {
	l := New[int]()
	if _, ok := l.PopHead(); ok {
		t.Fatal("expected PopHead on empty list to report not-ok")
	}
	if l.PeekHead() != nil || l.PeekTail() != nil {
		t.Fatal("expected empty list to have nil head and tail")
	}
}
