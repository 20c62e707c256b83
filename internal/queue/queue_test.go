package queue

import (
	"sync"
	"testing"
)

// testItem is a simple struct for testing the generic queue
type testItem struct {
	ID   int
	Name string
}

func TestQueue_New(t *testing.T) {
	q := New[testItem]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_PushPop(t *testing.T) {
	q := New[testItem]()

	if _, ok := q.Pop(); ok {
		t.Error("expected Pop on empty queue to report !ok")
	}

	q.Push(testItem{ID: 1, Name: "first"}, testItem{ID: 2, Name: "second"})
	first, ok := q.Pop()
	if !ok || first.ID != 1 || first.Name != "first" {
		t.Errorf("expected {1, first}, got %+v (ok=%v)", first, ok)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_Drain(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	items := q.Drain()
	if len(items) != 3 || items[0] != 1 || items[2] != 3 {
		t.Errorf("unexpected drained items %v", items)
	}
	if !q.Empty() {
		t.Error("expected empty queue after drain")
	}
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := New[int]()
	q.Push(1, 2)

	snap := q.Snapshot()
	snap[0] = 99

	if v, _ := q.Pop(); v != 1 {
		t.Errorf("snapshot modification leaked into queue, got %d", v)
	}
}

func TestQueue_BoundedDropsOldest(t *testing.T) {
	q := NewBounded[int](3)
	q.Push(1, 2)
	q.Push(3, 4, 5)

	got := q.Snapshot()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
	if q.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", q.Dropped())
	}
}

func TestQueue_BoundedZeroIsUnbounded(t *testing.T) {
	q := NewBounded[int](0)
	for i := 0; i < 1000; i++ {
		q.Push(i)
	}
	if q.Len() != 1000 {
		t.Errorf("expected 1000 items, got %d", q.Len())
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			q.Push(v)
		}(i)
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}

	popped := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}
	wg.Wait()

	for !q.Empty() {
		q.Pop()
		popped++
	}
	if popped != 0 {
		t.Errorf("expected queue drained by concurrent pops, %d left", popped)
	}
}
