package fifo

import "testing"

func TestAddressableQueueFIFOOrder(t *testing.T) {
	q := NewAddressableQueue[int, string]()
	q.Insert(1, "a")
	q.Insert(2, "b")
	q.Insert(3, "c")

	k, v, ok := q.RemoveHead()
	if !ok || k != 1 || v != "a" {
		t.Fatalf("got (%v, %v, %v), want (1, a, true)", k, v, ok)
	}
	k, v, ok = q.RemoveHead()
	if !ok || k != 2 || v != "b" {
		t.Fatalf("got (%v, %v, %v), want (2, b, true)", k, v, ok)
	}
}

func TestAddressableQueueRemoveKeySkipsTombstoneOnHeadAccess(t *testing.T) {
	q := NewAddressableQueue[int, string]()
	q.Insert(1, "a")
	q.Insert(2, "b")
	q.Insert(3, "c")

	if v, ok := q.RemoveKey(2); !ok || v != "b" {
		t.Fatalf("RemoveKey(2) = (%v, %v), want (b, true)", v, ok)
	}
	if _, ok := q.RemoveKey(2); ok {
		t.Fatalf("RemoveKey(2) a second time should report false")
	}

	k, v, ok := q.RemoveHead()
	if !ok || k != 1 || v != "a" {
		t.Fatalf("got (%v, %v, %v), want (1, a, true) — tombstone for 2 should be skipped", k, v, ok)
	}
	k, v, ok = q.RemoveHead()
	if !ok || k != 3 || v != "c" {
		t.Fatalf("got (%v, %v, %v), want (3, c, true)", k, v, ok)
	}
	if _, _, ok = q.RemoveHead(); ok {
		t.Fatalf("queue should be empty")
	}
}

func TestAddressableQueueInsertHeadPreservesReQueuedPosition(t *testing.T) {
	q := NewAddressableQueue[int, string]()
	q.Insert(1, "a")
	q.Insert(2, "b")

	k, v, ok := q.RemoveHead()
	if !ok || k != 1 {
		t.Fatalf("unexpected head: %v %v %v", k, v, ok)
	}
	q.InsertHead(k, v)

	k, _, ok = q.RemoveHead()
	if !ok || k != 1 {
		t.Fatalf("re-queued head should come back first, got %v", k)
	}
}

func TestAddressableQueueLenExcludesTombstones(t *testing.T) {
	q := NewAddressableQueue[int, string]()
	q.Insert(1, "a")
	q.Insert(2, "b")
	q.RemoveKey(1)
	if got := q.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}
