package upperlayer

import "testing"

func TestWriteQueueFIFO(t *testing.T) {
	q := newWriteQueue()
	q.push([]byte("a"))
	q.push([]byte("b"))
	q.pushFront([]byte("abort"))

	got, ok := q.pop()
	if !ok || string(got) != "abort" {
		t.Fatalf("got %q, want front-inserted abort first", got)
	}
	got, ok = q.pop()
	if !ok || string(got) != "a" {
		t.Fatalf("got %q, want a", got)
	}
	got, ok = q.pop()
	if !ok || string(got) != "b" {
		t.Fatalf("got %q, want b", got)
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestWriteQueueDrain(t *testing.T) {
	q := newWriteQueue()
	q.push([]byte("a"))
	q.drain()
	if _, ok := q.pop(); ok {
		t.Fatalf("expected drained queue to be empty")
	}
}
