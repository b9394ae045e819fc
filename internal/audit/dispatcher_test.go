package audit

import (
	"sync"
	"testing"
)

func TestDispatcherDeliversBeforeClose(t *testing.T) {
	var mu sync.Mutex
	var got []int
	d := New(16, func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	for i := 0; i < 10; i++ {
		if !d.Emit(i) {
			t.Fatalf("emit %d rejected", i)
		}
	}
	d.Close()

	if len(got) != 10 {
		t.Fatalf("expected 10 delivered, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %d", i, v)
		}
	}
	if d.Emit(99) {
		t.Fatal("emit after close must be rejected")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	d := New(1, func(int) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	d.Emit(1)
	<-started // worker is now blocked holding value 1
	d.Emit(2) // fills the buffer
	if d.Emit(3) {
		t.Fatal("expected emit to be dropped")
	}
	if d.Dropped() != 1 {
		t.Fatalf("dropped = %d", d.Dropped())
	}
	close(release)
	d.Close()
}

func TestNilDispatcher(t *testing.T) {
	var d *Dispatcher[string]
	if d.Emit("x") || d.Dropped() != 0 {
		t.Fatal("nil dispatcher must be inert")
	}
	d.Close()
}
