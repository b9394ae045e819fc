package audit

import (
	"sync"
	"sync/atomic"
)

// Dispatcher forwards values of type E to emit on a single background goroutine.
// Emit never blocks the caller: when the buffer is full the value is dropped and
// counted.
type Dispatcher[E any] struct {
	emit      func(E)
	ch        chan E
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// New starts a dispatcher with the given buffer size (minimum 1).
func New[E any](buffer int, emit func(E)) *Dispatcher[E] {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher[E]{
		emit: emit,
		ch:   make(chan E, buffer),
		done: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher[E]) run() {
	defer d.wg.Done()
	for {
		select {
		case e := <-d.ch:
			d.emit(e)
		case <-d.done:
			// drain what was accepted before Close
			for {
				select {
				case e := <-d.ch:
					d.emit(e)
				default:
					return
				}
			}
		}
	}
}

// Emit queues e. It reports false when the dispatcher is closed or the buffer is full.
func (d *Dispatcher[E]) Emit(e E) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	select {
	case d.ch <- e:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Close stops accepting values and waits until the queued ones are delivered.
func (d *Dispatcher[E]) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many values were discarded because the buffer was full.
func (d *Dispatcher[E]) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
