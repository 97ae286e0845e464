package core

import (
	"sync"
)

// SerialDispatcher runs callbacks one at a time, in submission order, on a
// dedicated goroutine.
type SerialDispatcher struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	closed  bool
	running bool
}

func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *SerialDispatcher) Dispatch(fn func()) {
	if d == nil || fn == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting callbacks and returns once the queued ones have run.
// While a callback is running, Close only stops intake and returns at once,
// so a callback may close its own dispatcher; the loop still drains what was
// queued before it exits.
func (d *SerialDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	wasClosed := d.closed
	d.closed = true
	running := d.running
	d.mu.Unlock()
	if running {
		return
	}
	if !wasClosed {
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	<-d.done
}

func (d *SerialDispatcher) loop() {
	defer close(d.done)
	for range d.wake {
		for {
			d.mu.Lock()
			if len(d.queue) == 0 {
				closed := d.closed
				d.mu.Unlock()
				if closed {
					return
				}
				break
			}
			fn := d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
			d.running = true
			d.mu.Unlock()
			fn()
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
		}
	}
}

// InlineDispatcher runs callbacks on the goroutine that completes the
// operation.
type InlineDispatcher struct{}

func (InlineDispatcher) Dispatch(fn func()) {
	if fn != nil {
		fn()
	}
}

type GoroutineExecutor struct{}

func (GoroutineExecutor) Go(fn func()) {
	if fn != nil {
		go fn()
	}
}

// InlineExecutor runs transport work synchronously. Mostly useful in tests.
type InlineExecutor struct{}

func (InlineExecutor) Go(fn func()) {
	if fn != nil {
		fn()
	}
}

// completion delivers at most one terminal callback through a dispatcher.
type completion struct {
	once       sync.Once
	dispatcher Dispatcher
}

func newCompletion(dispatcher Dispatcher) *completion {
	if dispatcher == nil {
		dispatcher = InlineDispatcher{}
	}
	return &completion{dispatcher: dispatcher}
}

// fire schedules fn and reports whether this call won the single slot.
func (c *completion) fire(fn func()) bool {
	fired := false
	c.once.Do(func() {
		fired = true
		if fn != nil {
			c.dispatcher.Dispatch(fn)
		}
	})
	return fired
}
