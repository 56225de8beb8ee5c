package presence

import "sync"

// Outbox is an unbounded FIFO of serialized payloads with a single consumer.
//
// Producers never block. The consumer waits on Ready and takes one message per
// Pop; Ready fires again while messages remain. After Close, Push is refused,
// queued messages are dropped and Ready never fires again.
type Outbox struct {
	mu     sync.Mutex
	queue  [][]byte
	closed bool
	ready  chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{ready: make(chan struct{}, 1)}
}

// Push appends msg. Returns false if the outbox was closed.
func (o *Outbox) Push(msg []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	o.queue = append(o.queue, msg)
	o.signal()
	return true
}

// Ready is signalled whenever at least one message is waiting.
func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Pop removes the oldest message.
func (o *Outbox) Pop() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || len(o.queue) == 0 {
		return nil, false
	}
	msg := o.queue[0]
	o.queue[0] = nil
	o.queue = o.queue[1:]
	if len(o.queue) > 0 {
		o.signal()
	}
	return msg, true
}

// Len reports the number of queued messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Close disposes of the outbox. Safe to call more than once.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	o.queue = nil
	select {
	case <-o.ready:
	default:
	}
}

// Closed reports whether Close was called.
func (o *Outbox) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// must hold o.mu
func (o *Outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
