package transport

import (
	"fmt"
	"sync"
)

type envelope struct {
	src int
	tag int
}

type posted struct {
	buf []float64
	op  *Op
}

// Mailbox is the inbound side of one worker. Messages and posted receives
// are matched by (source, tag); both sides queue in arrival order, so two
// messages with the same source and tag are never reordered.
type Mailbox struct {
	mu      sync.Mutex
	queued  map[envelope][][]float64
	waiting map[envelope][]posted
	err     error
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		queued:  make(map[envelope][][]float64),
		waiting: make(map[envelope][]posted),
	}
}

// Post registers a receive of len(buf) values from src with tag.
func (m *Mailbox) Post(buf []float64, src, tag int) Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Completed(m.err)
	}

	key := envelope{src: src, tag: tag}
	if q := m.queued[key]; len(q) > 0 {
		data := q[0]
		m.shift(key, q)
		return Completed(fill(buf, data, key))
	}

	op := NewOp()
	m.waiting[key] = append(m.waiting[key], posted{buf: buf, op: op})
	return op
}

// Deliver hands an inbound message to the mailbox. The mailbox takes
// ownership of data.
func (m *Mailbox) Deliver(src, tag int, data []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	key := envelope{src: src, tag: tag}
	if w := m.waiting[key]; len(w) > 0 {
		p := w[0]
		if len(w) == 1 {
			delete(m.waiting, key)
		} else {
			m.waiting[key] = w[1:]
		}
		p.op.Complete(fill(p.buf, data, key))
		return nil
	}

	m.queued[key] = append(m.queued[key], data)
	return nil
}

// Abort fails every posted receive and all later ones with err.
func (m *Mailbox) Abort(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return
	}
	m.err = Aborted(err)
	for key, w := range m.waiting {
		for _, p := range w {
			p.op.Complete(m.err)
		}
		delete(m.waiting, key)
	}
	clear(m.queued)
}

// Err returns the abort cause, if any.
func (m *Mailbox) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Mailbox) shift(key envelope, q [][]float64) {
	if len(q) == 1 {
		delete(m.queued, key)
		return
	}
	m.queued[key] = q[1:]
}

func fill(buf, data []float64, key envelope) error {
	if len(buf) != len(data) {
		return fmt.Errorf("%w: from rank %d tag %d got %d values, want %d",
			ErrTruncated, key.src, key.tag, len(data), len(buf))
	}
	copy(buf, data)
	return nil
}
