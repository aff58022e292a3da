// Package bus provides the in-process broadcast channel that connects actors.
//
// A bus is a bounded ring of messages shared by every subscriber. Each
// receiver keeps its own read position, so a slow receiver never blocks
// producers or other receivers: when it falls more than the ring capacity
// behind, the oldest messages are overwritten and the receiver is told how
// many it skipped (see LaggedError).
//
//	tx := bus.New(bus.Capacity)
//	rx := tx.Subscribe()
//	_ = tx.Send(bus.PlaybackPlay{})
//	msg, err := rx.Recv(ctx)
//
// The bus closes when the last Sender is closed. Receivers drain whatever is
// still buffered for them and then get ErrClosed.
package bus

import (
	"context"
	"sync"
	"sync/atomic"
)

// Capacity is the default ring size.
const Capacity = 8192

type ring struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots []Message
	head  uint64 // sequence number of the next message to be written

	senders   int
	receivers int
	closed    bool
}

// Sender publishes messages. Every actor owns its own clone.
type Sender struct {
	ring   *ring
	closed atomic.Bool
}

// Receiver is one independent subscription.
type Receiver struct {
	ring   *ring
	next   uint64 // guarded by ring.mu
	closed bool   // guarded by ring.mu
}

// New creates a bus with the given capacity and returns its first sender.
// A non-positive capacity selects Capacity.
func New(capacity int) *Sender {
	if capacity <= 0 {
		capacity = Capacity
	}
	r := &ring{
		slots:   make([]Message, capacity),
		senders: 1,
	}
	r.cond = sync.NewCond(&r.mu)
	return &Sender{ring: r}
}

// Clone returns a new sender on the same bus.
// Cloning a closed sender still works as long as the bus is open.
func (s *Sender) Clone() *Sender {
	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		c := &Sender{ring: r}
		c.closed.Store(true)
		return c
	}
	r.senders++
	return &Sender{ring: r}
}

// Close drops this sender. Closing twice is a no-op.
func (s *Sender) Close() {
	if s.closed.Swap(true) {
		return
	}
	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders--
	if r.senders <= 0 {
		r.closed = true
		r.cond.Broadcast()
	}
}

// Send publishes msg to every current receiver without blocking.
// It returns ErrNoReceivers when nobody is subscribed and ErrClosed when
// this sender was closed. Producers are expected to ignore both.
func (s *Sender) Send(msg Message) error {
	if s.closed.Load() {
		return ErrClosed
	}
	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.receivers == 0 {
		return ErrNoReceivers
	}
	r.slots[r.head%uint64(len(r.slots))] = msg
	r.head++
	r.cond.Broadcast()
	return nil
}

// Subscribe returns a receiver that sees every message sent after this call.
func (s *Sender) Subscribe() *Receiver {
	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers++
	return &Receiver{ring: r, next: r.head}
}

// Receivers returns the number of live subscriptions.
func (s *Sender) Receivers() int {
	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.receivers
}

// Recv blocks until a message is available, the bus closes, or ctx is done.
//
// A *LaggedError means messages were overwritten before this receiver read
// them; the receiver has been moved to the oldest retained message and the
// next call continues from there.
func (rx *Receiver) Recv(ctx context.Context) (Message, error) {
	r := rx.ring
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if msg, err, ok := rx.takeLocked(); ok {
			return msg, err
		}
		if r.closed || rx.closed {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.cond.Wait()
	}
}

// TryRecv returns the next message if one is ready.
// ok is false when nothing is pending; err follows the Recv contract.
func (rx *Receiver) TryRecv() (msg Message, ok bool, err error) {
	r := rx.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, err, ok := rx.takeLocked(); ok {
		return msg, err == nil, err
	}
	if r.closed || rx.closed {
		return nil, false, ErrClosed
	}
	return nil, false, nil
}

// Pending returns how many messages are waiting for this receiver,
// including any that were already overwritten.
func (rx *Receiver) Pending() uint64 {
	r := rx.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head - rx.next
}

// Close unsubscribes. Pending messages are discarded.
func (rx *Receiver) Close() {
	r := rx.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	if rx.closed {
		return
	}
	rx.closed = true
	r.receivers--
	r.cond.Broadcast()
}

func (rx *Receiver) takeLocked() (Message, error, bool) { //nolint:revive // ok flag last reads better here
	r := rx.ring
	if rx.closed || rx.next == r.head {
		return nil, nil, false
	}
	capacity := uint64(len(r.slots))
	var oldest uint64
	if r.head > capacity {
		oldest = r.head - capacity
	}
	if rx.next < oldest {
		skipped := oldest - rx.next
		rx.next = oldest
		return nil, &LaggedError{Skipped: skipped}, true
	}
	msg := r.slots[rx.next%capacity]
	rx.next++
	return msg, nil, true
}
