package common

import "sync"

// Broadcaster fans event frames out to subscriber channels. Delivery never
// blocks: a subscriber whose channel is full misses the frame and the miss
// is counted.
type Broadcaster struct {
	mu        sync.Mutex
	next      uint64
	receivers map[uint64]chan []byte
	dropped   uint64
	closed    bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{receivers: make(map[uint64]chan []byte)}
}

// RegisterReceiver subscribes ch and returns its id. After Close the
// channel is closed straight away.
func (b *Broadcaster) RegisterReceiver(ch chan []byte) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.closed {
		close(ch)
		return id
	}
	b.receivers[id] = ch
	return id
}

// UnregisterReceiver closes and forgets the channel registered under id.
// Unknown ids are ignored, so it is safe to call after Close.
func (b *Broadcaster) UnregisterReceiver(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.receivers[id]; ok {
		close(ch)
		delete(b.receivers, id)
	}
}

func (b *Broadcaster) Receivers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.receivers)
}

// Dropped returns how many frames were skipped because a subscriber was full.
func (b *Broadcaster) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Broadcast delivers frame to every subscriber and returns how many
// received it.
func (b *Broadcaster) Broadcast(frame []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, ch := range b.receivers {
		select {
		case ch <- frame:
			delivered++
		default:
			b.dropped++
		}
	}
	return delivered
}

// Close closes every subscriber channel; later registrations are closed
// immediately.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.receivers {
		close(ch)
		delete(b.receivers, id)
	}
	b.closed = true
}
