// Package state holds observable values that a rendering layer can subscribe to.
package state

import "sync"

// Slot is an observable value with last-write-wins semantics.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	subs    map[uint64]chan T
	nextID  uint64
}

// NewSlot creates a slot holding initial.
func NewSlot[T any](initial T) *Slot[T] {
	return &Slot[T]{value: initial, subs: make(map[uint64]chan T)}
}

// Get returns the current value.
func (s *Slot[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version returns the number of publishes since creation.
func (s *Slot[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set replaces the value and notifies subscribers.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
	s.version++
	for _, ch := range s.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that receives the current value immediately
// and then every published value. A subscriber that falls behind loses
// intermediate values but is always left holding the latest one.
// cancel closes the channel; calling it again is a no-op.
func (s *Slot[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.value
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// offer delivers v without blocking, evicting the oldest pending value if the buffer is full.
// Callers hold the slot lock, so no other sender races for the freed space.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
