package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotGetSet(t *testing.T) {
	s := NewSlot([]string{})
	assert.Empty(t, s.Get())
	assert.Equal(t, uint64(0), s.Version())

	s.Set([]string{"V1", "V2"})
	s.Set([]string{"V3"})

	assert.Equal(t, []string{"V3"}, s.Get())
	assert.Equal(t, uint64(2), s.Version())
}

func TestSlotSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	s := NewSlot(1)
	ch, cancel := s.Subscribe(4)
	defer cancel()

	require.Equal(t, 1, <-ch)
	s.Set(2)
	s.Set(3)
	assert.Equal(t, 2, <-ch)
	assert.Equal(t, 3, <-ch)
}

func TestSlotSlowSubscriberKeepsLatest(t *testing.T) {
	s := NewSlot(0)
	ch, cancel := s.Subscribe(1)
	defer cancel()

	for i := 1; i <= 10; i++ {
		s.Set(i)
	}

	assert.Equal(t, 10, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestSlotCancelClosesChannel(t *testing.T) {
	s := NewSlot("a")
	ch, cancel := s.Subscribe(1)
	<-ch
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after cancel must not panic on the closed channel.
	s.Set("b")
	assert.Equal(t, "b", s.Get())
}

func TestSlotConcurrentPublish(t *testing.T) {
	s := NewSlot(0)
	ch, cancel := s.Subscribe(8)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Set(v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(16), s.Version())
	var last int
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, s.Get(), last)
}
