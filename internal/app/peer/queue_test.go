package peer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueKeepsOrder(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 100; i++ {
		require.True(t, q.push(i))
	}
	for i := 0; i < 100; i++ {
		v, ok := q.next(nil)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.len())
}

func TestQueueDrainsBeforeClose(t *testing.T) {
	q := newQueue[string]()
	q.push("a")
	q.push("b")
	q.close(false)
	assert.False(t, q.push("c"))

	v, ok := q.next(nil)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	v, ok = q.next(nil)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	_, ok = q.next(nil)
	assert.False(t, ok)
}

func TestQueueDiscard(t *testing.T) {
	q := newQueue[int]()
	q.push(1)
	q.close(true)
	_, ok := q.next(nil)
	assert.False(t, ok)
}

func TestQueueWakesConsumer(t *testing.T) {
	q := newQueue[int]()
	got := make(chan int, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			v, ok := q.next(nil)
			if !ok {
				return
			}
			got <- v
		}
	}()

	q.push(7)
	select {
	case v := <-got:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken")
	}
	q.close(false)
	wg.Wait()
}

func TestQueueNextStopsOnDone(t *testing.T) {
	q := newQueue[int]()
	done := make(chan struct{})
	close(done)
	_, ok := q.next(done)
	assert.False(t, ok)
}
