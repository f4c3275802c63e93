package bus

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietBus() *Bus {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishFanOut(t *testing.T) {
	b := quietBus()

	var got []string
	b.Subscribe("topic", func(p any) { got = append(got, "a:"+p.(string)) })
	b.Subscribe("topic", func(p any) { got = append(got, "b:"+p.(string)) })
	b.Subscribe("other", func(p any) { got = append(got, "other") })

	b.Publish("topic", "x")

	assert.ElementsMatch(t, []string{"a:x", "b:x"}, got)
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	b := quietBus()

	var calls int
	b.Subscribe("topic", func(any) { calls++ })
	b.Subscribe("topic", func(any) { panic("boom") })
	b.Subscribe("topic", func(any) { calls++ })

	require.NotPanics(t, func() { b.Publish("topic", nil) })
	assert.Equal(t, 2, calls)
}

func TestUnsubscribeRemovesOnlyItsRegistration(t *testing.T) {
	b := quietBus()

	var calls int
	h := func(any) { calls++ }
	unsubA := b.Subscribe("topic", h)
	b.Subscribe("topic", h)
	require.Equal(t, 2, b.Len("topic"))

	unsubA()
	unsubA()
	assert.Equal(t, 1, b.Len("topic"))

	b.Publish("topic", nil)
	assert.Equal(t, 1, calls)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := quietBus()
	assert.NotPanics(t, func() { b.Publish("nobody", 42) })
	assert.Equal(t, 0, b.Len("nobody"))
}

func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	b := quietBus()

	var calls int
	var unsub func()
	unsub = b.Subscribe("topic", func(any) {
		calls++
		unsub()
	})
	b.Subscribe("topic", func(any) { calls++ })

	b.Publish("topic", nil)
	assert.Equal(t, 2, calls)

	b.Publish("topic", nil)
	assert.Equal(t, 3, calls)
}

func TestNilHandlerIgnored(t *testing.T) {
	b := quietBus()
	unsub := b.Subscribe("topic", nil)
	assert.Equal(t, 0, b.Len("topic"))
	assert.NotPanics(t, unsub)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := quietBus()

	var mu sync.Mutex
	var calls int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := b.Subscribe("topic", func(any) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
			defer unsub()
		}()
		go func() {
			defer wg.Done()
			b.Publish("topic", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Len("topic"))
}
