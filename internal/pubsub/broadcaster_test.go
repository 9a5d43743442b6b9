package pubsub

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func assertNoValue[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_StartsWithCurrent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New(1)
	b.Publish(2)

	ch := b.Subscribe(ctx)
	assert.Equal(t, 2, recv(t, ch))
	assertNoValue(t, ch)
}

func TestPublish_EveryValueInOrderForSlowReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New(0)
	ch := b.Subscribe(ctx)

	for i := 1; i <= 100; i++ {
		b.Publish(i)
	}

	for want := 0; want <= 100; want++ {
		assert.Equal(t, want, recv(t, ch))
	}
	assertNoValue(t, ch)
}

func TestPublish_FansOutToAllSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New("a")
	first := b.Subscribe(ctx)
	second := b.Subscribe(ctx)
	require.Equal(t, 2, b.Subscribers())

	b.Publish("b")

	for _, ch := range []<-chan string{first, second} {
		assert.Equal(t, "a", recv(t, ch))
		assert.Equal(t, "b", recv(t, ch))
	}
}

func TestSubscribe_ClosedOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	b := New(0)
	ch := b.Subscribe(ctx)
	recv(t, ch)

	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}

	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	// publishing after unsubscribe must not block or panic
	b.Publish(1)
}

func TestWithCopy_SubscribersDoNotShareSlices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New([]int{1, 2}, WithCopy(func(s []int) []int { return slices.Clone(s) }))
	a := b.Subscribe(ctx)
	c := b.Subscribe(ctx)

	got := recv(t, a)
	got[0] = 99

	assert.Equal(t, []int{1, 2}, recv(t, c))
	assert.Equal(t, []int{1, 2}, b.Current())
}
