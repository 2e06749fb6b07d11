package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition never met")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEvery_Fires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n atomic.Int32
	s.Every("tick", 10*time.Millisecond, func() { n.Add(1) })
	waitFor(t, func() bool { return n.Load() >= 3 })
}

func TestEvery_SameNameReplaces(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var old, fresh atomic.Int32
	s.Every("tick", 10*time.Millisecond, func() { old.Add(1) })
	s.Every("tick", 10*time.Millisecond, func() { fresh.Add(1) })

	waitFor(t, func() bool { return fresh.Load() >= 2 })
	assert.Zero(t, old.Load(), "replaced task must never run")
}

func TestRemove(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n atomic.Int32
	s.Every("tick", 10*time.Millisecond, func() { n.Add(1) })
	s.Remove("tick")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, n.Load())
}

func TestAfter_RunsOnce(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n atomic.Int32
	s.After("once", 10*time.Millisecond, func() { n.Add(1) })

	waitFor(t, func() bool { return n.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}

func TestStop_HaltsTasksAndIsIdempotent(t *testing.T) {
	s := New(zap.NewNop())

	var n atomic.Int32
	s.Every("tick", 10*time.Millisecond, func() { n.Add(1) })
	waitFor(t, func() bool { return n.Load() >= 1 })

	s.Stop()
	s.Stop()
	at := n.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, at, n.Load())

	// Registration after Stop is a no-op.
	s.Every("late", 10*time.Millisecond, func() { n.Add(1) })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, at, n.Load())
}

func TestRun_RecoversPanic(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n atomic.Int32
	s.Every("panicky", 10*time.Millisecond, func() {
		n.Add(1)
		panic("boom")
	})
	// A panicking task keeps firing instead of killing the loop.
	waitFor(t, func() bool { return n.Load() >= 2 })
}
