package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tycoon/internal/game"
)

type fakeEngine struct {
	mu     sync.Mutex
	speed  int
	paused bool
	ticks  int
}

func (f *fakeEngine) Tick() (*game.State, game.TickReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paused {
		return nil, game.TickReport{Skipped: true}
	}
	f.ticks++
	return &game.State{Ticks: int64(f.ticks)}, game.TickReport{}
}

func (f *fakeEngine) Speed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speed
}

func (f *fakeEngine) set(speed int, paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speed = speed
	f.paused = paused
}

func TestInterval(t *testing.T) {
	tests := []struct {
		speed int
		want  time.Duration
	}{
		{1, 10 * time.Second},
		{2, 5 * time.Second},
		{4, 2500 * time.Millisecond},
		{3, 10 * time.Second},
		{0, 10 * time.Second},
	}
	for _, tc := range tests {
		if got := Interval(10*time.Second, tc.speed); got != tc.want {
			t.Fatalf("speed %d: got %v want %v", tc.speed, got, tc.want)
		}
	}
}

func TestRunEmitsTicksUntilCancelled(t *testing.T) {
	eng := &fakeEngine{speed: 1}
	var emitted atomic.Int64
	r := New(eng, 5*time.Millisecond, nil, func(st *game.State, _ game.TickReport) {
		emitted.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for emitted.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("runner emitted only %d ticks", emitted.Load())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("runner did not stop after cancel")
	}
}

func TestRunSkipsPausedTicks(t *testing.T) {
	eng := &fakeEngine{speed: 4, paused: true}
	var emitted atomic.Int64
	r := New(eng, 4*time.Millisecond, nil, func(*game.State, game.TickReport) {
		emitted.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r.Run(ctx)
	if emitted.Load() != 0 {
		t.Fatalf("paused ticks were emitted: %d", emitted.Load())
	}
}

func TestWakeAppliesNewSpeed(t *testing.T) {
	eng := &fakeEngine{speed: 1}
	var emitted atomic.Int64
	r := New(eng, 2*time.Second, nil, func(*game.State, game.TickReport) {
		emitted.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	time.Sleep(10 * time.Millisecond)
	eng.set(4, false)
	r.Wake()
	woke := time.Now()

	for emitted.Load() == 0 {
		if time.Since(woke) > 1500*time.Millisecond {
			t.Fatalf("wake did not re-arm the timer at 4x")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
