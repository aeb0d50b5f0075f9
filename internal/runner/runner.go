// Package runner drives a game's monthly tick from a wall-clock timer.
package runner

import (
	"context"
	"log/slog"
	"time"

	"tycoon/internal/game"
)

type Engine interface {
	Tick() (*game.State, game.TickReport)
	Speed() int
}

// TickFunc receives every tick that actually advanced the game.
type TickFunc func(st *game.State, report game.TickReport)

type Runner struct {
	engine Engine
	base   time.Duration
	log    *slog.Logger
	onTick TickFunc
	wake   chan struct{}
}

func New(engine Engine, base time.Duration, logger *slog.Logger, onTick TickFunc) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if base <= 0 {
		base = game.BaseTickInterval
	}
	return &Runner{
		engine: engine,
		base:   base,
		log:    logger,
		onTick: onTick,
		wake:   make(chan struct{}, 1),
	}
}

// Interval is base divided by the speed multiplier. Unknown speeds run at 1x.
func Interval(base time.Duration, speed int) time.Duration {
	if !game.ValidSpeed(speed) {
		speed = 1
	}
	return base / time.Duration(speed)
}

// Wake re-arms the timer with the current speed. Call it after a speed change.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	every := Interval(r.base, r.engine.Speed())
	timer := time.NewTimer(every)
	defer timer.Stop()

	r.log.Debug("runner started", "every", every.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("runner stopped")
			return
		case <-r.wake:
			every = Interval(r.base, r.engine.Speed())
			timer.Reset(every)
		case <-timer.C:
			st, report := r.engine.Tick()
			if !report.Skipped && r.onTick != nil {
				r.onTick(st, report)
			}
			every = Interval(r.base, r.engine.Speed())
			timer.Reset(every)
		}
	}
}
