// Package session keeps the live games of a server process. Each game has
// its own engine, timer and snapshot hub, and is saved to the store after
// every change.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"tycoon/internal/game"
	"tycoon/internal/runner"
	"tycoon/internal/store"
	"tycoon/internal/stream"
)

const saveTimeout = 5 * time.Second

type Options struct {
	TickEvery            time.Duration
	DefaultCompetitors   int
	IdempotencyCacheSize int
	// NewRand seeds each game's engine. Nil means time-seeded.
	NewRand func() game.Rand
}

type Game struct {
	ID      string
	Service *game.Service

	hub    *stream.Hub
	runner *runner.Runner
	cancel context.CancelFunc
	saveMu sync.Mutex
	closed bool
}

func (g *Game) Hub() *stream.Hub {
	return g.hub
}

type Manager struct {
	ctx    context.Context
	mu     sync.Mutex
	games  map[string]*Game
	store  store.Store
	params game.Params
	opts   Options
	log    *slog.Logger
	seen   *lru.Cache[string, struct{}]
	wg     sync.WaitGroup
}

// NewManager returns a manager whose games run until ctx is cancelled or Close is called.
func NewManager(ctx context.Context, st store.Store, params game.Params, opts Options, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TickEvery <= 0 {
		opts.TickEvery = game.BaseTickInterval
	}
	if opts.IdempotencyCacheSize <= 0 {
		opts.IdempotencyCacheSize = 4096
	}
	if opts.DefaultCompetitors < 0 {
		opts.DefaultCompetitors = params.Rivals.Count
	}
	seen, err := lru.New[string, struct{}](opts.IdempotencyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("idempotency cache: %w", err)
	}
	return &Manager{
		ctx:    ctx,
		games:  make(map[string]*Game),
		store:  st,
		params: params,
		opts:   opts,
		log:    logger,
		seen:   seen,
	}, nil
}

func (m *Manager) Params() game.Params {
	return m.params
}

// Create starts a new game. A negative competitor count means the default.
func (m *Manager) Create(ctx context.Context, companyName string, competitors int) (*Game, game.DashboardView, error) {
	if competitors < 0 {
		competitors = m.opts.DefaultCompetitors
	}
	id := uuid.NewString()
	svc := game.NewService(m.params, m.newRand(), m.log.With("game_id", id))
	dash, err := svc.StartGame(strings.TrimSpace(companyName), competitors)
	if err != nil {
		return nil, game.DashboardView{}, err
	}
	if err := m.store.Save(ctx, id, svc.Snapshot()); err != nil {
		return nil, game.DashboardView{}, err
	}

	m.mu.Lock()
	g := m.attachLocked(id, svc)
	m.mu.Unlock()
	m.log.Info("game created", "game_id", id, "company", dash.CompanyName, "competitors", dash.CompetitorCount)
	return g, dash, nil
}

// Get returns a live game, resuming it from the store when needed.
func (m *Manager) Get(ctx context.Context, id string) (*Game, error) {
	m.mu.Lock()
	if g, ok := m.games[id]; ok {
		m.mu.Unlock()
		return g, nil
	}
	m.mu.Unlock()

	st, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[id]; ok {
		return g, nil
	}
	svc := game.NewService(m.params, m.newRand(), m.log.With("game_id", id))
	svc.Restore(st)
	m.log.Info("game resumed", "game_id", id, "date", st.Date.Format("2006-01"))
	return m.attachLocked(id, svc), nil
}

func (m *Manager) List(ctx context.Context) ([]game.GameSummary, error) {
	return m.store.List(ctx)
}

// Delete stops a game and removes its saved snapshot.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	g, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if ok {
		g.cancel()
		g.saveMu.Lock()
		g.closed = true
		defer g.saveMu.Unlock()
	}
	return m.store.Delete(ctx, id)
}

// Do applies one action. A non-empty idempotency key is accepted once per game.
func (m *Manager) Do(ctx context.Context, id, idemKey string, a game.Action) (game.ActionResult, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return game.ActionResult{}, err
	}
	scoped := ""
	if idemKey != "" {
		scoped = id + ":" + idemKey
		if seen, _ := m.seen.ContainsOrAdd(scoped, struct{}{}); seen {
			return game.ActionResult{}, fmt.Errorf("%w: %s", game.ErrDuplicateIdempotency, idemKey)
		}
	}

	res, err := g.Service.Do(a)
	if err != nil {
		if scoped != "" {
			m.seen.Remove(scoped)
		}
		return game.ActionResult{}, err
	}
	if a.Kind == game.ActionSetSpeed || a.Kind == game.ActionTogglePause {
		g.runner.Wake()
	}
	m.persist(ctx, g)
	g.hub.Publish(stream.Event{Type: stream.EventAction, Action: a.Kind, Dashboard: g.Service.Dashboard()})
	return res, nil
}

// Tick advances a game by one month outside its timer.
func (m *Manager) Tick(ctx context.Context, id string) (game.TickReport, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return game.TickReport{}, err
	}
	st, report := g.Service.Tick()
	if !report.Skipped {
		m.afterTick(ctx, g, st, report)
	}
	return report, nil
}

func (m *Manager) Dashboard(ctx context.Context, id string) (game.DashboardView, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return game.DashboardView{}, err
	}
	return g.Service.Dashboard(), nil
}

func (m *Manager) Competitors(ctx context.Context, id string) ([]game.CompetitorView, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return g.Service.Competitors(), nil
}

// Close stops every game and saves its final snapshot.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	games := make([]*Game, 0, len(m.games))
	for id, g := range m.games {
		games = append(games, g)
		delete(m.games, id)
	}
	m.mu.Unlock()

	for _, g := range games {
		g.cancel()
	}
	m.wg.Wait()

	var firstErr error
	for _, g := range games {
		g.saveMu.Lock()
		err := m.store.Save(ctx, g.ID, g.Service.Snapshot())
		g.closed = true
		g.saveMu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) attachLocked(id string, svc *game.Service) *Game {
	ctx, cancel := context.WithCancel(m.ctx)
	g := &Game{
		ID:      id,
		Service: svc,
		hub:     stream.NewHub(id, m.log),
		cancel:  cancel,
	}
	g.runner = runner.New(svc, m.opts.TickEvery, m.log.With("game_id", id), func(st *game.State, report game.TickReport) {
		m.afterTick(ctx, g, st, report)
	})
	m.games[id] = g

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		g.hub.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		g.runner.Run(ctx)
	}()
	return g
}

func (m *Manager) afterTick(ctx context.Context, g *Game, st *game.State, report game.TickReport) {
	m.persist(ctx, g)
	r := report
	g.hub.Publish(stream.Event{Type: stream.EventTick, Dashboard: game.BuildDashboard(st), Report: &r})
}

// persist saves the latest snapshot. Saves are serialized per game so an
// older snapshot never overwrites a newer one.
func (m *Manager) persist(ctx context.Context, g *Game) {
	g.saveMu.Lock()
	defer g.saveMu.Unlock()
	if g.closed {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := m.store.Save(saveCtx, g.ID, g.Service.Snapshot()); err != nil {
		m.log.Error("autosave failed", "game_id", g.ID, "err", err)
	}
}

func (m *Manager) newRand() game.Rand {
	if m.opts.NewRand == nil {
		return nil
	}
	return m.opts.NewRand()
}
