package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tycoon/internal/config"
	"tycoon/internal/game"
	"tycoon/internal/session"
	"tycoon/internal/stream"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Server struct {
	cfg   config.APIConfig
	log   *slog.Logger
	games *session.Manager
	mux   *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, games *session.Manager) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:   cfg,
		log:   logger,
		games: games,
		mux:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/games/{id}/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/catalog/products", s.handleCatalog)

			r.Post("/games", s.handleCreateGame)
			r.Get("/games", s.handleListGames)
			r.Get("/games/{id}", s.handleGameState)
			r.Delete("/games/{id}", s.handleDeleteGame)
			r.Get("/games/{id}/competitors", s.handleCompetitors)

			r.Post("/games/{id}/pause", s.handleTogglePause)
			r.Post("/games/{id}/speed", s.handleSetSpeed)
			r.Post("/games/{id}/tick", s.handleTick)

			r.Post("/games/{id}/employees/hire", s.handleHireEmployees)
			r.Post("/games/{id}/servers", s.handleAddServers)
			r.Post("/games/{id}/marketing", s.handleSetMarketing)

			r.Post("/games/{id}/products", s.handleStartDevelopment)
			r.Post("/games/{id}/products/{pid}/launch", s.handleLaunchProduct)
			r.Post("/games/{id}/products/{pid}/update", s.handleUpdateProduct)
			r.Post("/games/{id}/products/{pid}/trim", s.handleTrimProduct)
			r.Delete("/games/{id}/products/{pid}", s.handleDeleteProduct)

			r.Post("/games/{id}/acquisitions", s.handleAcquire)
			r.Post("/games/{id}/replay", s.handleReplay)
		})
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"products": game.ProductTypes()})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompanyName string `json:"company_name"`
		Competitors *int   `json:"competitors"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	competitors := -1
	if in.Competitors != nil {
		competitors = *in.Competitors
	}
	g, dash, err := s.games.Create(r.Context(), in.CompanyName, competitors)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"game_id": g.ID, "dashboard": dash})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.games.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dash, err := s.games.Dashboard(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_id": id, "dashboard": dash})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCompetitors(w http.ResponseWriter, r *http.Request) {
	views, err := s.games.Competitors(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitors": views})
}

func (s *Server) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	s.runAction(w, r, game.Action{Kind: game.ActionTogglePause})
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Multiplier int `json:"multiplier"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionSetSpeed, Speed: in.Multiplier})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.games.Tick(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dash, err := s.games.Dashboard(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "dashboard": dash})
}

func (s *Server) handleHireEmployees(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Count int64 `json:"count"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionHireEmployees, Count: in.Count})
}

func (s *Server) handleAddServers(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Count int64 `json:"count"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionAddServers, Count: in.Count})
}

func (s *Server) handleSetMarketing(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionSetMarketingBudget, AmountCents: in.AmountCents})
}

func (s *Server) handleStartDevelopment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type       string           `json:"type"`
		Name       string           `json:"name"`
		Allocation *game.Allocation `json:"allocation"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	productType, err := game.ParseProductType(in.Type)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	alloc := game.IdealAllocation(productType)
	if in.Allocation != nil {
		alloc = *in.Allocation
	}
	if alloc.Sum() != 100 {
		writeDomainError(w, fmt.Errorf("%w: allocation must sum to 100, got %d", game.ErrInvalidInput, alloc.Sum()))
		return
	}
	s.runAction(w, r, game.Action{
		Kind:        game.ActionStartDevelopment,
		ProductType: productType,
		Name:        strings.TrimSpace(in.Name),
		Allocation:  alloc,
	})
}

func (s *Server) handleLaunchProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionLaunchProduct, ProductID: productID})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}
	var in struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := game.ParseUpdateMode(in.Mode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionUpdateProduct, ProductID: productID, Mode: mode})
}

func (s *Server) handleTrimProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionReduceProductStaff, ProductID: productID})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionDeleteProduct, ProductID: productID})
}

func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompetitorID int64 `json:"competitor_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runAction(w, r, game.Action{Kind: game.ActionAcquireCompetitor, CompetitorID: in.CompetitorID})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []game.ReplayCommand `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.games.Replay(r.Context(), chi.URLParam(r, "id"), in.Commands)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	g, err := s.games.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	initial := stream.Event{Type: stream.EventSnapshot, Dashboard: g.Service.Dashboard()}
	if err := g.Hub().Serve(w, r, initial); err != nil {
		s.log.Warn("stream upgrade failed", "game_id", g.ID, "err", err)
	}
}

func (s *Server) runAction(w http.ResponseWriter, r *http.Request, a game.Action) {
	id := chi.URLParam(r, "id")
	res, err := s.games.Do(r.Context(), id, idempotencyKey(r), a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dash, err := s.games.Dashboard(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": res, "dashboard": dash})
}

func productParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "pid"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return productID, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrDuplicateIdempotency):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, game.ErrPrecondition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
