package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tycoon/internal/config"
	"tycoon/internal/game"
	"tycoon/internal/session"
	"tycoon/internal/store"
	"tycoon/internal/stream"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	games, err := session.NewManager(ctx, store.NewMemory(), game.DefaultParams(), session.Options{
		TickEvery:            time.Hour,
		DefaultCompetitors:   5,
		IdempotencyCacheSize: 128,
		NewRand:              func() game.Rand { return game.NewRand(7) },
	}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	srv := httptest.NewServer(New(config.APIConfig{}, nil, games).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = games.Close(context.Background())
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, idem string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type gameResponse struct {
	GameID    string             `json:"game_id"`
	Dashboard game.DashboardView `json:"dashboard"`
}

type actionResponse struct {
	Result    game.ActionResult  `json:"result"`
	Dashboard game.DashboardView `json:"dashboard"`
	Error     string             `json:"error"`
}

func createGame(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var out gameResponse
	if code := call(t, srv, http.MethodPost, "/v1/games", "", map[string]any{"company_name": "Acme Labs"}, &out); code != http.StatusCreated {
		t.Fatalf("create game: status %d", code)
	}
	if out.GameID == "" || out.Dashboard.CompetitorCount != 5 {
		t.Fatalf("unexpected create response %+v", out)
	}
	return out.GameID
}

func TestHealthAndCatalog(t *testing.T) {
	srv := newTestServer(t)
	if code := call(t, srv, http.MethodGet, "/healthz", "", nil, nil); code != http.StatusOK {
		t.Fatalf("healthz: %d", code)
	}
	var catalog struct {
		Products []game.ProductTypeView `json:"products"`
	}
	if code := call(t, srv, http.MethodGet, "/v1/catalog/products", "", nil, &catalog); code != http.StatusOK {
		t.Fatalf("catalog: %d", code)
	}
	if len(catalog.Products) != 16 {
		t.Fatalf("expected 16 product types, got %d", len(catalog.Products))
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)
	base := "/v1/games/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown game", http.MethodGet, "/v1/games/nope", nil, http.StatusNotFound},
		{"bad name", http.MethodPost, "/v1/games", map[string]any{"company_name": "nazi inc"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, base + "/servers", map[string]any{"count": 1, "extra": true}, http.StatusBadRequest},
		{"zero count", http.MethodPost, base + "/employees/hire", map[string]any{"count": 0}, http.StatusBadRequest},
		{"cannot afford", http.MethodPost, base + "/employees/hire", map[string]any{"count": 101}, http.StatusPaymentRequired},
		{"bad speed", http.MethodPost, base + "/speed", map[string]any{"multiplier": 3}, http.StatusBadRequest},
		{"unknown product type", http.MethodPost, base + "/products", map[string]any{"type": "teleporter"}, http.StatusBadRequest},
		{"allocation sum", http.MethodPost, base + "/products", map[string]any{"type": "search", "allocation": map[string]int{"backend": 50}}, http.StatusBadRequest},
		{"missing product", http.MethodPost, base + "/products/42/launch", nil, http.StatusNotFound},
		{"bad product id", http.MethodPost, base + "/products/abc/trim", nil, http.StatusBadRequest},
		{"bad update mode", http.MethodPost, base + "/products/1/update", map[string]any{"mode": "rewrite"}, http.StatusBadRequest},
		{"missing competitor", http.MethodPost, base + "/acquisitions", map[string]any{"competitor_id": 999}, http.StatusNotFound},
	}
	for _, tc := range tests {
		var out actionResponse
		if code := call(t, srv, tc.method, tc.path, "", tc.body, &out); code != tc.want {
			t.Fatalf("%s: status %d want %d (%s)", tc.name, code, tc.want, out.Error)
		}
	}
}

func TestDevelopLaunchFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)
	base := "/v1/games/" + id

	var dev actionResponse
	if code := call(t, srv, http.MethodPost, base+"/products", "", map[string]any{"type": "Search", "name": "Finder"}, &dev); code != http.StatusOK {
		t.Fatalf("start development: %d %s", code, dev.Error)
	}
	productID := dev.Result.ProductID
	if productID == 0 || dev.Dashboard.InDevelopment != 1 {
		t.Fatalf("unexpected development response %+v", dev)
	}

	launch := fmt.Sprintf("%s/products/%d/launch", base, productID)
	var early actionResponse
	if code := call(t, srv, http.MethodPost, launch, "", nil, &early); code != http.StatusConflict {
		t.Fatalf("early launch: status %d", code)
	}

	for i := 0; i < 25; i++ {
		if code := call(t, srv, http.MethodPost, base+"/tick", "", nil, nil); code != http.StatusOK {
			t.Fatalf("tick: %d", code)
		}
	}
	var launched actionResponse
	if code := call(t, srv, http.MethodPost, launch, "", nil, &launched); code != http.StatusOK {
		t.Fatalf("launch: %d %s", code, launched.Error)
	}
	if launched.Result.Quality != 10 || launched.Dashboard.LiveProducts != 1 {
		t.Fatalf("ideal allocation should launch at quality 10: %+v", launched.Result)
	}

	var trimmed actionResponse
	if code := call(t, srv, http.MethodPost, fmt.Sprintf("%s/products/%d/trim", base, productID), "", nil, &trimmed); code != http.StatusOK {
		t.Fatalf("trim: %d", code)
	}
	if code := call(t, srv, http.MethodDelete, fmt.Sprintf("%s/products/%d", base, productID), "", nil, nil); code != http.StatusOK {
		t.Fatalf("delete product: %d", code)
	}
}

func TestIdempotencyKeyConflict(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)
	path := "/v1/games/" + id + "/servers"

	var first actionResponse
	if code := call(t, srv, http.MethodPost, path, "same-key", map[string]any{"count": 3}, &first); code != http.StatusOK {
		t.Fatalf("add servers: %d", code)
	}
	if code := call(t, srv, http.MethodPost, path, "same-key", map[string]any{"count": 3}, nil); code != http.StatusConflict {
		t.Fatalf("expected conflict on repeated key, got %d", code)
	}
	var state gameResponse
	call(t, srv, http.MethodGet, "/v1/games/"+id, "", nil, &state)
	if state.Dashboard.Servers != 3 {
		t.Fatalf("repeated request was applied: servers=%d", state.Dashboard.Servers)
	}
}

func TestPauseSpeedAndCompetitors(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)
	base := "/v1/games/" + id

	var paused actionResponse
	call(t, srv, http.MethodPost, base+"/pause", "", nil, &paused)
	if !paused.Result.Paused {
		t.Fatalf("expected paused")
	}
	var tick struct {
		Report game.TickReport `json:"report"`
	}
	call(t, srv, http.MethodPost, base+"/tick", "", nil, &tick)
	if !tick.Report.Skipped {
		t.Fatalf("paused tick should be skipped")
	}

	var sped actionResponse
	if code := call(t, srv, http.MethodPost, base+"/speed", "", map[string]any{"multiplier": 4}, &sped); code != http.StatusOK || sped.Result.Speed != 4 {
		t.Fatalf("set speed: %d %+v", code, sped.Result)
	}

	var comps struct {
		Competitors []game.CompetitorView `json:"competitors"`
	}
	call(t, srv, http.MethodGet, base+"/competitors", "", nil, &comps)
	if len(comps.Competitors) != 5 {
		t.Fatalf("expected 5 competitors, got %d", len(comps.Competitors))
	}
	cheapest := comps.Competitors[len(comps.Competitors)-1]

	var bought actionResponse
	code := call(t, srv, http.MethodPost, base+"/acquisitions", "", map[string]any{"competitor_id": cheapest.ID}, &bought)
	switch code {
	case http.StatusOK:
		if bought.Result.CostCents != cheapest.PriceCents || bought.Dashboard.CompetitorCount != 4 {
			t.Fatalf("unexpected acquisition %+v", bought.Result)
		}
	case http.StatusPaymentRequired:
		if cheapest.PriceCents <= game.StartingCashCents {
			t.Fatalf("affordable acquisition rejected")
		}
	default:
		t.Fatalf("acquire: status %d", code)
	}
}

func TestListDeleteAndReplay(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)

	var replay struct {
		Results []game.ReplayResult `json:"results"`
	}
	body := map[string]any{"commands": []game.ReplayCommand{
		{IdempotencyKey: "q1", Action: game.Action{Kind: game.ActionAddServers, Count: 2}},
		{IdempotencyKey: "q1", Action: game.Action{Kind: game.ActionAddServers, Count: 2}},
		{IdempotencyKey: "q2", Action: game.Action{Kind: game.ActionHireEmployees, Count: 500}},
	}}
	if code := call(t, srv, http.MethodPost, "/v1/games/"+id+"/replay", "", body, &replay); code != http.StatusOK {
		t.Fatalf("replay: %d", code)
	}
	if len(replay.Results) != 3 || replay.Results[0].Status != game.ReplayApplied ||
		replay.Results[1].Status != game.ReplayDuplicate || replay.Results[2].Status != game.ReplayRejected {
		t.Fatalf("unexpected replay results %+v", replay.Results)
	}

	var list struct {
		Games []game.GameSummary `json:"games"`
	}
	call(t, srv, http.MethodGet, "/v1/games", "", nil, &list)
	if len(list.Games) != 1 || list.Games[0].ID != id {
		t.Fatalf("unexpected list %+v", list.Games)
	}

	if code := call(t, srv, http.MethodDelete, "/v1/games/"+id, "", nil, nil); code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	if code := call(t, srv, http.MethodGet, "/v1/games/"+id, "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted game: status %d", code)
	}
}

func TestStreamPushesActions(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/games/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	next := func() []stream.Event {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		events, err := stream.DecodeFrame(frame)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return events
	}

	first := next()
	if first[0].Type != stream.EventSnapshot || first[0].Dashboard.CompanyName != "Acme Labs" {
		t.Fatalf("unexpected first event %+v", first[0])
	}

	// The first frame is written only after the subscriber is registered.
	call(t, srv, http.MethodPost, "/v1/games/"+id+"/tick", "", nil, nil)
	got := next()
	if got[0].Type != stream.EventTick || got[0].Report == nil || got[0].GameID != id {
		t.Fatalf("unexpected tick event %+v", got[0])
	}
}
