package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tycoon/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type GameResponse struct {
	GameID    string             `json:"game_id"`
	Dashboard game.DashboardView `json:"dashboard"`
}

type ActionResponse struct {
	Result    game.ActionResult  `json:"result"`
	Dashboard game.DashboardView `json:"dashboard"`
}

type TickResponse struct {
	Report    game.TickReport    `json:"report"`
	Dashboard game.DashboardView `json:"dashboard"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) ProductTypes(ctx context.Context) ([]game.ProductTypeView, error) {
	var out struct {
		Products []game.ProductTypeView `json:"products"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog/products", nil, &out, "")
	return out.Products, err
}

func (c *Client) CreateGame(ctx context.Context, companyName string, competitors *int) (GameResponse, error) {
	body := map[string]any{"company_name": companyName}
	if competitors != nil {
		body["competitors"] = *competitors
	}
	var out GameResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games", body, &out, "")
	return out, err
}

func (c *Client) ListGames(ctx context.Context) ([]game.GameSummary, error) {
	var out struct {
		Games []game.GameSummary `json:"games"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games", nil, &out, "")
	return out.Games, err
}

func (c *Client) GameState(ctx context.Context, gameID string) (GameResponse, error) {
	var out GameResponse
	err := c.jsonRequest(ctx, http.MethodGet, gamePath(gameID, ""), nil, &out, "")
	return out, err
}

func (c *Client) DeleteGame(ctx context.Context, gameID string) error {
	return c.jsonRequest(ctx, http.MethodDelete, gamePath(gameID, ""), nil, nil, "")
}

func (c *Client) Competitors(ctx context.Context, gameID string) ([]game.CompetitorView, error) {
	var out struct {
		Competitors []game.CompetitorView `json:"competitors"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, gamePath(gameID, "/competitors"), nil, &out, "")
	return out.Competitors, err
}

func (c *Client) Tick(ctx context.Context, gameID string) (TickResponse, error) {
	var out TickResponse
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(gameID, "/tick"), nil, &out, "")
	return out, err
}

// Do sends a as the matching endpoint call.
func (c *Client) Do(ctx context.Context, gameID string, a game.Action, idem string) (ActionResponse, error) {
	method, path, body, err := actionRequest(gameID, a)
	if err != nil {
		return ActionResponse{}, err
	}
	var out ActionResponse
	err = c.jsonRequest(ctx, method, path, body, &out, idem)
	return out, err
}

func (c *Client) Replay(ctx context.Context, gameID string, commands []game.ReplayCommand) ([]game.ReplayResult, error) {
	var out struct {
		Results []game.ReplayResult `json:"results"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(gameID, "/replay"), map[string]any{"commands": commands}, &out, "")
	return out.Results, err
}

// StreamURL is the websocket endpoint for gameID.
func (c *Client) StreamURL(gameID string) string {
	base := c.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + gamePath(gameID, "/stream")
}

func actionRequest(gameID string, a game.Action) (string, string, any, error) {
	switch a.Kind {
	case game.ActionTogglePause:
		return http.MethodPost, gamePath(gameID, "/pause"), nil, nil
	case game.ActionSetSpeed:
		return http.MethodPost, gamePath(gameID, "/speed"), map[string]any{"multiplier": a.Speed}, nil
	case game.ActionHireEmployees:
		return http.MethodPost, gamePath(gameID, "/employees/hire"), map[string]any{"count": a.Count}, nil
	case game.ActionAddServers:
		return http.MethodPost, gamePath(gameID, "/servers"), map[string]any{"count": a.Count}, nil
	case game.ActionSetMarketingBudget:
		return http.MethodPost, gamePath(gameID, "/marketing"), map[string]any{"amount_cents": a.AmountCents}, nil
	case game.ActionStartDevelopment:
		body := map[string]any{"type": a.ProductType, "name": a.Name}
		// zero allocation lets the server pick the ideal split
		if a.Allocation.Sum() != 0 {
			body["allocation"] = a.Allocation
		}
		return http.MethodPost, gamePath(gameID, "/products"), body, nil
	case game.ActionLaunchProduct:
		return http.MethodPost, productPath(gameID, a.ProductID, "/launch"), nil, nil
	case game.ActionUpdateProduct:
		return http.MethodPost, productPath(gameID, a.ProductID, "/update"), map[string]any{"mode": a.Mode}, nil
	case game.ActionReduceProductStaff:
		return http.MethodPost, productPath(gameID, a.ProductID, "/trim"), nil, nil
	case game.ActionDeleteProduct:
		return http.MethodDelete, productPath(gameID, a.ProductID, ""), nil, nil
	case game.ActionAcquireCompetitor:
		return http.MethodPost, gamePath(gameID, "/acquisitions"), map[string]any{"competitor_id": a.CompetitorID}, nil
	default:
		return "", "", nil, fmt.Errorf("%w: %q", game.ErrUnknownAction, a.Kind)
	}
}

func gamePath(gameID, suffix string) string {
	return "/v1/games/" + url.PathEscape(gameID) + suffix
}

func productPath(gameID string, productID int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", gamePath(gameID, "/products"), productID, suffix)
}

// IsOffline reports whether err means the server could not be reached,
// as opposed to the server rejecting the request.
func IsOffline(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
