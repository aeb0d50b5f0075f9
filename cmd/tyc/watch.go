package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	cl "tycoon/internal/cli"
	"tycoon/internal/game"
	"tycoon/internal/stream"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type watchKeyMap struct {
	Pause  key.Binding
	Faster key.Binding
	Slower key.Binding
	Tick   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Faster, k.Slower, k.Tick, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Faster, k.Slower, k.Tick},
		{k.Help, k.Quit},
	}
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "slower"),
		),
		Tick: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "advance a month"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type eventMsg stream.Event

type streamErrMsg struct{ err error }

type actionDoneMsg struct {
	note string
	err  error
}

type watchModel struct {
	client *cl.Client
	gameID string
	conn   *websocket.Conn
	events chan tea.Msg
	keys   watchKeyMap
	help   help.Model

	dash     game.DashboardView
	haveDash bool
	note     string
	err      error
	width    int
}

func newWatchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the active game live",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			dialCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, client.StreamURL(sess.GameID), nil)
			if err != nil {
				return fmt.Errorf("connect stream: %w", err)
			}
			defer conn.Close()

			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return watchPlain(conn)
			}

			m := watchModel{
				client: client,
				gameID: sess.GameID,
				conn:   conn,
				events: make(chan tea.Msg, 16),
				keys:   defaultWatchKeys(),
				help:   help.New(),
			}
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				m.width = w
			}
			go m.readLoop()
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// watchPlain prints one line per event for pipes and logs.
func watchPlain(conn *websocket.Conn) error {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		events, err := stream.DecodeFrame(frame)
		if err != nil {
			slog.Warn("bad stream frame", "err", err)
			continue
		}
		for _, ev := range events {
			d := ev.Dashboard
			fmt.Printf("%s %-8s cash=%s valuation=%s users=%s\n",
				d.Date.Format("2006-01"), ev.Type,
				formatCents(d.CashCents), formatCents(d.ValuationCents), humanize.Comma(d.TotalUsers))
		}
	}
}

func (m watchModel) readLoop() {
	defer close(m.events)
	for {
		_, frame, err := m.conn.ReadMessage()
		if err != nil {
			m.events <- streamErrMsg{err: err}
			return
		}
		events, err := stream.DecodeFrame(frame)
		if err != nil {
			slog.Debug("bad stream frame", "err", err)
			continue
		}
		for _, ev := range events {
			m.events <- eventMsg(ev)
		}
	}
}

func (m watchModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case eventMsg:
		m.dash = msg.Dashboard
		m.haveDash = true
		if msg.Report != nil {
			m.note = reportNote(*msg.Report)
		}
		return m, m.waitForEvent()
	case streamErrMsg:
		m.err = msg.err
		return m, tea.Quit
	case actionDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.note = msg.note
		}
		return m, nil
	}
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Pause):
		return m, m.doAction(game.Action{Kind: game.ActionTogglePause})
	case key.Matches(msg, m.keys.Faster):
		return m, m.doAction(game.Action{Kind: game.ActionSetSpeed, Speed: stepSpeed(m.dash.Speed, 1)})
	case key.Matches(msg, m.keys.Slower):
		return m, m.doAction(game.Action{Kind: game.ActionSetSpeed, Speed: stepSpeed(m.dash.Speed, -1)})
	case key.Matches(msg, m.keys.Tick):
		client, id := m.client, m.gameID
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_, err := client.Tick(ctx, id)
			return actionDoneMsg{note: "advanced one month", err: err}
		}
	}
	return m, nil
}

func (m watchModel) doAction(a game.Action) tea.Cmd {
	client, id := m.client, m.gameID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_, err := client.Do(ctx, id, a, uuid.NewString())
		return actionDoneMsg{note: strings.ReplaceAll(string(a.Kind), "_", " "), err: err}
	}
}

// stepSpeed moves along the allowed multipliers, clamping at both ends.
func stepSpeed(current, dir int) int {
	idx := 0
	for i, s := range game.AllowedSpeeds {
		if s == current {
			idx = i
		}
	}
	idx += dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(game.AllowedSpeeds) {
		idx = len(game.AllowedSpeeds) - 1
	}
	return game.AllowedSpeeds[idx]
}

func reportNote(r game.TickReport) string {
	parts := []string{fmt.Sprintf("%s closed", r.Date.Format("Jan 2006"))}
	if r.RivalLaunches > 0 {
		parts = append(parts, fmt.Sprintf("%d rival launches", r.RivalLaunches))
	}
	for _, a := range r.RivalAcquisitions {
		parts = append(parts, fmt.Sprintf("%s bought %s", a.AcquirerName, a.TargetName))
	}
	return strings.Join(parts, " | ")
}

func (m watchModel) View() string {
	if !m.haveDash {
		return "connecting...\n"
	}
	d := m.dash
	var b strings.Builder

	state := goodStyle.Render("running")
	if d.Paused {
		state = noteStyle.Render("paused")
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", d.CompanyName, d.Date.Format("January 2006"))))
	b.WriteString(fmt.Sprintf("  %s x%d\n\n", state, d.Speed))

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	profit := formatCents(d.NetProfitCents)
	if d.NetProfitCents < 0 {
		profit = badStyle.Render(profit)
	} else {
		profit = goodStyle.Render(profit)
	}
	row("Cash", formatCents(d.CashCents))
	row("Valuation", formatCents(d.ValuationCents))
	row("Net profit", profit)
	row("Employees", fmt.Sprintf("%s / %s", humanize.Comma(d.Employees), humanize.Comma(d.RequiredEmployees)))
	row("Servers", fmt.Sprintf("%s / %s", humanize.Comma(d.Servers), humanize.Comma(d.RequiredServers)))
	row("Users", humanize.Comma(d.TotalUsers))
	row("Rivals", fmt.Sprintf("%d", d.CompetitorCount))

	if len(d.Products) > 0 {
		var pb strings.Builder
		for _, p := range d.Products {
			status := fmt.Sprintf("%3.0f%%", p.Progress)
			if p.Live() {
				status = fmt.Sprintf("q%-3d", p.Quality)
			}
			fmt.Fprintf(&pb, "#%-3d %-20s %s %12s users\n", p.ID, truncate(p.Name, 20), status, humanize.Comma(p.Users))
		}
		b.WriteByte('\n')
		b.WriteString(boxStyle.Render(strings.TrimRight(pb.String(), "\n")))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.err != nil {
		b.WriteString(badStyle.Render(m.err.Error()))
		b.WriteByte('\n')
	} else if m.note != "" {
		b.WriteString(noteStyle.Render(m.note))
		b.WriteByte('\n')
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteByte('\n')
	return b.String()
}
