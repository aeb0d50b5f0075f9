package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	cl "tycoon/internal/cli"
	"tycoon/internal/config"
	"tycoon/internal/game"
	"tycoon/internal/syncq"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL
	verbose := false

	root := &cobra.Command{
		Use:          "tyc",
		Short:        "Tech tycoon CLI game client",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger := log.NewWithOptions(os.Stderr, log.Options{
					ReportTimestamp: true,
					Prefix:          "tyc",
					Level:           log.DebugLevel,
				})
				slog.SetDefault(slog.New(logger))
			}
		},
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(
		newNewCmd(&apiBase),
		newGamesCmd(&apiBase),
		newUseCmd(&apiBase),
		newDashCmd(&apiBase),
		newMarketCmd(&apiBase),
		newPauseCmd(&apiBase),
		newSpeedCmd(&apiBase),
		newTickCmd(&apiBase),
		newHireCmd(&apiBase),
		newServersCmd(&apiBase),
		newMarketingCmd(&apiBase),
		newProductCmd(&apiBase),
		newAcquireCmd(&apiBase),
		newSyncCmd(&apiBase),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newNewCmd(apiBase *string) *cobra.Command {
	competitors := -1
	cmd := &cobra.Command{
		Use:   "new [company name]",
		Short: "Found a new company and make it the active game",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				var err error
				name, err = promptRequired("Company name")
				if err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			var rivals *int
			if competitors >= 0 {
				rivals = &competitors
			}
			out, err := newClient(apiBase).CreateGame(ctx, name, rivals)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				GameID:      out.GameID,
				CompanyName: out.Dashboard.CompanyName,
				APIBaseURL:  *apiBase,
			}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s founded. Game id %s", out.Dashboard.CompanyName, out.GameID))
			renderDashboard(out.Dashboard)
			return nil
		},
	}
	cmd.Flags().IntVar(&competitors, "competitors", -1, "Number of rival companies (server default when negative)")
	return cmd
}

func newGamesCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List saved games",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			games, err := newClient(apiBase).ListGames(ctx)
			if err != nil {
				return err
			}
			active := ""
			if sess, err := cl.LoadSession(); err == nil {
				active = sess.GameID
			}
			renderGames(games, active)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <game-id>",
		Short: "Delete a saved game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			id := strings.TrimSpace(args[0])
			if err := newClient(apiBase).DeleteGame(ctx, id); err != nil {
				return err
			}
			if sess, err := cl.LoadSession(); err == nil && sess.GameID == id {
				_ = cl.ClearSession()
			}
			printSuccess("Game deleted.")
			return nil
		},
	})
	return cmd
}

func newUseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "use <game-id>",
		Short: "Switch the active game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).GameState(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{
				GameID:      out.GameID,
				CompanyName: out.Dashboard.CompanyName,
				APIBaseURL:  *apiBase,
			}); err != nil {
				return err
			}
			printSuccess("Now playing " + out.Dashboard.CompanyName)
			return nil
		},
	}
}

func newDashCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show the company dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).GameState(ctx, sess.GameID)
			if err != nil {
				return err
			}
			renderDashboard(out.Dashboard)
			return nil
		},
	}
}

func newMarketCmd(apiBase *string) *cobra.Command {
	limit := 20
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Show rival companies and their asking prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			rivals, err := newClient(apiBase).Competitors(ctx, sess.GameID)
			if err != nil {
				return err
			}
			renderCompetitors(rivals, limit)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Rows to show (0 for all)")
	return cmd
}

func newPauseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause or resume the clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAction(cmd, apiBase, game.Action{Kind: game.ActionTogglePause})
		},
	}
}

func newSpeedCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "speed <1|2|4>",
		Short: "Set the clock multiplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			speed, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || !game.ValidSpeed(speed) {
				return fmt.Errorf("speed must be one of %v", game.AllowedSpeeds)
			}
			return sendAction(cmd, apiBase, game.Action{Kind: game.ActionSetSpeed, Speed: speed})
		},
	}
}

func newTickCmd(apiBase *string) *cobra.Command {
	months := 1
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance the game by whole months now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if months < 1 {
				return fmt.Errorf("months must be >= 1")
			}
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			client := newClient(apiBase)
			var last cl.TickResponse
			for i := 0; i < months; i++ {
				last, err = client.Tick(ctx, sess.GameID)
				if err != nil {
					return err
				}
				slog.Debug("tick", "game_id", sess.GameID, "date", last.Report.Date, "skipped", last.Report.Skipped)
				if last.Report.Skipped {
					printWarn("Game is paused; run `tyc pause` to resume.")
					return nil
				}
			}
			renderTickReport(last.Report)
			renderDashboard(last.Dashboard)
			return nil
		},
	}
	cmd.Flags().IntVarP(&months, "months", "n", 1, "Months to simulate")
	return cmd
}

func newHireCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hire <count>",
		Short: "Hire employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := int64FromArgOrPrompt(args, 0, "Employees to hire")
			if err != nil {
				return err
			}
			return sendAction(cmd, apiBase, game.Action{Kind: game.ActionHireEmployees, Count: count})
		},
	}
}

func newServersCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "servers <count>",
		Short: "Buy servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := int64FromArgOrPrompt(args, 0, "Servers to buy")
			if err != nil {
				return err
			}
			return sendAction(cmd, apiBase, game.Action{Kind: game.ActionAddServers, Count: count})
		},
	}
}

func newMarketingCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "marketing <dollars>",
		Short: "Set the monthly marketing budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			var dollars float64
			var err error
			if len(args) > 0 {
				dollars, err = strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
				if err != nil {
					return fmt.Errorf("invalid amount: %w", err)
				}
			} else {
				dollars, err = promptFloat("Monthly budget ($)", -1)
				if err != nil {
					return err
				}
			}
			return sendAction(cmd, apiBase, game.Action{
				Kind:        game.ActionSetMarketingBudget,
				AmountCents: game.DollarsToCents(dollars),
			})
		},
	}
}

func newProductCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Develop and run products",
	}
	cmd.AddCommand(
		newProductTypesCmd(apiBase),
		newProductDevelopCmd(apiBase),
		newProductIDCmd(apiBase, "launch", "Launch a finished product", game.ActionLaunchProduct),
		newProductUpdateCmd(apiBase),
		newProductIDCmd(apiBase, "trim", "Halve the staff assigned to a live product", game.ActionReduceProductStaff),
		newProductIDCmd(apiBase, "delete", "Shut a product down", game.ActionDeleteProduct),
	)
	return cmd
}

func newProductTypesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List product types and their ideal allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			types, err := newClient(apiBase).ProductTypes(ctx)
			if err != nil {
				return err
			}
			renderProductTypes(types)
			return nil
		},
	}
}

func newProductDevelopCmd(apiBase *string) *cobra.Command {
	allocFlag := ""
	cmd := &cobra.Command{
		Use:   "develop <type> [name]",
		Short: "Start developing a product",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productType, err := game.ParseProductType(args[0])
			if err != nil {
				return err
			}
			var alloc game.Allocation
			if allocFlag != "" {
				alloc, err = parseAllocation(allocFlag)
				if err != nil {
					return err
				}
			}
			return sendAction(cmd, apiBase, game.Action{
				Kind:        game.ActionStartDevelopment,
				ProductType: productType,
				Name:        strings.TrimSpace(strings.Join(args[1:], " ")),
				Allocation:  alloc,
			})
		},
	}
	cmd.Flags().StringVar(&allocFlag, "alloc", "", "backend,frontend,infra,ai,db percentages (default: ideal)")
	return cmd
}

func newProductUpdateCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> [maintain|minor|major]",
		Short: "Ship an update to a live product",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64FromArgOrPrompt(args, 0, "Product ID")
			if err != nil {
				return err
			}
			rawMode := ""
			if len(args) > 1 {
				rawMode = args[1]
			} else {
				rawMode, err = promptChoice("Update", []string{"maintain", "minor", "major"}, "minor")
				if err != nil {
					return err
				}
			}
			mode, err := game.ParseUpdateMode(rawMode)
			if err != nil {
				return err
			}
			return sendAction(cmd, apiBase, game.Action{Kind: game.ActionUpdateProduct, ProductID: id, Mode: mode})
		},
	}
}

func newProductIDCmd(apiBase *string, use, short string, kind game.ActionKind) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <product-id>",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64FromArgOrPrompt(args, 0, "Product ID")
			if err != nil {
				return err
			}
			return sendAction(cmd, apiBase, game.Action{Kind: kind, ProductID: id})
		},
	}
}

func newAcquireCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "acquire <competitor-id>",
		Short: "Buy a rival company outright",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := int64FromArgOrPrompt(args, 0, "Competitor ID")
			if err != nil {
				return err
			}
			return sendAction(cmd, apiBase, game.Action{Kind: game.ActionAcquireCompetitor, CompetitorID: id})
		},
	}
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay actions queued while the server was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := newClient(apiBase)
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			order, batches := syncq.Batches(queue)
			done := make(map[string]bool, len(order))
			applied := 0
			for _, gameID := range order {
				results, err := client.Replay(ctx, gameID, batches[gameID])
				if err != nil {
					if cl.IsOffline(err) {
						printWarn("Server still unreachable; queue kept.")
						break
					}
					printError(fmt.Sprintf("Sync failed for game %s: %v", gameID, err))
					continue
				}
				done[gameID] = true
				for _, r := range results {
					switch r.Status {
					case game.ReplayApplied:
						applied++
					case game.ReplayRejected:
						printWarn(fmt.Sprintf("%s rejected: %s", r.Kind, r.Error))
					}
				}
			}
			remaining := syncq.Remaining(queue, done)
			if err := syncq.Save(remaining); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: applied=%d remaining=%d", applied, len(remaining)))
			return nil
		},
	}
}

// sendAction runs a against the active game. When the server cannot be
// reached the action is queued for `tyc sync` under the same idempotency key.
func sendAction(cmd *cobra.Command, apiBase *string, a game.Action) error {
	sess, err := cl.LoadSession()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	idem := uuid.NewString()
	slog.Debug("action", "game_id", sess.GameID, "kind", a.Kind, "idempotency_key", idem)
	out, err := newClient(apiBase).Do(ctx, sess.GameID, a, idem)
	if err != nil {
		return queueOnNetworkError(err, syncq.Command{
			GameID:         sess.GameID,
			Action:         a,
			IdempotencyKey: idem,
		})
	}
	renderActionResult(out.Result)
	return nil
}

func queueOnNetworkError(err error, q syncq.Command) error {
	if !cl.IsOffline(err) {
		return err
	}
	if qerr := syncq.Push(q); qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %w", qerr)
	}
	printWarn(fmt.Sprintf("Server unreachable; %s queued. Run `tyc sync` later.", q.Action.Kind))
	return nil
}

func parseAllocation(raw string) (game.Allocation, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 5 {
		return game.Allocation{}, fmt.Errorf("allocation needs 5 values: backend,frontend,infra,ai,db")
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return game.Allocation{}, fmt.Errorf("invalid allocation value %q", p)
		}
		vals[i] = v
	}
	alloc := game.Allocation{Backend: vals[0], Frontend: vals[1], Infra: vals[2], AI: vals[3], DB: vals[4]}
	if alloc.Sum() != 100 {
		return game.Allocation{}, fmt.Errorf("allocation must sum to 100, got %d", alloc.Sum())
	}
	return alloc, nil
}

func int64FromArgOrPrompt(args []string, idx int, label string) (int64, error) {
	if len(args) > idx {
		v, err := strconv.ParseInt(strings.TrimSpace(args[idx]), 10, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("invalid %s", strings.ToLower(label))
		}
		return v, nil
	}
	return promptInt64(label, 1)
}
