package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tycoon/internal/game"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.2f", min))
			continue
		}
		return v, nil
	}
}

func promptInt64(label string, min int64) (int64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

func renderDashboard(d game.DashboardView) {
	state := "running"
	if d.Paused {
		state = "paused"
	}
	accent.Printf("\n== %s | %s | %s x%d ==\n", d.CompanyName, d.Date.Format("January 2006"), state, d.Speed)
	fmt.Printf("Cash:             %s\n", formatCents(d.CashCents))
	fmt.Printf("Valuation:        %s\n", formatCents(d.ValuationCents))
	fmt.Printf("Income/month:     %s\n", formatCents(d.MonthlyIncomeCents))
	fmt.Printf("Expenses/month:   %s\n", formatCents(d.MonthlyExpensesCents))
	fmt.Printf("Tax/month:        %s\n", formatCents(d.MonthlyTaxCents))
	fmt.Printf("Net profit:       %s\n", colorizeCents(d.NetProfitCents))
	fmt.Printf("Taxes paid:       %s\n", formatCents(d.TaxesPaidCents))
	fmt.Printf("Marketing/month:  %s\n", formatCents(d.MarketingBudgetCents))
	fmt.Printf("Employees:        %s / %s needed%s\n", humanize.Comma(d.Employees), humanize.Comma(d.RequiredEmployees), shortfall(d.EmployeeShortfall))
	fmt.Printf("Servers:          %s / %s needed%s\n", humanize.Comma(d.Servers), humanize.Comma(d.RequiredServers), shortfall(d.RequiredServers-d.Servers))
	fmt.Printf("Users:            %s of %s potential\n", humanize.Comma(d.TotalUsers), humanize.Comma(d.PotentialUsers))
	fmt.Printf("Rivals:           %d\n", d.CompetitorCount)

	fmt.Println()
	accent.Println("Products")
	if len(d.Products) == 0 {
		printInfo("No products yet. Try `tyc product develop search`.")
	} else {
		renderProducts(d.Products)
	}

	if len(d.Acquisitions) > 0 {
		fmt.Println()
		accent.Println("Acquisitions")
		for _, a := range d.Acquisitions {
			fmt.Printf("%-24s %-10s %14s\n", truncate(a.Name, 24), a.AcquiredAt.Format("2006-01"), formatCents(a.PriceCents))
		}
	}
	fmt.Println()
}

func renderProducts(products []game.Product) {
	fmt.Printf("%-5s %-22s %-12s %-15s %8s %8s %14s %10s\n", "ID", "NAME", "TYPE", "STATUS", "PROGRESS", "QUALITY", "USERS", "STAFF")
	for _, p := range products {
		progress := "-"
		if !p.Live() {
			progress = fmt.Sprintf("%.0f%%", p.Progress)
		}
		fmt.Printf("%-5d %-22s %-12s %-15s %8s %8d %14s %10s\n",
			p.ID,
			truncate(p.Name, 22),
			truncate(string(p.Type), 12),
			p.Status,
			progress,
			p.Quality,
			humanize.Comma(p.Users),
			humanize.Comma(p.Employees),
		)
	}
}

func renderCompetitors(rivals []game.CompetitorView, limit int) {
	accent.Println("\n== RIVALS ==")
	if len(rivals) == 0 {
		printInfo("No rivals left.")
		return
	}
	if limit > 0 && len(rivals) > limit {
		rivals = rivals[:limit]
	}
	fmt.Printf("%-5s %-24s %16s %16s %9s %14s %8s %6s\n", "ID", "NAME", "VALUATION", "PRICE", "PRODUCTS", "USERS", "QUALITY", "ACQ")
	for _, r := range rivals {
		fmt.Printf("%-5d %-24s %16s %16s %9d %14s %8.1f %6d\n",
			r.ID,
			truncate(r.Name, 24),
			formatCents(r.ValuationCents),
			formatCents(r.PriceCents),
			r.ProductCount,
			humanize.Comma(r.TotalUsers),
			r.AvgQuality,
			r.Acquisitions,
		)
	}
	fmt.Println()
}

func renderGames(games []game.GameSummary, active string) {
	accent.Println("\n== SAVED GAMES ==")
	if len(games) == 0 {
		printInfo("No saved games. Run `tyc new` to start one.")
		return
	}
	fmt.Printf("  %-36s %-22s %-10s %16s %16s %s\n", "ID", "COMPANY", "DATE", "CASH", "VALUATION", "SAVED")
	for _, g := range games {
		marker := " "
		if g.ID == active {
			marker = "*"
		}
		fmt.Printf("%s %-36s %-22s %-10s %16s %16s %s\n",
			marker,
			g.ID,
			truncate(g.CompanyName, 22),
			g.Date.Format("2006-01"),
			formatCents(g.CashCents),
			formatCents(g.ValuationCents),
			humanize.Time(g.UpdatedAt),
		)
	}
	fmt.Println()
}

func renderProductTypes(types []game.ProductTypeView) {
	accent.Println("\n== PRODUCT TYPES ==")
	fmt.Printf("%-12s %-24s %s\n", "TYPE", "NAME", "IDEAL (backend/frontend/infra/ai/db)")
	for _, t := range types {
		a := game.IdealAllocation(t.Type)
		fmt.Printf("%-12s %-24s %d/%d/%d/%d/%d\n", t.Type, t.DisplayName, a.Backend, a.Frontend, a.Infra, a.AI, a.DB)
	}
	fmt.Println()
}

func renderTickReport(r game.TickReport) {
	accent.Printf("\n== %s ==\n", r.Date.Format("January 2006"))
	fmt.Printf("Income:     %s\n", formatCents(r.IncomeCents))
	fmt.Printf("Staff:      %s\n", formatCents(r.EmployeeCostCents))
	fmt.Printf("Servers:    %s\n", formatCents(r.ServerCostCents))
	fmt.Printf("Marketing:  %s\n", formatCents(r.MarketingCostCents))
	fmt.Printf("Tax:        %s\n", formatCents(r.TaxCents))
	fmt.Printf("Pre-tax:    %s\n", colorizeCents(r.ProfitBeforeTaxCents))
	if r.RivalLaunches > 0 {
		printInfo(fmt.Sprintf("Rivals launched %d products.", r.RivalLaunches))
	}
	for _, a := range r.RivalAcquisitions {
		printWarn(fmt.Sprintf("%s acquired %s for %s", a.AcquirerName, a.TargetName, formatCents(a.PriceCents)))
	}
}

func renderActionResult(res game.ActionResult) {
	switch res.Kind {
	case game.ActionTogglePause:
		if res.Paused {
			printSuccess("Paused.")
		} else {
			printSuccess("Resumed.")
		}
	case game.ActionSetSpeed:
		printSuccess(fmt.Sprintf("Speed set to x%d.", res.Speed))
	case game.ActionStartDevelopment:
		printSuccess(fmt.Sprintf("Development started: product #%d.", res.ProductID))
	case game.ActionLaunchProduct:
		printSuccess(fmt.Sprintf("Product #%d launched at quality %d.", res.ProductID, res.Quality))
	case game.ActionUpdateProduct:
		printSuccess(fmt.Sprintf("Product #%d updated: quality %d, staff %+d.", res.ProductID, res.Quality, res.StaffDelta))
	case game.ActionReduceProductStaff:
		printSuccess(fmt.Sprintf("Product #%d staff %+d.", res.ProductID, res.StaffDelta))
	default:
		printSuccess(fmt.Sprintf("%s done.", strings.ReplaceAll(string(res.Kind), "_", " ")))
	}
	if res.CostCents > 0 {
		fmt.Printf("Cost: %s  Cash: %s\n", formatCents(res.CostCents), formatCents(res.CashCents))
	}
}

func shortfall(n int64) string {
	if n <= 0 {
		return ""
	}
	return " " + danger.Sprintf("(short %s)", humanize.Comma(n))
}

func colorizeCents(v int64) string {
	text := formatCents(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(v/100), v%100)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
