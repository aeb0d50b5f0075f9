package game

import (
	"reflect"
	"testing"
)

func liveProduct(st *State, quality int, users int64) *Product {
	prod := Product{
		ID:          st.allocateProductID(),
		Type:        ProductSearch,
		Name:        "Finder",
		Status:      StatusLive,
		Progress:    100,
		Quality:     quality,
		BaseQuality: quality,
		Users:       users,
		LaunchedAt:  st.Date,
	}
	st.Company.Products = append(st.Company.Products, prod)
	return &st.Company.Products[len(st.Company.Products)-1]
}

func TestTickPausedIsNoOp(t *testing.T) {
	st := newTestGame(t)
	liveProduct(st, 10, 500_000)
	st.Paused = true

	next, report := Tick(st, DefaultParams(), &scriptedRand{})
	if !report.Skipped {
		t.Fatalf("expected skipped report")
	}
	if !reflect.DeepEqual(st, next) {
		t.Fatalf("paused tick changed state")
	}
	if next == st {
		t.Fatalf("expected a copy, got the same pointer")
	}
}

func TestTickDoesNotMutateInput(t *testing.T) {
	st := newTestGame(t)
	liveProduct(st, 10, 500_000)
	before := st.Clone()

	next, _ := Tick(st, DefaultParams(), &scriptedRand{})
	if !reflect.DeepEqual(st, before) {
		t.Fatalf("tick mutated its input")
	}
	if next.Company.Products[0].Users == st.Company.Products[0].Users {
		t.Fatalf("expected the new state to differ")
	}
}

func TestTickAdvancesClockAndMarket(t *testing.T) {
	p := DefaultParams()
	st := newTestGame(t)

	next, report := Tick(st, p, &scriptedRand{})
	if next.Date.Year() != 2004 || next.Date.Month() != 2 || next.Date.Day() != 1 {
		t.Fatalf("expected 2004-02-01, got %v", next.Date)
	}
	if !report.Date.Equal(next.Date) {
		t.Fatalf("report date %v differs from state %v", report.Date, next.Date)
	}
	if next.PotentialUsers != InitialPotentialUsers+MonthlyPotentialGrowth {
		t.Fatalf("potential users: got %d", next.PotentialUsers)
	}
	if next.Ticks != 1 {
		t.Fatalf("ticks: got %d", next.Ticks)
	}

	st.PotentialUsers = MaxPotentialUsers - 1
	next, _ = Tick(st, p, &scriptedRand{})
	if next.PotentialUsers != MaxPotentialUsers {
		t.Fatalf("potential users should cap at %d, got %d", MaxPotentialUsers, next.PotentialUsers)
	}
}

func TestTickGrowthAndFinancials(t *testing.T) {
	p := DefaultParams()
	st := newTestGame(t)
	liveProduct(st, 10, 500_000)

	next, report := Tick(st, p, &scriptedRand{})
	c := next.Company
	if c.Products[0].Users != 650_000 {
		t.Fatalf("users: got %d want 650000", c.Products[0].Users)
	}
	if report.IncomeCents != 650_000*RevenuePerUserCents {
		t.Fatalf("income: got %d", report.IncomeCents)
	}
	if report.RequiredServers != 2167 || c.Servers != 2167 {
		t.Fatalf("servers: report=%d company=%d", report.RequiredServers, c.Servers)
	}
	if report.ServerCostCents != 2167*ServerMonthlyCostCents {
		t.Fatalf("server cost: got %d", report.ServerCostCents)
	}
	if report.ProfitBeforeTaxCents <= 0 {
		t.Fatalf("expected profit, got %d", report.ProfitBeforeTaxCents)
	}
	if report.TaxCents != roundCents(float64(report.ProfitBeforeTaxCents)*TaxRate) {
		t.Fatalf("tax: got %d for profit %d", report.TaxCents, report.ProfitBeforeTaxCents)
	}
	if report.ExpensesCents != report.ServerCostCents+report.TaxCents {
		t.Fatalf("expenses: got %d", report.ExpensesCents)
	}
	if c.CashCents != StartingCashCents+report.IncomeCents-report.ExpensesCents {
		t.Fatalf("cash: got %d", c.CashCents)
	}
	if c.MonthlyTaxCents != report.TaxCents || c.TaxesPaidCents != report.TaxCents {
		t.Fatalf("tax bookkeeping: monthly=%d paid=%d", c.MonthlyTaxCents, c.TaxesPaidCents)
	}
	if c.ValuationCents != companyValuation(c, p.Economy) {
		t.Fatalf("valuation not recomputed")
	}
}

func TestTickMegaScaleIsFlat(t *testing.T) {
	st := newTestGame(t)
	liveProduct(st, 9, 1_200_000_000)

	next, _ := Tick(st, DefaultParams(), &scriptedRand{})
	if got := next.Company.Products[0].Users; got != 1_200_000_000 {
		t.Fatalf("mega-scale quality 9 should be flat, got %d", got)
	}
}

func TestTickMarketShareCap(t *testing.T) {
	st := newTestGame(t)
	liveProduct(st, 10, 3_000_000_000)

	next, _ := Tick(st, DefaultParams(), &scriptedRand{})
	want := shareCap(next.PotentialUsers, PlayerMarketShareCap)
	if got := next.Company.Products[0].Users; got != want {
		t.Fatalf("users should be capped at %d, got %d", want, got)
	}
}

func TestTickNoTaxOnLoss(t *testing.T) {
	st := newTestGame(t)
	st.Company.Employees = 10

	next, report := Tick(st, DefaultParams(), &scriptedRand{})
	if report.TaxCents != 0 {
		t.Fatalf("tax charged on a loss: %d", report.TaxCents)
	}
	if report.ProfitBeforeTaxCents != -10*EmployeeMonthlyCostCents {
		t.Fatalf("profit: got %d", report.ProfitBeforeTaxCents)
	}
	if next.Company.CashCents != StartingCashCents-10*EmployeeMonthlyCostCents {
		t.Fatalf("cash: got %d", next.Company.CashCents)
	}
	if next.Company.Employees != 10 {
		t.Fatalf("engine changed headcount to %d", next.Company.Employees)
	}
}

func TestTickCashCanGoNegative(t *testing.T) {
	st := newTestGame(t)
	st.Company.CashCents = 0
	st.Company.Employees = 50

	next, _ := Tick(st, DefaultParams(), &scriptedRand{})
	if next.Company.CashCents >= 0 {
		t.Fatalf("expected negative cash, got %d", next.Company.CashCents)
	}
	if next.Company.ValuationCents != 0 {
		t.Fatalf("valuation should floor at zero, got %d", next.Company.ValuationCents)
	}
}

func TestTickDevelopmentProgress(t *testing.T) {
	st := newTestGame(t)
	st.Company.Products = append(st.Company.Products,
		NewDevelopmentProduct(st.allocateProductID(), ProductSearch, "Finder", IdealAllocation(ProductSearch)),
		NewDevelopmentProduct(st.allocateProductID(), ProductVideo, "Tube", IdealAllocation(ProductVideo)),
	)
	st.Company.Products[1].Progress = 95

	next, _ := Tick(st, DefaultParams(), &scriptedRand{floats: []float64{0.5, 0.99}})
	if got := next.Company.Products[0].Progress; got != 10 {
		t.Fatalf("progress: got %v want 10", got)
	}
	if got := next.Company.Products[1].Progress; got != 100 {
		t.Fatalf("progress should cap at 100, got %v", got)
	}
	for _, prod := range next.Company.Products {
		if prod.Live() {
			t.Fatalf("tick must not launch products")
		}
	}
}

func TestTickMarketingThreshold(t *testing.T) {
	p := DefaultParams()

	st := newTestGame(t)
	liveProduct(st, 6, 1_000)
	st.Company.MarketingBudgetCents = 5_000 * CentsPerDollar
	next, report := Tick(st, p, &scriptedRand{})
	if got := next.Company.Products[0].Users; got != 1_020+1_000 {
		t.Fatalf("small company marketing: got %d users", got)
	}
	if report.MarketingCostCents != st.Company.MarketingBudgetCents {
		t.Fatalf("marketing cost: got %d", report.MarketingCostCents)
	}

	st = newTestGame(t)
	liveProduct(st, 6, 200_000_000)
	st.Company.MarketingBudgetCents = 5_000 * CentsPerDollar
	next, _ = Tick(st, p, &scriptedRand{})
	if got := next.Company.Products[0].Users; got != 204_000_000+250 {
		t.Fatalf("large company marketing: got %d users", got)
	}
}

func TestTickMarketingSaturation(t *testing.T) {
	p := DefaultParams()
	p.Market.MarketingModel = MarketingModelSaturation

	st := newTestGame(t)
	liveProduct(st, 6, 0)
	st.Company.MarketingBudgetCents = 5_000 * CentsPerDollar
	next, _ := Tick(st, p, &scriptedRand{})
	if got := next.Company.Products[0].Users; got != 1_000 {
		t.Fatalf("empty market should buy users at base cost, got %d", got)
	}

	st = newTestGame(t)
	liveProduct(st, 6, 0)
	st.Company.MarketingBudgetCents = 5_000 * CentsPerDollar
	st.Competitors = []Competitor{{ID: 1, Name: "Nova Labs", Products: []Product{{Status: StatusLive, Users: st.PotentialUsers}}}}
	if got := marketingCostPerUser(st, 0, p.Market); got != 0 {
		t.Fatalf("saturated market should disable marketing, got cost %d", got)
	}
}

func TestTickAutoScalesServersAndReportsShortfall(t *testing.T) {
	st := newTestGame(t)
	prod := liveProduct(st, 6, 30_000)
	prod.Employees = 5
	st.Company.Servers = 999

	next, report := Tick(st, DefaultParams(), &scriptedRand{})
	if next.Company.Servers != 102 {
		t.Fatalf("servers: got %d want 102", next.Company.Servers)
	}
	if report.RequiredEmployees != 21 || report.EmployeeShortfall != 21 {
		t.Fatalf("required=%d shortfall=%d", report.RequiredEmployees, report.EmployeeShortfall)
	}
	if next.Company.Employees != 0 {
		t.Fatalf("engine must not hire, employees=%d", next.Company.Employees)
	}
}

func TestTickQualityDegradesYearly(t *testing.T) {
	p := DefaultParams()
	st := newTestGame(t)
	liveProduct(st, 8, 0)

	rng := NewRand(1)
	for i := 0; i < 11; i++ {
		st, _ = Tick(st, p, rng)
	}
	if q := st.Company.Products[0].Quality; q != 8 {
		t.Fatalf("quality after 11 months: got %d want 8", q)
	}
	st, _ = Tick(st, p, rng)
	if q := st.Company.Products[0].Quality; q != 6 {
		t.Fatalf("quality after 12 months: got %d want 6", q)
	}
	for i := 0; i < 12; i++ {
		st, _ = Tick(st, p, rng)
	}
	if q := st.Company.Products[0].Quality; q != 4 {
		t.Fatalf("quality after 24 months: got %d want 4", q)
	}
}

func TestTickInvariants(t *testing.T) {
	p := DefaultParams()
	rng := NewRand(11)
	st, err := NewGame("Acme Labs", 40, p, rng)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	liveProduct(st, 9, 2_000_000)
	st.Company.MarketingBudgetCents = 100_000 * CentsPerDollar

	for i := 0; i < 120; i++ {
		prevPotential := st.PotentialUsers
		prevRoster := len(st.Competitors)
		st, _ = Tick(st, p, rng)
		if st.PotentialUsers < prevPotential || st.PotentialUsers > MaxPotentialUsers {
			t.Fatalf("tick %d: potential users %d", i, st.PotentialUsers)
		}
		if len(st.Competitors) > prevRoster {
			t.Fatalf("tick %d: roster grew from %d to %d", i, prevRoster, len(st.Competitors))
		}
		playerCap := shareCap(st.PotentialUsers, PlayerMarketShareCap)
		for _, prod := range st.Company.Products {
			if prod.Users < 0 || prod.Users > playerCap || prod.Quality < 0 || prod.Quality > MaxQuality {
				t.Fatalf("tick %d: player product out of bounds %+v", i, prod)
			}
		}
		rivalCap := shareCap(st.PotentialUsers, RivalMarketShareCap)
		for _, c := range st.Competitors {
			for _, prod := range c.Products {
				if prod.Users < 0 || prod.Users > rivalCap || prod.Quality < 0 || prod.Quality > MaxQuality {
					t.Fatalf("tick %d: rival product out of bounds %+v", i, prod)
				}
			}
		}
		if st.Company.MarketingBudgetCents < 0 || st.Company.Servers < 0 || st.Company.Employees < 0 {
			t.Fatalf("tick %d: negative company counters", i)
		}
	}
}
