package game

import (
	"errors"
	"sync"
	"testing"
)

func TestServiceDevelopLaunchAndGrow(t *testing.T) {
	svc := NewService(DefaultParams(), &scriptedRand{}, nil)
	if _, err := svc.StartGame("Acme Labs", 0); err != nil {
		t.Fatalf("start game: %v", err)
	}

	id, err := svc.StartProductDevelopment(StartDevelopmentInput{Type: ProductSearch, Name: "Finder", Allocation: IdealAllocation(ProductSearch)})
	if err != nil {
		t.Fatalf("start development: %v", err)
	}
	if err := svc.LaunchProduct(id); !errors.Is(err, ErrDevelopmentIncomplete) {
		t.Fatalf("expected incomplete development, got %v", err)
	}

	ticks := 0
	for svc.LaunchProduct(id) != nil {
		svc.Tick()
		ticks++
		if ticks > 20 {
			t.Fatalf("development never finished")
		}
	}
	if ticks != 7 {
		t.Fatalf("expected 7 ticks of development at max roll, got %d", ticks)
	}

	dash := svc.Dashboard()
	if dash.LiveProducts != 1 || dash.InDevelopment != 0 {
		t.Fatalf("live=%d dev=%d", dash.LiveProducts, dash.InDevelopment)
	}
	if q := dash.Products[0].Quality; q != 10 {
		t.Fatalf("perfect allocation launched at quality %d", q)
	}
	if dash.EmployeeShortfall != dash.Products[0].Employees {
		t.Fatalf("shortfall %d should equal launch team %d", dash.EmployeeShortfall, dash.Products[0].Employees)
	}

	if err := svc.HireEmployees(dash.EmployeeShortfall); err != nil {
		t.Fatalf("hire: %v", err)
	}
	if err := svc.SetMarketingBudget(1_000 * CentsPerDollar); err != nil {
		t.Fatalf("marketing: %v", err)
	}
	svc.Tick()
	if users := svc.Dashboard().TotalUsers; users != 200 {
		t.Fatalf("marketing should bring 200 users, got %d", users)
	}
}

func TestServicePauseAndSpeed(t *testing.T) {
	svc := NewService(DefaultParams(), &scriptedRand{}, nil)
	if _, err := svc.StartGame("Acme Labs", 0); err != nil {
		t.Fatalf("start game: %v", err)
	}
	date := svc.Snapshot().Date

	paused, err := svc.TogglePause()
	if err != nil || !paused {
		t.Fatalf("toggle pause: paused=%v err=%v", paused, err)
	}
	_, report := svc.Tick()
	if !report.Skipped || !svc.Snapshot().Date.Equal(date) {
		t.Fatalf("paused game advanced")
	}
	if paused, _ := svc.TogglePause(); paused {
		t.Fatalf("expected running after second toggle")
	}

	if err := svc.SetSpeed(2); err != nil || svc.Speed() != 2 {
		t.Fatalf("set speed: %v speed=%d", err, svc.Speed())
	}
	if err := svc.SetSpeed(5); !errors.Is(err, ErrInvalidSpeed) {
		t.Fatalf("expected invalid speed, got %v", err)
	}
	if svc.Speed() != 2 {
		t.Fatalf("failed speed change altered speed to %d", svc.Speed())
	}
}

func TestServiceBeforeStart(t *testing.T) {
	svc := NewService(DefaultParams(), nil, nil)
	if svc.Snapshot() != nil {
		t.Fatalf("expected nil snapshot before start")
	}
	if _, report := svc.Tick(); !report.Skipped {
		t.Fatalf("tick before start should be skipped")
	}
	if err := svc.HireEmployees(1); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("expected game not started, got %v", err)
	}
	if got := svc.Competitors(); len(got) != 0 {
		t.Fatalf("expected no competitors")
	}
}

func TestServiceSnapshotIsIsolated(t *testing.T) {
	svc := NewService(DefaultParams(), NewRand(3), nil)
	if _, err := svc.StartGame("Acme Labs", 5); err != nil {
		t.Fatalf("start game: %v", err)
	}
	snap := svc.Snapshot()
	snap.Company.CashCents = 0
	snap.Competitors[0].Name = "changed"

	again := svc.Snapshot()
	if again.Company.CashCents != StartingCashCents || again.Competitors[0].Name == "changed" {
		t.Fatalf("snapshot shares memory with the service")
	}

	svc.Restore(snap)
	if svc.Snapshot().Company.CashCents != 0 {
		t.Fatalf("restore did not replace state")
	}
}

func TestServiceConcurrentUse(t *testing.T) {
	svc := NewService(DefaultParams(), NewRand(9), nil)
	if _, err := svc.StartGame("Acme Labs", 30); err != nil {
		t.Fatalf("start game: %v", err)
	}
	rich := svc.Snapshot()
	rich.Company.CashCents = 1_000_000_000 * CentsPerDollar
	svc.Restore(rich)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				svc.Tick()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_ = svc.HireEmployees(1)
				_ = svc.Dashboard()
			}
		}()
	}
	wg.Wait()

	snap := svc.Snapshot()
	if snap.Ticks != 100 {
		t.Fatalf("expected 100 ticks, got %d", snap.Ticks)
	}
	if snap.Company.Employees != 20 {
		t.Fatalf("expected 20 hires, got %d", snap.Company.Employees)
	}
}

func TestBuildCompetitorViews(t *testing.T) {
	roster := []Competitor{
		{ID: 1, Name: "Small", ValuationCents: 10, Products: []Product{{Users: 5, Quality: 2}}},
		{ID: 2, Name: "Big", ValuationCents: 500, Products: []Product{{Users: 10, Quality: 4}, {Users: 20, Quality: 6}}},
	}
	views := BuildCompetitorViews(roster, DefaultParams().Economy)
	if views[0].ID != 2 || views[1].ID != 1 {
		t.Fatalf("views not sorted by valuation: %+v", views)
	}
	if views[0].PriceCents != 1_000 || views[0].TotalUsers != 30 || views[0].AvgQuality != 5 || views[0].ProductCount != 2 {
		t.Fatalf("unexpected view %+v", views[0])
	}
}
