package game

import (
	"errors"
	"strings"
	"testing"
)

// scriptedRand replays fixed values. Once a script runs out Float64
// returns 0.999 (no random event fires) and Intn returns 0.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.999
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}

func newTestGame(t *testing.T) *State {
	t.Helper()
	st, err := NewGame("Acme Labs", 0, DefaultParams(), &scriptedRand{})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return st
}

func TestNewGame(t *testing.T) {
	p := DefaultParams()
	st, err := NewGame("  Acme Labs ", 50, p, NewRand(7))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if !st.Started || st.Paused || st.Speed != 1 {
		t.Fatalf("unexpected run state: started=%v paused=%v speed=%d", st.Started, st.Paused, st.Speed)
	}
	if !st.Date.Equal(DefaultStartDate) {
		t.Fatalf("start date: got %v", st.Date)
	}
	if st.Company.Name != "Acme Labs" {
		t.Fatalf("company name not trimmed: %q", st.Company.Name)
	}
	if st.Company.CashCents != StartingCashCents || st.Company.ValuationCents != InitialValuationCents {
		t.Fatalf("unexpected starting money: cash=%d valuation=%d", st.Company.CashCents, st.Company.ValuationCents)
	}
	if st.PotentialUsers != InitialPotentialUsers {
		t.Fatalf("potential users: got %d", st.PotentialUsers)
	}
	if len(st.Competitors) != 50 {
		t.Fatalf("expected 50 competitors, got %d", len(st.Competitors))
	}

	seen := make(map[int64]bool)
	for _, c := range st.Competitors {
		if len(c.Products) < 1 || len(c.Products) > 3 {
			t.Fatalf("%s has %d products", c.Name, len(c.Products))
		}
		types := make(map[ProductType]bool)
		for _, prod := range c.Products {
			if seen[prod.ID] {
				t.Fatalf("duplicate product id %d", prod.ID)
			}
			seen[prod.ID] = true
			if types[prod.Type] {
				t.Fatalf("%s holds %s twice", c.Name, prod.Type)
			}
			types[prod.Type] = true
			if prod.Quality < 1 || prod.Quality > 6 {
				t.Fatalf("initial quality %d out of range", prod.Quality)
			}
			if prod.Users < 0 || prod.Users > 1_000_000 {
				t.Fatalf("initial users %d out of range", prod.Users)
			}
			if !prod.Live() || !strings.HasPrefix(prod.Name, c.Name+" ") {
				t.Fatalf("unexpected rival product %+v", prod)
			}
		}
		if c.ValuationCents != rivalValuation(c.Products, p.Economy) {
			t.Fatalf("%s valuation %d does not match formula", c.Name, c.ValuationCents)
		}
	}
	if st.NextProductID != int64(len(seen))+1 {
		t.Fatalf("next product id %d after %d products", st.NextProductID, len(seen))
	}
}

func TestNewGameRejectsBadInput(t *testing.T) {
	if _, err := NewGame("", 0, DefaultParams(), NewRand(1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}
	if _, err := NewGame("Acme", -1, DefaultParams(), NewRand(1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative count, got %v", err)
	}
}

func TestNewGameAcceptsOrdinaryNames(t *testing.T) {
	for _, name := range []string{"Badminton Gear", "Sysadmin Tools"} {
		st, err := NewGame(name, 0, DefaultParams(), NewRand(1))
		if err != nil {
			t.Fatalf("NewGame(%q): %v", name, err)
		}
		if st.Company.Name != name {
			t.Fatalf("company name: got %q want %q", st.Company.Name, name)
		}
	}
}

func TestRivalNamesAreUnique(t *testing.T) {
	st := &State{Date: DefaultStartDate, NextProductID: 1}
	roster := GenerateCompetitors(st, DefaultParams(), NewRand(3), 600)
	names := make(map[string]bool, len(roster))
	for _, c := range roster {
		if names[c.Name] {
			t.Fatalf("duplicate rival name %q", c.Name)
		}
		names[c.Name] = true
	}
}

func TestNewDevelopmentProductDefaultsName(t *testing.T) {
	prod := NewDevelopmentProduct(4, ProductCloud, "  ", Allocation{Backend: 100})
	if prod.Name != "Cloud Platform" {
		t.Fatalf("expected display name fallback, got %q", prod.Name)
	}
	if prod.Status != StatusInDevelopment || prod.Progress != 0 || prod.Users != 0 {
		t.Fatalf("unexpected new product %+v", prod)
	}
}

func TestPickTypesSkipsHeld(t *testing.T) {
	held := make(map[ProductType]bool)
	for _, spec := range productCatalog[1:] {
		held[spec.Type] = true
	}
	got := pickTypes(NewRand(9), 3, held)
	if len(got) != 1 || got[0] != productCatalog[0].Type {
		t.Fatalf("expected only %s, got %v", productCatalog[0].Type, got)
	}
	held[productCatalog[0].Type] = true
	if got := pickTypes(NewRand(9), 1, held); len(got) != 0 {
		t.Fatalf("expected no types left, got %v", got)
	}
}
