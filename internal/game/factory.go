package game

import (
	"fmt"
	mathrand "math/rand"
	"strings"
	"time"
)

// Rand is the randomness the engine consumes. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

func NewRand(seed int64) Rand {
	return mathrand.New(mathrand.NewSource(seed))
}

var rivalPrefixes = []string{
	"Apex", "Nexus", "Quantum", "Cyber", "Tech", "Digital", "Fusion", "Hyper", "Meta", "Cloud", "Pulse", "Nova", "Peak",
	"Byte", "Core", "Data", "Grid", "Smart", "Spark", "Stream", "Sync", "Vector", "Wave", "Net", "Algo",
}

var rivalSuffixes = []string{
	"Systems", "Technologies", "Solutions", "Innovations", "Labs", "Dynamics", "Platforms", "Networks", "Software", "AI",
	"Tech", "Connect", "Logic", "Nexus", "Hub", "Engine", "Drive", "Sphere", "Matrix", "Ware", "Bytes",
}

// NewGame builds a started, running game with a fresh roster of rivals.
func NewGame(companyName string, competitors int, p Params, rng Rand) (*State, error) {
	if err := validateEntityName(companyName); err != nil {
		return nil, err
	}
	if competitors < 0 {
		return nil, fmt.Errorf("%w: competitors must be >= 0", ErrInvalidInput)
	}
	st := &State{
		Started:        true,
		Speed:          1,
		Date:           p.Economy.StartDate,
		PotentialUsers: p.Market.InitialPotentialUsers,
		Company:        NewCompany(companyName, p),
		NextProductID:  1,
	}
	st.Competitors = GenerateCompetitors(st, p, rng, competitors)
	return st, nil
}

func NewCompany(name string, p Params) Company {
	return Company{
		Name:           strings.TrimSpace(name),
		FoundedAt:      p.Economy.StartDate,
		CashCents:      p.Economy.StartingCashCents,
		ValuationCents: p.Economy.InitialValuationCents,
		Products:       []Product{},
		Acquisitions:   []AcquisitionRecord{},
	}
}

func NewDevelopmentProduct(id int64, t ProductType, name string, alloc Allocation) Product {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DisplayName(t)
	}
	return Product{
		ID:         id,
		Type:       t,
		Name:       name,
		Status:     StatusInDevelopment,
		Allocation: alloc,
	}
}

func NewRivalProduct(id int64, rivalName string, t ProductType, quality int, users int64, launched time.Time) Product {
	q := clampQuality(quality)
	return Product{
		ID:          id,
		Type:        t,
		Name:        fmt.Sprintf("%s %s", rivalName, DisplayName(t)),
		Status:      StatusLive,
		Progress:    100,
		Allocation:  IdealAllocation(t),
		Quality:     q,
		BaseQuality: q,
		Users:       users,
		LaunchedAt:  launched,
	}
}

// GenerateCompetitors allocates product ids from st and returns count rivals.
func GenerateCompetitors(st *State, p Params, rng Rand, count int) []Competitor {
	r := p.Rivals
	out := make([]Competitor, 0, count)
	used := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		name := rivalName(rng, used, i)
		c := Competitor{
			ID:           int64(i + 1),
			Name:         name,
			FoundedAt:    st.Date,
			Acquisitions: []AcquisitionRecord{},
		}
		n := randRange(rng, r.InitialProductsMin, r.InitialProductsMax)
		for _, t := range pickTypes(rng, n, nil) {
			quality := randRange(rng, r.InitialQualityMin, r.InitialQualityMax)
			users := randRange64(rng, 0, r.InitialUsersMax)
			c.Products = append(c.Products, NewRivalProduct(st.allocateProductID(), name, t, quality, users, st.Date))
		}
		c.ValuationCents = rivalValuation(c.Products, p.Economy)
		out = append(out, c)
	}
	return out
}

func rivalName(rng Rand, used map[string]bool, seq int) string {
	var name string
	for attempt := 0; attempt < 8; attempt++ {
		name = rivalPrefixes[rng.Intn(len(rivalPrefixes))] + " " + rivalSuffixes[rng.Intn(len(rivalSuffixes))]
		if !used[name] {
			used[name] = true
			return name
		}
	}
	name = fmt.Sprintf("%s %d", name, seq+1)
	used[name] = true
	return name
}

// pickTypes draws up to n distinct product types that are not in held.
func pickTypes(rng Rand, n int, held map[ProductType]bool) []ProductType {
	pool := make([]ProductType, 0, len(productCatalog))
	for _, spec := range productCatalog {
		if !held[spec.Type] {
			pool = append(pool, spec.Type)
		}
	}
	out := make([]ProductType, 0, n)
	for len(out) < n && len(pool) > 0 {
		i := rng.Intn(len(pool))
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

// randRange is inclusive on both ends.
func randRange(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func randRange64(rng Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(rng.Intn(int(hi-lo+1)))
}
