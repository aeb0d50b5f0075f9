package game

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// advanceRivals runs the acquisition pass and then organic behavior for
// every rival still standing.
func advanceRivals(st *State, p Params, rng Rand, report *TickReport) {
	plans := planRivalAcquisitions(st.Competitors, p, rng)
	st.Competitors = applyRivalAcquisitions(st.Competitors, plans, st.Date)
	report.RivalAcquisitions = plans

	userCap := shareCap(st.PotentialUsers, p.Market.RivalShareCap)
	for i := range st.Competitors {
		if evolveRival(&st.Competitors[i], st, userCap, p, rng) {
			report.RivalLaunches++
		}
	}
}

// planRivalAcquisitions decides every acquisition for this tick against a
// frozen ranking of the roster. Nothing is mutated here.
func planRivalAcquisitions(roster []Competitor, p Params, rng Rand) []RivalAcquisition {
	n := len(roster)
	if n < 2 {
		return nil
	}
	r := p.Rivals
	ranked := make([]Competitor, n)
	copy(ranked, roster)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ValuationCents != ranked[j].ValuationCents {
			return ranked[i].ValuationCents > ranked[j].ValuationCents
		}
		return ranked[i].ID < ranked[j].ID
	})

	acquirers := int(math.Floor(float64(n) * r.AcquirerShare))
	if acquirers < 1 {
		acquirers = 1
	}
	bottom := int(math.Floor(float64(n) * (1 - r.TargetShare)))
	if bottom >= n {
		bottom = n - 1
	}
	if bottom < 0 {
		bottom = 0
	}

	removed := make(map[int64]bool)
	buyers := make(map[int64]bool)
	var plans []RivalAcquisition
	for rank := 0; rank < acquirers && rank < n; rank++ {
		acq := ranked[rank]
		if removed[acq.ID] {
			continue
		}
		if rng.Float64() >= r.AcquisitionChance {
			continue
		}
		target := ranked[bottom+rng.Intn(n-bottom)]
		if target.ID == acq.ID || removed[target.ID] || buyers[target.ID] {
			continue
		}
		price := target.ValuationCents * p.Economy.AcquisitionPriceMultiple
		if acq.ValuationCents < r.SolvencyMultiple*price {
			continue
		}
		removed[target.ID] = true
		buyers[acq.ID] = true
		plans = append(plans, RivalAcquisition{
			AcquirerID:   acq.ID,
			AcquirerName: acq.Name,
			TargetID:     target.ID,
			TargetName:   target.Name,
			PriceCents:   price,
		})
	}
	return plans
}

// applyRivalAcquisitions applies a batch of plans. The roster keeps its
// original order minus the acquired companies.
func applyRivalAcquisitions(roster []Competitor, plans []RivalAcquisition, date time.Time) []Competitor {
	if len(plans) == 0 {
		return roster
	}
	byID := make(map[int64]int, len(roster))
	for i := range roster {
		byID[roster[i].ID] = i
	}
	gone := make(map[int64]bool, len(plans))
	for _, plan := range plans {
		ai, ok := byID[plan.AcquirerID]
		if !ok {
			continue
		}
		ti, ok := byID[plan.TargetID]
		if !ok {
			continue
		}
		acquirer := &roster[ai]
		target := roster[ti]
		for _, prod := range target.Products {
			prod.Name = fmt.Sprintf("%s (Acquired by %s)", prod.Name, acquirer.Name)
			acquirer.Products = append(acquirer.Products, prod)
		}
		acquirer.Acquisitions = append(acquirer.Acquisitions, AcquisitionRecord{
			CompetitorID:   target.ID,
			Name:           target.Name,
			AcquiredAt:     date,
			PriceCents:     plan.PriceCents,
			ValuationCents: target.ValuationCents,
			ProductCount:   len(target.Products),
		})
		gone[target.ID] = true
	}
	out := make([]Competitor, 0, len(roster)-len(gone))
	for _, c := range roster {
		if !gone[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// evolveRival applies quality drift, growth and the occasional new product
// launch. It reports whether a product was launched.
func evolveRival(c *Competitor, st *State, userCap int64, p Params, rng Rand) bool {
	r := p.Rivals
	for i := range c.Products {
		prod := &c.Products[i]
		if rng.Float64() < r.ImproveChance {
			prod.Quality = clampQuality(prod.Quality + 1)
		} else if rng.Float64() < r.DegradeChance && prod.Quality > 1 {
			prod.Quality--
		}
		prod.BaseQuality = prod.Quality
		prod.Users = clampUsers(grownUsers(prod.Users, prod.Quality), userCap)
	}

	launched := false
	if rng.Float64() < r.NewProductChance {
		held := make(map[ProductType]bool, len(c.Products))
		for _, prod := range c.Products {
			held[prod.Type] = true
		}
		if types := pickTypes(rng, 1, held); len(types) == 1 {
			quality := randRange(rng, r.NewProductQualityMin, r.NewProductQualityMax)
			users := clampUsers(randRange64(rng, 0, r.NewProductUsersMax), userCap)
			c.Products = append(c.Products, NewRivalProduct(st.allocateProductID(), c.Name, types[0], quality, users, st.Date))
			launched = true
		}
	}
	c.ValuationCents = rivalValuation(c.Products, p.Economy)
	return launched
}
