package game

import (
	"math"
	"time"
)

// Monthly growth rate indexed by quality. Index 0 is the unranked rate.
var standardGrowth = [MaxQuality + 1]float64{
	-0.70, -0.65, -0.55, -0.35, -0.20, -0.02, 0.02, 0.18, 0.22, 0.28, 0.30,
}

// Past a billion users the market is saturated and growth flattens out.
var megaGrowth = [MaxQuality + 1]float64{
	-0.05, -0.04, -0.035, -0.03, -0.025, -0.02, -0.015, -0.01, -0.00583, 0, 0.00083,
}

func QualityFromAllocation(alloc, ideal Allocation) int {
	got := alloc.values()
	want := ideal.values()
	total := 0
	for i := range got {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		score := 100 - 2*diff
		if score < 0 {
			score = 0
		}
		total += score
	}
	avg := float64(total) / float64(len(got))
	return clampQuality(int(math.Round(avg / 10)))
}

func GrowthRate(quality int, mega bool) float64 {
	q := clampQuality(quality)
	if mega {
		return megaGrowth[q]
	}
	return standardGrowth[q]
}

func IsMegaScale(users int64) bool {
	return users >= MegaScaleUsers
}

// DegradedQuality loses QualityDegradationPerYear points per whole calendar
// year since ref. Staleness alone never takes quality below 1 and never
// raises it.
func DegradedQuality(base int, ref, now time.Time) int {
	years := wholeYears(ref, now)
	if years < 1 {
		return clampQuality(base)
	}
	q := base - QualityDegradationPerYear*years
	if q < StaleQualityFloor {
		q = StaleQualityFloor
	}
	if q > base {
		q = base
	}
	return clampQuality(q)
}

func RequiredStaffForUsers(users int64) int64 {
	if users <= 0 {
		return 0
	}
	return ceilDiv(users*StaffPerUserBlock, UsersPerStaffBlock)
}

func RequiredServers(users int64) int64 {
	if users <= 0 {
		return 0
	}
	return ceilDiv(users, UsersPerServer)
}

// RequiredEmployees is the headcount the company needs: the user-driven
// baseline over all live users plus every product's dedicated staff.
func RequiredEmployees(c Company) int64 {
	var users, dedicated int64
	for _, p := range c.Products {
		if p.Live() {
			users += p.Users
		}
		dedicated += p.Employees
	}
	return RequiredStaffForUsers(users) + dedicated
}

func requiredServersFor(products []Product) int64 {
	var total int64
	for _, p := range products {
		if p.Live() {
			total += RequiredServers(p.Users)
		}
	}
	return total
}

func liveStats(products []Product) (users int64, avgQuality float64, live int) {
	qualitySum := 0
	for _, p := range products {
		if !p.Live() {
			continue
		}
		users += p.Users
		qualitySum += p.Quality
		live++
	}
	if live > 0 {
		avgQuality = float64(qualitySum) / float64(live)
	}
	return users, avgQuality, live
}

// companyValuation never goes below zero even with negative cash.
func companyValuation(c Company, e EconomyParams) int64 {
	users, avgQ, _ := liveStats(c.Products)
	v := users*e.ValuationPerUserCents + c.CashCents*e.ValuationCashMultiple + roundCents(avgQ*float64(e.ValuationPerQualityPointCents))
	if v < 0 {
		return 0
	}
	return v
}

// rivalValuation has no cash term; rivals do not model cash.
func rivalValuation(products []Product, e EconomyParams) int64 {
	var users int64
	qualitySum := 0
	for _, p := range products {
		users += p.Users
		qualitySum += p.Quality
	}
	var avgQ float64
	if len(products) > 0 {
		avgQ = float64(qualitySum) / float64(len(products))
	}
	return users*e.ValuationPerUserCents + roundCents(avgQ*float64(e.ValuationPerQualityPointCents))
}

func grownUsers(users int64, quality int) int64 {
	rate := GrowthRate(quality, IsMegaScale(users))
	next := int64(math.Floor(float64(users) * (1 + rate)))
	if next < 0 {
		return 0
	}
	return next
}

func shareCap(potential int64, share float64) int64 {
	return int64(math.Floor(float64(potential) * share))
}

func clampUsers(users, max int64) int64 {
	if users < 0 {
		return 0
	}
	if users > max {
		return max
	}
	return users
}

func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func wholeYears(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	years := to.Year() - from.Year()
	if from.AddDate(years, 0, 0).After(to) {
		years--
	}
	return years
}
