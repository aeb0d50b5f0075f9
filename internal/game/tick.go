package game

import "math"

// Tick advances the game by one month. prev is never modified; a paused or
// unstarted game comes back as an identical copy with Skipped set.
func Tick(prev *State, p Params, rng Rand) (*State, TickReport) {
	st := prev.Clone()
	if st == nil {
		return nil, TickReport{Skipped: true}
	}
	if !st.Started || st.Paused {
		return st, TickReport{Skipped: true, Date: st.Date}
	}

	st.Date = st.Date.AddDate(0, 1, 0)
	report := TickReport{Date: st.Date}

	st.PotentialUsers += p.Market.MonthlyPotentialGrowth
	if st.PotentialUsers > p.Market.MaxPotentialUsers {
		st.PotentialUsers = p.Market.MaxPotentialUsers
	}

	c := &st.Company
	for i := range c.Products {
		prod := &c.Products[i]
		if prod.Live() {
			continue
		}
		prod.Progress = math.Min(100, prod.Progress+p.Development.ProgressMin+rng.Float64()*p.Development.ProgressSpread)
	}

	startUsers, _, _ := liveStats(c.Products)
	costPerUser := marketingCostPerUser(st, startUsers, p.Market)
	userCap := shareCap(st.PotentialUsers, p.Market.PlayerShareCap)
	for i := range c.Products {
		prod := &c.Products[i]
		if !prod.Live() {
			continue
		}
		prod.Quality = DegradedQuality(prod.BaseQuality, prod.staleSince(), st.Date)
		users := grownUsers(prod.Users, prod.Quality)
		if c.MarketingBudgetCents > 0 && costPerUser > 0 {
			users += c.MarketingBudgetCents / costPerUser
		}
		prod.Users = clampUsers(users, userCap)
	}

	e := p.Economy
	users, _, _ := liveStats(c.Products)
	servers := requiredServersFor(c.Products)
	report.IncomeCents = users * e.RevenuePerUserCents
	report.EmployeeCostCents = c.Employees * e.EmployeeMonthlyCostCents
	report.ServerCostCents = servers * e.ServerMonthlyCostCents
	report.MarketingCostCents = c.MarketingBudgetCents
	preTax := report.EmployeeCostCents + report.ServerCostCents + report.MarketingCostCents
	report.ProfitBeforeTaxCents = report.IncomeCents - preTax
	if report.ProfitBeforeTaxCents > 0 {
		report.TaxCents = roundCents(float64(report.ProfitBeforeTaxCents) * e.TaxRate)
	}
	report.ExpensesCents = preTax + report.TaxCents

	c.CashCents += report.IncomeCents - report.ExpensesCents
	c.ValuationCents = companyValuation(*c, e)
	c.Servers = servers
	c.MonthlyIncomeCents = report.IncomeCents
	c.MonthlyExpensesCents = report.ExpensesCents
	c.MonthlyTaxCents = report.TaxCents
	c.TaxesPaidCents += report.TaxCents

	report.RequiredServers = servers
	report.RequiredEmployees = RequiredEmployees(*c)
	if short := report.RequiredEmployees - c.Employees; short > 0 {
		report.EmployeeShortfall = short
	}

	advanceRivals(st, p, rng, &report)
	st.Ticks++
	return st, report
}

// marketingCostPerUser returns 0 when marketing cannot buy any users.
func marketingCostPerUser(st *State, companyUsers int64, m MarketParams) int64 {
	if m.MarketingModel == MarketingModelSaturation {
		active := companyUsers
		for _, c := range st.Competitors {
			for _, prod := range c.Products {
				active += prod.Users
			}
		}
		if st.PotentialUsers <= 0 {
			return 0
		}
		ratio := float64(active) / float64(st.PotentialUsers)
		if ratio >= 1 {
			return 0
		}
		return roundCents(float64(m.MarketingCostPerUserCents) / (1 - ratio))
	}
	if companyUsers > m.MarketingSaturationUsers {
		return m.SaturatedMarketingCostPerUserCents
	}
	return m.MarketingCostPerUserCents
}
