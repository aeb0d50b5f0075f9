package game

import (
	"fmt"
	"strings"
)

type ActionKind string

const (
	ActionHireEmployees      ActionKind = "hire_employees"
	ActionAddServers         ActionKind = "add_servers"
	ActionSetMarketingBudget ActionKind = "set_marketing_budget"
	ActionStartDevelopment   ActionKind = "start_development"
	ActionLaunchProduct      ActionKind = "launch_product"
	ActionUpdateProduct      ActionKind = "update_product"
	ActionDeleteProduct      ActionKind = "delete_product"
	ActionReduceProductStaff ActionKind = "reduce_product_staff"
	ActionAcquireCompetitor  ActionKind = "acquire_competitor"
	ActionTogglePause        ActionKind = "toggle_pause"
	ActionSetSpeed           ActionKind = "set_speed"
)

// Action is one discrete player command. Only the fields its Kind needs
// are read.
type Action struct {
	Kind         ActionKind  `json:"kind"`
	Count        int64       `json:"count,omitempty"`
	AmountCents  int64       `json:"amount_cents,omitempty"`
	ProductType  ProductType `json:"product_type,omitempty"`
	Name         string      `json:"name,omitempty"`
	Allocation   Allocation  `json:"allocation"`
	ProductID    int64       `json:"product_id,omitempty"`
	Mode         UpdateMode  `json:"mode,omitempty"`
	CompetitorID int64       `json:"competitor_id,omitempty"`
	Speed        int         `json:"speed,omitempty"`
}

type ActionResult struct {
	Kind       ActionKind `json:"kind"`
	CostCents  int64      `json:"cost_cents"`
	CashCents  int64      `json:"cash_cents"`
	ProductID  int64      `json:"product_id,omitempty"`
	Quality    int        `json:"quality,omitempty"`
	StaffDelta int64      `json:"staff_delta,omitempty"`
	Paused     bool       `json:"paused"`
	Speed      int        `json:"speed"`
}

type updateSpec struct {
	qualityGain int
	staffPct    int64
}

var updateModes = map[UpdateMode]updateSpec{
	UpdateMaintain: {qualityGain: 0, staffPct: 30},
	UpdateMinor:    {qualityGain: 1, staffPct: 50},
	UpdateMajor:    {qualityGain: 2, staffPct: 80},
}

func ParseUpdateMode(raw string) (UpdateMode, error) {
	mode := UpdateMode(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := updateModes[mode]; !ok {
		return "", ErrInvalidUpdateMode
	}
	return mode, nil
}

// Apply runs one action against a copy of prev. On error prev is returned
// untouched, so every action is all-or-nothing.
func Apply(prev *State, p Params, rng Rand, a Action) (*State, ActionResult, error) {
	if prev == nil || !prev.Started {
		return prev, ActionResult{}, ErrGameNotStarted
	}
	st := prev.Clone()
	var (
		res ActionResult
		err error
	)
	switch a.Kind {
	case ActionHireEmployees:
		res, err = hireEmployees(st, p, a.Count)
	case ActionAddServers:
		res, err = addServers(st, p, a.Count)
	case ActionSetMarketingBudget:
		res = setMarketingBudget(st, a.AmountCents)
	case ActionStartDevelopment:
		res, err = startDevelopment(st, StartDevelopmentInput{Type: a.ProductType, Name: a.Name, Allocation: a.Allocation})
	case ActionLaunchProduct:
		res, err = launchProduct(st, p, rng, a.ProductID)
	case ActionUpdateProduct:
		res, err = updateProduct(st, a.ProductID, a.Mode)
	case ActionDeleteProduct:
		res, err = deleteProduct(st, a.ProductID)
	case ActionReduceProductStaff:
		res, err = reduceProductStaff(st, a.ProductID)
	case ActionAcquireCompetitor:
		res, err = acquireCompetitor(st, p, a.CompetitorID)
	case ActionTogglePause:
		st.Paused = !st.Paused
	case ActionSetSpeed:
		if !ValidSpeed(a.Speed) {
			err = ErrInvalidSpeed
		} else {
			st.Speed = a.Speed
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return prev, ActionResult{}, err
	}
	res.Kind = a.Kind
	res.CashCents = st.Company.CashCents
	res.Paused = st.Paused
	res.Speed = st.Speed
	return st, res, nil
}

func hireEmployees(st *State, p Params, count int64) (ActionResult, error) {
	if count <= 0 {
		return ActionResult{}, ErrInvalidCount
	}
	cost := count * p.Economy.EmployeeMonthlyCostCents
	if err := debit(&st.Company, cost); err != nil {
		return ActionResult{}, err
	}
	st.Company.Employees += count
	return ActionResult{CostCents: cost, StaffDelta: count}, nil
}

func addServers(st *State, p Params, count int64) (ActionResult, error) {
	if count <= 0 {
		return ActionResult{}, ErrInvalidCount
	}
	cost := count * p.Economy.ManualServerCostCents
	if err := debit(&st.Company, cost); err != nil {
		return ActionResult{}, err
	}
	st.Company.Servers += count
	return ActionResult{CostCents: cost}, nil
}

// setMarketingBudget always succeeds. The budget is paid during the tick.
func setMarketingBudget(st *State, amountCents int64) ActionResult {
	if amountCents < 0 {
		amountCents = 0
	}
	st.Company.MarketingBudgetCents = amountCents
	return ActionResult{}
}

// startDevelopment does not check that the allocation sums to 100; callers
// are expected to enforce that.
func startDevelopment(st *State, in StartDevelopmentInput) (ActionResult, error) {
	if _, err := productByType(in.Type); err != nil {
		return ActionResult{}, err
	}
	for _, v := range in.Allocation.values() {
		if v < 0 {
			return ActionResult{}, ErrInvalidAllocation
		}
	}
	if strings.TrimSpace(in.Name) != "" {
		if err := validateEntityName(in.Name); err != nil {
			return ActionResult{}, err
		}
	}
	id := st.allocateProductID()
	st.Company.Products = append(st.Company.Products, NewDevelopmentProduct(id, in.Type, in.Name, in.Allocation))
	return ActionResult{ProductID: id}, nil
}

func launchProduct(st *State, p Params, rng Rand, id int64) (ActionResult, error) {
	idx := st.Company.productIndex(id)
	if idx < 0 {
		return ActionResult{}, ErrProductNotFound
	}
	prod := &st.Company.Products[idx]
	if prod.Live() {
		return ActionResult{}, ErrAlreadyLaunched
	}
	if prod.Progress < 100 {
		return ActionResult{}, fmt.Errorf("%w (%.0f%%)", ErrDevelopmentIncomplete, prod.Progress)
	}
	quality := QualityFromAllocation(prod.Allocation, IdealAllocation(prod.Type))
	team := int64(randRange(rng, p.Development.LaunchTeamMin, p.Development.LaunchTeamMax))

	prod.Status = StatusLive
	prod.Progress = 100
	prod.Quality = quality
	prod.BaseQuality = quality
	prod.Users = 0
	prod.Employees = team
	prod.LaunchedAt = st.Date
	return ActionResult{ProductID: id, Quality: quality, StaffDelta: team}, nil
}

func updateProduct(st *State, id int64, mode UpdateMode) (ActionResult, error) {
	spec, ok := updateModes[mode]
	if !ok {
		return ActionResult{}, ErrInvalidUpdateMode
	}
	idx := st.Company.productIndex(id)
	if idx < 0 {
		return ActionResult{}, ErrProductNotFound
	}
	prod := &st.Company.Products[idx]
	if !prod.Live() {
		return ActionResult{}, ErrNotLive
	}
	staff := updateStaff(prod.Users, spec.staffPct)
	quality := clampQuality(prod.Quality + spec.qualityGain)

	prod.Quality = quality
	prod.BaseQuality = quality
	prod.Employees += staff
	prod.LastUpdatedAt = st.Date
	return ActionResult{ProductID: id, Quality: quality, StaffDelta: staff}, nil
}

// updateStaff is pct percent of the user-driven staff baseline, rounded up.
func updateStaff(users int64, pct int64) int64 {
	if users <= 0 {
		return 0
	}
	return ceilDiv(users*StaffPerUserBlock*pct, UsersPerStaffBlock*100)
}

func deleteProduct(st *State, id int64) (ActionResult, error) {
	idx := st.Company.productIndex(id)
	if idx < 0 {
		return ActionResult{}, ErrProductNotFound
	}
	removed := st.Company.Products[idx]
	st.Company.Products = append(st.Company.Products[:idx], st.Company.Products[idx+1:]...)
	return ActionResult{ProductID: id, StaffDelta: -removed.Employees}, nil
}

// reduceProductStaff halves dedicated staff but never below one.
func reduceProductStaff(st *State, id int64) (ActionResult, error) {
	idx := st.Company.productIndex(id)
	if idx < 0 {
		return ActionResult{}, ErrProductNotFound
	}
	prod := &st.Company.Products[idx]
	before := prod.Employees
	if prod.Employees > 1 {
		prod.Employees /= 2
		if prod.Employees < 1 {
			prod.Employees = 1
		}
	}
	return ActionResult{ProductID: id, StaffDelta: prod.Employees - before}, nil
}

func acquireCompetitor(st *State, p Params, competitorID int64) (ActionResult, error) {
	idx := st.competitorIndex(competitorID)
	if idx < 0 {
		return ActionResult{}, ErrCompetitorNotFound
	}
	target := st.Competitors[idx]
	price := target.ValuationCents * p.Economy.AcquisitionPriceMultiple
	if err := debit(&st.Company, price); err != nil {
		return ActionResult{}, err
	}
	st.Competitors = append(st.Competitors[:idx], st.Competitors[idx+1:]...)
	for _, prod := range target.Products {
		prod.Name = prod.Name + " (Acquired)"
		prod.Status = StatusLive
		prod.BaseQuality = prod.Quality
		prod.LastUpdatedAt = st.Date
		st.Company.Products = append(st.Company.Products, prod)
	}
	st.Company.Acquisitions = append(st.Company.Acquisitions, AcquisitionRecord{
		CompetitorID:   target.ID,
		Name:           target.Name,
		AcquiredAt:     st.Date,
		PriceCents:     price,
		ValuationCents: target.ValuationCents,
		ProductCount:   len(target.Products),
	})
	return ActionResult{CostCents: price}, nil
}

func debit(c *Company, cost int64) error {
	if c.CashCents < cost {
		return fmt.Errorf("%w: need %d cents, have %d", ErrInsufficientFunds, cost, c.CashCents)
	}
	c.CashCents -= cost
	return nil
}
