package game

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Service owns one game. Every tick and action runs under mu and swaps in
// a new State, so readers never see a half-applied change.
type Service struct {
	mu     sync.Mutex
	log    *slog.Logger
	params Params
	rand   Rand
	state  *State
}

func NewService(params Params, rng Rand, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = NewRand(time.Now().UnixNano())
	}
	return &Service{
		log:    logger,
		params: params,
		rand:   rng,
	}
}

func (s *Service) Params() Params {
	return s.params
}

func (s *Service) StartGame(companyName string, competitors int) (DashboardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := NewGame(companyName, competitors, s.params, s.rand)
	if err != nil {
		return DashboardView{}, err
	}
	s.state = st
	s.log.Info("game started", "company", st.Company.Name, "competitors", len(st.Competitors))
	return BuildDashboard(st), nil
}

// Restore replaces the current game with a saved snapshot.
func (s *Service) Restore(st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st.Clone()
}

func (s *Service) Tick() (*State, TickReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, report := Tick(s.state, s.params, s.rand)
	s.state = next
	if report.Skipped {
		return next.Clone(), report
	}
	for _, acq := range report.RivalAcquisitions {
		s.log.Info("rival acquisition",
			"date", report.Date.Format("2006-01"),
			"acquirer", acq.AcquirerName,
			"target", acq.TargetName,
			"price_cents", acq.PriceCents,
		)
	}
	s.log.Debug("tick",
		"date", report.Date.Format("2006-01"),
		"cash_cents", next.Company.CashCents,
		"income_cents", report.IncomeCents,
		"expenses_cents", report.ExpensesCents,
		"employee_shortfall", report.EmployeeShortfall,
		"competitors", len(next.Competitors),
	)
	return next.Clone(), report
}

func (s *Service) Do(a Action) (ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, res, err := Apply(s.state, s.params, s.rand, a)
	if err != nil {
		s.log.Debug("action rejected", "kind", a.Kind, "err", err)
		return ActionResult{}, err
	}
	s.state = next
	s.log.Debug("action applied", "kind", a.Kind, "cost_cents", res.CostCents, "cash_cents", res.CashCents)
	return res, nil
}

func (s *Service) TogglePause() (bool, error) {
	res, err := s.Do(Action{Kind: ActionTogglePause})
	return res.Paused, err
}

func (s *Service) SetSpeed(speed int) error {
	_, err := s.Do(Action{Kind: ActionSetSpeed, Speed: speed})
	return err
}

func (s *Service) HireEmployees(count int64) error {
	_, err := s.Do(Action{Kind: ActionHireEmployees, Count: count})
	return err
}

func (s *Service) AddServers(count int64) error {
	_, err := s.Do(Action{Kind: ActionAddServers, Count: count})
	return err
}

func (s *Service) SetMarketingBudget(amountCents int64) error {
	_, err := s.Do(Action{Kind: ActionSetMarketingBudget, AmountCents: amountCents})
	return err
}

func (s *Service) StartProductDevelopment(in StartDevelopmentInput) (int64, error) {
	res, err := s.Do(Action{Kind: ActionStartDevelopment, ProductType: in.Type, Name: in.Name, Allocation: in.Allocation})
	return res.ProductID, err
}

func (s *Service) LaunchProduct(id int64) error {
	_, err := s.Do(Action{Kind: ActionLaunchProduct, ProductID: id})
	return err
}

func (s *Service) UpdateProduct(id int64, mode UpdateMode) error {
	_, err := s.Do(Action{Kind: ActionUpdateProduct, ProductID: id, Mode: mode})
	return err
}

func (s *Service) DeleteProduct(id int64) error {
	_, err := s.Do(Action{Kind: ActionDeleteProduct, ProductID: id})
	return err
}

func (s *Service) ReduceProductStaff(id int64) error {
	_, err := s.Do(Action{Kind: ActionReduceProductStaff, ProductID: id})
	return err
}

func (s *Service) AcquireCompany(competitorID int64) error {
	_, err := s.Do(Action{Kind: ActionAcquireCompetitor, CompetitorID: competitorID})
	return err
}

// Snapshot returns a deep copy of the current state, or nil before StartGame.
func (s *Service) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Service) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.Speed < 1 {
		return 1
	}
	return s.state.Speed
}

func (s *Service) Dashboard() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildDashboard(s.state)
}

func (s *Service) Competitors() []CompetitorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return []CompetitorView{}
	}
	return BuildCompetitorViews(s.state.Competitors, s.params.Economy)
}

func BuildDashboard(st *State) DashboardView {
	if st == nil {
		return DashboardView{Products: []Product{}, Acquisitions: []AcquisitionRecord{}}
	}
	c := st.Company
	users, _, live := liveStats(c.Products)
	required := RequiredEmployees(c)
	view := DashboardView{
		Started:              st.Started,
		Paused:               st.Paused,
		Speed:                st.Speed,
		Date:                 st.Date,
		PotentialUsers:       st.PotentialUsers,
		CompanyName:          c.Name,
		CashCents:            c.CashCents,
		ValuationCents:       c.ValuationCents,
		Employees:            c.Employees,
		RequiredEmployees:    required,
		Servers:              c.Servers,
		RequiredServers:      requiredServersFor(c.Products),
		MarketingBudgetCents: c.MarketingBudgetCents,
		MonthlyIncomeCents:   c.MonthlyIncomeCents,
		MonthlyExpensesCents: c.MonthlyExpensesCents,
		MonthlyTaxCents:      c.MonthlyTaxCents,
		NetProfitCents:       c.MonthlyIncomeCents - c.MonthlyExpensesCents,
		TaxesPaidCents:       c.TaxesPaidCents,
		TotalUsers:           users,
		LiveProducts:         live,
		InDevelopment:        len(c.Products) - live,
		CompetitorCount:      len(st.Competitors),
		Products:             cloneProducts(c.Products),
		Acquisitions:         cloneRecords(c.Acquisitions),
	}
	if required > c.Employees {
		view.EmployeeShortfall = required - c.Employees
	}
	if view.Products == nil {
		view.Products = []Product{}
	}
	if view.Acquisitions == nil {
		view.Acquisitions = []AcquisitionRecord{}
	}
	return view
}

// BuildCompetitorViews lists rivals by valuation, richest first.
func BuildCompetitorViews(roster []Competitor, e EconomyParams) []CompetitorView {
	out := make([]CompetitorView, 0, len(roster))
	for _, c := range roster {
		var users int64
		qualitySum := 0
		for _, p := range c.Products {
			users += p.Users
			qualitySum += p.Quality
		}
		var avg float64
		if len(c.Products) > 0 {
			avg = float64(qualitySum) / float64(len(c.Products))
		}
		out = append(out, CompetitorView{
			ID:             c.ID,
			Name:           c.Name,
			ValuationCents: c.ValuationCents,
			PriceCents:     c.ValuationCents * e.AcquisitionPriceMultiple,
			ProductCount:   len(c.Products),
			TotalUsers:     users,
			AvgQuality:     avg,
			Acquisitions:   len(c.Acquisitions),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ValuationCents > out[j].ValuationCents
	})
	return out
}
