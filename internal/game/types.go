package game

import "time"

type ProductType string

const (
	ProductSearch      ProductType = "search"
	ProductVideo       ProductType = "video"
	ProductSocial      ProductType = "social"
	ProductMobileOS    ProductType = "mobileOS"
	ProductDesktopOS   ProductType = "desktopOS"
	ProductSmartphone  ProductType = "smartphone"
	ProductConsole     ProductType = "console"
	ProductCloud       ProductType = "cloud"
	ProductRidesharing ProductType = "ridesharing"
	ProductEcommerce   ProductType = "ecommerce"
	ProductAI          ProductType = "ai"
	ProductMessenger   ProductType = "messenger"
	ProductOffice      ProductType = "office"
	ProductAntivirus   ProductType = "antivirus"
	ProductDatabase    ProductType = "database"
	ProductDevtools    ProductType = "devtools"
)

type ProductStatus string

const (
	StatusInDevelopment ProductStatus = "in_development"
	StatusLive          ProductStatus = "live"
)

type UpdateMode string

const (
	UpdateMaintain UpdateMode = "maintain"
	UpdateMinor    UpdateMode = "minor"
	UpdateMajor    UpdateMode = "major"
)

// Allocation is the percentage split of development effort across the
// five engineering categories. Values are expected to sum to 100.
type Allocation struct {
	Backend  int `json:"backend" yaml:"backend"`
	Frontend int `json:"frontend" yaml:"frontend"`
	Infra    int `json:"infra" yaml:"infra"`
	AI       int `json:"ai" yaml:"ai"`
	DB       int `json:"db" yaml:"db"`
}

func (a Allocation) values() [5]int {
	return [5]int{a.Backend, a.Frontend, a.Infra, a.AI, a.DB}
}

func (a Allocation) Sum() int {
	total := 0
	for _, v := range a.values() {
		total += v
	}
	return total
}

type Product struct {
	ID            int64         `json:"id"`
	Type          ProductType   `json:"type"`
	Name          string        `json:"name"`
	Status        ProductStatus `json:"status"`
	Progress      float64       `json:"progress"`
	Allocation    Allocation    `json:"allocation"`
	Quality       int           `json:"quality"`
	BaseQuality   int           `json:"base_quality"`
	Users         int64         `json:"users"`
	Employees     int64         `json:"employees"`
	LaunchedAt    time.Time     `json:"launched_at,omitzero"`
	LastUpdatedAt time.Time     `json:"last_updated_at,omitzero"`
}

func (p Product) Live() bool {
	return p.Status == StatusLive
}

// staleSince is the reference point for quality degradation.
func (p Product) staleSince() time.Time {
	if p.LastUpdatedAt.After(p.LaunchedAt) {
		return p.LastUpdatedAt
	}
	return p.LaunchedAt
}

type AcquisitionRecord struct {
	CompetitorID   int64     `json:"competitor_id"`
	Name           string    `json:"name"`
	AcquiredAt     time.Time `json:"acquired_at"`
	PriceCents     int64     `json:"price_cents"`
	ValuationCents int64     `json:"valuation_cents"`
	ProductCount   int       `json:"product_count"`
}

type Company struct {
	Name                 string              `json:"name"`
	FoundedAt            time.Time           `json:"founded_at"`
	CashCents            int64               `json:"cash_cents"`
	Employees            int64               `json:"employees"`
	Servers              int64               `json:"servers"`
	MarketingBudgetCents int64               `json:"marketing_budget_cents"`
	Products             []Product           `json:"products"`
	ValuationCents       int64               `json:"valuation_cents"`
	MonthlyIncomeCents   int64               `json:"monthly_income_cents"`
	MonthlyExpensesCents int64               `json:"monthly_expenses_cents"`
	MonthlyTaxCents      int64               `json:"monthly_tax_cents"`
	TaxesPaidCents       int64               `json:"taxes_paid_cents"`
	Acquisitions         []AcquisitionRecord `json:"acquisitions"`
}

type Competitor struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	FoundedAt      time.Time           `json:"founded_at"`
	Products       []Product           `json:"products"`
	ValuationCents int64               `json:"valuation_cents"`
	Acquisitions   []AcquisitionRecord `json:"acquisitions"`
}

// State is the full game snapshot. Tick and Apply never mutate the State
// they are given; they return a new one.
type State struct {
	Started        bool         `json:"started"`
	Paused         bool         `json:"paused"`
	Speed          int          `json:"speed"`
	Date           time.Time    `json:"date"`
	PotentialUsers int64        `json:"potential_users"`
	Company        Company      `json:"company"`
	Competitors    []Competitor `json:"competitors"`
	NextProductID  int64        `json:"next_product_id"`
	Ticks          int64        `json:"ticks"`
}

func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Company = s.Company.clone()
	if s.Competitors != nil {
		out.Competitors = make([]Competitor, len(s.Competitors))
		for i, c := range s.Competitors {
			out.Competitors[i] = c.clone()
		}
	}
	return &out
}

func (s *State) allocateProductID() int64 {
	if s.NextProductID < 1 {
		s.NextProductID = 1
	}
	id := s.NextProductID
	s.NextProductID++
	return id
}

func (s *State) competitorIndex(id int64) int {
	for i := range s.Competitors {
		if s.Competitors[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) clone() Company {
	out := c
	out.Products = cloneProducts(c.Products)
	out.Acquisitions = cloneRecords(c.Acquisitions)
	return out
}

func (c *Company) productIndex(id int64) int {
	for i := range c.Products {
		if c.Products[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Competitor) clone() Competitor {
	out := c
	out.Products = cloneProducts(c.Products)
	out.Acquisitions = cloneRecords(c.Acquisitions)
	return out
}

func cloneProducts(in []Product) []Product {
	if in == nil {
		return nil
	}
	out := make([]Product, len(in))
	copy(out, in)
	return out
}

func cloneRecords(in []AcquisitionRecord) []AcquisitionRecord {
	if in == nil {
		return nil
	}
	out := make([]AcquisitionRecord, len(in))
	copy(out, in)
	return out
}

// TickReport summarizes one month of simulation.
type TickReport struct {
	Skipped              bool               `json:"skipped"`
	Date                 time.Time          `json:"date"`
	IncomeCents          int64              `json:"income_cents"`
	EmployeeCostCents    int64              `json:"employee_cost_cents"`
	ServerCostCents      int64              `json:"server_cost_cents"`
	MarketingCostCents   int64              `json:"marketing_cost_cents"`
	ProfitBeforeTaxCents int64              `json:"profit_before_tax_cents"`
	TaxCents             int64              `json:"tax_cents"`
	ExpensesCents        int64              `json:"expenses_cents"`
	RequiredEmployees    int64              `json:"required_employees"`
	EmployeeShortfall    int64              `json:"employee_shortfall"`
	RequiredServers      int64              `json:"required_servers"`
	RivalAcquisitions    []RivalAcquisition `json:"rival_acquisitions,omitempty"`
	RivalLaunches        int                `json:"rival_launches"`
}

type RivalAcquisition struct {
	AcquirerID   int64  `json:"acquirer_id"`
	AcquirerName string `json:"acquirer_name"`
	TargetID     int64  `json:"target_id"`
	TargetName   string `json:"target_name"`
	PriceCents   int64  `json:"price_cents"`
}

type DashboardView struct {
	Started              bool                `json:"started"`
	Paused               bool                `json:"paused"`
	Speed                int                 `json:"speed"`
	Date                 time.Time           `json:"date"`
	PotentialUsers       int64               `json:"potential_users"`
	CompanyName          string              `json:"company_name"`
	CashCents            int64               `json:"cash_cents"`
	ValuationCents       int64               `json:"valuation_cents"`
	Employees            int64               `json:"employees"`
	RequiredEmployees    int64               `json:"required_employees"`
	EmployeeShortfall    int64               `json:"employee_shortfall"`
	Servers              int64               `json:"servers"`
	RequiredServers      int64               `json:"required_servers"`
	MarketingBudgetCents int64               `json:"marketing_budget_cents"`
	MonthlyIncomeCents   int64               `json:"monthly_income_cents"`
	MonthlyExpensesCents int64               `json:"monthly_expenses_cents"`
	MonthlyTaxCents      int64               `json:"monthly_tax_cents"`
	NetProfitCents       int64               `json:"net_profit_cents"`
	TaxesPaidCents       int64               `json:"taxes_paid_cents"`
	TotalUsers           int64               `json:"total_users"`
	LiveProducts         int                 `json:"live_products"`
	InDevelopment        int                 `json:"in_development"`
	CompetitorCount      int                 `json:"competitor_count"`
	Products             []Product           `json:"products"`
	Acquisitions         []AcquisitionRecord `json:"acquisitions"`
}

type CompetitorView struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	ValuationCents int64   `json:"valuation_cents"`
	PriceCents     int64   `json:"price_cents"`
	ProductCount   int     `json:"product_count"`
	TotalUsers     int64   `json:"total_users"`
	AvgQuality     float64 `json:"avg_quality"`
	Acquisitions   int     `json:"acquisitions"`
}

type ProductTypeView struct {
	Type        ProductType `json:"type"`
	DisplayName string      `json:"display_name"`
}

type StartDevelopmentInput struct {
	Type       ProductType
	Name       string
	Allocation Allocation
}

const (
	ReplayApplied   = "applied"
	ReplayDuplicate = "duplicate"
	ReplayRejected  = "rejected"
)

// ReplayCommand is an action queued offline by the CLI.
type ReplayCommand struct {
	Action         Action `json:"action"`
	IdempotencyKey string `json:"idempotency_key"`
}

type ReplayResult struct {
	IdempotencyKey string        `json:"idempotency_key"`
	Kind           ActionKind    `json:"kind"`
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
	Result         *ActionResult `json:"result,omitempty"`
}

// GameSummary is one row of a saved-games listing.
type GameSummary struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"company_name"`
	Date           time.Time `json:"date"`
	CashCents      int64     `json:"cash_cents"`
	ValuationCents int64     `json:"valuation_cents"`
	UpdatedAt      time.Time `json:"updated_at"`
}
