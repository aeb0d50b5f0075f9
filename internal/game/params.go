package game

import (
	"fmt"
	"time"
)

const (
	MarketingModelThreshold  = "threshold"
	MarketingModelSaturation = "saturation"
)

var DefaultStartDate = time.Date(2004, time.January, 1, 0, 0, 0, 0, time.UTC)

// Params holds every tunable number the engine reads. The zero value is
// not usable; start from DefaultParams.
type Params struct {
	Economy     EconomyParams     `yaml:"economy"`
	Market      MarketParams      `yaml:"market"`
	Development DevelopmentParams `yaml:"development"`
	Rivals      RivalParams       `yaml:"rivals"`
}

type EconomyParams struct {
	StartDate                     time.Time `yaml:"start_date"`
	StartingCashCents             int64     `yaml:"starting_cash_cents"`
	InitialValuationCents         int64     `yaml:"initial_valuation_cents"`
	RevenuePerUserCents           int64     `yaml:"revenue_per_user_cents"`
	EmployeeMonthlyCostCents      int64     `yaml:"employee_monthly_cost_cents"`
	ServerMonthlyCostCents        int64     `yaml:"server_monthly_cost_cents"`
	ManualServerCostCents         int64     `yaml:"manual_server_cost_cents"`
	TaxRate                       float64   `yaml:"tax_rate"`
	ValuationPerUserCents         int64     `yaml:"valuation_per_user_cents"`
	ValuationCashMultiple         int64     `yaml:"valuation_cash_multiple"`
	ValuationPerQualityPointCents int64     `yaml:"valuation_per_quality_point_cents"`
	AcquisitionPriceMultiple      int64     `yaml:"acquisition_price_multiple"`
}

type MarketParams struct {
	InitialPotentialUsers              int64   `yaml:"initial_potential_users"`
	MaxPotentialUsers                  int64   `yaml:"max_potential_users"`
	MonthlyPotentialGrowth             int64   `yaml:"monthly_potential_growth"`
	PlayerShareCap                     float64 `yaml:"player_share_cap"`
	RivalShareCap                      float64 `yaml:"rival_share_cap"`
	MarketingModel                     string  `yaml:"marketing_model"`
	MarketingCostPerUserCents          int64   `yaml:"marketing_cost_per_user_cents"`
	SaturatedMarketingCostPerUserCents int64   `yaml:"saturated_marketing_cost_per_user_cents"`
	MarketingSaturationUsers           int64   `yaml:"marketing_saturation_users"`
}

type DevelopmentParams struct {
	ProgressMin    float64 `yaml:"progress_min"`
	ProgressSpread float64 `yaml:"progress_spread"`
	LaunchTeamMin  int     `yaml:"launch_team_min"`
	LaunchTeamMax  int     `yaml:"launch_team_max"`
}

type RivalParams struct {
	Count                int     `yaml:"count"`
	AcquisitionChance    float64 `yaml:"acquisition_chance"`
	ImproveChance        float64 `yaml:"improve_chance"`
	DegradeChance        float64 `yaml:"degrade_chance"`
	NewProductChance     float64 `yaml:"new_product_chance"`
	AcquirerShare        float64 `yaml:"acquirer_share"`
	TargetShare          float64 `yaml:"target_share"`
	SolvencyMultiple     int64   `yaml:"solvency_multiple"`
	InitialProductsMin   int     `yaml:"initial_products_min"`
	InitialProductsMax   int     `yaml:"initial_products_max"`
	InitialQualityMin    int     `yaml:"initial_quality_min"`
	InitialQualityMax    int     `yaml:"initial_quality_max"`
	InitialUsersMax      int64   `yaml:"initial_users_max"`
	NewProductQualityMin int     `yaml:"new_product_quality_min"`
	NewProductQualityMax int     `yaml:"new_product_quality_max"`
	NewProductUsersMax   int64   `yaml:"new_product_users_max"`
}

func DefaultParams() Params {
	return Params{
		Economy: EconomyParams{
			StartDate:                     DefaultStartDate,
			StartingCashCents:             StartingCashCents,
			InitialValuationCents:         InitialValuationCents,
			RevenuePerUserCents:           RevenuePerUserCents,
			EmployeeMonthlyCostCents:      EmployeeMonthlyCostCents,
			ServerMonthlyCostCents:        ServerMonthlyCostCents,
			ManualServerCostCents:         ManualServerCostCents,
			TaxRate:                       TaxRate,
			ValuationPerUserCents:         ValuationPerUserCents,
			ValuationCashMultiple:         ValuationCashMultiple,
			ValuationPerQualityPointCents: ValuationPerQualityPointCents,
			AcquisitionPriceMultiple:      AcquisitionPriceMultiple,
		},
		Market: MarketParams{
			InitialPotentialUsers:              InitialPotentialUsers,
			MaxPotentialUsers:                  MaxPotentialUsers,
			MonthlyPotentialGrowth:             MonthlyPotentialGrowth,
			PlayerShareCap:                     PlayerMarketShareCap,
			RivalShareCap:                      RivalMarketShareCap,
			MarketingModel:                     MarketingModelThreshold,
			MarketingCostPerUserCents:          MarketingCostPerUserCents,
			SaturatedMarketingCostPerUserCents: SaturatedMarketingCostPerUserCents,
			MarketingSaturationUsers:           MarketingSaturationUsers,
		},
		Development: DevelopmentParams{
			ProgressMin:    DevProgressMin,
			ProgressSpread: DevProgressSpread,
			LaunchTeamMin:  LaunchTeamMin,
			LaunchTeamMax:  LaunchTeamMax,
		},
		Rivals: RivalParams{
			Count:                DefaultCompetitorCount,
			AcquisitionChance:    RivalAcquisitionChance,
			ImproveChance:        RivalImproveChance,
			DegradeChance:        RivalDegradeChance,
			NewProductChance:     RivalNewProductChance,
			AcquirerShare:        RivalAcquirerShare,
			TargetShare:          RivalTargetShare,
			SolvencyMultiple:     RivalSolvencyMultiple,
			InitialProductsMin:   1,
			InitialProductsMax:   3,
			InitialQualityMin:    1,
			InitialQualityMax:    6,
			InitialUsersMax:      1_000_000,
			NewProductQualityMin: 2,
			NewProductQualityMax: 5,
			NewProductUsersMax:   100_000,
		},
	}
}

func (p Params) Validate() error {
	switch p.Market.MarketingModel {
	case MarketingModelThreshold, MarketingModelSaturation:
	default:
		return fmt.Errorf("marketing_model must be %q or %q", MarketingModelThreshold, MarketingModelSaturation)
	}
	if p.Economy.TaxRate < 0 || p.Economy.TaxRate >= 1 {
		return fmt.Errorf("tax_rate must be in [0,1)")
	}
	if p.Market.PlayerShareCap <= 0 || p.Market.PlayerShareCap > 1 {
		return fmt.Errorf("player_share_cap must be in (0,1]")
	}
	if p.Market.RivalShareCap <= 0 || p.Market.RivalShareCap > 1 {
		return fmt.Errorf("rival_share_cap must be in (0,1]")
	}
	if p.Market.MaxPotentialUsers < p.Market.InitialPotentialUsers {
		return fmt.Errorf("max_potential_users below initial_potential_users")
	}
	if p.Market.MarketingCostPerUserCents <= 0 || p.Market.SaturatedMarketingCostPerUserCents <= 0 {
		return fmt.Errorf("marketing costs per user must be > 0")
	}
	if p.Development.ProgressMin < 0 || p.Development.ProgressSpread < 0 {
		return fmt.Errorf("development progress must be >= 0")
	}
	if p.Development.LaunchTeamMin < 0 || p.Development.LaunchTeamMax < p.Development.LaunchTeamMin {
		return fmt.Errorf("launch team range is invalid")
	}
	r := p.Rivals
	if r.Count < 0 {
		return fmt.Errorf("rivals.count must be >= 0")
	}
	for name, v := range map[string]float64{
		"acquisition_chance": r.AcquisitionChance,
		"improve_chance":     r.ImproveChance,
		"degrade_chance":     r.DegradeChance,
		"new_product_chance": r.NewProductChance,
		"acquirer_share":     r.AcquirerShare,
		"target_share":       r.TargetShare,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("rivals.%s must be in [0,1]", name)
		}
	}
	if r.InitialProductsMin < 1 || r.InitialProductsMax < r.InitialProductsMin {
		return fmt.Errorf("rivals initial product range is invalid")
	}
	if r.InitialQualityMin < 0 || r.InitialQualityMax > MaxQuality || r.InitialQualityMax < r.InitialQualityMin {
		return fmt.Errorf("rivals initial quality range is invalid")
	}
	if r.NewProductQualityMin < 0 || r.NewProductQualityMax > MaxQuality || r.NewProductQualityMax < r.NewProductQualityMin {
		return fmt.Errorf("rivals new product quality range is invalid")
	}
	if r.InitialUsersMax < 0 || r.NewProductUsersMax < 0 {
		return fmt.Errorf("rivals user ranges must be >= 0")
	}
	return nil
}
