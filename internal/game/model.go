package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

const (
	CentsPerDollar = int64(100)

	StartingCashCents     = int64(1_000_000) * CentsPerDollar
	InitialValuationCents = int64(1_000_000) * CentsPerDollar

	RevenuePerUserCents      = int64(15) * CentsPerDollar
	EmployeeMonthlyCostCents = int64(10_000) * CentsPerDollar
	ServerMonthlyCostCents   = int64(10) * CentsPerDollar
	ManualServerCostCents    = int64(10) * CentsPerDollar
	TaxRate                  = 0.23

	ValuationPerUserCents         = int64(20) * CentsPerDollar
	ValuationCashMultiple         = int64(2)
	ValuationPerQualityPointCents = int64(10_000_000) * CentsPerDollar

	MarketingCostPerUserCents          = int64(5) * CentsPerDollar
	SaturatedMarketingCostPerUserCents = int64(20) * CentsPerDollar
	MarketingSaturationUsers           = int64(100_000_000)

	AcquisitionPriceMultiple = int64(2)

	MaxPotentialUsers      = int64(8_000_000_000)
	InitialPotentialUsers  = int64(5_000_000_000)
	MonthlyPotentialGrowth = int64(20_800_000)

	PlayerMarketShareCap = 0.4
	RivalMarketShareCap  = 0.3

	MegaScaleUsers = int64(1_000_000_000)

	MaxQuality                = 10
	QualityDegradationPerYear = 2
	StaleQualityFloor         = 1

	StaffPerUserBlock  = int64(5)
	UsersPerStaffBlock = int64(10_000)
	UsersPerServer     = int64(300)

	DevProgressMin    = 5.0
	DevProgressSpread = 10.0
	LaunchTeamMin     = 5
	LaunchTeamMax     = 10

	DefaultCompetitorCount = 200
	RivalAcquisitionChance = 0.05
	RivalImproveChance     = 0.10
	RivalDegradeChance     = 0.05
	RivalNewProductChance  = 0.01
	RivalAcquirerShare     = 0.10
	RivalTargetShare       = 0.50
	RivalSolvencyMultiple  = int64(3)

	BaseTickInterval = 10 * time.Second
)

// AllowedSpeeds are the speed multipliers accepted by SetSpeed.
var AllowedSpeeds = []int{1, 2, 4}

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrPrecondition         = errors.New("precondition failed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")

	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrCompetitorNotFound = fmt.Errorf("competitor %w", ErrNotFound)
	ErrGameNotFound       = fmt.Errorf("game %w", ErrNotFound)

	ErrGameNotStarted        = fmt.Errorf("%w: game not started", ErrPrecondition)
	ErrAlreadyLaunched       = fmt.Errorf("%w: product already launched", ErrPrecondition)
	ErrNotLive               = fmt.Errorf("%w: product is not live", ErrPrecondition)
	ErrDevelopmentIncomplete = fmt.Errorf("%w: development is not complete", ErrPrecondition)

	ErrInvalidCount       = fmt.Errorf("%w: count must be > 0", ErrInvalidInput)
	ErrUnknownProductType = fmt.Errorf("%w: unknown product type", ErrInvalidInput)
	ErrInvalidAllocation  = fmt.Errorf("%w: allocation values must be >= 0", ErrInvalidInput)
	ErrInvalidUpdateMode  = fmt.Errorf("%w: update mode must be maintain, minor or major", ErrInvalidInput)
	ErrInvalidSpeed       = fmt.Errorf("%w: speed must be 1, 2 or 4", ErrInvalidInput)
	ErrUnknownAction      = fmt.Errorf("%w: unknown action", ErrInvalidInput)
)

var blockedNameWords = map[string]struct{}{
	"shit":  {},
	"fuck":  {},
	"bitch": {},
	"nazi":  {},
}

func DollarsToCents(v float64) int64 {
	return int64(math.Round(v * float64(CentsPerDollar)))
}

func CentsToDollars(v int64) float64 {
	return float64(v) / float64(CentsPerDollar)
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

func ValidSpeed(speed int) bool {
	for _, s := range AllowedSpeeds {
		if s == speed {
			return true
		}
	}
	return false
}

func validateEntityName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(clean) > 64 {
		return fmt.Errorf("%w: name too long (max 64 chars)", ErrInvalidInput)
	}
	// Match whole words only.
	words := strings.FieldsFunc(strings.ToLower(clean), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, blocked := blockedNameWords[w]; blocked {
			return fmt.Errorf("%w: name contains blocked content", ErrInvalidInput)
		}
	}
	return nil
}
