package reorder

import (
	"fmt"
	"math"
	"time"

	"github.com/reorden/backend-go/internal/domain"
)

// ProjectDemand pro-rates a historical units-sold figure into the expected
// demand for the requested horizon, assuming uniform daily demand. The result
// is rounded half-up to whole units.
func ProjectDemand(historicalUnits float64, referencePeriodDays, horizonDays int) (int, error) {
	if referencePeriodDays <= 0 {
		return 0, domain.NewValidationError("reference_period_days",
			fmt.Errorf("must be positive, got %d", referencePeriodDays))
	}
	if horizonDays <= 0 {
		return 0, domain.NewValidationError("horizon_days",
			fmt.Errorf("must be positive, got %d", horizonDays))
	}
	if historicalUnits < 0 {
		return 0, domain.NewValidationError("historical_units",
			fmt.Errorf("must be non-negative, got %v", historicalUnits))
	}

	daily := historicalUnits / float64(referencePeriodDays)
	return int(math.Floor(daily*float64(horizonDays) + 0.5)), nil
}

// HorizonDays returns the inclusive day count of the selected window.
// A window ending before it starts is an input error and nothing downstream
// may run.
func HorizonDays(start, end time.Time) (int, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if end.Before(start) {
		return 0, domain.ErrInvalidDateRange
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
