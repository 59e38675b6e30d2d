package exporter

import (
	"fmt"
	"time"

	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

// Period names a reconciliation cadence that determines the fetch window
// per resource type.
type Period string

const (
	// PeriodMonthly fetches the current calendar month for every type.
	PeriodMonthly Period = "monthly"
	// PeriodBiWeekly fetches the trailing two weeks for bills and the
	// current month for everything else.
	PeriodBiWeekly Period = "bi-weekly"
	// PeriodStatement fetches the current statement period, which for
	// monthly statements coincides with the calendar month.
	PeriodStatement Period = "statement"
)

// ParsePeriod validates a user-supplied period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodMonthly, PeriodBiWeekly, PeriodStatement:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period type %q", s)
}

// Range is an inclusive date window in YYYY-MM-DD form.
type Range struct {
	Start string
	End   string
}

// DateRanges computes the fetch window per resource type for one
// reconciliation period, relative to now.
func DateRanges(period Period, now time.Time) (map[ramp.ResourceType]Range, error) {
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, -1)
	month := Range{
		Start: startOfMonth.Format("2006-01-02"),
		End:   endOfMonth.Format("2006-01-02"),
	}

	ranges := make(map[ramp.ResourceType]Range, len(ramp.AllResourceTypes))
	for _, rt := range ramp.AllResourceTypes {
		ranges[rt] = month
	}

	switch period {
	case PeriodMonthly, PeriodStatement:
	case PeriodBiWeekly:
		ranges[ramp.ResourceBills] = Range{
			Start: now.AddDate(0, 0, -14).Format("2006-01-02"),
			End:   now.Format("2006-01-02"),
		}
	default:
		return nil, fmt.Errorf("unknown period type %q", period)
	}

	return ranges, nil
}
