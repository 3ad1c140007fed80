package calculator

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/util"
	"time"
)

// ContributionSchedule lists every contribution date between start and end,
// inclusive. monthly dates are always offset from start rather than from
// the previous date, so a clamped month-end never shifts later months.
func ContributionSchedule(start, end time.Time, frequency domain.Frequency) ([]time.Time, error) {
	start = util.DateOnly(start)
	end = util.DateOnly(end)
	if end.Before(start) {
		return nil, domain.NewInvalidConfigurationError(
			"end date %s precedes start date %s",
			end.Format(time.DateOnly),
			start.Format(time.DateOnly),
		)
	}

	next, err := stepFunc(frequency)
	if err != nil {
		return nil, err
	}

	out := []time.Time{}
	for i := 0; ; i++ {
		t := next(start, i)
		if t.After(end) {
			break
		}
		out = append(out, t)
	}

	return out, nil
}

func stepFunc(frequency domain.Frequency) (func(start time.Time, i int) time.Time, error) {
	days := func(n int) func(time.Time, int) time.Time {
		return func(start time.Time, i int) time.Time {
			return start.AddDate(0, 0, n*i)
		}
	}

	switch frequency {
	case domain.Frequency_Daily:
		return days(1), nil
	case domain.Frequency_Weekly:
		return days(7), nil
	case domain.Frequency_Biweekly:
		return days(14), nil
	case domain.Frequency_Monthly:
		return util.AddMonthsClamped, nil
	}

	return nil, domain.NewInvalidConfigurationError("unsupported frequency %q", frequency)
}
