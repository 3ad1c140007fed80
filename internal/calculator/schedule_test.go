package calculator

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/util"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestContributionSchedule(t *testing.T) {
	t.Run("daily includes both ends", func(t *testing.T) {
		out, err := ContributionSchedule(util.NewDate(2020, 1, 1), util.NewDate(2020, 1, 3), domain.Frequency_Daily)
		require.NoError(t, err)
		require.Equal(
			t,
			"",
			cmp.Diff(
				[]time.Time{
					util.NewDate(2020, 1, 1),
					util.NewDate(2020, 1, 2),
					util.NewDate(2020, 1, 3),
				},
				out,
			),
		)
	})

	t.Run("weekly stops before end", func(t *testing.T) {
		out, err := ContributionSchedule(util.NewDate(2020, 1, 1), util.NewDate(2020, 1, 20), domain.Frequency_Weekly)
		require.NoError(t, err)
		require.Equal(
			t,
			[]time.Time{
				util.NewDate(2020, 1, 1),
				util.NewDate(2020, 1, 8),
				util.NewDate(2020, 1, 15),
			},
			out,
		)
	})

	t.Run("biweekly", func(t *testing.T) {
		out, err := ContributionSchedule(util.NewDate(2020, 1, 1), util.NewDate(2020, 1, 29), domain.Frequency_Biweekly)
		require.NoError(t, err)
		require.Equal(
			t,
			[]time.Time{
				util.NewDate(2020, 1, 1),
				util.NewDate(2020, 1, 15),
				util.NewDate(2020, 1, 29),
			},
			out,
		)
	})

	t.Run("monthly clamps to month end without drifting", func(t *testing.T) {
		out, err := ContributionSchedule(util.NewDate(2021, 1, 31), util.NewDate(2021, 5, 1), domain.Frequency_Monthly)
		require.NoError(t, err)
		require.Equal(
			t,
			[]time.Time{
				util.NewDate(2021, 1, 31),
				util.NewDate(2021, 2, 28),
				util.NewDate(2021, 3, 31),
				util.NewDate(2021, 4, 30),
			},
			out,
		)
	})

	t.Run("same day start and end", func(t *testing.T) {
		out, err := ContributionSchedule(util.NewDate(2021, 3, 3), util.NewDate(2021, 3, 3), domain.Frequency_Monthly)
		require.NoError(t, err)
		require.Equal(t, []time.Time{util.NewDate(2021, 3, 3)}, out)
	})

	t.Run("ignores clock component", func(t *testing.T) {
		out, err := ContributionSchedule(
			time.Date(2021, 3, 3, 18, 0, 0, 0, time.UTC),
			time.Date(2021, 3, 4, 1, 0, 0, 0, time.UTC),
			domain.Frequency_Daily,
		)
		require.NoError(t, err)
		require.Equal(t, []time.Time{util.NewDate(2021, 3, 3), util.NewDate(2021, 3, 4)}, out)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := ContributionSchedule(util.NewDate(2021, 3, 3), util.NewDate(2021, 3, 2), domain.Frequency_Daily)
		require.Error(t, err)
		require.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
	})

	t.Run("unknown frequency", func(t *testing.T) {
		_, err := ContributionSchedule(util.NewDate(2021, 3, 3), util.NewDate(2021, 3, 5), domain.Frequency("HOURLY"))
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("strictly increasing and bounded", func(t *testing.T) {
		start := util.NewDate(2019, 8, 31)
		end := util.NewDate(2022, 2, 27)
		for _, f := range []domain.Frequency{
			domain.Frequency_Daily,
			domain.Frequency_Weekly,
			domain.Frequency_Biweekly,
			domain.Frequency_Monthly,
		} {
			out, err := ContributionSchedule(start, end, f)
			require.NoError(t, err)
			require.Equal(t, start, out[0], f)
			for i := 1; i < len(out); i++ {
				require.True(t, out[i].After(out[i-1]), f)
			}
			require.False(t, out[len(out)-1].After(end), f)
		}
	})
}
