package service

import (
	"context"
	"dcabacktest/internal/domain"
	mock_repository "dcabacktest/internal/repository/mocks"
	"dcabacktest/internal/util"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_priceServiceHandler_LoadPriceSeries(t *testing.T) {
	start := util.NewDate(2020, 1, 6)
	end := util.NewDate(2020, 1, 10)

	t.Run("loads a week of lookback and groups by symbol", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		priceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)
		priceRepository.EXPECT().
			List([]string{"SPY", "GLD"}, util.NewDate(2019, 12, 30), end).
			Return([]domain.AssetPrice{
				{Symbol: "SPY", Date: util.NewDate(2020, 1, 3), Price: decimal.NewFromInt(320)},
				{Symbol: "SPY", Date: util.NewDate(2020, 1, 6), Price: decimal.NewFromInt(321)},
			}, nil)

		h := NewPriceService(priceRepository, nil)
		out, err := h.LoadPriceSeries(context.Background(), []string{"SPY", "GLD"}, start, end)
		require.NoError(t, err)

		require.Equal(t, 2, out["SPY"].Len())
		first, ok := out["SPY"].First()
		require.True(t, ok)
		require.Equal(t, util.NewDate(2020, 1, 3), first.Date)
		require.True(t, out["GLD"].IsEmpty())
	})

	t.Run("appends a newer live quote", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		priceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)
		alpacaRepository := mock_repository.NewMockAlpacaRepository(ctrl)

		priceRepository.EXPECT().
			List(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.AssetPrice{
				{Symbol: "SPY", Date: util.NewDate(2020, 1, 8), Price: decimal.NewFromInt(320)},
				{Symbol: "QQQ", Date: util.NewDate(2020, 1, 10), Price: decimal.NewFromInt(210)},
			}, nil)
		alpacaRepository.EXPECT().
			GetLatestPricesWithTs([]string{"SPY", "QQQ"}).
			Return(map[string]domain.AssetPrice{
				"SPY": {Symbol: "SPY", Date: time.Date(2020, 1, 10, 15, 30, 0, 0, time.UTC), Price: decimal.NewFromInt(330)},
				// same day as stored close, ignored
				"QQQ": {Symbol: "QQQ", Date: time.Date(2020, 1, 10, 15, 30, 0, 0, time.UTC), Price: decimal.NewFromInt(1)},
			}, nil)

		h := NewPriceService(priceRepository, alpacaRepository)
		out, err := h.LoadPriceSeries(context.Background(), []string{"SPY", "QQQ"}, start, end)
		require.NoError(t, err)

		latest, _ := out["SPY"].Latest()
		require.Equal(t, util.NewDate(2020, 1, 10), latest.Date)
		require.True(t, latest.Price.Equal(decimal.NewFromInt(330)))

		latest, _ = out["QQQ"].Latest()
		require.True(t, latest.Price.Equal(decimal.NewFromInt(210)))
	})

	t.Run("quote failure falls back to stored history", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		priceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)
		alpacaRepository := mock_repository.NewMockAlpacaRepository(ctrl)

		priceRepository.EXPECT().
			List(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.AssetPrice{
				{Symbol: "SPY", Date: util.NewDate(2020, 1, 8), Price: decimal.NewFromInt(320)},
			}, nil)
		alpacaRepository.EXPECT().
			GetLatestPricesWithTs(gomock.Any()).
			Return(nil, errors.New("unauthorized"))

		h := NewPriceService(priceRepository, alpacaRepository)
		out, err := h.LoadPriceSeries(context.Background(), []string{"SPY"}, start, end)
		require.NoError(t, err)
		require.Equal(t, 1, out["SPY"].Len())
	})
}

func Test_priceServiceHandler_IngestPrices(t *testing.T) {
	t.Run("stores fetched history for every symbol", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		priceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)
		priceRepository.EXPECT().Add(gomock.Len(2)).Return(nil).Times(2)

		var mu sync.Mutex
		fetched := map[string]time.Time{}
		h := priceServiceHandler{
			AdjPriceRepository: priceRepository,
			numWorkers:         2,
			fetchHistory: func(symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
				mu.Lock()
				fetched[symbol] = start
				mu.Unlock()
				return []domain.AssetPrice{
					{Symbol: symbol, Date: util.NewDate(2020, 1, 2), Price: decimal.NewFromInt(1)},
					{Symbol: symbol, Date: util.NewDate(2020, 1, 3), Price: decimal.NewFromInt(2)},
				}, nil
			},
		}

		s := util.NewDate(2020, 1, 1)
		err := h.IngestPrices(context.Background(), []string{"SPY", "QQQ"}, &s)
		require.NoError(t, err)
		require.Equal(
			t,
			map[string]time.Time{
				"SPY": util.NewDate(2020, 1, 1),
				"QQQ": util.NewDate(2020, 1, 1),
			},
			fetched,
		)
	})

	t.Run("reports failed symbols", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		priceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)
		priceRepository.EXPECT().Add(gomock.Any()).Return(nil).Times(1)

		h := priceServiceHandler{
			AdjPriceRepository: priceRepository,
			numWorkers:         3,
			fetchHistory: func(symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
				switch symbol {
				case "BAD":
					return nil, errors.New("404")
				case "EMPTY":
					return nil, nil
				}
				return []domain.AssetPrice{
					{Symbol: symbol, Date: util.NewDate(2020, 1, 2), Price: decimal.NewFromInt(1)},
				}, nil
			},
		}

		err := h.IngestPrices(context.Background(), []string{"SPY", "BAD", "EMPTY"}, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to ingest 2/3 symbols")
	})

	t.Run("normalizes symbols before fetching and storing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		priceRepository := mock_repository.NewMockAdjustedPriceRepository(ctrl)

		var mu sync.Mutex
		stored := map[string]bool{}
		priceRepository.EXPECT().
			Add(gomock.Any()).
			DoAndReturn(func(prices []domain.AssetPrice) error {
				mu.Lock()
				defer mu.Unlock()
				for _, p := range prices {
					stored[p.Symbol] = true
				}
				return nil
			}).
			Times(2)

		h := priceServiceHandler{
			AdjPriceRepository: priceRepository,
			numWorkers:         2,
			fetchHistory: func(symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
				// yahoo echoes whatever case it was asked for
				return []domain.AssetPrice{
					{Symbol: strings.ToLower(symbol), Date: util.NewDate(2020, 1, 2), Price: decimal.NewFromInt(1)},
				}, nil
			},
		}

		err := h.IngestPrices(context.Background(), []string{"spy", " qqq ", "", "SPY"}, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]bool{"SPY": true, "QQQ": true}, stored)
	})

	t.Run("no usable symbols", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := priceServiceHandler{
			AdjPriceRepository: mock_repository.NewMockAdjustedPriceRepository(ctrl),
			numWorkers:         1,
		}

		err := h.IngestPrices(context.Background(), []string{" ", ""}, nil)
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})
}
