package repository

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// hits the live market data api; only runs when dev secrets are present
func initializeHandler(t *testing.T) AlpacaRepository {
	f, err := os.ReadFile("../../secrets-dev.json")
	if err != nil {
		t.Skip("secrets-dev.json not found")
	}

	type secrets struct {
		Alpaca struct {
			ApiKey    string `json:"apiKey"`
			ApiSecret string `json:"apiSecret"`
			Endpoint  string `json:"endpoint"`
		} `json:"alpaca"`
	}

	s := secrets{}
	require.NoError(t, json.Unmarshal(f, &s))
	if s.Alpaca.ApiKey == "" {
		t.Skip("alpaca credentials not set")
	}

	return NewAlpacaRepository(s.Alpaca.ApiKey, s.Alpaca.ApiSecret, s.Alpaca.Endpoint)
}

func Test_alpacaRepositoryHandler_GetLatestPricesWithTs(t *testing.T) {
	handler := initializeHandler(t)

	t.Run("no symbols", func(t *testing.T) {
		prices, err := handler.GetLatestPricesWithTs(nil)
		require.NoError(t, err)
		require.Empty(t, prices)
	})

	t.Run("quotes are positive", func(t *testing.T) {
		prices, err := handler.GetLatestPricesWithTs([]string{"AAPL", "SPY"})
		require.NoError(t, err)
		for symbol, p := range prices {
			require.Equal(t, symbol, p.Symbol)
			require.True(t, p.Price.IsPositive())
			require.False(t, p.Date.IsZero())
		}
	})
}
