package repository

import (
	"dcabacktest/internal/domain"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// AlpacaRepository supplies the most recent quote for each symbol, used
// as the "current" price when it is newer than the stored history
type AlpacaRepository interface {
	GetLatestPricesWithTs(symbols []string) (map[string]domain.AssetPrice, error)
}

func NewAlpacaRepository(apiKey, apiSecret string, endpoint string) AlpacaRepository {
	mdClient := marketdata.NewClient(marketdata.ClientOpts{
		BaseURL:   endpoint,
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &alpacaRepositoryHandler{
		MdClient: mdClient,
	}
}

type alpacaRepositoryHandler struct {
	MdClient *marketdata.Client
}

func (h alpacaRepositoryHandler) GetLatestPricesWithTs(symbols []string) (map[string]domain.AssetPrice, error) {
	if len(symbols) == 0 {
		return map[string]domain.AssetPrice{}, nil
	}
	results, err := h.MdClient.GetLatestQuotes(symbols, marketdata.GetLatestQuoteRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quotes: %w", err)
	}
	out := map[string]domain.AssetPrice{}
	for symbol, result := range results {
		price := decimal.NewFromFloat(result.BidPrice)
		if !price.IsPositive() {
			return nil, fmt.Errorf("failed to get price for %s: got %s price", symbol, price.String())
		}
		out[symbol] = domain.AssetPrice{
			Symbol: symbol,
			Price:  price,
			Date:   result.Timestamp.UTC(),
		}
	}

	return out, nil
}
