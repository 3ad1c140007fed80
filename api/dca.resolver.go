package api

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/logger"
	"dcabacktest/internal/service"
	"dcabacktest/internal/util"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DcaRequest struct {
	Amount    float64  `json:"amount"`
	Frequency string   `json:"frequency"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Symbols   []string `json:"symbols"`
}

type DcaTransaction struct {
	Date               string  `json:"date"`
	Amount             float64 `json:"amount"`
	Price              float64 `json:"price"`
	Units              float64 `json:"units"`
	CumulativeUnits    float64 `json:"cumulativeUnits"`
	CumulativeInvested float64 `json:"cumulativeInvested"`
	PortfolioValue     float64 `json:"portfolioValue"`
}

type DcaAssetResult struct {
	Symbol        string           `json:"symbol"`
	Error         *string          `json:"error,omitempty"`
	TotalInvested float64          `json:"totalInvested"`
	UnitsHeld     float64          `json:"unitsHeld"`
	CurrentPrice  float64          `json:"currentPrice"`
	CurrentDate   string           `json:"currentDate,omitempty"`
	CurrentValue  float64          `json:"currentValue"`
	ROI           float64          `json:"roi"`
	CAGR          float64          `json:"cagr"`
	MaxDrawdown   float64          `json:"maxDrawdown"`
	Volatility    float64          `json:"volatility"`
	Transactions  []DcaTransaction `json:"transactions"`
}

type IndexedPoint struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

type AbsoluteValue struct {
	PortfolioValue float64 `json:"portfolioValue"`
	Invested       float64 `json:"invested"`
}

type AbsolutePoint struct {
	Date   string                   `json:"date"`
	Values map[string]AbsoluteValue `json:"values"`
}

type DcaResponse struct {
	Assets         []DcaAssetResult `json:"assets"`
	IndexedSeries  []IndexedPoint   `json:"indexedSeries"`
	AbsoluteSeries []AbsolutePoint  `json:"absoluteSeries"`
}

func (req DcaRequest) ToConfig() (*domain.InvestmentConfig, error) {
	frequency, err := domain.NewFrequency(req.Frequency)
	if err != nil {
		return nil, err
	}
	start, err := util.ParseDate(req.Start)
	if err != nil {
		return nil, domain.NewInvalidConfigurationError("could not parse start date %q", req.Start)
	}
	end, err := util.ParseDate(req.End)
	if err != nil {
		return nil, domain.NewInvalidConfigurationError("could not parse end date %q", req.End)
	}

	return &domain.InvestmentConfig{
		Amount:    decimal.NewFromFloat(req.Amount),
		Frequency: *frequency,
		Start:     start,
		End:       end,
		Symbols:   req.Symbols,
	}, nil
}

func (m ApiHandler) dca(c *gin.Context) {
	var requestBody DcaRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, 400)
		return
	}

	config, err := requestBody.ToConfig()
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	profile, endProfile := domain.NewProfile()
	ctx := domain.NewCtxWithProfile(c.Request.Context(), profile)

	result, err := m.DcaService.Run(ctx, service.RunDcaInput{
		Config: *config,
	})
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	response := NewDcaResponse(*result)
	endProfile()
	if b, err := profile.ToJsonBytes(); err == nil {
		logger.FromContext(ctx).Debugw("dca profile", "spans", string(b))
	}

	c.JSON(200, response)
}

func NewDcaResponse(result domain.DcaRunResult) DcaResponse {
	out := DcaResponse{
		Assets:         []DcaAssetResult{},
		IndexedSeries:  []IndexedPoint{},
		AbsoluteSeries: []AbsolutePoint{},
	}

	for _, a := range result.Assets {
		asset := DcaAssetResult{
			Symbol:       a.Symbol,
			Transactions: []DcaTransaction{},
		}
		if a.Err != nil {
			asset.Error = util.StringPointer(a.Err.Error())
			out.Assets = append(out.Assets, asset)
			continue
		}

		r := a.Result
		asset.TotalInvested = r.TotalInvested.InexactFloat64()
		asset.UnitsHeld = r.UnitsHeld.InexactFloat64()
		asset.CurrentPrice = r.CurrentPrice.Price.InexactFloat64()
		asset.CurrentDate = util.FormatDate(r.CurrentPrice.Date)
		asset.CurrentValue = r.CurrentValue.InexactFloat64()
		asset.ROI = r.Metrics.ROI
		asset.CAGR = r.Metrics.CAGR
		asset.MaxDrawdown = r.Metrics.MaxDrawdown
		asset.Volatility = r.Metrics.Volatility
		for _, t := range r.Ledger {
			asset.Transactions = append(asset.Transactions, DcaTransaction{
				Date:               util.FormatDate(t.Date),
				Amount:             t.Amount.InexactFloat64(),
				Price:              t.Price.InexactFloat64(),
				Units:              t.Units.InexactFloat64(),
				CumulativeUnits:    t.CumulativeUnits.InexactFloat64(),
				CumulativeInvested: t.CumulativeInvested.InexactFloat64(),
				PortfolioValue:     t.PortfolioValue.InexactFloat64(),
			})
		}
		out.Assets = append(out.Assets, asset)
	}

	for _, p := range result.IndexedSeries {
		out.IndexedSeries = append(out.IndexedSeries, IndexedPoint{
			Date:   util.FormatDate(p.Date),
			Values: p.Values,
		})
	}

	for _, p := range result.AbsoluteSeries {
		values := map[string]AbsoluteValue{}
		for symbol, v := range p.Values {
			values[symbol] = AbsoluteValue{
				PortfolioValue: v.PortfolioValue.InexactFloat64(),
				Invested:       v.Invested.InexactFloat64(),
			}
		}
		out.AbsoluteSeries = append(out.AbsoluteSeries, AbsolutePoint{
			Date:   util.FormatDate(p.Date),
			Values: values,
		})
	}

	return out
}
