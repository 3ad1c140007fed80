package integration_tests

import (
	"bytes"
	"database/sql"
	"dcabacktest/api"
	"dcabacktest/internal/domain"
	"dcabacktest/internal/repository"
	"dcabacktest/internal/service"
	"dcabacktest/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "dcabacktest/internal/db/models/postgres/public/table"

	"github.com/gin-gonic/gin"
	"github.com/go-jet/jet/v2/postgres"
	"github.com/gocarina/gocsv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testSymbols = []string{"ITEST_A", "ITEST_B"}

func setupDb(t *testing.T) *sql.DB {
	t.Helper()
	db, err := util.NewTestDb()
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("test db unavailable: %s", err.Error())
	}

	schema, err := os.ReadFile("../migrations/schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func seedPrices(db *sql.DB) error {
	f, err := os.Open("sample_prices.csv")
	if err != nil {
		return err
	}
	defer f.Close()

	type Row struct {
		Date   string  `csv:"date"`
		Symbol string  `csv:"symbol"`
		Price  float64 `csv:"price"`
	}
	rows := []Row{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return err
	}

	prices := []domain.AssetPrice{}
	for _, row := range rows {
		date, err := util.ParseDate(row.Date)
		if err != nil {
			return err
		}
		prices = append(prices, domain.AssetPrice{
			Symbol: row.Symbol,
			Date:   date,
			Price:  decimal.NewFromFloat(row.Price),
		})
	}

	return repository.NewAdjustedPriceRepository(db).Add(prices)
}

func cleanup(db *sql.DB) error {
	symbols := []postgres.Expression{}
	for _, s := range testSymbols {
		symbols = append(symbols, postgres.String(s))
	}
	_, err := AdjustedPrice.DELETE().
		WHERE(AdjustedPrice.Symbol.IN(symbols...)).
		Exec(db)
	return err
}

func hitEndpoint(t *testing.T, engine *gin.Engine, route string, payload interface{}, target interface{}) int {
	t.Helper()
	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, route, bytes.NewReader(payloadBytes))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if target != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
	}
	return w.Code
}

func Test_dcaFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupDb(t)
	defer db.Close()

	require.NoError(t, cleanup(db))
	defer cleanup(db)
	require.NoError(t, seedPrices(db))

	priceService := service.NewPriceService(repository.NewAdjustedPriceRepository(db), nil)
	handler := api.ApiHandler{
		Db:                   db,
		DcaService:           service.NewDcaService(priceService),
		PriceService:         priceService,
		ApiRequestRepository: repository.ApiRequestRepositoryHandler{},
	}
	engine := handler.InitializeRouterEngine()

	request := api.DcaRequest{
		Amount:    100,
		Frequency: "monthly",
		Start:     "2020-01-01",
		End:       "2020-12-01",
		Symbols:   testSymbols,
	}
	response := api.DcaResponse{}
	code := hitEndpoint(t, engine, "/dca", request, &response)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, response.Assets, 2)

	a := response.Assets[0]
	require.Equal(t, "ITEST_A", a.Symbol)
	require.Nil(t, a.Error)
	require.Len(t, a.Transactions, 12)
	require.Equal(t, 1200.0, a.TotalInvested)
	require.Equal(t, 160.0, a.CurrentPrice)
	require.Equal(t, "2020-12-01", a.CurrentDate)
	require.Greater(t, a.MaxDrawdown, 0.0)
	require.LessOrEqual(t, a.MaxDrawdown, 1.0)
	require.Greater(t, a.ROI, 0.0)

	// history begins after the first contribution
	b := response.Assets[1]
	require.Equal(t, "ITEST_B", b.Symbol)
	require.NotNil(t, b.Error)

	require.Len(t, response.IndexedSeries, 12)
	require.Equal(t, 100.0, response.IndexedSeries[0].Values["ITEST_A"])

	// the request was audited
	var count int
	err := db.QueryRow(
		`SELECT count(*) FROM api_request WHERE route = '/dca' AND status_code = 200 AND start_ts > now() - interval '5 minutes'`,
	).Scan(&count)
	require.NoError(t, err)
	require.GreaterOrEqual(t, count, 1)

	stats, err := repository.GetUsageStats(db)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.SimulationsRun, 1)
	require.GreaterOrEqual(t, stats.SymbolsStored, 2)
}
