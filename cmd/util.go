package cmd

import (
	"database/sql"
	"dcabacktest/api"
	"dcabacktest/internal/logger"
	"dcabacktest/internal/repository"
	"dcabacktest/internal/service"
	"dcabacktest/internal/util"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

func CloseDependencies(handler *api.ApiHandler) {
	if handler.Db == nil {
		return
	}
	err := handler.Db.Close()
	if err != nil {
		log.Fatalf("failed to close db: %v", err)
	}
}

func InitializeDependencies() (*api.ApiHandler, *util.Secrets, error) {
	secrets, err := util.LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	dbConn, err := sql.Open("postgres", secrets.Db.ToConnectionStr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	priceRepository := repository.NewAdjustedPriceRepository(dbConn)

	var alpacaRepository repository.AlpacaRepository
	if secrets.Alpaca.Enabled() {
		alpacaRepository = repository.NewAlpacaRepository(secrets.Alpaca.ApiKey, secrets.Alpaca.ApiSecret, secrets.Alpaca.Endpoint)
	} else {
		logger.New().Info("alpaca credentials not set, latest quotes disabled")
	}

	priceService := service.NewPriceService(priceRepository, alpacaRepository)
	dcaService := service.NewDcaService(priceService)

	apiHandler := &api.ApiHandler{
		Db:                   dbConn,
		DcaService:           dcaService,
		PriceService:         priceService,
		ApiRequestRepository: repository.ApiRequestRepositoryHandler{},
	}

	return apiHandler, secrets, nil
}
