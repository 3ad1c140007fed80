package api

import (
	"dcabacktest/internal/domain"
	"dcabacktest/internal/util"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

type updatePricesRequest struct {
	Symbols []string `json:"symbols"`
	Start   *string  `json:"start"`
}

func (m ApiHandler) updatePrices(c *gin.Context) {
	var requestBody updatePricesRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, 400)
		return
	}

	symbols := domain.NormalizeSymbols(requestBody.Symbols)
	if len(symbols) == 0 {
		returnErrorJsonCode(fmt.Errorf("at least one symbol is required"), c, 400)
		return
	}

	var start *time.Time
	if requestBody.Start != nil {
		s, err := util.ParseDate(*requestBody.Start)
		if err != nil {
			returnErrorJsonCode(fmt.Errorf("could not parse start date: %w", err), c, 400)
			return
		}
		start = &s
	}

	err := m.PriceService.IngestPrices(c.Request.Context(), symbols, start)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, map[string]string{
		"message": "ok",
	})
}
