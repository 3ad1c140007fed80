package repository

import (
	"database/sql"
	"fmt"
)

type UsageStats struct {
	UniqueClients  int `json:"uniqueClients"`
	SimulationsRun int `json:"simulations"`
	SymbolsStored  int `json:"symbolsStored"`
}

func GetUsageStats(tx *sql.DB) (*UsageStats, error) {
	query := `select
	(select count(distinct ip_address) from api_request) as "distinct_clients",
	(select count(*) from api_request where route = '/dca' and status_code = 200) as "num_simulations_run",
	(select count(distinct symbol) from adjusted_price) as "distinct_symbols";`

	row := tx.QueryRow(query)

	out := UsageStats{}

	err := row.Scan(&out.UniqueClients, &out.SimulationsRun, &out.SymbolsStored)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	return &out, nil
}
