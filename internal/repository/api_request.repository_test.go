package repository

import (
	"dcabacktest/internal/db/models/postgres/public/model"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_insertApiRequestQuery(t *testing.T) {
	t.Run("leaves request_id to the database default", func(t *testing.T) {
		query, args := insertApiRequestQuery(model.APIRequest{
			Method:  "POST",
			Route:   "/dca",
			StartTs: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		}).Sql()

		insert, returning, ok := strings.Cut(query, "RETURNING")
		require.True(t, ok)
		require.NotContains(t, insert, "request_id")
		require.Contains(t, insert, "route")
		require.Contains(t, returning, "request_id")
		require.Contains(t, args, "/dca")
	})
}
