//go:build integration

package loader

import (
	"context"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omfgitsmark/mtgsqlive/internal/data"
	"github.com/omfgitsmark/mtgsqlive/internal/mapper"
	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

// Requires a disposable database: every mtgsqlive table in it is dropped.
func TestMySQLLoad(t *testing.T) {
	dsn := os.Getenv("MTGSQLIVE_MYSQL_DSN")
	if dsn == "" {
		t.Skip("integration: set MTGSQLIVE_MYSQL_DSN to run")
	}
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	host, port, err := ParseServer(cfg.Addr)
	require.NoError(t, err)

	ctx := context.Background()
	db, err := Open(ctx, Target{Host: host, Port: port, User: cfg.User, Password: cfg.Passwd, Database: cfg.DBName}, Options{})
	require.NoError(t, err)
	defer Close(db)

	models := data.Models()
	slices.Reverse(models)
	require.NoError(t, db.Migrator().DropTable(models...))

	s, err := schema.Define(data.Models()...)
	require.NoError(t, err)
	m, err := mapper.New(s, true)
	require.NoError(t, err)
	l := New(db, s, WithBatchSize(2))
	require.NoError(t, l.EnsureSchema(ctx))
	require.NoError(t, l.EnsureSchema(ctx), "existing MySQL column types are accepted")

	var records []mapper.Record
	for _, raw := range []mtgjson.Record{decode[mtgjson.Set](t, setJSON), decode[mtgjson.Card](t, cardJSON), decode[mtgjson.Token](t, tokenJSON)} {
		rec, err := m.Map(raw)
		require.NoError(t, err)
		records = append(records, rec)
	}

	for range 2 {
		report, err := l.Load(ctx, slices.Values(records))
		require.NoError(t, err)
		assert.Equal(t, 3, report.Loaded)
		assert.Zero(t, report.Failed)
	}

	card, err := l.Card(ctx, "5f8287b1-5bb6-5f4c-ad17-316a40d5bb0c")
	require.NoError(t, err)
	assert.Equal(t, decode[mtgjson.Card](t, cardJSON), card)
	require.Len(t, card.Rulings, 2)
	assert.Greater(t, len(*card.Rulings[1].Text), stringSize, "long ruling text is stored whole")
	assert.Greater(t, len(*card.Text), stringSize)

	for table, column := range map[string]string{"cards": "text", "card_rulings": "text", "card_foreign_data": "text"} {
		columnTypes, err := db.Migrator().ColumnTypes(table)
		require.NoError(t, err)
		for _, ct := range columnTypes {
			if ct.Name() == column {
				assert.Equal(t, "TEXT", strings.ToUpper(ct.DatabaseTypeName()), table+"."+column)
			}
		}
	}

	var n int64
	require.NoError(t, db.Model(&data.CardRuling{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}
