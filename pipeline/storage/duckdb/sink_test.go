package duckdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableSQL(t *testing.T) {
	columns := []storage.BatchColumn{
		{Name: "ID", Kind: storage.KindInt64},
		{Name: "GEOM_wkt", Kind: storage.KindString},
		{Name: "AREAL", Kind: storage.KindFloat64},
		{Name: "ENDRET", Kind: storage.KindTimestamp},
		{Name: "BILDE", Kind: storage.KindBinary},
	}
	want := `CREATE OR REPLACE TABLE "oracle_giss"."gavd" ("ID" BIGINT, "GEOM_wkt" VARCHAR, "AREAL" DOUBLE, "ENDRET" TIMESTAMP, "BILDE" BLOB)`
	assert.Equal(t, want, CreateTableSQL("oracle_giss", "gavd", columns))
}

func TestSinkWriteAndReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle_giss.duckdb")
	sink, err := NewSink(config.DuckDBConfig{Path: path}, zerolog.Nop())
	require.NoError(t, err)

	batch := &storage.RowBatch{
		Columns: []storage.BatchColumn{
			{Name: "ID", Kind: storage.KindString},
			{Name: "GEOM_wkt", Kind: storage.KindString},
			{Name: "OBJTYPE", Kind: storage.KindInt64},
			{Name: "ENDRET", Kind: storage.KindTimestamp},
		},
		Rows: [][]interface{}{
			{"1", "POINT (10 60)", int64(2), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{"2", nil, "3", nil},
		},
	}

	target, err := sink.Write(context.Background(), "gavd", batch)
	require.NoError(t, err)
	assert.Equal(t, "oracle_giss.gavd", target)

	// A re-run replaces the table instead of appending
	batch.Rows = batch.Rows[:1]
	_, err = sink.Write(context.Background(), "gavd", batch)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM oracle_giss.gavd").Scan(&count))
	assert.Equal(t, 1, count)

	var wkt string
	require.NoError(t, db.QueryRow(`SELECT "GEOM_wkt" FROM oracle_giss.gavd`).Scan(&wkt))
	assert.Equal(t, "POINT (10 60)", wkt)
}

func TestSinkEmptyBatchCreatesTable(t *testing.T) {
	sink, err := NewSink(config.DuckDBConfig{Path: filepath.Join(t.TempDir(), "x.duckdb"), Schema: "staging"}, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()

	target, err := sink.Write(context.Background(), "tom", &storage.RowBatch{
		Columns: []storage.BatchColumn{{Name: "ID", Kind: storage.KindInt64}},
	})
	require.NoError(t, err)
	assert.Equal(t, "staging.tom", target)

	var count int
	require.NoError(t, sink.db.QueryRow("SELECT count(*) FROM staging.tom").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestCreateTableSQLQuotesOracleNames(t *testing.T) {
	columns := []storage.BatchColumn{{Name: `NR"1`, Kind: storage.KindString}}
	want := `CREATE OR REPLACE TABLE "oracle_giss"."gavd#hist" ("NR""1" VARCHAR)`
	assert.Equal(t, want, CreateTableSQL("oracle_giss", "gavd#hist", columns))
}

func TestSinkWritesOracleSpecificTableNames(t *testing.T) {
	sink, err := NewSink(config.DuckDBConfig{Path: filepath.Join(t.TempDir(), "names.duckdb")}, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()

	batch := &storage.RowBatch{
		Columns: []storage.BatchColumn{{Name: "ID", Kind: storage.KindInt64}},
		Rows:    [][]interface{}{{int64(1)}, {int64(2)}},
	}

	for _, table := range []string{storage.Identifier("GAVD#HIST"), storage.Identifier("KOST$"), storage.Identifier("ORDER")} {
		t.Run(table, func(t *testing.T) {
			target, err := sink.Write(context.Background(), table, batch)
			require.NoError(t, err)
			assert.Equal(t, "oracle_giss."+table, target)

			var count int
			query := `SELECT count(*) FROM "oracle_giss".` + quoteIdentifier(table)
			require.NoError(t, sink.db.QueryRow(query).Scan(&count))
			assert.Equal(t, 2, count)
		})
	}
}

func TestSinkRejectsBadIdentifiers(t *testing.T) {
	_, err := NewSink(config.DuckDBConfig{Path: filepath.Join(t.TempDir(), "x.duckdb"), Schema: "bad schema"}, zerolog.Nop())
	assert.True(t, errors.HasCode(err, ErrInvalidIdentifier))

	sink, err := NewSink(config.DuckDBConfig{Path: filepath.Join(t.TempDir(), "y.duckdb")}, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.Write(context.Background(), "gavd; drop", &storage.RowBatch{})
	assert.True(t, errors.HasCode(err, ErrInvalidIdentifier))
}

func TestSinkConversionFailure(t *testing.T) {
	sink, err := NewSink(config.DuckDBConfig{Path: filepath.Join(t.TempDir(), "z.duckdb")}, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.Write(context.Background(), "bad", &storage.RowBatch{
		Columns: []storage.BatchColumn{{Name: "N", Kind: storage.KindInt64}},
		Rows:    [][]interface{}{{"abc"}},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, storage.ErrWriteFailed))
	assert.True(t, errors.HasCode(err, ErrValueConversionFail))
}
