package exporter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/projection"
	"github.com/gear6io/oraport/pipeline/source"
	"github.com/gear6io/oraport/pipeline/storage"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	columnsQuery = `FROM all_tab_columns`
	gavdQuery    = `FROM "GISS"\."GAVD"`
)

type mockConnector struct {
	db  *sql.DB
	err error
}

func (c *mockConnector) Connect(ctx context.Context) (*sql.DB, error) {
	return c.db, c.err
}

type recordingSink struct {
	mu      sync.Mutex
	batches map[string]*storage.RowBatch
	err     error
	panic   bool
}

func (s *recordingSink) Write(ctx context.Context, identifier string, batch *storage.RowBatch) (string, error) {
	if s.panic {
		panic("sink exploded")
	}
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batches == nil {
		s.batches = make(map[string]*storage.RowBatch)
	}
	s.batches[identifier] = batch
	return "mem://" + identifier, nil
}

func (s *recordingSink) Close() error { return nil }

func newExporter(t *testing.T, sink storage.Sink) (*Exporter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	policy := projection.PolicyFromConfig(config.LoadDefaultConfig().Policy)
	return New(&mockConnector{db: db}, sink, "giss", policy, zerolog.Nop()), mock
}

func expectGAVDColumns(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(columnsQuery).
		WithArgs("GISS", "GAVD").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("ID", "NUMBER").
			AddRow("GEOM", "SDO_GEOMETRY").
			AddRow("NR1", "NUMBER").
			AddRow("NAVN", "VARCHAR2").
			AddRow("SE_ANNO_CAD_DATA", "BLOB"))
}

func TestExportGAVD(t *testing.T) {
	sink := &recordingSink{}
	exp, mock := newExporter(t, sink)

	expectGAVDColumns(mock)
	mock.ExpectQuery(`SELECT TO_CHAR\(CASE WHEN "ID" < -1e-06 THEN NULL ELSE "ID" END\) AS "ID", SDO_UTIL\.TO_WKTGEOMETRY\("GEOM"\) AS "GEOM_wkt", NVL\(TO_CHAR\("NR1"\), 'NULL'\) AS "NR1", "NAVN" ` + gavdQuery).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "GEOM_wkt", "NR1", "NAVN"}).
			AddRow("1", "POINT (10 60)", "NULL", "Gate").
			AddRow("2", go_ora.Clob{String: "POLYGON ((0 0, 1 0, 1 1, 0 0))", Valid: true}, "7", nil).
			AddRow(nil, go_ora.Clob{}, "NULL", "Vei"))
	mock.ExpectClose()

	outcome := exp.Export(context.Background(), "GAVD")

	require.True(t, outcome.OK(), outcome.Error)
	assert.Equal(t, "GAVD", outcome.Table)
	assert.Equal(t, int64(3), outcome.Rows)
	assert.Equal(t, "mem://gavd", outcome.Target)
	assert.Empty(t, outcome.Code)

	batch := sink.batches["gavd"]
	require.NotNil(t, batch)
	assert.Equal(t, "GEOM_wkt", batch.Columns[1].Name)
	assert.Equal(t, "POLYGON ((0 0, 1 0, 1 1, 0 0))", batch.Rows[1][1])
	assert.Nil(t, batch.Rows[2][1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportConnectionFailure(t *testing.T) {
	cause := errors.New(source.ErrConnectionFailed, "failed to connect to Oracle", fmt.Errorf("ORA-12541: no listener"))
	exp := New(&mockConnector{err: cause}, &recordingSink{}, "GISS", projection.Policy{}, zerolog.Nop())

	outcome := exp.Export(context.Background(), "GAVD")
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, "source.connection_failed", outcome.Code)
	assert.Contains(t, outcome.Error, "ORA-12541")
}

func TestExportLogEvents(t *testing.T) {
	var buf bytes.Buffer
	cause := errors.New(source.ErrConnectionFailed, "failed to connect to Oracle", fmt.Errorf("ORA-12541: no listener"))
	exp := New(&mockConnector{err: cause}, &recordingSink{}, "GISS", projection.Policy{}, zerolog.New(&buf))

	exp.Export(context.Background(), "GAVD")

	out := buf.String()
	assert.Contains(t, out, `"message":"Export started"`)
	assert.Contains(t, out, `"message":"Export failed"`)
	assert.Contains(t, out, `"code":"source.connection_failed"`)
}

func TestExportMetadataFailureReleasesSession(t *testing.T) {
	exp, mock := newExporter(t, &recordingSink{})

	mock.ExpectQuery(columnsQuery).WillReturnError(fmt.Errorf("ORA-01031: insufficient privileges"))
	mock.ExpectClose()

	outcome := exp.Export(context.Background(), "GAVD")
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, "catalog.query_failed", outcome.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportDecodeFailure(t *testing.T) {
	exp, mock := newExporter(t, &recordingSink{})

	expectGAVDColumns(mock)
	mock.ExpectQuery(gavdQuery).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "GEOM_wkt", "NR1", "NAVN"}).
			AddRow("1", nil, "NULL", "Gate").
			RowError(0, fmt.Errorf("ORA-01722: invalid number")))
	mock.ExpectClose()

	outcome := exp.Export(context.Background(), "GAVD")
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, ErrDecodeFailed.String(), outcome.Code)
	assert.Contains(t, outcome.Error, "ORA-01722")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportWriteFailure(t *testing.T) {
	exp, mock := newExporter(t, &recordingSink{err: fmt.Errorf("disk full")})

	expectGAVDColumns(mock)
	mock.ExpectQuery(gavdQuery).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "GEOM_wkt", "NR1", "NAVN"}).AddRow("1", nil, "NULL", "Gate"))
	mock.ExpectClose()

	outcome := exp.Export(context.Background(), "GAVD")
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, storage.ErrWriteFailed.String(), outcome.Code)
	assert.Zero(t, outcome.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRecoversPanicAndReleases(t *testing.T) {
	exp, mock := newExporter(t, &recordingSink{panic: true})

	expectGAVDColumns(mock)
	mock.ExpectQuery(gavdQuery).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "GEOM_wkt", "NR1", "NAVN"}).AddRow("1", nil, "NULL", "Gate"))
	mock.ExpectClose()

	var outcome Outcome
	require.NotPanics(t, func() { outcome = exp.Export(context.Background(), "GAVD") })
	assert.Equal(t, StatusError, outcome.Status)
	assert.Equal(t, ErrExportPanicked.String(), outcome.Code)
	assert.Contains(t, outcome.Error, "sink exploded")
	assert.Greater(t, int64(outcome.Duration), int64(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportEmptyProjection(t *testing.T) {
	exp, mock := newExporter(t, &recordingSink{})

	mock.ExpectQuery(columnsQuery).
		WithArgs("GISS", "ANNO").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("SE_ANNO_CAD_DATA", "BLOB"))
	mock.ExpectClose()

	outcome := exp.Export(context.Background(), "ANNO")
	assert.Equal(t, projection.ErrEmptyProjection.String(), outcome.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterializeColumnKinds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := mock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("OBJTYPE").OfType("NUMBER", int64(0)).WithPrecisionAndScale(10, 0),
		sqlmock.NewColumn("AREAL").OfType("NUMBER", float64(0)).WithPrecisionAndScale(12, 3),
		sqlmock.NewColumn("NAVN").OfType("VARCHAR2", ""),
	).AddRow(int64(3), 1.5, "Gate")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	result, err := db.Query("SELECT 1")
	require.NoError(t, err)
	defer result.Close()

	batch, err := Materialize(result, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.KindInt64, batch.Columns[0].Kind)
	assert.Equal(t, storage.KindFloat64, batch.Columns[1].Kind)
	assert.Equal(t, storage.KindString, batch.Columns[2].Kind)
	assert.Equal(t, "NUMBER", batch.Columns[0].DatabaseType)
	assert.Equal(t, []interface{}{int64(3), 1.5, "Gate"}, batch.Rows[0])
}

func TestMaterializeBinaryColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	blob := []byte{0xff, 0x00, 0xfe}
	rows := mock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("SE_ANNO_CAD_DATA").OfType(go_ora.OCIBlobLocator.String(), []byte{}),
		sqlmock.NewColumn("KOORD").OfType(go_ora.BDouble.String(), float64(0)),
		sqlmock.NewColumn("PAYLOAD").OfType("OPAQUE", []byte{}),
		sqlmock.NewColumn("MERKNAD").OfType(go_ora.OCIClobLocator.String(), ""),
	).AddRow(blob, 59.9, blob, "tekst")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	result, err := db.Query("SELECT 1")
	require.NoError(t, err)
	defer result.Close()

	batch, err := Materialize(result, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.KindBinary, batch.Columns[0].Kind)
	assert.Equal(t, storage.KindFloat64, batch.Columns[1].Kind)
	assert.Equal(t, storage.KindBinary, batch.Columns[2].Kind)
	assert.Equal(t, storage.KindString, batch.Columns[3].Kind)
	assert.Equal(t, blob, batch.Rows[0][0])
}

func TestResolveLargeObject(t *testing.T) {
	v, err := resolveLargeObject(go_ora.NClob{String: "æøå", Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "æøå", v)

	v, err = resolveLargeObject(go_ora.Blob{Data: []byte{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, v)

	v, err = resolveLargeObject(&go_ora.Clob{})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = resolveLargeObject(strings.NewReader("streamed"))
	require.NoError(t, err)
	assert.Equal(t, []byte("streamed"), v)

	_, err = resolveLargeObject(io.NopCloser(failingReader{}))
	assert.Error(t, err)

	v, err = resolveLargeObject(int64(4))
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, fmt.Errorf("lob read interrupted") }
