package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gear6io/oraport/pipeline/exporter"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConnector struct {
	db  *sql.DB
	err error
}

func (c *mockConnector) Connect(ctx context.Context) (*sql.DB, error) {
	return c.db, c.err
}

func listingConnector(t *testing.T, owner string, tables ...string) *mockConnector {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"table_name"})
	for _, table := range tables {
		rows.AddRow(table)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT table_name FROM all_tables WHERE owner = :1")).
		WithArgs(owner).
		WillReturnRows(rows)
	mock.ExpectClose()
	return &mockConnector{db: db}
}

// fakeDispatcher fails the tables listed in failures and tracks concurrency
type fakeDispatcher struct {
	failures  map[string]bool
	panics    map[string]bool
	delay     time.Duration
	inFlight  int32
	maxFlight int32
	mu        sync.Mutex
	calls     map[string]int
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, table string) Outcome {
	n := atomic.AddInt32(&d.inFlight, 1)
	defer atomic.AddInt32(&d.inFlight, -1)
	for {
		max := atomic.LoadInt32(&d.maxFlight)
		if n <= max || atomic.CompareAndSwapInt32(&d.maxFlight, max, n) {
			break
		}
	}

	d.mu.Lock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[table]++
	d.mu.Unlock()

	time.Sleep(d.delay)

	if d.panics[table] {
		panic("dispatcher bug")
	}
	if d.failures[table] {
		return Outcome{Table: table, Status: exporter.StatusError, Error: "ORA-01722: invalid number", Code: "exporter.decode_failed"}
	}
	return Outcome{Table: table, Status: exporter.StatusOK, Rows: 10}
}

func tableNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("T%02d", n-i)
	}
	return names
}

func TestRunIsolatesPartialFailure(t *testing.T) {
	tables := tableNames(10)
	dispatcher := &fakeDispatcher{failures: map[string]bool{"T04": true}, delay: 5 * time.Millisecond}
	orch := New(listingConnector(t, "GISS", tables...), dispatcher, 4, zerolog.Nop())

	report, err := orch.Run(context.Background(), RunRequest{Owner: "giss", Workers: 4})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 10)
	assert.Len(t, report.Succeeded(), 9)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "T04", report.Failed()[0].Table)
	assert.Equal(t, int64(90), report.TotalRows())
	assert.Equal(t, "GISS", report.Owner)
	assert.NotEmpty(t, report.RunID)

	// sorted for display, each table dispatched exactly once
	assert.Equal(t, "T01", report.Outcomes[0].Table)
	assert.Equal(t, "T10", report.Outcomes[9].Table)
	for _, table := range tables {
		assert.Equal(t, 1, dispatcher.calls[table], table)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&dispatcher.maxFlight), int32(4))
}

func TestRunAllowListCompleteness(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	orch := New(listingConnector(t, "GISS", "GAVD", "ADRESSE", "BYGNING", "VEG"), dispatcher, 4, zerolog.Nop())

	report, err := orch.Run(context.Background(), RunRequest{
		Owner:     "GISS",
		AllowList: []string{"gavd", " veg ", "GAVD", "MISSING"},
	})
	require.NoError(t, err)

	var got []string
	for _, o := range report.Outcomes {
		got = append(got, o.Table)
	}
	assert.Equal(t, []string{"GAVD", "VEG"}, got)
	assert.Len(t, dispatcher.calls, 2)
}

func TestRunPanickingDispatcherBecomesOutcome(t *testing.T) {
	dispatcher := &fakeDispatcher{panics: map[string]bool{"B": true}}
	orch := New(listingConnector(t, "GISS", "A", "B", "C"), dispatcher, 2, zerolog.Nop())

	report, err := orch.Run(context.Background(), RunRequest{Owner: "GISS"})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, exporter.StatusError, report.Outcomes[1].Status)
	assert.Equal(t, ErrWorkerFailed.String(), report.Outcomes[1].Code)
	assert.True(t, report.Outcomes[0].OK())
	assert.True(t, report.Outcomes[2].OK())
}

func TestRunListingFailureIsFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery("all_tables").WillReturnError(fmt.Errorf("ORA-00942"))
	mock.ExpectClose()

	dispatcher := &fakeDispatcher{}
	orch := New(&mockConnector{db: db}, dispatcher, 4, zerolog.Nop())

	report, err := orch.Run(context.Background(), RunRequest{Owner: "GISS"})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.HasCode(err, ErrListTablesFailed))
	assert.Empty(t, dispatcher.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunConnectionFailureIsFatal(t *testing.T) {
	orch := New(&mockConnector{err: fmt.Errorf("no listener")}, &fakeDispatcher{}, 4, zerolog.Nop())
	_, err := orch.Run(context.Background(), RunRequest{Owner: "GISS"})
	assert.True(t, errors.HasCode(err, ErrListTablesFailed))
}

func TestRunEmptySchema(t *testing.T) {
	orch := New(listingConnector(t, "EMPTY"), &fakeDispatcher{}, 4, zerolog.Nop())
	report, err := orch.Run(context.Background(), RunRequest{Owner: "EMPTY"})
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
}

func TestResolveWorkers(t *testing.T) {
	assert.Equal(t, 2, ResolveWorkers(2, 4))
	assert.Equal(t, 4, ResolveWorkers(16, 4))
	assert.Equal(t, 8, ResolveWorkers(8, 8))
	assert.Equal(t, 1, ResolveWorkers(1, 0))

	auto := ResolveWorkers(0, 4)
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, 4)
}

func TestGoroutineDispatcherRecoversPanic(t *testing.T) {
	d := NewGoroutineDispatcher(panickingExporter{}, zerolog.Nop())
	outcome := d.Dispatch(context.Background(), "GAVD")
	assert.Equal(t, exporter.StatusError, outcome.Status)
	assert.Equal(t, ErrWorkerFailed.String(), outcome.Code)
	assert.Contains(t, outcome.Error, "nil map")
	assert.Contains(t, outcome.Error, "worker panicked")
}

type panickingExporter struct{}

func (panickingExporter) Export(ctx context.Context, table string) exporter.Outcome {
	var m map[string]int
	m[table]++
	return exporter.Outcome{}
}

func TestParseAllowList(t *testing.T) {
	input := "SCHEMA,TABLE\n# disabled\nGISS, gavd \n\nGISS,Veg\nGISS,GAVD\nGISS,\n"
	tables, err := ParseAllowList(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"GAVD", "VEG"}, tables)

	tables, err = ParseAllowList(strings.NewReader("adresse\nbygning,ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ADRESSE", "BYGNING"}, tables)
}

func TestReadAllowList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.csv")
	require.NoError(t, os.WriteFile(path, []byte("TABLE\nGAVD\n"), 0644))

	tables, err := ReadAllowList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"GAVD"}, tables)

	_, err = ReadAllowList(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.HasCode(err, ErrAllowListReadFail))

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("TABLE\n\"unterminated\n"), 0644))
	_, err = ReadAllowList(bad)
	assert.True(t, errors.HasCode(err, ErrAllowListParseFail))
}

// TestHelperProcess is the worker binary for the process dispatcher tests
func TestHelperProcess(t *testing.T) {
	if os.Getenv("ORAPORT_HELPER_PROCESS") != "1" {
		return
	}
	table := os.Args[len(os.Args)-1]
	switch table {
	case "CRASH":
		fmt.Fprintln(os.Stderr, "segmentation violation")
		os.Exit(2)
	case "GARBAGE":
		fmt.Println("not json")
		os.Exit(0)
	case "FAILED":
		json.NewEncoder(os.Stdout).Encode(Outcome{Table: table, Status: exporter.StatusError, Error: "ORA-01722", Code: "exporter.decode_failed"})
		os.Exit(1)
	default:
		fmt.Println("some log noise")
		json.NewEncoder(os.Stdout).Encode(Outcome{Table: table, Status: exporter.StatusOK, Rows: 42})
		os.Exit(0)
	}
}

func newHelperDispatcher(t *testing.T) *ProcessDispatcher {
	t.Helper()
	t.Setenv("ORAPORT_HELPER_PROCESS", "1")
	d, err := NewProcessDispatcher(os.Args[0], []string{"-test.run=TestHelperProcess", "--"}, zerolog.Nop())
	require.NoError(t, err)
	d.stderr = io.Discard
	return d
}

func TestProcessDispatcher(t *testing.T) {
	d := newHelperDispatcher(t)

	ok := d.Dispatch(context.Background(), "GAVD")
	require.True(t, ok.OK(), ok.Error)
	assert.Equal(t, int64(42), ok.Rows)

	failed := d.Dispatch(context.Background(), "FAILED")
	assert.Equal(t, exporter.StatusError, failed.Status)
	assert.Equal(t, "exporter.decode_failed", failed.Code)

	crashed := d.Dispatch(context.Background(), "CRASH")
	assert.Equal(t, exporter.StatusError, crashed.Status)
	assert.Equal(t, ErrWorkerFailed.String(), crashed.Code)
	assert.Equal(t, "CRASH", crashed.Table)

	garbage := d.Dispatch(context.Background(), "GARBAGE")
	assert.Equal(t, ErrWorkerFailed.String(), garbage.Code)
	assert.Contains(t, garbage.Error, "invalid worker outcome")
}

func TestParseOutcome(t *testing.T) {
	_, err := parseOutcome(nil)
	assert.True(t, errors.HasCode(err, ErrWorkerOutput))

	_, err = parseOutcome([]byte(`{"table":"A","status":"MAYBE"}`))
	assert.True(t, errors.HasCode(err, ErrWorkerOutput))

	_, err = parseOutcome([]byte("not json"))
	assert.True(t, errors.HasCode(err, ErrWorkerOutput))

	o, err := parseOutcome([]byte("noise\n{\"table\":\"A\",\"status\":\"OK\",\"rows\":3}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), o.Rows)
}
