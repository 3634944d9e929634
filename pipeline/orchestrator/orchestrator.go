// Package orchestrator drives a full export run: it lists the owner's
// tables, filters them through an optional allow-list, fans them out over a
// bounded pool of isolated workers and collects exactly one outcome per
// table.
package orchestrator

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gear6io/oraport/pipeline/catalog"
	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pipeline/source"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/gear6io/oraport/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RunRequest selects what a run exports. An empty AllowList means every
// table of Owner; Workers <= 0 means the default pool size.
type RunRequest struct {
	Owner     string
	AllowList []string
	Workers   int
}

// Orchestrator lists tables through its own session and dispatches each
// table to a worker
type Orchestrator struct {
	connector  source.Connector
	dispatcher Dispatcher
	maxWorkers int
	logger     zerolog.Logger
}

func New(connector source.Connector, dispatcher Dispatcher, maxWorkers int, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		connector:  connector,
		dispatcher: dispatcher,
		maxWorkers: maxWorkers,
		logger:     logger.With().Str("component", "orchestrator").Logger(),
	}
}

// ResolveWorkers returns the pool size: min(NumCPU, max) when requested is
// unset, otherwise requested capped at max
func ResolveWorkers(requested, max int) int {
	if max < 1 {
		max = config.DEFAULT_MAX_WORKERS
	}
	if requested <= 0 {
		requested = runtime.NumCPU()
	}
	if requested > max {
		return max
	}
	return requested
}

// Run exports the selected tables. Only a failure to list tables aborts the
// run; every table-level failure is recorded in the report.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*Report, error) {
	report := &Report{
		RunID:   utils.NewRunID(),
		Owner:   strings.ToUpper(req.Owner),
		Started: time.Now(),
	}
	logger := o.logger.With().Str("run_id", report.RunID).Str("owner", report.Owner).Logger()

	available, err := o.listTables(ctx, report.Owner)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list tables")
		return nil, err
	}

	tables := selectTables(available, req.AllowList, logger)
	workers := ResolveWorkers(req.Workers, o.maxWorkers)
	report.Workers = workers

	logger.Info().
		Int("tables", len(tables)).
		Int("available", len(available)).
		Int("workers", workers).
		Msg("Starting export run")

	report.Outcomes = o.dispatchAll(ctx, tables, workers, logger)
	report.Duration = time.Since(report.Started)
	report.sort()

	for _, outcome := range report.Outcomes {
		event := logger.Info()
		if !outcome.OK() {
			event = logger.Warn().Str("error", outcome.Error).Str("code", outcome.Code)
		}
		event.
			Str("table", outcome.Table).
			Str("status", string(outcome.Status)).
			Int64("rows", outcome.Rows).
			Msg("Table status")
	}

	logger.Info().
		Int("succeeded", len(report.Succeeded())).
		Int("failed", len(report.Failed())).
		Int64("rows", report.TotalRows()).
		Dur("duration", report.Duration).
		Msg("Run completed")

	return report, nil
}

func (o *Orchestrator) listTables(ctx context.Context, owner string) ([]string, error) {
	db, err := o.connector.Connect(ctx)
	if err != nil {
		return nil, errors.New(ErrListTablesFailed, "failed to open session for table listing", err).AddContext("owner", owner)
	}
	defer source.Release(db, o.logger)

	tables, err := catalog.NewInspector(db).ListTables(ctx, owner)
	if err != nil {
		return nil, errors.New(ErrListTablesFailed, "failed to list tables", err).AddContext("owner", owner)
	}
	return tables, nil
}

// dispatchAll runs every table through the dispatcher with at most workers
// in flight and returns once all of them have reported
func (o *Orchestrator) dispatchAll(ctx context.Context, tables []string, workers int, logger zerolog.Logger) []Outcome {
	outcomes := make([]Outcome, len(tables))

	slots := make(chan int, workers)
	for id := 1; id <= workers; id++ {
		slots <- id
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, table := range tables {
		g.Go(func() error {
			id := <-slots
			defer func() { slots <- id }()

			logger.Debug().Int("worker_id", id).Str("table", table).Msg("Dispatching table")
			outcomes[i] = o.dispatch(ctx, table)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (o *Orchestrator) dispatch(ctx context.Context, table string) (outcome Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = workerFailed(table, errors.Newf(errors.CommonInternal, "dispatcher panicked: %v", r), start)
		}
	}()
	return o.dispatcher.Dispatch(ctx, table)
}

// selectTables intersects the catalog listing with the allow-list. Each
// table appears once, in catalog order.
func selectTables(available, allowList []string, logger zerolog.Logger) []string {
	seen := make(map[string]bool, len(available))
	if len(allowList) == 0 {
		var tables []string
		for _, t := range available {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
		return tables
	}

	allowed := make(map[string]bool, len(allowList))
	for _, t := range allowList {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			allowed[t] = true
		}
	}

	var tables []string
	for _, t := range available {
		upper := strings.ToUpper(t)
		if allowed[upper] && !seen[upper] {
			seen[upper] = true
			tables = append(tables, t)
		}
	}

	for t := range allowed {
		if !seen[t] {
			logger.Warn().Str("table", t).Msg("Allow-listed table not found in catalog")
		}
	}
	return tables
}

// Report aggregates the outcomes of one run
type Report struct {
	RunID    string
	Owner    string
	Workers  int
	Started  time.Time
	Duration time.Duration
	Outcomes []Outcome
}

func (r *Report) sort() {
	sort.Slice(r.Outcomes, func(i, j int) bool {
		return r.Outcomes[i].Table < r.Outcomes[j].Table
	})
}

func (r *Report) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

func (r *Report) TotalRows() int64 {
	var total int64
	for _, o := range r.Outcomes {
		total += o.Rows
	}
	return total
}
