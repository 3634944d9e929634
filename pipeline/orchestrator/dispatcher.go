package orchestrator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gear6io/oraport/pipeline/exporter"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
)

// Outcome is the per-table result collected by the orchestrator
type Outcome = exporter.Outcome

// Dispatcher runs one table export in an isolated worker and always
// reports an Outcome for it
type Dispatcher interface {
	Dispatch(ctx context.Context, table string) Outcome
}

// TableExporter is implemented by *exporter.Exporter
type TableExporter interface {
	Export(ctx context.Context, table string) exporter.Outcome
}

// GoroutineDispatcher runs exports in-process. A panic escaping the
// exporter is turned into an ERROR outcome.
type GoroutineDispatcher struct {
	exporter TableExporter
	logger   zerolog.Logger
}

func NewGoroutineDispatcher(exp TableExporter, logger zerolog.Logger) *GoroutineDispatcher {
	return &GoroutineDispatcher{
		exporter: exp,
		logger:   logger.With().Str("dispatcher", "goroutine").Logger(),
	}
}

func (d *GoroutineDispatcher) Dispatch(ctx context.Context, table string) (outcome Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("table", table).Str("stack", string(debug.Stack())).Msg("Worker panicked")
			outcome = workerFailed(table, errors.Newf(ErrWorkerPanicked, "worker panicked: %v", r), start)
		}
	}()
	return d.exporter.Export(ctx, table)
}

// ProcessDispatcher re-executes a binary as a worker subprocess for each
// table. The child prints one JSON Outcome on stdout; its stderr is
// forwarded so child logs reach the console.
type ProcessDispatcher struct {
	executable string
	args       []string
	stderr     io.Writer
	logger     zerolog.Logger
}

// NewProcessDispatcher runs `<executable> <args...> <table>` per table. An
// empty executable means the running binary.
func NewProcessDispatcher(executable string, args []string, logger zerolog.Logger) (*ProcessDispatcher, error) {
	if executable == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, errors.New(ErrWorkerFailed, "failed to resolve worker executable", err)
		}
		executable = self
	}
	return &ProcessDispatcher{
		executable: executable,
		args:       args,
		stderr:     os.Stderr,
		logger:     logger.With().Str("dispatcher", "process").Logger(),
	}, nil
}

func (d *ProcessDispatcher) Dispatch(ctx context.Context, table string) Outcome {
	start := time.Now()

	args := append(append([]string{}, d.args...), table)
	cmd := exec.CommandContext(ctx, d.executable, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = d.stderr

	runErr := cmd.Run()

	outcome, parseErr := parseOutcome(stdout.Bytes())
	if parseErr == nil && strings.EqualFold(outcome.Table, table) {
		// A child that exported the table but exited non-zero still
		// reported its own outcome
		return outcome
	}

	cause := runErr
	if cause == nil {
		cause = parseErr
	}
	if cause == nil {
		cause = errors.New(ErrWorkerOutput, "worker reported another table", nil).AddContext("reported_table", outcome.Table)
	}

	d.logger.Error().
		Str("table", table).
		Err(cause).
		Msg("Worker process failed")
	return workerFailed(table, cause, start)
}

// parseOutcome reads the last JSON line a worker printed
func parseOutcome(out []byte) (Outcome, error) {
	var last string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if last == "" {
		return Outcome{}, errors.New(ErrWorkerOutput, "worker produced no outcome", nil)
	}

	var outcome Outcome
	if err := json.Unmarshal([]byte(last), &outcome); err != nil {
		return Outcome{}, errors.New(ErrWorkerOutput, "invalid worker outcome", err)
	}
	if outcome.Status != exporter.StatusOK && outcome.Status != exporter.StatusError {
		return Outcome{}, errors.New(ErrWorkerOutput, "invalid worker status", nil).AddContext("status", string(outcome.Status))
	}
	return outcome, nil
}

func workerFailed(table string, cause error, start time.Time) Outcome {
	err := errors.New(ErrWorkerFailed, "worker failed", cause).AddContext("table", table)
	return Outcome{
		Table:    table,
		Status:   exporter.StatusError,
		Error:    err.Error(),
		Code:     ErrWorkerFailed.String(),
		Duration: time.Since(start),
	}
}
