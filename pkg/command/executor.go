// Package command implements the Command Executor: parsing a single command
// line, dispatching it to the registry and/or join engine, and producing the
// response lines (zero or more result rows followed by exactly one OK/ERR
// status line).
package command

import (
	"strconv"
	"time"

	"github.com/bobboyms/joinstore/pkg/dberrors"
	"github.com/bobboyms/joinstore/pkg/join"
	"github.com/bobboyms/joinstore/pkg/registry"
	"github.com/bobboyms/joinstore/pkg/table"
)

// Metrics receives counts and durations for executed commands. Executor
// works with a nil Metrics (all calls become no-ops), so tests and simple
// embeddings don't need a telemetry wiring to use it.
type Metrics interface {
	ObserveCommand(verb string, ok bool)
	ObserveJoinDuration(op string, d time.Duration)
	SetTableRows(name string, rows int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCommand(string, bool)               {}
func (noopMetrics) ObserveJoinDuration(string, time.Duration) {}
func (noopMetrics) SetTableRows(string, int)                  {}

// Executor dispatches parsed command lines against a Registry.
type Executor struct {
	registry *registry.Registry
	metrics  Metrics
}

// NewExecutor returns an Executor bound to reg. A nil metrics disables
// telemetry.
func NewExecutor(reg *registry.Registry, metrics Metrics) *Executor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Executor{registry: reg, metrics: metrics}
}

// Execute runs one command line and returns its full response: zero or more
// result rows, followed by exactly one "OK" or "ERR <message>" line. It
// never panics on malformed input; every recognized failure mode is
// converted to a trailing ERR line instead.
func (e *Executor) Execute(line string) []string {
	tokens := Tokenize(line)

	rows, err := e.dispatch(tokens)
	verb := ""
	if len(tokens) > 0 {
		verb = tokens[0]
	}
	e.metrics.ObserveCommand(verb, err == nil)

	if err != nil {
		return append(rows, "ERR "+err.Error())
	}
	return append(rows, "OK")
}

func (e *Executor) dispatch(tokens []string) ([]string, error) {
	if len(tokens) == 0 || tokens[0] == "" {
		return nil, dberrors.NewEmptyCommand()
	}

	switch tokens[0] {
	case "INSERT":
		return nil, e.insert(tokens)
	case "TRUNCATE":
		return nil, e.truncate(tokens)
	case "INTERSECTION":
		if len(tokens) != 1 {
			return nil, dberrors.NewParamCount("INTERSECTION", len(tokens), 1)
		}
		return e.join("intersection", join.Intersection)
	case "SYMMETRIC_DIFFERENCE":
		if len(tokens) != 1 {
			return nil, dberrors.NewParamCount("SYMMETRIC_DIFFERENCE", len(tokens), 1)
		}
		return e.join("symmetric_difference", join.SymmetricDifference)
	case "PAUSED_IN_SYMMETRIC_DIFFERENCE":
		return e.pausedSymmetricDifference(tokens)
	default:
		return nil, dberrors.NewUnsupportedCommand(tokens[0])
	}
}

func (e *Executor) insert(tokens []string) error {
	if len(tokens) != 4 {
		return dberrors.NewParamCount("INSERT", len(tokens), 4)
	}
	tbl, idxField, value := tokens[1], tokens[2], tokens[3]

	key, err := strconv.ParseUint(idxField, 10, 64)
	if err != nil {
		return dberrors.NewParseDigit(idxField)
	}

	t, err := e.registry.Get(tbl)
	if err != nil {
		return err
	}
	if err := t.Insert(key, value); err != nil {
		return err
	}
	e.metrics.SetTableRows(tbl, t.Len())
	return nil
}

func (e *Executor) truncate(tokens []string) error {
	if len(tokens) != 2 {
		return dberrors.NewParamCount("TRUNCATE", len(tokens), 2)
	}
	name := tokens[1]
	if err := e.registry.Truncate(name); err != nil {
		return err
	}
	e.metrics.SetTableRows(name, 0)
	return nil
}

func (e *Executor) join(op string, fn func(l, r *table.Table, sink join.Sink)) ([]string, error) {
	l, err := e.registry.Get(registry.A)
	if err != nil {
		return nil, err
	}
	r, err := e.registry.Get(registry.B)
	if err != nil {
		return nil, err
	}

	var rows []string
	start := time.Now()
	fn(l, r, func(row string) { rows = append(rows, row) })
	e.metrics.ObserveJoinDuration(op, time.Since(start))
	return rows, nil
}

func (e *Executor) pausedSymmetricDifference(tokens []string) ([]string, error) {
	if len(tokens) != 2 {
		return nil, dberrors.NewParamCount("PAUSED_IN_SYMMETRIC_DIFFERENCE", len(tokens), 2)
	}
	seconds, err := strconv.ParseUint(tokens[1], 10, 64)
	if err != nil {
		return nil, dberrors.NewParseDigit(tokens[1])
	}

	l, err := e.registry.Get(registry.A)
	if err != nil {
		return nil, err
	}
	r, err := e.registry.Get(registry.B)
	if err != nil {
		return nil, err
	}

	var rows []string
	start := time.Now()
	join.PausedSymmetricDifference(l, r, func(row string) { rows = append(rows, row) }, time.Duration(seconds)*time.Second)
	e.metrics.ObserveJoinDuration("paused_in_symmetric_difference", time.Since(start))
	return rows, nil
}
