package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/kneutral-org/inventory-dashboard/internal/metrics"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

var (
	// ErrEmptyExpression is returned when an empty expression is provided.
	ErrEmptyExpression = errors.New("empty filter expression")

	// ErrCompilationFailed is returned when expression compilation fails.
	ErrCompilationFailed = errors.New("filter compilation failed")

	// ErrEvaluationFailed is returned when expression evaluation fails.
	ErrEvaluationFailed = errors.New("filter evaluation failed")

	// ErrNotBoolean is returned when expression does not return a boolean.
	ErrNotBoolean = errors.New("filter must return a boolean value")
)

// Filter is a compiled device filter expression.
type Filter struct {
	Expression string
	Program    cel.Program
}

// Evaluator compiles filter expressions, caching the compiled programs.
type Evaluator struct {
	env   *cel.Env
	cache *Cache
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithCacheCapacity sets the number of compiled filters kept.
func WithCacheCapacity(capacity int) EvaluatorOption {
	return func(e *Evaluator) {
		e.cache = NewCache(capacity)
	}
}

// NewEvaluator creates a new filter evaluator.
func NewEvaluator(opts ...EvaluatorOption) (*Evaluator, error) {
	env, err := NewEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Evaluator{env: env}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewCache(DefaultCacheCapacity)
	}
	return e, nil
}

// Compile returns the compiled filter for expression, from cache if possible.
func (e *Evaluator) Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, ErrEmptyExpression
	}

	if f := e.cache.Get(expression); f != nil {
		metrics.RecordCacheOperation("filters", "hit")
		return f, nil
	}
	metrics.RecordCacheOperation("filters", "miss")

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		metrics.RecordFilterCompilation("error")
		return nil, fmt.Errorf("%w: %v", ErrCompilationFailed, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		metrics.RecordFilterCompilation("error")
		return nil, fmt.Errorf("%w: got %s", ErrNotBoolean, ast.OutputType())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		metrics.RecordFilterCompilation("error")
		return nil, fmt.Errorf("%w: %v", ErrCompilationFailed, err)
	}

	f := &Filter{Expression: expression, Program: prg}
	e.cache.Put(f)
	metrics.RecordFilterCompilation("ok")
	return f, nil
}

// Match evaluates a compiled filter against one device.
func (e *Evaluator) Match(f *Filter, d topology.DeviceRef) (bool, error) {
	if f == nil || f.Program == nil {
		return false, errors.New("nil compiled filter")
	}

	result, _, err := f.Program.Eval(BuildActivation(d))
	if err != nil {
		return false, fmt.Errorf("%w: device %d: %v", ErrEvaluationFailed, d.ID(), err)
	}

	matched, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: result type is %T", ErrNotBoolean, result.Value())
	}
	return matched, nil
}

// Select returns the devices of t matching expression, in arena order. An
// empty expression selects every device.
func (e *Evaluator) Select(t *topology.Topology, expression string) ([]topology.DeviceRef, error) {
	if strings.TrimSpace(expression) == "" {
		return t.Devices(), nil
	}

	f, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	var evalErr error
	selected := t.DevicesFiltered(func(d topology.DeviceRef) bool {
		if evalErr != nil {
			return false
		}
		matched, err := e.Match(f, d)
		if err != nil {
			evalErr = err
			return false
		}
		return matched
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return selected, nil
}

// Validate checks that expression compiles to a boolean filter.
func (e *Evaluator) Validate(expression string) error {
	_, err := e.Compile(expression)
	return err
}
