// Package observability sets up OpenTelemetry tracing for benchmark runs and
// ties log lines to the active span.
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/lockfreepool"

var (
	tracerMu sync.RWMutex
	tracer   trace.Tracer
)

func setTracer(t trace.Tracer) {
	tracerMu.Lock()
	tracer = t
	tracerMu.Unlock()
}

// GetTracer returns the tracer installed by InitTracing, or the global
// otel tracer if InitTracing was never called.
func GetTracer() trace.Tracer {
	tracerMu.RLock()
	t := tracer
	tracerMu.RUnlock()
	if t == nil {
		return otel.Tracer(instrumentationName)
	}
	return t
}

// Span wraps a trace.Span and buffers attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span named operationName.
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := GetTracer().Start(ctx, operationName)

	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case uint64:
		attr = attribute.Int64(key, int64(v))
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	case time.Duration:
		attr = attribute.Int64(key, v.Nanoseconds())
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetStatus sets the span status
func (s *Span) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// RecordError marks the span as failed. A nil err sets status Ok.
func (s *Span) RecordError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Elapsed returns the time since the span started.
func (s *Span) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// End flushes buffered attributes and ends the span.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// ScenarioTracer names spans after the pool variant and scenario they time.
type ScenarioTracer struct {
	run string
}

// NewScenarioTracer creates a tracer for the benchmark run named run.
func NewScenarioTracer(run string) *ScenarioTracer {
	return &ScenarioTracer{run: run}
}

// StartSpan starts a "<variant>.<scenario>" span.
func (st *ScenarioTracer) StartSpan(ctx context.Context, variant, scenario string) (context.Context, *Span) {
	ctx, span := NewSpan(ctx, variant+"."+scenario)

	span.SetAttribute("bench.run", st.run)
	span.SetAttribute("pool.variant", variant)
	span.SetAttribute("bench.scenario", scenario)

	return ctx, span
}

// Trace runs fn inside a scenario span and records its outcome.
func (st *ScenarioTracer) Trace(ctx context.Context, variant, scenario string, fn func(ctx context.Context, span *Span) error) error {
	ctx, span := st.StartSpan(ctx, variant, scenario)
	defer span.End()

	err := fn(ctx, span)
	span.RecordError(err)
	return err
}
