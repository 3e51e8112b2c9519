// Package tracing records transactions as OpenTelemetry spans.
//
// A Tracer implements reactive.Hooks. Every transaction frame becomes a
// span; nested frames become child spans of the frame that contains them.
// Recomputation errors and detected cycles are recorded as events on the
// innermost open span.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given with WithTracerProvider. Configure it in main() before creating
// the runtime:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	rt := reactive.NewRuntime(reactive.WithHooks(tracing.New()))
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/derivable/pkg/reactive"
)

// Default tracer name.
const defaultTracerName = "derivable"

// Config configures the tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "derivable").
	TracerName string

	// Provider is the tracer provider. Default: otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Parent is the context root spans are started from.
	// Default: context.Background().
	Parent context.Context

	// Filter determines which transactions to trace by name.
	// If nil, all transactions are traced.
	Filter func(name string) bool

	// RecordRecomputes adds an event for every recomputation inside a
	// traced transaction, not only failed ones. Disabled by default.
	RecordRecomputes bool
}

// Option configures the tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithParent sets the context that outermost transaction spans are
// started from.
func WithParent(ctx context.Context) Option {
	return func(c *Config) {
		c.Parent = ctx
	}
}

// WithFilter sets a filter on transaction names.
func WithFilter(filter func(name string) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

// WithRecordRecomputes enables an event per recomputation.
func WithRecordRecomputes(enabled bool) Option {
	return func(c *Config) {
		c.RecordRecomputes = enabled
	}
}

// Tracer turns transaction frames into spans. It implements reactive.Hooks
// and, like the runtime that calls it, is not safe for concurrent use.
type Tracer struct {
	reactive.NopHooks

	config Config
	tracer trace.Tracer

	// frames mirrors the runtime's transaction stack. A filtered frame
	// holds the context of its parent and a nil span.
	frames []spanFrame
}

type spanFrame struct {
	ctx  context.Context
	span trace.Span
}

var _ reactive.Hooks = (*Tracer)(nil)

// New creates a tracer.
func New(opts ...Option) *Tracer {
	config := Config{
		TracerName: defaultTracerName,
		Parent:     context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracer{
		config: config,
		tracer: config.Provider.Tracer(config.TracerName),
	}
}

// Context returns the context of the innermost open transaction span, or
// the parent context when no transaction is open. Use it to propagate the
// trace to calls made from inside a transaction.
func (t *Tracer) Context() context.Context {
	if len(t.frames) == 0 {
		return t.config.Parent
	}
	return t.frames[len(t.frames)-1].ctx
}

// current returns the innermost recording span, or nil.
func (t *Tracer) current() trace.Span {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if s := t.frames[i].span; s != nil {
			return s
		}
	}
	return nil
}

// TxnBegin implements reactive.Hooks.
func (t *Tracer) TxnBegin(depth int, name string) {
	parent := t.Context()
	if t.config.Filter != nil && !t.config.Filter(name) {
		t.frames = append(t.frames, spanFrame{ctx: parent})
		return
	}

	spanName := "derivable.txn"
	if name != "" {
		spanName = "derivable.txn " + name
	}
	ctx, span := t.tracer.Start(parent, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("derivable.txn.name", name),
			attribute.Int("derivable.txn.depth", depth),
		),
		trace.WithTimestamp(time.Now()),
	)
	t.frames = append(t.frames, spanFrame{ctx: ctx, span: span})
}

// TxnEnd implements reactive.Hooks.
func (t *Tracer) TxnEnd(depth int, name string, outcome reactive.TxnOutcome, atoms int) {
	if len(t.frames) == 0 {
		return
	}
	f := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	if f.span == nil {
		return
	}

	f.span.SetAttributes(
		attribute.String("derivable.txn.outcome", outcome.String()),
		attribute.Int("derivable.txn.atoms", atoms),
	)
	if outcome == reactive.TxnAborted {
		f.span.SetStatus(codes.Error, "transaction aborted")
	} else {
		f.span.SetStatus(codes.Ok, "")
	}
	f.span.End()
}

// Recomputed implements reactive.Hooks.
func (t *Tracer) Recomputed(info reactive.NodeInfo, took time.Duration, changed bool, err error) {
	span := t.current()
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err, trace.WithAttributes(nodeAttrs(info)...))
		return
	}
	if t.config.RecordRecomputes {
		attrs := append(nodeAttrs(info),
			attribute.Bool("derivable.changed", changed),
			attribute.Int64("derivable.duration_ns", took.Nanoseconds()),
		)
		span.AddEvent("recompute", trace.WithAttributes(attrs...))
	}
}

// CycleDetected implements reactive.Hooks.
func (t *Tracer) CycleDetected(info reactive.NodeInfo) {
	if span := t.current(); span != nil {
		span.AddEvent("cycle", trace.WithAttributes(nodeAttrs(info)...))
	}
}

func nodeAttrs(info reactive.NodeInfo) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int64("derivable.node.id", int64(info.ID)),
		attribute.String("derivable.node.kind", info.Kind.String()),
	}
	if info.Name != "" {
		attrs = append(attrs, attribute.String("derivable.node.name", info.Name))
	}
	return attrs
}
