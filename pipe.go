package funcpipes

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Name identifies a pipe in error paths, spans, and events.
type Name string

// Metric keys for pipe observability.
const (
	PipeProcessedTotal = metricz.Key("pipe.processed.total")
	PipeSuccessesTotal = metricz.Key("pipe.successes.total")
	PipeFailuresTotal  = metricz.Key("pipe.failures.total")
	ScopeEnteredTotal  = metricz.Key("pipe.scope.entered.total")
	ScopeReleasedTotal = metricz.Key("pipe.scope.released.total")
)

// Span names and tags for pipe tracing.
const (
	PipeProcessSpan = tracez.Key("pipe.process")
	PipeScopeSpan   = tracez.Key("pipe.scope")

	PipeTagName    = tracez.Tag("pipe.name")
	PipeTagSuccess = tracez.Tag("pipe.success")
	PipeTagError   = tracez.Tag("pipe.error")
)

// Hook event keys.
const (
	PipeEventProcessed     = hookz.Key("pipe.processed")
	PipeEventScopeEntered  = hookz.Key("pipe.scope.entered")
	PipeEventScopeReleased = hookz.Key("pipe.scope.released")
)

// PipeEvent captures one pipe application or scope transition. It is emitted
// via hookz so external systems can track pipeline activity.
type PipeEvent struct {
	Name      Name          // Pipe name
	Success   bool          // Whether the application succeeded
	Error     error         // Error if the application failed
	Resources int           // Resources entered/released (scope events only)
	Duration  time.Duration // Processing time
	Timestamp time.Time     // When the event occurred
}

// Pipe wraps a callable and adds named transformations: partial application,
// argument reordering, mapping over an iterable, sequential composition, and
// scoped-resource entry. Every transformation returns a new Pipe; a Pipe is
// immutable after construction.
//
// A pipe is applied with Process. Resolve gathers the call's arguments into a
// bundle first, so a chain can either pass a single pre-built *Args through
// unmodified or lazily collect loose arguments.
//
// # Observability
//
// Each pipe carries its own metrics registry, tracer, and hooks:
//
// Metrics:
//   - pipe.processed.total: Counter of applications
//   - pipe.successes.total: Counter of successful applications
//   - pipe.failures.total: Counter of failed applications
//   - pipe.scope.entered.total: Counter of resources entered
//   - pipe.scope.released.total: Counter of resources released
//
// Traces:
//   - pipe.process: Span for one application
//   - pipe.scope: Span for resource entry around a scoped call
//
// Events (via hooks):
//   - pipe.processed: Fired after every application
//   - pipe.scope.entered / pipe.scope.released: Fired around scoped resources
type Pipe struct {
	name    Name
	desc    string
	target  Target
	partial *partialState

	// Observability
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[PipeEvent]
	clock   clockz.Clock
}

// partialState records how a curried pipe was built, so the scoped-entry
// protocol can re-bind entered resources against the same base pipe.
type partialState struct {
	base  *Pipe
	bound *Args
}

// New wraps fn as a pipe. It fails with ErrNotCallable if fn cannot be lifted
// into a callable target.
func New(name Name, fn any) (*Pipe, error) {
	target, err := Lift(fn)
	if err != nil {
		return nil, err
	}
	return newPipe(name, target, nil), nil
}

// Must is New but panics on a non-callable value. Use it for package-level
// pipes wrapping values known to be functions.
func Must(name Name, fn any) *Pipe {
	p, err := New(name, fn)
	if err != nil {
		panic(err)
	}
	return p
}

// Identity collects its arguments into an *Args bundle and returns it. It is
// the do-nothing pipe: piping a bundle through it yields an equal bundle, and
// other pipes can be chained onto it to begin a pipeline.
var Identity = Must("identity", func(_ context.Context, call *Args) (any, error) {
	return call, nil
})

func newPipe(name Name, target Target, clock clockz.Clock) *Pipe {
	registry := metricz.New()
	registry.Counter(PipeProcessedTotal)
	registry.Counter(PipeSuccessesTotal)
	registry.Counter(PipeFailuresTotal)
	registry.Counter(ScopeEnteredTotal)
	registry.Counter(ScopeReleasedTotal)

	return &Pipe{
		name:    name,
		target:  target,
		metrics: registry,
		tracer:  tracez.New(),
		hooks:   hookz.New[PipeEvent](),
		clock:   clock,
	}
}

// derive builds a transformed child pipe. The child gets fresh observability
// components but inherits the parent's clock.
func (p *Pipe) derive(suffix string, target Target) *Pipe {
	return newPipe(p.name+Name("."+suffix), target, p.clock)
}

// Process applies the pipe: the arguments are resolved into a bundle via
// Resolve, the bundle is applied against the underlying target, and the
// target's result is returned. Failures are wrapped into *Error with this
// pipe's name prepended to the path; the underlying error stays reachable
// through errors.Is and errors.As.
func (p *Pipe) Process(ctx context.Context, args ...any) (result any, err error) {
	clock := p.getClock()
	start := clock.Now()

	ctx, span := p.tracer.StartSpan(ctx, PipeProcessSpan)
	span.SetTag(PipeTagName, string(p.name))

	p.metrics.Counter(PipeProcessedTotal).Inc()

	// Runs after the panic recovery below, so a recovered panic is
	// counted and emitted like any other failure.
	defer func() {
		if err != nil {
			p.metrics.Counter(PipeFailuresTotal).Inc()
			span.SetTag(PipeTagSuccess, "false")
			span.SetTag(PipeTagError, err.Error())
		} else {
			p.metrics.Counter(PipeSuccessesTotal).Inc()
			span.SetTag(PipeTagSuccess, "true")
		}
		span.Finish()

		_ = p.hooks.Emit(ctx, PipeEventProcessed, PipeEvent{ //nolint:errcheck
			Name:      p.name,
			Success:   err == nil,
			Error:     err,
			Duration:  clock.Now().Sub(start),
			Timestamp: clock.Now(),
		})
	}()
	defer recoverFromPanic(&result, &err, p.name, args)

	call, err := Resolve(args...)
	if err == nil {
		result, err = call.Apply(ctx, p.target)
	}
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			perr.Path = append([]Name{p.name}, perr.Path...)
		} else {
			err = &Error{
				Path:      []Name{p.name},
				InputArgs: args,
				Err:       err,
				Timestamp: clock.Now(),
				Duration:  clock.Now().Sub(start),
				Timeout:   errors.Is(err, context.DeadlineExceeded),
				Canceled:  errors.Is(err, context.Canceled),
			}
		}
		return nil, err
	}
	return result, nil
}

// Flow pipes value through the given pipes left to right, so
// Flow(ctx, x, p, q) is q.Process(ctx, p.Process(ctx, x)). It is the named
// spelling of the original pipeline notation "x | p | q".
func Flow(ctx context.Context, value any, pipes ...*Pipe) (any, error) {
	result := value
	for _, p := range pipes {
		var err error
		result, err = p.Process(ctx, result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Name returns the pipe's display name.
func (p *Pipe) Name() Name {
	return p.name
}

// Description returns the optional description string.
func (p *Pipe) Description() string {
	return p.desc
}

// Describe returns a copy of the pipe carrying a description string.
func (p *Pipe) Describe(desc string) *Pipe {
	q := *p
	q.desc = desc
	return &q
}

// Target returns the underlying callable target.
func (p *Pipe) Target() Target {
	return p.target
}

// Metrics returns the metrics registry for this pipe.
func (p *Pipe) Metrics() *metricz.Registry {
	return p.metrics
}

// Tracer returns the tracer for this pipe.
func (p *Pipe) Tracer() *tracez.Tracer {
	return p.tracer
}

// WithClock returns a copy of the pipe using a custom clock. Pipes derived
// from the copy inherit the clock; use it for deterministic tests.
func (p *Pipe) WithClock(clock clockz.Clock) *Pipe {
	q := *p
	q.clock = clock
	return &q
}

// getClock returns the clock to use.
func (p *Pipe) getClock() clockz.Clock {
	if p.clock == nil {
		return clockz.RealClock
	}
	return p.clock
}

// Close gracefully shuts down observability components.
func (p *Pipe) Close() error {
	if p.tracer != nil {
		p.tracer.Close()
	}
	p.hooks.Close()
	return nil
}

// OnProcessed registers a handler fired after every application of this pipe.
func (p *Pipe) OnProcessed(handler func(context.Context, PipeEvent) error) error {
	_, err := p.hooks.Hook(PipeEventProcessed, handler)
	return err
}

// OnScopeEntered registers a handler fired after this pipe enters scoped
// resources for a call.
func (p *Pipe) OnScopeEntered(handler func(context.Context, PipeEvent) error) error {
	_, err := p.hooks.Hook(PipeEventScopeEntered, handler)
	return err
}

// OnScopeReleased registers a handler fired after this pipe releases the
// resources it entered.
func (p *Pipe) OnScopeReleased(handler func(context.Context, PipeEvent) error) error {
	_, err := p.hooks.Hook(PipeEventScopeReleased, handler)
	return err
}
