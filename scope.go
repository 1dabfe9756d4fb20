package funcpipes

import (
	"context"
	"io"

	"go.uber.org/multierr"
)

// Resource is a value with scoped acquire/release semantics. Enter yields
// the value the wrapped call should see in place of the resource; Exit
// receives the in-flight error, if any, and returns a release fault.
//
// WithContext, MapOver, and the pipe Enter protocol recognize Resource
// arguments and guarantee release in reverse acquisition order on every exit
// path.
type Resource interface {
	Enter(ctx context.Context) (any, error)
	Exit(err error) error
}

type resourceFuncs struct {
	enter func(ctx context.Context) (any, error)
	exit  func(err error) error
}

func (r resourceFuncs) Enter(ctx context.Context) (any, error) { return r.enter(ctx) }

func (r resourceFuncs) Exit(err error) error {
	if r.exit == nil {
		return nil
	}
	return r.exit(err)
}

// NewResource builds a Resource from enter and exit functions. A nil exit is
// a no-op release.
func NewResource(enter func(ctx context.Context) (any, error), exit func(err error) error) Resource {
	return resourceFuncs{enter: enter, exit: exit}
}

// Closing adapts an io.Closer into a Resource: entering yields the value
// itself, releasing calls Close.
func Closing(c io.Closer) Resource {
	return resourceFuncs{
		enter: func(context.Context) (any, error) { return c, nil },
		exit:  func(error) error { return c.Close() },
	}
}

// Stack is a scoped-acquisition stack: resources entered through it are
// released in strict reverse order when the stack unwinds. Release happens on
// every exit path, and a release fault propagates after all releases have
// been attempted.
//
// A Stack is a per-call value and is not safe for concurrent use.
type Stack struct {
	exits []func(error) error
}

// NewStack returns an empty acquisition stack.
func NewStack() *Stack {
	return &Stack{}
}

// Enter acquires v if it is a Resource (or an io.Closer, adapted via
// Closing), recording its release on the stack and returning the entered
// value. Anything else passes through unchanged.
func (s *Stack) Enter(ctx context.Context, v any) (any, error) {
	var res Resource
	switch r := v.(type) {
	case Resource:
		res = r
	case io.Closer:
		res = Closing(r)
	default:
		return v, nil
	}
	entered, err := res.Enter(ctx)
	if err != nil {
		return nil, err
	}
	s.exits = append(s.exits, res.Exit)
	return entered, nil
}

// EnterArgs enters every resource-valued argument of the bundle, positional
// values first and keyword values in name order, returning a bundle with the
// entered values substituted in.
func (s *Stack) EnterArgs(ctx context.Context, call *Args) (*Args, error) {
	positional := call.Positional()
	for i, v := range positional {
		entered, err := s.Enter(ctx, v)
		if err != nil {
			return nil, err
		}
		positional[i] = entered
	}
	out := NewArgs(positional...)
	for _, name := range call.KeywordNames() {
		v, _ := call.Keyword(name)
		entered, err := s.Enter(ctx, v)
		if err != nil {
			return nil, err
		}
		out = out.WithKeyword(name, entered)
	}
	return out, nil
}

// Push records an arbitrary release on the stack.
func (s *Stack) Push(exit func(error) error) {
	s.exits = append(s.exits, exit)
}

// Len returns the number of releases currently recorded.
func (s *Stack) Len() int {
	return len(s.exits)
}

// Unwind releases everything on the stack in reverse acquisition order,
// passing err to each release. All releases are attempted; faults they return
// are appended to err. The stack is empty afterwards.
func (s *Stack) Unwind(err error) error {
	for i := len(s.exits) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.exits[i](err))
	}
	s.exits = nil
	return err
}

// Close is Unwind with no in-flight error, satisfying io.Closer so stacks
// can nest.
func (s *Stack) Close() error {
	return s.Unwind(nil)
}

// Enter runs the pipe's scoped-entry protocol. If the pipe is a curried
// (partial) application, every bound argument with resource semantics is
// entered on a fresh stack and a new pipe is returned with those arguments
// replaced by their entered values; closing the stack releases them in
// reverse order. A non-partial pipe returns itself with an empty stack.
//
// If entering a later resource fails, the ones already entered are released
// and the entry error is returned with any release faults appended.
//
//	scoped, stack, err := p.Enter(ctx)
//	if err != nil {
//	    return err
//	}
//	defer stack.Close()
//	result, err := scoped.Process(ctx)
func (p *Pipe) Enter(ctx context.Context) (*Pipe, *Stack, error) {
	stack := NewStack()
	if p.partial == nil {
		return p, stack, nil
	}
	entered, err := stack.EnterArgs(ctx, p.partial.bound)
	if err != nil {
		return nil, nil, stack.Unwind(err)
	}
	return p.partial.base.PartialArgs(entered), stack, nil
}
