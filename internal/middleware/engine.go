// Package middleware holds the ordered before/after/error handler lists a
// command executes around its handler.
package middleware

import (
	"context"

	"github.com/usherbot/usher/internal/domain"
)

// BeforeFunc runs before the command handler. A non-nil result short-circuits
// the remaining before-handlers and the handler itself; a string result is
// replied verbatim.
type BeforeFunc func(ctx context.Context, c *domain.Context) (any, error)

// AfterFunc runs after the command handler with the handler result already
// stored on the context.
type AfterFunc func(ctx context.Context, c *domain.Context) (any, error)

// ErrorFunc receives a failure from any dispatch stage. The first non-nil
// return claims the error.
type ErrorFunc func(ctx context.Context, c *domain.Context, err error) any

// ErrorReply is the fallback produced when no error handler claims a failure.
// By convention it is not auto-replied.
type ErrorReply struct {
	Text   string
	Status int
}

// Engine keeps the three handler lists in registration order. Merge produces
// a new engine and never mutates its inputs, which is what lets Group
// snapshot and restore ambient middleware safely.
type Engine struct {
	before []BeforeFunc
	after  []AfterFunc
	errors []ErrorFunc
}

func NewEngine() *Engine {
	return &Engine{}
}

// Before appends before-handlers. Chainable.
func (e *Engine) Before(fns ...BeforeFunc) *Engine {
	e.before = append(e.before, fns...)
	return e
}

// After appends after-handlers. Chainable.
func (e *Engine) After(fns ...AfterFunc) *Engine {
	e.after = append(e.after, fns...)
	return e
}

// OnError appends error handlers. Chainable.
func (e *Engine) OnError(fns ...ErrorFunc) *Engine {
	e.errors = append(e.errors, fns...)
	return e
}

// Merge returns a new engine whose lists concatenate this engine's handlers
// with the others', in order. None of the inputs are mutated.
func (e *Engine) Merge(others ...*Engine) *Engine {
	merged := &Engine{
		before: append([]BeforeFunc(nil), e.before...),
		after:  append([]AfterFunc(nil), e.after...),
		errors: append([]ErrorFunc(nil), e.errors...),
	}
	for _, other := range others {
		if other == nil {
			continue
		}
		merged.before = append(merged.before, other.before...)
		merged.after = append(merged.after, other.after...)
		merged.errors = append(merged.errors, other.errors...)
	}
	return merged
}

// Clone returns an independent copy of the engine.
func (e *Engine) Clone() *Engine {
	return (&Engine{}).Merge(e)
}

// ExecuteBefore runs the before-handlers in order. The first non-nil result
// wins: remaining handlers are skipped and the result is returned.
func (e *Engine) ExecuteBefore(ctx context.Context, c *domain.Context) (any, error) {
	for _, fn := range e.before {
		result, err := fn(ctx, c)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, nil
}

// ExecuteAfter stores the handler result on the context, then runs the
// after-handlers in order. The first non-nil return short-circuits and is
// returned; the dispatcher does not use it to replace the reply, so
// after-handlers are observational.
func (e *Engine) ExecuteAfter(ctx context.Context, c *domain.Context, result any) (any, error) {
	c.Result = result
	for _, fn := range e.after {
		out, err := fn(ctx, c)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// ExecuteError runs the error handlers in order. The first non-nil return
// claims the error; if none do, a generic internal-error reply is returned.
func (e *Engine) ExecuteError(ctx context.Context, c *domain.Context, cause error) any {
	for _, fn := range e.errors {
		if result := fn(ctx, c, cause); result != nil {
			return result
		}
	}
	return &ErrorReply{Text: "Internal server error", Status: 500}
}
