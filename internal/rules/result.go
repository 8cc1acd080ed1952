package rules

import (
	"context"
	"fmt"
)

// Rule transforms the current text buffer of a render pass.
type Rule interface {
	Apply(ctx context.Context, text string) Result
}

// Func adapts a synchronous text transform into a Rule.
type Func func(text string) string

// Apply implements Rule.
func (f Func) Apply(_ context.Context, text string) Result {
	return Resolved(f(text))
}

// AsyncFunc adapts a blocking transform into a Rule whose result is deferred.
type AsyncFunc func(ctx context.Context, text string) (string, error)

// Apply implements Rule by running f on its own goroutine.
func (f AsyncFunc) Apply(ctx context.Context, text string) Result {
	return Pending(Go(ctx, func(ctx context.Context) (string, error) {
		return f(ctx, text)
	}))
}

// Result is either resolved text or a Deferred still being computed.
type Result struct {
	text     string
	deferred *Deferred
}

// Resolved wraps text that is already available.
func Resolved(text string) Result {
	return Result{text: text}
}

// Pending wraps a deferred computation.
func Pending(d *Deferred) Result {
	return Result{deferred: d}
}

// IsDeferred reports whether the result must be awaited.
func (r Result) IsDeferred() bool {
	return r.deferred != nil
}

// Text returns the resolved text. It is empty for deferred results.
func (r Result) Text() string {
	return r.text
}

// Await returns the text, blocking on the deferred computation if needed.
func (r Result) Await(ctx context.Context) (string, error) {
	if r.deferred == nil {
		return r.text, nil
	}
	return r.deferred.Wait(ctx)
}

// Deferred is a text value that becomes available later.
type Deferred struct {
	done chan struct{}
	text string
	err  error
}

// Go starts fn on a new goroutine and returns its Deferred. A panic inside
// fn is reported as an error.
func Go(ctx context.Context, fn func(context.Context) (string, error)) *Deferred {
	d := &Deferred{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		defer func() {
			if r := recover(); r != nil {
				d.err = fmt.Errorf("rules: deferred panic: %v", r)
			}
		}()
		d.text, d.err = fn(ctx)
	}()
	return d
}

// Wait blocks until the value is available or ctx is done.
func (d *Deferred) Wait(ctx context.Context) (string, error) {
	select {
	case <-d.done:
		return d.text, d.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Done is closed once the value is available.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Failed returns an already completed Result carrying err.
func Failed(err error) Result {
	d := &Deferred{done: make(chan struct{}), err: err}
	close(d.done)
	return Pending(d)
}
