package docstore

import (
	"context"
	"fmt"
)

// Result is the single outcome of an asynchronous operation.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Task is a handle on an in-flight asynchronous operation.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel cancels the operation's context. The completion still runs, with
// whatever error the cancelled operation returns.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed after the completion has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the completion has returned.
func (t *Task) Wait() {
	<-t.done
}

// Go runs op on a new goroutine and calls complete exactly once with its
// outcome. A panic inside op is delivered as a failure.
func Go[T any](ctx context.Context, op func(context.Context) (T, error), complete func(Result[T])) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()

		res := runOp(ctx, op)
		if complete != nil {
			complete(res)
		}
	}()

	return t
}

func runOp[T any](ctx context.Context, op func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result[T]{Err: fmt.Errorf("%w: operation panicked: %v", ErrStoreUnavailable, rec)}
		}
	}()
	v, err := op(ctx)
	return Result[T]{Value: v, Err: err}
}
