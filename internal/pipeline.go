package internal

import (
	"fmt"
	"reflect"
)

// Next passes the value on to the rest of the pipeline.
type Next[T any] func(passable T) (any, error)

// Pipe is a stage of a Pipeline. It may call next, or return early to short-circuit.
type Pipe[T any] interface {
	Handle(passable T, next Next[T]) (any, error)
}

// PipeFunc adapts a function to Pipe.
type PipeFunc[T any] func(passable T, next Next[T]) (any, error)

func (f PipeFunc[T]) Handle(passable T, next Next[T]) (any, error) {
	return f(passable, next)
}

// Pipeline sends a value through an ordered list of pipes to a destination.
//
// Entries are a Pipe[T], a func(T, Next[T]) (any, error), or a reflect.Type
// resolved from the container when its turn comes.
type Pipeline[T any] struct {
	resolver Resolver
	passable T
	pipes    []any
}

// NewPipeline creates a pipeline that resolves type entries through r.
func NewPipeline[T any](r Resolver) *Pipeline[T] {
	return &Pipeline[T]{resolver: r}
}

// Send sets the value that travels through the pipes.
func (p *Pipeline[T]) Send(passable T) *Pipeline[T] {
	p.passable = passable
	return p
}

// Through replaces the pipes.
func (p *Pipeline[T]) Through(pipes ...any) *Pipeline[T] {
	p.pipes = append([]any(nil), pipes...)
	return p
}

// Pipe appends pipes.
func (p *Pipeline[T]) Pipe(pipes ...any) *Pipeline[T] {
	p.pipes = append(p.pipes, pipes...)
	return p
}

// Then runs the pipeline with destination as the innermost stage.
// The first pipe added is the outermost.
func (p *Pipeline[T]) Then(destination func(T) (any, error)) (any, error) {
	stack := Next[T](destination)
	for i := len(p.pipes) - 1; i >= 0; i-- {
		stack = p.carry(stack, p.pipes[i])
	}
	return stack(p.passable)
}

// ThenReturn runs the pipeline and returns the passable as the result.
func (p *Pipeline[T]) ThenReturn() (any, error) {
	return p.Then(func(passable T) (any, error) {
		return passable, nil
	})
}

func (p *Pipeline[T]) carry(next Next[T], entry any) Next[T] {
	return func(passable T) (any, error) {
		pipe, err := p.resolve(entry)
		if err != nil {
			return nil, err
		}
		return pipe.Handle(passable, next)
	}
}

func (p *Pipeline[T]) resolve(entry any) (Pipe[T], error) {
	switch e := entry.(type) {
	case Pipe[T]:
		return e, nil
	case func(T, Next[T]) (any, error):
		return PipeFunc[T](e), nil
	case reflect.Type:
		if p.resolver == nil {
			return nil, &BindingResolutionError{Key: e, Err: ErrNotInstantiable}
		}
		v, err := p.resolver.Get(e, nil)
		if err != nil {
			return nil, err
		}
		pipe, ok := v.(Pipe[T])
		if !ok {
			return nil, &BindingResolutionError{Key: e, Err: ErrNotAPipe}
		}
		return pipe, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNotAPipe, entry)
}
