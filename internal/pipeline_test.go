package internal_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
)

type appendPipe struct {
	suffix string
}

func (p *appendPipe) Handle(s string, next internal.Next[string]) (any, error) {
	return next(s + p.suffix)
}

type upperPipe struct{}

func (upperPipe) Handle(s string, next internal.Next[string]) (any, error) {
	return next(strings.ToUpper(s))
}

func TestPipeline_Order(t *testing.T) {
	t.Parallel()

	var trace []string
	tracer := func(name string) func(string, internal.Next[string]) (any, error) {
		return func(s string, next internal.Next[string]) (any, error) {
			trace = append(trace, "before "+name)
			out, err := next(s)
			trace = append(trace, "after "+name)
			return out, err
		}
	}

	out, err := internal.NewPipeline[string](nil).
		Send("x").
		Through(tracer("a"), tracer("b")).
		Pipe(&appendPipe{suffix: "!"}).
		ThenReturn()

	require.NoError(t, err)
	assert.Equal(t, "x!", out)
	assert.Equal(t, []string{"before a", "before b", "after b", "after a"}, trace)
}

func TestPipeline_ShortCircuit(t *testing.T) {
	t.Parallel()

	reached := false
	out, err := internal.NewPipeline[string](nil).
		Send("x").
		Through(internal.PipeFunc[string](func(string, internal.Next[string]) (any, error) {
			return "stopped", nil
		})).
		Then(func(string) (any, error) {
			reached = true
			return "done", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "stopped", out)
	assert.False(t, reached)
}

func TestPipeline_LateBinding(t *testing.T) {
	t.Parallel()

	t.Run("resolves type entries from the container", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()

		out, err := internal.NewPipeline[string](c).
			Send("abc").
			Through(internal.Key[upperPipe]()).
			ThenReturn()

		require.NoError(t, err)
		assert.Equal(t, "ABC", out)
	})

	t.Run("rejects values that are not pipes", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()

		_, err := internal.NewPipeline[string](c).
			Send("abc").
			Through(internal.Key[*internal.Container]()).
			ThenReturn()

		assert.ErrorIs(t, err, internal.ErrNotAPipe)
	})

	t.Run("rejects unknown entries", func(t *testing.T) {
		t.Parallel()
		_, err := internal.NewPipeline[string](nil).Send("abc").Through(42).ThenReturn()
		assert.ErrorIs(t, err, internal.ErrNotAPipe)
	})
}

func TestPipeline_ErrorPropagation(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var sawErr error
	_, err := internal.NewPipeline[string](nil).
		Send("x").
		Through(func(s string, next internal.Next[string]) (any, error) {
			out, err := next(s)
			sawErr = err
			return out, err
		}).
		Then(func(string) (any, error) {
			return nil, boom
		})

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, sawErr, boom)
}
