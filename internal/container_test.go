package internal_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
)

type clock interface{ Now() string }

type fixedClock struct{}

func (fixedClock) Now() string { return "noon" }

type greeter struct {
	Clock    clock  `inject:""`
	Greeting string `inject:"greeting"`
}

type counter struct{ n int }

type service struct {
	Greeter *greeter `inject:""`
}

type cycleA struct {
	B *cycleB `inject:""`
}

type cycleB struct {
	A *cycleA `inject:""`
}

func TestContainer_Singleton(t *testing.T) {
	t.Parallel()

	c := internal.NewContainer()
	calls := 0
	require.NoError(t, internal.Singleton(c, func(internal.Resolver, internal.Args) (*counter, error) {
		calls++
		return &counter{n: calls}, nil
	}))

	first := internal.MustMake[*counter](c)
	second := internal.MustMake[*counter](c)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestContainer_TransientFactory(t *testing.T) {
	t.Parallel()

	c := internal.NewContainer()
	calls := 0
	internal.Bind(c, func(internal.Resolver, internal.Args) (*counter, error) {
		calls++
		return &counter{n: calls}, nil
	})

	first := internal.MustMake[*counter](c)
	second := internal.MustMake[*counter](c)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, second.n)
}

func TestContainer_Autowire(t *testing.T) {
	t.Parallel()

	t.Run("resolves services by type and scalars by name", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		internal.BindTo[clock, fixedClock](c)

		g, err := internal.Make[*greeter](c, internal.Args{"greeting": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "noon", g.Clock.Now())
		assert.Equal(t, "hello", g.Greeting)
	})

	t.Run("missing scalar parameter", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		internal.BindTo[clock, fixedClock](c)

		_, err := internal.Make[*greeter](c)
		require.Error(t, err)

		var bre *internal.BindingResolutionError
		require.ErrorAs(t, err, &bre)
		assert.Equal(t, "Greeting", bre.Param)
		assert.ErrorIs(t, err, internal.ErrUnresolvableParameter)
	})

	t.Run("unbound interface is not instantiable", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()

		_, err := internal.Make[*service](c, internal.Args{"greeting": "hi"})
		require.Error(t, err)
		assert.ErrorIs(t, err, internal.ErrNotInstantiable)
	})

	t.Run("nested params are not propagated", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		internal.BindTo[clock, fixedClock](c)

		_, err := internal.Make[*service](c, internal.Args{"greeting": "hi"})
		assert.ErrorIs(t, err, internal.ErrUnresolvableParameter)
	})
}

func TestContainer_Constructor(t *testing.T) {
	t.Parallel()

	t.Run("resolves parameters by type", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		internal.Instance[clock](c, fixedClock{})
		c.Bind(internal.Key[*greeter](), func(cl clock, args internal.Args) *greeter {
			return &greeter{Clock: cl, Greeting: args["greeting"].(string)}
		})

		g, err := internal.Make[*greeter](c, internal.Args{"greeting": "hey"})
		require.NoError(t, err)
		assert.Equal(t, "hey", g.Greeting)
	})

	t.Run("constructor error is wrapped", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		boom := errors.New("boom")
		c.Bind(internal.Key[*counter](), func() (*counter, error) { return nil, boom })

		_, err := internal.Make[*counter](c)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("scalar constructor parameter fails", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		c.Bind(internal.Key[*counter](), func(n int) *counter { return &counter{n: n} })

		_, err := internal.Make[*counter](c, internal.Args{"n": 1})
		assert.ErrorIs(t, err, internal.ErrUnresolvableParameter)
	})

	t.Run("invalid signature", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		c.Bind(internal.Key[*counter](), func() {})

		_, err := internal.Make[*counter](c)
		assert.ErrorIs(t, err, internal.ErrInvalidConstructor)
	})
}

func TestContainer_Cycles(t *testing.T) {
	t.Parallel()

	t.Run("detected at resolution", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()

		_, err := internal.Make[*cycleA](c)
		require.ErrorIs(t, err, internal.ErrCircularDependency)

		var bre *internal.BindingResolutionError
		require.ErrorAs(t, err, &bre)
		assert.Len(t, bre.Chain, 3)
	})

	t.Run("detected through factories", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		internal.Bind(c, func(r internal.Resolver, _ internal.Args) (*counter, error) {
			return internal.Make[*counter](r)
		})

		_, err := internal.Make[*counter](c)
		assert.ErrorIs(t, err, internal.ErrCircularDependency)
	})

	t.Run("detected by Validate", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		c.Bind(internal.Key[*cycleA](), nil)

		err := c.Validate()
		assert.ErrorIs(t, err, internal.ErrCircularDependency)
	})

	t.Run("Validate accepts acyclic graphs", func(t *testing.T) {
		t.Parallel()
		c := internal.NewContainer()
		internal.BindTo[clock, fixedClock](c)
		c.Bind(internal.Key[*service](), nil)

		assert.NoError(t, c.Validate())
	})
}

func TestContainer_Lifecycle(t *testing.T) {
	t.Parallel()

	c := internal.NewContainer()
	internal.Instance(c, &counter{n: 7})
	require.True(t, c.Bound(internal.Key[*counter]()))

	self, err := internal.Make[*internal.Container](c)
	require.NoError(t, err)
	assert.Same(t, c, self)

	c.Forget(internal.Key[*counter]())
	assert.False(t, c.Bound(internal.Key[*counter]()))

	fresh := internal.MustMake[*counter](c)
	assert.Equal(t, 0, fresh.n)

	internal.Instance(c, &counter{n: 1})
	c.Flush()
	assert.False(t, c.Bound(internal.Key[*counter]()))
	assert.True(t, c.Bound(internal.Key[*internal.Container]()))
}
