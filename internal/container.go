package internal

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
)

// maxResolutionDepth bounds nested resolution as a backstop to cycle detection.
const maxResolutionDepth = 64

// Args carries named values for dependencies the container cannot resolve by type.
type Args map[string]any

// Resolver builds values by key.
// Factories receive a Resolver tied to the current resolution chain,
// so nested lookups take part in cycle detection.
type Resolver interface {
	Get(key reflect.Type, args Args) (any, error)
}

// Factory builds the value of a binding.
type Factory func(r Resolver, args Args) (any, error)

type binding struct {
	factory  Factory
	ctor     reflect.Value
	concrete reflect.Type
	shared   bool
}

// Container is a dependency injection container keyed by reflect.Type.
//
// A binding's concrete side is one of:
//   - a Factory (or a func with the same signature),
//   - a constructor func whose parameters are resolved by type,
//   - a reflect.Type to autowire through `inject` struct tags,
//   - a ready value, registered as a shared instance.
//
// Unbound struct and pointer-to-struct keys are autowired on demand.
type Container struct {
	bindings  map[reflect.Type]*binding
	instances map[reflect.Type]any
	mu        sync.RWMutex
}

// NewContainer creates an empty container that resolves itself.
func NewContainer() *Container {
	c := &Container{
		bindings:  make(map[reflect.Type]*binding),
		instances: make(map[reflect.Type]any),
	}
	c.instances[Key[*Container]()] = c
	return c
}

// Key returns the container key for T.
func Key[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Bind registers a transient binding. A nil concrete autowires key itself.
// A concrete that is neither a func nor a reflect.Type is stored as a shared instance.
func (c *Container) Bind(key reflect.Type, concrete any) {
	c.bind(key, concrete, false)
}

// Singleton registers a shared binding and resolves it immediately.
func (c *Container) Singleton(key reflect.Type, concrete any) error {
	c.bind(key, concrete, true)
	_, err := c.Get(key, nil)
	return err
}

// Instance registers a ready value under key.
func (c *Container) Instance(key reflect.Type, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[key] = &binding{shared: true}
	c.instances[key] = value
}

func (c *Container) bind(key reflect.Type, concrete any, shared bool) {
	b := &binding{shared: shared}

	switch v := concrete.(type) {
	case nil:
		b.concrete = key
	case Factory:
		b.factory = v
	case func(Resolver, Args) (any, error):
		b.factory = v
	case reflect.Type:
		b.concrete = v
	default:
		rv := reflect.ValueOf(concrete)
		if rv.Kind() != reflect.Func {
			c.Instance(key, concrete)
			return
		}
		b.ctor = rv
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[key] = b
	delete(c.instances, key)
}

// Get resolves key. Args fill scalar dependencies by name.
func (c *Container) Get(key reflect.Type, args Args) (any, error) {
	return c.resolve(key, args, nil)
}

// Bound reports whether key has a binding or a stored instance.
func (c *Container) Bound(key reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, bound := c.bindings[key]
	_, stored := c.instances[key]
	return bound || stored
}

// Forget drops the binding and any shared instance for key.
func (c *Container) Forget(key reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, key)
	delete(c.instances, key)
}

// Flush drops every binding and instance except the container itself.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[reflect.Type]*binding)
	c.instances = map[reflect.Type]any{Key[*Container](): c}
}

func (c *Container) resolve(key reflect.Type, args Args, stack []reflect.Type) (any, error) {
	if key == nil {
		return nil, &BindingResolutionError{Err: ErrNotInstantiable}
	}

	c.mu.RLock()
	inst, ok := c.instances[key]
	b := c.bindings[key]
	c.mu.RUnlock()
	if ok {
		return inst, nil
	}

	if slices.Contains(stack, key) {
		return nil, &BindingResolutionError{Key: key, Chain: append(slices.Clone(stack), key), Err: ErrCircularDependency}
	}
	if len(stack) >= maxResolutionDepth {
		return nil, &BindingResolutionError{Key: key, Chain: stack, Err: fmt.Errorf("resolution deeper than %d levels", maxResolutionDepth)}
	}

	chain := &resolution{c: c, stack: append(slices.Clone(stack), key)}

	var (
		v   any
		err error
	)
	switch {
	case b == nil:
		v, err = chain.build(key, args)
	case b.factory != nil:
		v, err = b.factory(chain, args)
	case b.ctor.IsValid():
		v, err = chain.call(b.ctor, args)
	default:
		v, err = chain.build(b.concrete, args)
	}
	if err != nil {
		if _, ok := err.(*BindingResolutionError); ok {
			return nil, err
		}
		return nil, &BindingResolutionError{Key: key, Chain: chain.stack, Err: err}
	}
	if v != nil && !reflect.TypeOf(v).AssignableTo(key) {
		return nil, &BindingResolutionError{
			Key:   key,
			Chain: chain.stack,
			Err:   fmt.Errorf("%w: got %T", ErrTypeMismatch, v),
		}
	}

	if b != nil && b.shared {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.instances[key]; ok {
			return existing, nil
		}
		c.instances[key] = v
	}
	return v, nil
}

// resolution is the Resolver handed to factories during one resolution chain.
type resolution struct {
	c     *Container
	stack []reflect.Type
}

func (r *resolution) Get(key reflect.Type, args Args) (any, error) {
	return r.c.resolve(key, args, r.stack)
}

func (r *resolution) build(t reflect.Type, args Args) (any, error) {
	switch {
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		ptr := reflect.New(t.Elem())
		if err := r.inject(ptr.Elem(), args); err != nil {
			return nil, err
		}
		return ptr.Interface(), nil
	case t.Kind() == reflect.Struct:
		v := reflect.New(t).Elem()
		if err := r.inject(v, args); err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
	return nil, &BindingResolutionError{Key: t, Chain: r.stack, Err: ErrNotInstantiable}
}

// inject fills every field tagged `inject`. Service-typed fields are resolved
// by type; scalar fields are read from args by tag value, falling back to the field name.
func (r *resolution) inject(v reflect.Value, args Args) error {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("inject")
		if !ok {
			continue
		}
		if !f.IsExported() {
			return &BindingResolutionError{Key: t, Param: f.Name, Chain: r.stack, Err: ErrUnresolvableParameter}
		}
		name := tag
		if name == "" {
			name = f.Name
		}
		val, err := r.argument(f.Type, name, args)
		if err != nil {
			return wrapParam(t, f.Name, r.stack, err)
		}
		v.Field(i).Set(val)
	}
	return nil
}

func (r *resolution) call(fn reflect.Value, args Args) (any, error) {
	ft := fn.Type()
	if ft.IsVariadic() || ft.NumOut() == 0 || ft.NumOut() > 2 ||
		(ft.NumOut() == 2 && ft.Out(1) != errorType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConstructor, ft)
	}

	in := make([]reflect.Value, ft.NumIn())
	for i := range in {
		val, err := r.argument(ft.In(i), "", args)
		if err != nil {
			return nil, wrapParam(r.stack[len(r.stack)-1], fmt.Sprintf("#%d %s", i, ft.In(i)), r.stack, err)
		}
		in[i] = val
	}

	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return valueOf(out[0]), nil
}

// argument resolves one dependency. An empty name means the dependency
// has no name to look up in args, so scalars cannot be satisfied.
func (r *resolution) argument(t reflect.Type, name string, args Args) (reflect.Value, error) {
	switch {
	case t == argsType:
		if args == nil {
			args = Args{}
		}
		return reflect.ValueOf(args), nil
	case t == resolverType:
		return reflect.ValueOf(Resolver(r)), nil
	case isService(t):
		v, err := r.Get(t, nil)
		if err != nil {
			return reflect.Value{}, err
		}
		return valueFor(v, t), nil
	}

	raw, ok := args[name]
	if name == "" || !ok {
		return reflect.Value{}, ErrUnresolvableParameter
	}
	rv := reflect.ValueOf(raw)
	switch {
	case raw == nil:
		return reflect.Zero(t), nil
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Type().ConvertibleTo(t) && rv.Kind() != reflect.String && t.Kind() != reflect.String:
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %T is not assignable to %s", ErrUnresolvableParameter, raw, t)
}

func wrapParam(key reflect.Type, param string, stack []reflect.Type, err error) error {
	if _, ok := err.(*BindingResolutionError); ok {
		return err
	}
	return &BindingResolutionError{Key: key, Param: param, Chain: stack, Err: err}
}

var (
	errorType    = Key[error]()
	argsType     = Key[Args]()
	resolverType = Key[Resolver]()
	contextType  = Key[context.Context]()
)

// isService reports whether t is resolved by type rather than from args.
func isService(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Struct:
		return true
	}
	return false
}

func valueFor(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// valueOf unwraps a reflected result, mapping nil pointers and interfaces to nil.
func valueOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// Validate walks the static dependency graph of every binding and reports
// the first cycle found. Factories are opaque and contribute no edges.
func (c *Container) Validate() error {
	c.mu.RLock()
	keys := make([]reflect.Type, 0, len(c.bindings))
	for k := range c.bindings {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[reflect.Type]int)
	var path []reflect.Type

	var visit func(t reflect.Type) error
	visit = func(t reflect.Type) error {
		switch state[t] {
		case done:
			return nil
		case visiting:
			start := slices.Index(path, t)
			cycle := append(slices.Clone(path[start:]), t)
			return &BindingResolutionError{Key: t, Chain: cycle, Err: ErrCircularDependency}
		}
		state[t] = visiting
		path = append(path, t)
		for _, dep := range c.dependencies(t) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[t] = done
		return nil
	}

	for _, k := range keys {
		if err := visit(k); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) dependencies(t reflect.Type) []reflect.Type {
	c.mu.RLock()
	b := c.bindings[t]
	_, stored := c.instances[t]
	c.mu.RUnlock()

	switch {
	case stored:
		return nil
	case b == nil:
		return structDependencies(t)
	case b.factory != nil:
		return nil
	case b.ctor.IsValid():
		ft := b.ctor.Type()
		var deps []reflect.Type
		for i := range ft.NumIn() {
			if in := ft.In(i); isService(in) && in != resolverType {
				deps = append(deps, in)
			}
		}
		return deps
	case b.concrete != nil && b.concrete != t:
		return []reflect.Type{b.concrete}
	}
	return structDependencies(t)
}

func structDependencies(t reflect.Type) []reflect.Type {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var deps []reflect.Type
	for i := range t.NumField() {
		f := t.Field(i)
		if _, ok := f.Tag.Lookup("inject"); ok && isService(f.Type) && f.Type != resolverType {
			deps = append(deps, f.Type)
		}
	}
	return deps
}

// Bind registers a typed factory for T.
func Bind[T any](c *Container, fn func(r Resolver, args Args) (T, error)) {
	c.Bind(Key[T](), Factory(func(r Resolver, args Args) (any, error) {
		return fn(r, args)
	}))
}

// Singleton registers a typed shared factory for T and resolves it.
func Singleton[T any](c *Container, fn func(r Resolver, args Args) (T, error)) error {
	return c.Singleton(Key[T](), Factory(func(r Resolver, args Args) (any, error) {
		return fn(r, args)
	}))
}

// Instance registers v as the shared value for T.
func Instance[T any](c *Container, v T) {
	c.Instance(Key[T](), v)
}

// BindTo registers Concrete, autowired, as the implementation of Abstract.
func BindTo[Abstract, Concrete any](c *Container) {
	c.Bind(Key[Abstract](), Key[Concrete]())
}

// Make resolves T. Multiple args maps are merged left to right.
func Make[T any](r Resolver, args ...Args) (T, error) {
	var zero T
	merged := Args{}
	for _, a := range args {
		for k, v := range a {
			merged[k] = v
		}
	}
	v, err := r.Get(Key[T](), merged)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, &BindingResolutionError{Key: Key[T](), Err: fmt.Errorf("%w: got %T", ErrTypeMismatch, v)}
	}
	return out, nil
}

// MustMake is Make that panics on failure.
func MustMake[T any](r Resolver, args ...Args) T {
	v, err := Make[T](r, args...)
	if err != nil {
		panic(err)
	}
	return v
}
