package internal

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/spf13/cast"
)

// Action is what a route dispatches to: a HandlerFunc or a ControllerAction.
type Action interface {
	fmt.Stringer
}

// HandlerFunc handles a request and returns a result for the kernel to normalize.
type HandlerFunc func(req *Request) (any, error)

func (HandlerFunc) String() string { return "closure" }

// ControllerAction names a method on a controller built by the container.
type ControllerAction struct {
	Controller reflect.Type
	Method     string
}

// ActionFor returns the action that calls method on controller C.
func ActionFor[C any](method string) ControllerAction {
	return ControllerAction{Controller: Key[C](), Method: method}
}

func (a ControllerAction) String() string {
	return a.Controller.String() + "@" + a.Method
}

func toAction(action any) (Action, error) {
	switch a := action.(type) {
	case HandlerFunc:
		return a, nil
	case func(*Request) (any, error):
		return HandlerFunc(a), nil
	case ControllerAction:
		if a.Controller == nil || a.Method == "" {
			return nil, fmt.Errorf("router: incomplete controller action %+v", a)
		}
		return a, nil
	}
	return nil, fmt.Errorf("router: unsupported action type %T", action)
}

var (
	requestType       = Key[*Request]()
	paramsType        = Key[Params]()
	formRequesterType = Key[formRequester]()
)

// callController builds the controller, resolves the method's arguments and calls it.
//
// Arguments are matched by type: *Request, Params, context.Context and form
// requests are provided directly. Scalar arguments take the route's
// placeholder values in order. Anything else is resolved from the container.
func (r *Router) callController(a ControllerAction, req *Request) (any, error) {
	ctrl, err := r.container.Get(a.Controller, nil)
	if err != nil {
		return nil, err
	}
	method := reflect.ValueOf(ctrl).MethodByName(a.Method)
	if !method.IsValid() {
		return nil, &BindingResolutionError{Key: a.Controller, Param: a.Method, Err: ErrMethodNotFound}
	}

	args, err := r.methodArguments(method.Type(), req)
	if err != nil {
		return nil, err
	}
	return methodResult(method.Call(args))
}

func (r *Router) methodArguments(mt reflect.Type, req *Request) ([]reflect.Value, error) {
	var positional []string
	if route := req.Route(); route != nil {
		for _, name := range route.params {
			positional = append(positional, req.Param(name))
		}
	}

	args := make([]reflect.Value, mt.NumIn())
	next := 0
	for i := range args {
		in := mt.In(i)
		switch {
		case in == requestType:
			args[i] = reflect.ValueOf(req)
		case in == paramsType:
			args[i] = reflect.ValueOf(req.Params())
		case in == contextType:
			args[i] = reflect.ValueOf(req.Context())
		case in.Implements(formRequesterType):
			form, err := r.formRequest(in, req)
			if err != nil {
				return nil, err
			}
			args[i] = reflect.ValueOf(form)
		case isScalar(in):
			raw := ""
			if next < len(positional) {
				raw = positional[next]
			}
			next++
			v, err := convertParam(raw, in)
			if err != nil {
				return nil, ErrNotFound("", WithError(err))
			}
			args[i] = v
		default:
			v, err := r.container.Get(in, nil)
			if err != nil {
				return nil, err
			}
			args[i] = valueFor(v, in)
		}
	}
	return args, nil
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertParam converts a placeholder value to t. An empty value yields the zero value.
func convertParam(raw string, t reflect.Type) (reflect.Value, error) {
	if raw == "" {
		return reflect.Zero(t), nil
	}

	var (
		v   any
		err error
	)
	switch t.Kind() {
	case reflect.String:
		v = raw
	case reflect.Bool:
		v, err = cast.ToBoolE(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err = strconv.ParseInt(raw, 10, t.Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err = strconv.ParseUint(raw, 10, t.Bits())
	case reflect.Float32, reflect.Float64:
		v, err = cast.ToFloat64E(raw)
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("router: parameter %q is not a valid %s: %w", raw, t, err)
	}
	return reflect.ValueOf(v).Convert(t), nil
}

// methodResult accepts (), (T), (error) and (T, error) method signatures.
func methodResult(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return valueOf(out[0]), nil
	case 2:
		if out[1].Type() != errorType {
			return nil, fmt.Errorf("router: second result must be an error, got %s", out[1].Type())
		}
		if !out[1].IsNil() {
			return valueOf(out[0]), out[1].Interface().(error)
		}
		return valueOf(out[0]), nil
	}
	return nil, fmt.Errorf("router: actions return at most two values, got %d", len(out))
}
