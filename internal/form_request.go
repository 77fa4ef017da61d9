package internal

import (
	"reflect"

	"github.com/dmitrymomot/anvil/pkg/validator"
)

// FormRequest is embedded by request types that validate their input
// before a controller action runs:
//
//	type StoreUser struct {
//	    anvil.FormRequest
//	}
//
//	func (f *StoreUser) Rules() validator.RuleSet {
//	    return validator.RuleSet{"name": "required|alpha"}
//	}
//
// Types that also implement Authorizer are checked first.
type FormRequest struct {
	*Request
}

func (f *FormRequest) formRequest() *FormRequest { return f }

// Authorizer lets a form request reject the request with 403.
type Authorizer interface {
	Authorize() bool
}

type formRequester interface {
	formRequest() *FormRequest
	Rules() validator.RuleSet
}

// formRequest builds the form request of type t, binds it to req and validates it.
func (r *Router) formRequest(t reflect.Type, req *Request) (any, error) {
	v, err := r.container.Get(t, nil)
	if err != nil {
		return nil, err
	}
	form, ok := v.(formRequester)
	if !ok || form == nil {
		return nil, &BindingResolutionError{Key: t, Err: ErrTypeMismatch}
	}
	form.formRequest().Request = req

	if a, ok := v.(Authorizer); ok && !a.Authorize() {
		return nil, ErrForbidden("This action is unauthorized.")
	}

	input, err := req.All()
	if err != nil {
		return nil, ErrBadRequest("", WithError(err))
	}
	if verr := validator.New(input, form.Rules()).Validate(); verr != nil {
		return nil, &ValidationError{Errors: validator.ExtractValidationErrors(verr)}
	}
	return v, nil
}
