package middlewares

import (
	"strings"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/sanitizer"
)

// DefaultSanitizeSkip lists input keys SanitizeInput leaves alone.
var DefaultSanitizeSkip = []string{"password", "password_confirmation"}

// SanitizeInput trims whitespace and strips HTML from every string in the
// request input before the action and its form request read it.
// Keys in skip are kept verbatim; without skip, DefaultSanitizeSkip applies.
func SanitizeInput(skip ...string) internal.PipeFunc[*internal.Request] {
	if len(skip) == 0 {
		skip = DefaultSanitizeSkip
	}
	clean := sanitizer.Chain(strings.TrimSpace, sanitizer.StripTags)

	return func(req *internal.Request, next internal.Next[*internal.Request]) (any, error) {
		input, err := req.All()
		if err != nil {
			return nil, err
		}
		req.ReplaceInput(sanitizer.Values(input, clean, skip...))
		return next(req)
	}
}
