// Package sanitizer cleans user input with bluemonday policies.
//
// StripTags removes all markup, SanitizeHTML keeps a small set of formatting
// tags. Values walks a decoded request input map and applies a Func to every
// string in it; middlewares.SanitizeInput uses it to clean request input
// before actions and form requests see it.
package sanitizer
