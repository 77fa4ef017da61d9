package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// StripTags removes all HTML and returns the text content.
func StripTags(s string) string {
	initPolicies()
	return strictPolicy.Sanitize(s)
}

// SanitizeHTML keeps basic formatting tags (p, a, strong, em, lists, code)
// and removes scripts, event handlers and javascript: URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}

// Func transforms a single string value.
type Func func(string) string

// Chain applies fns left to right.
func Chain(fns ...Func) Func {
	return func(s string) string {
		for _, fn := range fns {
			s = fn(s)
		}
		return s
	}
}

// Values applies fn to every string in an input map, descending into
// nested maps and slices. Other values are kept as they are.
// Keys listed in skip are left untouched at the top level.
func Values(input map[string]any, fn Func, skip ...string) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		if containsKey(skip, k) {
			out[k] = v
			continue
		}
		out[k] = value(v, fn)
	}
	return out
}

func value(v any, fn Func) any {
	switch val := v.(type) {
	case string:
		return fn(val)
	case []string:
		res := make([]string, len(val))
		for i, s := range val {
			res[i] = fn(s)
		}
		return res
	case []any:
		res := make([]any, len(val))
		for i, item := range val {
			res[i] = value(item, fn)
		}
		return res
	case map[string]any:
		return Values(val, fn)
	default:
		return v
	}
}

func containsKey(keys []string, k string) bool {
	for _, key := range keys {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}
