package internal

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Params holds the placeholder values captured from a matched path.
type Params map[string]string

// Route is a method, a URI template and the action it dispatches to.
// Templates use {name} placeholders that match a single path segment.
type Route struct {
	action  Action
	pattern *regexp.Regexp
	method  string
	uri     string
	name    string
	params  []string
	pipes   []string
}

// NewRoute compiles uri into an anchored pattern.
// Literal text is matched verbatim. Placeholder names must be unique.
func NewRoute(method, uri string, action Action) (*Route, error) {
	pattern, names, err := compileTemplate(uri)
	if err != nil {
		return nil, err
	}
	return &Route{
		action:  action,
		pattern: pattern,
		method:  strings.ToUpper(method),
		uri:     uri,
		params:  names,
	}, nil
}

func compileTemplate(uri string) (*regexp.Regexp, []string, error) {
	var (
		b     strings.Builder
		names []string
		last  int
	)
	b.WriteString("^")
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(uri, -1) {
		name := uri[m[2]:m[3]]
		for _, n := range names {
			if n == name {
				return nil, nil, fmt.Errorf("%w: %q in %q", ErrDuplicatePlaceholder, name, uri)
			}
		}
		names = append(names, name)
		b.WriteString(regexp.QuoteMeta(uri[last:m[0]]))
		b.WriteString(`(?P<` + name + `>[^/]+)`)
		last = m[1]
	}
	b.WriteString(regexp.QuoteMeta(uri[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return re, names, nil
}

// Method returns the HTTP method the route answers.
func (r *Route) Method() string { return r.method }

// URI returns the template the route was registered with.
func (r *Route) URI() string { return r.uri }

// Name returns the route name, or "" if it has none.
func (r *Route) Name() string { return r.name }

// Action returns the dispatch target.
func (r *Route) Action() Action { return r.action }

// Pipes returns the route pipe group keys in attachment order.
func (r *Route) Pipes() []string { return r.pipes }

// Placeholders returns the placeholder names in template order.
func (r *Route) Placeholders() []string { return r.params }

// Match reports whether path fits the template and returns the captured values.
func (r *Route) Match(path string) (Params, bool) {
	m := r.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(Params, len(r.params))
	for i, name := range r.pattern.SubexpNames() {
		if name != "" {
			params[name] = m[i]
		}
	}
	return params, true
}

// URL fills the template with values. Values are path-escaped;
// values without a placeholder are appended as a sorted query string.
func (r *Route) URL(values map[string]any) (string, error) {
	used := make(map[string]bool, len(r.params))
	var err error

	path := placeholderPattern.ReplaceAllStringFunc(r.uri, func(token string) string {
		name := token[1 : len(token)-1]
		v, ok := values[name]
		if !ok {
			if err == nil {
				err = fmt.Errorf("%w: %q for %q", ErrMissingRouteParameter, name, r.uri)
			}
			return token
		}
		used[name] = true
		s, cerr := cast.ToStringE(v)
		if cerr != nil && err == nil {
			err = fmt.Errorf("router: parameter %q: %w", name, cerr)
		}
		return url.PathEscape(s)
	})
	if err != nil {
		return "", err
	}

	var extra []string
	for k := range values {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return path, nil
	}
	sort.Strings(extra)
	q := url.Values{}
	for _, k := range extra {
		q.Set(k, cast.ToString(values[k]))
	}
	return path + "?" + q.Encode(), nil
}
