package router

import "strings"

const (
	wildcardSuffix  = "/*"
	methodWildcard  = "*"
	methodSeparator = "|"
)

// PathMatcher is the interface for path matching.
type PathMatcher interface {
	Match(path string) bool
	Type() string
	Pattern() string
}

// NewPathMatcher returns a PrefixMatcher for patterns ending in "/*" and
// an ExactMatcher otherwise.
func NewPathMatcher(pattern string) PathMatcher {
	if strings.HasSuffix(pattern, wildcardSuffix) {
		return NewPrefixMatcher(strings.TrimSuffix(pattern, wildcardSuffix))
	}
	return NewExactMatcher(pattern)
}

// ExactMatcher matches exact paths.
type ExactMatcher struct {
	path string
}

// NewExactMatcher creates a new exact path matcher.
func NewExactMatcher(path string) *ExactMatcher {
	return &ExactMatcher{path: path}
}

// Match checks if the path matches exactly.
func (m *ExactMatcher) Match(path string) bool {
	return path == m.path
}

// Type returns the matcher type.
func (m *ExactMatcher) Type() string {
	return "exact"
}

// Pattern returns the pattern.
func (m *ExactMatcher) Pattern() string {
	return m.path
}

// PrefixMatcher matches path prefixes byte-wise. It does not enforce a
// segment boundary.
type PrefixMatcher struct {
	prefix string
}

// NewPrefixMatcher creates a new prefix path matcher.
func NewPrefixMatcher(prefix string) *PrefixMatcher {
	return &PrefixMatcher{prefix: prefix}
}

// Match checks if the path starts with the prefix.
func (m *PrefixMatcher) Match(path string) bool {
	return strings.HasPrefix(path, m.prefix)
}

// Type returns the matcher type.
func (m *PrefixMatcher) Type() string {
	return "prefix"
}

// Pattern returns the pattern.
func (m *PrefixMatcher) Pattern() string {
	return m.prefix
}

// MethodMatcher matches HTTP methods.
type MethodMatcher struct {
	any     bool
	methods map[string]bool
}

// NewMethodMatcher parses a method pattern: "*" or a "|" delimited set.
func NewMethodMatcher(pattern string) *MethodMatcher {
	m := &MethodMatcher{
		methods: make(map[string]bool),
	}

	if pattern == methodWildcard {
		m.any = true
		return m
	}

	for _, token := range strings.Split(pattern, methodSeparator) {
		if token = strings.TrimSpace(token); token != "" {
			m.methods[token] = true
		}
	}

	return m
}

// Match checks if the method matches. Comparison is case-sensitive.
func (m *MethodMatcher) Match(method string) bool {
	if m.any {
		return true
	}
	return m.methods[method]
}

// Match returns the first route in table whose path and method patterns
// both accept the request. It has no side effects.
func Match(table *Table, path, method string) (*Route, bool) {
	if table == nil {
		return nil, false
	}
	for _, route := range table.routes {
		if route.pathMatcher.Match(path) && route.methodMatcher.Match(method) {
			return route, true
		}
	}
	return nil, false
}
