// Package lookup matches environment object ids against a search term.
package lookup

import (
	"fmt"
	"regexp"
	"strings"
)

type Method int

const (
	Regex Method = iota
	Exact
	Contains
	StartsWith
	EndsWith
)

var methodNames = map[Method]string{
	Regex:      "Regex",
	Exact:      "Exact",
	Contains:   "Contains",
	StartsWith: "StartsWith",
	EndsWith:   "EndsWith",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod accepts the names used in level data, ignoring case.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown lookup method %q", s)
}

// Matcher returns the predicate for id under method. Regex ids are searched
// for anywhere in the candidate, not anchored.
func Matcher(id string, method Method) (func(string) bool, error) {
	switch method {
	case Regex:
		re, err := regexp.Compile(id)
		if err != nil {
			return nil, fmt.Errorf("compile lookup regex %q: %w", id, err)
		}
		return re.MatchString, nil
	case Exact:
		return func(s string) bool { return s == id }, nil
	case Contains:
		return func(s string) bool { return strings.Contains(s, id) }, nil
	case StartsWith:
		return func(s string) bool { return strings.HasPrefix(s, id) }, nil
	case EndsWith:
		return func(s string) bool { return strings.HasSuffix(s, id) }, nil
	default:
		return nil, fmt.Errorf("unknown lookup method %d", int(method))
	}
}

// Find returns the indices of ids matched by id, in order.
func Find(ids []string, id string, method Method) ([]int, error) {
	match, err := Matcher(id, method)
	if err != nil {
		return nil, err
	}
	var out []int
	for i, candidate := range ids {
		if match(candidate) {
			out = append(out, i)
		}
	}
	return out, nil
}
