package store

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotReadOnly is returned by RunSQL for statements that could modify the
// catalog. The catalog is rebuilt by ingest only.
var ErrNotReadOnly = errors.New("only read-only statements are allowed")

var readOnlyVerbs = []string{"SELECT", "WITH", "EXPLAIN", "VALUES"}

// CheckReadOnly accepts a single statement starting with a read verb. It is a
// first screen only: a WITH clause can still prefix a write, so backends also
// run the statement in a read-only mode.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if strings.Contains(q, ";") {
		return ErrNotReadOnly
	}
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return errors.New("empty query")
	}
	verb := strings.ToUpper(fields[0])
	for _, v := range readOnlyVerbs {
		if verb == v {
			return nil
		}
	}
	return ErrNotReadOnly
}

// PositionalArgs orders params keyed "1", "2" and so on. It stops at the
// first missing position.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; ; i++ {
		val, ok := params[strconv.Itoa(i)]
		if !ok {
			return args
		}
		args = append(args, val)
	}
}
