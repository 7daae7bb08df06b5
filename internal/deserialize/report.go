package deserialize

import (
	"errors"
	"fmt"

	"trackkit/internal/customdata"
	"trackkit/internal/pointdef"
)

// ItemKind names the kind of source item an issue refers to.
type ItemKind string

const (
	KindLevel           ItemKind = "level"
	KindObject          ItemKind = "object"
	KindEvent           ItemKind = "event"
	KindCustomEvent     ItemKind = "custom event"
	KindPointDefinition ItemKind = "point definition"
	KindEventDefinition ItemKind = "event definition"
	KindEnvironment     ItemKind = "environment"
)

// Source is used for issues raised before any deserializer runs.
const Source = "level"

// Issue is one item that failed to load. The item is left without a payload.
type Issue struct {
	Deserializer string
	Kind         ItemKind
	Index        int
	Err          error
}

func (i Issue) Error() string {
	if i.Index < 0 {
		return fmt.Sprintf("[%s] %s: %v", i.Deserializer, i.Kind, i.Err)
	}
	return fmt.Sprintf("[%s] %s %d: %v", i.Deserializer, i.Kind, i.Index, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}

// Report collects the issues of one load.
type Report struct {
	Issues []Issue
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

func (r *Report) Len() int {
	return len(r.Issues)
}

// Duplicates returns the point definition names rejected as duplicates.
func (r *Report) Duplicates() []string {
	var names []string
	for _, issue := range r.Issues {
		var dup *pointdef.DuplicateDefinitionError
		if errors.As(issue.Err, &dup) {
			names = append(names, dup.Name)
		}
	}
	return names
}

// SchemaErrors counts issues caused by malformed fields.
func (r *Report) SchemaErrors() int {
	n := 0
	for _, issue := range r.Issues {
		var schemaErr *customdata.SchemaError
		if errors.As(issue.Err, &schemaErr) {
			n++
		}
	}
	return n
}
