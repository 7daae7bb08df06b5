// Package environment adds existing scene nodes to tracks by matching their
// paths against the level's environment entries.
package environment

import (
	"fmt"

	"trackkit/internal/compat"
	"trackkit/internal/customdata"
	"trackkit/internal/deserialize"
	"trackkit/internal/lookup"
	"trackkit/internal/scene"
)

const ID = "environment"

// Entry is one environment lookup. It is exported for schema generation;
// the deserializer works entirely in its early pass and binds no payloads.
type Entry struct {
	ID           string   `json:"id" jsonschema:"required"`
	LookupMethod string   `json:"lookupMethod" jsonschema:"required,enum=Regex,enum=Exact,enum=Contains,enum=StartsWith,enum=EndsWith"`
	TrackNames   []string `json:"track,omitempty"`
}

func Register(r *deserialize.Registry) (*deserialize.Deserializer, error) {
	return deserialize.Register(r, ID, deserialize.Handlers[Entry]{
		Keys: []compat.Key{
			compat.KeyEnvironment,
			compat.KeyEnvironmentID,
			compat.KeyLookupMethod,
			compat.KeyTrack,
		},
		Early: early,
	})
}

func early(c *deserialize.Context) error {
	list, ok, err := c.Level.Reader().List(compat.KeyEnvironment)
	if err != nil {
		return err
	}
	if !ok || len(list) == 0 {
		return nil
	}

	nodes := Candidates(c.Root)
	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.Path()
	}

	for i, item := range list {
		if err := c.Context().Err(); err != nil {
			return err
		}
		entry, ok := customdata.AsData(item)
		if !ok {
			c.Report(deserialize.KindEnvironment, i, &customdata.SchemaError{Reason: fmt.Sprintf("must be an object, got %T", item)})
			continue
		}
		matched, err := apply(c, entry, nodes, paths)
		if err != nil {
			c.Report(deserialize.KindEnvironment, i, err)
			continue
		}
		c.Logger.V(1).Info("matched environment entry", "index", i, "matches", matched)
	}
	return nil
}

func apply(c *deserialize.Context, data customdata.Data, nodes []*scene.Node, paths []string) (int, error) {
	r := c.Reader(data)
	id, err := r.RequiredString(compat.KeyEnvironmentID)
	if err != nil {
		return 0, err
	}
	methodName, err := r.RequiredString(compat.KeyLookupMethod)
	if err != nil {
		return 0, err
	}
	method, err := lookup.ParseMethod(methodName)
	if err != nil {
		return 0, &customdata.SchemaError{Field: r.FieldName(compat.KeyLookupMethod), Reason: err.Error()}
	}
	names, err := c.TrackNames(compat.KeyTrack, r)
	if err != nil {
		return 0, err
	}
	matches, err := lookup.Find(paths, id, method)
	if err != nil {
		return 0, &customdata.SchemaError{Field: r.FieldName(compat.KeyEnvironmentID), Reason: err.Error()}
	}
	tracks := c.CreateTracks(names)
	for _, i := range matches {
		for _, t := range tracks {
			t.AddObject(nodes[i])
		}
	}
	return len(matches), nil
}

// Candidates lists the nodes environment ids are matched against: every
// descendant of root except the generated object nodes.
func Candidates(root *scene.Node) []*scene.Node {
	var out []*scene.Node
	root.Walk(func(n *scene.Node) bool {
		if n.Parent() == root && n.Name() == deserialize.ObjectsNode {
			return false
		}
		out = append(out, n)
		return true
	})
	return out
}
