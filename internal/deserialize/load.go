package deserialize

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"

	"trackkit/internal/beatmap"
	"trackkit/internal/compat"
	"trackkit/internal/customdata"
	"trackkit/internal/pointdef"
	"trackkit/internal/scene"
	"trackkit/internal/track"
)

// ObjectsNode is the scene node under which track members built from level
// objects are placed.
const ObjectsNode = "Objects"

type LoadOptions struct {
	Logger     logr.Logger
	LeftHanded bool

	// Root receives the nodes created for level objects. A fresh root is
	// used when nil.
	Root *scene.Node
}

// Result is everything produced by one level load.
type Result struct {
	Level  *beatmap.Level
	Tracks *track.Registry
	Points *pointdef.Store
	Root   *scene.Node

	// Nodes holds the scene node of every object that named a track.
	Nodes map[*beatmap.Object]*scene.Node

	// CustomEvents is the level's custom events followed by the events
	// expanded from event definitions.
	CustomEvents []*beatmap.CustomEvent

	Bindings *Bindings
	Report   *Report
}

// Context is handed to every handler. Handlers cannot see Bindings; each
// deserializer's output is published only after all its passes finish.
type Context struct {
	ctx          context.Context
	deserializer string
	report       *Report

	Level        *beatmap.Level
	Legacy       bool
	LeftHanded   bool
	Tracks       *track.Registry
	Points       *pointdef.Store
	Root         *scene.Node
	CustomEvents []*beatmap.CustomEvent
	Logger       logr.Logger
}

func (c *Context) Context() context.Context {
	return c.ctx
}

// Reader wraps data in a reader using the level's field names.
func (c *Context) Reader(data customdata.Data) customdata.Reader {
	return customdata.NewReader(data, c.Legacy)
}

// ResolveTracks reads a "track name or list of names" field and returns the
// named tracks, creating any that do not exist yet. Handlers that validate
// more of the item afterwards read TrackNames first and call CreateTracks
// once the item is known to be good.
func (c *Context) ResolveTracks(key compat.Key, r customdata.Reader) ([]*track.Track, error) {
	names, err := c.TrackNames(key, r)
	if err != nil {
		return nil, err
	}
	return c.CreateTracks(names), nil
}

// TrackNames reads a "track name or list of names" field without touching the
// registry. Repeated names are dropped.
func (c *Context) TrackNames(key compat.Key, r customdata.Reader) ([]string, error) {
	names, ok, err := r.Strings(key)
	if err != nil || !ok {
		return nil, err
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// CreateTracks returns the named tracks, creating any that do not exist yet.
func (c *Context) CreateTracks(names []string) []*track.Track {
	out := make([]*track.Track, 0, len(names))
	for _, name := range names {
		out = append(out, c.Tracks.GetOrCreate(name))
	}
	return out
}

// ResolvePoint accepts a point definition name or an inline keyframe list.
func (c *Context) ResolvePoint(raw any) (*pointdef.Definition, error) {
	if name, ok := raw.(string); ok {
		def, ok := c.Points.Get(name)
		if !ok {
			return nil, &customdata.SchemaError{Reason: fmt.Sprintf("unknown point definition %q", name)}
		}
		return def, nil
	}
	return pointdef.Parse(raw)
}

// Vector3 reads an optional three-element field.
func (c *Context) Vector3(r customdata.Reader, key compat.Key) (mgl64.Vec3, bool, error) {
	v, ok, err := r.Floats(key, 3)
	if err != nil || !ok {
		return mgl64.Vec3{}, false, err
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, true, nil
}

// Report records an issue against the running deserializer. Early passes use
// it for per-entry failures that should not stop the pass.
func (c *Context) Report(kind ItemKind, index int, err error) {
	issue := Issue{Deserializer: c.deserializer, Kind: kind, Index: index, Err: err}
	c.report.add(issue)
	c.Logger.Error(err, "skipping item", "deserializer", c.deserializer, "kind", string(kind), "index", index)
}

// Load runs every enabled deserializer over level. Malformed items are
// reported and skipped; only cancellation aborts the load.
func (r *Registry) Load(ctx context.Context, level *beatmap.Level, opts LoadOptions) (*Result, error) {
	r.sealed = true
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	root := opts.Root
	if root == nil {
		root = scene.NewRoot()
	}

	res := &Result{
		Level:    level,
		Tracks:   track.NewRegistry(),
		Points:   pointdef.NewStore(),
		Root:     root,
		Nodes:    make(map[*beatmap.Object]*scene.Node),
		Bindings: newBindings(),
		Report:   &Report{},
	}
	c := &Context{
		ctx:          ctx,
		deserializer: Source,
		report:       res.Report,
		Level:        level,
		Legacy:       level.Legacy,
		LeftHanded:   opts.LeftHanded,
		Tracks:       res.Tracks,
		Points:       res.Points,
		Root:         root,
		Logger:       logger,
	}

	if level.Legacy {
		logger.V(1).Info("level uses legacy field names", "version", level.Version)
	}
	for _, problem := range level.Problems {
		c.Report(KindLevel, -1, problem)
	}

	buildTracks(c, res)
	registerPointDefinitions(c)
	res.CustomEvents = append(append([]*beatmap.CustomEvent(nil), level.CustomEvents...), eventDefinitions(c)...)
	c.CustomEvents = res.CustomEvents

	deserializers := r.enabled()
	for _, d := range deserializers {
		if d.early == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.deserializer = d.id
		if err := invokeEarly(d, c); err != nil {
			c.Report(KindLevel, -1, fmt.Errorf("early pass: %w", err))
		}
	}

	for _, d := range deserializers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.deserializer = d.id
		data := newData()
		if d.customEvent != nil {
			for _, ev := range res.CustomEvents {
				if v, ok := invoke(c, KindCustomEvent, ev.Index, func() (any, error) { return d.customEvent(c, ev) }); ok {
					data.customEvents[ev] = v
				}
			}
		}
		if d.event != nil {
			for _, ev := range level.Events {
				if v, ok := invoke(c, KindEvent, ev.Index, func() (any, error) { return d.event(c, ev) }); ok {
					data.events[ev] = v
				}
			}
		}
		if d.object != nil {
			for _, obj := range level.Objects {
				if v, ok := invoke(c, KindObject, obj.Index, func() (any, error) { return d.object(c, obj) }); ok {
					data.objects[obj] = v
				}
			}
		}
		logger.V(1).Info("binding deserializer", "deserializer", d.id, "payloads", data.Total())
		res.Bindings.publish(d.id, data)
	}
	c.deserializer = Source
	return res, nil
}

// invoke runs one item handler, turning errors and panics into issues.
func invoke(c *Context, kind ItemKind, index int, fn func() (any, error)) (v any, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			c.Report(kind, index, fmt.Errorf("handler panic: %v", p))
			v, ok = nil, false
		}
	}()
	v, err := fn()
	if err != nil {
		c.Report(kind, index, err)
		return nil, false
	}
	return v, v != nil
}

func invokeEarly(d *Deserializer, c *Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return d.early(c)
}

// buildTracks creates a node for every object that names a track and adds it
// to those tracks.
func buildTracks(c *Context, res *Result) {
	var parent *scene.Node
	for _, obj := range c.Level.Objects {
		tracks, err := c.ResolveTracks(compat.KeyTrack, c.Reader(obj.CustomData))
		if err != nil {
			c.Report(KindObject, obj.Index, err)
			continue
		}
		if len(tracks) == 0 {
			continue
		}
		if parent == nil {
			parent = c.Root.Child(ObjectsNode)
		}
		node := parent.AddChild(fmt.Sprintf("%s %d", obj.Kind, obj.Index))
		node.LocalPosition = mgl64.Vec3{float64(obj.X), float64(obj.Y), 0}
		res.Nodes[obj] = node
		for _, t := range tracks {
			t.AddObject(node)
		}
	}
}

// registerPointDefinitions accepts both the list of {name, points} entries
// and the name-to-points map.
func registerPointDefinitions(c *Context) {
	r := c.Level.Reader()
	raw, ok := r.Raw(compat.KeyPointDefinitions)
	if !ok {
		return
	}
	if entries, ok := customdata.AsData(raw); ok {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			registerPoint(c, i, name, entries[name])
		}
		return
	}
	list, ok := customdata.AsList(raw)
	if !ok {
		c.Report(KindPointDefinition, -1, &customdata.SchemaError{Field: r.FieldName(compat.KeyPointDefinitions), Reason: "must be a list or an object"})
		return
	}
	for i, item := range list {
		entry, ok := customdata.AsData(item)
		if !ok {
			c.Report(KindPointDefinition, i, &customdata.SchemaError{Reason: fmt.Sprintf("must be an object, got %T", item)})
			continue
		}
		er := c.Reader(entry)
		name, err := er.RequiredString(compat.KeyName)
		if err != nil {
			c.Report(KindPointDefinition, i, err)
			continue
		}
		points, ok := er.Raw(compat.KeyPoints)
		if !ok {
			c.Report(KindPointDefinition, i, customdata.Missing(er.FieldName(compat.KeyPoints)))
			continue
		}
		registerPoint(c, i, name, points)
	}
}

func registerPoint(c *Context, index int, name string, raw any) {
	if _, err := c.Points.Register(name, raw); err != nil {
		c.Report(KindPointDefinition, index, err)
		return
	}
	c.Logger.V(1).Info("registered point definition", "name", name)
}

// eventDefinitions expands named event definitions into custom events with a
// time of -1. Only current-format levels have them.
func eventDefinitions(c *Context) []*beatmap.CustomEvent {
	if c.Legacy {
		return nil
	}
	r := c.Level.Reader()
	list, ok, err := r.List(compat.KeyEventDefinitions)
	if err != nil {
		c.Report(KindEventDefinition, -1, err)
		return nil
	}
	if !ok {
		return nil
	}

	var out []*beatmap.CustomEvent
	seen := make(map[string]struct{}, len(list))
	for i, item := range list {
		entry, ok := customdata.AsData(item)
		if !ok {
			c.Report(KindEventDefinition, i, &customdata.SchemaError{Reason: fmt.Sprintf("must be an object, got %T", item)})
			continue
		}
		er := c.Reader(entry)
		name, err := er.RequiredString(compat.KeyName)
		if err != nil {
			c.Report(KindEventDefinition, i, err)
			continue
		}
		typ, err := er.RequiredString(compat.KeyEventDefinitionType)
		if err != nil {
			c.Report(KindEventDefinition, i, err)
			continue
		}
		data, _, err := er.Object(compat.KeyEventDefinitionData)
		if err != nil {
			c.Report(KindEventDefinition, i, err)
			continue
		}
		if data == nil {
			c.Report(KindEventDefinition, i, customdata.Missing(er.FieldName(compat.KeyEventDefinitionData)))
			continue
		}
		if _, dup := seen[name]; dup {
			c.Report(KindEventDefinition, i, fmt.Errorf("duplicate event definition %q", name))
			continue
		}
		seen[name] = struct{}{}
		out = append(out, &beatmap.CustomEvent{Index: i, Time: -1, Type: typ, Data: data, Definition: name})
	}
	return out
}
