package deserialize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"

	"trackkit/internal/beatmap"
	"trackkit/internal/compat"
	"trackkit/internal/customdata"
)

type speedPayload struct {
	Speed float64 `json:"speed" jsonschema:"required"`
}

func mustParseLevel(t *testing.T, src string) *beatmap.Level {
	t.Helper()
	level, err := beatmap.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	return level
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return r
}

func speedHandlers() Handlers[speedPayload] {
	return Handlers[speedPayload]{
		CustomEvent: func(c *Context, ev *beatmap.CustomEvent) (*speedPayload, error) {
			if ev.Type != "SetSpeed" {
				return nil, nil
			}
			raw, ok := ev.Data["speed"]
			if !ok {
				return nil, customdata.Missing("speed")
			}
			f, ok := customdata.AsFloat(raw)
			if !ok {
				return nil, &customdata.SchemaError{Field: "speed", Reason: "must be a number"}
			}
			return &speedPayload{Speed: f}, nil
		},
	}
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)
	if _, err := Register(r, "speed", speedHandlers()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	t.Run("duplicate id", func(t *testing.T) {
		if _, err := Register(r, "speed", speedHandlers()); err == nil {
			t.Fatalf("expected duplicate id error")
		}
	})
	t.Run("empty id", func(t *testing.T) {
		if _, err := Register(r, " ", speedHandlers()); !errors.Is(err, errEmptyID) {
			t.Fatalf("expected errEmptyID, got %v", err)
		}
	})
	t.Run("non struct payload", func(t *testing.T) {
		_, err := Register(r, "ints", Handlers[int]{Early: func(*Context) error { return nil }})
		if !errors.Is(err, errNonStruct) {
			t.Fatalf("expected errNonStruct, got %v", err)
		}
	})
	t.Run("no handlers", func(t *testing.T) {
		if _, err := Register(r, "idle", Handlers[speedPayload]{}); !errors.Is(err, errNoHandlers) {
			t.Fatalf("expected errNoHandlers, got %v", err)
		}
	})
	t.Run("unmapped key", func(t *testing.T) {
		h := speedHandlers()
		h.Keys = []compat.Key{compat.KeyTrack, compat.Key(-7)}
		_, err := Register(r, "broken", h)
		var missing *compat.MissingMappingError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingMappingError, got %v", err)
		}
	})
	t.Run("sealed after load", func(t *testing.T) {
		level := mustParseLevel(t, `{"version": "3.0.0"}`)
		if _, err := r.Load(context.Background(), level, LoadOptions{}); err != nil {
			t.Fatalf("load: %v", err)
		}
		if _, err := Register(r, "late", speedHandlers()); !errors.Is(err, errRegistrySealed) {
			t.Fatalf("expected errRegistrySealed, got %v", err)
		}
		if err := r.SetEnabled("speed", false); !errors.Is(err, errRegistrySealed) {
			t.Fatalf("expected errRegistrySealed, got %v", err)
		}
	})
}

func TestLoad_IsolatesMalformedItems(t *testing.T) {
	var events []string
	for i := 0; i < 10; i++ {
		speed := `{"speed": 2}`
		if i == 4 {
			speed = `{"speed": "fast"}`
		}
		events = append(events, `{"b": 1, "t": "SetSpeed", "d": `+speed+`}`)
	}
	events = append(events, `{"b": 2, "t": "Unrelated", "d": {}}`)
	level := mustParseLevel(t, `{"version": "3.0.0", "customData": {"customEvents": [`+strings.Join(events, ",")+`]}}`)

	r := newRegistry(t)
	if _, err := Register(r, "speed", speedHandlers()); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := r.Load(context.Background(), level, LoadOptions{Logger: testr.New(t)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, ok := res.Bindings.Get("speed")
	if !ok {
		t.Fatalf("expected speed bindings")
	}
	if got, _, _ := data.Len(); got != 9 {
		t.Fatalf("expected 9 payloads, got %d", got)
	}
	if _, ok := Resolve[speedPayload](data, level.CustomEvents[4]); ok {
		t.Fatalf("expected malformed item to stay unresolved")
	}
	p, ok := Resolve[speedPayload](data, level.CustomEvents[0])
	if !ok || p.Speed != 2 {
		t.Fatalf("expected resolved payload, got %+v %v", p, ok)
	}
	if res.Report.Len() != 1 || res.Report.Issues[0].Index != 4 || res.Report.Issues[0].Kind != KindCustomEvent {
		t.Fatalf("expected one issue for custom event 4, got %v", res.Report.Issues)
	}
	if res.Report.SchemaErrors() != 1 {
		t.Fatalf("expected the issue to be a schema error")
	}
}

func TestLoad_OrderAndIsolation(t *testing.T) {
	level := mustParseLevel(t, `{
		"version": "3.0.0",
		"colorNotes": [{"b": 0, "customData": {"track": "A"}}],
		"customData": {"customEvents": [{"b": 0, "t": "SetSpeed", "d": {"speed": 1}}]}
	}`)

	var calls []string
	r := newRegistry(t)
	for _, id := range []string{"first", "second"} {
		id := id
		h := speedHandlers()
		inner := h.CustomEvent
		h.Early = func(c *Context) error {
			calls = append(calls, id+" early")
			return nil
		}
		h.CustomEvent = func(c *Context, ev *beatmap.CustomEvent) (*speedPayload, error) {
			calls = append(calls, id+" custom event")
			return inner(c, ev)
		}
		h.Object = func(c *Context, obj *beatmap.Object) (*speedPayload, error) {
			calls = append(calls, id+" object")
			return nil, nil
		}
		if _, err := Register(r, id, h); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	if _, err := Register(r, "disabled", speedHandlers()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.SetEnabled("disabled", false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	res, err := r.Load(context.Background(), level, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"first early", "second early", "first custom event", "first object", "second custom event", "second object"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	if ids := res.Bindings.IDs(); len(ids) != 2 || ids[0] != "first" || ids[1] != "second" {
		t.Fatalf("unexpected binding ids %v", ids)
	}
	if _, ok := res.Bindings.Get("disabled"); ok {
		t.Fatalf("expected disabled deserializer to be skipped")
	}
}

func TestLoad_TracksAndDefinitions(t *testing.T) {
	level := mustParseLevel(t, `{
		"_version": "2.2.0",
		"_notes": [
			{"_time": 1, "_lineIndex": 1, "_customData": {"_track": "A"}},
			{"_time": 2, "_customData": {"_track": ["A", "B"]}},
			{"_time": 3, "_customData": {"_track": 5}}
		],
		"_customData": {"_pointDefinitions": [
			{"_name": "rise", "_points": [[0, 0, 0, 0], [0, 1, 0, 1]]},
			{"_name": "rise", "_points": [[9, 9, 9, 0]]},
			{"_name": "broken", "_points": []},
			{"_points": [[0, 0]]}
		]}
	}`)
	r := newRegistry(t)
	res, err := r.Load(context.Background(), level, LoadOptions{Logger: testr.New(t)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	a, ok := res.Tracks.Get("A")
	if !ok || a.Len() != 2 {
		t.Fatalf("expected track A with two members")
	}
	b, ok := res.Tracks.Get("B")
	if !ok || b.Len() != 1 {
		t.Fatalf("expected track B with one member")
	}
	if a.Objects()[0] != res.Nodes[level.Objects[0]] {
		t.Fatalf("expected object node to be a track member")
	}

	rise, ok := res.Points.Get("rise")
	if !ok || rise.Vector3(1)[1] != 1 {
		t.Fatalf("expected first rise definition to be kept")
	}
	if res.Points.Len() != 1 {
		t.Fatalf("expected one point definition, got %v", res.Points.Names())
	}
	if dups := res.Report.Duplicates(); len(dups) != 1 || dups[0] != "rise" {
		t.Fatalf("expected rise duplicate, got %v", dups)
	}
	// bad track field, duplicate, empty points, missing name
	if res.Report.Len() != 4 {
		t.Fatalf("expected 4 issues, got %v", res.Report.Issues)
	}
}

func TestLoad_CurrentFormatDefinitions(t *testing.T) {
	level := mustParseLevel(t, `{
		"version": "3.2.0",
		"customData": {
			"pointDefinitions": {"fade": [[1, 0], [0, 1]], "spin": [[0, 0, 0, 0], [0, 0, 90, 1]]},
			"customEvents": [{"b": 5, "t": "SetSpeed", "d": {"speed": 1}}],
			"eventDefinitions": [
				{"name": "boost", "type": "SetSpeed", "data": {"speed": 3}},
				{"name": "boost", "type": "SetSpeed", "data": {"speed": 4}},
				{"name": "empty", "type": "SetSpeed"}
			]
		}
	}`)
	r := newRegistry(t)
	if _, err := Register(r, "speed", speedHandlers()); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := r.Load(context.Background(), level, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if names := res.Points.Names(); len(names) != 2 || names[0] != "fade" || names[1] != "spin" {
		t.Fatalf("expected map form definitions in name order, got %v", names)
	}
	if len(res.CustomEvents) != 2 {
		t.Fatalf("expected level event plus one definition, got %d", len(res.CustomEvents))
	}
	def := res.CustomEvents[1]
	if def.Time != -1 || def.Definition != "boost" {
		t.Fatalf("unexpected definition event %+v", def)
	}
	data, _ := res.Bindings.Get("speed")
	p, ok := Resolve[speedPayload](data, def)
	if !ok || p.Speed != 3 {
		t.Fatalf("expected event definition to be deserialized, got %+v", p)
	}
	if res.Report.Len() != 2 {
		t.Fatalf("expected duplicate and missing data issues, got %v", res.Report.Issues)
	}
}

func TestLoad_RecoversFromPanics(t *testing.T) {
	level := mustParseLevel(t, `{"version": "3.0.0", "colorNotes": [{"b": 0}, {"b": 1}]}`)
	r := newRegistry(t)
	_, err := Register(r, "fragile", Handlers[speedPayload]{
		Object: func(c *Context, obj *beatmap.Object) (*speedPayload, error) {
			if obj.Index == 0 {
				panic("boom")
			}
			return &speedPayload{Speed: obj.Time}, nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := r.Load(context.Background(), level, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data, _ := res.Bindings.Get("fragile")
	if _, _, objects := data.Len(); objects != 1 {
		t.Fatalf("expected one object payload, got %d", objects)
	}
	if res.Report.Len() != 1 {
		t.Fatalf("expected panic to be reported")
	}
}

func TestLoad_Cancelled(t *testing.T) {
	r := newRegistry(t)
	if _, err := Register(r, "speed", speedHandlers()); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Load(ctx, mustParseLevel(t, `{"version": "3.0.0"}`), LoadOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSchemas(t *testing.T) {
	r := newRegistry(t)
	if _, err := Register(r, "speed", speedHandlers()); err != nil {
		t.Fatalf("register: %v", err)
	}
	schemas := r.Schemas()
	schema, ok := schemas["speed"]
	if !ok {
		t.Fatalf("expected schema for speed")
	}
	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	if !strings.Contains(string(data), `"speed"`) || !strings.Contains(string(data), `"required"`) {
		t.Fatalf("unexpected schema %s", data)
	}
}
