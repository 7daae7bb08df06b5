// Package animation drives track properties from AnimateTrack custom events.
package animation

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-logr/logr"

	"trackkit/internal/beatmap"
	"trackkit/internal/compat"
	"trackkit/internal/customdata"
	"trackkit/internal/deserialize"
	"trackkit/internal/easing"
	"trackkit/internal/pointdef"
	"trackkit/internal/track"
)

const (
	ID        = "animation"
	EventType = "AnimateTrack"
)

// Kinds maps every animated property to the shape of its values.
var Kinds = map[compat.Key]track.Kind{
	compat.PropOffsetPosition: track.KindVector3,
	compat.PropOffsetRotation: track.KindQuaternion,
	compat.PropLocalPosition:  track.KindVector3,
	compat.PropLocalRotation:  track.KindQuaternion,
	compat.PropScale:          track.KindVector3,
	compat.PropDissolve:       track.KindFloat,
	compat.PropDissolveArrow:  track.KindFloat,
	compat.PropInteractable:   track.KindFloat,
	compat.PropTime:           track.KindFloat,
	compat.PropColor:          track.KindVector4,
}

// KindOf returns the kind of a property by its canonical name.
func KindOf(name string) (track.Kind, bool) {
	k, ok := compat.PropertyByName(name, false)
	if !ok {
		return 0, false
	}
	kind, ok := Kinds[k]
	return kind, ok
}

// Fits reports whether a definition's width can produce values of kind.
func Fits(def *pointdef.Definition, kind track.Kind) bool {
	switch kind {
	case track.KindFloat:
		return def.Width() == 1
	case track.KindVector3:
		return def.Width() == 3
	case track.KindVector4:
		return def.Width() == 4
	case track.KindQuaternion:
		return def.Width() == 3 || def.Width() == 4
	default:
		return false
	}
}

// Evaluate samples def at t as a value of kind.
func Evaluate(def *pointdef.Definition, kind track.Kind, t float64) track.Value {
	switch kind {
	case track.KindVector3:
		return track.Vector3Value(def.Vector3(t))
	case track.KindVector4:
		return track.Vector4Value(def.Vector4(t))
	case track.KindQuaternion:
		return track.QuaternionValue(def.Quaternion(t))
	default:
		return track.FloatValue(def.Float(t))
	}
}

// Property is one animated property of an event. A nil Points clears the
// property instead of animating it.
type Property struct {
	Name   string               `json:"name" jsonschema:"required"`
	Kind   track.Kind           `json:"-"`
	Points *pointdef.Definition `json:"-"`
}

// Event is the payload of an AnimateTrack custom event.
type Event struct {
	TrackNames []string       `json:"track" jsonschema:"required,minItems=1"`
	Duration   float64        `json:"duration,omitempty" jsonschema:"minimum=0"`
	EasingName string         `json:"easing,omitempty"`
	Repeat     int            `json:"repeat,omitempty" jsonschema:"minimum=0"`
	Properties []Property     `json:"properties"`
	Tracks     []*track.Track `json:"-"`
	Easing     easing.Easing  `json:"-"`
}

// Register adds the animation deserializer.
func Register(r *deserialize.Registry) (*deserialize.Deserializer, error) {
	keys := []compat.Key{compat.KeyTrack, compat.KeyDuration, compat.KeyEasing, compat.KeyRepeat}
	keys = append(keys, compat.Properties()...)
	return deserialize.Register(r, ID, deserialize.Handlers[Event]{
		Keys:        keys,
		CustomEvent: deserializeEvent,
	})
}

func deserializeEvent(c *deserialize.Context, ev *beatmap.CustomEvent) (*Event, error) {
	if ev.Type != EventType {
		return nil, nil
	}
	return Parse(c, ev.Data)
}

// Parse reads an AnimateTrack payload.
func Parse(c *deserialize.Context, data customdata.Data) (*Event, error) {
	r := c.Reader(data)
	names, err := c.TrackNames(compat.KeyTrack, r)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, customdata.Missing(r.FieldName(compat.KeyTrack))
	}
	out := &Event{TrackNames: names}

	if out.Duration, _, err = r.Float(compat.KeyDuration); err != nil {
		return nil, err
	}
	if out.Duration < 0 || math.IsNaN(out.Duration) {
		return nil, &customdata.SchemaError{Field: r.FieldName(compat.KeyDuration), Reason: "must not be negative"}
	}
	if name, ok, err := r.String(compat.KeyEasing); err != nil {
		return nil, err
	} else if ok {
		e, err := easing.Parse(name)
		if err != nil {
			return nil, &customdata.SchemaError{Field: r.FieldName(compat.KeyEasing), Reason: err.Error()}
		}
		out.Easing, out.EasingName = e, name
	}
	if repeat, ok, err := r.Float(compat.KeyRepeat); err != nil {
		return nil, err
	} else if ok {
		if repeat < 0 || repeat != math.Trunc(repeat) {
			return nil, &customdata.SchemaError{Field: r.FieldName(compat.KeyRepeat), Reason: "must be a whole number"}
		}
		out.Repeat = int(repeat)
	}

	fields := make([]string, 0, len(data))
	for name := range data {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		key, ok := compat.PropertyByName(name, r.Legacy())
		if !ok {
			continue
		}
		prop := Property{Name: compat.PropertyName(key), Kind: Kinds[key]}
		if raw := data[name]; raw != nil {
			def, err := c.ResolvePoint(raw)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			if !Fits(def, prop.Kind) {
				return nil, &customdata.SchemaError{Field: name, Reason: fmt.Sprintf("a %s property cannot use %d-wide points", prop.Kind, def.Width())}
			}
			prop.Points = def
		}
		out.Properties = append(out.Properties, prop)
	}
	if len(out.Properties) == 0 {
		return nil, &customdata.SchemaError{Reason: "animation has no properties"}
	}
	out.Tracks = c.CreateTracks(out.TrackNames)
	return out, nil
}

type running struct {
	track    *track.Track
	property Property
	start    float64
	duration float64
	easing   easing.Easing
	repeat   int
}

// Animator writes the values of running animations onto their tracks.
type Animator struct {
	running []*running
	logger  logr.Logger
}

func NewAnimator(logger logr.Logger) *Animator {
	return &Animator{logger: logger}
}

// Start begins ev at beat. Any animation already running on the same track
// and property is replaced.
func (a *Animator) Start(ev *Event, beat float64) {
	for _, t := range ev.Tracks {
		for _, prop := range ev.Properties {
			a.stop(t, prop.Name)
			if prop.Points == nil {
				t.ClearProperty(prop.Name)
				continue
			}
			a.running = append(a.running, &running{
				track:    t,
				property: prop,
				start:    beat,
				duration: ev.Duration,
				easing:   ev.Easing,
				repeat:   ev.Repeat,
			})
			a.logger.V(1).Info("animating track", "track", t.Name(), "property", prop.Name, "beat", beat)
		}
	}
}

func (a *Animator) stop(t *track.Track, property string) {
	for i, r := range a.running {
		if r.track == t && r.property.Name == property {
			a.running = append(a.running[:i], a.running[i+1:]...)
			return
		}
	}
}

// Tick evaluates every running animation at beat. An animation is dropped
// once it has written its final value.
func (a *Animator) Tick(beat float64) {
	kept := a.running[:0]
	for _, r := range a.running {
		if beat < r.start {
			kept = append(kept, r)
			continue
		}
		progress, done := r.progress(beat)
		r.track.SetProperty(r.property.Name, Evaluate(r.property.Points, r.property.Kind, r.easing.Apply(progress)))
		if !done {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(a.running); i++ {
		a.running[i] = nil
	}
	a.running = kept
}

// progress is the normalised time within the current repetition.
func (r *running) progress(beat float64) (float64, bool) {
	if r.duration <= 0 {
		return 1, true
	}
	elapsed := beat - r.start
	if elapsed >= r.duration*float64(r.repeat+1) {
		return 1, true
	}
	return math.Mod(elapsed, r.duration) / r.duration, false
}

// Len is the number of running animations.
func (a *Animator) Len() int {
	return len(a.running)
}

// Close stops every animation.
func (a *Animator) Close() {
	a.running = nil
}
