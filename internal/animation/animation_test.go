package animation

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"

	"trackkit/internal/beatmap"
	"trackkit/internal/deserialize"
	"trackkit/internal/easing"
	"trackkit/internal/mathutil"
	"trackkit/internal/pointdef"
	"trackkit/internal/track"
)

const level = `{
	"version": "3.2.0",
	"customData": {
		"pointDefinitions": {"rise": [[0, 0, 0, 0], [0, 10, 0, 1]]},
		"customEvents": [
			{"b": 0, "t": "AnimateTrack", "d": {"track": "A", "duration": 2, "offsetPosition": "rise", "dissolve": [[1, 0], [0, 1]]}},
			{"b": 1, "t": "AnimateTrack", "d": {"track": ["A", "B"], "easing": "easeInQuad", "repeat": 1, "offsetWorldRotation": [[0, 0, 0, 0], [0, 0, 90, 1]]}},
			{"b": 2, "t": "AnimateTrack", "d": {"track": "A", "offsetPosition": null}},
			{"b": 3, "t": "AnimateTrack", "d": {"track": "A", "dissolve": "missing"}},
			{"b": 4, "t": "AnimateTrack", "d": {"track": "A", "dissolve": "rise"}},
			{"b": 5, "t": "AnimateTrack", "d": {"duration": 1, "dissolve": [[0, 0]]}},
			{"b": 6, "t": "AnimateTrack", "d": {"track": "Z", "easing": "easeSideways", "dissolve": [[0, 0]]}},
			{"b": 7, "t": "AssignTrackParent", "d": {"parentTrack": "A"}}
		]
	}
}`

func load(t *testing.T) (*deserialize.Result, *deserialize.Data) {
	t.Helper()
	parsed, err := beatmap.Parse([]byte(level))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r, err := deserialize.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, err := Register(r); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := r.Load(context.Background(), parsed, deserialize.LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data, ok := res.Bindings.Get(ID)
	if !ok {
		t.Fatalf("expected animation bindings")
	}
	return res, data
}

func TestDeserialize(t *testing.T) {
	res, data := load(t)
	events := res.CustomEvents

	first, ok := deserialize.Resolve[Event](data, events[0])
	if !ok {
		t.Fatalf("expected first event to resolve")
	}
	if first.Duration != 2 || len(first.Properties) != 2 {
		t.Fatalf("unexpected first event %+v", first)
	}
	// properties are sorted by field name
	if first.Properties[0].Name != "dissolve" || first.Properties[1].Name != "offsetPosition" {
		t.Fatalf("unexpected property order %+v", first.Properties)
	}
	if first.Properties[1].Kind != track.KindVector3 {
		t.Fatalf("expected vector3 kind")
	}

	second, ok := deserialize.Resolve[Event](data, events[1])
	if !ok || len(second.Tracks) != 2 || second.Repeat != 1 || second.EasingName != "easeInQuad" {
		t.Fatalf("unexpected second event %+v", second)
	}

	cleared, ok := deserialize.Resolve[Event](data, events[2])
	if !ok || cleared.Properties[0].Points != nil {
		t.Fatalf("expected null to clear the property")
	}

	for _, i := range []int{3, 4, 5, 6} {
		if _, ok := deserialize.Resolve[Event](data, events[i]); ok {
			t.Fatalf("expected event %d to be rejected", i)
		}
	}
	if _, ok := deserialize.Resolve[Event](data, events[7]); ok {
		t.Fatalf("expected other event types to be ignored")
	}
	if res.Report.Len() != 4 {
		t.Fatalf("expected 4 issues, got %v", res.Report.Issues)
	}
}

func TestDeserialize_InvalidLeavesNoTracks(t *testing.T) {
	res, _ := load(t)
	// event 6 names track Z but is rejected for its easing
	for _, name := range []string{"A", "B"} {
		if _, ok := res.Tracks.Get(name); !ok {
			t.Fatalf("expected track %q", name)
		}
	}
	if res.Tracks.Len() != 2 {
		t.Fatalf("expected only tracks from valid events, got %d", res.Tracks.Len())
	}
}

func mustDefinition(t *testing.T, points ...pointdef.Point) *pointdef.Definition {
	t.Helper()
	def, err := pointdef.New("", points)
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	return def
}

func TestAnimator_Tick(t *testing.T) {
	reg := track.NewRegistry()
	a := reg.GetOrCreate("A")
	rise := mustDefinition(t,
		pointdef.Point{Values: []float64{0, 0, 0}, Time: 0},
		pointdef.Point{Values: []float64{0, 10, 0}, Time: 1},
	)
	anim := NewAnimator(logr.Discard())
	anim.Start(&Event{
		Tracks:     []*track.Track{a},
		Duration:   4,
		Properties: []Property{{Name: "offsetPosition", Kind: track.KindVector3, Points: rise}},
	}, 10)

	anim.Tick(9)
	if _, ok := a.Property("offsetPosition"); ok {
		t.Fatalf("expected nothing before the start beat")
	}
	anim.Tick(12)
	if v, _ := a.Vector3Property("offsetPosition"); !mathutil.ApproxVec3(v, mgl64.Vec3{0, 5, 0}, 1e-9) {
		t.Fatalf("expected halfway value, got %v", v)
	}
	anim.Tick(20)
	if v, _ := a.Vector3Property("offsetPosition"); v != (mgl64.Vec3{0, 10, 0}) {
		t.Fatalf("expected final value, got %v", v)
	}
	if anim.Len() != 0 {
		t.Fatalf("expected finished animation to be dropped")
	}
}

func TestAnimator_ReplacesSameProperty(t *testing.T) {
	reg := track.NewRegistry()
	a := reg.GetOrCreate("A")
	up := mustDefinition(t, pointdef.Point{Values: []float64{1}, Time: 0}, pointdef.Point{Values: []float64{1}, Time: 1})
	down := mustDefinition(t, pointdef.Point{Values: []float64{0}, Time: 0}, pointdef.Point{Values: []float64{0}, Time: 1})

	anim := NewAnimator(logr.Discard())
	anim.Start(&Event{Tracks: []*track.Track{a}, Duration: 10, Properties: []Property{{Name: "dissolve", Kind: track.KindFloat, Points: up}}}, 0)
	anim.Start(&Event{Tracks: []*track.Track{a}, Duration: 10, Properties: []Property{{Name: "dissolve", Kind: track.KindFloat, Points: down}}}, 1)
	if anim.Len() != 1 {
		t.Fatalf("expected one running animation, got %d", anim.Len())
	}
	anim.Tick(2)
	if f, _ := a.FloatProperty("dissolve"); f != 0 {
		t.Fatalf("expected replacing animation to win, got %v", f)
	}

	anim.Start(&Event{Tracks: []*track.Track{a}, Properties: []Property{{Name: "dissolve", Kind: track.KindFloat}}}, 3)
	if _, ok := a.Property("dissolve"); ok || anim.Len() != 0 {
		t.Fatalf("expected clear to stop the animation and remove the value")
	}
}

func TestAnimator_RepeatAndEasing(t *testing.T) {
	reg := track.NewRegistry()
	a := reg.GetOrCreate("A")
	ramp := mustDefinition(t, pointdef.Point{Values: []float64{0}, Time: 0}, pointdef.Point{Values: []float64{1}, Time: 1})

	ev := &Event{Tracks: []*track.Track{a}, Duration: 2, Repeat: 1, Properties: []Property{{Name: "time", Kind: track.KindFloat, Points: ramp}}}
	ev.Easing = easing.InQuad
	anim := NewAnimator(logr.Discard())
	anim.Start(ev, 0)

	anim.Tick(1)
	if f, _ := a.FloatProperty("time"); math.Abs(f-0.25) > 1e-9 {
		t.Fatalf("expected eased value 0.25, got %v", f)
	}
	anim.Tick(3)
	if f, _ := a.FloatProperty("time"); math.Abs(f-0.25) > 1e-9 || anim.Len() != 1 {
		t.Fatalf("expected second repetition, got %v", f)
	}
	anim.Tick(4)
	if f, _ := a.FloatProperty("time"); f != 1 || anim.Len() != 0 {
		t.Fatalf("expected animation to end after the repeat, got %v", f)
	}
}

func TestAnimator_ZeroDuration(t *testing.T) {
	a := track.NewRegistry().GetOrCreate("A")
	spin := mustDefinition(t, pointdef.Point{Values: []float64{0, 0, 0}, Time: 0}, pointdef.Point{Values: []float64{0, 0, 90}, Time: 1})
	anim := NewAnimator(logr.Discard())
	anim.Start(&Event{Tracks: []*track.Track{a}, Properties: []Property{{Name: "localRotation", Kind: track.KindQuaternion, Points: spin}}}, 5)
	anim.Tick(5)
	q, ok := a.QuaternionProperty("localRotation")
	if !ok {
		t.Fatalf("expected rotation to be set")
	}
	if got := q.Rotate(mgl64.Vec3{1, 0, 0}); !mathutil.ApproxVec3(got, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Fatalf("expected final rotation, got %v", got)
	}
	anim.Close()
	if anim.Len() != 0 {
		t.Fatalf("expected close to stop everything")
	}
}

func TestFits(t *testing.T) {
	scalar := mustDefinition(t, pointdef.Point{Values: []float64{0}, Time: 0})
	if !Fits(scalar, track.KindFloat) || Fits(scalar, track.KindVector3) {
		t.Fatalf("unexpected fit for scalar")
	}
	if kind, ok := KindOf("offsetWorldRotation"); !ok || kind != track.KindQuaternion {
		t.Fatalf("unexpected kind %v %v", kind, ok)
	}
}
