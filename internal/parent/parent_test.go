package parent

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr/testr"

	"trackkit/internal/beatmap"
	"trackkit/internal/deserialize"
	"trackkit/internal/mathutil"
	"trackkit/internal/pointdef"
	"trackkit/internal/scene"
	"trackkit/internal/track"
)

const tolerance = 1e-9

func setup(t *testing.T) (*track.Registry, *scene.Node, *Controller) {
	t.Helper()
	root := scene.NewRoot()
	return track.NewRegistry(), root, NewController(Options{Root: root, Logger: testr.New(t)})
}

func member(root *scene.Node, name string, pos mgl64.Vec3) *scene.Node {
	n := root.AddChild(name)
	n.LocalPosition = pos
	return n
}

func TestTick_ParentRotationMovesChildren(t *testing.T) {
	tracks, root, ctrl := setup(t)
	a, b := tracks.GetOrCreate("A"), tracks.GetOrCreate("B")
	obj := member(root, "O", mgl64.Vec3{1, 0, 0})
	b.AddObject(obj)

	att, err := ctrl.Create(&TrackData{ParentName: "A", Parent: a, ChildNames: []string{"B"}, Children: []*track.Track{b}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if obj.Parent() != att.Node() || !a.Contains(att.Node()) {
		t.Fatalf("expected object under the synthetic node, which belongs to A")
	}

	spin, err := pointdef.Parse([]any{[]any{0.0, 0.0, 0.0, 0.0}, []any{0.0, 0.0, 90.0, 1.0}})
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	a.SetProperty("offsetWorldRotation", track.QuaternionValue(spin.Quaternion(1)))
	ctrl.Tick()

	if got := obj.WorldPosition(); !mathutil.ApproxVec3(got, mgl64.Vec3{0, 1, 0}, tolerance) {
		t.Fatalf("expected world position (0,1,0), got %v", got)
	}
}

func TestCreate_SelfParenting(t *testing.T) {
	tracks, root, ctrl := setup(t)
	a := tracks.GetOrCreate("A")
	_, err := ctrl.Create(&TrackData{ParentName: "A", Parent: a, ChildNames: []string{"A"}, Children: []*track.Track{a}})
	var self *SelfParentingError
	if !errors.As(err, &self) || self.Track != "A" {
		t.Fatalf("expected self parenting error, got %v", err)
	}
	if len(ctrl.Attachments()) != 0 || len(root.Children()) != 0 || a.Len() != 0 {
		t.Fatalf("expected nothing to be created")
	}
}

func TestCreate_MembershipChanges(t *testing.T) {
	tracks, root, ctrl := setup(t)
	a, b, c := tracks.GetOrCreate("A"), tracks.GetOrCreate("B"), tracks.GetOrCreate("C")
	att, err := ctrl.Create(&TrackData{Parent: a, ParentName: "A", Children: []*track.Track{b, c}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	late := member(root, "late", mgl64.Vec3{})
	b.AddObject(late)
	if late.Parent() != att.Node() {
		t.Fatalf("expected object added later to be attached")
	}

	c.AddObject(late)
	b.RemoveObject(late)
	if late.Parent() != att.Node() {
		t.Fatalf("expected object still in C to stay attached")
	}
	c.RemoveObject(late)
	if late.Parent() != nil {
		t.Fatalf("expected object to be detached")
	}
}

func TestCreate_NewerAttachmentTakesChildTrack(t *testing.T) {
	tracks, root, ctrl := setup(t)
	a, b, x := tracks.GetOrCreate("A"), tracks.GetOrCreate("B"), tracks.GetOrCreate("X")
	obj := member(root, "O", mgl64.Vec3{})
	x.AddObject(obj)

	first, err := ctrl.Create(&TrackData{Parent: a, ParentName: "A", Children: []*track.Track{x}})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := ctrl.Create(&TrackData{Parent: b, ParentName: "B", Children: []*track.Track{x}})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if len(first.Children()) != 0 || len(second.Children()) != 1 {
		t.Fatalf("expected X to move to the newer attachment")
	}
	if obj.Parent() != second.Node() {
		t.Fatalf("expected object under the newer node")
	}
	if added, removed := x.Observers(); added != 1 || removed != 1 {
		t.Fatalf("expected one subscription each, got %d %d", added, removed)
	}

	late := member(root, "late", mgl64.Vec3{})
	x.AddObject(late)
	if late.Parent() != second.Node() {
		t.Fatalf("expected only the newer attachment to react")
	}
}

func TestTick_BaseTransformWorldPositionStays(t *testing.T) {
	tracks, root, _ := setup(t)
	ctrl := NewController(Options{Root: root, Unit: 1})
	a, b := tracks.GetOrCreate("A"), tracks.GetOrCreate("B")
	obj := member(root, "O", mgl64.Vec3{2, 0, 0})
	b.AddObject(obj)

	pos := mgl64.Vec3{0, 0, 5}
	rot := mgl64.Vec3{0, 0, 90}
	scale := mgl64.Vec3{2, 2, 2}
	att, err := ctrl.Create(&TrackData{
		Parent:             a,
		ParentName:         "A",
		Children:           []*track.Track{b},
		WorldPositionStays: true,
		Position:           &pos,
		Rotation:           &rot,
		Scale:              &scale,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	node := att.Node()
	// base position is rotated by the base rotation
	if !mathutil.ApproxVec3(node.LocalPosition, mgl64.Vec3{0, 0, 5}, tolerance) {
		t.Fatalf("unexpected node position %v", node.LocalPosition)
	}
	// rotation is applied once as the base and once as the base local rotation
	if got := node.LocalRotation.Rotate(mgl64.Vec3{1, 0, 0}); !mathutil.ApproxVec3(got, mgl64.Vec3{-1, 0, 0}, tolerance) {
		t.Fatalf("unexpected node rotation %v", got)
	}
	// reparenting happened before the base transform, so the local offset is
	// the original world position
	if !mathutil.ApproxVec3(obj.LocalPosition, mgl64.Vec3{2, 0, 0}, tolerance) {
		t.Fatalf("unexpected child local position %v", obj.LocalPosition)
	}

	a.SetProperty("scale", track.Vector3Value(mgl64.Vec3{1, 0.5, 1}))
	ctrl.Tick()
	if node.LocalScale != (mgl64.Vec3{2, 1, 2}) {
		t.Fatalf("expected scale product, got %v", node.LocalScale)
	}
}

func TestTick_OffsetPositionUsesUnit(t *testing.T) {
	tracks, _, ctrl := setup(t)
	a, b := tracks.GetOrCreate("A"), tracks.GetOrCreate("B")
	att, err := ctrl.Create(&TrackData{Parent: a, ParentName: "A", Children: []*track.Track{b}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a.SetProperty("offsetPosition", track.Vector3Value(mgl64.Vec3{1, 2, 0}))
	ctrl.Tick()
	if want := (mgl64.Vec3{0.6, 1.2, 0}); !mathutil.ApproxVec3(att.Node().LocalPosition, want, tolerance) {
		t.Fatalf("expected %v, got %v", want, att.Node().LocalPosition)
	}

	mirrored := NewController(Options{LeftHanded: true})
	c, d := tracks.GetOrCreate("C"), tracks.GetOrCreate("D")
	c.SetProperty("offsetPosition", track.Vector3Value(mgl64.Vec3{1, 0, 0}))
	m, err := mirrored.Create(&TrackData{Parent: c, ParentName: "C", Children: []*track.Track{d}})
	if err != nil {
		t.Fatalf("create mirrored: %v", err)
	}
	if want := mathutil.MirrorVec3(mgl64.Vec3{0.6, 0, 0}); !mathutil.ApproxVec3(m.Node().LocalPosition, want, tolerance) {
		t.Fatalf("expected mirrored offset %v, got %v", want, m.Node().LocalPosition)
	}
}

func TestController_Close(t *testing.T) {
	tracks, _, ctrl := setup(t)
	a, b := tracks.GetOrCreate("A"), tracks.GetOrCreate("B")
	if _, err := ctrl.Create(&TrackData{Parent: a, ParentName: "A", Children: []*track.Track{b}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	ctrl.Close()
	if added, removed := b.Observers(); added != 0 || removed != 0 {
		t.Fatalf("expected subscriptions to be cancelled")
	}
	if a.Len() != 0 || len(ctrl.Attachments()) != 0 {
		t.Fatalf("expected the synthetic node to leave the parent track")
	}
}

const level = `{
	"_version": "2.2.0",
	"_customData": {
		"_customEvents": [
			{"_time": 1, "_type": "AssignTrackParent", "_data": {"_parentTrack": "A", "_childrenTracks": ["B", "B", "C"], "_worldPositionStays": true, "_position": [0, 1, 0]}},
			{"_time": 2, "_type": "AssignTrackParent", "_data": {"_parentTrack": "A"}},
			{"_time": 3, "_type": "AssignTrackParent", "_data": {"_parentTrack": "A", "_childrenTracks": "B", "_scale": [1, 2]}},
			{"_time": 4, "_type": "AnimateTrack", "_data": {"_track": "A"}}
		]
	}
}`

func TestDeserialize(t *testing.T) {
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
	res, err := r.Load(context.Background(), parsed, deserialize.LoadOptions{Logger: testr.New(t)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data, ok := res.Bindings.Get(ID)
	if !ok {
		t.Fatalf("expected parent bindings")
	}

	first, ok := deserialize.Resolve[TrackData](data, res.CustomEvents[0])
	if !ok {
		t.Fatalf("expected first event to resolve")
	}
	if first.ParentName != "A" || len(first.Children) != 2 || !first.WorldPositionStays {
		t.Fatalf("unexpected payload %+v", first)
	}
	if first.Position == nil || *first.Position != (mgl64.Vec3{0, 1, 0}) || first.Rotation != nil {
		t.Fatalf("unexpected base transform %+v", first)
	}
	for _, i := range []int{1, 2, 3} {
		if _, ok := deserialize.Resolve[TrackData](data, res.CustomEvents[i]); ok {
			t.Fatalf("expected event %d not to resolve", i)
		}
	}
	if res.Report.Len() != 2 {
		t.Fatalf("expected 2 issues, got %v", res.Report.Issues)
	}
}

func TestDeserialize_InvalidLeavesNoTracks(t *testing.T) {
	parsed, err := beatmap.Parse([]byte(`{
		"version": "3.2.0",
		"customData": {
			"customEvents": [
				{"b": 0, "t": "AssignTrackParent", "d": {"parentTrack": "P", "childrenTracks": ["Q"], "position": "up"}}
			]
		}
	}`))
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
	res, err := r.Load(context.Background(), parsed, deserialize.LoadOptions{Logger: testr.New(t)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Report.Len() != 1 {
		t.Fatalf("expected 1 issue, got %v", res.Report.Issues)
	}
	for _, name := range []string{"P", "Q"} {
		if _, ok := res.Tracks.Get(name); ok {
			t.Fatalf("expected no track %q for a rejected event", name)
		}
	}
}
