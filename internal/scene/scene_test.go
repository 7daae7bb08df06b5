package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"trackkit/internal/mathutil"
)

func TestWorldTransform(t *testing.T) {
	root := NewRoot()
	pivot := root.AddChild("pivot")
	pivot.SetLocal(mgl64.Vec3{0, 0, 5}, mathutil.EulerToQuat(0, 0, 90), mgl64.Vec3{2, 2, 2})
	leaf := pivot.AddChild("leaf")
	leaf.LocalPosition = mgl64.Vec3{1, 0, 0}

	if got := leaf.WorldPosition(); !mathutil.ApproxVec3(got, mgl64.Vec3{0, 2, 5}, 1e-9) {
		t.Fatalf("expected (0,2,5), got %v", got)
	}
	if got := leaf.WorldScale(); got != (mgl64.Vec3{2, 2, 2}) {
		t.Fatalf("unexpected world scale %v", got)
	}
}

func TestSetParent_WorldPositionStays(t *testing.T) {
	root := NewRoot()
	anchor := root.AddChild("anchor")
	anchor.SetLocal(mgl64.Vec3{3, 0, 0}, mathutil.EulerToQuat(0, 90, 0), mathutil.One)

	obj := root.AddChild("obj")
	obj.LocalPosition = mgl64.Vec3{1, 2, 3}

	obj.SetParent(anchor, true)
	if obj.Parent() != anchor || len(root.Children()) != 1 {
		t.Fatalf("expected obj to move under anchor")
	}
	if got := obj.WorldPosition(); !mathutil.ApproxVec3(got, mgl64.Vec3{1, 2, 3}, 1e-9) {
		t.Fatalf("expected world position to stay, got %v", got)
	}

	obj.SetParent(root, false)
	if got := obj.WorldPosition(); got != obj.LocalPosition {
		t.Fatalf("expected local position to be kept verbatim, got %v", got)
	}
}

func TestSetParent_RejectsCycle(t *testing.T) {
	root := NewRoot()
	a := root.AddChild("a")
	b := a.AddChild("b")
	a.SetParent(b, false)
	if a.Parent() != root {
		t.Fatalf("expected cycle to be refused")
	}
}

func TestFind_Path(t *testing.T) {
	root := NewRoot()
	root.Build("Environment/Rings/Ring(Clone)", "Environment/Lasers/Left")
	ring, ok := root.Find("Environment/Rings/Ring(Clone)")
	if !ok {
		t.Fatalf("expected to find ring")
	}
	if ring.Path() != "Environment/Rings/Ring(Clone)" {
		t.Fatalf("unexpected path %q", ring.Path())
	}
	if _, ok := root.Find("Environment/Nope"); ok {
		t.Fatalf("expected miss")
	}

	var paths []string
	for _, n := range root.Descendants() {
		paths = append(paths, n.Path())
	}
	want := []string{"Environment", "Environment/Rings", "Environment/Rings/Ring(Clone)", "Environment/Lasers", "Environment/Lasers/Left"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, paths)
		}
	}
}
