// Package scene is a minimal transform hierarchy standing in for the host
// engine. Tracks group its nodes and attachments reparent them.
package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"trackkit/internal/mathutil"
)

// Node is a named transform with a parent and ordered children.
type Node struct {
	name     string
	parent   *Node
	children []*Node

	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat
	LocalScale    mgl64.Vec3
}

// New returns a detached node with an identity transform.
func New(name string) *Node {
	return &Node{
		name:          name,
		LocalRotation: mgl64.QuatIdent(),
		LocalScale:    mathutil.One,
	}
}

// NewRoot returns an unnamed node to hold a level's hierarchy.
func NewRoot() *Node {
	return New("")
}

// AddChild creates a node under n.
func (n *Node) AddChild(name string) *Node {
	child := New(name)
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// Child returns the first direct child with the given name, creating it when
// missing.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return n.AddChild(name)
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// SetLocal replaces the local transform.
func (n *Node) SetLocal(pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) {
	n.LocalPosition = pos
	n.LocalRotation = rot
	n.LocalScale = scale
}

// SetParent moves n under parent, or detaches it when parent is nil. With
// worldPositionStays the local transform is rewritten so the world transform
// is unchanged.
func (n *Node) SetParent(parent *Node, worldPositionStays bool) {
	if parent == n.parent {
		return
	}
	for p := parent; p != nil; p = p.parent {
		if p == n {
			return
		}
	}

	var pos mgl64.Vec3
	var rot mgl64.Quat
	var scale mgl64.Vec3
	if worldPositionStays {
		pos, rot, scale = n.WorldPosition(), n.WorldRotation(), n.WorldScale()
	}

	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}

	if !worldPositionStays {
		return
	}
	if parent == nil {
		n.SetLocal(pos, rot, scale)
		return
	}
	inv := parent.WorldRotation().Inverse()
	parentScale := parent.WorldScale()
	n.SetLocal(
		mathutil.DivVec(inv.Rotate(pos.Sub(parent.WorldPosition())), parentScale),
		inv.Mul(rot).Normalize(),
		mathutil.DivVec(scale, parentScale),
	)
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// WorldRotation composes local rotations from the root down.
func (n *Node) WorldRotation() mgl64.Quat {
	if n.parent == nil {
		return n.LocalRotation
	}
	return n.parent.WorldRotation().Mul(n.LocalRotation)
}

// WorldScale is the component-wise product of local scales. Like most
// engines it ignores skew introduced by rotated, non-uniform parents.
func (n *Node) WorldScale() mgl64.Vec3 {
	if n.parent == nil {
		return n.LocalScale
	}
	return mathutil.ScaleVec(n.parent.WorldScale(), n.LocalScale)
}

func (n *Node) WorldPosition() mgl64.Vec3 {
	if n.parent == nil {
		return n.LocalPosition
	}
	return n.parent.TransformPoint(n.LocalPosition)
}

// TransformPoint maps a point in n's local space to world space.
func (n *Node) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	scaled := mathutil.ScaleVec(n.WorldScale(), p)
	return n.WorldRotation().Rotate(scaled).Add(n.WorldPosition())
}

// Path is the slash-joined chain of names below the root.
func (n *Node) Path() string {
	var parts []string
	for p := n; p != nil && p.parent != nil; p = p.parent {
		parts = append(parts, p.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Walk visits every descendant depth-first in child order. Returning false
// from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, c := range n.children {
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// Descendants lists every node below n in walk order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Find resolves a path relative to n.
func (n *Node) Find(path string) (*Node, bool) {
	cur := n
	for _, part := range strings.Split(path, "/") {
		var next *Node
		for _, c := range cur.children {
			if c.name == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Build creates the nodes named by slash-separated paths under n, reusing
// existing ones.
func (n *Node) Build(paths ...string) {
	for _, path := range paths {
		cur := n
		for _, part := range strings.Split(path, "/") {
			if part == "" {
				continue
			}
			cur = cur.Child(part)
		}
	}
}
