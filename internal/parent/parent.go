// Package parent attaches the members of child tracks to a synthetic node
// driven by a parent track, from AssignTrackParent custom events.
package parent

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"

	"trackkit/internal/beatmap"
	"trackkit/internal/compat"
	"trackkit/internal/customdata"
	"trackkit/internal/deserialize"
	"trackkit/internal/mathutil"
	"trackkit/internal/scene"
	"trackkit/internal/track"
)

const (
	ID        = "parent"
	EventType = "AssignTrackParent"

	// DefaultUnit is the distance between note lanes, the unit that base
	// and offset positions are expressed in.
	DefaultUnit = 0.6

	nodeName = "ParentObject"
)

// SelfParentingError is returned when a track is listed as its own child.
type SelfParentingError struct {
	Track string
}

func (e *SelfParentingError) Error() string {
	return fmt.Sprintf("track %q cannot be its own parent", e.Track)
}

// TrackData is the payload of an AssignTrackParent event. Rotations are
// euler angles in degrees.
type TrackData struct {
	ParentName         string         `json:"parentTrack" jsonschema:"required"`
	ChildNames         []string       `json:"childrenTracks" jsonschema:"required,minItems=1"`
	WorldPositionStays bool           `json:"worldPositionStays,omitempty"`
	Position           *mgl64.Vec3    `json:"position,omitempty"`
	Rotation           *mgl64.Vec3    `json:"rotation,omitempty"`
	LocalRotation      *mgl64.Vec3    `json:"localRotation,omitempty"`
	Scale              *mgl64.Vec3    `json:"scale,omitempty"`
	Parent             *track.Track   `json:"-"`
	Children           []*track.Track `json:"-"`
}

// Register adds the parent deserializer.
func Register(r *deserialize.Registry) (*deserialize.Deserializer, error) {
	return deserialize.Register(r, ID, deserialize.Handlers[TrackData]{
		Keys: []compat.Key{
			compat.KeyParentTrack,
			compat.KeyChildrenTracks,
			compat.KeyWorldPositionStays,
			compat.KeyPosition,
			compat.KeyRotation,
			compat.KeyLocalRotation,
			compat.KeyScale,
		},
		CustomEvent: deserializeEvent,
	})
}

func deserializeEvent(c *deserialize.Context, ev *beatmap.CustomEvent) (*TrackData, error) {
	if ev.Type != EventType {
		return nil, nil
	}
	r := c.Reader(ev.Data)

	parentName, err := r.RequiredString(compat.KeyParentTrack)
	if err != nil {
		return nil, err
	}
	childNames, err := c.TrackNames(compat.KeyChildrenTracks, r)
	if err != nil {
		return nil, err
	}
	if len(childNames) == 0 {
		return nil, customdata.Missing(r.FieldName(compat.KeyChildrenTracks))
	}
	data := &TrackData{ParentName: parentName, ChildNames: childNames}

	if data.WorldPositionStays, _, err = r.Bool(compat.KeyWorldPositionStays); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		key compat.Key
		dst **mgl64.Vec3
	}{
		{compat.KeyPosition, &data.Position},
		{compat.KeyRotation, &data.Rotation},
		{compat.KeyLocalRotation, &data.LocalRotation},
		{compat.KeyScale, &data.Scale},
	} {
		v, ok, err := c.Vector3(r, field.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*field.dst = &v
		}
	}
	data.Parent = c.Tracks.GetOrCreate(parentName)
	data.Children = c.CreateTracks(childNames)
	return data, nil
}

type Options struct {
	// Unit scales base and offset positions. Zero means DefaultUnit.
	Unit       float64
	LeftHanded bool
	// Root receives the synthetic parent nodes. A fresh root is used when nil.
	Root   *scene.Node
	Logger logr.Logger
}

// Controller owns the attachments of one level and ticks them in creation
// order.
type Controller struct {
	opts        Options
	attachments []*Attachment
}

func NewController(opts Options) *Controller {
	if opts.Unit == 0 {
		opts.Unit = DefaultUnit
	}
	if opts.Root == nil {
		opts.Root = scene.NewRoot()
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	return &Controller{opts: opts}
}

type childLink struct {
	track   *track.Track
	added   *track.Subscription
	removed *track.Subscription
}

func (l *childLink) cancel() {
	l.added.Cancel()
	l.removed.Cancel()
}

// Attachment is one live parent relationship.
type Attachment struct {
	ctrl               *Controller
	node               *scene.Node
	parent             *track.Track
	children           []*childLink
	worldPositionStays bool

	basePos      mgl64.Vec3
	baseRot      mgl64.Quat
	baseLocalRot mgl64.Quat
	baseScale    mgl64.Vec3
}

// Create attaches every member of data's child tracks to a new node that
// follows the parent track. A child track already owned by an earlier
// attachment is taken over.
func (c *Controller) Create(data *TrackData) (*Attachment, error) {
	parent := data.Parent
	for _, child := range data.Children {
		if child == parent || child.Name() == data.ParentName {
			return nil, &SelfParentingError{Track: data.ParentName}
		}
	}

	a := &Attachment{
		ctrl:               c,
		node:               c.opts.Root.AddChild(nodeName),
		parent:             parent,
		worldPositionStays: data.WorldPositionStays,
		baseRot:            mgl64.QuatIdent(),
		baseLocalRot:       mgl64.QuatIdent(),
		baseScale:          mathutil.One,
	}
	parent.AddObject(a.node)

	for _, child := range data.Children {
		for _, other := range c.attachments {
			other.release(child)
		}
		for _, n := range child.Objects() {
			n.SetParent(a.node, a.worldPositionStays)
		}
		link := &childLink{track: child}
		link.added = child.OnObjectAdded(a.onAdded)
		link.removed = child.OnObjectRemoved(a.onRemoved)
		a.children = append(a.children, link)
	}

	if data.Position != nil {
		a.basePos = *data.Position
	}
	if data.Rotation != nil {
		a.baseRot = mathutil.EulerVecToQuat(*data.Rotation)
		a.baseLocalRot = a.baseRot
	}
	if data.LocalRotation != nil {
		a.baseLocalRot = a.baseRot.Mul(mathutil.EulerVecToQuat(*data.LocalRotation))
	}
	if data.Scale != nil {
		a.baseScale = *data.Scale
	}
	a.Tick()

	c.attachments = append(c.attachments, a)
	c.opts.Logger.V(1).Info("attached tracks", "parent", data.ParentName, "children", data.ChildNames)
	return a, nil
}

// release gives up a child track claimed by a newer attachment.
func (a *Attachment) release(t *track.Track) {
	for i, link := range a.children {
		if link.track == t {
			link.cancel()
			a.children = append(a.children[:i], a.children[i+1:]...)
			return
		}
	}
}

func (a *Attachment) onAdded(_ *track.Track, n *scene.Node) {
	n.SetParent(a.node, a.worldPositionStays)
}

func (a *Attachment) onRemoved(_ *track.Track, n *scene.Node) {
	if n.Parent() != a.node {
		return
	}
	for _, link := range a.children {
		if link.track.Contains(n) {
			return
		}
	}
	n.SetParent(nil, false)
}

func (a *Attachment) Node() *scene.Node {
	return a.node
}

func (a *Attachment) Parent() *track.Track {
	return a.parent
}

// Children lists the child tracks still owned by this attachment.
func (a *Attachment) Children() []*track.Track {
	out := make([]*track.Track, len(a.children))
	for i, link := range a.children {
		out[i] = link.track
	}
	return out
}

// Tick recomputes the node's local transform from the parent track.
func (a *Attachment) Tick() {
	unit := a.ctrl.opts.Unit
	leftHanded := a.ctrl.opts.LeftHanded
	offsetRot, hasRot := a.parent.QuaternionProperty(compat.PropertyName(compat.PropOffsetRotation))
	offsetPos, hasPos := a.parent.Vector3Property(compat.PropertyName(compat.PropOffsetPosition))
	if leftHanded {
		offsetRot = mathutil.MirrorQuat(offsetRot)
		offsetPos = mathutil.MirrorVec3(offsetPos)
	}

	worldRot := a.baseRot
	pos := worldRot.Rotate(a.basePos.Mul(unit))
	if hasRot || hasPos {
		if !hasRot {
			offsetRot = mgl64.QuatIdent()
		}
		if !hasPos {
			offsetPos = mgl64.Vec3{}
		}
		worldRot = worldRot.Mul(offsetRot)
		pos = worldRot.Rotate(offsetPos.Add(a.basePos).Mul(unit))
	}

	worldRot = worldRot.Mul(a.baseLocalRot)
	if localRot, ok := a.parent.QuaternionProperty(compat.PropertyName(compat.PropLocalRotation)); ok {
		if leftHanded {
			localRot = mathutil.MirrorQuat(localRot)
		}
		worldRot = worldRot.Mul(localRot)
	}

	scale := a.baseScale
	if s, ok := a.parent.Vector3Property(compat.PropertyName(compat.PropScale)); ok {
		scale = mathutil.ScaleVec(a.baseScale, s)
	}
	a.node.SetLocal(pos, worldRot.Normalize(), scale)
}

// Close unsubscribes from every child track and removes the node from the
// parent track.
func (a *Attachment) Close() {
	for _, link := range a.children {
		link.cancel()
	}
	a.children = nil
	a.parent.RemoveObject(a.node)
	for i, other := range a.ctrl.attachments {
		if other == a {
			a.ctrl.attachments = append(a.ctrl.attachments[:i], a.ctrl.attachments[i+1:]...)
			break
		}
	}
}

// Tick updates every attachment in creation order.
func (c *Controller) Tick() {
	for _, a := range c.attachments {
		a.Tick()
	}
}

func (c *Controller) Attachments() []*Attachment {
	return append([]*Attachment(nil), c.attachments...)
}

// Close tears down every attachment.
func (c *Controller) Close() {
	for len(c.attachments) > 0 {
		c.attachments[len(c.attachments)-1].Close()
	}
}
