// Package track implements named groups of scene nodes together with the
// animated property values currently applied to them.
package track

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"trackkit/internal/scene"
)

// Kind is the value shape of an animated property.
type Kind int

const (
	KindFloat Kind = iota
	KindVector3
	KindVector4
	KindQuaternion
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindVector3:
		return "vector3"
	case KindVector4:
		return "vector4"
	case KindQuaternion:
		return "quaternion"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := KindFloat; k <= KindQuaternion; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown property kind %q", s)
}

// Value is a tagged property value.
type Value struct {
	Kind       Kind
	Float      float64
	Vector3    mgl64.Vec3
	Vector4    mgl64.Vec4
	Quaternion mgl64.Quat
}

func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

func Vector3Value(v mgl64.Vec3) Value {
	return Value{Kind: KindVector3, Vector3: v}
}

func Vector4Value(v mgl64.Vec4) Value {
	return Value{Kind: KindVector4, Vector4: v}
}

func QuaternionValue(q mgl64.Quat) Value {
	return Value{Kind: KindQuaternion, Quaternion: q}
}

func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindVector3:
		return fmt.Sprintf("(%g, %g, %g)", v.Vector3[0], v.Vector3[1], v.Vector3[2])
	case KindVector4:
		return fmt.Sprintf("(%g, %g, %g, %g)", v.Vector4[0], v.Vector4[1], v.Vector4[2], v.Vector4[3])
	case KindQuaternion:
		q := v.Quaternion
		return fmt.Sprintf("(%g, %g, %g, %g)", q.V[0], q.V[1], q.V[2], q.W)
	default:
		return v.Kind.String()
	}
}

// Observer is notified when a node joins or leaves a track.
type Observer func(t *Track, n *scene.Node)

type observerList struct {
	entries []*subscriberEntry
}

type subscriberEntry struct {
	fn        Observer
	cancelled bool
}

// Subscription is the handle returned when registering an observer.
type Subscription struct {
	list  *observerList
	entry *subscriberEntry
}

// Cancel stops further notifications, including any still pending in a
// dispatch pass that is under way. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.entry.cancelled {
		return
	}
	s.entry.cancelled = true
	for i, e := range s.list.entries {
		if e == s.entry {
			s.list.entries = append(s.list.entries[:i], s.list.entries[i+1:]...)
			break
		}
	}
}

func (l *observerList) add(fn Observer) *Subscription {
	e := &subscriberEntry{fn: fn}
	l.entries = append(l.entries, e)
	return &Subscription{list: l, entry: e}
}

// dispatch notifies the observers registered when the pass starts.
func (l *observerList) dispatch(t *Track, n *scene.Node) {
	snapshot := append([]*subscriberEntry(nil), l.entries...)
	for _, e := range snapshot {
		if e.cancelled {
			continue
		}
		e.fn(t, n)
	}
}

func (l *observerList) clear() {
	for _, e := range l.entries {
		e.cancelled = true
	}
	l.entries = nil
}

// Track is a named set of nodes and their animated properties.
type Track struct {
	name       string
	members    map[*scene.Node]struct{}
	order      []*scene.Node
	properties map[string]Value
	added      observerList
	removed    observerList
}

func newTrack(name string) *Track {
	return &Track{
		name:       name,
		members:    make(map[*scene.Node]struct{}),
		properties: make(map[string]Value),
	}
}

func (t *Track) Name() string {
	return t.name
}

// AddObject adds n and notifies observers. Adding a member again is a no-op.
func (t *Track) AddObject(n *scene.Node) {
	if n == nil {
		return
	}
	if _, ok := t.members[n]; ok {
		return
	}
	t.members[n] = struct{}{}
	t.order = append(t.order, n)
	t.added.dispatch(t, n)
}

// RemoveObject removes n and notifies observers. Removing a non-member is a
// no-op.
func (t *Track) RemoveObject(n *scene.Node) {
	if _, ok := t.members[n]; !ok {
		return
	}
	delete(t.members, n)
	for i, m := range t.order {
		if m == n {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.removed.dispatch(t, n)
}

func (t *Track) Contains(n *scene.Node) bool {
	_, ok := t.members[n]
	return ok
}

// Objects lists members in the order they were added.
func (t *Track) Objects() []*scene.Node {
	return append([]*scene.Node(nil), t.order...)
}

func (t *Track) Len() int {
	return len(t.order)
}

func (t *Track) OnObjectAdded(fn Observer) *Subscription {
	return t.added.add(fn)
}

func (t *Track) OnObjectRemoved(fn Observer) *Subscription {
	return t.removed.add(fn)
}

// Observers reports how many add and remove observers are registered.
func (t *Track) Observers() (added, removed int) {
	return len(t.added.entries), len(t.removed.entries)
}

func (t *Track) SetProperty(name string, v Value) {
	t.properties[name] = v
}

func (t *Track) ClearProperty(name string) {
	delete(t.properties, name)
}

func (t *Track) Property(name string) (Value, bool) {
	v, ok := t.properties[name]
	return v, ok
}

// PropertyNames lists the properties currently set.
func (t *Track) PropertyNames() []string {
	names := make([]string, 0, len(t.properties))
	for name := range t.properties {
		names = append(names, name)
	}
	return names
}

func (t *Track) Vector3Property(name string) (mgl64.Vec3, bool) {
	v, ok := t.properties[name]
	if !ok || v.Kind != KindVector3 {
		return mgl64.Vec3{}, false
	}
	return v.Vector3, true
}

func (t *Track) QuaternionProperty(name string) (mgl64.Quat, bool) {
	v, ok := t.properties[name]
	if !ok || v.Kind != KindQuaternion {
		return mgl64.QuatIdent(), false
	}
	return v.Quaternion, true
}

func (t *Track) FloatProperty(name string) (float64, bool) {
	v, ok := t.properties[name]
	if !ok || v.Kind != KindFloat {
		return 0, false
	}
	return v.Float, true
}

// close resets the track without notifying anyone.
func (t *Track) close() {
	t.added.clear()
	t.removed.clear()
	t.members = make(map[*scene.Node]struct{})
	t.order = nil
	t.properties = make(map[string]Value)
}

// Registry owns the tracks of one level.
type Registry struct {
	tracks map[string]*Track
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{tracks: make(map[string]*Track)}
}

// GetOrCreate returns the track with the given name, creating it on first use.
func (r *Registry) GetOrCreate(name string) *Track {
	if t, ok := r.tracks[name]; ok {
		return t
	}
	t := newTrack(name)
	r.tracks[name] = t
	r.order = append(r.order, name)
	return t
}

func (r *Registry) Get(name string) (*Track, bool) {
	t, ok := r.tracks[name]
	return t, ok
}

// Names lists tracks in creation order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	return len(r.tracks)
}

// Close cancels every subscription and drops all tracks.
func (r *Registry) Close() {
	for _, t := range r.tracks {
		t.close()
	}
	r.tracks = make(map[string]*Track)
	r.order = nil
}
