// Package pointdef parses and evaluates point definitions: named keyframe
// curves that drive animated track properties.
package pointdef

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"trackkit/internal/customdata"
	"trackkit/internal/easing"
	"trackkit/internal/mathutil"
)

// SplineCatmullRomFlag marks a keyframe whose incoming segment is a
// Catmull-Rom spline instead of a straight line.
const SplineCatmullRomFlag = "splineCatmullRom"

type Spline int

const (
	SplineNone Spline = iota
	SplineCatmullRom
)

// Point is a single keyframe.
type Point struct {
	Values []float64
	Time   float64
	Easing easing.Easing
	Spline Spline
}

// Definition is an immutable, time-sorted keyframe curve.
type Definition struct {
	name   string
	width  int
	points []Point
	quats  []mgl64.Quat
}

// Parse builds an unnamed definition from decoded level data. It accepts a
// list of keyframes, or a single keyframe without a time which is treated as
// a constant.
func Parse(raw any) (*Definition, error) {
	list, ok := customdata.AsList(raw)
	if !ok {
		return nil, &customdata.SchemaError{Reason: fmt.Sprintf("point definition must be a list, got %T", raw)}
	}
	if len(list) == 0 {
		return nil, &customdata.SchemaError{Reason: "point definition must not be empty"}
	}

	var points []Point
	if _, nested := customdata.AsList(list[0]); nested {
		points = make([]Point, 0, len(list))
		for i, item := range list {
			frame, ok := customdata.AsList(item)
			if !ok {
				return nil, &customdata.SchemaError{Reason: fmt.Sprintf("keyframe %d must be a list, got %T", i, item)}
			}
			p, err := parsePoint(frame, true)
			if err != nil {
				return nil, fmt.Errorf("keyframe %d: %w", i, err)
			}
			points = append(points, p)
		}
	} else {
		p, err := parsePoint(list, false)
		if err != nil {
			return nil, err
		}
		points = []Point{p}
	}
	return newDefinition("", points)
}

// New builds a definition from already decoded keyframes.
func New(name string, points []Point) (*Definition, error) {
	copied := make([]Point, len(points))
	for i, p := range points {
		p.Values = append([]float64(nil), p.Values...)
		copied[i] = p
	}
	return newDefinition(name, copied)
}

func newDefinition(name string, points []Point) (*Definition, error) {
	if len(points) == 0 {
		return nil, &customdata.SchemaError{Reason: "point definition must not be empty"}
	}
	width := len(points[0].Values)
	if width != 1 && width != 3 && width != 4 {
		return nil, &customdata.SchemaError{Reason: fmt.Sprintf("keyframe width must be 1, 3 or 4, got %d", width)}
	}
	for i, p := range points {
		if len(p.Values) != width {
			return nil, &customdata.SchemaError{Reason: fmt.Sprintf("keyframe %d has %d values, expected %d", i, len(p.Values), width)}
		}
		if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) {
			return nil, &customdata.SchemaError{Reason: fmt.Sprintf("keyframe %d has invalid time", i)}
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })

	def := &Definition{name: name, width: width, points: points}
	if width >= 3 {
		def.quats = make([]mgl64.Quat, len(points))
		for i, p := range points {
			def.quats[i] = toQuat(p.Values)
		}
	}
	return def, nil
}

func parsePoint(frame []any, timed bool) (Point, error) {
	var p Point
	var numbers []float64
	flagged := false
	for i, item := range frame {
		if s, ok := item.(string); ok {
			if err := p.applyFlag(s); err != nil {
				return Point{}, err
			}
			flagged = true
			continue
		}
		f, ok := customdata.AsFloat(item)
		if !ok {
			return Point{}, &customdata.SchemaError{Reason: fmt.Sprintf("element %d must be a number or flag, got %T", i, item)}
		}
		if flagged {
			return Point{}, &customdata.SchemaError{Reason: "numbers must precede easing and spline flags"}
		}
		numbers = append(numbers, f)
	}
	if timed {
		if len(numbers) < 2 {
			return Point{}, &customdata.SchemaError{Reason: "keyframe needs at least one value and a time"}
		}
		p.Time = numbers[len(numbers)-1]
		numbers = numbers[:len(numbers)-1]
	}
	p.Values = numbers
	return p, nil
}

func (p *Point) applyFlag(s string) error {
	if s == SplineCatmullRomFlag {
		p.Spline = SplineCatmullRom
		return nil
	}
	e, err := easing.Parse(s)
	if err != nil {
		return &customdata.SchemaError{Reason: err.Error()}
	}
	p.Easing = e
	return nil
}

// toQuat reads three values as euler degrees and four as x, y, z, w.
func toQuat(v []float64) mgl64.Quat {
	if len(v) == 4 {
		return mgl64.Quat{W: v[3], V: mgl64.Vec3{v[0], v[1], v[2]}}.Normalize()
	}
	return mathutil.EulerToQuat(v[0], v[1], v[2])
}

func (d *Definition) Name() string {
	return d.name
}

// Width is the number of values per keyframe.
func (d *Definition) Width() int {
	return d.width
}

// Points returns a copy of the sorted keyframes.
func (d *Definition) Points() []Point {
	out := make([]Point, len(d.points))
	for i, p := range d.points {
		p.Values = append([]float64(nil), p.Values...)
		out[i] = p
	}
	return out
}

// Duration is the time span covered by the keyframes.
func (d *Definition) Duration() (start, end float64) {
	return d.points[0].Time, d.points[len(d.points)-1].Time
}

// segment finds the keyframes around t. When t sits exactly on a keyframe
// time, or outside the keyframe range, exact is true and l is the keyframe to
// return. Among keyframes sharing a time, the last one is used.
func (d *Definition) segment(t float64) (l, r int, f float64, exact bool) {
	n := len(d.points)
	upper := sort.Search(n, func(i int) bool { return d.points[i].Time > t })
	if upper == 0 {
		return 0, 0, 0, true
	}
	if upper == n {
		return n - 1, n - 1, 0, true
	}
	l, r = upper-1, upper
	if d.points[l].Time == t {
		return l, l, 0, true
	}
	span := d.points[r].Time - d.points[l].Time
	f = (t - d.points[l].Time) / span
	return l, r, d.points[r].Easing.Apply(f), false
}

func (d *Definition) values(t float64) []float64 {
	l, r, f, exact := d.segment(t)
	if exact {
		return d.points[l].Values
	}
	a, b := d.points[l].Values, d.points[r].Values
	if d.points[r].Spline == SplineCatmullRom && d.width >= 3 {
		p0 := d.points[max(l-1, 0)].Values
		p3 := d.points[min(r+1, len(d.points)-1)].Values
		v := mathutil.CatmullRom(vec3(p0), vec3(a), vec3(b), vec3(p3), f)
		out := []float64{v[0], v[1], v[2]}
		if d.width == 4 {
			out = append(out, lerp(a[3], b[3], f))
		}
		return out
	}
	out := make([]float64, d.width)
	for i := range out {
		out[i] = lerp(a[i], b[i], f)
	}
	return out
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

func vec3(v []float64) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// Float evaluates the first component at t.
func (d *Definition) Float(t float64) float64 {
	return d.values(t)[0]
}

// Vector3 evaluates at t. A width-1 definition is broadcast to all axes.
func (d *Definition) Vector3(t float64) mgl64.Vec3 {
	v := d.values(t)
	if len(v) == 1 {
		return mgl64.Vec3{v[0], v[0], v[0]}
	}
	return vec3(v)
}

// Vector4 evaluates at t. Missing components default to 1.
func (d *Definition) Vector4(t float64) mgl64.Vec4 {
	v := d.values(t)
	out := mgl64.Vec4{1, 1, 1, 1}
	copy(out[:], v)
	return out
}

// Quaternion evaluates a rotation curve at t along the shorter arc.
func (d *Definition) Quaternion(t float64) mgl64.Quat {
	if d.quats == nil {
		return mgl64.QuatIdent()
	}
	l, r, f, exact := d.segment(t)
	if exact {
		return d.quats[l]
	}
	return mathutil.Slerp(d.quats[l], d.quats[r], f)
}

// MarshalJSON writes the keyframes back in level-data form.
func (d *Definition) MarshalJSON() ([]byte, error) {
	frames := make([][]any, len(d.points))
	for i, p := range d.points {
		frame := make([]any, 0, len(p.Values)+3)
		for _, v := range p.Values {
			frame = append(frame, v)
		}
		frame = append(frame, p.Time)
		if p.Easing != easing.Linear {
			frame = append(frame, p.Easing.String())
		}
		if p.Spline == SplineCatmullRom {
			frame = append(frame, SplineCatmullRomFlag)
		}
		frames[i] = frame
	}
	return json.Marshal(frames)
}

// Store holds the named definitions of one level.
type Store struct {
	defs  map[string]*Definition
	order []string
}

func NewStore() *Store {
	return &Store{defs: make(map[string]*Definition)}
}

// DuplicateDefinitionError is returned when a name is registered twice. The
// first definition stays in the store.
type DuplicateDefinitionError struct {
	Name string
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate point definition %q", e.Name)
}

// Register parses raw and stores it under name.
func (s *Store) Register(name string, raw any) (*Definition, error) {
	if name == "" {
		return nil, customdata.Missing("name")
	}
	if _, ok := s.defs[name]; ok {
		return nil, &DuplicateDefinitionError{Name: name}
	}
	def, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("point definition %q: %w", name, err)
	}
	def.name = name
	s.defs[name] = def
	s.order = append(s.order, name)
	return def, nil
}

func (s *Store) Get(name string) (*Definition, bool) {
	def, ok := s.defs[name]
	return def, ok
}

// Names lists definitions in registration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *Store) Len() int {
	return len(s.defs)
}

// Close drops every definition.
func (s *Store) Close() {
	s.defs = make(map[string]*Definition)
	s.order = nil
}
