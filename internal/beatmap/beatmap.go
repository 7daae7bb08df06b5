// Package beatmap decodes level files and splits them into the objects, events
// and custom events that deserializers consume.
package beatmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"trackkit/internal/compat"
	"trackkit/internal/customdata"
)

// LegacyCutoff is the newest version still read with legacy field names.
const LegacyCutoff = "2.6.0"

var (
	ErrInvalidDocument = errors.New("level is not a JSON or YAML object")
	ErrNoVersion       = errors.New("level has no version field")
	ErrInvalidVersion  = errors.New("level version is not a dotted number")
)

type ObjectKind int

const (
	Note ObjectKind = iota
	Bomb
	Obstacle
)

func (k ObjectKind) String() string {
	switch k {
	case Note:
		return "note"
	case Bomb:
		return "bomb"
	case Obstacle:
		return "obstacle"
	default:
		return fmt.Sprintf("ObjectKind(%d)", int(k))
	}
}

// Object is a note, bomb or obstacle. Index is its position within its
// source list.
type Object struct {
	Kind       ObjectKind
	Index      int
	Time       float64
	X, Y       int
	CustomData customdata.Data
}

type Event struct {
	Index      int
	Time       float64
	Type       int
	Value      int
	CustomData customdata.Data
}

// CustomEvent is a timed, named payload. Events expanded from event
// definitions carry the definition name and a time of -1.
type CustomEvent struct {
	Index      int
	Time       float64
	Type       string
	Data       customdata.Data
	Definition string
}

type Level struct {
	Version      string
	Legacy       bool
	Objects      []*Object
	Events       []*Event
	CustomEvents []*CustomEvent
	CustomData   customdata.Data
	SourceFile   string

	// Problems lists items that could not be read. They are skipped.
	Problems []error
}

func ParseFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var level *Level
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		level, err = parseYAML(data)
	case ".json", ".dat":
		level, err = parseJSON(data)
	default:
		level, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	level.SourceFile = path
	return level, nil
}

// Parse sniffs the encoding: documents starting with '{' are JSON, anything
// else is YAML.
func Parse(content []byte) (*Level, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return parseJSON(trimmed)
	}
	return parseYAML(trimmed)
}

func parseJSON(content []byte) (*Level, error) {
	var doc map[string]any
	if err := json.Unmarshal(bytes.TrimLeft(content, "\ufeff"), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return fromDocument(doc)
}

func parseYAML(content []byte) (*Level, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(bytes.TrimLeft(content, "\ufeff"), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return fromDocument(doc)
}

func fromDocument(doc map[string]any) (*Level, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	version, err := detectVersion(doc)
	if err != nil {
		return nil, err
	}
	legacy, err := IsLegacy(version)
	if err != nil {
		return nil, err
	}

	level := &Level{Version: version, Legacy: legacy}
	r := customdata.NewReader(customdata.Data(doc), legacy)

	if custom, _, err := r.Object(compat.KeyCustomData); err != nil {
		level.Problems = append(level.Problems, err)
	} else {
		level.CustomData = custom
	}

	level.readObjects(r, compat.KeyNotes, Note)
	if !legacy {
		level.readObjects(r, compat.KeyBombs, Bomb)
	}
	level.readObjects(r, compat.KeyObstacles, Obstacle)
	level.readEvents(r)
	level.readCustomEvents()
	return level, nil
}

func detectVersion(doc map[string]any) (string, error) {
	for _, legacy := range []bool{false, true} {
		value, ok := doc[compat.Name(compat.KeyVersion, legacy)]
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", ErrInvalidVersion
		}
		return s, nil
	}
	return "", ErrNoVersion
}

// IsLegacy reports whether version is at or below LegacyCutoff.
func IsLegacy(version string) (bool, error) {
	v, err := parseVersion(version)
	if err != nil {
		return false, err
	}
	cutoff, _ := parseVersion(LegacyCutoff)
	for i := range v {
		if v[i] != cutoff[i] {
			return v[i] < cutoff[i], nil
		}
	}
	return true, nil
}

func parseVersion(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) > 3 {
		return out, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return out, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		out[i] = n
	}
	return out, nil
}

func (l *Level) readObjects(r customdata.Reader, key compat.Key, kind ObjectKind) {
	items, _, err := r.List(key)
	if err != nil {
		l.Problems = append(l.Problems, err)
		return
	}
	for i, item := range items {
		data, ok := customdata.AsData(item)
		if !ok {
			l.Problems = append(l.Problems, fmt.Errorf("%s %d: not an object", kind, i))
			continue
		}
		ir := customdata.NewReader(data, l.Legacy)
		obj := &Object{Kind: kind, Index: i}
		if err := readObject(ir, obj); err != nil {
			l.Problems = append(l.Problems, fmt.Errorf("%s %d: %w", kind, i, err))
			continue
		}
		if l.Legacy && kind == Note {
			if t, ok, _ := ir.Float(compat.KeyNoteType); ok && int(t) == 3 {
				obj.Kind = Bomb
			}
		}
		l.Objects = append(l.Objects, obj)
	}
}

func readObject(r customdata.Reader, obj *Object) error {
	t, _, err := r.Float(compat.KeyTime)
	if err != nil {
		return err
	}
	x, _, err := r.Float(compat.KeyLineIndex)
	if err != nil {
		return err
	}
	y, _, err := r.Float(compat.KeyLineLayer)
	if err != nil {
		return err
	}
	custom, _, err := r.Object(compat.KeyCustomData)
	if err != nil {
		return err
	}
	obj.Time, obj.X, obj.Y, obj.CustomData = t, int(x), int(y), custom
	return nil
}

func (l *Level) readEvents(r customdata.Reader) {
	items, _, err := r.List(compat.KeyEvents)
	if err != nil {
		l.Problems = append(l.Problems, err)
		return
	}
	for i, item := range items {
		data, ok := customdata.AsData(item)
		if !ok {
			l.Problems = append(l.Problems, fmt.Errorf("event %d: not an object", i))
			continue
		}
		ev := &Event{Index: i}
		if err := readEvent(customdata.NewReader(data, l.Legacy), ev); err != nil {
			l.Problems = append(l.Problems, fmt.Errorf("event %d: %w", i, err))
			continue
		}
		l.Events = append(l.Events, ev)
	}
}

func (l *Level) readCustomEvents() {
	if l.CustomData == nil {
		return
	}
	r := customdata.NewReader(l.CustomData, l.Legacy)
	items, _, err := r.List(compat.KeyCustomEvents)
	if err != nil {
		l.Problems = append(l.Problems, err)
		return
	}
	for i, item := range items {
		data, ok := customdata.AsData(item)
		if !ok {
			l.Problems = append(l.Problems, fmt.Errorf("custom event %d: not an object", i))
			continue
		}
		ev := &CustomEvent{Index: i}
		if err := readCustomEvent(customdata.NewReader(data, l.Legacy), ev); err != nil {
			l.Problems = append(l.Problems, fmt.Errorf("custom event %d: %w", i, err))
			continue
		}
		if ev.Data == nil {
			ev.Data = customdata.Data{}
		}
		l.CustomEvents = append(l.CustomEvents, ev)
	}
}

func readEvent(r customdata.Reader, ev *Event) error {
	t, _, err := r.Float(compat.KeyTime)
	if err != nil {
		return err
	}
	typ, _, err := r.Float(compat.KeyEventType)
	if err != nil {
		return err
	}
	value, _, err := r.Float(compat.KeyEventValue)
	if err != nil {
		return err
	}
	custom, _, err := r.Object(compat.KeyCustomData)
	if err != nil {
		return err
	}
	ev.Time, ev.Type, ev.Value, ev.CustomData = t, int(typ), int(value), custom
	return nil
}

func readCustomEvent(r customdata.Reader, ev *CustomEvent) error {
	t, _, err := r.Float(compat.KeyTime)
	if err != nil {
		return err
	}
	typ, err := r.RequiredString(compat.KeyCustomEventType)
	if err != nil {
		return err
	}
	data, _, err := r.Object(compat.KeyCustomEventData)
	if err != nil {
		return err
	}
	ev.Time, ev.Type, ev.Data = t, typ, data
	return nil
}

// Reader returns a compat reader over the level-wide custom data.
func (l *Level) Reader() customdata.Reader {
	return customdata.NewReader(l.CustomData, l.Legacy)
}

// Count returns the number of objects of each kind.
func (l *Level) Count(kind ObjectKind) int {
	n := 0
	for _, obj := range l.Objects {
		if obj.Kind == kind {
			n++
		}
	}
	return n
}
