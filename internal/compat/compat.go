// Package compat maps logical custom-data fields to the physical key used by a
// given level format. Legacy levels (format 2.6.0 and earlier) prefix every key
// with an underscore and use a handful of different names; current levels use
// the bare names. Everything that reads level data goes through this table so
// that feature code never has to branch on the format version.
package compat

import "fmt"

// Key identifies a logical field.
type Key int

const (
	KeyNotes Key = iota
	KeyBombs
	KeyObstacles
	KeyEvents
	KeyTime
	KeyNoteType
	KeyVersion
	KeyLineIndex
	KeyLineLayer
	KeyEventType
	KeyEventValue
	KeyCustomData
	KeyCustomEvents
	KeyCustomEventType
	KeyCustomEventData
	KeyPointDefinitions
	KeyEventDefinitions
	KeyName
	KeyPoints
	KeyEventDefinitionType
	KeyEventDefinitionData
	KeyTrack
	KeyEnvironment
	KeyEnvironmentID
	KeyLookupMethod
	KeyDuration
	KeyEasing
	KeyRepeat
	KeyParentTrack
	KeyChildrenTracks
	KeyWorldPositionStays
	KeyPosition
	KeyRotation
	KeyLocalRotation
	KeyScale

	// Animated track properties.
	PropOffsetPosition
	PropOffsetRotation
	PropLocalPosition
	PropLocalRotation
	PropScale
	PropDissolve
	PropDissolveArrow
	PropInteractable
	PropTime
	PropColor

	keyCount
)

type availability uint8

const (
	bothFormats availability = iota
	legacyOnly
	currentOnly
)

type entry struct {
	label   string
	legacy  string
	current string
	only    availability
}

var table = [keyCount]entry{
	KeyNotes:               {label: "notes", legacy: "_notes", current: "colorNotes"},
	KeyBombs:               {label: "bombs", current: "bombNotes", only: currentOnly},
	KeyObstacles:           {label: "obstacles", legacy: "_obstacles", current: "obstacles"},
	KeyEvents:              {label: "events", legacy: "_events", current: "basicBeatmapEvents"},
	KeyTime:                {label: "time", legacy: "_time", current: "b"},
	KeyNoteType:            {label: "note type", legacy: "_type", only: legacyOnly},
	KeyVersion:             {label: "version", legacy: "_version", current: "version"},
	KeyLineIndex:           {label: "line index", legacy: "_lineIndex", current: "x"},
	KeyLineLayer:           {label: "line layer", legacy: "_lineLayer", current: "y"},
	KeyEventType:           {label: "event type", legacy: "_type", current: "et"},
	KeyEventValue:          {label: "event value", legacy: "_value", current: "i"},
	KeyCustomData:          {label: "custom data", legacy: "_customData", current: "customData"},
	KeyCustomEvents:        {label: "custom events", legacy: "_customEvents", current: "customEvents"},
	KeyCustomEventType:     {label: "custom event type", legacy: "_type", current: "t"},
	KeyCustomEventData:     {label: "custom event data", legacy: "_data", current: "d"},
	KeyPointDefinitions:    {label: "point definitions", legacy: "_pointDefinitions", current: "pointDefinitions"},
	KeyEventDefinitions:    {label: "event definitions", current: "eventDefinitions", only: currentOnly},
	KeyName:                {label: "name", legacy: "_name", current: "name"},
	KeyPoints:              {label: "points", legacy: "_points", current: "points"},
	KeyEventDefinitionType: {label: "event definition type", current: "type", only: currentOnly},
	KeyEventDefinitionData: {label: "event definition data", current: "data", only: currentOnly},
	KeyTrack:               {label: "track", legacy: "_track", current: "track"},
	KeyEnvironment:         {label: "environment", legacy: "_environment", current: "environment"},
	KeyEnvironmentID:       {label: "environment id", legacy: "_id", current: "id"},
	KeyLookupMethod:        {label: "lookup method", legacy: "_lookupMethod", current: "lookupMethod"},
	KeyDuration:            {label: "duration", legacy: "_duration", current: "duration"},
	KeyEasing:              {label: "easing", legacy: "_easing", current: "easing"},
	KeyRepeat:              {label: "repeat", current: "repeat", only: currentOnly},
	KeyParentTrack:         {label: "parent track", legacy: "_parentTrack", current: "parentTrack"},
	KeyChildrenTracks:      {label: "children tracks", legacy: "_childrenTracks", current: "childrenTracks"},
	KeyWorldPositionStays:  {label: "world position stays", legacy: "_worldPositionStays", current: "worldPositionStays"},
	KeyPosition:            {label: "position", legacy: "_position", current: "position"},
	KeyRotation:            {label: "rotation", legacy: "_rotation", current: "rotation"},
	KeyLocalRotation:       {label: "local rotation", legacy: "_localRotation", current: "localRotation"},
	KeyScale:               {label: "scale", legacy: "_scale", current: "scale"},

	PropOffsetPosition: {label: "offset position", legacy: "_position", current: "offsetPosition"},
	PropOffsetRotation: {label: "offset world rotation", legacy: "_rotation", current: "offsetWorldRotation"},
	PropLocalPosition:  {label: "local position", legacy: "_localPosition", current: "localPosition"},
	PropLocalRotation:  {label: "local rotation", legacy: "_localRotation", current: "localRotation"},
	PropScale:          {label: "scale", legacy: "_scale", current: "scale"},
	PropDissolve:       {label: "dissolve", legacy: "_dissolve", current: "dissolve"},
	PropDissolveArrow:  {label: "dissolve arrow", legacy: "_dissolveArrow", current: "dissolveArrow"},
	PropInteractable:   {label: "interactable", legacy: "_interactable", current: "interactable"},
	PropTime:           {label: "time", legacy: "_time", current: "time"},
	PropColor:          {label: "color", legacy: "_color", current: "color"},
}

// MissingMappingError reports a logical key with no entry in the table. It is a
// configuration bug and is surfaced at startup.
type MissingMappingError struct {
	Key Key
}

func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("compat: no field mapping for key %d", int(e.Key))
}

func (k Key) String() string {
	if k < 0 || k >= keyCount || table[k].label == "" {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return table[k].label
}

// Validate checks that every key has a mapping for each format it exists in.
func Validate() error {
	for k := Key(0); k < keyCount; k++ {
		if err := Check(k); err != nil {
			return err
		}
	}
	return nil
}

// Check reports whether the given keys are mapped.
func Check(keys ...Key) error {
	for _, k := range keys {
		if k < 0 || k >= keyCount {
			return &MissingMappingError{Key: k}
		}
		e := table[k]
		if e.label == "" {
			return &MissingMappingError{Key: k}
		}
		if e.only != currentOnly && e.legacy == "" {
			return &MissingMappingError{Key: k}
		}
		if e.only != legacyOnly && e.current == "" {
			return &MissingMappingError{Key: k}
		}
	}
	return nil
}

// Field returns the physical key for k. The empty string with a nil error
// means the field does not exist in that format.
func Field(k Key, legacy bool) (string, error) {
	if err := Check(k); err != nil {
		return "", err
	}
	if legacy {
		return table[k].legacy, nil
	}
	return table[k].current, nil
}

// Name is Field for keys already validated at startup. It panics on an
// unmapped key.
func Name(k Key, legacy bool) string {
	name, err := Field(k, legacy)
	if err != nil {
		panic(err)
	}
	return name
}

// PropertyName returns the canonical (current-format) name of an animated
// property. Track property maps are keyed by this name regardless of the
// format the level was authored in.
func PropertyName(k Key) string {
	return Name(k, false)
}

// Properties lists the animated property keys.
func Properties() []Key {
	keys := make([]Key, 0, keyCount-PropOffsetPosition)
	for k := PropOffsetPosition; k < keyCount; k++ {
		keys = append(keys, k)
	}
	return keys
}

// PropertyByName resolves a physical property name as found in the level
// data back to its key.
func PropertyByName(name string, legacy bool) (Key, bool) {
	for _, k := range Properties() {
		if Name(k, legacy) == name {
			return k, true
		}
	}
	return 0, false
}
