package store

import "encoding/json"

type LevelInput struct {
	Set          string
	SourceFile   string
	SourceHash   string
	Version      string
	Legacy       bool
	Objects      int
	Events       int
	CustomEvents int

	Tracks           []Track
	PointDefinitions []PointDefinition
	Parents          []ParentEdge
	Issues           []Issue
}

type Level struct {
	Set          string
	SourceFile   string
	SourceHash   string
	Version      string
	Legacy       bool
	Objects      int
	Events       int
	CustomEvents int
	LastIngested string
}

type LevelSummary struct {
	Set        string
	SourceFile string
	Version    string
	Legacy     bool
	Tracks     int
	Issues     int
}

type Track struct {
	Name    string
	Members int
}

// PointDefinition keeps a named curve in its level-data form so it can be
// parsed and evaluated again.
type PointDefinition struct {
	Name      string
	Width     int
	Keyframes int
	Duration  float64
	Points    json.RawMessage
}

// ParentEdge is one child track of an AssignTrackParent event.
type ParentEdge struct {
	Parent             string
	Child              string
	Beat               float64
	WorldPositionStays bool
}

type Issue struct {
	Deserializer string
	Kind         string
	Index        int
	Message      string
}
