// Package validate runs consistency checks over a loaded level.
package validate

import (
	"errors"
	"fmt"

	"trackkit/internal/animation"
	"trackkit/internal/deserialize"
	"trackkit/internal/parent"
	"trackkit/internal/pointdef"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeLoadIssue          = "load_issue"
	codeDuplicatePoint     = "duplicate_point_definition"
	codeUnusedPoint        = "unused_point_definition"
	codeEmptyTrack         = "empty_track"
	codeSelfParenting      = "self_parenting"
	codeUnknownCustomEvent = "unknown_custom_event_type"
)

// Issue is one finding. Kind and Index locate the source item when there is
// one; Index is -1 otherwise.
type Issue struct {
	Severity     Severity
	Code         string
	Message      string
	Deserializer string
	Kind         deserialize.ItemKind
	Index        int
	Name         string
}

type Report struct {
	Issues []Issue
}

// Count returns the number of issues with severity s.
func (r *Report) Count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Run checks res and returns every finding. It never fails; a nil result
// yields an empty report.
func Run(res *deserialize.Result) *Report {
	issues := make([]Issue, 0)
	if res == nil {
		return &Report{Issues: issues}
	}

	issues = append(issues, loadIssues(res.Report)...)
	issues = append(issues, unusedPointDefinitions(res)...)
	issues = append(issues, emptyTracks(res)...)
	issues = append(issues, selfParenting(res)...)
	issues = append(issues, unknownCustomEvents(res)...)

	return &Report{Issues: issues}
}

func loadIssues(report *deserialize.Report) []Issue {
	if report == nil {
		return nil
	}
	var issues []Issue
	for _, item := range report.Issues {
		var dup *pointdef.DuplicateDefinitionError
		if errors.As(item.Err, &dup) {
			issues = append(issues, Issue{
				Severity:     SeverityWarn,
				Code:         codeDuplicatePoint,
				Message:      fmt.Sprintf("point definition %q is defined more than once; the first one is kept", dup.Name),
				Deserializer: item.Deserializer,
				Kind:         item.Kind,
				Index:        item.Index,
				Name:         dup.Name,
			})
			continue
		}
		issues = append(issues, Issue{
			Severity:     SeverityError,
			Code:         codeLoadIssue,
			Message:      item.Err.Error(),
			Deserializer: item.Deserializer,
			Kind:         item.Kind,
			Index:        item.Index,
		})
	}
	return issues
}

func unusedPointDefinitions(res *deserialize.Result) []Issue {
	used := make(map[*pointdef.Definition]bool)
	if data, ok := res.Bindings.Get(animation.ID); ok {
		for _, ev := range res.CustomEvents {
			payload, ok := deserialize.Resolve[animation.Event](data, ev)
			if !ok {
				continue
			}
			for _, prop := range payload.Properties {
				if prop.Points != nil {
					used[prop.Points] = true
				}
			}
		}
	}

	var issues []Issue
	for _, name := range res.Points.Names() {
		def, _ := res.Points.Get(name)
		if used[def] {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUnusedPoint,
			Message:  fmt.Sprintf("point definition %q is never referenced", name),
			Kind:     deserialize.KindPointDefinition,
			Index:    -1,
			Name:     name,
		})
	}
	return issues
}

// emptyTracks reports tracks with no members. Parent tracks are skipped;
// they gain their node when the parent event fires.
func emptyTracks(res *deserialize.Result) []Issue {
	parents := make(map[string]bool)
	eachParent(res, func(_ int, data *parent.TrackData) {
		parents[data.ParentName] = true
	})

	var issues []Issue
	for _, name := range res.Tracks.Names() {
		t, _ := res.Tracks.Get(name)
		if t.Len() > 0 || parents[name] {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeEmptyTrack,
			Message:  fmt.Sprintf("track %q has no objects", name),
			Index:    -1,
			Name:     name,
		})
	}
	return issues
}

func selfParenting(res *deserialize.Result) []Issue {
	var issues []Issue
	eachParent(res, func(index int, data *parent.TrackData) {
		for _, child := range data.ChildNames {
			if child != data.ParentName {
				continue
			}
			issues = append(issues, Issue{
				Severity:     SeverityError,
				Code:         codeSelfParenting,
				Message:      (&parent.SelfParentingError{Track: child}).Error(),
				Deserializer: parent.ID,
				Kind:         deserialize.KindCustomEvent,
				Index:        index,
				Name:         child,
			})
		}
	})
	return issues
}

func unknownCustomEvents(res *deserialize.Result) []Issue {
	var issues []Issue
	for _, ev := range res.CustomEvents {
		switch ev.Type {
		case animation.EventType, parent.EventType:
			continue
		}
		kind := deserialize.KindCustomEvent
		if ev.Definition != "" {
			kind = deserialize.KindEventDefinition
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUnknownCustomEvent,
			Message:  fmt.Sprintf("custom event type %q is not handled", ev.Type),
			Kind:     kind,
			Index:    ev.Index,
			Name:     ev.Definition,
		})
	}
	return issues
}

func eachParent(res *deserialize.Result, fn func(index int, data *parent.TrackData)) {
	data, ok := res.Bindings.Get(parent.ID)
	if !ok {
		return
	}
	for _, ev := range res.CustomEvents {
		if payload, ok := deserialize.Resolve[parent.TrackData](data, ev); ok {
			fn(ev.Index, payload)
		}
	}
}
