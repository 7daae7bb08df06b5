package compat

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("expected complete table, got %v", err)
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		key    Key
		legacy bool
		want   string
	}{
		{KeyTrack, true, "_track"},
		{KeyTrack, false, "track"},
		{KeyCustomEventType, false, "t"},
		{KeyCustomEventData, true, "_data"},
		{PropOffsetRotation, true, "_rotation"},
		{PropOffsetRotation, false, "offsetWorldRotation"},
		{KeyEventDefinitions, true, ""},
		{KeyNoteType, false, ""},
	}
	for _, tt := range tests {
		got, err := Field(tt.key, tt.legacy)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.key, err)
		}
		if got != tt.want {
			t.Fatalf("%s legacy=%v: expected %q, got %q", tt.key, tt.legacy, tt.want, got)
		}
	}
}

func TestField_UnknownKey(t *testing.T) {
	_, err := Field(keyCount+4, false)
	var missing *MissingMappingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingMappingError, got %v", err)
	}
	if err := Check(KeyTrack, Key(-1)); !errors.As(err, &missing) {
		t.Fatalf("expected MissingMappingError, got %v", err)
	}
}

func TestName_PanicsOnUnknownKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Name(keyCount, true)
}

func TestPropertyByName(t *testing.T) {
	k, ok := PropertyByName("_position", true)
	if !ok || k != PropOffsetPosition {
		t.Fatalf("expected offset position, got %v %v", k, ok)
	}
	k, ok = PropertyByName("localRotation", false)
	if !ok || k != PropLocalRotation {
		t.Fatalf("expected local rotation, got %v %v", k, ok)
	}
	if _, ok := PropertyByName("position", false); ok {
		t.Fatalf("expected current-format position to not be a property")
	}
	if PropertyName(PropOffsetRotation) != "offsetWorldRotation" {
		t.Fatalf("unexpected canonical name")
	}
}
