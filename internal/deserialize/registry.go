// Package deserialize turns the loosely typed custom data of a level into
// typed payloads through a registry of deserializers, one per feature.
package deserialize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"trackkit/internal/beatmap"
	"trackkit/internal/compat"
)

var (
	errEmptyID        = errors.New("deserializer id must not be empty")
	errNonStruct      = errors.New("payload type must be a struct")
	errNoHandlers     = errors.New("deserializer has no handlers")
	errRegistrySealed = errors.New("registry is sealed after the first load")
)

// Handlers are the passes a deserializer takes part in. Any of them may be nil.
// An item handler returning a nil payload and nil error means the item does
// not concern this deserializer.
type Handlers[T any] struct {
	// Keys lists the compat keys the handlers read. They are checked at
	// registration.
	Keys []compat.Key

	Early       func(c *Context) error
	CustomEvent func(c *Context, ev *beatmap.CustomEvent) (*T, error)
	Event       func(c *Context, ev *beatmap.Event) (*T, error)
	Object      func(c *Context, obj *beatmap.Object) (*T, error)
}

// Deserializer is a registered feature. Its handlers are stored type-erased;
// Resolve restores the payload type.
type Deserializer struct {
	id      string
	payload reflect.Type
	enabled bool
	keys    []compat.Key

	early       func(c *Context) error
	customEvent func(c *Context, ev *beatmap.CustomEvent) (any, error)
	event       func(c *Context, ev *beatmap.Event) (any, error)
	object      func(c *Context, obj *beatmap.Object) (any, error)
}

func (d *Deserializer) ID() string {
	return d.id
}

// PayloadType is the struct type produced by the item handlers.
func (d *Deserializer) PayloadType() reflect.Type {
	return d.payload
}

func (d *Deserializer) Enabled() bool {
	return d.enabled
}

func (d *Deserializer) Keys() []compat.Key {
	return append([]compat.Key(nil), d.keys...)
}

// Registry holds deserializers in registration order. It is built once at
// startup and sealed by the first Load.
type Registry struct {
	deserializers []*Deserializer
	byID          map[string]*Deserializer
	sealed        bool
}

// NewRegistry checks the compat table before anything can be registered.
func NewRegistry() (*Registry, error) {
	if err := compat.Validate(); err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	return &Registry{byID: make(map[string]*Deserializer)}, nil
}

// Register adds a deserializer producing payloads of type T.
func Register[T any](r *Registry, id string, h Handlers[T]) (*Deserializer, error) {
	if r.sealed {
		return nil, fmt.Errorf("deserialize: register %q: %w", id, errRegistrySealed)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("deserialize: %w", errEmptyID)
	}
	if _, exists := r.byID[id]; exists {
		return nil, fmt.Errorf("deserialize: duplicate deserializer id %q", id)
	}
	payload := reflect.TypeOf((*T)(nil)).Elem()
	if payload.Kind() != reflect.Struct {
		return nil, fmt.Errorf("deserialize: %q: %w (%s)", id, errNonStruct, payload)
	}
	if h.Early == nil && h.CustomEvent == nil && h.Event == nil && h.Object == nil {
		return nil, fmt.Errorf("deserialize: %q: %w", id, errNoHandlers)
	}
	if err := compat.Check(h.Keys...); err != nil {
		return nil, fmt.Errorf("deserialize: %q: %w", id, err)
	}

	d := &Deserializer{
		id:      id,
		payload: payload,
		enabled: true,
		keys:    append([]compat.Key(nil), h.Keys...),
		early:   h.Early,
	}
	if h.CustomEvent != nil {
		d.customEvent = func(c *Context, ev *beatmap.CustomEvent) (any, error) {
			return erase(h.CustomEvent(c, ev))
		}
	}
	if h.Event != nil {
		d.event = func(c *Context, ev *beatmap.Event) (any, error) {
			return erase(h.Event(c, ev))
		}
	}
	if h.Object != nil {
		d.object = func(c *Context, obj *beatmap.Object) (any, error) {
			return erase(h.Object(c, obj))
		}
	}

	r.deserializers = append(r.deserializers, d)
	r.byID[id] = d
	return d, nil
}

// erase keeps a typed nil from turning into a non-nil interface.
func erase[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

// SetEnabled toggles a deserializer by id. Disabled deserializers take no part
// in loads.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("deserialize: unknown deserializer %q", id)
	}
	if r.sealed {
		return fmt.Errorf("deserialize: toggle %q: %w", id, errRegistrySealed)
	}
	d.enabled = enabled
	return nil
}

func (r *Registry) Get(id string) (*Deserializer, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Deserializers lists every registered deserializer in registration order.
func (r *Registry) Deserializers() []*Deserializer {
	return append([]*Deserializer(nil), r.deserializers...)
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

func (r *Registry) enabled() []*Deserializer {
	out := make([]*Deserializer, 0, len(r.deserializers))
	for _, d := range r.deserializers {
		if d.enabled {
			out = append(out, d)
		}
	}
	return out
}
