package deserialize

import "trackkit/internal/beatmap"

// Data maps source items to the payloads one deserializer produced for them.
type Data struct {
	customEvents map[*beatmap.CustomEvent]any
	events       map[*beatmap.Event]any
	objects      map[*beatmap.Object]any
}

func newData() *Data {
	return &Data{
		customEvents: make(map[*beatmap.CustomEvent]any),
		events:       make(map[*beatmap.Event]any),
		objects:      make(map[*beatmap.Object]any),
	}
}

// Lookup returns the payload bound to item, which must be a
// *beatmap.CustomEvent, *beatmap.Event or *beatmap.Object.
func (d *Data) Lookup(item any) (any, bool) {
	if d == nil {
		return nil, false
	}
	var v any
	var ok bool
	switch it := item.(type) {
	case *beatmap.CustomEvent:
		v, ok = d.customEvents[it]
	case *beatmap.Event:
		v, ok = d.events[it]
	case *beatmap.Object:
		v, ok = d.objects[it]
	}
	return v, ok
}

// Len reports how many payloads of each item kind were produced.
func (d *Data) Len() (customEvents, events, objects int) {
	if d == nil {
		return 0, 0, 0
	}
	return len(d.customEvents), len(d.events), len(d.objects)
}

// Total is the number of payloads across all item kinds.
func (d *Data) Total() int {
	c, e, o := d.Len()
	return c + e + o
}

// Resolve returns item's payload as a *T.
func Resolve[T any](d *Data, item any) (*T, bool) {
	v, ok := d.Lookup(item)
	if !ok {
		return nil, false
	}
	payload, ok := v.(*T)
	return payload, ok
}

// Bindings holds the published Data of every deserializer that ran.
type Bindings struct {
	data  map[string]*Data
	order []string
}

func newBindings() *Bindings {
	return &Bindings{data: make(map[string]*Data)}
}

func (b *Bindings) publish(id string, d *Data) {
	if _, ok := b.data[id]; !ok {
		b.order = append(b.order, id)
	}
	b.data[id] = d
}

func (b *Bindings) Get(id string) (*Data, bool) {
	d, ok := b.data[id]
	return d, ok
}

// IDs lists deserializer ids in the order they were published.
func (b *Bindings) IDs() []string {
	return append([]string(nil), b.order...)
}
