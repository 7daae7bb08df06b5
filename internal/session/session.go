// Package session plays back a loaded level: it dispatches custom events as
// their beat is reached and ticks animations and attachments.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"trackkit/internal/animation"
	"trackkit/internal/beatmap"
	"trackkit/internal/deserialize"
	"trackkit/internal/parent"
	"trackkit/internal/scene"
)

type Options struct {
	Logger     logr.Logger
	LeftHanded bool
	// Unit is the note lane distance used by attachments.
	Unit float64
	// Environment lists scene paths created before the load so environment
	// lookups have something to match.
	Environment []string
}

// Session owns everything created by one level load.
type Session struct {
	result     *deserialize.Result
	animator   *animation.Animator
	controller *parent.Controller
	logger     logr.Logger

	animations *deserialize.Data
	parents    *deserialize.Data

	queue       []*beatmap.CustomEvent
	next        int
	definitions map[string]*beatmap.CustomEvent
	beat        float64
	closed      bool
}

// Load deserializes level with registry and prepares playback.
func Load(ctx context.Context, registry *deserialize.Registry, level *beatmap.Level, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	root := scene.NewRoot()
	root.Build(opts.Environment...)

	res, err := registry.Load(ctx, level, deserialize.LoadOptions{Logger: logger, LeftHanded: opts.LeftHanded, Root: root})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s := &Session{
		result:      res,
		animator:    animation.NewAnimator(logger),
		controller:  parent.NewController(parent.Options{Unit: opts.Unit, LeftHanded: opts.LeftHanded, Root: root, Logger: logger}),
		logger:      logger,
		definitions: make(map[string]*beatmap.CustomEvent),
		beat:        -1,
	}
	s.animations, _ = res.Bindings.Get(animation.ID)
	s.parents, _ = res.Bindings.Get(parent.ID)

	for _, ev := range res.CustomEvents {
		if ev.Definition != "" {
			s.definitions[ev.Definition] = ev
			continue
		}
		s.queue = append(s.queue, ev)
	}
	sort.SliceStable(s.queue, func(i, j int) bool { return s.queue[i].Time < s.queue[j].Time })
	return s, nil
}

func (s *Session) Result() *deserialize.Result {
	return s.result
}

func (s *Session) Root() *scene.Node {
	return s.result.Root
}

func (s *Session) Attachments() []*parent.Attachment {
	return s.controller.Attachments()
}

// Beat is the beat of the last Advance, or -1 before the first one.
func (s *Session) Beat() float64 {
	return s.beat
}

// Pending is the number of timed custom events not yet dispatched.
func (s *Session) Pending() int {
	return len(s.queue) - s.next
}

// Advance moves playback to beat. Custom events due by then are dispatched in
// time order, then animations and attachments are ticked. It does nothing
// after Close.
func (s *Session) Advance(beat float64) {
	if s.closed {
		return
	}
	s.beat = beat
	for s.next < len(s.queue) && s.queue[s.next].Time <= beat {
		ev := s.queue[s.next]
		s.next++
		s.dispatch(ev, ev.Time)
	}
	s.animator.Tick(beat)
	s.controller.Tick()
}

// Trigger dispatches the named event definition at the current beat.
func (s *Session) Trigger(name string) error {
	if s.closed {
		return errors.New("session: closed")
	}
	ev, ok := s.definitions[name]
	if !ok {
		return fmt.Errorf("session: unknown event definition %q", name)
	}
	s.dispatch(ev, s.beat)
	return nil
}

func (s *Session) dispatch(ev *beatmap.CustomEvent, beat float64) {
	switch ev.Type {
	case animation.EventType:
		if payload, ok := resolve[animation.Event](s.animations, ev); ok {
			s.animator.Start(payload, beat)
		}
	case parent.EventType:
		payload, ok := resolve[parent.TrackData](s.parents, ev)
		if !ok {
			return
		}
		if _, err := s.controller.Create(payload); err != nil {
			var self *parent.SelfParentingError
			if errors.As(err, &self) {
				s.logger.Error(err, "skipping parent assignment", "index", ev.Index, "beat", ev.Time)
				return
			}
			s.logger.Error(err, "creating attachment", "index", ev.Index)
		}
	default:
		s.logger.V(1).Info("ignoring custom event", "type", ev.Type, "index", ev.Index)
	}
}

func resolve[T any](d *deserialize.Data, ev *beatmap.CustomEvent) (*T, bool) {
	if d == nil {
		return nil, false
	}
	return deserialize.Resolve[T](d, ev)
}

// Close tears down everything the load created. Later calls to Advance are
// no-ops.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.animator.Close()
	s.controller.Close()
	s.result.Tracks.Close()
	s.result.Points.Close()
	s.queue = nil
	s.next = 0
}
