// Package events carries notifications out of the simulation core: player
// facing diplomacy notices, war-state changes, completed trades and quest
// bundles for an objective engine.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/mini-galaxy/internal/world"
)

// Kind identifies an event type.
type Kind string

const (
	KindWarDeclared         Kind = "war-declared"
	KindPeaceProposed       Kind = "peace-proposed"
	KindPeaceAccepted       Kind = "peace-accepted"
	KindTributeProposed     Kind = "tribute-proposed"
	KindTributePaid         Kind = "tribute-paid"
	KindWarStateChanged     Kind = "war-state-changed"
	KindTradeCompleted      Kind = "trade-completed"
	KindQuest               Kind = "quest"
	KindTechnologyUnlocked  Kind = "technology-unlocked"
	KindSpacecraftDestroyed Kind = "spacecraft-destroyed"
)

// Quest bundle tags.
const (
	TagGainMoney        = "gain-money"
	TagGainResearch     = "gain-research"
	TagUnlockTechnology = "unlock-technology"
)

// Bundle is a tagged payload for the quest engine.
type Bundle struct {
	Tags  []string          `json:"tags"`
	Ints  map[string]int64  `json:"ints,omitempty"`
	Names map[string]string `json:"names,omitempty"`
}

// NewBundle creates a bundle with one tag.
func NewBundle(tag string) *Bundle {
	return &Bundle{Tags: []string{tag}}
}

// PutInt stores an integer value.
func (b *Bundle) PutInt(key string, v int64) *Bundle {
	if b.Ints == nil {
		b.Ints = make(map[string]int64)
	}
	b.Ints[key] = v
	return b
}

// PutName stores an identifier value.
func (b *Bundle) PutName(key, v string) *Bundle {
	if b.Names == nil {
		b.Names = make(map[string]string)
	}
	b.Names[key] = v
	return b
}

// HasTag reports whether the bundle carries tag.
func (b *Bundle) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Event is one notification.
type Event struct {
	ID       string           `json:"id"`
	Day      int64            `json:"day"`
	Kind     Kind             `json:"kind"`
	Source   world.CompanyID  `json:"source,omitempty"`
	Target   world.CompanyID  `json:"target,omitempty"`
	Resource world.ResourceID `json:"resource,omitempty"`
	Quantity int              `json:"quantity,omitempty"`
	Message  string           `json:"message,omitempty"`
	Bundle   *Bundle          `json:"bundle,omitempty"`
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Listener is called synchronously for every emitted event.
type Listener func(Event)

// Bus fans events out to listeners and keeps the most recent ones.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	recent    []Event
	limit     int
}

// NewBus creates a bus retaining up to limit recent events.
func NewBus(limit int) *Bus {
	if limit < 1 {
		limit = 1
	}
	return &Bus{limit: limit}
}

// Subscribe registers a listener.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Emit assigns an ID if missing, records the event and notifies listeners.
func (b *Bus) Emit(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	b.mu.Lock()
	b.recent = append(b.recent, e)
	if len(b.recent) > b.limit {
		b.recent = b.recent[len(b.recent)-b.limit:]
	}
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}

// Recent returns up to n most recent events, oldest first.
func (b *Bus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.recent) {
		n = len(b.recent)
	}
	out := make([]Event, n)
	copy(out, b.recent[len(b.recent)-n:])
	return out
}

// Recorder is a Sink that keeps every event. Useful in tests and tools.
type Recorder struct {
	Events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.Events = append(r.Events, e)
}

// OfKind returns recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
