// Package timeline sequences scheduled events through a play/stop state
// machine driven by a cooperative scheduler.
package timeline

import (
	"log"
	"time"
)

type State int

const (
	Idle State = iota
	Playing
	// Paused is reserved; no transition enters it.
	Paused
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Phase is the position of the active step within one event.
type Phase int

const (
	PhaseArmed Phase = iota
	PhaseTraveling
	PhaseMarking
	PhaseWaiting
	PhaseAdvancing
)

type Config struct {
	// Travel is the time spent moving to each event. It is also the delay
	// before returning to Idle after completion.
	Travel time.Duration
	// Wait is the dwell time after an event is marked visited.
	Wait time.Duration
}

// Hooks are called synchronously on the scheduler's goroutine.
type Hooks struct {
	OnTarget  func(id string)
	OnVisited func(e Event)
	OnState   func(from, to State)
}

type Timeline struct {
	sched *Scheduler
	cfg   Config
	hooks Hooks

	events  []Event
	state   State
	current string
	index   int
	phase   Phase

	step *Task
	idle *Task
}

func New(sched *Scheduler, cfg Config, hooks Hooks) *Timeline {
	return &Timeline{sched: sched, cfg: cfg, hooks: hooks}
}

func (t *Timeline) State() State { return t.state }
func (t *Timeline) Phase() Phase { return t.phase }
func (t *Timeline) Current() string { return t.current }
func (t *Timeline) Config() Config { return t.cfg }
func (t *Timeline) SetConfig(c Config) { t.cfg = c }

// Events returns a copy of the event list.
func (t *Timeline) Events() []Event {
	return append([]Event(nil), t.events...)
}

// Visited returns the number of visited events.
func (t *Timeline) Visited() int {
	n := 0
	for _, e := range t.events {
		if e.Visited {
			n++
		}
	}
	return n
}

// CurrentIndex returns the index of the current target, or -1.
func (t *Timeline) CurrentIndex() int {
	return t.find(t.current)
}

func (t *Timeline) SetEvents(events []Event) {
	t.events = append([]Event(nil), events...)
}

func (t *Timeline) Add(e Event) {
	t.events = append(t.events, e)
}

// Remove deletes the event with the given id. Removing the current target
// does not interrupt the running step.
func (t *Timeline) Remove(id string) bool {
	i := t.find(id)
	if i < 0 {
		return false
	}
	t.events = append(t.events[:i], t.events[i+1:]...)
	if i <= t.index {
		t.index--
	}
	return true
}

func (t *Timeline) Clear() {
	t.events = nil
}

func (t *Timeline) find(id string) int {
	if id == "" {
		return -1
	}
	for i := range t.events {
		if t.events[i].ID == id {
			return i
		}
	}
	return -1
}

// Start begins a play-through from the first event. Any running sequence and
// any pending return to Idle are cancelled first. It does nothing when there
// are no events.
func (t *Timeline) Start() {
	if len(t.events) == 0 {
		return
	}
	t.step.Cancel()
	t.idle.Cancel()
	t.step, t.idle = nil, nil

	for i := range t.events {
		t.events[i].Visited = false
	}
	t.setCurrent("")
	t.setState(Playing)
	t.phase = PhaseArmed
	t.enter(0)
}

// Stop ends a play-through early. It only acts while Playing, so repeated
// calls never arm more than one return to Idle.
func (t *Timeline) Stop() {
	if t.state != Playing {
		return
	}
	t.step.Cancel()
	t.step = nil
	t.finish()
}

// Toggle starts from Idle or Completed and stops while Playing.
func (t *Timeline) Toggle() {
	switch t.state {
	case Idle, Completed:
		t.Start()
	case Playing:
		t.Stop()
	}
}

func (t *Timeline) enter(i int) {
	if i >= len(t.events) {
		t.finish()
		return
	}
	t.index = i
	t.phase = PhaseTraveling
	t.setCurrent(t.events[i].ID)
	t.step = t.sched.After(t.cfg.Travel, t.mark)
}

func (t *Timeline) mark() {
	t.phase = PhaseMarking
	if i := t.find(t.current); i >= 0 {
		t.events[i].Visited = true
		if t.hooks.OnVisited != nil {
			t.hooks.OnVisited(t.events[i])
		}
	}
	t.phase = PhaseWaiting
	t.step = t.sched.After(t.cfg.Wait, t.advance)
}

func (t *Timeline) advance() {
	t.phase = PhaseAdvancing
	next := t.index + 1
	if i := t.find(t.current); i >= 0 {
		next = i + 1
	}
	t.enter(next)
}

func (t *Timeline) finish() {
	t.step = nil
	t.phase = PhaseArmed
	t.setCurrent("")
	t.setState(Completed)
	t.idle = t.sched.After(t.cfg.Travel, func() {
		t.idle = nil
		t.setState(Idle)
	})
}

func (t *Timeline) setCurrent(id string) {
	if t.current == id {
		return
	}
	t.current = id
	if t.hooks.OnTarget != nil {
		t.hooks.OnTarget(id)
	}
}

func (t *Timeline) setState(s State) {
	if t.state == s {
		return
	}
	from := t.state
	t.state = s
	log.Printf("[TIMELINE] %s -> %s", from, s)
	if t.hooks.OnState != nil {
		t.hooks.OnState(from, s)
	}
}
