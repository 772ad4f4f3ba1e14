package timeline

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

type recorder struct {
	targets []string
	visited []string
	states  []State
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnTarget:  func(id string) { r.targets = append(r.targets, id) },
		OnVisited: func(e Event) { r.visited = append(r.visited, e.Name) },
		OnState:   func(_, to State) { r.states = append(r.states, to) },
	}
}

func events(names ...string) []Event {
	out := make([]Event, 0, len(names))
	for _, n := range names {
		out = append(out, Event{ID: "id-" + n, Name: n, Start: Date{2024, 1, 1}})
	}
	return out
}

func newTimeline(travel, wait int, names ...string) (*Timeline, *Scheduler, *recorder) {
	s := NewScheduler(t0)
	r := &recorder{}
	tl := New(s, Config{Travel: time.Duration(travel) * time.Millisecond, Wait: time.Duration(wait) * time.Millisecond}, r.hooks())
	tl.SetEvents(events(names...))
	return tl, s, r
}

func visited(tl *Timeline, name string) bool {
	for _, e := range tl.Events() {
		if e.Name == name {
			return e.Visited
		}
	}
	return false
}

func TestTwoEventScenario(t *testing.T) {
	tl, s, r := newTimeline(1000, 500, "Japan", "France")

	tl.Start()
	if tl.State() != Playing || tl.Current() != "id-Japan" {
		t.Fatalf("after Start: state=%v current=%q; want playing id-Japan", tl.State(), tl.Current())
	}

	steps := []struct {
		ms       int
		state    State
		current  string
		japan    bool
		france   bool
		wantNote string
	}{
		{999, Playing, "id-Japan", false, false, "still traveling to Japan"},
		{1000, Playing, "id-Japan", true, false, "Japan marked, still current"},
		{1499, Playing, "id-Japan", true, false, "waiting at Japan"},
		{1500, Playing, "id-France", true, false, "advanced to France"},
		{2500, Playing, "id-France", true, true, "France marked"},
		{2999, Playing, "id-France", true, true, "waiting at France"},
		{3000, Completed, "", true, true, "past the end"},
		{3999, Completed, "", true, true, "waiting to go idle"},
		{4000, Idle, "", true, true, "back to idle"},
	}
	for _, st := range steps {
		s.Advance(at(st.ms))
		if tl.State() != st.state || tl.Current() != st.current {
			t.Errorf("t=%dms (%s): state=%v current=%q; want %v %q", st.ms, st.wantNote, tl.State(), tl.Current(), st.state, st.current)
		}
		if visited(tl, "Japan") != st.japan || visited(tl, "France") != st.france {
			t.Errorf("t=%dms (%s): visited Japan=%v France=%v; want %v %v",
				st.ms, st.wantNote, visited(tl, "Japan"), visited(tl, "France"), st.japan, st.france)
		}
	}

	wantStates := []State{Playing, Completed, Idle}
	if len(r.states) != len(wantStates) {
		t.Fatalf("state hooks = %v; want %v", r.states, wantStates)
	}
	for i := range wantStates {
		if r.states[i] != wantStates[i] {
			t.Errorf("state hook %d = %v; want %v", i, r.states[i], wantStates[i])
		}
	}
	if len(r.visited) != 2 || r.visited[0] != "Japan" || r.visited[1] != "France" {
		t.Errorf("visited hooks = %v; want [Japan France]", r.visited)
	}
}

func TestPlayThroughDuration(t *testing.T) {
	const travel, wait = 300, 200
	for n := 1; n <= 4; n++ {
		names := []string{"A", "B", "C", "D"}[:n]
		tl, s, _ := newTimeline(travel, wait, names...)
		tl.Start()
		total := n*(travel+wait) + travel
		s.Advance(at(total - 1))
		if tl.State() == Idle {
			t.Errorf("n=%d: idle at %dms; want later", n, total-1)
		}
		s.Advance(at(total))
		if tl.State() != Idle {
			t.Errorf("n=%d: state at %dms = %v; want idle", n, total, tl.State())
		}
		if tl.Visited() != n {
			t.Errorf("n=%d: visited = %d; want %d", n, tl.Visited(), n)
		}
	}
}

func TestStartResetsVisited(t *testing.T) {
	tl, s, _ := newTimeline(100, 100, "A", "B", "C")
	tl.Start()
	s.Advance(at(1000))
	if tl.Visited() != 3 {
		t.Fatalf("visited after full run = %d; want 3", tl.Visited())
	}

	tl.Start()
	if tl.Visited() != 0 {
		t.Errorf("visited after restart = %d; want 0", tl.Visited())
	}
	if tl.Current() != "id-A" {
		t.Errorf("current after restart = %q; want id-A", tl.Current())
	}
}

func TestStartTwiceKeepsOneChain(t *testing.T) {
	tl, s, r := newTimeline(100, 50, "A", "B")
	tl.Start()
	s.Advance(at(40))
	tl.Start()
	if n := s.Pending(); n != 1 {
		t.Fatalf("pending tasks after second Start = %d; want 1", n)
	}
	// The second chain started at 40ms, so A is marked at 140ms, not 100ms.
	s.Advance(at(100))
	if visited(tl, "A") {
		t.Error("A marked by the cancelled chain")
	}
	s.Advance(at(140))
	if !visited(tl, "A") {
		t.Error("A not marked by the restarted chain")
	}
	s.Advance(at(10000))
	if len(r.visited) != 2 {
		t.Errorf("visited hooks = %v; want exactly one pass over A and B", r.visited)
	}
}

func TestStartWhileCompletedCancelsIdleReturn(t *testing.T) {
	tl, s, _ := newTimeline(100, 0, "A")
	tl.Start()
	s.Advance(at(100))
	if tl.State() != Completed {
		t.Fatalf("state = %v; want completed", tl.State())
	}
	tl.Start()
	s.Advance(at(150))
	if tl.State() != Playing {
		t.Errorf("state after restart = %v; want playing (idle return cancelled)", tl.State())
	}
}

func TestStartEmptyIsNoop(t *testing.T) {
	tl, s, r := newTimeline(100, 100)
	tl.Start()
	if tl.State() != Idle || s.Pending() != 0 || len(r.states) != 0 {
		t.Errorf("Start on empty list: state=%v pending=%d hooks=%v", tl.State(), s.Pending(), r.states)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	tl, s, r := newTimeline(1000, 500, "A", "B")
	tl.Start()
	s.Advance(at(200))
	tl.Stop()
	if tl.State() != Completed || tl.Current() != "" {
		t.Fatalf("after Stop: state=%v current=%q", tl.State(), tl.Current())
	}
	if n := s.Pending(); n != 1 {
		t.Fatalf("pending after Stop = %d; want 1 idle return", n)
	}
	tl.Stop()
	tl.Stop()
	if n := s.Pending(); n != 1 {
		t.Errorf("pending after repeated Stop = %d; want 1", n)
	}
	s.Advance(at(1200))
	if tl.State() != Idle {
		t.Errorf("state = %v; want idle 1000ms after stop", tl.State())
	}
	tl.Stop()
	if tl.State() != Idle || s.Pending() != 0 {
		t.Errorf("Stop in idle changed state to %v, pending %d", tl.State(), s.Pending())
	}
	if visited(tl, "A") {
		t.Error("A marked after Stop cancelled its step")
	}
	if len(r.states) != 3 {
		t.Errorf("state hooks = %v; want playing, completed, idle", r.states)
	}
}

func TestToggle(t *testing.T) {
	tl, s, _ := newTimeline(100, 100, "A")
	tl.Toggle()
	if tl.State() != Playing {
		t.Fatalf("Toggle from idle: state = %v; want playing", tl.State())
	}
	tl.Toggle()
	if tl.State() != Completed {
		t.Fatalf("Toggle while playing: state = %v; want completed", tl.State())
	}
	tl.Toggle()
	if tl.State() != Playing {
		t.Fatalf("Toggle from completed: state = %v; want playing", tl.State())
	}
	s.Advance(at(1000))
	if tl.State() != Idle {
		t.Errorf("state = %v; want idle", tl.State())
	}
}

func TestRemoveCurrentContinues(t *testing.T) {
	tl, s, _ := newTimeline(100, 100, "A", "B", "C")
	tl.Start()
	s.Advance(at(150))
	if !tl.Remove("id-A") {
		t.Fatal("Remove(id-A) = false")
	}
	s.Advance(at(200))
	if tl.Current() != "id-B" {
		t.Errorf("current after removing A = %q; want id-B", tl.Current())
	}
	if tl.Remove("missing") {
		t.Error("Remove(missing) = true")
	}
}

func TestPhases(t *testing.T) {
	tl, s, _ := newTimeline(100, 100, "A")
	if tl.Phase() != PhaseArmed {
		t.Errorf("initial phase = %v; want armed", tl.Phase())
	}
	tl.Start()
	if tl.Phase() != PhaseTraveling {
		t.Errorf("phase after Start = %v; want traveling", tl.Phase())
	}
	s.Advance(at(100))
	if tl.Phase() != PhaseWaiting {
		t.Errorf("phase after travel = %v; want waiting", tl.Phase())
	}
	s.Advance(at(200))
	if tl.Phase() != PhaseArmed || tl.State() != Completed {
		t.Errorf("phase after last wait = %v state %v; want armed completed", tl.Phase(), tl.State())
	}
}

func TestSchedulerOrdering(t *testing.T) {
	s := NewScheduler(t0)
	var got []string
	var seen []time.Time
	s.After(20*time.Millisecond, func() { got = append(got, "b"); seen = append(seen, s.Now()) })
	s.After(10*time.Millisecond, func() {
		got = append(got, "a")
		seen = append(seen, s.Now())
		s.After(5*time.Millisecond, func() { got = append(got, "a2"); seen = append(seen, s.Now()) })
	})
	c := s.After(15*time.Millisecond, func() { got = append(got, "cancelled") })
	s.After(20*time.Millisecond, func() { got = append(got, "c") })
	c.Cancel()
	c.Cancel()

	s.Advance(at(100))
	want := []string{"a", "a2", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ran %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run[%d] = %s; want %s", i, got[i], want[i])
		}
	}
	wantTimes := []int{10, 15, 20}
	for i, ms := range wantTimes {
		if !seen[i].Equal(at(ms)) {
			t.Errorf("Now() inside callback %d = %v; want %v", i, seen[i], at(ms))
		}
	}
	if !s.Now().Equal(at(100)) {
		t.Errorf("Now() after Advance = %v; want %v", s.Now(), at(100))
	}
	if c.Pending() {
		t.Error("cancelled task still pending")
	}
	var nilTask *Task
	nilTask.Cancel()
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2024-1-5", Date{2024, 1, 5}, false},
		{"2024-01-05", Date{2024, 1, 5}, false},
		{" 2025-13-40 ", Date{2025, 13, 40}, false},
		{"2024", Date{2024, 1, 1}, false},
		{"2024-6", Date{2024, 6, 1}, false},
		{"", Date{}, true},
		{"abc", Date{}, true},
		{"2024-x-1", Date{}, true},
		{"1-2-3-4", Date{}, true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
	if s := (Date{2024, 13, 40}).String(); s != "2024-13-40" {
		t.Errorf("Date.String() = %q; want 2024-13-40", s)
	}
}

func TestNewEventIDsUnique(t *testing.T) {
	a := NewEvent("Japan", Date{2024, 1, 1})
	b := NewEvent("Japan", Date{2024, 1, 1})
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("NewEvent ids %q and %q; want unique non-empty", a.ID, b.ID)
	}
	if a.Visited {
		t.Error("NewEvent().Visited = true")
	}
}
