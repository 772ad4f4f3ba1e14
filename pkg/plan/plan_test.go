package plan

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

// A file as written by older exports: no trailing comma after the last
// color and config entries, and endDate on some events.
const legacyPlan = `return {
  colors = {
    background = "#0f172a",
    visited = "#3b82f6",
    unvisited = "#1e293b",
    stroke = "#334155",
    trail = "#60a5fa"
  },
  config = {
    zoomInMultiplier = 2.5,
    zoomOutScale = 1,
    animationSpeed = 2500,
    waitDuration = 2000,
    centerIconScale = 1,
    mapMode = "world"
  },
  events = {
    {
      country = "Japan",
      startDate = "2024-3-1",
    },
    {
      country = "Georgia (State)",
      startDate = "2024-13-40",
      endDate = "2025-1-1",
    },
  }
}
`

func TestDecodeLegacy(t *testing.T) {
	p := Decode(legacyPlan)

	strs := []struct {
		name string
		got  *string
		want string
	}{
		{"background", p.Colors.Background, "#0f172a"},
		{"visited", p.Colors.Visited, "#3b82f6"},
		{"unvisited", p.Colors.Unvisited, "#1e293b"},
		{"stroke", p.Colors.Stroke, "#334155"},
		{"trail", p.Colors.Trail, "#60a5fa"},
		{"mapMode", p.Config.MapMode, "world"},
	}
	for _, tt := range strs {
		if tt.got == nil || *tt.got != tt.want {
			t.Errorf("Decode().%s = %v; want %q", tt.name, tt.got, tt.want)
		}
	}
	nums := []struct {
		name string
		got  *float64
		want float64
	}{
		{"zoomInMultiplier", p.Config.ZoomInMultiplier, 2.5},
		{"zoomOutScale", p.Config.ZoomOutScale, 1},
		{"animationSpeed", p.Config.AnimationSpeed, 2500},
		{"waitDuration", p.Config.WaitDuration, 2000},
		{"centerIconScale", p.Config.CenterIconScale, 1},
	}
	for _, tt := range nums {
		if tt.got == nil || *tt.got != tt.want {
			t.Errorf("Decode().%s = %v; want %v", tt.name, tt.got, tt.want)
		}
	}

	want := []Entry{
		{Country: "Japan", Start: timeline.Date{Year: 2024, Month: 3, Day: 1}},
		{
			Country: "Georgia (State)",
			Start:   timeline.Date{Year: 2024, Month: 13, Day: 40},
			End:     &timeline.Date{Year: 2025, Month: 1, Day: 1},
		},
	}
	if !reflect.DeepEqual(p.Events, want) {
		t.Errorf("Decode().Events = %+v; want %+v", p.Events, want)
	}
}

func TestDecodePartial(t *testing.T) {
	p := Decode(`return { colors = { visited = "#ff0000" }, config = { waitDuration = oops } }`)
	if p.Colors.Visited == nil || *p.Colors.Visited != "#ff0000" {
		t.Errorf("Visited = %v; want #ff0000", p.Colors.Visited)
	}
	if p.Colors.Unvisited != nil || p.Colors.Background != nil {
		t.Error("absent colors should stay unset")
	}
	if p.Config.WaitDuration != nil {
		t.Errorf("WaitDuration = %v; want unset for a malformed value", *p.Config.WaitDuration)
	}
	if len(p.Events) != 0 {
		t.Errorf("len(Events) = %d; want 0", len(p.Events))
	}

	if got := Decode("not a plan at all"); !reflect.DeepEqual(got, Plan{}) {
		t.Errorf("Decode(garbage) = %+v; want empty", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	in := Plan{
		Colors: Colors{Background: String("#000000"), Trail: String("#ffffff")},
		Config: Settings{ZoomInMultiplier: Float(3), AnimationSpeed: Float(1200), MapMode: String("usa")},
		Events: []Entry{
			{Country: "Texas", Start: timeline.Date{Year: 2020, Month: 1, Day: 2}},
			{
				Country:     "Tokyo",
				Start:       timeline.Date{Year: 2021, Month: 6, Day: 30},
				End:         &timeline.Date{Year: 2022, Month: 1, Day: 1},
				Description: `Opened "HQ"`,
				Point:       &geo.LngLat{Lng: 139.6917, Lat: 35.6895},
			},
			{Country: "Peru", Start: timeline.Date{Year: 2023, Month: 5, Day: 5}, Point: &geo.LngLat{Lng: -77.04, Lat: -12.05}},
		},
	}
	var b bytes.Buffer
	if err := Encode(&b, in); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := Decode(b.String())
	if !reflect.DeepEqual(out, in) {
		t.Errorf("Decode(Encode(p)) = %+v; want %+v\n%s", out, in, b.String())
	}
}

func TestTimelineAssignsFreshIDs(t *testing.T) {
	p := Decode(legacyPlan)
	a, b := p.Timeline(), p.Timeline()
	if len(a) != 2 || a[0].Name != "Japan" || a[0].Visited {
		t.Fatalf("Timeline() = %+v", a)
	}
	if a[0].ID == "" || a[0].ID == a[1].ID || a[0].ID == b[0].ID {
		t.Errorf("ids not unique: %q %q %q", a[0].ID, a[1].ID, b[0].ID)
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.lua")
	if err := os.WriteFile(path, []byte(legacyPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	added := []Entry{{Country: "Chile", Start: timeline.Date{Year: 2026, Month: 1, Day: 1}}}
	if _, err := Append(path, added); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	p, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(p.Events) != 3 || p.Events[2].Country != "Chile" {
		t.Errorf("Events after Append = %+v", p.Events)
	}
	if p.Colors.Visited == nil || *p.Colors.Visited != "#3b82f6" {
		t.Errorf("Append dropped colors: %v", p.Colors.Visited)
	}

	fresh := filepath.Join(t.TempDir(), "new.lua")
	if _, err := Append(fresh, added); err != nil {
		t.Fatalf("Append(new file) error = %v", err)
	}
	if p, _ := Read(fresh); len(p.Events) != 1 {
		t.Errorf("new file events = %d; want 1", len(p.Events))
	}
}
