// Package plan reads and writes expansion plans stored as Lua tables:
//
//	return {
//	  colors = { background = "#0f172a", ... },
//	  config = { zoomInMultiplier = 2.5, ... },
//	  events = {
//	    { country = "Japan", startDate = "2024-3-1", },
//	  }
//	}
//
// Decoding is pattern based and tolerant. Fields that are missing or
// malformed are left unset so callers keep their defaults.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

// Colors holds optional hex color strings.
type Colors struct {
	Background *string
	Visited    *string
	Unvisited  *string
	Stroke     *string
	Trail      *string
}

// Settings holds optional simulation settings. Durations are milliseconds.
type Settings struct {
	ZoomInMultiplier *float64
	ZoomOutScale     *float64
	AnimationSpeed   *float64
	WaitDuration     *float64
	CenterIconScale  *float64
	MapMode          *string
}

// Entry is one event as written in the file.
type Entry struct {
	Country     string
	Start       timeline.Date
	End         *timeline.Date
	Description string
	Point       *geo.LngLat
}

type Plan struct {
	Colors Colors
	Config Settings
	Events []Entry
}

// EntryFromEvent converts a timeline event for writing.
func EntryFromEvent(e timeline.Event) Entry {
	return Entry{Country: e.Name, Start: e.Start, End: e.End, Description: e.Description, Point: e.Coordinates}
}

// Event converts the entry into a fresh, unvisited timeline event.
func (e Entry) Event() timeline.Event {
	ev := timeline.NewEvent(e.Country, e.Start)
	ev.End = e.End
	ev.Description = e.Description
	ev.Coordinates = e.Point
	return ev
}

// Timeline returns the plan's events as timeline events with new ids.
func (p Plan) Timeline() []timeline.Event {
	out := make([]timeline.Event, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Event())
	}
	return out
}

const quoted = `"((?:[^"\\]|\\.)*)"`

var (
	colorPatterns = map[string]*regexp.Regexp{}
	numPatterns   = map[string]*regexp.Regexp{}

	mapModeRE = regexp.MustCompile(`\bmapMode = "(.*?)"`)
	eventRE   = regexp.MustCompile(`\{\s*country = ` + quoted + `,\s*startDate = "(.*?)",\s*` +
		`(?:endDate = "(.*?)",\s*)?` +
		`(?:description = ` + quoted + `,\s*)?` +
		`(?:lng = (-?[\d.]+),\s*lat = (-?[\d.]+),\s*)?\}`)
)

func init() {
	for _, k := range []string{"background", "visited", "unvisited", "stroke", "trail"} {
		colorPatterns[k] = regexp.MustCompile(`\b` + k + ` = "(.*?)"`)
	}
	for _, k := range []string{"zoomInMultiplier", "zoomOutScale", "animationSpeed", "waitDuration", "centerIconScale"} {
		numPatterns[k] = regexp.MustCompile(`\b` + k + ` = ([\d.]+)`)
	}
}

// Decode extracts whatever it can from text. It never fails; a file with
// nothing recognizable decodes to an empty Plan.
func Decode(text string) Plan {
	var p Plan
	str := func(k string) *string {
		if m := colorPatterns[k].FindStringSubmatch(text); m != nil {
			return &m[1]
		}
		return nil
	}
	p.Colors = Colors{
		Background: str("background"),
		Visited:    str("visited"),
		Unvisited:  str("unvisited"),
		Stroke:     str("stroke"),
		Trail:      str("trail"),
	}

	num := func(k string) *float64 {
		m := numPatterns[k].FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return &v
	}
	p.Config = Settings{
		ZoomInMultiplier: num("zoomInMultiplier"),
		ZoomOutScale:     num("zoomOutScale"),
		AnimationSpeed:   num("animationSpeed"),
		WaitDuration:     num("waitDuration"),
		CenterIconScale:  num("centerIconScale"),
	}
	if m := mapModeRE.FindStringSubmatch(text); m != nil {
		p.Config.MapMode = &m[1]
	}

	for _, m := range eventRE.FindAllStringSubmatch(text, -1) {
		start, err := timeline.ParseDate(m[2])
		if err != nil {
			continue
		}
		e := Entry{Country: unquote(m[1]), Start: start, Description: unquote(m[4])}
		if m[3] != "" {
			if end, err := timeline.ParseDate(m[3]); err == nil {
				e.End = &end
			}
		}
		if m[5] != "" {
			lng, err1 := strconv.ParseFloat(m[5], 64)
			lat, err2 := strconv.ParseFloat(m[6], 64)
			if err1 == nil && err2 == nil {
				e.Point = &geo.LngLat{Lng: lng, Lat: lat}
			}
		}
		p.Events = append(p.Events, e)
	}
	return p
}

func unquote(s string) string {
	if v, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return v
	}
	return s
}

// Encode writes p. Unset colors and settings are omitted.
func Encode(w io.Writer, p Plan) error {
	var b bytes.Buffer
	b.WriteString("return {\n")

	b.WriteString("  colors = {\n")
	for _, kv := range []struct {
		k string
		v *string
	}{
		{"background", p.Colors.Background},
		{"visited", p.Colors.Visited},
		{"unvisited", p.Colors.Unvisited},
		{"stroke", p.Colors.Stroke},
		{"trail", p.Colors.Trail},
	} {
		if kv.v != nil {
			fmt.Fprintf(&b, "    %s = %q,\n", kv.k, *kv.v)
		}
	}
	b.WriteString("  },\n")

	b.WriteString("  config = {\n")
	for _, kv := range []struct {
		k string
		v *float64
	}{
		{"zoomInMultiplier", p.Config.ZoomInMultiplier},
		{"zoomOutScale", p.Config.ZoomOutScale},
		{"animationSpeed", p.Config.AnimationSpeed},
		{"waitDuration", p.Config.WaitDuration},
		{"centerIconScale", p.Config.CenterIconScale},
	} {
		if kv.v != nil {
			fmt.Fprintf(&b, "    %s = %s,\n", kv.k, strconv.FormatFloat(*kv.v, 'f', -1, 64))
		}
	}
	if p.Config.MapMode != nil {
		fmt.Fprintf(&b, "    mapMode = %q,\n", *p.Config.MapMode)
	}
	b.WriteString("  },\n")

	b.WriteString("  events = {\n")
	for _, e := range p.Events {
		b.WriteString("    {\n")
		fmt.Fprintf(&b, "      country = %q,\n", e.Country)
		fmt.Fprintf(&b, "      startDate = \"%s\",\n", e.Start)
		if e.End != nil {
			fmt.Fprintf(&b, "      endDate = \"%s\",\n", *e.End)
		}
		if e.Description != "" {
			fmt.Fprintf(&b, "      description = %q,\n", e.Description)
		}
		if e.Point != nil {
			fmt.Fprintf(&b, "      lng = %s,\n", strconv.FormatFloat(e.Point.Lng, 'f', -1, 64))
			fmt.Fprintf(&b, "      lat = %s,\n", strconv.FormatFloat(e.Point.Lat, 'f', -1, 64))
		}
		b.WriteString("    },\n")
	}
	b.WriteString("  }\n")
	b.WriteString("}\n")

	_, err := w.Write(b.Bytes())
	return err
}

// Read decodes the plan stored at path.
func Read(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan %s: %w", path, err)
	}
	return Decode(string(data)), nil
}

// Write encodes p to path, replacing any existing file.
func Write(path string, p Plan) error {
	var b bytes.Buffer
	if err := Encode(&b, p); err != nil {
		return err
	}
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write plan %s: %w", path, err)
	}
	return nil
}

// Append adds entries to the plan at path, creating the file if needed. The
// existing colors and settings are preserved.
func Append(path string, entries []Entry) (Plan, error) {
	p, err := Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Plan{}, err
	}
	p.Events = append(p.Events, entries...)
	return p, Write(path, p)
}

// String is shorthand for optional string fields.
func String(s string) *string { return &s }

// Float is shorthand for optional numeric fields.
func Float(v float64) *float64 { return &v }

