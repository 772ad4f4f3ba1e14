// Package config loads globe settings from an optional YAML file with
// environment overrides. Values that are missing or out of range fall back
// to their defaults.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"log"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/plan"
)

type CounterPosition string

const (
	TopLeft      CounterPosition = "top-left"
	CenterLeft   CounterPosition = "center-left"
	BottomLeft   CounterPosition = "bottom-left"
	BottomCenter CounterPosition = "bottom-center"
	BottomRight  CounterPosition = "bottom-right"
	CenterRight  CounterPosition = "center-right"
	TopRight     CounterPosition = "top-right"
	TopCenter    CounterPosition = "top-center"
)

var CounterPositions = []CounterPosition{TopLeft, CenterLeft, BottomLeft, BottomCenter, BottomRight, CenterRight, TopRight, TopCenter}

type InfoStyle string

const (
	InfoDefault    InfoStyle = "default"
	InfoFlagCenter InfoStyle = "flag-center"
	InfoMinimal    InfoStyle = "minimal"
	Info3DCard     InfoStyle = "3d-card"
	InfoCinematic  InfoStyle = "cinematic"
)

var InfoStyles = []InfoStyle{InfoDefault, InfoFlagCenter, InfoMinimal, Info3DCard, InfoCinematic}

type DateFormat string

const (
	DateNumberName  DateFormat = "number-name"
	DateNumericFull DateFormat = "numeric-full"
	DateMonthName   DateFormat = "month-name"
)

var DateFormats = []DateFormat{DateNumberName, DateNumericFull, DateMonthName}

type TrailStyle string

const (
	TrailStatic  TrailStyle = "static"
	TrailGrow    TrailStyle = "grow"
	TrailRainbow TrailStyle = "rainbow"
)

var TrailStyles = []TrailStyle{TrailStatic, TrailGrow, TrailRainbow}

// Surface selects the layer a pass is drawn on.
type Surface string

const (
	SurfaceBase       Surface = "base"
	SurfaceAtmosphere Surface = "atmosphere"
)

type Colors struct {
	Background string `koanf:"background"`
	Visited    string `koanf:"visited"`
	Unvisited  string `koanf:"unvisited"`
	Stroke     string `koanf:"stroke"`
	Trail      string `koanf:"trail"`
	Flash      string `koanf:"flash"`
}

type Simulation struct {
	ZoomInMultiplier  float64 `koanf:"zoom_in_multiplier"`
	ZoomOutScale      float64 `koanf:"zoom_out_scale"`
	AnimationSpeedMS  int     `koanf:"animation_speed_ms"`
	WaitDurationMS    int     `koanf:"wait_duration_ms"`
	FlashDurationMS   int     `koanf:"flash_duration_ms"`
	CenterIconScale   float64 `koanf:"center_icon_scale"`
	TargetMarkerScale float64 `koanf:"target_marker_scale"`
	LineWidth         float64 `koanf:"line_width"`
	MapMode           string  `koanf:"map_mode"`
}

type LayerConfig struct {
	Trails  Surface `koanf:"trails"`
	Visited Surface `koanf:"visited"`
}

type View struct {
	ShowCounter     bool            `koanf:"show_counter"`
	CounterPosition CounterPosition `koanf:"counter_position"`
	ShowCenterIcon  bool            `koanf:"show_center_icon"`
	ShowMotionLines bool            `koanf:"show_motion_lines"`
	InfoStyle       InfoStyle       `koanf:"info_style"`
	DateFormat      DateFormat      `koanf:"date_format"`
	Layers          LayerConfig     `koanf:"layer_config"`
	TrailStyle      TrailStyle      `koanf:"trail_style"`
}

type Data struct {
	CacheDir     string `koanf:"cache_dir"`
	FlagCacheDir string `koanf:"flag_cache_dir"`
	AudioDir     string `koanf:"audio_dir"`
	CitiesFile   string `koanf:"cities_file"`
}

type Planner struct {
	Model          string `koanf:"model"`
	APIKey         string `koanf:"api_key"`
	Endpoint       string `koanf:"endpoint"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

type Remote struct {
	Listen string `koanf:"listen"`
}

type Config struct {
	Colors          Colors     `koanf:"colors"`
	Simulation      Simulation `koanf:"simulation"`
	View            View       `koanf:"view"`
	Data            Data       `koanf:"data"`
	Planner         Planner    `koanf:"planner"`
	Remote          Remote     `koanf:"remote"`
	ResolveMentions bool       `koanf:"resolve_mentions"`
}

const (
	DefaultModel    = "gemini-3-flash-preview"
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
)

func Defaults() Config {
	return Config{
		Colors: Colors{
			Background: "#0f172a",
			Visited:    "#3b82f6",
			Unvisited:  "#1e293b",
			Stroke:     "#475569",
			Trail:      "#ffffff",
			Flash:      "#ffffff",
		},
		Simulation: Simulation{
			ZoomInMultiplier:  2.5,
			ZoomOutScale:      1.0,
			AnimationSpeedMS:  2500,
			WaitDurationMS:    2000,
			FlashDurationMS:   1500,
			CenterIconScale:   1.0,
			TargetMarkerScale: 1.0,
			LineWidth:         2.5,
			MapMode:           string(geo.ModeWorld),
		},
		View: View{
			ShowCounter:     true,
			CounterPosition: TopRight,
			InfoStyle:       InfoDefault,
			DateFormat:      DateNumericFull,
			Layers:          LayerConfig{Trails: SurfaceBase, Visited: SurfaceBase},
			TrailStyle:      TrailStatic,
		},
		Data: Data{
			CacheDir:     "data/cache",
			FlagCacheDir: "data/flags",
		},
		Planner: Planner{
			Model:          DefaultModel,
			Endpoint:       DefaultEndpoint,
			TimeoutSeconds: 60,
		},
	}
}

// Load reads path, applies environment overrides and sanitizes the result.
// A missing file is not an error; the defaults are used.
func Load(path string) (Config, error) {
	cfg := Defaults()
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Printf("[CONFIG] %s not found, using defaults", path)
		} else if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Planner.APIKey = getEnvOrDefault("GEMINI_API_KEY", cfg.Planner.APIKey)
	cfg.Simulation.MapMode = getEnvOrDefault("GLOBE_MAP_MODE", cfg.Simulation.MapMode)

	for _, field := range cfg.Sanitize() {
		log.Printf("[CONFIG] Invalid %s, using default", field)
	}
	return cfg, nil
}

func getEnvOrDefault(envKey, val string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return val
}

// Sanitize replaces invalid values with defaults and returns the names of
// the fields it changed.
func (c *Config) Sanitize() []string {
	d := Defaults()
	var fixed []string

	colors := []struct {
		name string
		v    *string
		def  string
	}{
		{"colors.background", &c.Colors.Background, d.Colors.Background},
		{"colors.visited", &c.Colors.Visited, d.Colors.Visited},
		{"colors.unvisited", &c.Colors.Unvisited, d.Colors.Unvisited},
		{"colors.stroke", &c.Colors.Stroke, d.Colors.Stroke},
		{"colors.trail", &c.Colors.Trail, d.Colors.Trail},
		{"colors.flash", &c.Colors.Flash, d.Colors.Flash},
	}
	for _, col := range colors {
		*col.v = strings.TrimSpace(*col.v)
		if !IsValidHexColor(*col.v) {
			*col.v = col.def
			fixed = append(fixed, col.name)
		}
	}

	floats := []struct {
		name string
		v    *float64
		def  float64
	}{
		{"simulation.zoom_in_multiplier", &c.Simulation.ZoomInMultiplier, d.Simulation.ZoomInMultiplier},
		{"simulation.zoom_out_scale", &c.Simulation.ZoomOutScale, d.Simulation.ZoomOutScale},
		{"simulation.center_icon_scale", &c.Simulation.CenterIconScale, d.Simulation.CenterIconScale},
		{"simulation.target_marker_scale", &c.Simulation.TargetMarkerScale, d.Simulation.TargetMarkerScale},
		{"simulation.line_width", &c.Simulation.LineWidth, d.Simulation.LineWidth},
	}
	for _, f := range floats {
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) || *f.v <= 0 {
			*f.v = f.def
			fixed = append(fixed, f.name)
		}
	}

	ints := []struct {
		name string
		v    *int
		def  int
		lo   int
	}{
		{"simulation.animation_speed_ms", &c.Simulation.AnimationSpeedMS, d.Simulation.AnimationSpeedMS, 1},
		{"simulation.wait_duration_ms", &c.Simulation.WaitDurationMS, d.Simulation.WaitDurationMS, 0},
		{"simulation.flash_duration_ms", &c.Simulation.FlashDurationMS, d.Simulation.FlashDurationMS, 0},
		{"planner.timeout_seconds", &c.Planner.TimeoutSeconds, d.Planner.TimeoutSeconds, 1},
	}
	for _, i := range ints {
		if *i.v < i.lo {
			*i.v = i.def
			fixed = append(fixed, i.name)
		}
	}

	if _, err := geo.ParseMode(c.Simulation.MapMode); err != nil {
		c.Simulation.MapMode = d.Simulation.MapMode
		fixed = append(fixed, "simulation.map_mode")
	}
	if !oneOf(c.View.CounterPosition, CounterPositions) {
		c.View.CounterPosition = d.View.CounterPosition
		fixed = append(fixed, "view.counter_position")
	}
	if !oneOf(c.View.InfoStyle, InfoStyles) {
		c.View.InfoStyle = d.View.InfoStyle
		fixed = append(fixed, "view.info_style")
	}
	if !oneOf(c.View.DateFormat, DateFormats) {
		c.View.DateFormat = d.View.DateFormat
		fixed = append(fixed, "view.date_format")
	}
	if !oneOf(c.View.TrailStyle, TrailStyles) {
		c.View.TrailStyle = d.View.TrailStyle
		fixed = append(fixed, "view.trail_style")
	}
	surfaces := []Surface{SurfaceBase, SurfaceAtmosphere}
	if !oneOf(c.View.Layers.Trails, surfaces) {
		c.View.Layers.Trails = SurfaceBase
		fixed = append(fixed, "view.layer_config.trails")
	}
	if !oneOf(c.View.Layers.Visited, surfaces) {
		c.View.Layers.Visited = SurfaceBase
		fixed = append(fixed, "view.layer_config.visited")
	}
	if c.Planner.Model == "" {
		c.Planner.Model = d.Planner.Model
	}
	if c.Planner.Endpoint == "" {
		c.Planner.Endpoint = d.Planner.Endpoint
	}
	return fixed
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// ApplyPlan overlays the colors and settings carried by a plan file, then
// sanitizes again.
func (c *Config) ApplyPlan(p plan.Plan) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Colors.Background, p.Colors.Background)
	set(&c.Colors.Visited, p.Colors.Visited)
	set(&c.Colors.Unvisited, p.Colors.Unvisited)
	set(&c.Colors.Stroke, p.Colors.Stroke)
	set(&c.Colors.Trail, p.Colors.Trail)
	set(&c.Simulation.MapMode, p.Config.MapMode)

	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&c.Simulation.ZoomInMultiplier, p.Config.ZoomInMultiplier)
	setF(&c.Simulation.ZoomOutScale, p.Config.ZoomOutScale)
	setF(&c.Simulation.CenterIconScale, p.Config.CenterIconScale)
	if v := p.Config.AnimationSpeed; v != nil {
		c.Simulation.AnimationSpeedMS = int(math.Round(*v))
	}
	if v := p.Config.WaitDuration; v != nil {
		c.Simulation.WaitDurationMS = int(math.Round(*v))
	}

	for _, field := range c.Sanitize() {
		log.Printf("[CONFIG] Invalid %s in plan, using default", field)
	}
}

// PlanSettings returns the colors and settings in plan form, for export.
func (c Config) PlanSettings() (plan.Colors, plan.Settings) {
	return plan.Colors{
			Background: plan.String(c.Colors.Background),
			Visited:    plan.String(c.Colors.Visited),
			Unvisited:  plan.String(c.Colors.Unvisited),
			Stroke:     plan.String(c.Colors.Stroke),
			Trail:      plan.String(c.Colors.Trail),
		}, plan.Settings{
			ZoomInMultiplier: plan.Float(c.Simulation.ZoomInMultiplier),
			ZoomOutScale:     plan.Float(c.Simulation.ZoomOutScale),
			AnimationSpeed:   plan.Float(float64(c.Simulation.AnimationSpeedMS)),
			WaitDuration:     plan.Float(float64(c.Simulation.WaitDurationMS)),
			CenterIconScale:  plan.Float(c.Simulation.CenterIconScale),
			MapMode:          plan.String(c.Simulation.MapMode),
		}
}

func (s Simulation) AnimationSpeed() time.Duration {
	return time.Duration(s.AnimationSpeedMS) * time.Millisecond
}

func (s Simulation) WaitDuration() time.Duration {
	return time.Duration(s.WaitDurationMS) * time.Millisecond
}

func (s Simulation) FlashDuration() time.Duration {
	return time.Duration(s.FlashDurationMS) * time.Millisecond
}

// Mode returns the parsed map mode. Sanitize guarantees it is valid.
func (s Simulation) Mode() geo.Mode {
	m, err := geo.ParseMode(s.MapMode)
	if err != nil {
		return geo.ModeWorld
	}
	return m
}

func (p Planner) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var ErrInvalidHexFormat = errors.New("invalid hex color format, expected #RRGGBB")

func IsValidHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// ParseHexColor parses #RRGGBB into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	if !IsValidHexColor(s) {
		return color.RGBA{}, fmt.Errorf("%w: got %q", ErrInvalidHexFormat, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("failed to parse color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Palette is Colors parsed into RGBA values.
type Palette struct {
	Background, Visited, Unvisited, Stroke, Trail, Flash color.RGBA
}

// Palette parses every color. Invalid entries, which Sanitize would have
// replaced, come back as the default.
func (c Colors) Palette() Palette {
	d := Defaults().Colors
	parse := func(s, def string) color.RGBA {
		if rgba, err := ParseHexColor(s); err == nil {
			return rgba
		}
		rgba, _ := ParseHexColor(def)
		return rgba
	}
	return Palette{
		Background: parse(c.Background, d.Background),
		Visited:    parse(c.Visited, d.Visited),
		Unvisited:  parse(c.Unvisited, d.Unvisited),
		Stroke:     parse(c.Stroke, d.Stroke),
		Trail:      parse(c.Trail, d.Trail),
		Flash:      parse(c.Flash, d.Flash),
	}
}
