// Package globeengine renders the expansion timeline on a projected map:
// it owns the timeline, the camera and the flash tracker, drives them from
// the ebiten game loop, and composites the map layers every frame.
package globeengine

import (
	"bytes"
	"context"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sudorandom/expansion-globe/pkg/camera"
	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/flash"
	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/projection"
	"github.com/sudorandom/expansion-globe/pkg/remote"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

var spaceColor = color.RGBA{2, 6, 23, 255}

type Engine struct {
	Width, Height   int
	FrameCaptureDir string

	// Optional collaborators, set before RunGame.
	Hub        *remote.Hub
	Flags      *FlagCache
	Soundtrack *Soundtrack

	cfg     config.Config
	palette config.Palette
	mode    geo.Mode
	passes  []Pass

	ctx       context.Context
	loader    *geo.Loader
	storeCh   chan *geo.Store
	store     *geo.Store
	locations map[string]geo.Location

	sched    *timeline.Scheduler
	timeline *timeline.Timeline
	camera   *camera.Animator
	flashes  *flash.Tracker

	uiVisible    bool
	targetAt     time.Time
	dragging     bool
	lastX, lastY int

	fontSource      *text.GoTextFaceSource
	monoSource      *text.GoTextFaceSource
	glowImage       *ebiten.Image
	atmosphereImage *ebiten.Image
	atmosphereLayer *ebiten.Image
	marker          *ebiten.Image
	centerIcon      *ebiten.Image
	flags           map[string]*ebiten.Image
	graticule       [][]geo.LngLat

	captureRun, captureFrameNo int
}

func NewEngine(width, height int, cfg config.Config, loader *geo.Loader) *Engine {
	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))

	now := time.Now()
	e := &Engine{
		Width:      width,
		Height:     height,
		cfg:        cfg,
		palette:    cfg.Colors.Palette(),
		mode:       cfg.Simulation.Mode(),
		passes:     PassPlan(cfg.Simulation.Mode(), cfg.View),
		ctx:        context.Background(),
		loader:     loader,
		storeCh:    make(chan *geo.Store, 1),
		locations:  make(map[string]geo.Location),
		sched:      timeline.NewScheduler(now),
		flashes:    flash.NewTracker(),
		uiVisible:  true,
		fontSource: s,
		monoSource: m,
		flags:      make(map[string]*ebiten.Image),
		graticule:  graticuleLines(10, 2),
	}

	sim := cfg.Simulation
	e.timeline = timeline.New(e.sched, timeline.Config{
		Travel: sim.AnimationSpeed(),
		Wait:   sim.WaitDuration(),
	}, timeline.Hooks{
		OnTarget:  e.onTarget,
		OnVisited: e.onVisited,
		OnState:   e.onState,
	})
	e.camera = camera.New(camera.Config{
		Mode:     e.mode,
		Duration: sim.AnimationSpeed(),
		ZoomIn:   sim.ZoomInMultiplier,
		Home:     camera.HomeCoordinate,
	}, camera.HomePose(e.mode, camera.HomeCoordinate, width, height, sim.ZoomOutScale))
	e.camera.OnComplete = func(projection.Pose) {
		e.publish(remote.Message{Type: remote.TypeAnimationComplete, ID: e.timeline.Current()})
	}
	return e
}

// InitTextures builds the glow and atmosphere textures and the offscreen
// atmosphere layer. Call it once before RunGame.
func (e *Engine) InitTextures() {
	e.initTextures()
	e.atmosphereLayer = ebiten.NewImage(e.Width, e.Height)
}

// Start loads the boundaries for the configured mode in the background.
// The map renders empty until they arrive.
func (e *Engine) Start(ctx context.Context) {
	e.ctx = ctx
	go func() {
		store := e.loader.Load(ctx, e.mode)
		select {
		case e.storeCh <- store:
		case <-ctx.Done():
		}
	}()
}

// SetEvents replaces the timeline's events and resolves their locations.
func (e *Engine) SetEvents(events []timeline.Event) {
	e.timeline.SetEvents(events)
	e.resolveAll()
}

func (e *Engine) Timeline() *timeline.Timeline { return e.timeline }

func (e *Engine) resolveAll() {
	clear(e.locations)
	if e.store == nil {
		return
	}
	for _, ev := range e.timeline.Events() {
		loc := e.store.ResolveAt(ev.Name, ev.Coordinates)
		if !loc.Resolved {
			log.Printf("[GEO] Could not resolve %q, it will be skipped on the map", ev.Name)
		}
		e.locations[ev.ID] = loc
		if e.Flags != nil {
			e.Flags.Request(e.ctx, FlagCode(loc.Feature, e.mode))
		}
	}
}

func (e *Engine) event(id string) (timeline.Event, bool) {
	for _, ev := range e.timeline.Events() {
		if ev.ID == id {
			return ev, true
		}
	}
	return timeline.Event{}, false
}

func (e *Engine) onTarget(id string) {
	now := e.sched.Now()
	e.targetAt = now
	if id == "" {
		return
	}
	e.flashes.Touch(e.locations[id].FeatureKey(), now)
	ev, _ := e.event(id)
	e.publish(remote.Message{Type: remote.TypeTarget, ID: id, Name: ev.Name})
}

func (e *Engine) onVisited(ev timeline.Event) {
	e.flashes.Touch(e.locations[ev.ID].FeatureKey(), e.sched.Now())
	e.publish(remote.Message{Type: remote.TypeVisited, ID: ev.ID, Name: ev.Name})
}

func (e *Engine) onState(from, to timeline.State) {
	now := e.sched.Now()
	switch {
	case to == timeline.Playing:
		e.captureRun++
		e.captureFrameNo = 0
		if e.Soundtrack != nil {
			if err := e.Soundtrack.Play(); err != nil {
				log.Printf("[AUDIO] Not playing a soundtrack: %v", err)
			}
		}
	case from == timeline.Playing && e.Soundtrack != nil:
		e.Soundtrack.Stop(now)
	}
	if to == timeline.Idle && from != timeline.Idle {
		e.flashes.Reset()
	}
	e.publish(remote.Message{Type: remote.TypeState, State: to.String()})
}

func (e *Engine) publish(msg remote.Message) {
	if e.Hub == nil {
		return
	}
	msg.Visited = e.timeline.Visited()
	msg.Total = len(e.timeline.Events())
	e.Hub.Publish(msg)
}

func (e *Engine) Update() error {
	now := time.Now()
	e.drain()
	e.handleInput()
	e.sched.Advance(now)
	e.syncCamera(now)
	e.flashes.Prune(e.cfg.Simulation.FlashDuration(), now)
	if e.Soundtrack != nil {
		e.Soundtrack.Update(now)
	}
	return nil
}

// drain applies results from background work without blocking.
func (e *Engine) drain() {
	for {
		select {
		case store := <-e.storeCh:
			e.store = store
			log.Printf("[GEO] %d names available", len(store.Names()))
			e.resolveAll()
		case cmd := <-e.commands():
			e.apply(cmd)
		case res := <-e.flagResults():
			e.flags[res.Code] = ebiten.NewImageFromImage(res.Image)
		default:
			return
		}
	}
}

// commands returns nil without a hub; receiving from nil never fires.
func (e *Engine) commands() <-chan remote.Command {
	if e.Hub == nil {
		return nil
	}
	return e.Hub.Commands()
}

func (e *Engine) flagResults() <-chan FlagResult {
	if e.Flags == nil {
		return nil
	}
	return e.Flags.Results()
}

func (e *Engine) apply(cmd remote.Command) {
	switch cmd {
	case remote.CommandStart:
		e.timeline.Start()
	case remote.CommandStop:
		e.timeline.Stop()
	case remote.CommandToggle:
		e.timeline.Toggle()
	case remote.CommandToggleUI:
		e.uiVisible = !e.uiVisible
	}
}

func (e *Engine) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		e.uiVisible = !e.uiVisible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		e.timeline.Toggle()
	}

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		e.dragging = true
	case e.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		e.camera.Drag(e.timeline.State(), float64(x-e.lastX), float64(y-e.lastY))
	default:
		e.dragging = false
	}
	e.lastX, e.lastY = x, y
}

func (e *Engine) syncCamera(now time.Time) {
	req := camera.Request{
		State:     e.timeline.State(),
		Target:    e.timeline.Current(),
		BaseScale: camera.BaseScale(e.mode, e.Width, e.Height, e.cfg.Simulation.ZoomOutScale),
		Center:    [2]float64{float64(e.Width) / 2, float64(e.Height) / 2},
	}
	if req.Target != "" {
		req.Location = e.locations[req.Target]
	}
	e.camera.Sync(req, now)
	e.camera.Tick(now)
}

func (e *Engine) frame(now time.Time) Frame {
	events := e.timeline.Events()
	f := Frame{
		Mode:      e.mode,
		State:     e.timeline.State(),
		Events:    events,
		Locations: make([]geo.Location, len(events)),
		Current:   e.timeline.CurrentIndex(),
		Progress:  e.camera.Progress(now),
		Now:       now,
	}
	for i, ev := range events {
		f.Locations[i] = e.locations[ev.ID]
	}
	return f
}

type frameFills struct {
	resting, highlighted, states []Fill
}

func (e *Engine) fills(f Frame) frameFills {
	var out frameFills
	if e.store == nil {
		return out
	}
	visited, current := f.VisitedFeatures(), f.CurrentFeature()
	dur := e.cfg.Simulation.FlashDuration()
	base := e.store.Countries()
	if e.mode == geo.ModeUSA {
		base = e.store.States()
	}
	out.resting, out.highlighted = FeatureFills(base, visited, current, e.flashes, e.palette, dur, f.Now)
	if e.mode != geo.ModeUSA {
		_, out.states = FeatureFills(e.store.States(), visited, current, e.flashes, e.palette, dur, f.Now)
	}
	return out
}

func (e *Engine) Draw(screen *ebiten.Image) {
	now := time.Now()
	f := e.frame(now)
	pose := e.camera.Pose()
	proj := projection.For(e.mode, pose)
	fl := e.fills(f)

	screen.Fill(spaceColor)
	atmosphere := false
	for _, p := range e.passes {
		dst := screen
		switch {
		case p.Layer == LayerAtmosphere && e.atmosphereLayer != nil:
			if !atmosphere {
				e.atmosphereLayer.Clear()
				atmosphere = true
			}
			dst = e.atmosphereLayer
		case p.Layer == LayerScreen && atmosphere:
			screen.DrawImage(e.atmosphereLayer, nil)
			atmosphere = false
		}
		e.runPass(dst, p.Kind, f, pose, proj, fl)
	}
	if atmosphere {
		screen.DrawImage(e.atmosphereLayer, nil)
	}

	if e.store == nil {
		drawText(screen, "Loading map data...", e.face(14), float64(e.Width)/2, float64(e.Height)-overlayMargin*2, text.AlignCenter, mutedText, 1)
	}
	if f.State == timeline.Playing {
		e.captureFrame(screen)
	}
}

func (e *Engine) runPass(dst *ebiten.Image, kind PassKind, f Frame, pose projection.Pose, proj projection.Projection, fl frameFills) {
	switch kind {
	case PassSphere:
		e.drawSphere(dst, pose)
	case PassGraticule:
		e.drawGraticule(dst, proj)
	case PassFeatures:
		e.drawFills(dst, proj, fl.resting, true)
	case PassHighlights:
		e.drawFills(dst, proj, fl.highlighted, true)
	case PassStates:
		if e.store != nil {
			e.drawStateLines(dst, proj, e.store.States())
		}
		e.drawFills(dst, proj, fl.states, false)
	case PassAtmosphere:
		e.drawAtmosphere(dst, pose)
	case PassTrails:
		e.drawTrails(dst, proj, f)
	case PassMarkers:
		e.drawMarkers(dst, proj, f)
	case PassCenterIcon:
		e.drawCenterIcon(dst)
	case PassInfo:
		e.drawInfo(dst, f)
	case PassCounter:
		e.drawCounter(dst, f)
	}
}

func (e *Engine) Layout(w, h int) (int, int) { return e.Width, e.Height }
