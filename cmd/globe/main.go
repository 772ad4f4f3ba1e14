package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/globeengine"
	"github.com/sudorandom/expansion-globe/pkg/plan"
	"github.com/sudorandom/expansion-globe/pkg/planner"
	"github.com/sudorandom/expansion-globe/pkg/remote"
	"github.com/sudorandom/expansion-globe/pkg/sources"
	"github.com/sudorandom/expansion-globe/pkg/utils"
)

type Globals struct {
	Config string `help:"Settings file (YAML). Missing files fall back to defaults." default:"globe.yaml" type:"path"`
}

type CLI struct {
	Globals

	Play  PlayCmd  `cmd:"" default:"1" help:"Open the globe window and play the timeline."`
	Names NamesCmd `cmd:"" help:"Print every place name the map can resolve."`
	Plan  PlanCmd  `cmd:"" help:"Generate locations for a prompt and append them to a plan file."`
}

type PlayCmd struct {
	Plan       string  `help:"Plan file with colors, settings and events." type:"path"`
	Width      int     `help:"Internal rendering width." default:"1920"`
	Height     int     `help:"Internal rendering height." default:"1080"`
	WindowW    int     `name:"window-width" help:"Initial window width." default:"1280"`
	WindowH    int     `name:"window-height" help:"Initial window height." default:"720"`
	TPS        int     `help:"Ticks per second (engine updates)." default:"60"`
	CaptureDir string  `help:"Write a PNG per frame here while playing." type:"path"`
	AudioDir   string  `help:"Play a random mp3 from this directory while playing." type:"path"`
	Listen     string  `help:"Address for the websocket remote control, e.g. :8090."`
	Marker     string  `help:"Image used as the target marker." type:"path"`
	CenterIcon string  `help:"Image drawn at the screen center." type:"path"`
	FlagRate   float64 `help:"Flag downloads per second." default:"4"`
	Autostart  bool    `help:"Start playing as soon as the window opens."`
}

type NamesCmd struct {
	Mode string `help:"Map mode to list (world or usa)." default:"world" enum:"world,usa"`
}

type PlanCmd struct {
	Prompt string `help:"What to map, e.g. \"Stripe office openings\"." required:""`
	Out    string `help:"Plan file to append to." default:"plan.lua" type:"path"`
	Year   int    `help:"Fallback year for events without a date."`
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("globe"),
		kong.Description("Animate an expansion timeline across a world or USA map."),
		kong.UsageOnError(),
	)
	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	kctx.FatalIfErrorf(kctx.Run(&cli.Globals, &cfg))
}

// newLoader wires the boundary source and the gazetteer. Failing to fetch
// the cities database only costs the extra cities.
func newLoader(ctx context.Context, cfg config.Config, f *utils.Fetcher) *geo.Loader {
	g := geo.DefaultGazetteer()
	if cfg.Data.CitiesFile != "" {
		n, err := sources.LoadCities(ctx, f, cfg.Data.CitiesFile, g)
		if err != nil {
			log.Printf("[GEO] Failed to load cities: %v", err)
		} else {
			log.Printf("[GEO] Loaded %d cities", n)
		}
	}
	opts := []geo.Option{geo.WithGazetteer(g)}
	if cfg.ResolveMentions {
		opts = append(opts, geo.WithMentions())
	}
	return geo.NewLoader(sources.NewBoundaries(f), opts...)
}

func (c *PlayCmd) Run(g *Globals, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var p plan.Plan
	if c.Plan != "" {
		var err error
		if p, err = plan.Read(c.Plan); err != nil {
			return err
		}
		cfg.ApplyPlan(p)
		log.Printf("Loaded %d events from %s", len(p.Events), c.Plan)
	}

	fetcher := utils.NewFetcher(cfg.Data.CacheDir)
	engine := globeengine.NewEngine(c.Width, c.Height, *cfg, newLoader(ctx, *cfg, fetcher))
	engine.FrameCaptureDir = c.CaptureDir
	if err := engine.LoadImages(c.Marker, c.CenterIcon); err != nil {
		return err
	}

	listen := c.Listen
	if listen == "" {
		listen = cfg.Remote.Listen
	}
	if listen != "" {
		engine.Hub = remote.NewHub()
		go func() {
			if err := engine.Hub.Serve(ctx, listen); err != nil {
				log.Printf("[REMOTE] Server stopped: %v", err)
			}
		}()
	}

	if cfg.Simulation.Mode() != geo.ModeUSA && cfg.Data.FlagCacheDir != "" {
		store, err := utils.OpenKVStore(cfg.Data.FlagCacheDir)
		if err != nil {
			log.Printf("[FLAGS] Flags disabled, could not open cache: %v", err)
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					log.Printf("[FLAGS] Error closing cache: %v", err)
				}
			}()
			engine.Flags = globeengine.NewFlagCache(store, utils.NewFetcher(""), c.FlagRate)
		}
	}

	audioDir := c.AudioDir
	if audioDir == "" {
		audioDir = cfg.Data.AudioDir
	}
	if audioDir != "" {
		engine.Soundtrack = globeengine.NewSoundtrack(audioDir)
		engine.Soundtrack.OnMetadata = func(song, artist, extra string) {
			log.Printf("[AUDIO] Now playing: %s by %s %s", song, artist, extra)
		}
		defer engine.Soundtrack.Close()
	}

	engine.InitTextures()
	engine.Start(ctx)
	engine.SetEvents(p.Timeline())
	if c.Autostart {
		engine.Timeline().Start()
	}

	ebiten.SetTPS(c.TPS)
	ebiten.SetWindowSize(c.WindowW, c.WindowH)
	ebiten.SetWindowTitle("Expansion Globe")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(engine)
}

func (c *NamesCmd) Run(g *Globals, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mode, err := geo.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	store := newLoader(ctx, *cfg, utils.NewFetcher(cfg.Data.CacheDir)).Load(ctx, mode)
	if store.Empty() {
		return fmt.Errorf("no %s boundaries available", mode)
	}
	names := store.Names()
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func (c *PlanCmd) Run(g *Globals, cfg *config.Config) error {
	year := c.Year
	if year == 0 {
		year = time.Now().Year()
	}
	client := planner.NewClient(cfg.Planner.APIKey, cfg.Planner.Model, cfg.Planner.Endpoint, cfg.Planner.Timeout())
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Planner.Timeout())
	defer cancel()

	entries := client.Generate(ctx, c.Prompt, year)
	if len(entries) == 0 {
		return fmt.Errorf("planner returned no locations for %q", c.Prompt)
	}
	p, err := plan.Append(c.Out, entries)
	if err != nil {
		return err
	}
	log.Printf("[PLANNER] %s now holds %d events", c.Out, len(p.Events))
	return nil
}
