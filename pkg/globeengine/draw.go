package globeengine

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/projection"
)

type point struct{ x, y float64 }

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

func white() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// projectRing projects a polygon ring. It reports false when no vertex is on
// the visible side, in which case the ring should not be drawn.
func projectRing(proj projection.Projection, ring [][]float64) ([]point, bool) {
	out := make([]point, 0, len(ring))
	anyVisible := false
	for _, c := range ring {
		if len(c) < 2 {
			continue
		}
		x, y, ok := proj.Project(geo.LngLat{Lng: c[0], Lat: c[1]})
		if ok {
			anyVisible = true
		}
		out = append(out, point{x, y})
	}
	return out, anyVisible && len(out) >= 3
}

// projectLine projects a polyline and splits it wherever it passes out of
// view, so the hidden part is not drawn across the limb.
func projectLine(proj projection.Projection, pts []geo.LngLat) [][]point {
	var runs [][]point
	var cur []point
	for _, p := range pts {
		x, y, ok := proj.Project(p)
		if !ok {
			if len(cur) > 1 {
				runs = append(runs, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, point{x, y})
	}
	if len(cur) > 1 {
		runs = append(runs, cur)
	}
	return runs
}

func appendPolygons(path *vector.Path, proj projection.Projection, polygons [][][][]float64) bool {
	drew := false
	for _, poly := range polygons {
		for _, ring := range poly {
			pts, ok := projectRing(proj, ring)
			if !ok {
				continue
			}
			path.MoveTo(float32(pts[0].x), float32(pts[0].y))
			for _, p := range pts[1:] {
				path.LineTo(float32(p.x), float32(p.y))
			}
			path.Close()
			drew = true
		}
	}
	return drew
}

func appendRuns(path *vector.Path, runs [][]point) {
	for _, run := range runs {
		path.MoveTo(float32(run[0].x), float32(run[0].y))
		for _, p := range run[1:] {
			path.LineTo(float32(p.x), float32(p.y))
		}
	}
}

func colorVertices(vs []ebiten.Vertex, clr color.Color, alpha float64) {
	r, g, b, a := clr.RGBA()
	k := float32(alpha) / 0xffff
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(r) * k
		vs[i].ColorG = float32(g) * k
		vs[i].ColorB = float32(b) * k
		vs[i].ColorA = float32(a) * k
	}
}

func fillPath(dst *ebiten.Image, path *vector.Path, clr color.Color, alpha float64) {
	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	if len(is) == 0 {
		return
	}
	colorVertices(vs, clr, alpha)
	op := &ebiten.DrawTrianglesOptions{FillRule: ebiten.FillRuleEvenOdd, AntiAlias: true}
	dst.DrawTriangles(vs, is, white(), op)
}

func strokePath(dst *ebiten.Image, path *vector.Path, width float64, clr color.Color, alpha float64) {
	vs, is := path.AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width:    float32(width),
		LineJoin: vector.LineJoinRound,
		LineCap:  vector.LineCapRound,
	})
	if len(is) == 0 {
		return
	}
	colorVertices(vs, clr, alpha)
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	dst.DrawTriangles(vs, is, white(), op)
}

func (e *Engine) drawSphere(dst *ebiten.Image, pose projection.Pose) {
	cx, cy, r := float32(pose.Translate[0]), float32(pose.Translate[1]), float32(pose.Scale)
	vector.DrawFilledCircle(dst, cx, cy, r, e.palette.Background, true)
	vector.StrokeCircle(dst, cx, cy, r, 1, e.palette.Stroke, true)
}

func (e *Engine) drawGraticule(dst *ebiten.Image, proj projection.Projection) {
	var path vector.Path
	for _, line := range e.graticule {
		appendRuns(&path, projectLine(proj, line))
	}
	strokePath(dst, &path, 1, color.White, 0.05)
}

// drawFills fills features; fills sharing a color go into a single path.
func (e *Engine) drawFills(dst *ebiten.Image, proj projection.Projection, fills []Fill, outline bool) {
	byColor := make(map[color.RGBA]*vector.Path)
	var order []color.RGBA
	var outlines vector.Path
	for _, fl := range fills {
		path, ok := byColor[fl.Color]
		if !ok {
			path = &vector.Path{}
			byColor[fl.Color] = path
			order = append(order, fl.Color)
		}
		if appendPolygons(path, proj, fl.Feature.Polygons()) && outline {
			appendPolygons(&outlines, proj, fl.Feature.Polygons())
		}
	}
	for _, c := range order {
		fillPath(dst, byColor[c], c, 1)
	}
	if outline {
		strokePath(dst, &outlines, 0.5, e.palette.Stroke, 1)
	}
}

func (e *Engine) drawStateLines(dst *ebiten.Image, proj projection.Projection, states []*geo.Feature) {
	var path vector.Path
	for _, st := range states {
		appendPolygons(&path, proj, st.Polygons())
	}
	strokePath(dst, &path, 0.5, e.palette.Stroke, 0.35)
}

const trailSamples = 64

func (e *Engine) drawTrails(dst *ebiten.Image, proj projection.Projection, f Frame) {
	segments := Trails(f, e.cfg.View.TrailStyle)
	lw := e.cfg.Simulation.LineWidth
	pairs := math.Max(1, float64(len(f.Events)-1))
	rainbow := e.cfg.View.TrailStyle == config.TrailRainbow

	var history vector.Path
	for _, s := range segments {
		pts := geo.Segment(s.From, s.To, s.T0, s.T1, trailSamples)
		if rainbow {
			e.drawRainbow(dst, proj, pts, s, pairs, lw)
			continue
		}
		runs := projectLine(proj, pts)
		if !s.Active {
			appendRuns(&history, runs)
			continue
		}
		var head vector.Path
		appendRuns(&head, runs)
		strokePath(dst, &head, lw*6, color.White, 0.15)
		strokePath(dst, &head, lw*1.6, e.palette.Trail, 1)
	}
	strokePath(dst, &history, lw*4, e.palette.Trail, 0.15)
	strokePath(dst, &history, lw, e.palette.Trail, 0.6)
}

func (e *Engine) drawRainbow(dst *ebiten.Image, proj projection.Projection, pts []geo.LngLat, s TrailSegment, pairs, lw float64) {
	width, alpha := lw, 0.6
	if s.Active {
		width, alpha = lw*1.6, 1
	}
	for i := 0; i+1 < len(pts); i++ {
		runs := projectLine(proj, pts[i:i+2])
		if len(runs) == 0 {
			continue
		}
		t := s.T0 + (s.T1-s.T0)*float64(i)/float64(len(pts)-1)
		var path vector.Path
		appendRuns(&path, runs)
		strokePath(dst, &path, width, RainbowColor((float64(s.Order)+t)/pairs), alpha)
	}
}

const markerSize = 48.0

func (e *Engine) drawMarkers(dst *ebiten.Image, proj projection.Projection, f Frame) {
	for _, m := range Markers(f) {
		x, y, ok := proj.Project(m.Point)
		if !ok {
			continue
		}
		size := markerSize * e.cfg.Simulation.TargetMarkerScale * m.Scale
		if e.marker == nil {
			e.drawGlow(dst, x, y, size/2, e.palette.Trail, 0.8*m.Alpha)
			vector.DrawFilledCircle(dst, float32(x), float32(y), float32(size/10), e.palette.Trail, true)
			continue
		}
		b := e.marker.Bounds()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(size/float64(b.Dx()), size/float64(b.Dy()))
		op.GeoM.Translate(x-size/2, y-size)
		op.ColorScale.ScaleAlpha(float32(m.Alpha))
		op.Filter = ebiten.FilterLinear
		dst.DrawImage(e.marker, op)
	}
}

func (e *Engine) drawCenterIcon(dst *ebiten.Image) {
	if e.centerIcon == nil {
		return
	}
	size := 128 * e.cfg.Simulation.CenterIconScale * e.uiScale()
	b := e.centerIcon.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size/float64(b.Dx()), size/float64(b.Dy()))
	op.GeoM.Translate(float64(e.Width)/2-size/2, float64(e.Height)/2-size/2)
	op.ColorScale.ScaleAlpha(0.8)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(e.centerIcon, op)
}

var atmosphereColor = color.RGBA{96, 165, 250, 255}

func (e *Engine) drawAtmosphere(dst *ebiten.Image, pose projection.Pose) {
	if e.atmosphereImage == nil {
		return
	}
	size := float64(e.atmosphereImage.Bounds().Dx())
	k := 2 * pose.Scale / size
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-size/2, -size/2)
	op.GeoM.Scale(k, k)
	op.GeoM.Translate(pose.Translate[0], pose.Translate[1])
	op.ColorScale.ScaleWithColor(atmosphereColor)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(e.atmosphereImage, op)
}

// drawGlow draws the soft ring texture centered at x, y.
func (e *Engine) drawGlow(dst *ebiten.Image, x, y, radius float64, clr color.RGBA, alpha float64) {
	if e.glowImage == nil {
		return
	}
	size := float64(e.glowImage.Bounds().Dx())
	k := 2 * radius / size
	op := &ebiten.DrawImageOptions{}
	op.Blend = ebiten.BlendLighter
	op.GeoM.Translate(-size/2, -size/2)
	op.GeoM.Scale(k, k)
	op.GeoM.Translate(x, y)
	r, g, b := float64(clr.R)/255.0, float64(clr.G)/255.0, float64(clr.B)/255.0
	op.ColorScale.Scale(float32(r*alpha), float32(g*alpha), float32(b*alpha), float32(alpha))
	dst.DrawImage(e.glowImage, op)
}
