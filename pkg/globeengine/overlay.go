package globeengine

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/expansion-globe/pkg/config"
	"github.com/sudorandom/expansion-globe/pkg/timeline"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName wraps out-of-range months around the calendar, so 0 is December
// and 13 is January.
func MonthName(m int) string {
	return monthNames[((m-1)%12+12)%12]
}

func FormatDate(d timeline.Date, f config.DateFormat) string {
	switch f {
	case config.DateNumberName:
		return fmt.Sprintf("%02d %s", d.Day, MonthName(d.Month))
	case config.DateMonthName:
		return fmt.Sprintf("%s %d", MonthName(d.Month), d.Year)
	default:
		return fmt.Sprintf("%d.%02d.%02d", d.Year, d.Month, d.Day)
	}
}

const overlayMargin = 32.0

// CounterOrigin returns the top-left corner of a w x h box at the anchor.
func CounterOrigin(pos config.CounterPosition, screenW, screenH, w, h float64) (x, y float64) {
	left, right := overlayMargin, screenW-overlayMargin-w
	top, bottom := overlayMargin, screenH-overlayMargin-h
	midX, midY := (screenW-w)/2, (screenH-h)/2
	switch pos {
	case config.TopLeft:
		return left, top
	case config.CenterLeft:
		return left, midY
	case config.BottomLeft:
		return left, bottom
	case config.BottomCenter:
		return midX, bottom
	case config.BottomRight:
		return right, bottom
	case config.CenterRight:
		return right, midY
	case config.TopCenter:
		return midX, top
	default:
		return right, top
	}
}

const cinematicEnter = 800 * time.Millisecond

// CinematicEntrance returns the opacity, scale and vertical offset (as a
// fraction of the card height) of the cinematic card after elapsed.
func CinematicEntrance(elapsed time.Duration) (alpha, scale, lift float64) {
	t := math.Max(0, math.Min(1, float64(elapsed)/float64(cinematicEnter)))
	// Quartic ease out: fast start, long settle.
	e := 1 - math.Pow(1-t, 4)
	return e, 0.9 + 0.1*e, 0.05 * (1 - e)
}

// InfoTitle is the heading shown for an event in a given style.
func InfoTitle(name string, style config.InfoStyle) string {
	if style == config.Info3DCard || style == config.InfoCinematic {
		return strings.ToUpper(name)
	}
	return name
}

var (
	panelFill   = color.RGBA{15, 23, 42, 230}
	panelBorder = color.RGBA{51, 65, 85, 128}
	badgeFill   = color.RGBA{59, 130, 246, 51}
	badgeText   = color.RGBA{147, 197, 253, 255}
	mutedText   = color.RGBA{148, 163, 184, 255}
	flagBlank   = color.RGBA{30, 41, 59, 255}
	accentLine  = color.RGBA{96, 165, 250, 128}
)

func (e *Engine) face(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: e.fontSource, Size: size * e.uiScale()}
}

func (e *Engine) monoFace(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: e.monoSource, Size: size * e.uiScale()}
}

// uiScale doubles overlay sizes on large canvases.
func (e *Engine) uiScale() float64 {
	if e.Width > 2000 {
		return 2
	}
	return 1
}

func drawText(dst *ebiten.Image, s string, face *text.GoTextFace, x, y float64, align text.Align, clr color.Color, alpha float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.LayoutOptions.PrimaryAlign = align
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(float32(alpha))
	text.Draw(dst, s, face, op)
}

func drawPanel(dst *ebiten.Image, x, y, w, h float64, fill color.RGBA) {
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), fill, false)
	vector.StrokeRect(dst, float32(x), float32(y), float32(w), float32(h), 1, panelBorder, false)
}

// drawFlag fits the flag image into the box, or draws an empty placeholder.
func (e *Engine) drawFlag(dst *ebiten.Image, code string, x, y, w, h, alpha float64) {
	img := e.flags[code]
	if img == nil {
		vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), flagBlank, false)
		return
	}
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(img, op)
}

func (e *Engine) drawInfo(dst *ebiten.Image, f Frame) {
	if !e.uiVisible || f.State != timeline.Playing || f.Current < 0 || f.Current >= len(f.Events) {
		return
	}
	ev := f.Events[f.Current]
	var code string
	if f.Current < len(f.Locations) {
		code = FlagCode(f.Locations[f.Current].Feature, f.Mode)
	}
	style := e.cfg.View.InfoStyle
	title := InfoTitle(ev.Name, style)
	date := FormatDate(ev.Start, e.cfg.View.DateFormat)
	k := e.uiScale()
	cx := float64(e.Width) / 2

	switch style {
	case config.InfoCinematic:
		alpha, scale, lift := CinematicEntrance(f.Now.Sub(e.targetAt))
		fw, fh := 224*k*scale, 144*k*scale
		cy := float64(e.Height)/2 - lift*float64(e.Height)
		e.drawGlow(dst, cx, cy-fh/2, fw*0.9, color.RGBA{59, 130, 246, 255}, 0.3*alpha)
		e.drawFlag(dst, code, cx-fw/2, cy-fh-24*k, fw, fh, alpha)
		drawText(dst, title, e.face(60*scale), cx, cy, text.AlignCenter, color.White, alpha)
		dateY := cy + 80*k
		drawText(dst, date, e.monoFace(20), cx, dateY, text.AlignCenter, badgeText, alpha)
		dw, _ := text.Measure(date, e.monoFace(20), 0)
		for _, sx := range []float64{cx - dw/2 - 60*k, cx + dw/2 + 12*k} {
			vector.StrokeLine(dst, float32(sx), float32(dateY+12*k), float32(sx+48*k), float32(dateY+12*k), 1, accentLine, false)
		}
		return
	}

	top := overlayMargin
	switch style {
	case config.InfoFlagCenter:
		w, h := 320*k, 200*k
		drawPanel(dst, cx-w/2, top, w, h, panelFill)
		e.drawFlag(dst, code, cx-64*k, top+20*k, 128*k, 80*k, 1)
		drawText(dst, title, e.face(24), cx, top+112*k, text.AlignCenter, color.White, 1)
		drawText(dst, date, e.monoFace(14), cx, top+150*k, text.AlignCenter, mutedText, 1)
	case config.InfoMinimal:
		w, h := 300*k, 88*k
		drawPanel(dst, cx-w/2, top, w, h, panelFill)
		drawText(dst, title, e.face(24), cx, top+16*k, text.AlignCenter, color.White, 1)
		drawText(dst, date, e.monoFace(14), cx, top+54*k, text.AlignCenter, mutedText, 1)
	case config.Info3DCard:
		w, h := 340*k, 220*k
		// A skewed shadow stands in for the perspective tilt.
		vector.DrawFilledRect(dst, float32(cx-w/2+8*k), float32(top+12*k), float32(w), float32(h), color.RGBA{0, 0, 0, 100}, false)
		drawPanel(dst, cx-w/2, top, w, h, color.RGBA{15, 23, 42, 204})
		vector.DrawFilledRect(dst, float32(cx-w/2), float32(top), float32(w), float32(h/2), color.RGBA{255, 255, 255, 8}, false)
		e.drawFlag(dst, code, cx-48*k, top+24*k, 96*k, 64*k, 1)
		drawText(dst, title, e.face(30), cx, top+104*k, text.AlignCenter, color.White, 1)
		bw, _ := text.Measure(date, e.monoFace(14), 0)
		vector.DrawFilledRect(dst, float32(cx-bw/2-12*k), float32(top+160*k), float32(bw+24*k), float32(28*k), badgeFill, false)
		drawText(dst, date, e.monoFace(14), cx, top+165*k, text.AlignCenter, badgeText, 1)
	default:
		w, h := 420*k, 104*k
		x := cx - w/2
		drawPanel(dst, x, top, w, h, panelFill)
		e.drawFlag(dst, code, x+24*k, top+24*k, 80*k, 56*k, 1)
		drawText(dst, title, e.face(24), x+124*k, top+20*k, text.AlignStart, color.White, 1)
		badge := "EXPANSION EVENT"
		bw, _ := text.Measure(badge, e.face(11), 0)
		vector.DrawFilledRect(dst, float32(x+124*k), float32(top+60*k), float32(bw+12*k), float32(20*k), badgeFill, false)
		drawText(dst, badge, e.face(11), x+130*k, top+63*k, text.AlignStart, badgeText, 1)
		drawText(dst, date, e.monoFace(14), x+bw+148*k, top+62*k, text.AlignStart, mutedText, 1)
	}
}

func (e *Engine) drawCounter(dst *ebiten.Image, f Frame) {
	if !e.uiVisible || f.State != timeline.Playing {
		return
	}
	k := e.uiScale()
	visited := 0
	for _, ev := range f.Events {
		if ev.Visited {
			visited++
		}
	}
	value := fmt.Sprintf("%d / %d", visited, len(f.Events))
	vw, _ := text.Measure(value, e.monoFace(24), 0)
	w, h := math.Max(120*k, vw+32*k), 72*k
	x, y := CounterOrigin(e.cfg.View.CounterPosition, float64(e.Width), float64(e.Height), w, h)

	drawPanel(dst, x, y, w, h, color.RGBA{15, 23, 42, 204})
	drawText(dst, "PROGRESS", e.face(11), x+w/2, y+10*k, text.AlignCenter, mutedText, 1)
	drawText(dst, value, e.monoFace(24), x+w/2, y+30*k, text.AlignCenter, color.White, 1)
}
