package doodle

import (
	"image"
	"image/color"
	"math"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"

	"github.com/esimov/doodle/utils"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const (
	maxScreenX = 1366
	maxScreenY = 768
)

// Mode selects which engine owns the pointer events.
type Mode int

const (
	// ModeSketch routes pointer events to the freehand sketcher.
	ModeSketch Mode = iota
	// ModeColor routes pointer clicks to the flood-fill engine.
	ModeColor
)

// DefaultPalette holds the fill colors cycled with the arrow keys.
var DefaultPalette = []string{
	"#E53935", "#FB8C00", "#FDD835", "#43A047",
	"#1E90FF", "#5E35B1", "#8D6E63", "#F48FB1",
}

// Gui is the basic struct containing all of the information needed for the UI
// operation. Pointer presses, drags and releases are routed either to the
// sketcher or to the filler depending on the active mode.
type Gui struct {
	cfg struct {
		window struct {
			w, h  float64
			title string
		}
		background color.NRGBA
	}
	mode      Mode
	palette   []color.NRGBA
	colIdx    int
	activePtr pointer.ID

	sketcher *Sketcher
	filler   *Filler
}

// NewGUI initializes the Gio interface around the two engines. The window is
// sized after the sketch surface, capped to the screen while preserving the
// aspect ratio.
func NewGUI(sk *Sketcher, f *Filler) *Gui {
	gui := &Gui{
		mode:     ModeSketch,
		sketcher: sk,
		filler:   f,
	}
	for _, hex := range DefaultPalette {
		gui.palette = append(gui.palette, utils.HexToRGBA(hex))
	}
	gui.cfg.background = color.NRGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff}
	gui.cfg.window.title = "Doodle"

	w := float64(sk.Surface().Width())
	h := float64(sk.Surface().Height())
	if w > maxScreenX || h > maxScreenY {
		r := utils.Min(maxScreenX/w, maxScreenY/h)
		w, h = w*r, h*r
	}
	gui.cfg.window.w, gui.cfg.window.h = w, h

	return gui
}

// SetMode switches between the sketch and coloring mode, ending any stroke
// still in progress.
func (g *Gui) SetMode(m Mode) {
	g.sketcher.End()
	g.mode = m
}

// FillColor returns the currently selected palette color.
func (g *Gui) FillColor() color.NRGBA {
	return g.palette[g.colIdx]
}

// surface returns the raster surface owned by the active mode.
func (g *Gui) surface() *Surface {
	if g.mode == ModeColor {
		return g.filler.Surface()
	}
	return g.sketcher.Surface()
}

// frame returns the image blitted into the window. In coloring mode the read
// goes through the filler's lock, as a decode goroutine may still be landing
// on the surface; the sketch surface is only ever touched by the event loop.
func (g *Gui) frame() *image.NRGBA {
	if g.mode == ModeColor {
		return g.filler.Snapshot()
	}
	return g.sketcher.Surface().Image()
}

// displaySize returns the on-screen dimensions of the blitted surface. The
// blit scales the surface to fit the window preserving the aspect ratio,
// anchored at the window origin, so a window wider or taller than the surface
// aspect leaves an unmapped gutter on the right or at the bottom.
func displaySize(surf *Surface, win image.Point) (float64, float64) {
	s := math.Min(
		float64(win.X)/float64(surf.Width()),
		float64(win.Y)/float64(surf.Height()),
	)
	return float64(surf.Width()) * s, float64(surf.Height()) * s
}

// Run is the core method of the Gio GUI application. It pumps the window
// event loop until the window is destroyed or ESC is pressed.
//
// Key bindings: D sketch mode, F coloring mode, C clear/reset the active
// surface, left/right arrows cycle the fill palette, ESC quits.
func (g *Gui) Run() error {
	w := app.NewWindow(
		app.Title(g.cfg.window.title),
		app.Size(
			unit.Px(float32(g.cfg.window.w)),
			unit.Px(float32(g.cfg.window.h)),
		),
	)

	var ops op.Ops
	for e := range w.Events() {
		switch e := e.(type) {
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)
			g.processEvents(gtx, e)
			g.draw(gtx, e)
			e.Frame(gtx.Ops)
			w.Invalidate()
		case key.Event:
			if e.State != key.Press {
				break
			}
			switch e.Name {
			case key.NameEscape:
				w.Close()
			case "D":
				g.SetMode(ModeSketch)
			case "F":
				g.SetMode(ModeColor)
			case "C":
				if g.mode == ModeSketch {
					g.sketcher.Clear()
				} else {
					g.filler.Reset()
				}
			case key.NameLeftArrow:
				g.colIdx = (g.colIdx + len(g.palette) - 1) % len(g.palette)
			case key.NameRightArrow:
				g.colIdx = (g.colIdx + 1) % len(g.palette)
			}
		case system.DestroyEvent:
			return e.Err
		}
	}
	return nil
}

// processEvents routes the queued pointer events to the active engine. The
// event position is in window (display) space and is mapped against the
// rectangle the surface actually occupies on screen, so strokes and fills
// keep landing under the pointer after the window is resized off the surface
// aspect ratio. Events over the letterbox gutter fail to map and are dropped.
func (g *Gui) processEvents(gtx C, e system.FrameEvent) {
	dispW, dispH := displaySize(g.surface(), e.Size)

	for _, ev := range gtx.Events(g) {
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		x, y := float64(pe.Position.X), float64(pe.Position.Y)

		switch pe.Type {
		case pointer.Press:
			// On multi-touch only the first pressed pointer draws.
			if g.sketcher.Drawing() {
				break
			}
			g.activePtr = pe.PointerID
			if g.mode == ModeColor {
				g.filler.FillAt(x, y, dispW, dispH, g.FillColor())
			} else {
				g.sketcher.Begin(x, y, dispW, dispH)
			}
		case pointer.Drag:
			if g.mode == ModeSketch && pe.PointerID == g.activePtr {
				g.sketcher.Continue(x, y, dispW, dispH)
			}
		case pointer.Release, pointer.Cancel:
			if pe.PointerID == g.activePtr {
				g.sketcher.End()
			}
		}
	}
}

// draw blits the active surface into the window and re-registers the pointer
// input area covering it.
func (g *Gui) draw(gtx C, e system.FrameEvent) {
	paint.Fill(gtx.Ops, g.cfg.background)

	src := paint.NewImageOp(g.frame())
	src.Add(gtx.Ops)

	layout.Flex{
		Axis: layout.Horizontal,
	}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			widget.Image{
				Src:   src,
				Scale: 1 / float32(gtx.Px(unit.Dp(1))),
				Fit:   widget.Contain,
			}.Layout(gtx)
			return D{Size: gtx.Constraints.Max}
		}),
	)

	area := clip.Rect(image.Rectangle{Max: e.Size}).Push(gtx.Ops)
	pointer.InputOp{
		Tag:   g,
		Grab:  g.sketcher.Drawing(),
		Types: pointer.Press | pointer.Drag | pointer.Release,
	}.Add(gtx.Ops)
	area.Pop()

	g.drawSwatch(gtx)
}

// drawSwatch paints a small indicator of the selected fill color in the
// window corner while the coloring mode is active.
func (g *Gui) drawSwatch(gtx C) {
	if g.mode != ModeColor {
		return
	}
	const size = 28

	defer clip.Rect(image.Rect(8, 8, 8+size, 8+size)).Push(gtx.Ops).Pop()
	paint.ColorOp{Color: g.FillColor()}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}
