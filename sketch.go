package doodle

import (
	"image"
	"image/color"
	"math"

	"github.com/esimov/doodle/utils"
)

// DefaultStrokeWidth is the pen thickness used when none is configured.
const DefaultStrokeWidth = 6.0

// strokeState encodes the two states of the capture machine. Transitions
// happen on Begin, Continue and End; a Continue received while idle is a no-op
// instead of an error.
type strokeState int

const (
	stateIdle strokeState = iota
	stateDrawing
)

// Sketcher translates a stream of pointer events into connected line segments
// rasterized onto its surface. Segments are stamped with round caps and
// joins, so strokes stay visually continuous even when fast pointer movement
// delivers sparse samples.
type Sketcher struct {
	surf  *Surface
	state strokeState
	last  image.Point

	// StrokeWidth is the pen thickness in surface pixels.
	StrokeWidth float64
	// StrokeColor is the pen color, solid black unless overridden.
	StrokeColor color.NRGBA
}

// NewSketcher creates a freehand input capturer drawing onto the surface.
func NewSketcher(surf *Surface) *Sketcher {
	return &Sketcher{
		surf:        surf,
		StrokeWidth: DefaultStrokeWidth,
		StrokeColor: color.NRGBA{A: 0xff},
	}
}

// Surface returns the raster surface the sketcher draws onto.
func (sk *Sketcher) Surface() *Surface { return sk.surf }

// Drawing reports whether a stroke is currently in progress.
func (sk *Sketcher) Drawing() bool { return sk.state == stateDrawing }

// Begin starts a new stroke at the display-space coordinate. The coordinate is
// mapped to the surface pixel grid; when the mapping fails the sketcher stays
// idle and the event is dropped.
func (sk *Sketcher) Begin(x, y, dispW, dispH float64) {
	pt, ok := sk.surf.ToPixel(x, y, dispW, dispH)
	if !ok {
		return
	}
	sk.state = stateDrawing
	sk.last = pt
}

// Continue extends the stroke in progress with a straight segment from the
// last recorded position to the new mapped position. It is a no-op while idle
// or when the coordinate mapping fails.
func (sk *Sketcher) Continue(x, y, dispW, dispH float64) {
	if sk.state != stateDrawing {
		return
	}
	pt, ok := sk.surf.ToPixel(x, y, dispW, dispH)
	if !ok {
		return
	}
	sk.drawSegment(sk.last, pt)
	sk.last = pt
}

// End finishes the stroke in progress. The last position is forgotten, so a
// subsequent stroke starts cleanly instead of connecting to the previous one.
func (sk *Sketcher) End() {
	sk.state = stateIdle
	sk.last = image.Point{}
}

// Clear ends any stroke in progress and repaints the surface white.
func (sk *Sketcher) Clear() {
	sk.End()
	sk.surf.Clear()
}

// IsBlank reports whether nothing has been drawn onto the surface.
func (sk *Sketcher) IsBlank() bool {
	return sk.surf.IsBlank()
}

// drawSegment rasterizes a straight line between two surface points by
// stamping pen discs along it, one per covered pixel column or row. The disc
// stamping yields the round caps and joins.
func (sk *Sketcher) drawSegment(p0, p1 image.Point) {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	steps := utils.Max(utils.Abs(dx), utils.Abs(dy))
	if steps == 0 {
		sk.stampDisc(p0)
		return
	}
	for i := 0; i <= steps; i++ {
		sk.stampDisc(image.Pt(p0.X+dx*i/steps, p0.Y+dy*i/steps))
	}
}

// stampDisc paints a filled pen disc centered on the surface point, clipped
// to the surface bounds.
func (sk *Sketcher) stampDisc(c image.Point) {
	r := sk.StrokeWidth / 2
	ri := int(math.Ceil(r))

	for y := c.Y - ri; y <= c.Y+ri; y++ {
		if y < 0 || y >= sk.surf.height {
			continue
		}
		for x := c.X - ri; x <= c.X+ri; x++ {
			if x < 0 || x >= sk.surf.width {
				continue
			}
			ddx, ddy := float64(x-c.X), float64(y-c.Y)
			if ddx*ddx+ddy*ddy <= r*r {
				sk.surf.img.SetNRGBA(x, y, sk.StrokeColor)
			}
		}
	}
}
