package doodle

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// Surface is a fixed-size RGBA pixel buffer owned by a single renderer at a
// time. The dimensions are set on creation and only change through an explicit
// Resize, which reinitializes the whole buffer to a blank state.
type Surface struct {
	img    *image.NRGBA
	width  int
	height int
}

// NewSurface creates a blank, opaque white surface of the requested size.
// Non-positive dimensions are raised to a single pixel.
func NewSurface(width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s := &Surface{
		img:    image.NewNRGBA(image.Rect(0, 0, width, height)),
		width:  width,
		height: height,
	}
	s.Clear()

	return s
}

// Width returns the intrinsic pixel width of the surface.
func (s *Surface) Width() int { return s.width }

// Height returns the intrinsic pixel height of the surface.
func (s *Surface) Height() int { return s.height }

// Image exposes the backing buffer for rendering.
func (s *Surface) Image() *image.NRGBA { return s.img }

// Clear repaints the entire surface to a solid white background,
// discarding all prior content.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
}

// IsBlank scans every pixel of the surface and reports whether all of them
// are opaque white. The scan is linear in the surface area and meant to run
// on demand, not per frame.
func (s *Surface) IsBlank() bool {
	for _, v := range s.img.Pix {
		if v != 0xff {
			return false
		}
	}
	return true
}

// Resize reinitializes the surface to a blank state at the new dimensions.
func (s *Surface) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.width, s.height = width, height
	s.img = image.NewNRGBA(image.Rect(0, 0, width, height))
	s.Clear()
}

// ToPixel maps a display-space coordinate to a surface pixel coordinate,
// applying the per-axis scale factor between the intrinsic pixel grid and the
// on-screen displayed dimensions. The mapping fails when the displayed
// dimensions are not positive or the result falls outside the surface.
func (s *Surface) ToPixel(x, y, dispW, dispH float64) (image.Point, bool) {
	if dispW <= 0 || dispH <= 0 {
		return image.Point{}, false
	}
	px := int(x * float64(s.width) / dispW)
	py := int(y * float64(s.height) / dispH)

	if px < 0 || px >= s.width || py < 0 || py >= s.height {
		return image.Point{}, false
	}
	return image.Pt(px, py), true
}

// ReadPixels returns a copy of the whole pixel buffer as a flat RGBA byte
// slice, four bytes per pixel in row-major order.
func (s *Surface) ReadPixels() []uint8 {
	pix := make([]uint8, len(s.img.Pix))
	copy(pix, s.img.Pix)

	return pix
}

// WritePixels commits a previously read and mutated pixel buffer back to the
// surface in a single bulk write. A buffer of mismatched length is ignored.
func (s *Surface) WritePixels(pix []uint8) {
	if len(pix) != len(s.img.Pix) {
		return
	}
	copy(s.img.Pix, pix)
}

// SetImage draws the decoded image scaled to exactly fill the surface,
// replacing the prior contents.
func (s *Surface) SetImage(img image.Image) {
	if img == nil {
		return
	}
	if bounds := img.Bounds(); bounds.Dx() != s.width || bounds.Dy() != s.height {
		img = imaging.Resize(img, s.width, s.height, imaging.Lanczos)
	}
	draw.Draw(s.img, s.img.Bounds(), img, img.Bounds().Min, draw.Src)
}

// Snapshot returns a deep copy of the current surface contents.
func (s *Surface) Snapshot() *image.NRGBA {
	dst := image.NewNRGBA(s.img.Bounds())
	copy(dst.Pix, s.img.Pix)

	return dst
}

// EncodePNG writes the current surface contents to w as an encoded PNG stream.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}
