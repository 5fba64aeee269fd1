package doodle

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	testWhite = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	testBlack = color.NRGBA{A: 0xff}
	testBlue  = color.NRGBA{R: 30, G: 144, B: 255, A: 255}
	testRed   = color.NRGBA{R: 229, G: 57, B: 53, A: 255}
)

// newTestImage returns a white NRGBA image of the given size.
func newTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(testWhite), image.Point{}, draw.Src)

	return img
}

// outlineRect draws a one pixel wide black rectangle outline.
func outlineRect(img *image.NRGBA, rect image.Rectangle) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetNRGBA(x, rect.Min.Y, testBlack)
		img.SetNRGBA(x, rect.Max.Y-1, testBlack)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetNRGBA(rect.Min.X, y, testBlack)
		img.SetNRGBA(rect.Max.X-1, y, testBlack)
	}
}

// newTestFiller encodes the image and renders it synchronously onto a surface
// of the same intrinsic size.
func newTestFiller(t *testing.T, img *image.NRGBA) *Filler {
	t.Helper()

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("failed to encode the test image: %v", err)
	}

	bounds := img.Bounds()
	f := NewFiller(NewSurface(bounds.Dx(), bounds.Dy()))
	if err := f.Render(data, nil).Wait(); err != nil {
		t.Fatalf("failed to render the test image: %v", err)
	}
	return f
}

func TestFiller_FillStaysInsideClosedBoundary(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(20, 20)
	outlineRect(img, image.Rect(4, 4, 16, 16))

	f := newTestFiller(t, img)
	f.FillAt(10, 10, 20, 20, testBlue)

	surf := f.Surface().Image()
	assert.Equal(testBlue, surf.NRGBAAt(10, 10))
	assert.Equal(testBlue, surf.NRGBAAt(5, 5))
	assert.Equal(testBlue, surf.NRGBAAt(14, 14))

	// The boundary itself and everything outside it keep their colors.
	assert.Equal(testBlack, surf.NRGBAAt(4, 10))
	assert.Equal(testWhite, surf.NRGBAAt(2, 10))
	assert.Equal(testWhite, surf.NRGBAAt(10, 1))
	assert.Equal(testWhite, surf.NRGBAAt(18, 18))
}

func TestFiller_FillCoversNonConvexRegion(t *testing.T) {
	assert := assert.New(t)

	// A U-shaped region: an enclosed rectangle with a wall descending from the
	// top edge, stopping short of the bottom so both arms stay connected.
	img := newTestImage(30, 20)
	outlineRect(img, image.Rect(2, 2, 28, 18))
	for y := 2; y < 14; y++ {
		img.SetNRGBA(15, y, testBlack)
	}

	f := newTestFiller(t, img)
	f.FillAt(5, 5, 30, 20, testRed)

	surf := f.Surface().Image()
	// Both arms of the U get colored, including around the bend.
	assert.Equal(testRed, surf.NRGBAAt(5, 5))
	assert.Equal(testRed, surf.NRGBAAt(15, 16))
	assert.Equal(testRed, surf.NRGBAAt(25, 5))

	// The dividing wall and the outside stay untouched.
	assert.Equal(testBlack, surf.NRGBAAt(15, 5))
	assert.Equal(testWhite, surf.NRGBAAt(1, 1))
}

func TestFiller_FillIsIdempotent(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(16, 16)
	outlineRect(img, image.Rect(0, 0, 16, 16))

	f := newTestFiller(t, img)
	f.FillAt(8, 8, 16, 16, testBlue)
	once := f.Surface().ReadPixels()

	var fills int
	f.OnFill = func() { fills++ }
	f.FillAt(8, 8, 16, 16, testBlue)

	assert.Equal(once, f.Surface().ReadPixels())
	assert.Equal(0, fills, "a repeated fill should be a no-op")
}

func TestFiller_ClickOnLinePixelIsNoop(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(16, 16)
	outlineRect(img, image.Rect(4, 4, 12, 12))

	f := newTestFiller(t, img)
	before := f.Surface().ReadPixels()

	var fills int
	f.OnFill = func() { fills++ }
	f.FillAt(4, 8, 16, 16, testBlue)

	assert.Equal(before, f.Surface().ReadPixels())
	assert.Equal(0, fills)
}

func TestFiller_ToleranceAbsorbsAntialiasingNoise(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(16, 16)
	outlineRect(img, image.Rect(0, 0, 16, 16))

	// A slightly off-white pixel inside the region, within the tolerance of
	// the white seed, joins the fill instead of splitting the region.
	near := color.NRGBA{R: 0xff - FillTolerance, G: 0xff, B: 0xff - FillTolerance, A: 0xff}
	for y := 1; y < 15; y++ {
		img.SetNRGBA(8, y, near)
	}

	f := newTestFiller(t, img)
	f.FillAt(4, 8, 16, 16, testBlue)

	surf := f.Surface().Image()
	assert.Equal(testBlue, surf.NRGBAAt(4, 8))
	assert.Equal(testBlue, surf.NRGBAAt(8, 8), "a near-seed pixel should be part of the region")
	assert.Equal(testBlue, surf.NRGBAAt(12, 8), "the fill should continue past a near-seed pixel")
}

func TestFiller_OutOfToleranceActsAsBoundary(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(16, 8)
	outlineRect(img, image.Rect(0, 0, 16, 8))

	// A bright green column splits the region. It is not dark enough to be a
	// line pixel, but it differs from the white seed beyond the tolerance, so
	// the fill must not expand past it.
	for y := 1; y < 7; y++ {
		img.SetNRGBA(8, y, color.NRGBA{R: 0x90, G: 0xff, B: 0x90, A: 0xff})
	}

	f := newTestFiller(t, img)
	f.FillAt(4, 4, 16, 8, testBlue)

	surf := f.Surface().Image()
	assert.Equal(testBlue, surf.NRGBAAt(4, 4))
	assert.Equal(color.NRGBA{R: 0x90, G: 0xff, B: 0x90, A: 0xff}, surf.NRGBAAt(8, 4))
	assert.Equal(testWhite, surf.NRGBAAt(12, 4), "the fill should not leak across an out-of-tolerance pixel")
}

func TestFiller_ResetRestoresOriginalLineArt(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(20, 20)
	outlineRect(img, image.Rect(4, 4, 16, 16))

	f := newTestFiller(t, img)
	original := f.Surface().ReadPixels()

	f.FillAt(10, 10, 20, 20, testBlue)
	f.FillAt(1, 1, 20, 20, testRed)
	assert.NotEqual(original, f.Surface().ReadPixels())

	assert.NoError(f.Reset().Wait())
	assert.Equal(original, f.Surface().ReadPixels())
}

func TestFiller_FillOnUnreadySurfaceIsNoop(t *testing.T) {
	assert := assert.New(t)

	f := NewFiller(NewSurface(10, 10))
	f.FillAt(5, 5, 10, 10, testBlue)

	assert.False(f.Ready())
	assert.True(f.Surface().IsBlank())
}

func TestFiller_UnmappedClickIsNoop(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(10, 10)
	f := newTestFiller(t, img)
	before := f.Surface().ReadPixels()

	// Degenerate display size and a point outside the surface are both dropped.
	f.FillAt(5, 5, 0, 0, testBlue)
	f.FillAt(50, 5, 10, 10, testBlue)

	assert.Equal(before, f.Surface().ReadPixels())
}

func TestFiller_SupersededRenderNeverLands(t *testing.T) {
	assert := assert.New(t)

	first, err := EncodePNG(newTestImage(10, 10))
	assert.NoError(err)

	second := newTestImage(10, 10)
	draw.Draw(second, second.Bounds(), image.NewUniform(testRed), image.Point{}, draw.Src)
	secondData, err := EncodePNG(second)
	assert.NoError(err)

	f := NewFiller(NewSurface(10, 10))
	opA := f.Render(first, nil)
	opB := f.Render(secondData, nil)

	opA.Wait()
	assert.NoError(opB.Wait())
	assert.Equal(testRed, f.Surface().Image().NRGBAAt(5, 5))
}

func TestFiller_DecodeFailureSkipsSurfaceUpdate(t *testing.T) {
	assert := assert.New(t)

	f := NewFiller(NewSurface(10, 10))
	err := f.Render([]byte("not an image"), nil).Wait()

	assert.Error(err)
	assert.False(f.Ready())
	assert.True(f.Surface().IsBlank())
}

func TestFiller_OverrideTakesPrecedenceButResetUsesLineArt(t *testing.T) {
	assert := assert.New(t)

	lineArt := newTestImage(10, 10)
	outlineRect(lineArt, image.Rect(0, 0, 10, 10))
	lineArtData, err := EncodePNG(lineArt)
	assert.NoError(err)

	colored := newTestImage(10, 10)
	outlineRect(colored, image.Rect(0, 0, 10, 10))
	draw.Draw(colored, image.Rect(1, 1, 9, 9), image.NewUniform(testBlue), image.Point{}, draw.Src)
	coloredData, err := EncodePNG(colored)
	assert.NoError(err)

	f := NewFiller(NewSurface(10, 10))
	assert.NoError(f.Render(lineArtData, coloredData).Wait())
	assert.Equal(testBlue, f.Surface().Image().NRGBAAt(5, 5))

	// Reset drops the previously colored state and restores the line art.
	assert.NoError(f.Reset().Wait())
	assert.Equal(testWhite, f.Surface().Image().NRGBAAt(5, 5))
}

func TestFiller_SnapshotIsSafeDuringRender(t *testing.T) {
	assert := assert.New(t)

	// A large payload keeps the decode goroutine busy while the reader loop
	// below blits the surface, the way the window frame loop does.
	data, err := EncodePNG(newTestImage(1200, 1200))
	assert.NoError(err)

	f := NewFiller(NewSurface(1200, 1200))
	op := f.Render(data, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			img := f.Snapshot()
			_ = img.Pix[len(img.Pix)-1]

			select {
			case <-op.Done():
				return
			default:
			}
		}
	}()

	assert.NoError(op.Wait())
	<-done
	assert.Equal(testWhite, f.Snapshot().NRGBAAt(600, 600))
}

func TestFiller_OnFillMayReenterTheFiller(t *testing.T) {
	assert := assert.New(t)

	img := newTestImage(12, 12)
	outlineRect(img, image.Rect(0, 0, 12, 12))
	f := newTestFiller(t, img)

	// The callback calling back into the filler must not deadlock.
	var ready bool
	f.OnFill = func() {
		ready = f.Ready()
	}
	f.FillAt(6, 6, 12, 12, testBlue)

	assert.True(ready)
	assert.Equal(testBlue, f.Surface().Image().NRGBAAt(6, 6))
}

func TestFloodFill_VisitsEveryPixelOnce(t *testing.T) {
	// A blank surface fill touches every pixel; the visited bitset keeps the
	// traversal linear, so this completes quickly even at page resolution.
	img := newTestImage(400, 400)
	f := newTestFiller(t, img)

	f.FillAt(200, 200, 400, 400, testBlue)

	surf := f.Surface().Image()
	for _, pt := range []image.Point{{0, 0}, {399, 0}, {0, 399}, {399, 399}, {200, 200}} {
		if got := surf.NRGBAAt(pt.X, pt.Y); got != testBlue {
			t.Fatalf("pixel %v expected to be filled, got %v", pt, got)
		}
	}
}
