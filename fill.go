package doodle

import (
	"context"
	"image"
	"image/color"
	"sync"
)

// Pixel classification limits of the fill algorithm.
const (
	// LineThreshold is the darkness limit below which all three color
	// channels classify a pixel as a drawn boundary line.
	LineThreshold = 128
	// FillTolerance is the maximum per-channel distance from the seed color
	// for a pixel to join the fillable region. It absorbs the anti-aliasing
	// noise at region edges without leaking the fill across a boundary line.
	FillTolerance = 32
)

// Filler is the region flood-fill engine. It renders an encoded line-art
// image onto its surface and repaints the bounded region around each clicked
// point with a flat color, treating dark pixels as impassable boundaries.
type Filler struct {
	mu      sync.Mutex
	surf    *Surface
	lineArt []byte
	ready   bool
	pending *RenderOp

	// OnFill is invoked after every fill which changed at least one pixel,
	// signaling that the surface contents should be persisted if desired.
	OnFill func()
}

// NewFiller creates a flood-fill engine operating on the surface.
// The surface accepts no fill operations until the first render completes.
func NewFiller(surf *Surface) *Filler {
	return &Filler{surf: surf}
}

// Surface returns the raster surface the filler paints onto.
func (f *Filler) Surface() *Surface { return f.surf }

// Snapshot returns a copy of the surface contents taken under the filler's
// lock. Renderers blitting the surface every frame must read through it, as
// a decode goroutine may still be landing on the backing buffer.
func (f *Filler) Snapshot() *image.NRGBA {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.surf.Snapshot()
}

// Ready reports whether a rendered image is loaded and fills are accepted.
func (f *Filler) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ready
}

// RenderOp tracks an in-flight decode-and-draw operation.
type RenderOp struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Done returns a channel closed once the operation finished, whether it
// landed on the surface, failed to decode or got canceled.
func (op *RenderOp) Done() <-chan struct{} { return op.done }

// Cancel invalidates the operation. A canceled render never updates the surface.
func (op *RenderOp) Cancel() { op.cancel() }

// Wait blocks until the operation finished and returns its error, if any.
func (op *RenderOp) Wait() error {
	<-op.done
	return op.err
}

// Render decodes the encoded line-art image asynchronously and draws it
// scaled onto the whole surface, replacing the prior contents. When override
// is non-empty it is rendered instead of the line art, which is still
// retained as the target of a later Reset. Issuing a new render cancels the
// one still in flight, so a stale image can never land after a newer one.
// A failed decode simply skips the surface update.
func (f *Filler) Render(lineArt, override []byte) *RenderOp {
	ctx, cancel := context.WithCancel(context.Background())
	op := &RenderOp{done: make(chan struct{}), cancel: cancel}

	f.mu.Lock()
	f.lineArt = lineArt
	prev := f.pending
	f.pending = op
	f.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	encoded := lineArt
	if len(override) > 0 {
		encoded = override
	}

	go func() {
		defer close(op.done)

		img, err := DecodeImage(encoded)
		if err != nil {
			op.err = err
			return
		}
		if err := ctx.Err(); err != nil {
			op.err = err
			return
		}

		f.mu.Lock()
		// A superseded render must not overwrite the newer image.
		if f.pending == op {
			f.surf.SetImage(img)
			f.ready = true
		}
		f.mu.Unlock()
	}()

	return op
}

// Reset re-decodes and re-renders the original line-art image, discarding
// every fill operation performed so far.
func (f *Filler) Reset() *RenderOp {
	f.mu.Lock()
	lineArt := f.lineArt
	f.mu.Unlock()

	return f.Render(lineArt, nil)
}

// FillAt maps the display-space click coordinate to the surface pixel grid
// and repaints the bounded region containing it with the fill color. The
// whole pixel buffer is read once, mutated in memory and committed back in a
// single bulk write. Clicks on an unready surface, on a boundary line or on
// an already filled region quietly do nothing. The OnFill callback runs
// after the filler's lock is released, so it may call back into the filler.
func (f *Filler) FillAt(x, y, dispW, dispH float64, fill color.NRGBA) {
	f.mu.Lock()

	if !f.ready {
		f.mu.Unlock()
		return
	}
	seed, ok := f.surf.ToPixel(x, y, dispW, dispH)
	if !ok {
		f.mu.Unlock()
		return
	}

	pix := f.surf.ReadPixels()
	if !floodFill(pix, f.surf.width, f.surf.height, seed, fill) {
		f.mu.Unlock()
		return
	}
	f.surf.WritePixels(pix)
	onFill := f.OnFill
	f.mu.Unlock()

	if onFill != nil {
		onFill()
	}
}

// floodFill repaints the 4-connected region around the seed with the fill
// color and reports whether any pixel changed. Region membership is decided
// against the seed color within the per-channel tolerance; line-classified
// pixels are hard boundaries and are never colored or expanded past. A
// visited bitset guarantees every pixel is enqueued at most once.
func floodFill(pix []uint8, w, h int, seed image.Point, fill color.NRGBA) bool {
	off := (seed.Y*w + seed.X) * 4
	sr, sg, sb := pix[off], pix[off+1], pix[off+2]

	// Filling a boundary line or re-filling an already matching region is a no-op.
	if isLinePixel(sr, sg, sb) {
		return false
	}
	if sr == fill.R && sg == fill.G && sb == fill.B {
		return false
	}

	visited := make([]uint8, (w*h+7)/8)
	mark := func(i int) { visited[i>>3] |= 1 << (uint(i) & 7) }
	seen := func(i int) bool { return visited[i>>3]&(1<<(uint(i)&7)) != 0 }

	start := seed.Y*w + seed.X
	queue := make([]int, 0, 1024)
	queue = append(queue, start)
	mark(start)

	var changed bool
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		off := i * 4
		r, g, b := pix[off], pix[off+1], pix[off+2]

		if isLinePixel(r, g, b) {
			continue
		}
		if !withinTolerance(r, sr) || !withinTolerance(g, sg) || !withinTolerance(b, sb) {
			continue
		}

		// A pixel already holding the target color still expands to its
		// neighbors, otherwise same-colored patches inside the region would
		// shadow the pixels behind them.
		if r != fill.R || g != fill.G || b != fill.B {
			pix[off+0] = fill.R
			pix[off+1] = fill.G
			pix[off+2] = fill.B
			pix[off+3] = fill.A
			changed = true
		}

		x, y := i%w, i/w
		if x > 0 && !seen(i-1) {
			mark(i - 1)
			queue = append(queue, i-1)
		}
		if x < w-1 && !seen(i+1) {
			mark(i + 1)
			queue = append(queue, i+1)
		}
		if y > 0 && !seen(i-w) {
			mark(i - w)
			queue = append(queue, i-w)
		}
		if y < h-1 && !seen(i+w) {
			mark(i + w)
			queue = append(queue, i+w)
		}
	}
	return changed
}

// isLinePixel classifies a pixel as a drawn boundary when all three color
// channels fall below the darkness threshold.
func isLinePixel(r, g, b uint8) bool {
	return r < LineThreshold && g < LineThreshold && b < LineThreshold
}

// withinTolerance reports whether two channel values differ by at most the
// fill tolerance.
func withinTolerance(a, b uint8) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= FillTolerance
}
