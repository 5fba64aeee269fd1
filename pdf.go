package doodle

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"
)

// A4 page metrics in millimeters.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	pageMargin = 10.0
)

// ExportPDF writes the image as a single-page A4 PDF, scaled to fit inside
// the page margins while preserving the aspect ratio and centered on the page.
func ExportPDF(w io.Writer, img image.Image) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, bytes.NewReader(data))

	bounds := img.Bounds()
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	scale := math.Min((pageWidth-2*pageMargin)/iw, (pageHeight-2*pageMargin)/ih)
	dw, dh := iw*scale, ih*scale

	pdf.ImageOptions("page", (pageWidth-dw)/2, (pageHeight-dh)/2, dw, dh, false, opts, 0, "")

	if pdf.Err() {
		return fmt.Errorf("could not compose the PDF page: %v", pdf.Error())
	}
	return pdf.Output(w)
}
