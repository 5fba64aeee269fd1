/*
Package doodle is an interactive sketch and coloring engine. It captures freehand
pointer strokes into a raster surface and fills enclosed regions of a line-art
image with flat colors on click, treating dark pixels as impassable boundaries,
the same way a classic paint-bucket tool does.

The package provides a command line interface for batch coloring operations and
an optional Gio based window for interactive drawing. To check the supported commands type:

	$ doodle --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"image/color"
		"os"

		"github.com/esimov/doodle"
	)

	func main() {
		surf := doodle.NewSurface(800, 800)
		filler := doodle.NewFiller(surf)

		lineArt, _ := os.ReadFile("page.png")
		if err := filler.Render(lineArt, nil).Wait(); err != nil {
			fmt.Printf("Error rendering the line art: %s", err.Error())
		}
		filler.FillAt(120, 96, 800, 800, color.NRGBA{R: 30, G: 144, B: 255, A: 255})
	}
*/
package doodle
