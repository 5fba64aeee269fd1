package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/doodle"
	"github.com/esimov/doodle/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌┬┐┌─┐┌─┐┌┬┐┬  ┌─┐
 ││││ ││ │ │││  ├┤
─┴┘└─┘└─┘─┴┘┴─┘└─┘

Sketch and region-fill coloring engine.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Line-art source image")
	destination = flag.String("out", pipeName, "Destination of the colored image")
	fillColor   = flag.String("fill", "#1E90FF", "Fill color as a hex RGB triplet")
	fillX       = flag.Int("x", -1, "Fill point X, in source image pixels")
	fillY       = flag.Int("y", -1, "Fill point Y, in source image pixels")
	gui         = flag.Bool("gui", false, "Open the interactive drawing window")
	sketchW     = flag.Int("width", 800, "Sketch surface width (gui mode)")
	sketchH     = flag.Int("height", 800, "Sketch surface height (gui mode)")
	pdfPath     = flag.String("pdf", "", "Also export the colored page as a PDF file")
	historyPath = flag.String("history", "", "JSON history file to record the colored page into")
	label       = flag.String("label", "", "Recognized label stored with the history entry")

	// spinner used to instantiate and call the progress indicator.
	spinner *utils.Spinner
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("🖌 DOODLE", utils.StatusMessage),
		utils.DecorateText("is coloring the image...", utils.DefaultMessage))
	spinner = utils.NewSpinner(spinnerText, time.Millisecond*200, true)

	lineArt, err := readSource(*source)
	if err != nil && !*gui {
		log.Fatalf(
			utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	if *gui {
		runGUI(lineArt)
		return
	}

	if *fillX < 0 || *fillY < 0 {
		flag.Usage()
		log.Fatal(fmt.Sprintf("%s%s",
			utils.DecorateText("\nPlease provide the -x and -y fill point coordinates!", utils.ErrorMessage),
			utils.DefaultColor,
		))
	}

	// Supported destination files
	validExtensions := []string{".png", ".jpg", ".jpeg", ".bmp"}
	if ext := filepath.Ext(*destination); *destination != pipeName && !utils.Contains(validExtensions, ext) {
		log.Fatalf(utils.DecorateText(fmt.Sprintf("%v file type not supported", ext), utils.ErrorMessage))
	}

	now := time.Now()
	err = colorize(lineArt, *destination)
	printStatus(*destination, err)

	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// colorize renders the line art onto a surface of the same intrinsic size,
// applies the requested fill and writes the result to the destination.
func colorize(lineArt []byte, out string) error {
	img, err := doodle.DecodeImage(lineArt)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	dispW, dispH := float64(bounds.Dx()), float64(bounds.Dy())

	surf := doodle.NewSurface(bounds.Dx(), bounds.Dy())
	filler := doodle.NewFiller(surf)

	// Capture CTRL-C and restore the cursor visibility back.
	sigHandler()
	spinner.Start()

	if err := filler.Render(lineArt, nil).Wait(); err != nil {
		spinner.RestoreCursor()
		return err
	}
	filler.FillAt(float64(*fillX), float64(*fillY), dispW, dispH, utils.HexToRGBA(*fillColor))

	stopMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("🖌 DOODLE", utils.StatusMessage),
		utils.DecorateText("is coloring the image... ✔", utils.DefaultMessage))
	spinner.StopMsg = stopMsg
	spinner.Stop()

	if err := record(filler, lineArt); err != nil {
		return err
	}
	if len(*pdfPath) > 0 {
		if err := exportPDF(filler, *pdfPath); err != nil {
			return err
		}
	}
	return writeResult(filler, out)
}

// runGUI opens the interactive window. With a line-art source the coloring
// mode is usable right away, otherwise only the freehand sketch mode is.
func runGUI(lineArt []byte) {
	sketchSurf := doodle.NewSurface(*sketchW, *sketchH)
	sketcher := doodle.NewSketcher(sketchSurf)

	colorSurf := doodle.NewSurface(*sketchW, *sketchH)
	filler := doodle.NewFiller(colorSurf)

	g := doodle.NewGUI(sketcher, filler)

	if len(lineArt) > 0 {
		filler.Render(lineArt, nil)
		g.SetMode(doodle.ModeColor)

		if len(*historyPath) > 0 {
			history := doodle.NewHistory(*historyPath)
			if err := history.Load(); err != nil {
				log.Fatalf(utils.DecorateText("Unable to load the history file: %v\n", utils.ErrorMessage), err)
			}
			entry := history.Add(*label, nil, lineArt)

			// Persist the colored raster after every successful fill.
			filler.OnFill = func() {
				snapshot, err := doodle.EncodePNG(colorSurf.Snapshot())
				if err != nil {
					return
				}
				history.SetColored(entry.ID, snapshot)
				if err := history.Save(); err != nil {
					log.Printf("Error saving the history: %v", err)
				}
			}
		}
	}

	if err := g.Run(); err != nil {
		log.Fatalf(utils.DecorateText("Error running the window: %v\n", utils.ErrorMessage), err)
	}
	os.Exit(0)
}

// record appends the colored page to the JSON history file, in case one was requested.
func record(filler *doodle.Filler, lineArt []byte) error {
	if len(*historyPath) == 0 {
		return nil
	}
	history := doodle.NewHistory(*historyPath)
	if err := history.Load(); err != nil {
		return err
	}
	entry := history.Add(*label, nil, lineArt)

	snapshot, err := doodle.EncodePNG(filler.Surface().Snapshot())
	if err != nil {
		return err
	}
	history.SetColored(entry.ID, snapshot)

	return history.Save()
}

// exportPDF writes the colored surface as a single page PDF file.
func exportPDF(filler *doodle.Filler, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the PDF file: %v", err)
	}
	defer f.Close()

	return doodle.ExportPDF(f, filler.Surface().Snapshot())
}

// sigHandler captures CTRL-C and restores the cursor visibility back
// before terminating.
func sigHandler() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		spinner.RestoreCursor()
		os.Exit(1)
	}()
}

// readSource reads the encoded line-art image from a file or from stdin when
// the pipe name is used.
func readSource(in string) ([]byte, error) {
	if in == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.ReadAll(os.Stdin)
	}

	ctype, err := utils.DetectFileContentType(in)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(ctype, "image") && !strings.Contains(ctype, "text") {
		return nil, errors.New("the source should be an image file")
	}
	return os.ReadFile(in)
}

// writeResult encodes the colored surface to the destination file or to
// stdout when the pipe name is used.
func writeResult(filler *doodle.Filler, out string) error {
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return doodle.EncodeTo(os.Stdout, filler.Surface().Image(), ".png")
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %v", err)
	}
	defer f.Close()

	return doodle.EncodeTo(f, filler.Surface().Image(), filepath.Ext(out))
}

// printStatus displays the relevant information about the coloring process.
func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr,
			utils.DecorateText("\nError coloring the image: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
		os.Exit(1)
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe colored image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}
