package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gioui.org/app"
	"github.com/disintegration/imaging"
	"github.com/esimov/mugshot"
	"github.com/esimov/mugshot/config"
	"github.com/esimov/mugshot/preview"
	"github.com/esimov/mugshot/utils"
	"github.com/esimov/mugshot/videoio"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type captureFlags struct {
	inputs    []string
	output    string
	framesDir string
	preview   bool
	debug     bool
	quiet     bool
	camWidth  int
	camHeight int

	maxFrames int
	threshold int
	device    string
}

var capFlags captureFlags

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a mugshot from a webcam or from directories of frames",
	Long: `Capture a mugshot from a webcam or from directories of frames.

Without --input the frames are read from the V4L2 device. Every --input
directory is captured concurrently with its own detector and the mugshots
are saved next to the output file, suffixed by the stream index.`,
	RunE: runCapture,
}

func init() {
	flags := captureCmd.Flags()
	flags.StringSliceVarP(&capFlags.inputs, "input", "i", nil, "Directory of frames, may be repeated")
	flags.StringVarP(&capFlags.output, "output", "o", "mugshot.jpg", "Output image, - for stdout")
	flags.StringVar(&capFlags.framesDir, "frames-dir", "", "Save the annotated viewfinder frames into this directory")
	flags.BoolVarP(&capFlags.preview, "preview", "p", false, "Show the viewfinder in a window")
	flags.BoolVarP(&capFlags.debug, "debug", "d", false, "Outline the candidate crop on the viewfinder")
	flags.BoolVarP(&capFlags.quiet, "quiet", "q", false, "Hide the progress bar")
	flags.IntVar(&capFlags.camWidth, "cam-width", 640, "Requested webcam frame width")
	flags.IntVar(&capFlags.camHeight, "cam-height", 480, "Requested webcam frame height")
	flags.IntVarP(&capFlags.maxFrames, "max-frames", "n", 0, "Frame budget, overrides the settings file")
	flags.IntVarP(&capFlags.threshold, "threshold", "t", 0, "Consecutive qualifying frames needed, overrides the settings file")
	flags.StringVar(&capFlags.device, "device", "", "Webcam device, overrides the settings file")
}

// applyFlags overrides the settings with the flags explicitly set on the command line.
func applyFlags(cmd *cobra.Command, c *config.Capture) {
	flags := cmd.Flags()
	if flags.Changed("max-frames") {
		c.MaxFrames = capFlags.maxFrames
	}
	if flags.Changed("threshold") {
		c.Threshold = capFlags.threshold
	}
	if flags.Changed("device") {
		c.Device = capFlags.device
	}
}

func runCapture(cmd *cobra.Command, args []string) error {
	c, err := loadSettings()
	if err != nil {
		return err
	}
	applyFlags(cmd, c)
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "invalid capture settings")
	}

	ext := strings.ToLower(filepath.Ext(capFlags.output))
	if capFlags.output == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		if len(capFlags.inputs) > 1 {
			return errors.New("stdout can only receive a single mugshot")
		}
	} else if !videoio.Supported(ext) {
		return fmt.Errorf("%v file type not supported", ext)
	}

	assets, err := loadAssets()
	if err != nil {
		return err
	}

	streams, closers, err := openStreams(c)
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()
	if err != nil {
		return err
	}

	pool := newPool(c, assets)
	defer pool.Close()

	if err := warmUp(pool, len(streams)); err != nil {
		return err
	}

	opts := sessionOptions(c, capFlags.debug)
	bar := newProgressBar(c.MaxFrames*len(streams), capFlags.quiet)
	var frames atomic.Int64
	opts.OnFrame = func(info mugshot.FrameInfo) {
		frames.Add(1)
		bar.Describe(fmt.Sprintf("%s streak %d/%d", utils.DecorateText(utils.Prefix, utils.StatusMessage), info.Streak, c.Threshold))
		bar.Add(1)
	}

	var win *preview.Window
	if capFlags.preview && len(streams) == 1 {
		win = preview.New("Mugshot capture", capFlags.camWidth, capFlags.camHeight)
		streams[0].Sink = win
	}

	done := make(chan struct{})
	go watchAbort(cmd.Context(), done, func() {
		bar.Clear()
		fmt.Fprintln(os.Stderr, utils.StatusLine("capture aborted by the user...", "✘", utils.ErrorMessage))
		os.Exit(1)
	})

	run := func() error {
		now := time.Now()
		codes := mugshot.RunStreams(pool, opts, streams)
		close(done)
		bar.Finish()
		fmt.Fprintln(os.Stderr)

		elapsed := time.Since(now)
		return report(streams, codes, c, int(frames.Load()), elapsed)
	}

	if win == nil {
		return run()
	}

	// The Gio event loop must own the main goroutine.
	go func() {
		err := run()
		win.Close()
		<-win.Closed()
		if err != nil {
			fmt.Fprintln(os.Stderr, utils.StatusLine(err.Error(), "✘", utils.ErrorMessage))
			os.Exit(exitCode(err))
		}
		os.Exit(0)
	}()
	go func() {
		if err := win.Run(); err != nil {
			slog.Warn("preview window closed", "err", err)
		}
	}()
	app.Main()
	return nil
}

// watchAbort calls abort if ctx is cancelled while the capture is still running.
// Once done is closed the cancellation belongs to the caller's own shutdown.
func watchAbort(ctx context.Context, done <-chan struct{}, abort func()) {
	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		default:
			abort()
		}
	}
}

// camera is a frame source holding an open device.
type camera interface {
	mugshot.FrameSource
	io.Closer
}

var openCamera = func(device string, width, height int) (camera, error) {
	cam, err := videoio.OpenWebcam(device, width, height)
	if err != nil {
		return nil, err
	}
	return cam, nil
}

// openStreams opens a frame source for every input directory, or the webcam.
func openStreams(c *config.Capture) ([]mugshot.Stream, []io.Closer, error) {
	var (
		streams []mugshot.Stream
		closers []io.Closer
	)
	size := c.Width * c.Height * 3

	if len(capFlags.inputs) == 0 {
		cam, err := openCamera(c.Device, capFlags.camWidth, capFlags.camHeight)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, cam)
		streams = append(streams, mugshot.Stream{Source: cam, Out: make([]byte, size)})
	}
	for _, dir := range capFlags.inputs {
		src, err := videoio.NewDirSource(dir)
		if err != nil {
			return nil, closers, err
		}
		streams = append(streams, mugshot.Stream{Source: src, Out: make([]byte, size)})
	}

	for i := range streams {
		streams[i].Sink = videoio.NopSink{}
		if capFlags.framesDir == "" {
			continue
		}
		dir := capFlags.framesDir
		if len(streams) > 1 {
			dir = filepath.Join(dir, fmt.Sprintf("stream-%d", i))
		}
		sink, err := videoio.NewFileSink(dir, ".jpg", c.Quality)
		if err != nil {
			return nil, closers, err
		}
		streams[i].Sink = sink
	}
	return streams, closers, nil
}

func newProgressBar(max int, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(max))
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(utils.DecorateText(utils.Prefix, utils.StatusMessage)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// captureError carries the result code of a failed capture.
type captureError struct {
	code mugshot.ResultCode
	msg  string
}

func (e *captureError) Error() string { return e.msg }

// exitCode maps a capture error to the process exit status.
func exitCode(err error) int {
	var ce *captureError
	if errors.As(err, &ce) {
		return int(ce.code)
	}
	return 1
}

// report saves the committed mugshots and prints the outcome of every stream.
func report(streams []mugshot.Stream, codes []mugshot.ResultCode, c *config.Capture, frames int, elapsed time.Duration) error {
	var failed *captureError

	for i, code := range codes {
		if code != mugshot.ResultSuccess {
			fmt.Fprintln(os.Stderr, utils.StatusLine(fmt.Sprintf("stream %d: %v", i, code), "✘", utils.ErrorMessage))
			if failed == nil {
				failed = &captureError{code: code, msg: fmt.Sprintf("no mugshot captured: %v", code)}
			}
			continue
		}

		img, err := mugshot.BGRToNRGBA(streams[i].Out, c.Width, c.Height)
		if err != nil {
			return err
		}
		dst := outputPath(capFlags.output, i, len(streams))
		if err := save(img, dst, c.Quality); err != nil {
			return errors.Wrapf(err, "unable to save the mugshot of stream %d", i)
		}
		if dst != pipeName {
			fmt.Fprintf(os.Stderr, "%s %s\n",
				utils.StatusLine("the mugshot has been saved as:", "", utils.DefaultMessage),
				utils.DecorateText(filepath.Base(dst), utils.SuccessMessage),
			)
		}
	}
	fmt.Fprintf(os.Stderr, "\nExecution time: %s (%s)\n",
		utils.DecorateText(utils.FormatTime(elapsed), utils.SuccessMessage),
		utils.FormatRate(frames, elapsed),
	)

	if failed != nil {
		return failed
	}
	return nil
}

// outputPath suffixes the output file with the stream index when several streams run.
func outputPath(output string, i, n int) string {
	if n == 1 || output == pipeName {
		return output
	}
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(output, ext), i, ext)
}

func save(img *image.NRGBA, dst string, quality int) error {
	if dst == pipeName {
		return videoio.Encode(os.Stdout, img, ".jpg", quality)
	}
	return imaging.Save(img, dst, imaging.JPEGQuality(quality))
}
