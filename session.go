package mugshot

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
)

// FrameSource provides the frames of a video stream. Frame returns a nil image
// for an empty frame and io.EOF once a finite source has been exhausted.
type FrameSource interface {
	Frame(i int) (image.Image, error)
	Count() int
	IsRandomAccess() bool
}

// FrameSink displays the annotated viewfinder frames. Show returns false
// when the sink can no longer display frames.
type FrameSink interface {
	Show(img image.Image) bool
}

// Detector finds faces and their landmarks. The detection runs on the planar image,
// the landmarks are regressed on the padded image and the returned faces are expressed
// in regression coordinates, hdr mapping detection coordinates into regression ones.
type Detector interface {
	WindowSize() image.Point
	Detect(planar *Planar, padded PaddedImage, hdr Mat3) ([]FaceModel, error)
}

// ResultCode is the outcome of a capture.
type ResultCode int

// Capture outcomes.
const (
	ResultSuccess ResultCode = iota
	ResultConfigError
	ResultTimeout
	ResultFailure
)

func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultConfigError:
		return "configuration error"
	case ResultTimeout:
		return "timed out"
	case ResultFailure:
		return "failure"
	}
	return fmt.Sprintf("result(%d)", int(c))
}

// FrameInfo describes the evaluation of a single frame.
type FrameInfo struct {
	Index    int
	Empty    bool
	Faces    int
	Accepted bool
	Reason   RejectReason
	Streak   int
	State    State
}

// Options configures a capture session.
type Options struct {
	// Width and Height are the dimensions of the output mugshot.
	Width  int
	Height int

	// MaxFrames is the frame budget. Zero only initializes the worker's detector.
	MaxFrames int

	// Threshold is the number of consecutive qualifying frames needed to commit.
	Threshold int

	// TargetWidth is the width of the detection image. When it is not positive the
	// width is derived from MinFaceWidth, the smallest face width in source pixels
	// worth detecting. When both are unset detection runs at the source resolution.
	TargetWidth  int
	MinFaceWidth int

	// Worker identifies the detector instance used by the session.
	Worker int

	// Debug draws the candidate crop outline on the viewfinder.
	Debug bool

	Logger  *slog.Logger
	OnFrame func(FrameInfo)
}

// DefaultOptions returns the options of a 480x640 portrait capture
// with a budget of 900 frames.
func DefaultOptions() Options {
	return Options{
		Width:     480,
		Height:    640,
		MaxFrames: 900,
		Threshold: DefaultThreshold,
	}
}

// Result holds the outcome of a capture.
type Result struct {
	Code   ResultCode
	Frames int
	Crop   image.Rectangle
	Image  *image.NRGBA
}

// Session runs the capture loop of a single stream.
type Session struct {
	opts Options
	pool *Pool
	log  *slog.Logger
}

// NewSession creates a capture session drawing its detector from pool.
func NewSession(pool *Pool, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		opts: opts,
		pool: pool,
		log:  logger.With("worker", opts.Worker),
	}
}

func (s *Session) validate(out []byte) error {
	o := s.opts
	if o.Width <= 0 || o.Height <= 0 {
		return &ConfigError{Op: "output", Err: fmt.Errorf("invalid output size %dx%d", o.Width, o.Height)}
	}
	if want := o.Width * o.Height * 3; len(out) != want {
		return &ConfigError{Op: "output", Err: fmt.Errorf("output buffer holds %d bytes, expected %d", len(out), want)}
	}
	if o.MaxFrames < 0 {
		return &ConfigError{Op: "capture", Err: fmt.Errorf("negative frame budget %d", o.MaxFrames)}
	}
	if s.pool == nil {
		return &ConfigError{Op: "detector", Err: errors.New("no detector pool")}
	}
	return nil
}

// Capture runs the capture loop until a mugshot is committed or the frame budget
// is exhausted. The output buffer receives the mugshot as packed BGR and is
// left untouched unless the returned code is ResultSuccess.
func (s *Session) Capture(src FrameSource, sink FrameSink, out []byte) (Result, error) {
	if err := s.validate(out); err != nil {
		return Result{Code: ResultConfigError}, err
	}

	det, err := s.pool.Get(s.opts.Worker)
	if err != nil {
		return Result{Code: ResultConfigError}, err
	}
	if s.opts.MaxFrames == 0 {
		s.log.Debug("detector initialized")
		return Result{Code: ResultSuccess}, nil
	}
	if src == nil {
		return Result{Code: ResultConfigError}, &ConfigError{Op: "source", Err: errors.New("no frame source")}
	}

	streak := NewStreak(s.opts.Threshold, s.opts.MaxFrames)

	for i := 0; streak.State() == Waiting; i++ {
		streak.Tick()

		frame, err := src.Frame(i)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("frame source exhausted", "frames", streak.Frames())
				return Result{Code: ResultTimeout, Frames: streak.Frames()}, nil
			}
			return Result{Code: ResultFailure, Frames: streak.Frames()}, fmt.Errorf("reading frame %d: %w", i, err)
		}
		if frame == nil || frame.Bounds().Empty() {
			s.log.Debug("empty frame", "index", i)
			s.notify(FrameInfo{Index: i, Empty: true, Streak: streak.Count(), State: streak.Settle()})
			// An empty frame spends budget but bridges the streak; only a rejected face resets it.
			continue
		}

		canvas, res, err := s.process(det, frame, i, streak)
		if err != nil {
			return Result{Code: ResultFailure, Frames: streak.Frames()}, err
		}
		if sink != nil && !sink.Show(canvas) {
			s.log.Debug("frame sink closed", "index", i)
			sink = nil
		}
		if res != nil {
			fillBGR(res.Image, out)
			s.log.Info("mugshot committed", "frame", i, "crop", res.Crop)
			return *res, nil
		}
	}

	s.log.Info("capture timed out", "frames", streak.Frames())
	return Result{Code: ResultTimeout, Frames: streak.Frames()}, nil
}

// process evaluates a single non empty frame and returns its annotated viewfinder
// canvas. The result is non nil when the frame commits the capture.
func (s *Session) process(det Detector, frame image.Image, i int, streak *Streak) (*image.NRGBA, *Result, error) {
	img := imgToNRGBA(frame)
	bounds := img.Bounds()

	target := s.opts.TargetWidth
	if target <= 0 {
		target = DetectionWidth(bounds.Dx(), det.WindowSize(), s.opts.MinFaceWidth)
	}

	resizer, err := NewResizer(img, det.WindowSize(), target)
	if err != nil {
		return nil, nil, fmt.Errorf("resizing frame %d: %w", i, err)
	}

	faces, err := det.Detect(resizer.Planar(), resizer.Padded(), resizer.DetectorToRegressor())
	if err != nil {
		return nil, nil, fmt.Errorf("detecting faces on frame %d: %w", i, err)
	}
	faces = resizer.MapToFull(faces)

	ok, crop, reason := EvaluateMugshot(faces, bounds)

	// The viewfinder shows the mirrored frame, the faces and the crop stay un-mirrored.
	canvas := imaging.FlipH(img)
	guide := image.Rectangle{}
	if s.opts.Debug {
		guide = crop
	}
	Annotate(canvas, ok, guide)

	state := streak.Update(ok)
	info := FrameInfo{
		Index:    i,
		Faces:    len(faces),
		Accepted: ok,
		Reason:   reason,
		Streak:   streak.Count(),
		State:    state,
	}

	if state == Committed {
		s.notify(info)
		mugshot := imaging.Resize(imaging.Crop(img, crop), s.opts.Width, s.opts.Height, imaging.Linear)
		return canvas, &Result{
			Code:   ResultSuccess,
			Frames: streak.Frames(),
			Crop:   crop,
			Image:  mugshot,
		}, nil
	}

	info.State = streak.Settle()
	s.notify(info)
	s.log.Debug("frame evaluated",
		"index", i,
		"faces", len(faces),
		"accepted", ok,
		"reason", reason.String(),
		"streak", streak.Count(),
	)
	return canvas, nil, nil
}

func (s *Session) notify(info FrameInfo) {
	if s.opts.OnFrame != nil {
		s.opts.OnFrame(info)
	}
}

// TakeMugshot runs a capture session and reports its outcome as a result code.
// Configuration errors are detected before the first frame is read and any
// unexpected fault, panics included, is reported as ResultFailure.
func TakeMugshot(src FrameSource, sink FrameSink, opts Options, pool *Pool, out []byte) (code ResultCode) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("capture aborted", "panic", r)
			code = ResultFailure
		}
	}()

	res, err := NewSession(pool, opts).Capture(src, sink, out)
	if err != nil {
		if IsConfigError(err) {
			logger.Error("invalid configuration", "err", err)
			return ResultConfigError
		}
		logger.Error("capture failed", "err", err)
		return ResultFailure
	}
	return res.Code
}

// Stream bundles the input, display and output of one capture.
type Stream struct {
	Source FrameSource
	Sink   FrameSink
	Out    []byte
}

// RunStreams captures the streams concurrently, each with its own detector
// drawn from pool. The returned codes follow the order of the streams.
func RunStreams(pool *Pool, opts Options, streams []Stream) []ResultCode {
	var wg sync.WaitGroup
	codes := make([]ResultCode, len(streams))

	wg.Add(len(streams))
	for i, st := range streams {
		go func(i int, st Stream) {
			defer wg.Done()

			o := opts
			o.Worker = i
			codes[i] = TakeMugshot(st.Source, st.Sink, o, pool, st.Out)
		}(i, st)
	}
	wg.Wait()

	return codes
}
