package mugshot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// splitFrame returns a 640x480 frame, red on the left half and blue on the right one.
func splitFrame() *image.NRGBA {
	img := uniformFrame(640, 480, blue)
	for y := 0; y < 480; y++ {
		for x := 0; x < 320; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	return img
}

type sliceSource struct {
	frames []image.Image
	reads  int
}

func (s *sliceSource) Frame(i int) (image.Image, error) {
	s.reads++
	if i >= len(s.frames) {
		return nil, io.EOF
	}
	return s.frames[i], nil
}

func (s *sliceSource) Count() int           { return len(s.frames) }
func (s *sliceSource) IsRandomAccess() bool { return true }

// repeat builds a source serving n copies of the frame.
func repeat(frame image.Image, n int) *sliceSource {
	src := &sliceSource{}
	for i := 0; i < n; i++ {
		src.frames = append(src.frames, frame)
	}
	return src
}

// scriptDetector returns the faces scripted for each call, or a centered face
// when the script is exhausted.
type scriptDetector struct {
	script [][]FaceModel
	calls  int
	panics bool
}

func (d *scriptDetector) WindowSize() image.Point { return image.Pt(24, 24) }

func (d *scriptDetector) Detect(_ *Planar, padded PaddedImage, _ Mat3) ([]FaceModel, error) {
	if d.panics {
		panic("detector crashed")
	}
	call := d.calls
	d.calls++
	if call < len(d.script) {
		return d.script[call], nil
	}
	return []FaceModel{centeredFace()}, nil
}

type recordingSink struct {
	frames []image.Image
	closed bool
}

func (s *recordingSink) Show(img image.Image) bool {
	s.frames = append(s.frames, img)
	return !s.closed
}

func poolOf(det Detector) *Pool {
	return NewPool(func() (Detector, error) { return det, nil })
}

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func outBuffer(opts Options) []byte {
	return bytes.Repeat([]byte{7}, opts.Width*opts.Height*3)
}

func TestSession_ShouldCommitFromUnmirroredFrame(t *testing.T) {
	assert := assert.New(t)

	opts := quietOptions()
	out := outBuffer(opts)
	sink := &recordingSink{}

	res, err := NewSession(poolOf(&scriptDetector{}), opts).Capture(repeat(splitFrame(), 50), sink, out)
	assert.NoError(err)
	assert.Equal(ResultSuccess, res.Code)
	assert.Equal(DefaultThreshold, res.Frames)
	assert.Equal(image.Rect(190, 67, 450, 413), res.Crop)
	assert.Equal(image.Pt(480, 640), res.Image.Bounds().Size())

	// the left edge of the mugshot comes from the red half of the source frame
	left := (320*opts.Width + 0) * 3
	assert.Equal([]byte{0, 0, 255}, out[left:left+3])
	right := (320*opts.Width + opts.Width - 1) * 3
	assert.Equal([]byte{255, 0, 0}, out[right:right+3])

	// the viewfinder shows the mirrored frame
	assert.Len(sink.frames, DefaultThreshold)
	view := sink.frames[0].(*image.NRGBA)
	assert.Equal(blue, view.NRGBAAt(10, 10))
	assert.Equal(red, view.NRGBAAt(630, 10))
}

func TestSession_ShouldResetStreakOnRejection(t *testing.T) {
	assert := assert.New(t)

	script := make([][]FaceModel, 0, 11)
	for i := 0; i < 10; i++ {
		script = append(script, []FaceModel{centeredFace()})
	}
	script = append(script, nil)

	var infos []FrameInfo
	opts := quietOptions()
	opts.OnFrame = func(fi FrameInfo) { infos = append(infos, fi) }

	res, err := NewSession(poolOf(&scriptDetector{script: script}), opts).
		Capture(repeat(splitFrame(), 100), nil, outBuffer(opts))
	assert.NoError(err)
	assert.Equal(ResultSuccess, res.Code)
	assert.Equal(22, res.Frames)

	assert.Len(infos, 22)
	assert.Equal(10, infos[9].Streak)
	assert.Equal(NoFace, infos[10].Reason)
	assert.Equal(0, infos[10].Streak)
	assert.Equal(Committed, infos[21].State)
}

func TestSession_ShouldNotResetStreakOnEmptyFrames(t *testing.T) {
	frame := splitFrame()
	src := &sliceSource{}
	for i := 0; i < 12; i++ {
		if i == 5 {
			src.frames = append(src.frames, nil)
			continue
		}
		src.frames = append(src.frames, frame)
	}

	opts := quietOptions()
	res, err := NewSession(poolOf(&scriptDetector{}), opts).Capture(src, nil, outBuffer(opts))
	assert.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Code)
	assert.Equal(t, 12, res.Frames)
}

func TestSession_ShouldTimeOutWithoutTouchingOutput(t *testing.T) {
	assert := assert.New(t)

	opts := quietOptions()
	opts.MaxFrames = 5
	out := outBuffer(opts)

	src := repeat(splitFrame(), 50)
	res, err := NewSession(poolOf(&scriptDetector{}), opts).Capture(src, nil, out)
	assert.NoError(err)
	assert.Equal(ResultTimeout, res.Code)
	assert.Equal(5, res.Frames)
	assert.Equal(5, src.reads)
	assert.Equal(outBuffer(opts), out)

	// a finite source running dry also times out
	opts.MaxFrames = 100
	res, err = NewSession(poolOf(&scriptDetector{}), opts).Capture(repeat(splitFrame(), 3), nil, out)
	assert.NoError(err)
	assert.Equal(ResultTimeout, res.Code)
	assert.Equal(outBuffer(opts), out)
}

func TestSession_ShouldTimeOutWhenNoFaceIsFound(t *testing.T) {
	assert := assert.New(t)

	var infos []FrameInfo
	opts := quietOptions()
	opts.MaxFrames = 5
	opts.OnFrame = func(fi FrameInfo) { infos = append(infos, fi) }
	out := outBuffer(opts)

	det := &scriptDetector{script: make([][]FaceModel, 5)}
	res, err := NewSession(poolOf(det), opts).Capture(repeat(splitFrame(), 50), nil, out)
	assert.NoError(err)
	assert.Equal(ResultTimeout, res.Code)
	assert.Equal(5, res.Frames)
	assert.Equal(outBuffer(opts), out)

	assert.Len(infos, 5)
	for _, fi := range infos {
		assert.Equal(NoFace, fi.Reason)
		assert.Equal(0, fi.Streak)
	}
	assert.Equal(TimedOut, infos[4].State)
}

func TestSession_ShouldReportConfigErrorsBeforeReadingFrames(t *testing.T) {
	assert := assert.New(t)

	opts := quietOptions()
	src := repeat(splitFrame(), 10)
	pool := NewPool(func() (Detector, error) {
		return nil, errors.New("face-detector: no such file")
	})

	assert.Equal(ResultConfigError, TakeMugshot(src, nil, opts, pool, outBuffer(opts)))
	assert.Equal(0, src.reads)

	// malformed output buffer
	code := TakeMugshot(src, nil, opts, poolOf(&scriptDetector{}), make([]byte, 10))
	assert.Equal(ResultConfigError, code)
	assert.Equal(0, src.reads)

	opts.Width = 0
	code = TakeMugshot(src, nil, opts, poolOf(&scriptDetector{}), nil)
	assert.Equal(ResultConfigError, code)
}

func TestSession_ShouldOnlyInitializeWithZeroFrames(t *testing.T) {
	assert := assert.New(t)

	built := 0
	pool := NewPool(func() (Detector, error) {
		built++
		return &scriptDetector{}, nil
	})

	opts := quietOptions()
	opts.MaxFrames = 0
	out := outBuffer(opts)
	src := repeat(splitFrame(), 10)

	assert.Equal(ResultSuccess, TakeMugshot(src, nil, opts, pool, out))
	assert.Equal(1, built)
	assert.Equal(0, src.reads)
	assert.Equal(outBuffer(opts), out)

	// the initialized detector is reused by the following capture
	opts.MaxFrames = 100
	assert.Equal(ResultSuccess, TakeMugshot(repeat(splitFrame(), 50), nil, opts, pool, out))
	assert.Equal(1, built)
}

func TestSession_ShouldRecoverFromFaults(t *testing.T) {
	assert := assert.New(t)

	opts := quietOptions()
	out := outBuffer(opts)

	code := TakeMugshot(repeat(splitFrame(), 10), nil, opts, poolOf(&scriptDetector{panics: true}), out)
	assert.Equal(ResultFailure, code)
	assert.Equal(outBuffer(opts), out)

	src := &failingSource{}
	code = TakeMugshot(src, nil, opts, poolOf(&scriptDetector{}), out)
	assert.Equal(ResultFailure, code)
	assert.Equal(outBuffer(opts), out)
}

type failingSource struct{}

func (failingSource) Frame(int) (image.Image, error) { return nil, errors.New("device unplugged") }
func (failingSource) Count() int                      { return 0 }
func (failingSource) IsRandomAccess() bool            { return false }

func TestSession_ShouldStopShowingClosedSink(t *testing.T) {
	opts := quietOptions()
	sink := &recordingSink{closed: true}

	res, err := NewSession(poolOf(&scriptDetector{}), opts).Capture(repeat(splitFrame(), 50), sink, outBuffer(opts))
	assert.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Code)
	assert.Len(t, sink.frames, 1)
}

func TestSession_RunStreams(t *testing.T) {
	assert := assert.New(t)

	built := make(chan struct{}, 8)
	pool := NewPool(func() (Detector, error) {
		built <- struct{}{}
		return &scriptDetector{}, nil
	})

	opts := quietOptions()
	streams := []Stream{
		{Source: repeat(splitFrame(), 50), Out: outBuffer(opts)},
		{Source: repeat(splitFrame(), 5), Out: outBuffer(opts)},
	}

	codes := RunStreams(pool, opts, streams)
	assert.Equal([]ResultCode{ResultSuccess, ResultTimeout}, codes)
	assert.Len(built, 2)
	assert.Equal(2, pool.Len())
}

func TestSession_ResultCodeString(t *testing.T) {
	assert.Equal(t, "timed out", ResultTimeout.String())
	assert.Equal(t, "result(9)", ResultCode(9).String())
}
