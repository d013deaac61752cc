// Package preview shows the capture viewfinder in a Gio window.
package preview

import (
	"image"
	"math"
	"sync"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/esimov/mugshot"
)

const (
	MaxScreenX = 1366
	MaxScreenY = 768
)

// Window is a frame sink displaying the latest viewfinder frame.
// Frames arriving faster than the window redraws are dropped.
type Window struct {
	title  string
	width  float64
	height float64

	frames chan image.Image
	done   chan struct{}
	closed chan struct{}

	closeOnce sync.Once
	doneOnce  sync.Once
}

var _ mugshot.FrameSink = (*Window)(nil)

// New prepares a preview window for frames of the given size.
// The window opens when Run is called.
func New(title string, width, height int) *Window {
	w, h := fitScreen(width, height)
	return &Window{
		title:  title,
		width:  w,
		height: h,
		frames: make(chan image.Image, 1),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// fitScreen retains the aspect ratio in case the frame is larger than the predefined window.
func fitScreen(width, height int) (float64, float64) {
	w, h := float64(width), float64(height)
	if width > MaxScreenX || height > MaxScreenY {
		ratio := math.Min(float64(MaxScreenX)/w, float64(MaxScreenY)/h)
		w *= ratio
		h *= ratio
	}
	return w, h
}

// Show queues img for display. It returns false once the window is closed.
func (win *Window) Show(img image.Image) bool {
	select {
	case <-win.closed:
		return false
	default:
	}

	// Replace the pending frame, if any.
	select {
	case <-win.frames:
	default:
	}
	select {
	case win.frames <- img:
	default:
	}
	return true
}

// Close asks the window to close. Run returns afterwards.
func (win *Window) Close() {
	win.doneOnce.Do(func() { close(win.done) })
}

// Closed is closed once the window has been destroyed.
func (win *Window) Closed() <-chan struct{} { return win.closed }

func (win *Window) markClosed() {
	win.closeOnce.Do(func() { close(win.closed) })
}

// Run opens the window and runs its event loop until a DestroyEvent
// or an ESC key event is captured, or Close is called.
func (win *Window) Run() error {
	defer win.markClosed()

	w := app.NewWindow(
		app.Title(win.title),
		app.Size(unit.Dp(float32(win.width)), unit.Dp(float32(win.height))),
	)

	var (
		ops op.Ops
		img image.Image
	)
	done := win.done
	for {
		select {
		case e := <-w.Events():
			switch e := e.(type) {
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				if img != nil {
					src := paint.NewImageOp(img)
					src.Add(gtx.Ops)

					widget.Image{
						Src:   src,
						Scale: 1 / float32(gtx.Dp(unit.Dp(1))),
						Fit:   widget.Contain,
					}.Layout(gtx)
				}
				e.Frame(gtx.Ops)
			case key.Event:
				if e.Name == key.NameEscape {
					w.Close()
				}
			case system.DestroyEvent:
				return e.Err
			}
		case img = <-win.frames:
			w.Invalidate()
		case <-done:
			done = nil
			w.Close()
		}
	}
}
