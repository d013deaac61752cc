//go:build linux

package videoio

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/blackjack/webcam"
	"github.com/disintegration/imaging"
	"github.com/esimov/mugshot"
	"github.com/pkg/errors"
)

// V4L2 pixel formats understood by the webcam source.
const (
	formatMJPEG webcam.PixelFormat = 0x47504A4D
	formatYUYV  webcam.PixelFormat = 0x56595559
)

// frameTimeout is the number of seconds to wait for a frame before retrying.
const frameTimeout = 1

// Webcam reads frames from a V4L2 capture device.
type Webcam struct {
	cam    *webcam.Webcam
	format webcam.PixelFormat
	width  int
	height int

	mu     sync.Mutex
	closed bool
}

var _ mugshot.FrameSource = (*Webcam)(nil)

// OpenWebcam opens the device and starts streaming at the requested size.
// The driver may pick the closest supported size.
func OpenWebcam(device string, width, height int) (*Webcam, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, errors.Wrap(err, "can not open device")
	}

	formats := cam.GetSupportedFormats()
	format := formatMJPEG
	if _, ok := formats[format]; !ok {
		format = formatYUYV
		if _, ok := formats[format]; !ok {
			cam.Close()
			return nil, errors.Errorf("device %s supports neither MJPEG nor YUYV", device)
		}
	}

	f, w, h, err := cam.SetImageFormat(format, uint32(width), uint32(height))
	if err != nil {
		cam.Close()
		return nil, errors.Wrap(err, "can not set the image format")
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, errors.Wrap(err, "can not start streaming")
	}
	slog.Debug("webcam streaming", "device", device, "format", formats[f], "width", w, "height", h)

	return &Webcam{cam: cam, format: f, width: int(w), height: int(h)}, nil
}

// Frame blocks until the next frame is available. The index is ignored.
// An undecodable frame is reported as an empty frame.
func (c *Webcam) Frame(int) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("webcam closed")
	}

	for {
		err := c.cam.WaitForFrame(frameTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			slog.Debug("webcam frame timeout", "err", err)
			continue
		default:
			return nil, errors.Wrap(err, "frame wait failed")
		}

		frame, err := c.cam.ReadFrame()
		if err != nil {
			return nil, errors.Wrap(err, "read frame failed")
		}
		if len(frame) == 0 {
			continue
		}

		img, err := c.decode(frame)
		if err != nil {
			slog.Debug("dropping undecodable frame", "err", err)
			return nil, nil
		}
		return img, nil
	}
}

func (c *Webcam) decode(frame []byte) (image.Image, error) {
	if c.format == formatMJPEG {
		return imaging.Decode(bytes.NewReader(frame))
	}
	return yuyvToYCbCr(frame, c.width, c.height)
}

// Count returns -1, a webcam stream has no known length.
func (c *Webcam) Count() int { return -1 }

// IsRandomAccess reports false, frames are read in capture order.
func (c *Webcam) IsRandomAccess() bool { return false }

// Size returns the frame size negotiated with the driver.
func (c *Webcam) Size() image.Point { return image.Pt(c.width, c.height) }

// Close stops streaming and releases the device.
func (c *Webcam) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.cam.StopStreaming(); err != nil {
		c.cam.Close()
		return fmt.Errorf("could not stop streaming: %w", err)
	}
	return c.cam.Close()
}
