//go:build !linux

package videoio

import (
	"errors"
	"image"
)

// Webcam is only available on Linux.
type Webcam struct{}

// OpenWebcam reports that V4L2 capture is not supported on this platform.
func OpenWebcam(device string, width, height int) (*Webcam, error) {
	return nil, errors.New("webcam capture is only supported on linux")
}

func (c *Webcam) Frame(int) (image.Image, error) { return nil, errors.New("webcam not supported") }
func (c *Webcam) Count() int                      { return -1 }
func (c *Webcam) IsRandomAccess() bool            { return false }
func (c *Webcam) Size() image.Point               { return image.Point{} }
func (c *Webcam) Close() error                    { return nil }
