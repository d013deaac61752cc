package mugshot

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrEmptyFrame is returned when a frame carries no pixels.
var ErrEmptyFrame = errors.New("empty frame")

// scaleEpsilon is the tolerance used when comparing composed scale factors against unity.
const scaleEpsilon = 1e-9

// Resizer prepares the two images consumed by a detector: a reduced resolution planar
// image for detection and the full resolution green channel for landmark regression.
// It also records the transforms linking the detection, regression and full resolution spaces.
type Resizer struct {
	sfd float64 // full to detection
	sdr float64 // detection to regression
	srf float64 // regression to full

	hdr Mat3
	hrf Mat3

	win    image.Point
	source image.Point

	planar *Planar
	padded PaddedImage
}

// NewResizer builds the detection and regression images of a frame. A targetWidth
// less than or equal to zero leaves the detection image at the source resolution.
func NewResizer(img image.Image, win image.Point, targetWidth int) (*Resizer, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}

	src := imgToNRGBA(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()

	r := &Resizer{
		sfd:    1,
		win:    win,
		source: image.Pt(width, height),
	}

	reduced := src
	if targetWidth > 0 {
		r.sfd = float64(targetWidth) / float64(width)

		filter := imaging.Linear
		if r.sfd < 1 {
			filter = imaging.Box
		}
		dw := int(math.Round(float64(width) * r.sfd))
		dh := int(math.Round(float64(height) * r.sfd))
		if dh < 1 {
			dh = 1
		}
		if dw != width || dh != height {
			reduced = imaging.Resize(src, dw, dh, filter)
		}
	}

	green := greenChannel(src)
	r.padded = PaddedImage{
		Image: green,
		Roi:   image.Rect(0, 0, width, height),
	}

	r.planar = toPlanar(reduced)
	r.sdr = 1 / r.sfd

	r.hdr = Diag(r.sdr, r.sdr, 1)

	srd, sdf := 1/r.sdr, 1/r.sfd
	r.srf = sdf * srd
	r.hrf = Diag(r.srf, r.srf, 1)

	return r, nil
}

// DetectionWidth returns the detection image width at which an object of minWidth
// source pixels fills exactly one detector window. A minWidth less than or equal
// to zero disables resizing.
func DetectionWidth(sourceWidth int, win image.Point, minWidth int) int {
	if minWidth <= 0 || sourceWidth <= 0 || win.X <= 0 {
		return -1
	}
	return int(math.Round(float64(sourceWidth) * float64(win.X) / float64(minWidth)))
}

// MapToFull maps faces found at the regression resolution into full resolution coordinates.
func (r *Resizer) MapToFull(faces []FaceModel) []FaceModel {
	if math.Abs(r.hrf.Scale()-1) <= scaleEpsilon {
		return faces
	}
	for i := range faces {
		faces[i] = faces[i].Transform(r.hrf)
	}
	return faces
}

// Planar returns the transposed detection image.
func (r *Resizer) Planar() *Planar { return r.planar }

// Padded returns the full resolution regression image.
func (r *Resizer) Padded() PaddedImage { return r.padded }

// DetectorToRegressor returns the transform from detection to regression coordinates.
func (r *Resizer) DetectorToRegressor() Mat3 { return r.hdr }

// RegressorToFull returns the transform from regression to full resolution coordinates.
func (r *Resizer) RegressorToFull() Mat3 { return r.hrf }

// Scales returns the full to detection, detection to regression and regression to full factors.
func (r *Resizer) Scales() (sfd, sdr, srf float64) {
	return r.sfd, r.sdr, r.srf
}

// WindowSize returns the detector window the resizer was built for.
func (r *Resizer) WindowSize() image.Point { return r.win }

// SourceSize returns the dimensions of the source frame.
func (r *Resizer) SourceSize() image.Point { return r.source }
