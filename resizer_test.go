package mugshot

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

var window = image.Pt(24, 24)

func uniformFrame(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestResizer_ShouldDownscaleToTargetWidth(t *testing.T) {
	assert := assert.New(t)

	r, err := NewResizer(uniformFrame(640, 480, color.NRGBA{R: 10, G: 200, B: 30, A: 255}), window, 320)
	assert.NoError(err)

	sfd, sdr, srf := r.Scales()
	assert.InDelta(0.5, sfd, 1e-9)
	assert.InDelta(1.0, sdr*sfd, 1e-9)
	assert.InDelta(1.0, srf, 1e-9)

	// the detection image is transposed
	assert.Equal(320, r.Planar().Rows)
	assert.Equal(240, r.Planar().Cols)

	p := r.DetectorToRegressor().Apply(Point{X: 10, Y: 15})
	assert.InDelta(20.0, p.X, 1e-9)
	assert.InDelta(30.0, p.Y, 1e-9)

	red, green, blue := r.Planar().At(100, 100)
	assert.InDelta(10.0/255, red, 5e-3)
	assert.InDelta(200.0/255, green, 5e-3)
	assert.InDelta(30.0/255, blue, 5e-3)
}

func TestResizer_ShouldUpscaleToTargetWidth(t *testing.T) {
	r, err := NewResizer(uniformFrame(160, 120, color.NRGBA{A: 255}), window, 320)
	assert.NoError(t, err)

	sfd, sdr, _ := r.Scales()
	assert.InDelta(t, 2.0, sfd, 1e-9)
	assert.InDelta(t, 1.0, sdr*sfd, 1e-9)
	assert.Equal(t, 320, r.Planar().Rows)
	assert.Equal(t, 240, r.Planar().Cols)
}

func TestResizer_DetectionWidthWithinOnePixel(t *testing.T) {
	for _, size := range []image.Point{{641, 480}, {1280, 720}, {333, 250}} {
		for _, target := range []int{97, 160, 320, 500} {
			r, err := NewResizer(uniformFrame(size.X, size.Y, color.NRGBA{A: 255}), window, target)
			assert.NoError(t, err)
			assert.InDelta(t, target, r.Planar().Rows, 1)

			sfd, sdr, _ := r.Scales()
			assert.InDelta(t, 1.0, sdr*sfd, 1e-9)
		}
	}
}

func TestResizer_ShouldBeIdentityWithoutTarget(t *testing.T) {
	assert := assert.New(t)

	for _, target := range []int{0, -1} {
		r, err := NewResizer(uniformFrame(64, 48, color.NRGBA{A: 255}), window, target)
		assert.NoError(err)

		sfd, _, srf := r.Scales()
		assert.Equal(1.0, sfd)
		assert.Equal(1.0, srf)
		assert.Equal(Identity(), r.DetectorToRegressor())
		assert.Equal(Identity(), r.RegressorToFull())

		faces := []FaceModel{{
			Roi:            Some(Rect{X: 1, Y: 2, W: 3, H: 4}),
			EyeRightCenter: Some(Point{X: 2, Y: 3}),
		}}
		mapped := r.MapToFull(append([]FaceModel(nil), faces...))
		assert.Equal(faces, mapped)
	}
}

func TestResizer_ShouldRejectEmptyFrame(t *testing.T) {
	_, err := NewResizer(image.NewNRGBA(image.Rect(0, 0, 0, 0)), window, 100)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = NewResizer(nil, window, 100)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestResizer_ShouldTransposeAndKeepGreenChannel(t *testing.T) {
	assert := assert.New(t)

	img := uniformFrame(3, 2, color.NRGBA{A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 255, G: 128, A: 255})

	r, err := NewResizer(img, window, 0)
	assert.NoError(err)

	red, green, _ := r.Planar().At(2, 0)
	assert.Equal(float32(1), red)
	assert.InDelta(128.0/255, green, 1e-6)

	red, _, _ = r.Planar().At(0, 1)
	assert.Equal(float32(0), red)

	padded := r.Padded()
	assert.Equal(image.Rect(0, 0, 3, 2), padded.Roi)
	assert.Equal(uint8(128), padded.Image.GrayAt(2, 0).Y)
	assert.Equal(uint8(0), padded.Image.GrayAt(0, 0).Y)
	assert.Equal(image.Pt(3, 2), r.SourceSize())
	assert.Equal(window, r.WindowSize())
}

func TestResizer_DetectionWidth(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(320, DetectionWidth(640, image.Pt(48, 48), 96))
	assert.Equal(-1, DetectionWidth(640, image.Pt(48, 48), 0))
	assert.Equal(-1, DetectionWidth(640, image.Pt(48, 48), -5))
}
