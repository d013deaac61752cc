package videoio

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDirSource_ShouldReplayImagesInOrder(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	assert.NoError(imaging.Save(solid(8, 6, color.NRGBA{R: 255, A: 255}), filepath.Join(dir, "002.png")))
	assert.NoError(imaging.Save(solid(4, 4, color.NRGBA{B: 255, A: 255}), filepath.Join(dir, "001.png")))
	assert.NoError(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0644))
	assert.NoError(os.Mkdir(filepath.Join(dir, "sub"), 0755))

	src, err := NewDirSource(dir)
	assert.NoError(err)
	assert.Equal(2, src.Count())
	assert.True(src.IsRandomAccess())
	assert.Equal(filepath.Join(dir, "001.png"), src.Files()[0])

	img, err := src.Frame(1)
	assert.NoError(err)
	assert.Equal(image.Rect(0, 0, 8, 6), img.Bounds())

	img, err = src.Frame(0)
	assert.NoError(err)
	assert.Equal(image.Rect(0, 0, 4, 4), img.Bounds())

	_, err = src.Frame(2)
	assert.ErrorIs(err, io.EOF)
}

func TestDirSource_ShouldRejectEmptyDirectories(t *testing.T) {
	_, err := NewDirSource(t.TempDir())
	assert.Error(t, err)

	_, err = NewDirSource(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFileSink_ShouldWriteNumberedFrames(t *testing.T) {
	assert := assert.New(t)
	dir := filepath.Join(t.TempDir(), "preview")

	sink, err := NewFileSink(dir, ".png", 0)
	assert.NoError(err)

	assert.True(sink.Show(solid(5, 5, color.NRGBA{G: 255, A: 255})))
	assert.True(sink.Show(solid(5, 5, color.NRGBA{G: 128, A: 255})))
	assert.Equal(2, sink.Count())
	assert.NoError(sink.Err())

	assert.FileExists(filepath.Join(dir, "frame-00000.png"))
	assert.FileExists(filepath.Join(dir, "frame-00001.png"))

	_, err = NewFileSink(dir, ".tiff", 0)
	assert.Error(err)
}

func TestEncode_Formats(t *testing.T) {
	img := solid(6, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	for _, ext := range []string{"", ".jpg", ".png", ".bmp"} {
		var buf bytes.Buffer
		assert.NoError(t, Encode(&buf, img, ext, 90), ext)

		decoded, _, err := image.Decode(&buf)
		assert.NoError(t, err, ext)
		assert.Equal(t, img.Bounds(), decoded.Bounds(), ext)
	}

	assert.Error(t, Encode(io.Discard, img, ".gif", 90))
	assert.True(t, NopSink{}.Show(img))
}

func TestYUYV_ShouldUnpackLumaAndChroma(t *testing.T) {
	assert := assert.New(t)

	// two rows of two pixels: Y0 U Y1 V
	frame := []byte{
		10, 100, 20, 200,
		30, 110, 40, 210,
	}
	img, err := yuyvToYCbCr(frame, 2, 2)
	assert.NoError(err)
	assert.Equal(uint8(10), img.YCbCrAt(0, 0).Y)
	assert.Equal(uint8(20), img.YCbCrAt(1, 0).Y)
	assert.Equal(uint8(40), img.YCbCrAt(1, 1).Y)
	assert.Equal(uint8(100), img.YCbCrAt(1, 0).Cb)
	assert.Equal(uint8(210), img.YCbCrAt(0, 1).Cr)

	_, err = yuyvToYCbCr(frame[:6], 2, 2)
	assert.Error(err)
	_, err = yuyvToYCbCr(frame, 3, 1)
	assert.Error(err)
}
