package mugshot

import (
	"fmt"
	"image"
	"image/color"
)

// Planar is a transposed, channel planar float image normalized to [0, 1].
// Rows is the width and Cols is the height of the image it was built from,
// so the element at (r, c) of a plane holds the pixel found at x=r, y=c.
type Planar struct {
	Pix  [3][]float32
	Rows int
	Cols int
}

// At returns the RGB triplet stored at row r and column c.
func (p *Planar) At(r, c int) (float32, float32, float32) {
	i := r*p.Cols + c
	return p.Pix[0][i], p.Pix[1][i], p.Pix[2][i]
}

// PaddedImage is the single channel regression image together with
// the region of interest holding valid pixels.
type PaddedImage struct {
	Image *image.Gray
	Roi   image.Rectangle
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := srcBounds.Dx() * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}

// toPlanar transposes the image and splits it into normalized float planes.
func toPlanar(src *image.NRGBA) *Planar {
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	p := &Planar{Rows: width, Cols: height}
	for ch := range p.Pix {
		p.Pix[ch] = make([]float32, width*height)
	}

	for y := 0; y < height; y++ {
		si := src.PixOffset(0, y)
		for x := 0; x < width; x++ {
			di := x*height + y
			p.Pix[0][di] = float32(src.Pix[si+0]) / 255
			p.Pix[1][di] = float32(src.Pix[si+1]) / 255
			p.Pix[2][di] = float32(src.Pix[si+2]) / 255
			si += 4
		}
	}
	return p
}

// greenChannel extracts the green channel of the image at full resolution.
func greenChannel(src *image.NRGBA) *image.Gray {
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		si := src.PixOffset(0, y)
		di := dst.PixOffset(0, y)
		for x := 0; x < width; x++ {
			dst.Pix[di+x] = src.Pix[si+1]
			si += 4
		}
	}
	return dst
}

// fillBGR packs the image into dst as tightly packed BGR triplets.
// The caller guarantees len(dst) >= 3*width*height.
func fillBGR(src *image.NRGBA, dst []byte) {
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	di := 0
	for y := 0; y < height; y++ {
		si := src.PixOffset(0, y)
		for x := 0; x < width; x++ {
			dst[di+0] = src.Pix[si+2]
			dst[di+1] = src.Pix[si+1]
			dst[di+2] = src.Pix[si+0]
			di += 3
			si += 4
		}
	}
}

// BGRToNRGBA unpacks a BGR buffer, as filled by TakeMugshot, into an opaque image.
func BGRToNRGBA(buf []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || len(buf) < width*height*3 {
		return nil, fmt.Errorf("buffer of %d bytes does not hold a %dx%d BGR image", len(buf), width, height)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for si, di := 0, 0; di < len(dst.Pix); si, di = si+3, di+4 {
		dst.Pix[di+0] = buf[si+2]
		dst.Pix[di+1] = buf[si+1]
		dst.Pix[di+2] = buf[si+0]
		dst.Pix[di+3] = 0xff
	}
	return dst, nil
}
