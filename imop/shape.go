// Package imop draws annotation shapes into transparent overlay layers and composites
// them onto a backdrop using the Porter-Duff composition operators.
// The image/draw core package implements only the source-over-destination and source
// operators, this package covers the ones needed for the viewfinder overlays.
package imop

import (
	"image"
	"image/color"

	"github.com/esimov/mugshot/utils"
)

// NewLayer returns a fully transparent overlay covering r.
func NewLayer(r image.Rectangle) *image.NRGBA {
	return image.NewNRGBA(r)
}

// StrokeEllipse draws the outline of an axis aligned ellipse centered on c, with
// semi-axes a and b, onto the layer. The stroke is centered on the ellipse boundary.
func StrokeEllipse(layer *image.NRGBA, c image.Point, a, b, thickness int, col color.NRGBA) {
	if a <= 0 || b <= 0 || thickness <= 0 {
		return
	}
	half := float64(thickness) / 2
	oa, ob := float64(a)+half, float64(b)+half
	ia, ib := float64(a)-half, float64(b)-half

	bounds := image.Rect(
		c.X-a-thickness, c.Y-b-thickness,
		c.X+a+thickness+1, c.Y+b+thickness+1,
	).Intersect(layer.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		fy := float64(y - c.Y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			fx := float64(x - c.X)
			if fx*fx/(oa*oa)+fy*fy/(ob*ob) > 1 {
				continue
			}
			if ia > 0 && ib > 0 && fx*fx/(ia*ia)+fy*fy/(ib*ib) < 1 {
				continue
			}
			layer.SetNRGBA(x, y, col)
		}
	}
}

// StrokeRect draws the outline of r onto the layer.
func StrokeRect(layer *image.NRGBA, r image.Rectangle, thickness int, col color.NRGBA) {
	r = r.Canon()
	t := utils.Min(thickness, utils.Min(r.Dx(), r.Dy()))
	if t <= 0 {
		return
	}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(layer.Bounds())
		for y := e.Min.Y; y < e.Max.Y; y++ {
			for x := e.Min.X; x < e.Max.X; x++ {
				layer.SetNRGBA(x, y, col)
			}
		}
	}
}
