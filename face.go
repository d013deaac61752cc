package mugshot

import (
	"image"
	"math"
)

// Field is an optional value. Has reports whether Value was set by the detector.
type Field[T any] struct {
	Value T
	Has   bool
}

// Some wraps v into a present field.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Has: true}
}

// Point is a 2D location in pixels.
type Point struct {
	X, Y float64
}

// Rect is an axis aligned rectangle with floating point geometry.
type Rect struct {
	X, Y, W, H float64
}

// Area returns the area of the rectangle.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// Center returns the center of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Image returns the integer pixel rectangle covered by r.
func (r Rect) Image() image.Rectangle {
	x0, y0 := int(math.Round(r.X)), int(math.Round(r.Y))
	return image.Rect(x0, y0, x0+int(math.Round(r.W)), y0+int(math.Round(r.H)))
}

// FaceModel holds one detected face together with its regressed landmarks.
type FaceModel struct {
	Roi               Field[Rect]
	EyeLeftCenter     Field[Point]
	EyeRightCenter    Field[Point]
	NoseTip           Field[Point]
	MouthCornerLeft   Field[Point]
	MouthCornerRight  Field[Point]
	EyebrowLeftInner  Field[Point]
	EyebrowRightInner Field[Point]

	// Q is the detection score.
	Q float32
}

// points returns the addresses of the optional landmark fields.
func (f *FaceModel) points() []*Field[Point] {
	return []*Field[Point]{
		&f.EyeLeftCenter,
		&f.EyeRightCenter,
		&f.NoseTip,
		&f.MouthCornerLeft,
		&f.MouthCornerRight,
		&f.EyebrowLeftInner,
		&f.EyebrowRightInner,
	}
}

// Transform returns a copy of the face with every present field mapped through h.
// Absent fields stay absent.
func (f FaceModel) Transform(h Mat3) FaceModel {
	out := f
	if out.Roi.Has {
		out.Roi.Value = h.ApplyRect(out.Roi.Value)
	}
	for _, p := range out.points() {
		if p.Has {
			p.Value = h.Apply(p.Value)
		}
	}
	return out
}
