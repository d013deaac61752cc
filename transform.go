package mugshot

import (
	"errors"
	"math"
)

// ErrSingular is returned when a transform has no inverse.
var ErrSingular = errors.New("singular transform")

// Mat3 is a 3x3 homogeneous transform stored in row-major order.
type Mat3 [9]float64

// Identity returns the identity transform.
func Identity() Mat3 {
	return Diag(1, 1, 1)
}

// Diag builds a diagonal transform.
func Diag(a, b, c float64) Mat3 {
	return Mat3{
		a, 0, 0,
		0, b, 0,
		0, 0, c,
	}
}

// Similarity builds a transform made of a uniform scale s, a rotation theta (radians)
// and a translation (tx, ty), applied in this order.
func Similarity(s, theta, tx, ty float64) Mat3 {
	sin, cos := math.Sincos(theta)
	return Mat3{
		s * cos, -s * sin, tx,
		s * sin, s * cos, ty,
		0, 0, 1,
	}
}

// Mul returns m*n. Applying the result to a point equals applying n first and then m.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[i*3+k] * n[k*3+j]
			}
			r[i*3+j] = sum
		}
	}
	return r
}

// Det returns the determinant of the transform.
func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the inverse transform or ErrSingular.
func (m Mat3) Inverse() (Mat3, error) {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return Mat3{}, ErrSingular
	}
	inv := 1 / det

	return Mat3{
		(m[4]*m[8] - m[5]*m[7]) * inv,
		(m[2]*m[7] - m[1]*m[8]) * inv,
		(m[1]*m[5] - m[2]*m[4]) * inv,
		(m[5]*m[6] - m[3]*m[8]) * inv,
		(m[0]*m[8] - m[2]*m[6]) * inv,
		(m[2]*m[3] - m[0]*m[5]) * inv,
		(m[3]*m[7] - m[4]*m[6]) * inv,
		(m[1]*m[6] - m[0]*m[7]) * inv,
		(m[0]*m[4] - m[1]*m[3]) * inv,
	}, nil
}

// Apply maps a point through the transform, dividing by the homogeneous coordinate.
func (m Mat3) Apply(p Point) Point {
	x := m[0]*p.X + m[1]*p.Y + m[2]
	y := m[3]*p.X + m[4]*p.Y + m[5]
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w != 0 && w != 1 {
		x, y = x/w, y/w
	}
	return Point{X: x, Y: y}
}

// ApplyRect maps both corners of r and returns the normalized rectangle spanning them.
func (m Mat3) ApplyRect(r Rect) Rect {
	p0 := m.Apply(Point{X: r.X, Y: r.Y})
	p1 := m.Apply(Point{X: r.X + r.W, Y: r.Y + r.H})

	x0, x1 := math.Min(p0.X, p1.X), math.Max(p0.X, p1.X)
	y0, y1 := math.Min(p0.Y, p1.Y), math.Max(p0.Y, p1.Y)

	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Scale returns the scale factor of the x axis.
func (m Mat3) Scale() float64 {
	return math.Hypot(m[0], m[3])
}
