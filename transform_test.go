package mugshot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform_Compose(t *testing.T) {
	assert := assert.New(t)

	h := Diag(2, 2, 1).Mul(Diag(3, 3, 1))
	assert.Equal(Diag(6, 6, 1), h)

	p := h.Apply(Point{X: 1, Y: 2})
	assert.InDelta(6.0, p.X, 1e-9)
	assert.InDelta(12.0, p.Y, 1e-9)
}

func TestTransform_InverseRoundTrip(t *testing.T) {
	assert := assert.New(t)

	h := Similarity(1.7, math.Pi/7, 12, -4)
	inv, err := h.Inverse()
	assert.NoError(err)

	id := h.Mul(inv)
	for i, v := range Identity() {
		assert.InDelta(v, id[i], 1e-9)
	}

	p := Point{X: 31.5, Y: -8.25}
	q := inv.Apply(h.Apply(p))
	assert.InDelta(p.X, q.X, 1e-9)
	assert.InDelta(p.Y, q.Y, 1e-9)
	assert.InDelta(1.7, h.Scale(), 1e-9)
}

func TestTransform_Singular(t *testing.T) {
	_, err := Diag(0, 1, 1).Inverse()
	assert.ErrorIs(t, err, ErrSingular)
}

func TestTransform_ApplyRect(t *testing.T) {
	assert := assert.New(t)

	r := Diag(-2, 2, 1).ApplyRect(Rect{X: 10, Y: 10, W: 5, H: 5})
	assert.InDelta(-30.0, r.X, 1e-9)
	assert.InDelta(20.0, r.Y, 1e-9)
	assert.InDelta(10.0, r.W, 1e-9)
	assert.InDelta(10.0, r.H, 1e-9)
}

func TestFace_Transform(t *testing.T) {
	assert := assert.New(t)

	f := FaceModel{
		Roi:           Some(Rect{X: 10, Y: 20, W: 30, H: 40}),
		EyeLeftCenter: Some(Point{X: 15, Y: 25}),
	}
	g := f.Transform(Diag(2, 2, 1))

	assert.Equal(Rect{X: 20, Y: 40, W: 60, H: 80}, g.Roi.Value)
	assert.Equal(Point{X: 30, Y: 50}, g.EyeLeftCenter.Value)
	assert.False(g.EyeRightCenter.Has)
	assert.False(g.NoseTip.Has)
	assert.Equal(Point{}, g.NoseTip.Value)

	// the source face is left untouched
	assert.Equal(Point{X: 15, Y: 25}, f.EyeLeftCenter.Value)
}
