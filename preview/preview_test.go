package preview

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview_FitScreen(t *testing.T) {
	assert := assert.New(t)

	w, h := fitScreen(640, 480)
	assert.Equal(640.0, w)
	assert.Equal(480.0, h)

	w, h = fitScreen(1920, 1080)
	assert.InDelta(1365.33, w, 0.01)
	assert.InDelta(768.0, h, 0.01)
}

func TestPreview_ShowKeepsLatestFrame(t *testing.T) {
	assert := assert.New(t)
	win := New("test", 10, 10)

	first := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	second := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.True(win.Show(first))
	assert.True(win.Show(second))
	assert.Len(win.frames, 1)
	assert.Same(second, <-win.frames)

	win.markClosed()
	assert.False(win.Show(first))

	win.Close()
	win.Close()
}
