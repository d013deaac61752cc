package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeBundle(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "facefinder"), []byte{0}, 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "puploc"), []byte{0}, 0644))
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "lps"), 0755))

	bundle := filepath.Join(dir, "assets.json")
	assert.NoError(t, os.WriteFile(bundle, []byte(`{
		"face_detector": "facefinder",
		"face_regressor": "lps",
		"eye_regressor": "puploc"
	}`), 0644))

	return dir, bundle
}

func TestAssets_ShouldResolveRelativePaths(t *testing.T) {
	assert := assert.New(t)
	dir, bundle := writeBundle(t)

	a, err := LoadAssets(bundle)
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "facefinder"), a.FaceDetector)
	assert.Equal(filepath.Join(dir, "lps"), a.FaceRegressor)
	assert.Empty(a.FaceDetectorMean)
	assert.NoError(a.Check())
}

func TestAssets_ShouldReportMissingModels(t *testing.T) {
	assert := assert.New(t)
	dir, bundle := writeBundle(t)

	a, err := LoadAssets(bundle)
	assert.NoError(err)

	assert.NoError(os.Remove(filepath.Join(dir, "puploc")))
	assert.ErrorContains(a.Check(), "eye-regressor")

	a.EyeRegressor = ""
	assert.ErrorContains(a.Check(), "must specify a valid eye-regressor")

	a.EyeRegressor = filepath.Join(dir, "lps")
	assert.ErrorContains(a.Check(), "should be a regular file")

	_, err = LoadAssets(filepath.Join(dir, "missing.json"))
	assert.Error(err)
}

func TestAssets_RemoteAssetsSkipFileChecks(t *testing.T) {
	a := RemoteAssets()

	assert.NoError(t, a.Check())
	assert.Len(t, a.List(), 4)
}

func TestCapture_DefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestCapture_Validate(t *testing.T) {
	cases := map[string]func(c *Capture){
		"size":      func(c *Capture) { c.Width = 0 },
		"frames":    func(c *Capture) { c.MaxFrames = -1 },
		"threshold": func(c *Capture) { c.Threshold = 0 },
		"quality":   func(c *Capture) { c.Quality = 101 },
		"scale":     func(c *Capture) { c.Scale = 0 },
		"min size":  func(c *Capture) { c.Detector.MaxSize = 10 },
		"shift":     func(c *Capture) { c.Detector.ShiftFactor = 0 },
		"scaling":   func(c *Capture) { c.Detector.ScaleFactor = 1 },
		"iou":       func(c *Capture) { c.Detector.IoU = 2 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestCapture_SaveAndLoad(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "conf", "capture.json")
	c := Default()
	c.MaxFrames = 120
	c.Detector.CascadeCal = -0.5
	assert.NoError(c.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	assert.NoError(err)
	assert.Equal(c, loaded)

	// omitted keys keep their defaults
	partial := filepath.Join(t.TempDir(), "partial.json")
	assert.NoError(os.WriteFile(partial, []byte(`{"max_frames": 30}`), 0644))
	loaded, err = LoadFromFile(partial)
	assert.NoError(err)
	assert.Equal(30, loaded.MaxFrames)
	assert.Equal(480, loaded.Width)
}
