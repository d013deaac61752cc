// Package config loads the detector model assets and the capture settings.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/esimov/mugshot/utils"
	"github.com/pkg/errors"
)

// Assets references the model files used by the face detector.
// Each entry is either a local path or a URL.
type Assets struct {
	// FaceDetector is the face finder cascade.
	FaceDetector string `json:"face_detector"`
	// FaceDetectorMean holds the mean face layout used to seed the landmark search.
	FaceDetectorMean string `json:"face_detector_mean"`
	// FaceRegressor is the directory of facial landmark cascades.
	FaceRegressor string `json:"face_regressor"`
	// EyeRegressor is the pupil localization cascade.
	EyeRegressor string `json:"eye_regressor"`
}

// Asset is a named model reference.
type Asset struct {
	Name string
	Path string
	Dir  bool
}

// DefaultAssetsURL is the location of the cascades published with pigo.
const DefaultAssetsURL = "https://raw.githubusercontent.com/esimov/pigo/master/cascade/"

// LoadAssets reads an asset bundle from a JSON file. Relative local paths
// are resolved against the directory holding the file.
func LoadAssets(path string) (*Assets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the assets file")
	}

	var a Assets
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrapf(err, "failed to parse the assets file %s", path)
	}
	a.resolve(filepath.Dir(path))

	return &a, nil
}

func (a *Assets) resolve(dir string) {
	for _, p := range []*string{&a.FaceDetector, &a.FaceDetectorMean, &a.FaceRegressor, &a.EyeRegressor} {
		if *p == "" || utils.IsValidUrl(*p) || filepath.IsAbs(*p) {
			continue
		}
		*p = filepath.Join(dir, *p)
	}
}

// List returns the assets in loading order.
func (a *Assets) List() []Asset {
	return []Asset{
		{Name: "face-detector", Path: a.FaceDetector},
		{Name: "face-detector-mean", Path: a.FaceDetectorMean},
		{Name: "face-regressor", Path: a.FaceRegressor, Dir: true},
		{Name: "eye-regressor", Path: a.EyeRegressor},
	}
}

// Check verifies that every asset is specified and, for local files, readable.
// The mean face layout is optional.
func (a *Assets) Check() error {
	for _, asset := range a.List() {
		if asset.Path == "" {
			if asset.Name == "face-detector-mean" {
				continue
			}
			return errors.Errorf("must specify a valid %s model", asset.Name)
		}
		if utils.IsValidUrl(asset.Path) {
			continue
		}
		fi, err := os.Stat(asset.Path)
		if err != nil {
			return errors.Wrapf(err, "%s model %s does not exist or is not readable", asset.Name, asset.Path)
		}
		if fi.IsDir() != asset.Dir {
			if asset.Dir {
				return errors.Errorf("%s model %s should be a directory", asset.Name, asset.Path)
			}
			return errors.Errorf("%s model %s should be a regular file", asset.Name, asset.Path)
		}
	}
	return nil
}

// RemoteAssets returns the bundle pointing to the cascades published with pigo.
func RemoteAssets() *Assets {
	return &Assets{
		FaceDetector:  DefaultAssetsURL + "facefinder",
		FaceRegressor: DefaultAssetsURL + "lps/",
		EyeRegressor:  DefaultAssetsURL + "puploc",
	}
}
