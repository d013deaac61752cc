package detector

import (
	"encoding/json"

	"github.com/esimov/mugshot/utils"
	"github.com/pkg/errors"
)

// MeanFace is the mean face layout used to seed the pupil search.
// Offsets are expressed relative to the detected face size.
type MeanFace struct {
	EyeRow   float64 `json:"eye_row"`
	EyeCol   float64 `json:"eye_col"`
	EyeScale float64 `json:"eye_scale"`
	Perturbs int     `json:"perturbs"`
}

// DefaultMeanFace returns the layout the pigo pupil cascade was trained with.
func DefaultMeanFace() MeanFace {
	return MeanFace{
		EyeRow:   0.085,
		EyeCol:   0.185,
		EyeScale: 0.4,
		Perturbs: 63,
	}
}

// LoadMeanFace reads a mean face layout from a JSON file or URL.
// Missing keys keep their default value.
func LoadMeanFace(path string) (MeanFace, error) {
	m := DefaultMeanFace()
	if path == "" {
		return m, nil
	}

	data, err := utils.FetchFile(path)
	if err != nil {
		return m, errors.Wrap(err, "error reading the mean face file")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, errors.Wrap(err, "error parsing the mean face file")
	}
	if m.EyeScale <= 0 || m.Perturbs <= 0 {
		return m, errors.Errorf("invalid mean face layout in %s", path)
	}
	return m, nil
}
