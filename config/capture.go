package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Capture holds the capture session settings.
type Capture struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	MaxFrames    int     `json:"max_frames"`
	Threshold    int     `json:"threshold"`
	MinFaceWidth int     `json:"min_face_width"`
	Detector     Tuning  `json:"detector"`
	Device       string  `json:"device"`
	Quality      int     `json:"quality"`
	Scale        float64 `json:"scale"`
}

// Tuning holds the face detector knobs.
type Tuning struct {
	MinSize     int     `json:"min_size"`
	MaxSize     int     `json:"max_size"`
	ShiftFactor float64 `json:"shift_factor"`
	ScaleFactor float64 `json:"scale_factor"`
	IoU         float64 `json:"iou"`
	NMS         bool    `json:"nms"`
	GlobalNMS   bool    `json:"global_nms"`
	CascadeCal  float64 `json:"cascade_cal"`
}

// Default returns the settings of a 480x640 capture with a 900 frames budget.
func Default() *Capture {
	return &Capture{
		Width:     480,
		Height:    640,
		MaxFrames: 900,
		Threshold: 11,
		Device:    "/dev/video0",
		Quality:   95,
		Scale:     1,
		Detector: Tuning{
			MinSize:     100,
			MaxSize:     1000,
			ShiftFactor: 0.1,
			ScaleFactor: 1.1,
			IoU:         0.2,
			NMS:         true,
			GlobalNMS:   true,
		},
	}
}

// LoadFromFile loads the settings from a JSON file on top of the defaults.
func LoadFromFile(filename string) (*Capture, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	return c, nil
}

// SaveToFile writes the settings as indented JSON.
func (c *Capture) SaveToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return errors.Wrap(os.WriteFile(filename, data, 0644), "failed to write config file")
}

// Validate checks if the settings are usable.
func (c *Capture) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("output size must be positive, got %dx%d", c.Width, c.Height)
	case c.MaxFrames < 0:
		return fmt.Errorf("max_frames cannot be negative")
	case c.Threshold < 1:
		return fmt.Errorf("threshold must be at least 1")
	case c.Quality < 1 || c.Quality > 100:
		return fmt.Errorf("quality must be between 1 and 100")
	case c.Scale <= 0:
		return fmt.Errorf("scale must be positive")
	}

	d := c.Detector
	switch {
	case d.MinSize <= 0 || d.MaxSize < d.MinSize:
		return fmt.Errorf("detector.min_size must be positive and not above detector.max_size")
	case d.ShiftFactor <= 0 || d.ShiftFactor > 1:
		return fmt.Errorf("detector.shift_factor must be between 0 and 1")
	case d.ScaleFactor <= 1:
		return fmt.Errorf("detector.scale_factor must be greater than 1")
	case d.IoU < 0 || d.IoU > 1:
		return fmt.Errorf("detector.iou must be between 0 and 1")
	}
	return nil
}
