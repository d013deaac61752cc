package main

import (
	"log/slog"
	"time"

	"github.com/esimov/mugshot"
	"github.com/esimov/mugshot/config"
	"github.com/esimov/mugshot/detector"
	"github.com/esimov/mugshot/utils"
	"github.com/pkg/errors"
)

// loadSettings reads the capture settings file, if any, on top of the defaults.
func loadSettings() (*config.Capture, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configPath)
}

// loadAssets reads the assets bundle or falls back to the published cascades.
func loadAssets() (*config.Assets, error) {
	if assetsPath == "" {
		return config.RemoteAssets(), nil
	}
	assets, err := config.LoadAssets(assetsPath)
	if err != nil {
		return nil, err
	}
	return assets, errors.Wrap(assets.Check(), "invalid assets bundle")
}

// newPool creates the detector pool shared by the capture streams.
func newPool(c *config.Capture, assets *config.Assets) *mugshot.Pool {
	opts := detector.OptionsFrom(c.Detector, c.Scale)
	return mugshot.NewPool(func() (mugshot.Detector, error) {
		return detector.NewPigo(assets, opts)
	})
}

// warmUp builds the detectors of the given workers behind a spinner.
// The cascades may be downloaded, which takes a while.
func warmUp(pool *mugshot.Pool, workers int) error {
	spinner := utils.NewSpinner(
		utils.StatusLine("⇢ loading the face detector...", "", utils.DefaultMessage),
		time.Millisecond*100, true,
	)
	spinner.Start()

	now := time.Now()
	for i := 0; i < workers; i++ {
		if _, err := pool.Get(i); err != nil {
			spinner.StopMsg = utils.StatusLine("⇢ loading the face detector failed", "✘", utils.ErrorMessage) + "\n"
			spinner.Stop()
			return err
		}
	}
	spinner.StopMsg = utils.StatusLine("⇢ face detector ready", "✔", utils.SuccessMessage) + "\n"
	spinner.Stop()

	slog.Debug("detectors loaded", "workers", workers, "elapsed", utils.FormatTime(time.Since(now)))
	return nil
}

// sessionOptions converts the capture settings into session options.
func sessionOptions(c *config.Capture, debug bool) mugshot.Options {
	opts := mugshot.DefaultOptions()
	opts.Width = c.Width
	opts.Height = c.Height
	opts.MaxFrames = c.MaxFrames
	opts.Threshold = c.Threshold
	opts.MinFaceWidth = c.MinFaceWidth
	opts.Debug = debug
	opts.Logger = slog.Default()
	return opts
}
