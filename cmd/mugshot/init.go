package main

import (
	"fmt"
	"os"

	"github.com/esimov/mugshot"
	"github.com/esimov/mugshot/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var writeConfig string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Load and check the face detector, optionally writing a settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadSettings()
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return errors.Wrap(err, "invalid capture settings")
		}

		if writeConfig != "" {
			if err := c.SaveToFile(writeConfig); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, utils.StatusLine("settings written to "+writeConfig, "✔", utils.SuccessMessage))
		}

		assets, err := loadAssets()
		if err != nil {
			return err
		}
		for _, a := range assets.List() {
			if a.Path != "" {
				fmt.Fprintf(os.Stderr, "\t%-20s %s\n", a.Name, a.Path)
			}
		}

		pool := newPool(c, assets)
		defer pool.Close()
		if err := warmUp(pool, 1); err != nil {
			return err
		}

		// A zero frame budget only initializes the detector.
		opts := sessionOptions(c, false)
		opts.MaxFrames = 0
		code := mugshot.TakeMugshot(nil, nil, opts, pool, make([]byte, c.Width*c.Height*3))
		if code != mugshot.ResultSuccess {
			return &captureError{code: code, msg: fmt.Sprintf("detector initialization: %v", code)}
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&writeConfig, "write-config", "w", "", "Write the effective settings to this file")
}
