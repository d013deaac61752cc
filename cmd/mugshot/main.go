package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/esimov/mugshot/utils"
	"github.com/spf13/cobra"
)

const HelpBanner = `
┌┬┐┬ ┬┌─┐┌─┐┬ ┬┌─┐┌┬┐
││││ ││ ┬└─┐├─┤│ │ │
┴ ┴└─┘└─┘└─┘┴ ┴└─┘ ┴

Portrait capture from a live video stream.
    Version: %s

`

// pipeName is the file name that indicates stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version = "dev"

var (
	verbose    bool
	configPath string
	assetsPath string
)

var rootCmd = &cobra.Command{
	Use:           "mugshot",
	Short:         "Capture an acceptable portrait from a camera or a sequence of frames",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.SetHelpTemplate(fmt.Sprintf(HelpBanner, Version) + rootCmd.HelpTemplate())
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log every evaluated frame")
	flags.StringVarP(&configPath, "config", "c", "", "Capture settings file (JSON)")
	flags.StringVarP(&assetsPath, "assets", "a", "", "Model assets bundle (JSON), the published pigo cascades are used if empty")

	rootCmd.AddCommand(captureCmd, initCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func main() {
	log.SetFlags(0)

	// Create a context that listens for Ctrl+C (SIGINT) or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("%s\n\t%s\n",
			utils.StatusLine("command failed", "✘", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
		os.Exit(exitCode(err))
	}
}
