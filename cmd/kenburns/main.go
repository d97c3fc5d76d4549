package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/logging"
	"github.com/ivlev/kenburns/internal/system"
)

var (
	logger zerolog.Logger
	cfg    config.Config

	configPath  string
	environment string
	logLevel    string
	seed        int64
	faceMode    string
	detector    string
)

var rootCmd = &cobra.Command{
	Use:   "kenburns",
	Short: "Ken Burns slideshows from images, videos and PDFs",
	Long: `kenburns plays a crossfading pan/zoom slideshow, records its camera
plans as YAML scenarios and renders slideshows offline to mp4 with ffmpeg.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML animation settings (defaults apply when empty)")
	pf.StringVar(&environment, "env", "production", "Logging environment: development, production or json")
	pf.StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	pf.Int64Var(&seed, "seed", 0, "Random seed, 0 seeds from the clock")
	pf.StringVar(&faceMode, "face-mode", "", "Anchor mode: none, biggest or group")
	pf.StringVar(&detector, "detector", "", "Region detector: none or contrast")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig sets up logging and the animation settings for a command.
func loadConfig(cmd *cobra.Command) error {
	logger = logging.SetupWithWriter(environment, logLevel, os.Stderr)
	system.InitResourceLimits(logger)

	cfg = config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("face-mode") {
		mode, err := config.ParseFaceMode(faceMode)
		if err != nil {
			return err
		}
		cfg.FaceMode = mode
	}
	if flags.Changed("detector") {
		cfg.Detector = detector
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	logger.Debug().
		Dur("image", cfg.ImageAnimationDuration).
		Dur("transition", cfg.TransitionAnimationDuration).
		Str("face_mode", string(cfg.FaceMode)).
		Str("detector", cfg.Detector).
		Msg("settings loaded")
	return nil
}
