package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/engine"
	"github.com/ivlev/kenburns/internal/random"
	"github.com/ivlev/kenburns/internal/system"
)

var (
	exp            = config.DefaultExport()
	exportScenario string
	exportRecord   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the slideshow to an mp4 with ffmpeg",
	Long: `Render every image of the input as a Ken Burns segment and join the
segments with xfade crossfades. Videos in the input are skipped.

Examples:
  kenburns export -i deck.pdf --preset 9:16 --duration 60
  kenburns export -i photos/ --transition dissolve --easing inout
  kenburns export -i photos/ --scenario scenarios/latest.yaml`,
	RunE: runExport,
}

func init() {
	addInputFlags(exportCmd)
	f := exportCmd.Flags()
	f.StringVarP(&exp.OutputVideo, "output", "o", "", "Output mp4 (default: output/<input>_<timestamp>.mp4)")
	f.IntVar(&exp.FPS, "fps", exp.FPS, "Frames per second")
	f.IntVar(&exp.Workers, "workers", runtime.NumCPU(), "Concurrent segment encodes")
	f.StringVar(&exp.TransitionType, "transition", exp.TransitionType, "xfade transition: fade, wipeleft, slideup, pixelize, circlecrop, dissolve, none")
	f.StringVar(&exp.VideoEncoder, "encoder", "", "H.264 encoder (default: best available)")
	f.IntVar(&exp.Quality, "quality", 0, "0 picks per encoder; x264 CRF 1-51, VideoToolbox bitrate = Q*100 kbit/s")
	f.StringVar(&exp.Easing, "easing", exp.Easing, "Motion easing: linear or inout")
	f.BoolVar(&exp.Debug, "debug", false, "Burn slide numbers and anchor regions into the video")
	f.Float64Var(&exp.TotalDuration, "duration", 0, "Total video length in seconds, 0 keeps each plan's duration")
	f.StringVar(&exportScenario, "scenario", "", "Replay plans from a scenario YAML")
	f.StringVar(&exportRecord, "save-scenario", "", "Also write the rendered plans to this scenario YAML")
	rootCmd.AddCommand(exportCmd)
}

// autoQuality is a sensible default per encoder.
func autoQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

func defaultOutput(input string) string {
	base := filepath.Base(input)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, time.Now().Format("2006-01-02_15-04-05")))
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := openInput()
	if err != nil {
		return err
	}
	defer in.close()
	if in.indexed == nil {
		return errSequentialInput
	}

	exp.Width, exp.Height = outputSize()
	exp.DPI = dpi
	if exp.OutputVideo == "" {
		src, _ := resolveInput()
		exp.OutputVideo = defaultOutput(src)
	}
	if err := os.MkdirAll(filepath.Dir(exp.OutputVideo), 0755); err != nil {
		return err
	}
	if exp.VideoEncoder == "" {
		exp.VideoEncoder = system.GetBestH264Encoder(ctx)
		if exp.VideoEncoder != "libx264" {
			logger.Info().Str("encoder", exp.VideoEncoder).Msg("hardware encoder found")
		}
	}
	if exp.Quality == 0 {
		exp.Quality = autoQuality(exp.VideoEncoder)
	}

	det, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		return err
	}
	rng := random.New(cfg.Seed)
	var planner animation.Planner = animation.BuildPlanner(cfg, rng, det, logger)
	if exportScenario != "" {
		sc, err := director.ReadScenario(exportScenario)
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		planner = director.NewScriptedPlanner(sc, planner, logger)
	}

	project := engine.NewVideoProject(in.indexed, cfg, exp, planner, logger)
	project.Rand = rng
	if exportRecord != "" {
		project.Scenario = &director.Scenario{Version: director.Version}
	}
	if err := project.Run(ctx); err != nil {
		return err
	}

	if project.Scenario != nil {
		if err := director.WriteScenario(project.Scenario, exportRecord); err != nil {
			return err
		}
		logger.Info().Str("path", exportRecord).Msg("scenario written")
	}
	logger.Info().Str("output", exp.OutputVideo).Msg("done")
	return nil
}
