package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/kenburns/internal/analyzer"
	"github.com/ivlev/kenburns/internal/animation"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/random"
)

var (
	planOutput string
	planDir    string
)

var errSequentialInput = errors.New("playlists have no fixed order to plan; use a PDF, file or directory")

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Write the pan/zoom plan of every image to a scenario YAML",
	Long: `Plan every image of the input once and record the result as a scenario.
A scenario can be edited and replayed by "play --scenario" and
"export --scenario".`,
	RunE: runPlan,
}

func init() {
	addInputFlags(planCmd)
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "Scenario path (default: timestamped file in --dir)")
	planCmd.Flags().StringVar(&planDir, "dir", "scenarios", "Directory for timestamped scenarios")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	det, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		return err
	}
	planner := animation.BuildPlanner(cfg, random.New(cfg.Seed), det, logger)

	w, h := outputSize()
	sc, err := director.NewDirector(planner, w, h, logger).GenerateScenario(ctx, in.indexed)
	if err != nil {
		return err
	}

	path := planOutput
	if path == "" {
		path = director.GenerateScenarioPath(planDir, time.Now())
	}
	if err := director.WriteScenario(sc, path); err != nil {
		return err
	}
	logger.Info().Str("path", path).Int("slides", len(sc.Slides)).Msg("scenario written")
	return nil
}
