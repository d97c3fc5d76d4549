package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/kenburns/internal/control"
	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/preview"
	"github.com/ivlev/kenburns/internal/scheduler"
	"github.com/ivlev/kenburns/internal/system"
	"github.com/ivlev/kenburns/internal/telemetry"
)

var (
	playListen       string
	playSnapshots    string
	playSnapshotRate time.Duration
	playScenario     string
	playFor          time.Duration
	playStatsEvery   time.Duration
	playShowRegions  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run the slideshow on a headless preview surface",
	Long: `Run the slideshow scheduler against a headless preview surface.

The slideshow is remote-controlled over HTTP (POST /pause, /resume, /next,
/previous, /start, /stop; GET /status, /metrics, /qr). SIGUSR1 pauses and SIGUSR2
resumes. Frames can be written as PNG snapshots.

Examples:
  kenburns play -i photos/ --listen :8080
  kenburns play -i deck.pdf --snapshots out/frames --snapshot-every 500ms
  kenburns play -i photos/ --scenario scenarios/scenario_2026-02-13_01-00-00.yaml
`,
	RunE: runPlay,
}

func init() {
	addInputFlags(playCmd)
	f := playCmd.Flags()
	f.StringVar(&playListen, "listen", ":8080", "Control server address, empty disables it")
	f.StringVar(&playSnapshots, "snapshots", "", "Directory for PNG snapshots, empty disables them")
	f.DurationVar(&playSnapshotRate, "snapshot-every", time.Second, "Snapshot interval")
	f.StringVar(&playScenario, "scenario", "", "Replay plans from a scenario YAML")
	f.DurationVar(&playFor, "for", 0, "Stop after this long, 0 runs until interrupted")
	f.DurationVar(&playStatsEvery, "stats-every", 0, "Log host load at this interval, 0 disables it")
	f.BoolVar(&playShowRegions, "show-regions", false, "Outline detected anchor regions")
	rootCmd.AddCommand(playCmd)
}

// transitionLog reports crossfades.
type transitionLog struct{}

func (transitionLog) TransitionStarted(item media.Item) {
	logger.Info().Str("from", item.ID).Stringer("kind", item.Kind).Msg("transition started")
}

func (transitionLog) TransitionFinished() {
	logger.Debug().Msg("transition finished")
}

func runPlay(cmd *cobra.Command, args []string) (err error) {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	if playShowRegions {
		cfg.ShowFaceRegions = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if playFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playFor)
		defer cancel()
	}

	in, err := openInput()
	if err != nil {
		return err
	}
	defer in.close()

	w, h := outputSize()
	surface := preview.New(w, h, preview.WithLogger(logger))
	metrics := telemetry.NewMetrics()

	opts := []func(*scheduler.Scheduler){
		scheduler.WithLogger(logger),
		scheduler.WithOverlay(surface),
		scheduler.WithRecorder(metrics),
		scheduler.WithObserver(transitionLog{}),
	}
	if playScenario != "" {
		sc, err := director.ReadScenario(playScenario)
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		opts = append(opts, scheduler.WithPlannerFactory(director.PlannerFactory(sc)))
		logger.Info().Str("scenario", playScenario).Int("slides", len(sc.Slides)).Msg("replaying scenario")
	}

	var sw *preview.SnapshotWriter
	if playSnapshots != "" {
		if sw, err = preview.NewSnapshotWriter(playSnapshots, logger); err != nil {
			return err
		}
	}

	sched := scheduler.New(ctx, in.feed, surface, cfg, opts...)
	defer func() {
		if cerr := sched.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close scheduler: %w", cerr)
		}
	}()
	if err := sched.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pauseOnSignals(gctx, sched) })
	if playListen != "" {
		g.Go(func() error {
			return control.Serve(gctx, playListen, control.NewRouter(sched, metrics, logger), logger)
		})
	}
	if sw != nil {
		g.Go(func() error { return sw.Capture(gctx, surface, playSnapshotRate) })
	}
	if playStatsEvery > 0 {
		g.Go(func() error { return logStats(gctx, playStatsEvery) })
	}

	err = g.Wait()
	logger.Info().Msg("slideshow stopped")
	return err
}

// pauseOnSignals maps SIGUSR1 to Pause and SIGUSR2 to Resume.
func pauseOnSignals(ctx context.Context, sched *scheduler.Scheduler) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			var err error
			if s == syscall.SIGUSR1 {
				err = sched.Pause()
			} else {
				err = sched.Resume()
			}
			if err != nil {
				logger.Warn().Err(err).Stringer("signal", s).Msg("signal ignored")
			}
		}
	}
}

func logStats(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats, err := system.Snapshot(ctx, 0)
			if err != nil {
				logger.Debug().Err(err).Msg("stats unavailable")
				continue
			}
			stats.Fields(logger.Info()).Msg("system stats")
		}
	}
}
