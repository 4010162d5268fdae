package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/synesthesia/internal/analytics"
	"github.com/udisondev/synesthesia/internal/clock"
	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/geo"
	"github.com/udisondev/synesthesia/internal/loop"
	"github.com/udisondev/synesthesia/internal/spawn"
	"github.com/udisondev/synesthesia/internal/view"
	"github.com/udisondev/synesthesia/internal/world"
)

const (
	ConfigPath = "config/synesthesia.yaml"

	headlessPumpInterval = 10 * time.Millisecond
	objectSmoothing      = 0.25
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", ConfigPath, "path to YAML config")
	flag.Parse()
	if p := os.Getenv("SYNESTHESIA_CONFIG"); p != "" {
		*cfgPath = p
	}

	cfg, err := config.LoadApp(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logOut, closeLog, err := logOutput(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("synesthesia starting",
		"config", *cfgPath,
		"log_level", cfg.LogLevel,
		"bpm", cfg.Clock.BPM,
		"pool_size", cfg.Spawner.PoolSize)

	// Terrain
	terrain := geo.NewEngine(cfg.Terrain)
	if cfg.Terrain.Dir != "" {
		if err := terrain.LoadDir(cfg.Terrain.Dir); err != nil {
			return fmt.Errorf("loading terrain: %w", err)
		}
	} else {
		terrain.Generate(geo.Hills(cfg.Terrain.BaseHeight, cfg.Terrain.HillAmplitude, cfg.Terrain.HillWavelength))
	}

	// Hosted objects and listener
	objects := world.New(0)
	objects.RegisterPrototype(cfg.Spawner.Prototype)
	walker := world.NewWalker(cfg.Listener.Start, cfg.Listener.Direction, cfg.Listener.Speed)

	authority := debug.NewAuthority(cfg.Spawner.Debug)

	var (
		sink     debug.Sink = debug.LogSink{}
		terminal *view.Terminal
	)
	if cfg.View.Enabled {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("creating screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("initializing screen: %w", err)
		}
		defer screen.Fini()
		terminal = view.NewTerminal(screen, cfg.View.UnitsPerCell, cfg.View.MaxShapes)
		sink = terminal
	}

	spawner, err := spawn.New(cfg.Spawner, spawn.Dependencies{
		Host:     objects,
		Probe:    terrain,
		Listener: walker,
		Sink:     sink,
		Debug:    authority,
		Anchor:   cfg.Listener.Start,
	})
	if err != nil {
		return fmt.Errorf("creating spawner: %w", err)
	}

	var publisher *analytics.Publisher
	if cfg.Analytics.Enabled {
		publisher = analytics.NewPublisher(analytics.NewWriter(cfg.Analytics), cfg.Analytics.Source)
		defer func() {
			if err := publisher.Close(); err != nil {
				slog.Warn("closing analytics", "err", err)
			}
		}()
		spawner.Locations().OnExtended(publisher.LocationsExtended)
		slog.Info("analytics enabled", "brokers", cfg.Analytics.Brokers, "topic", cfg.Analytics.Topic)
	}

	if err := spawner.Start(); err != nil {
		return fmt.Errorf("starting spawner: %w", err)
	}
	defer spawner.Stop()
	if publisher != nil {
		publisher.SessionStarted(analytics.SessionStarted{
			PoolSize:  cfg.Spawner.PoolSize,
			Locations: spawner.Locations().Len(),
			ClockName: cfg.Spawner.ClockName,
		})
	}

	metronome := clock.NewMetronome(clock.Settings{
		Name:        cfg.Spawner.ClockName,
		SampleRate:  beep.SampleRate(cfg.Clock.SampleRate),
		BPM:         cfg.Clock.BPM,
		BeatsPerBar: cfg.Clock.BeatsPerBar,
		Click:       cfg.Clock.Click,
	})

	queue := loop.NewQueue(cfg.Clock.QueueSize)
	spawner.Bind(metronome, func(fn func()) {
		if !queue.Post(fn) {
			slog.Warn("clock event dropped", "pending", queue.Pending())
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting dispatch loop", "queue_size", cfg.Clock.QueueSize)
		if err := queue.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("dispatch loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if cfg.Clock.AudioOutput {
			slog.Info("starting clock", "driver", "speaker", "sample_rate", cfg.Clock.SampleRate)
			return runSpeaker(gctx, metronome)
		}
		slog.Info("starting clock", "driver", "timer", "interval", headlessPumpInterval)
		return runHeadless(gctx, metronome)
	})

	g.Go(func() error {
		slog.Info("starting listener", "speed", cfg.Listener.Speed, "step_every", cfg.Listener.StepEvery)
		runWalker(gctx, queue, walker, objects, cfg.Listener.StepEvery)
		return nil
	})

	if terminal != nil {
		g.Go(func() error {
			err := terminal.Run(gctx, cfg.View.FPS, func() {
				pos, _ := walker.Position()
				terminal.SetCamera(pos)
				terminal.SetListener(pos)
				terminal.SetObjects(markers(objects))
				// spawner state belongs to the dispatch loop
				queue.Post(func() {
					terminal.SetStatus(fmt.Sprintf("debug:%v locations:%d nearest:%d  [d] debug  [q] quit",
						authority.Enabled(), spawner.Locations().Len(), spawner.Scheduler().NearestIndex()))
				})
			}, func(ev *tcell.EventKey) bool {
				switch {
				case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
					return false
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
					return false
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'd':
					queue.Post(func() {
						authority.Toggle()
						if !authority.Enabled() {
							terminal.ClearShapes()
						}
					})
				}
				return true
			})
			if err != nil {
				return fmt.Errorf("view: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	queue.Stop()
	slog.Info("synesthesia stopped",
		"locations", spawner.Locations().Len(),
		"events", queue.Processed(),
		"dropped", queue.Dropped(),
		"elapsed", metronome.Elapsed())

	if err != nil && !errors.Is(err, view.ErrQuit) {
		return fmt.Errorf("synesthesia error: %w", err)
	}
	return nil
}

// runSpeaker plays the metronome on the default audio device.
func runSpeaker(ctx context.Context, m *clock.Metronome) error {
	sr := m.SampleRate()
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(m)
	<-ctx.Done()
	speaker.Clear()
	speaker.Close()
	return nil
}

// runHeadless advances the metronome by wall-clock time without audio.
func runHeadless(ctx context.Context, m *clock.Metronome) error {
	ticker := time.NewTicker(headlessPumpInterval)
	defer ticker.Stop()

	start := time.Now()
	streamed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			target := m.SampleRate().N(time.Since(start))
			m.Advance(target - streamed)
			streamed = target
		}
	}
}

// runWalker moves the listener and eases objects toward their destinations
// on the dispatch loop.
func runWalker(ctx context.Context, queue *loop.Queue, walker *world.Walker, objects *world.World, every time.Duration) {
	if every <= 0 {
		every = 50 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			queue.Post(func() {
				walker.Advance(every)
				objects.Step(objectSmoothing)
			})
		}
	}
}

func markers(w *world.World) []view.Marker {
	objs := w.Objects()
	out := make([]view.Marker, 0, len(objs))
	for _, o := range objs {
		out = append(out, view.Marker{Position: o.Transform.Position, Visible: o.Visible})
	}
	return out
}

// logOutput picks the log destination. While the view owns the terminal,
// logs go to LogFile or nowhere.
func logOutput(cfg config.App) (io.Writer, func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.LogFile, err)
		}
		return f, func() { _ = f.Close() }, nil
	}
	if cfg.View.Enabled {
		return io.Discard, func() {}, nil
	}
	return os.Stdout, func() {}, nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var _ spawn.GroundProbeService = (*geo.Engine)(nil)
