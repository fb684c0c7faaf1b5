package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"huecam/capture"
	"huecam/config"
	"huecam/detection"
	"huecam/display"
	"huecam/emitter"
	"huecam/lookup"
	"huecam/overlay"
	"huecam/tracking"
)

var (
	// Command-line flags
	configPath   = flag.String("config", "", "YAML configuration file; flags given on the command line override it")
	debugMode    = flag.Bool("debug", false, "Enable debug logging from every component")
	debugVerbose = flag.Bool("debug-verbose", false, "Enable verbose debug output (per-frame filter and overlay details)")
)

func init() {
	registerConfigFlags(flag.CommandLine, config.Defaults())
}

// registerConfigFlags declares one flag per configuration option. Only the
// flags actually given are applied over the config file.
func registerConfigFlags(fs *flag.FlagSet, d *config.Config) {
	fs.String("device", d.Device, "Camera index or stream URL\n\t\tExample: -device=0 or -device=rtsp://192.168.1.100:554/stream")
	fs.Int("sensitivity", d.Sensitivity, "Hue half-width of the tracked color range (0-179)")
	fs.Float64("min-region-area", d.MinRegionArea, "Smallest region area, in mask pixels, that is reported")
	fs.Int("frame-queue-depth", d.FrameQueueDepth, "Frame buffer depth (only 1 is supported)")
	fs.Duration("lookup-timeout", d.LookupTimeout, "Timeout for one color name request")
	fs.String("lookup-url", d.LookupURL, "Color naming endpoint")
	fs.Int("render-interval-ms", d.RenderInterval, "Render tick interval in milliseconds (1-1000)")
	fs.Int("read-timeout-ms", d.ReadTimeout, "How long a render tick waits for a frame")
	fs.Int("capture-yield-ms", d.CaptureYield, "Pause between camera reads")
	fs.Bool("smoothing", d.Smoothing, "Smooth the primary region centroid with a Kalman filter")
	fs.Bool("status-overlay", d.StatusOverlay, "Show mode, FPS and region count in the upper-left corner")
	fs.Bool("headless", d.Headless, "Run without a window (use the console and -jpg-path)")
	fs.String("jpg-path", d.JPGPath, "Directory for saving post-overlay JPEG frames")
	fs.Int("jpg-every", d.JPGEvery, "Save every Nth frame when -jpg-path is set")
	fs.String("mqtt-broker", d.MQTT.Broker, "MQTT broker for color and region events (empty disables)")
	fs.String("mqtt-client-id", d.MQTT.ClientID, "MQTT client ID")
	fs.String("mqtt-topic-prefix", d.MQTT.TopicPrefix, "MQTT topic prefix")
	fs.Int("mqtt-qos", d.MQTT.QoS, "MQTT QoS for events (0-2)")
	fs.Int("mqtt-region-interval-ms", d.MQTT.RegionInterval, "Minimum interval between region events")
}

// resolveConfig loads the config file and applies explicitly set flags over it
func resolveConfig(fs *flag.FlagSet, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	var setErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "debug", "debug-verbose":
			return
		}
		if err := cfg.Set(f.Name, f.Value.String()); err != nil && setErr == nil {
			setErr = err
		}
	})
	if setErr != nil {
		return nil, setErr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// wireDebug connects every package to the unified logger
func wireDebug() {
	capture.SetDebugFunction(debugMsg)
	detection.SetDebugFunction(debugMsg)
	detection.SetDebugVerboseFunction(debugMsgVerbose)
	lookup.SetDebugFunction(debugMsg)
	tracking.SetDebugFunction(debugMsg)
	tracking.SetDebugVerboseFunction(debugMsgVerbose)
	overlay.SetDebugVerboseFunction(debugMsgVerbose)
	display.SetDebugFunction(debugMsg)
}

func main() {
	flag.Parse()

	globalDebugLogger = NewDebugLogger(os.Stderr, *debugMode, *debugVerbose)
	slog.SetDefault(globalDebugLogger.Logger())
	wireDebug()

	cfg, err := resolveConfig(flag.CommandLine, *configPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		slog.Error("huecam stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	src := capture.NewDeviceSource(cfg.Device)
	if err := src.Open(); err != nil {
		return err
	}
	// Released last, after both loops have joined
	defer src.Close()

	width, height := src.Dimensions()
	slog.Info("camera opened", "device", cfg.Device, "width", width, "height", height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := NewPipelineStats()
	buf := capture.NewFrameBuffer()
	defer buf.Drain()

	lookups := lookup.NewService(lookup.NewHTTPNamer(cfg.LookupURL, cfg.LookupTimeout))

	filter := detection.NewHSVFilter(cfg.MinRegionArea)
	defer filter.Close()

	renderer := overlay.NewRenderer()
	var presenters display.Multi

	var window *display.Window
	if !cfg.Headless {
		window = display.NewWindow("huecam", renderer)
		defer window.Close()
		presenters = append(presenters, window)
	}

	if cfg.JPGPath != "" {
		rec, err := display.NewRecorder(cfg.JPGPath, cfg.JPGEvery, renderer)
		if err != nil {
			return err
		}
		defer rec.Close()
		presenters = append(presenters, rec)
		slog.Info("saving JPEG frames", "path", cfg.JPGPath, "every", cfg.JPGEvery)
	}

	settings := tracking.Settings{
		Sensitivity:   cfg.Sensitivity,
		ReadTimeout:   cfg.ReadTimeoutDuration(),
		Smoothing:     cfg.Smoothing,
		StatusOverlay: cfg.StatusOverlay,
	}
	coord := tracking.NewCoordinator(buf, filter, lookups, presenters, settings)
	defer coord.Close()
	coord.SetRecorder(stats)

	var wg sync.WaitGroup

	if cfg.MQTT.Broker != "" {
		pub := emitter.NewMQTTPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err := pub.Connect(ctx); err != nil {
			// Events are optional; keep tracking without them
			slog.Warn("mqtt unavailable, events disabled", "error", err)
		} else {
			defer pub.Disconnect()
			em := emitter.New(pub, emitter.Options{
				TopicPrefix:    cfg.MQTT.TopicPrefix,
				QoS:            byte(cfg.MQTT.QoS),
				RegionInterval: cfg.MQTT.RegionPeriod(),
			})
			coord.SetEventSink(em)
			wg.Add(1)
			go func() {
				defer wg.Done()
				em.Run(ctx)
			}()
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		capture.Loop(ctx, src, buf, capture.LoopOptions{
			Yield:    cfg.CaptureYieldDuration(),
			Recorder: stats,
		})
	}()
	go func() {
		defer wg.Done()
		lookups.Run(ctx)
	}()

	// Not joined: a pending stdin read cannot be interrupted
	go func() {
		if err := display.NewConsole(os.Stdin, os.Stdout, coord).Run(ctx, stop); err != nil {
			debugMsg("CONSOLE_WARN", fmt.Sprintf("Console stopped: %v", err))
		}
	}()

	slog.Info("pipeline running", "render_interval", cfg.RenderPeriod(), "headless", cfg.Headless)
	renderLoop(ctx, coord, window, cfg.RenderPeriod(), func() {
		stats.Report(slog.Default(), buf.Stats(), lookups.Stats())
	})

	stop()
	wg.Wait()
	slog.Info("pipeline stopped", "lookups_cached", lookups.Cache().Len())
	return nil
}

// renderLoop ticks the coordinator at a fixed interval on the calling
// goroutine, which also owns the window, until ctx is done or the user quits
func renderLoop(ctx context.Context, coord *tracking.Coordinator, window *display.Window, interval time.Duration, report func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	reportTicker := time.NewTicker(perfReportInterval)
	defer reportTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reportTicker.C:
			report()
		case <-ticker.C:
			coord.Tick()
			if window != nil && window.Poll(coord) {
				return
			}
		}
	}
}
