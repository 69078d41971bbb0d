package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/signspeak/internal/app"
	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/config"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
	"github.com/ayusman/signspeak/internal/plugin"
	"github.com/ayusman/signspeak/internal/server"
	"github.com/ayusman/signspeak/internal/tray"
)

const dispatchBuffer = 64

func newServeCmd(e *env) *cobra.Command {
	var withTray bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recognition loop, HTTP API and plugin dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, e, withTray)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&withTray, "tray", false, "show a system tray menu")
	flags.String("addr", "", "HTTP listen address")
	flags.String("static", "", "directory of web UI assets")
	flags.String("strategy", "", "sentence strategy (tokens, motion)")
	flags.Bool("camera", false, "capture landmarks from a local camera")
	flags.Int("device", 0, "camera device index")
	flags.String("plugins", "", "plugin directory")
	e.bind(cmd, "server.addr", "addr")
	e.bind(cmd, "server.static_dir", "static")
	e.bind(cmd, "sequence.strategy", "strategy")
	e.bind(cmd, "camera.enabled", "camera")
	e.bind(cmd, "camera.device", "device")
	e.bind(cmd, "plugins.dir", "plugins")
	return cmd
}

func runServe(cmd *cobra.Command, e *env, withTray bool) error {
	cfg, logger, st, err := e.setup(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	log := logging.Component(logger, "main")

	lib := st.Library()
	trainer := gesture.NewTrainer(lib, cfg.Training.MinSamples, logging.Component(logger, "trainer"))

	appCfg := app.Config{Library: lib, Settings: cfg, Logger: logger}
	if cfg.Camera.Enabled {
		if err := attachCamera(&appCfg, cfg, logger); err != nil {
			log.WithError(err).Warn("camera disabled")
		} else if appCfg.Gate != nil {
			defer appCfg.Gate.Close()
		}
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	if err := a.Open(); err != nil {
		return err
	}
	defer a.Close()

	manager := plugin.NewManager(config.ExpandHome(cfg.Plugins.Dir), logging.Component(logger, "plugins"))
	if err := manager.Discover(); err != nil {
		log.WithError(err).Warn("plugin discovery failed")
	}
	dispatcher := plugin.NewDispatcher(
		st.Bindings(),
		manager,
		plugin.NewExecutor(config.Millis(cfg.Plugins.TimeoutMS)),
		logging.Component(logger, "dispatch"),
	)
	events, unsubscribe := a.Subscribe(dispatchBuffer)
	defer unsubscribe()

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.WithField("dir", staticDir).Info("serving static files")
	}

	srvCfg := server.Config{
		StaticDir: staticDir,
		Store:     st,
		App:       a,
		Trainer:   trainer,
		Logger:    logger,
	}
	if appCfg.Camera != nil {
		srvCfg.Preview = a
	}
	srv := server.New(srvCfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx, events)
	})

	if withTray {
		t := tray.New(a, logging.Component(logger, "tray"))
		t.OnSettings(func() {
			log.WithField("url", "http://localhost"+cfg.Server.Addr).Info("settings")
		})
		t.OnQuit(stop)
		t.Run(gctx)
		stop()
	}

	err = g.Wait()
	a.Stop()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("shutdown complete")
	return err
}

// attachCamera opens the local landmark source: camera, motion gate and
// MediaPipe helper. Nothing is attached when the helper cannot be found.
func attachCamera(appCfg *app.Config, cfg *config.Config, logger *logrus.Logger) error {
	detCfg := detector.DefaultConfig()
	detCfg.Script = cfg.Camera.Script
	detCfg.Python = cfg.Camera.Python

	det, err := detector.NewMediaPipeDetector(detCfg, logging.Component(logger, "detector"))
	if err != nil {
		return err
	}

	appCfg.Detector = det
	appCfg.Camera = capture.NewCamera(capture.Config{
		Device: cfg.Camera.Device,
		FPS:    cfg.Camera.FPS,
	})
	if cfg.Camera.MotionThreshold > 0 {
		appCfg.Gate = capture.NewGate(capture.NewMotionDetector(cfg.Camera.MotionThreshold), capture.DefaultHold)
	}
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.signspeak/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	candidates := []string{"web", "../web", "../../web", config.ExpandHome("~/.signspeak/web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
