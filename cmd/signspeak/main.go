// Command signspeak recognizes sign language words and sentences from
// hand landmarks and runs bound actions.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/signspeak/internal/config"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
	"github.com/ayusman/signspeak/internal/store"
)

// EnvPrefix prefixes the environment variables that override the config
// file, e.g. SIGNSPEAK_SERVER_ADDR for server.addr.
const EnvPrefix = "SIGNSPEAK"

const defaultConfigPath = "~/.signspeak/config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// env carries the settings shared by every subcommand.
type env struct {
	v          *viper.Viper
	configPath string
}

func newRootCmd() *cobra.Command {
	e := &env{v: viper.New()}
	e.v.SetEnvPrefix(EnvPrefix)
	e.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	e.v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "signspeak",
		Short:        "Sign language recognition from hand landmarks",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", defaultConfigPath, "config file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.String("db", "", "library database path")
	e.bind(root, "log.level", "log-level")
	e.bind(root, "log.format", "log-format")
	e.bind(root, "storage.path", "db")

	root.AddCommand(
		newServeCmd(e),
		newTrainCmd(e),
		newGesturesCmd(e),
		newSentencesCmd(e),
		newExportCmd(e),
		newImportCmd(e),
		newConfigCmd(e),
	)
	return root
}

// bind ties a flag to a config key. Persistent flags are looked up first.
func (e *env) bind(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := e.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind %s: %v", flag, err))
	}
}

// load reads the config file and applies environment and flag overrides.
func (e *env) load() (*config.Config, error) {
	path := e.configPath
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" && path == defaultConfigPath {
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(e.v, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies every key set by a flag or environment variable into cfg.
func applyOverrides(v *viper.Viper, cfg *config.Config) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("log.level", &cfg.Log.Level)
	setString("log.format", &cfg.Log.Format)

	setInt("recognition.k", &cfg.Recognition.K)
	setFloat("recognition.confidence_threshold", &cfg.Recognition.ConfidenceThreshold)
	setInt("recognition.required_consistency", &cfg.Recognition.RequiredConsistency)
	setInt("recognition.detection_interval_ms", &cfg.Recognition.DetectionIntervalMS)
	setInt("recognition.repeat_interval_ms", &cfg.Recognition.RepeatIntervalMS)

	if v.IsSet("sequence.strategy") {
		cfg.Sequence.Strategy = gesture.Strategy(v.GetString("sequence.strategy"))
	}
	setInt("sequence.timeout_ms", &cfg.Sequence.TimeoutMS)
	setInt("sequence.cooldown_ms", &cfg.Sequence.CooldownMS)
	setFloat("sequence.dtw_threshold", &cfg.Sequence.DTWThreshold)
	setInt("sequence.buffer_size", &cfg.Sequence.BufferSize)
	setInt("sequence.min_frames", &cfg.Sequence.MinFrames)
	setInt("sequence.tick_interval_ms", &cfg.Sequence.TickIntervalMS)
	setInt("sequence.max_templates", &cfg.Sequence.MaxTemplates)

	setInt("training.min_samples", &cfg.Training.MinSamples)
	setString("storage.path", &cfg.Storage.Path)
	setString("server.addr", &cfg.Server.Addr)
	setString("server.static_dir", &cfg.Server.StaticDir)

	setBool("camera.enabled", &cfg.Camera.Enabled)
	setInt("camera.device", &cfg.Camera.Device)
	setFloat("camera.motion_threshold", &cfg.Camera.MotionThreshold)
	setInt("camera.fps", &cfg.Camera.FPS)
	setString("camera.script", &cfg.Camera.Script)
	setString("camera.python", &cfg.Camera.Python)

	setString("plugins.dir", &cfg.Plugins.Dir)
	setInt("plugins.timeout_ms", &cfg.Plugins.TimeoutMS)
	setInt("app.queue_size", &cfg.App.QueueSize)
}

// setup loads the config, builds the logger and opens the store.
func (e *env) setup(cmd *cobra.Command) (*config.Config, *logrus.Logger, *store.Store, error) {
	cfg, err := e.load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := store.New(config.ExpandHome(cfg.Storage.Path))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open library: %w", err)
	}
	return cfg, logger, st, nil
}
