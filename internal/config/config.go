// Package config loads the SignSpeak YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/signspeak/internal/gesture"
)

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Recognition struct {
	K                   int     `yaml:"k"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	RequiredConsistency int     `yaml:"required_consistency"`
	DetectionIntervalMS int     `yaml:"detection_interval_ms"`
	RepeatIntervalMS    int     `yaml:"repeat_interval_ms"`
}

type Sequence struct {
	Strategy       gesture.Strategy `yaml:"strategy"`
	TimeoutMS      int              `yaml:"timeout_ms"`
	CooldownMS     int              `yaml:"cooldown_ms"`
	DTWThreshold   float64          `yaml:"dtw_threshold"`
	BufferSize     int              `yaml:"buffer_size"`
	MinFrames      int              `yaml:"min_frames"`
	TickIntervalMS int              `yaml:"tick_interval_ms"`
	MaxTemplates   int              `yaml:"max_templates"`
}

type Training struct {
	MinSamples int `yaml:"min_samples"`
}

type Storage struct {
	Path string `yaml:"path"`
}

type Server struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type Camera struct {
	Enabled         bool    `yaml:"enabled"`
	Device          int     `yaml:"device"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	FPS             int     `yaml:"fps"`
	Script          string  `yaml:"script"`
	Python          string  `yaml:"python"`
}

type Plugins struct {
	Dir       string `yaml:"dir"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type App struct {
	QueueSize int `yaml:"queue_size"`
}

// Config is the root of the configuration file.
type Config struct {
	Log         Log         `yaml:"log"`
	Recognition Recognition `yaml:"recognition"`
	Sequence    Sequence    `yaml:"sequence"`
	Training    Training    `yaml:"training"`
	Storage     Storage     `yaml:"storage"`
	Server      Server      `yaml:"server"`
	Camera      Camera      `yaml:"camera"`
	Plugins     Plugins     `yaml:"plugins"`
	App         App         `yaml:"app"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text"},
		Recognition: Recognition{
			K:                   gesture.DefaultK,
			ConfidenceThreshold: gesture.DefaultConfidenceThreshold,
			RequiredConsistency: gesture.DefaultRequiredConsistency,
			DetectionIntervalMS: 50,
			RepeatIntervalMS:    1500,
		},
		Sequence: Sequence{
			Strategy:       gesture.StrategyTokens,
			TimeoutMS:      5000,
			CooldownMS:     3000,
			DTWThreshold:   gesture.DefaultDTWThreshold,
			BufferSize:     gesture.DefaultMotionBuffer,
			MinFrames:      gesture.DefaultMotionMinimum,
			TickIntervalMS: 1000,
			MaxTemplates:   gesture.DefaultMaxTemplates,
		},
		Training: Training{MinSamples: gesture.DefaultMinSamples},
		Storage:  Storage{Path: "~/.signspeak/signspeak.db"},
		Server:   Server{Addr: ":8080"},
		Camera: Camera{
			Device:          0,
			MotionThreshold: 1.0,
			FPS:             30,
			Script:          "scripts/hand_landmarks.py",
			Python:          "python3",
		},
		Plugins: Plugins{Dir: "~/.signspeak/plugins", TimeoutMS: 5000},
		App:     App{QueueSize: 8},
	}
}

// Load reads the YAML file at path over the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg. Keys absent from the document keep
// their current values.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Write encodes cfg as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	r := c.Recognition
	check(r.K >= 1, "recognition.k must be at least 1, got %d", r.K)
	check(r.ConfidenceThreshold >= 0 && r.ConfidenceThreshold < 1,
		"recognition.confidence_threshold must be in [0, 1), got %g", r.ConfidenceThreshold)
	check(r.RequiredConsistency >= 1, "recognition.required_consistency must be at least 1, got %d", r.RequiredConsistency)
	check(r.DetectionIntervalMS >= 0, "recognition.detection_interval_ms must not be negative")
	check(r.RepeatIntervalMS >= 0, "recognition.repeat_interval_ms must not be negative")

	s := c.Sequence
	check(s.Strategy.Valid(), "sequence.strategy must be %q or %q, got %q", gesture.StrategyTokens, gesture.StrategyMotion, s.Strategy)
	check(s.TimeoutMS >= 0, "sequence.timeout_ms must not be negative")
	check(s.CooldownMS >= 0, "sequence.cooldown_ms must not be negative")
	check(s.DTWThreshold > 0, "sequence.dtw_threshold must be positive, got %g", s.DTWThreshold)
	check(s.BufferSize >= 1, "sequence.buffer_size must be at least 1, got %d", s.BufferSize)
	check(s.MinFrames >= 1 && s.MinFrames <= s.BufferSize,
		"sequence.min_frames must be between 1 and buffer_size, got %d", s.MinFrames)
	check(s.TickIntervalMS >= 0, "sequence.tick_interval_ms must not be negative")
	check(s.MaxTemplates >= 1, "sequence.max_templates must be at least 1, got %d", s.MaxTemplates)

	check(c.Training.MinSamples >= 1, "training.min_samples must be at least 1, got %d", c.Training.MinSamples)
	check(c.Storage.Path != "", "storage.path is required")
	check(c.Camera.MotionThreshold >= 0, "camera.motion_threshold must not be negative")
	check(c.Camera.FPS >= 1, "camera.fps must be at least 1, got %d", c.Camera.FPS)
	check(c.Plugins.TimeoutMS >= 0, "plugins.timeout_ms must not be negative")
	check(c.App.QueueSize >= 1, "app.queue_size must be at least 1, got %d", c.App.QueueSize)

	return errors.Join(errs...)
}

// StabilizerConfig returns the stabilizer settings.
func (c *Config) StabilizerConfig() gesture.StabilizerConfig {
	return gesture.StabilizerConfig{
		ConfidenceThreshold: c.Recognition.ConfidenceThreshold,
		RequiredConsistency: c.Recognition.RequiredConsistency,
		DetectionInterval:   Millis(c.Recognition.DetectionIntervalMS),
		RepeatInterval:      Millis(c.Recognition.RepeatIntervalMS),
	}
}

// TokenConfig returns the token sequencer settings.
func (c *Config) TokenConfig() gesture.TokenConfig {
	return gesture.TokenConfig{
		Timeout:  Millis(c.Sequence.TimeoutMS),
		Cooldown: Millis(c.Sequence.CooldownMS),
	}
}

// MotionConfig returns the motion sequencer settings.
func (c *Config) MotionConfig() gesture.MotionConfig {
	return gesture.MotionConfig{
		Threshold:    c.Sequence.DTWThreshold,
		BufferSize:   c.Sequence.BufferSize,
		TickInterval: Millis(c.Sequence.TickIntervalMS),
		MinFrames:    c.Sequence.MinFrames,
		MaxTemplates: c.Sequence.MaxTemplates,
	}
}

// Millis converts a millisecond count to a duration.
func Millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
