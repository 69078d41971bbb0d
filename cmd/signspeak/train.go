package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
)

func newTrainCmd(e *env) *cobra.Command {
	var (
		samples     int
		description string
		interval    time.Duration
		add         bool
	)

	cmd := &cobra.Command{
		Use:   "train LABEL",
		Short: "Capture samples for a word from the camera",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			trainer := gesture.NewTrainer(st.Library(), cfg.Training.MinSamples, logging.Component(logger, "trainer"))
			if samples <= 0 {
				samples = trainer.MinSamples()
			}

			detCfg := detector.DefaultConfig()
			detCfg.Script = cfg.Camera.Script
			detCfg.Python = cfg.Camera.Python
			det, err := detector.NewMediaPipeDetector(detCfg, logging.Component(logger, "detector"))
			if err != nil {
				return err
			}
			defer det.Close()

			cam := capture.NewCamera(capture.Config{Device: cfg.Camera.Device, FPS: cfg.Camera.FPS})
			if err := cam.Open(); err != nil {
				return err
			}
			defer cam.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			label := args[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Capturing %d samples of %q. Hold the sign in view.\n", samples, label)

			session := gesture.NewSession(label)
			if err := captureSamples(ctx, cam, det, session, samples, interval, progress(out, samples)); err != nil {
				return err
			}

			var g *gesture.Gesture
			if add {
				g, err = trainer.AddSamples(label, session.Samples())
			} else {
				g, err = trainer.SaveGesture(label, description, session.Samples())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %q with %d samples.\n", g.Label, len(g.Samples))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&samples, "samples", "n", 0, "samples to capture (default training.min_samples)")
	flags.StringVarP(&description, "description", "d", "", "gesture description")
	flags.DurationVar(&interval, "interval", 100*time.Millisecond, "time between captures")
	flags.BoolVar(&add, "add", false, "append to an existing gesture")
	return cmd
}

// captureSamples reads frames until session holds n samples. Frames
// without a hand are skipped.
func captureSamples(ctx context.Context, cam capture.Camera, det detector.Detector, session *gesture.Session, n int, interval time.Duration, onSample func(int)) error {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for session.Len() < n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := cam.ReadFrame()
		if errors.Is(err, capture.ErrNoFrame) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		hands, err := det.Detect(frame)
		frame.Close()
		if err != nil {
			return fmt.Errorf("detect hands: %w", err)
		}

		if err := session.Capture(detector.FirstWorld(hands)); errors.Is(err, gesture.ErrNoHandDetected) {
			continue
		} else if err != nil {
			return err
		}
		if onSample != nil {
			onSample(session.Len())
		}
	}
	return nil
}

func progress(w io.Writer, total int) func(int) {
	return func(n int) {
		fmt.Fprintf(w, "\r%d/%d", n, total)
		if n == total {
			fmt.Fprintln(w)
		}
	}
}
