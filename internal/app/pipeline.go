package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/detector"
)

// runCamera feeds the recognition queue from the local camera.
//
// Pipeline logic:
// 1. Read a frame at the camera rate
// 2. Keep a JPEG copy for the preview stream
// 3. Skip hand detection while the motion gate is closed
// 4. Detect hands and submit the first hand's world landmarks
// 5. Submit an empty frame when no hand is visible so stale hits decay
func (a *App) runCamera(ctx context.Context) {
	fps := a.cfg.Camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			if err := a.captureOnce(); err != nil {
				if errors.Is(err, capture.ErrEndOfStream) {
					a.log.Info("camera stream ended")
					return
				}
				a.log.WithError(err).Debug("camera frame skipped")
			}
		}
	}
}

func (a *App) captureOnce() error {
	frame, err := a.cfg.Camera.ReadFrame()
	if err != nil {
		return err
	}
	defer frame.Close()

	a.storePreview(frame)

	if a.cfg.Gate != nil && !a.cfg.Gate.Open(a.now(), frame) {
		return nil
	}

	hands, err := a.cfg.Detector.Detect(frame)
	if err != nil {
		return err
	}

	a.Submit(detector.FirstWorld(hands))
	return nil
}

func (a *App) storePreview(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	jpeg := append([]byte(nil), buf.GetBytes()...)
	a.preview.Store(&jpeg)
}

// Preview returns the latest camera frame as JPEG.
func (a *App) Preview() ([]byte, bool) {
	p := a.preview.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}
