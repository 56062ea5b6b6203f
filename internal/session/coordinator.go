package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anand-san/murmur/internal/audio"
	"github.com/anand-san/murmur/internal/dispatch"
	"github.com/anand-san/murmur/internal/events"
	"github.com/anand-san/murmur/internal/fsm"
	"github.com/anand-san/murmur/internal/wav"
)

type captureResult struct {
	stats audio.Stats
	err   error
}

// coordinate runs once per capture. Every path ends in fsm.StateIdle, and
// none reaches it before the engine has closed the stream.
func (c *Controller) coordinate(ctx context.Context, rec *Recording, handoff *audio.Handoff, captured <-chan captureResult) {
	ticker := time.NewTicker(c.pollInterval())
	for rec.live.Load() {
		<-ticker.C
		rec.drain(handoff)
	}
	ticker.Stop()
	rec.StoppedAt = c.now()

	logger := c.logger.With("session_id", rec.ID, "shortcut", rec.Shortcut)
	result := c.awaitCapture(rec, handoff, captured, logger)
	handoff.Close()
	rec.drain(handoff)

	logger.Info("capture stopped",
		"samples", rec.Samples(),
		"chunks", result.stats.Chunks,
		"dropped", result.stats.Dropped,
		"callbacks", result.stats.Callbacks,
	)

	if result.err != nil {
		c.reportError(rec, "capture", result.err)
		c.finish(rec, fsm.EventFail)
		return
	}

	if rec.Empty() {
		logger.Info("no audio captured")
		c.finish(rec, fsm.EventDiscard)
		return
	}

	final, err := rec.Finalize()
	if err != nil {
		c.reportError(rec, "encode", err)
		c.finish(rec, fsm.EventFail)
		return
	}

	durationMS := final.Duration.Milliseconds()
	if final.Duration <= c.opts.Recorder.MinDuration() {
		logger.Info("recording discarded", "duration_ms", durationMS, "min_duration_ms", c.opts.Recorder.MinDurationMS)
		c.ind.CueDiscard(ctx)
		c.finish(rec, fsm.EventDiscard)
		return
	}

	next, err := c.advance(fsm.EventDispatch)
	if err != nil {
		logger.Error("state transition failed", "event", string(fsm.EventDispatch), "error", err.Error())
		c.finish(rec, fsm.EventFail)
		return
	}
	c.notifyState(next)

	if c.opts.DebugDump {
		if path, err := wav.WriteDebugFile("murmur-"+rec.ID, final.Container, rec.StoppedAt); err != nil {
			logger.Warn("debug audio dump failed", "error", err.Error())
		} else {
			logger.Info("debug audio dumped", "path", path)
		}
	}

	payload := events.AudioDataAvailable{
		SessionID:  rec.ID,
		Mode:       string(rec.Action),
		Bytes:      len(final.Container),
		DurationMS: durationMS,
	}
	if c.opts.IncludeAudio {
		payload.Audio = final.Container
	}
	c.emitter.Emit(events.KindAudioDataAvailable, payload)

	logger.Info("dispatching recording", "duration_ms", durationMS, "bytes", len(final.Container), "action", string(rec.Action))
	started := c.now()
	err = c.dispatch(ctx, rec, final.Container)
	if err != nil {
		c.reportError(rec, dispatch.Stage(err, "dispatch"), err)
		c.finish(rec, fsm.EventFail)
		return
	}
	logger.Info("dispatch complete", "latency_ms", c.now().Sub(started).Milliseconds())
	c.ind.CueComplete(ctx)
	c.finish(rec, fsm.EventComplete)
}

// awaitCapture waits for the engine to tear its stream down, draining the
// handoff meanwhile. Past the stop timeout it warns and keeps waiting: the
// recorder stays busy until the device is released.
func (c *Controller) awaitCapture(rec *Recording, handoff *audio.Handoff, captured <-chan captureResult, logger *slog.Logger) captureResult {
	timer := time.NewTimer(c.stopTimeout())
	defer timer.Stop()
	ticker := time.NewTicker(c.pollInterval())
	defer ticker.Stop()

	warned := false
	for {
		select {
		case res := <-captured:
			if warned {
				logger.Info("capture stream closed late")
			}
			return res
		case <-ticker.C:
			rec.drain(handoff)
		case <-timer.C:
			warned = true
			logger.Warn("capture stream did not stop in time; waiting for the device", "timeout", c.stopTimeout().String())
		}
	}
}

func (c *Controller) dispatch(ctx context.Context, rec *Recording, container []byte) error {
	if c.opts.Router == nil {
		return errors.New("no dispatcher configured")
	}
	return c.opts.Router.Dispatch(ctx, rec.Action, rec.ID, container)
}

func (c *Controller) pollInterval() time.Duration {
	if d := c.opts.Recorder.PollInterval(); d > 0 {
		return d
	}
	return 50 * time.Millisecond
}

func (c *Controller) stopTimeout() time.Duration {
	if d := c.opts.Recorder.CaptureStopTimeout(); d > 0 {
		return d
	}
	return 2 * time.Second
}
