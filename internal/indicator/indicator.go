// Package indicator plays capture cues and raises desktop notifications for failures.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/anand-san/murmur/internal/config"
)

// Cues is the indicator used by running sessions.
type Cues struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	soundMu sync.Mutex
	wg      sync.WaitGroup

	play   func(cueKind, config.IndicatorConfig) error
	notify func(title string, message string) error
}

// New creates cues from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Cues {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cues{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
		play:     emitCue,
		notify:   desktopNotify,
	}
}

// CueStart signals that the microphone is live.
func (c *Cues) CueStart(context.Context) {
	c.playCue(cueStart)
}

// CueDiscard signals a recording too short to send.
func (c *Cues) CueDiscard(context.Context) {
	c.playCue(cueDiscard)
}

// CueComplete signals a successful dispatch.
func (c *Cues) CueComplete(context.Context) {
	c.playCue(cueComplete)
}

// ShowError raises a desktop notification for a processing error.
func (c *Cues) ShowError(_ context.Context, text string) {
	if !c.cfg.Enable || !c.cfg.NotifyErrors {
		return
	}
	if strings.TrimSpace(text) == "" {
		text = c.messages.errorText
	}
	if err := c.notify(c.title(), text); err != nil {
		c.log("desktop notification failed", err)
	}
}

// Wait blocks until queued cues have finished playing.
func (c *Cues) Wait() {
	c.wg.Wait()
}

func (c *Cues) title() string {
	if name := strings.TrimSpace(c.cfg.AppName); name != "" {
		return name + ": " + c.messages.errorTitle
	}
	return c.messages.errorTitle
}

// playCue serializes cue playback and emits audio asynchronously.
func (c *Cues) playCue(kind cueKind) {
	if !c.cfg.Enable || !c.cfg.SoundEnable {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.soundMu.Lock()
		defer c.soundMu.Unlock()

		if err := c.play(kind, c.cfg); err != nil {
			c.log("indicator audio cue failed", err)
		}
	}()
}

func (c *Cues) log(message string, err error) {
	if err == nil {
		return
	}
	c.logger.Debug(message, "error", err.Error())
}

func desktopNotify(title string, message string) error {
	return beeep.Notify(title, message, "")
}
