// Package output delivers transcripts into the focused application via the clipboard.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anand-san/murmur/internal/config"
)

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

// Keystroker triggers the paste action in the focused window.
type Keystroker interface {
	Paste(ctx context.Context) error
}

// Committer runs the save, write, paste, restore sequence.
type Committer struct {
	cfg       config.PasteConfig
	clipboard Clipboard
	keys      Keystroker
	logger    *slog.Logger
	sleep     func(context.Context, time.Duration) error
}

// NewCommitter wires the clipboard and paste mechanisms selected by cfg.
func NewCommitter(cfg config.PasteConfig, logger *slog.Logger) (*Committer, error) {
	var clip Clipboard
	switch strings.ToLower(cfg.Clipboard) {
	case "command":
		clip = CommandClipboard{WriteArgv: cfg.ClipboardCmd.Argv, ReadArgv: cfg.ClipboardReadCmd.Argv}
	default:
		clip = SystemClipboard{}
	}

	var keys Keystroker
	if len(cfg.PasteCmd.Argv) > 0 {
		keys = CommandPaste{Argv: cfg.PasteCmd.Argv}
	} else {
		chord, err := ParseChord(cfg.Chord)
		if err != nil {
			return nil, err
		}
		keys = chord
	}

	return newCommitter(cfg, clip, keys, logger), nil
}

func newCommitter(cfg config.PasteConfig, clip Clipboard, keys Keystroker, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{cfg: cfg, clipboard: clip, keys: keys, logger: logger, sleep: sleepContext}
}

// Commit places transcript on the clipboard, pastes it and restores the previous clipboard.
// A paste failure leaves the transcript on the clipboard and is returned.
func (c *Committer) Commit(ctx context.Context, transcript string) error {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil
	}
	if c.cfg.TrailingSpace {
		transcript += " "
	}

	var (
		previous   string
		canRestore bool
	)
	if c.cfg.RestoreClipboard && c.cfg.Enable {
		saved, err := c.clipboard.Read(ctx)
		if err != nil {
			c.logger.Warn("unable to save clipboard; it will not be restored", "error", err.Error())
		} else {
			previous, canRestore = saved, true
		}
	}

	if err := c.clipboard.Write(ctx, transcript); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !c.cfg.Enable {
		return nil
	}

	if err := c.sleep(ctx, time.Duration(c.cfg.SettleMS)*time.Millisecond); err != nil {
		return err
	}

	pasteCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.keys.Paste(pasteCtx); err != nil {
		c.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
		return fmt.Errorf("send paste keystroke: %w", err)
	}

	if !canRestore {
		return nil
	}
	if err := c.sleep(ctx, time.Duration(c.cfg.RestoreDelayMS)*time.Millisecond); err != nil {
		return err
	}
	if err := c.clipboard.Write(ctx, previous); err != nil {
		c.logger.Warn("unable to restore clipboard", "error", err.Error())
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
