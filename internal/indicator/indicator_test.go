package indicator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anand-san/murmur/internal/config"
)

type cueRecorder struct {
	mu     sync.Mutex
	played []cueKind
	notes  []string
}

func (r *cueRecorder) install(c *Cues) {
	c.play = func(kind cueKind, _ config.IndicatorConfig) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.played = append(r.played, kind)
		return nil
	}
	c.notify = func(title string, message string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.notes = append(r.notes, title+"|"+message)
		return nil
	}
}

func (r *cueRecorder) snapshot() ([]cueKind, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cueKind(nil), r.played...), append([]string(nil), r.notes...)
}

func TestCuesPlayEachKind(t *testing.T) {
	cues := New(config.Default().Indicator, nil)
	rec := &cueRecorder{}
	rec.install(cues)

	ctx := context.Background()
	cues.CueStart(ctx)
	cues.Wait()
	cues.CueDiscard(ctx)
	cues.Wait()
	cues.CueComplete(ctx)
	cues.Wait()

	played, _ := rec.snapshot()
	require.Equal(t, []cueKind{cueStart, cueDiscard, cueComplete}, played)
}

func TestCuesRespectSoundToggle(t *testing.T) {
	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cues := New(cfg, nil)
	rec := &cueRecorder{}
	rec.install(cues)

	cues.CueStart(context.Background())
	cues.Wait()

	played, _ := rec.snapshot()
	require.Empty(t, played)
}

func TestShowErrorNotifies(t *testing.T) {
	t.Setenv("LC_ALL", "en_US.UTF-8")
	cues := New(config.Default().Indicator, nil)
	rec := &cueRecorder{}
	rec.install(cues)

	cues.ShowError(context.Background(), "Main window not found")
	cues.ShowError(context.Background(), "")

	_, notes := rec.snapshot()
	require.Equal(t, []string{
		"murmur: Voice capture failed|Main window not found",
		"murmur: Voice capture failed|" + indicatorMessages(localeEnglish).errorText,
	}, notes)
}

func TestShowErrorDisabled(t *testing.T) {
	cfg := config.Default().Indicator
	cfg.NotifyErrors = false
	cues := New(cfg, nil)
	rec := &cueRecorder{}
	rec.install(cues)

	cues.ShowError(context.Background(), "boom")

	_, notes := rec.snapshot()
	require.Empty(t, notes)
}

func TestCueFailureIsSwallowed(t *testing.T) {
	cues := New(config.Default().Indicator, nil)
	cues.play = func(cueKind, config.IndicatorConfig) error { return errors.New("no pulse server") }
	cues.notify = func(string, string) error { return errors.New("no dbus") }

	cues.CueStart(context.Background())
	cues.ShowError(context.Background(), "boom")
	cues.Wait()
}
