package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.design/x/hotkey"

	"github.com/anand-san/murmur/internal/config"
)

// Event is one press or release of a registered shortcut.
type Event struct {
	Shortcut string
	Pressed  bool
}

type registration struct {
	id   string
	spec Spec
	hk   *hotkey.Hotkey
}

// Listener owns the global registrations for every configured shortcut.
type Listener struct {
	logger *slog.Logger
	events chan Event
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	regs    []registration
	running bool
}

func NewListener(logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{logger: logger, events: make(chan Event, 16), stop: make(chan struct{})}
}

// Register binds every shortcut that has keys. Shortcuts without keys stay reachable over IPC.
// On failure nothing remains registered.
func (l *Listener) Register(shortcuts []config.ShortcutConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return errors.New("hotkeys already registered")
	}

	var regs []registration
	for _, sc := range shortcuts {
		if strings.TrimSpace(sc.Keys) == "" {
			continue
		}
		spec, err := ParseSpec(sc.Keys)
		if err != nil {
			unregisterAll(regs)
			return fmt.Errorf("shortcut %q: %w", sc.ID, err)
		}
		mods, key, err := spec.binding()
		if err != nil {
			unregisterAll(regs)
			return fmt.Errorf("shortcut %q: %w", sc.ID, err)
		}
		hk := hotkey.New(mods, key)
		if err := hk.Register(); err != nil {
			unregisterAll(regs)
			return fmt.Errorf("register shortcut %q (%s): %w", sc.ID, spec, err)
		}
		regs = append(regs, registration{id: sc.ID, spec: spec, hk: hk})
		l.logger.Info("hotkey registered", "shortcut", sc.ID, "keys", spec.String())
	}

	l.regs = regs
	l.running = true
	for _, reg := range regs {
		l.wg.Add(1)
		go l.listen(reg)
	}
	return nil
}

// Events delivers presses and releases in arrival order per shortcut.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Close unregisters every shortcut and stops the listeners.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}
	close(l.stop)
	l.wg.Wait()
	err := unregisterAll(l.regs)
	l.regs = nil
	l.running = false
	return err
}

func (l *Listener) listen(reg registration) {
	defer l.wg.Done()
	for {
		select {
		case <-reg.hk.Keydown():
			l.emit(Event{Shortcut: reg.id, Pressed: true})
		case <-reg.hk.Keyup():
			l.emit(Event{Shortcut: reg.id, Pressed: false})
		case <-l.stop:
			return
		}
	}
}

func (l *Listener) emit(ev Event) {
	select {
	case l.events <- ev:
	case <-l.stop:
	}
}

func unregisterAll(regs []registration) error {
	var errs []error
	for _, reg := range regs {
		if err := reg.hk.Unregister(); err != nil {
			errs = append(errs, fmt.Errorf("unregister %q: %w", reg.id, err))
		}
	}
	return errors.Join(errs...)
}
