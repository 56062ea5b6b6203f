// Package audio owns input device discovery and the hardware capture stream lifecycle.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoInputDevice is returned when a host exposes no usable capture device.
var ErrNoInputDevice = errors.New("no audio input device available")

// Device describes one capture source exposed by a Host.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source plus optional fallback warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// Preferences is the audio config subset consulted when a capture starts.
type Preferences struct {
	Input    string
	Fallback string
	Want     StreamConfig
}

// Prepared is everything the Engine needs to open one stream.
type Prepared struct {
	Selection Selection
	Config    StreamConfig
}

// Prepare lists devices, selects one and negotiates a stream configuration.
func Prepare(ctx context.Context, host Host, prefs Preferences) (Prepared, error) {
	devices, err := host.ListDevices(ctx)
	if err != nil {
		return Prepared{}, fmt.Errorf("list %s devices: %w", host.Name(), err)
	}
	selection, err := selectDeviceFromList(devices, prefs.Input, prefs.Fallback)
	if err != nil {
		return Prepared{}, err
	}
	negotiated, err := host.Negotiate(ctx, selection.Device, prefs.Want)
	if err != nil {
		return Prepared{}, fmt.Errorf("negotiate stream config for %q: %w", selection.Device.ID, err)
	}
	return Prepared{Selection: selection, Config: negotiated}, nil
}

// SelectDevice resolves audio.input/audio.fallback preferences against live devices.
func SelectDevice(ctx context.Context, host Host, input string, fallback string) (Selection, error) {
	devices, err := host.ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, ErrNoInputDevice
	}

	var (
		defaultDevice *Device
		byInput       *Device
		byFallback    *Device
	)

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	for i := range devices {
		dev := &devices[i]
		if dev.Default && defaultDevice == nil {
			defaultDevice = dev
		}
		if byInput == nil && !isDefaultTerm(input) && deviceMatches(*dev, input) {
			byInput = dev
		}
		if byFallback == nil && !isDefaultTerm(fallback) && deviceMatches(*dev, fallback) {
			byFallback = dev
		}
	}

	chooseDefault := func() (*Device, error) {
		if defaultDevice == nil {
			return nil, fmt.Errorf("%w: default source is unset", ErrNoInputDevice)
		}
		return defaultDevice, nil
	}

	var primary *Device
	switch {
	case isDefaultTerm(input):
		d, err := chooseDefault()
		if err != nil {
			return Selection{}, err
		}
		primary = d
	case byInput != nil:
		primary = byInput
	default:
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", input)
	}

	if usable(*primary) {
		return Selection{Device: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	var fallbackDevice *Device
	if isDefaultTerm(fallback) {
		d, err := chooseDefault()
		if err != nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, reason, err)
		}
		fallbackDevice = d
	} else {
		if byFallback == nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, fallback)
		}
		fallbackDevice = byFallback
	}

	if !fallbackDevice.Available {
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", fallbackDevice.ID)
	}
	if fallbackDevice.Muted {
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", fallbackDevice.ID)
	}

	return Selection{
		Device:   *fallbackDevice,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, fallbackDevice.ID),
		Fallback: primary.ID != fallbackDevice.ID,
	}, nil
}

func isDefaultTerm(term string) bool {
	return term == "" || term == "default"
}

func usable(d Device) bool {
	return d.Available && !d.Muted
}

func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}
