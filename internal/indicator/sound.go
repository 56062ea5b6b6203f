package indicator

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/faiface/beep/mp3"
	"github.com/jfreymuth/pulse"

	"github.com/anand-san/murmur/internal/config"
	"github.com/anand-san/murmur/internal/pcm"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueDiscard
	cueComplete
)

const cueSampleRate = 16000

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

var (
	startCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 880, duration: 70 * time.Millisecond, volume: 0.36},
		{frequencyHz: 1175, duration: 70 * time.Millisecond, volume: 0.36},
	})
	discardCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 480, duration: 75 * time.Millisecond, volume: 0.36},
		{frequencyHz: 360, duration: 90 * time.Millisecond, volume: 0.36},
	})
	completeCuePCM = synthesizeCue([]toneSpec{
		{frequencyHz: 740, duration: 65 * time.Millisecond, volume: 0.36},
		{frequencyHz: 988, duration: 90 * time.Millisecond, volume: 0.36},
	})
)

// cuePCM is mono canonical audio ready for playback.
type cuePCM struct {
	samples    []int16
	sampleRate int
}

func emitCue(kind cueKind, cfg config.IndicatorConfig) error {
	cue := cuePCM{samples: cueSamples(kind), sampleRate: cueSampleRate}
	if path := cuePath(kind, cfg); path != "" {
		decoded, err := decodeCueFile(path)
		if err != nil {
			return err
		}
		cue = decoded
	}
	if len(cue.samples) == 0 {
		return nil
	}
	return playPCM(scaleVolume(cue.samples, cfg.SoundVolume), cue.sampleRate)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	var raw string
	switch kind {
	case cueStart:
		raw = cfg.SoundStartFile
	case cueDiscard:
		raw = cfg.SoundDiscardFile
	case cueComplete:
		raw = cfg.SoundCompleteFile
	default:
		return ""
	}
	return expandUserPath(raw)
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return raw
		}
		return home
	}
	if !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
}

// decodeCueFile reads an mp3 or wav cue and downmixes it to mono.
func decodeCueFile(path string) (cuePCM, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return decodeMP3(path)
	case ".wav":
		return decodeWAV(path)
	default:
		return cuePCM{}, fmt.Errorf("cue file %q: unsupported extension %q", path, ext)
	}
}

func decodeMP3(path string) (cuePCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return cuePCM{}, fmt.Errorf("open cue file: %w", err)
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		_ = f.Close()
		return cuePCM{}, fmt.Errorf("decode mp3 cue %q: %w", path, err)
	}
	defer streamer.Close()

	var out []int16
	frames := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(frames)
		for _, frame := range frames[:n] {
			out = append(out, pcm.FromFloat32(float32((frame[0]+frame[1])/2)))
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return cuePCM{}, fmt.Errorf("decode mp3 cue %q: %w", path, err)
	}
	return cuePCM{samples: out, sampleRate: int(format.SampleRate)}, nil
}

func decodeWAV(path string) (cuePCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return cuePCM{}, fmt.Errorf("open cue file: %w", err)
	}
	defer f.Close()

	dec := gowav.NewDecoder(f)
	if !dec.IsValidFile() {
		return cuePCM{}, fmt.Errorf("cue file %q is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return cuePCM{}, fmt.Errorf("decode wav cue %q: %w", path, err)
	}
	return cuePCM{samples: downmix(buf, int(dec.BitDepth)), sampleRate: int(dec.SampleRate)}, nil
}

// downmix averages interleaved channels and rescales to 16-bit.
func downmix(buf *goaudio.IntBuffer, bitDepth int) []int16 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	out := make([]int16, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += toInt16Range(buf.Data[i+ch], bitDepth)
		}
		out = append(out, int16(sum/channels))
	}
	return out
}

func toInt16Range(v int, bitDepth int) int {
	switch {
	case bitDepth == 8:
		return (v - 128) << 8
	case bitDepth > 16:
		return v >> (bitDepth - 16)
	default:
		return v
	}
}

func scaleVolume(samples []int16, volume float64) []int16 {
	if volume >= 1 {
		return samples
	}
	if volume <= 0 {
		return make([]int16, len(samples))
	}
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(math.Round(float64(s) * volume))
	}
	return out
}

func playPCM(samples []int16, sampleRate int) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("murmur"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("murmur cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

func cueSamples(kind cueKind) []int16 {
	switch kind {
	case cueStart:
		return startCuePCM
	case cueDiscard:
		return discardCuePCM
	case cueComplete:
		return completeCuePCM
	default:
		return nil
	}
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gap := make([]int16, samplesForDuration(22*time.Millisecond))

	var out []int16
	for i, part := range parts {
		out = append(out, synthesizeTone(part)...)
		if i < len(parts)-1 {
			out = append(out, gap...)
		}
	}
	return out
}

func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	// 5ms ramps avoid clicks at tone edges.
	ramp := min(max(n/10, 1), cueSampleRate/200)

	out := make([]int16, n)
	for i := range out {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = min(envelope, float64(tail)/float64(ramp))
		}
		t := float64(i) / cueSampleRate
		out[i] = int16(math.Round(math.Sin(2*math.Pi*spec.frequencyHz*t) * spec.volume * envelope * 32767))
	}
	return out
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
