package audiopipe

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Direction selects whether a Stream captures or plays back audio.
type Direction int

const (
	// DirectionInput opens a capture stream (low-latency hint).
	DirectionInput Direction = iota
	// DirectionOutput opens a playback stream (high-latency hint, more
	// headroom against underruns).
	DirectionOutput
)

// paStream abstracts a PortAudio blocking stream so device.go can be
// exercised without real hardware.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
	Write() error
}

// DeviceInfo describes one audio device available to the system.
type DeviceInfo struct {
	ID   int
	Name string
}

// ListInputDevices returns devices that can be opened for capture.
func ListInputDevices() ([]DeviceInfo, error) {
	return listDevices(func(d *portaudio.DeviceInfo) bool { return d.MaxInputChannels > 0 })
}

// ListOutputDevices returns devices that can be opened for playback.
func ListOutputDevices() ([]DeviceInfo, error) {
	return listDevices(func(d *portaudio.DeviceInfo) bool { return d.MaxOutputChannels > 0 })
}

func listDevices(match func(*portaudio.DeviceInfo) bool) ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var out []DeviceInfo
	for i, d := range devices {
		if match(d) {
			out = append(out, DeviceInfo{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return fallback()
}

// Stream wraps one direction of a blocking PortAudio device stream:
// parameters are fixed at construction (channel count, 32-bit float
// samples, 48 kHz, frame-sized transfers) and every call is serialised by
// a per-stream mutex (spec §4.1).
type Stream struct {
	mu       sync.Mutex
	dir      Direction
	channels int
	deviceID int // -1 selects the system default
	buf      []float32
	pa       paStream
	active   bool
}

// NewStream returns an unopened Stream for the given direction and channel
// count. deviceID selects a specific device index, or -1 for the current
// system default.
func NewStream(dir Direction, channels, deviceID int) *Stream {
	return &Stream{
		dir:      dir,
		channels: channels,
		deviceID: deviceID,
		buf:      make([]float32, FrameSize*channels),
	}
}

// Open acquires the device. It fails with ErrDeviceUnsupported if the
// channel count exceeds the device's capability, and surfaces PortAudio's
// own error (typically indicating the device is claimed elsewhere) as
// ErrDeviceBusy. Opening an already-open stream is a no-op.
func (s *Stream) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pa != nil {
		return nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("audiopipe: list devices: %w", err)
	}

	var dev *portaudio.DeviceInfo
	if s.dir == DirectionInput {
		dev, err = resolveDevice(devices, s.deviceID, portaudio.DefaultInputDevice)
	} else {
		dev, err = resolveDevice(devices, s.deviceID, portaudio.DefaultOutputDevice)
	}
	if err != nil {
		return fmt.Errorf("audiopipe: resolve device: %w", err)
	}

	maxCh := dev.MaxInputChannels
	latency := dev.DefaultLowInputLatency
	if s.dir == DirectionOutput {
		maxCh = dev.MaxOutputChannels
		latency = dev.DefaultHighOutputLatency
	}
	if s.channels > maxCh {
		return ErrDeviceUnsupported
	}

	params := portaudio.StreamParameters{
		SampleRate:      SampleRate,
		FramesPerBuffer: FrameSize,
	}
	if s.dir == DirectionInput {
		params.Input = portaudio.StreamDeviceParameters{Device: dev, Channels: s.channels, Latency: latency}
	} else {
		params.Output = portaudio.StreamDeviceParameters{Device: dev, Channels: s.channels, Latency: latency}
	}

	stream, err := portaudio.OpenStream(params, s.buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	}
	s.pa = stream
	return nil
}

// Channels reports the fixed channel count this stream was opened with.
func (s *Stream) Channels() int { return s.channels }

// Start is idempotent: starting an already-active stream is a no-op.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || s.pa == nil {
		return nil
	}
	if err := s.pa.Start(); err != nil {
		return err
	}
	s.active = true
	return nil
}

// Stop is idempotent: stopping an already-stopped stream is a no-op.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.pa == nil {
		return
	}
	if err := s.pa.Stop(); err != nil {
		log.Printf("[audiopipe] stream stop: %v", err)
	}
	s.active = false
}

// Close releases the device. The stream must be stopped first by the
// caller if it was active.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pa == nil {
		return nil
	}
	err := s.pa.Close()
	s.pa = nil
	s.active = false
	return err
}

// Read blocks for exactly one frame period and copies the captured
// samples into dst, which must have length FrameSize*channels. Overflow
// is a transient, recoverable error: log and let the caller retry on the
// next tick.
func (s *Stream) Read(dst []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pa.Read(); err != nil {
		return err
	}
	copy(dst, s.buf)
	return nil
}

// Write blocks for exactly one frame period, copying frame into the
// device buffer before submitting it. Underflow is a transient,
// recoverable error.
func (s *Stream) Write(frame []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.buf, frame)
	return s.pa.Write()
}

// Reconf atomically closes and reopens the stream bound to whatever
// device currently resolves as the system default, preserving the
// active/stopped state across the swap (spec §4.1).
func (s *Stream) Reconf() error {
	s.mu.Lock()
	wasActive := s.active
	if wasActive && s.pa != nil {
		_ = s.pa.Stop()
	}
	if s.pa != nil {
		_ = s.pa.Close()
		s.pa = nil
	}
	s.active = false
	s.mu.Unlock()

	if err := s.Open(); err != nil {
		return err
	}
	if wasActive {
		return s.Start()
	}
	return nil
}
