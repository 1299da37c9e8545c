// Package scan implements the barcode acquisition pipeline: camera session
// management, the decode engine state machine, hardware-scanner keystroke
// capture, and the scan arbiter that reconciles reads against the session
// store.
//
// Platform specifics (camera APIs, native detectors, fallback decoder
// bindings) live behind the adapter interfaces in this file and are supplied
// at construction. The pipeline itself depends only on the interfaces.
package scan

import "context"

// DeviceInfo describes one enumerated video input device.
type DeviceInfo struct {
	ID    string
	Label string
}

// StreamConstraints are the capture parameters requested when opening a
// device.
type StreamConstraints struct {
	DeviceID       string  // exact device; empty means facing preference only
	FacingRear     bool    // prefer the environment-facing camera
	IdealWidth     int
	MinWidth       int
	IdealHeight    int
	MinHeight      int
	AspectRatio    float64
	IdealFrameRate int
	MinFrameRate   int
}

// DefaultConstraints returns the capture parameters used for barcode work.
func DefaultConstraints(deviceID string) StreamConstraints {
	return StreamConstraints{
		DeviceID:       deviceID,
		IdealWidth:     1280,
		MinWidth:       960,
		IdealHeight:    720,
		MinHeight:      540,
		AspectRatio:    16.0 / 9.0,
		IdealFrameRate: 30,
		MinFrameRate:   15,
	}
}

// Track is an open video stream's live track. Exclusively owned by the
// camera session manager; borrowers must not outlive Stop.
type Track interface {
	// DeviceID identifies the underlying device, so the fallback decoder
	// can bind to the same device rather than a default one.
	DeviceID() string

	// PhotoTorchSupported probes the photo-capability torch path.
	PhotoTorchSupported() bool
	// ConstraintTorchSupported probes the constraint-based torch path.
	ConstraintTorchSupported() bool
	// SetPhotoTorch toggles the torch via photo options.
	SetPhotoTorch(on bool) error
	// ApplyTorchConstraint toggles the torch via an advanced constraint.
	ApplyTorchConstraint(on bool) error

	// Stop releases the track. Must be idempotent.
	Stop()
}

// DeviceProvider acquires and enumerates camera devices.
type DeviceProvider interface {
	// OpenRearFacing opens a provisional generic rear-facing stream.
	OpenRearFacing(ctx context.Context) (Track, error)
	// Enumerate lists video input devices.
	Enumerate(ctx context.Context) ([]DeviceInfo, error)
	// Open opens a specific device with the given constraints.
	Open(ctx context.Context, c StreamConstraints) (Track, error)
}

// Frame is one video frame handed to the native detector. Its concrete type
// is an adapter concern.
type Frame any

// FrameSource delivers frames from the active track.
type FrameSource interface {
	// NextFrame blocks until a frame is available or ctx is done.
	NextFrame(ctx context.Context) (Frame, error)
}

// Detection is one decoded barcode candidate.
type Detection struct {
	RawValue string
	Format   string
}

// Detector is a native accelerated barcode detector.
type Detector interface {
	Detect(ctx context.Context, f Frame) ([]Detection, error)
}

// DecodeHints configure the fallback decoding engine.
type DecodeHints struct {
	TryHarder bool
	Formats   []string
}

// FallbackFormats is the known format set for baggage tags.
var FallbackFormats = []string{"itf", "code_128", "code_39", "ean_13", "ean_8", "upc_a", "qr_code"}

// FallbackReader is a multi-format decoding engine bound to a specific
// device. Implementations invoke fn once per decoded result until ctx is
// canceled.
type FallbackReader interface {
	DecodeFromDevice(ctx context.Context, deviceID string, hints DecodeHints, fn func(text string)) error
}

// Capabilities answers platform feature probes. The native path is used only
// when a reliable accelerated detector exists (notably excluded on platforms
// known to lack support).
type Capabilities interface {
	NativeDetectorSupported() bool
}

// CapabilityFunc adapts a function to the Capabilities interface.
type CapabilityFunc func() bool

func (f CapabilityFunc) NativeDetectorSupported() bool { return f() }
