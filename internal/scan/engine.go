package scan

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// engineState is the decode engine's state machine position.
type engineState int

const (
	stateIdle engineState = iota
	stateNative
	stateFallback
)

// DefaultDecodeCooldown is the re-arm delay after an accepted decode. It is a
// separate layer from the arbiter's duplicate window.
const DefaultDecodeCooldown = 500 * time.Millisecond

// EngineConfig wires a decode engine.
type EngineConfig struct {
	Cooldown       time.Duration // default DefaultDecodeCooldown
	FragmentWindow time.Duration // default baggage.DefaultFragmentWindow

	Capabilities Capabilities   // native-path probe; nil means unsupported
	Detector     Detector       // native detector; nil disables the native path
	Frames       FrameSource    // frame loop for the native path
	Fallback     FallbackReader // required

	// HardwareMode reports whether hardware-scanner input has taken over;
	// camera decode output is discarded once it has.
	HardwareMode func() bool

	// Emit receives decoded payloads (the arbiter's OnScan).
	Emit func(text string)

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Engine runs the decode state machine: idle → native → (success | failure →
// fallback) → idle on stop. A generation counter makes in-flight callbacks
// from a stopped pipeline observably stale so they discard their results.
type Engine struct {
	cfg   EngineConfig
	frags *baggage.Assembler

	mu            sync.Mutex
	state         engineState
	gen           int
	runID         string
	cooldownUntil time.Time
	nativeFailed  bool
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewEngine creates a decode engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultDecodeCooldown
	}
	if cfg.FragmentWindow <= 0 {
		cfg.FragmentWindow = baggage.DefaultFragmentWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.HardwareMode == nil {
		cfg.HardwareMode = func() bool { return false }
	}
	if cfg.Emit == nil {
		cfg.Emit = func(string) {}
	}
	return &Engine{
		cfg:   cfg,
		frags: baggage.NewAssembler(cfg.FragmentWindow),
	}
}

// Start begins decoding against the given track. Overlapping starts are
// rejected while a pipeline is running.
func (e *Engine) Start(ctx context.Context, track Track) error {
	e.mu.Lock()
	if e.state != stateIdle {
		e.mu.Unlock()
		return errors.NewScanActive()
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.gen++
	gen := e.gen
	e.runID = uuid.NewString()
	e.cooldownUntil = time.Time{}
	e.frags.Reset()

	native := !e.nativeFailed &&
		e.cfg.Detector != nil &&
		e.cfg.Frames != nil &&
		e.cfg.Capabilities != nil &&
		e.cfg.Capabilities.NativeDetectorSupported()

	if native {
		e.state = stateNative
	} else {
		e.state = stateFallback
	}
	runID := e.runID
	done := e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		defer e.markIdle(gen)
		if native {
			log.Printf("decode run %s: native detector", runID)
			e.runNative(runCtx, gen, track)
		} else {
			log.Printf("decode run %s: fallback reader", runID)
			e.runFallbackLoop(runCtx, gen, track)
		}
	}()
	return nil
}

// Stop tears the pipeline down and waits for the decode goroutine to exit.
// The stopped flag (generation bump) is taken synchronously so late async
// results are discarded even if they resolve after cancellation. Idempotent.
func (e *Engine) Stop() {
	if done := e.halt(); done != nil {
		<-done
	}
}

// Halt signals teardown without waiting for the decode goroutine. Required
// when stopping from inside a decode callback, where Stop would wait on its
// own goroutine.
func (e *Engine) Halt() {
	e.halt()
}

func (e *Engine) halt() chan struct{} {
	e.mu.Lock()
	if e.state == stateIdle {
		e.mu.Unlock()
		return nil
	}
	e.state = stateIdle
	e.gen++
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.frags.Reset()
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return done
}

// Running reports whether a decode pipeline is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != stateIdle
}

// RunID identifies the active decode run; log lines carry the same ID for
// correlation. Empty when idle.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateIdle {
		return ""
	}
	return e.runID
}

// stale reports whether gen belongs to a stopped pipeline.
func (e *Engine) stale(gen int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen != gen || e.state == stateIdle
}

// runNative is the per-frame native detection loop.
func (e *Engine) runNative(ctx context.Context, gen int, track Track) {
	for {
		if ctx.Err() != nil || e.stale(gen) || e.cfg.HardwareMode() {
			return
		}

		frame, err := e.cfg.Frames.NextFrame(ctx)
		if err != nil {
			return
		}
		if e.stale(gen) || e.cfg.HardwareMode() {
			return
		}

		if e.inCooldown() {
			continue
		}

		detections, err := e.cfg.Detector.Detect(ctx, frame)
		if err != nil {
			// Any detector exception permanently disables the native
			// path for this session; switch to the fallback reader once.
			log.Printf("native detect failed, switching to fallback: %v", err)
			e.mu.Lock()
			e.nativeFailed = true
			alive := e.gen == gen && e.state == stateNative
			if alive {
				e.state = stateFallback
			}
			e.mu.Unlock()
			if alive {
				e.runFallbackLoop(ctx, gen, track)
			}
			return
		}

		if len(detections) == 0 {
			continue
		}
		value := strings.TrimSpace(detections[0].RawValue)
		if value == "" {
			continue
		}
		if e.stale(gen) || e.cfg.HardwareMode() {
			return
		}
		e.armCooldown()
		e.cfg.Emit(value)
	}
}

// runFallbackLoop binds the fallback decoding engine to the exact device the
// camera track uses and processes its results until canceled.
func (e *Engine) runFallbackLoop(ctx context.Context, gen int, track Track) {
	deviceID := ""
	if track != nil {
		deviceID = track.DeviceID()
	}
	hints := DecodeHints{TryHarder: true, Formats: FallbackFormats}

	err := e.cfg.Fallback.DecodeFromDevice(ctx, deviceID, hints, func(text string) {
		e.onFallbackText(gen, text)
	})
	if err != nil && ctx.Err() == nil {
		log.Printf("fallback decode ended: %v", err)
	}
}

// onFallbackText reconciles one fallback decode result: fragments feed the
// assembler, and the emitted payload is the assembled code, else the
// normalized code, else the raw digits, else the raw text.
func (e *Engine) onFallbackText(gen int, raw string) {
	if e.stale(gen) || e.cfg.HardwareMode() {
		return
	}
	if raw == "" || e.inCooldown() {
		return
	}

	digits := baggage.ExtractDigits(raw)
	if digits != "" {
		e.frags.Add(digits)
	}
	assembled := e.frags.TryAssemble()

	payload := assembled
	if payload == "" {
		payload = baggage.NormalizeCode(raw)
	}
	if payload == "" {
		payload = digits
	}
	if payload == "" {
		payload = raw
	}
	if payload == "" {
		return
	}

	if e.stale(gen) || e.cfg.HardwareMode() {
		return
	}
	e.armCooldown()
	e.frags.Reset()
	e.cfg.Emit(payload)
}

func (e *Engine) inCooldown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Clock().Before(e.cooldownUntil)
}

func (e *Engine) armCooldown() {
	e.mu.Lock()
	e.cooldownUntil = e.cfg.Clock().Add(e.cfg.Cooldown)
	e.mu.Unlock()
}

// markIdle returns the state machine to idle when the exiting loop still
// owns the current generation (Stop already reset it otherwise).
func (e *Engine) markIdle(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.state = stateIdle
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.done = nil
	}
}
