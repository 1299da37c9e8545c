package scan

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Handheld scanners emit scanned content as synthetic keyboard input with no
// field focus. Capture buffers those keystrokes and flushes a completed code
// after a short idle gap, or immediately on Enter.

// DefaultHIDIdle is the keystroke idle flush timeout.
const DefaultHIDIdle = 60 * time.Millisecond

// DefaultHIDMinLength guards idle-timeout flushes against stray keystrokes.
const DefaultHIDMinLength = 8

// allowedKeyRegex is the charset a scanner burst may contain.
var allowedKeyRegex = regexp.MustCompile(`^[0-9A-Za-z\-_/+]$`)

// KeyEvent is one key press seen at the document level.
type KeyEvent struct {
	Key   string // printable key value; single character for normal keys
	Enter bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// CaptureConfig wires a hardware-input capture.
type CaptureConfig struct {
	Idle      time.Duration // default DefaultHIDIdle
	MinLength int           // default DefaultHIDMinLength

	// ModeActive reports whether hardware-scanner mode is the active input
	// method; events are ignored otherwise.
	ModeActive func() bool

	// Blur removes focus from any form control so keystrokes cannot leak
	// into inputs. Called on enable. Optional.
	Blur func()

	// Emit receives completed codes.
	Emit func(code string)
}

// Capture intercepts keystrokes from a keyboard-emulating hardware scanner.
// Enable and Disable are fully reversible with no leaked timers.
type Capture struct {
	cfg CaptureConfig

	mu     sync.Mutex
	active bool
	buffer strings.Builder
	timer  *time.Timer
}

// NewCapture creates a hardware-input capture.
func NewCapture(cfg CaptureConfig) *Capture {
	if cfg.Idle <= 0 {
		cfg.Idle = DefaultHIDIdle
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultHIDMinLength
	}
	if cfg.ModeActive == nil {
		cfg.ModeActive = func() bool { return true }
	}
	if cfg.Emit == nil {
		cfg.Emit = func(string) {}
	}
	return &Capture{cfg: cfg}
}

// Enable starts capturing. Blurs any focused form control first. Idempotent.
func (c *Capture) Enable() {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.buffer.Reset()
	c.mu.Unlock()

	if c.cfg.Blur != nil {
		c.cfg.Blur()
	}
}

// Disable stops capturing and discards any buffered input. Idempotent.
func (c *Capture) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.active = false
	c.buffer.Reset()
	c.stopTimerLocked()
}

// Active reports whether capture is enabled.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// HandleKey processes one key event. Returns true when the event was
// consumed (the caller should suppress its default handling).
func (c *Capture) HandleKey(ev KeyEvent) bool {
	c.mu.Lock()
	if !c.active || !c.cfg.ModeActive() {
		c.mu.Unlock()
		return false
	}
	if ev.Ctrl || ev.Alt || ev.Meta {
		c.mu.Unlock()
		return false
	}

	if ev.Enter {
		// Enter terminates a burst: flush regardless of length.
		code := strings.TrimSpace(c.buffer.String())
		c.buffer.Reset()
		c.stopTimerLocked()
		c.mu.Unlock()
		if code != "" {
			c.cfg.Emit(code)
		}
		return true
	}

	if len(ev.Key) != 1 || !allowedKeyRegex.MatchString(ev.Key) {
		c.mu.Unlock()
		return false
	}

	c.buffer.WriteString(ev.Key)
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.cfg.Idle, c.onIdle)
	c.mu.Unlock()
	return true
}

// onIdle flushes the buffer after a burst ends. Short buffers are stray
// keystrokes and are silently discarded.
func (c *Capture) onIdle() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	code := strings.TrimSpace(c.buffer.String())
	c.buffer.Reset()
	c.timer = nil
	c.mu.Unlock()

	if len(code) >= c.cfg.MinLength {
		c.cfg.Emit(code)
	}
}

func (c *Capture) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
