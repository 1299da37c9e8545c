package scan

import (
	"context"
	"database/sql"
	"sync"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/errors"
	"github.com/bagvoyage/bagvoyage/internal/ops"
)

// StoreRecorder persists arbiter outcomes through the ops layer.
type StoreRecorder struct {
	DB  *sql.DB
	Cfg *config.Config
}

// AppendTag implements Recorder.
func (r *StoreRecorder) AppendTag(session baggage.Session, code string) error {
	_, err := ops.Tag(r.DB, r.Cfg, ops.TagInput{SessionID: session.ID, Code: code})
	return err
}

// MatchRetrieve implements Recorder.
func (r *StoreRecorder) MatchRetrieve(session baggage.Session, code string) (bool, string, error) {
	out, err := ops.Retrieve(r.DB, r.Cfg, ops.RetrieveInput{SessionID: session.ID, Code: code})
	if err != nil {
		return false, "", err
	}
	return out.Matched, out.TagClient, nil
}

// ControllerConfig wires a scan controller.
type ControllerConfig struct {
	Config    *config.Config
	Provider  DeviceProvider // camera adapter; nil disables the camera path
	Engine    EngineConfig   // Emit/HardwareMode are wired by the controller
	Arbiter   ArbiterConfig  // StopScanning is wired by the controller
	Hardware  bool           // start in hardware-scanner mode
	Presenter Presenter
}

// Controller owns all mutable scan state: the active camera track, the
// decode pipeline, hardware capture and the arbiter. One instance per
// running scan session; exactly one decode pipeline (camera or hardware)
// runs at a time.
type Controller struct {
	cfg     *config.Config
	camera  *Camera
	engine  *Engine
	capture *Capture
	arbiter *Arbiter

	mu       sync.Mutex
	scanning bool
	hardware bool
}

// NewController assembles a controller from adapters and configuration.
func NewController(cc ControllerConfig) *Controller {
	if cc.Config == nil {
		cc.Config = config.DefaultConfig()
	}

	c := &Controller{cfg: cc.Config, hardware: cc.Hardware}

	hardwareMode := func() bool { return c.HardwareMode() }

	ac := cc.Arbiter
	ac.Presenter = cc.Presenter
	if ac.DuplicateWindow <= 0 {
		ac.DuplicateWindow = cc.Config.DuplicateWindow()
	}
	ac.StopScanning = func() { c.pauseForConfirmation() }
	c.arbiter = NewArbiter(ac)

	ec := cc.Engine
	if ec.Cooldown <= 0 {
		ec.Cooldown = cc.Config.DecodeCooldown()
	}
	if ec.FragmentWindow <= 0 {
		ec.FragmentWindow = cc.Config.FragmentWindow()
	}
	ec.HardwareMode = hardwareMode
	ec.Emit = c.arbiter.OnScan
	c.engine = NewEngine(ec)

	c.camera = NewCamera(cc.Provider, hardwareMode)

	c.capture = NewCapture(CaptureConfig{
		Idle:       cc.Config.HIDIdle(),
		MinLength:  cc.Config.HIDMinLength,
		ModeActive: hardwareMode,
		Emit:       c.arbiter.OnScan,
	})

	return c
}

// Arbiter exposes the arbiter for mode/session control.
func (c *Controller) Arbiter() *Arbiter { return c.arbiter }

// Camera exposes the camera session manager (torch control).
func (c *Controller) Camera() *Camera { return c.camera }

// Capture exposes the hardware-input capture (key event feed).
func (c *Controller) Capture() *Capture { return c.capture }

// HardwareMode reports whether hardware-scanner input is the active method.
func (c *Controller) HardwareMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hardware
}

// Start begins scanning in the given mode. Overlapping starts are rejected.
// In hardware mode the camera stays off and key capture turns on; otherwise
// the camera is acquired and the decode engine started.
func (c *Controller) Start(ctx context.Context, mode Mode, session baggage.Session) error {
	c.mu.Lock()
	if c.scanning {
		c.mu.Unlock()
		return errors.NewScanActive()
	}
	c.scanning = true
	hardware := c.hardware
	c.mu.Unlock()

	c.arbiter.SetSession(session)
	c.arbiter.SetMode(mode)

	if hardware {
		c.stopCamera()
		c.capture.Enable()
		return nil
	}

	c.capture.Disable()
	c.stopCamera()

	track, err := c.camera.AcquireBestRear(ctx)
	if err != nil {
		// A failed start must leave the controller idle, not half
		// initialized: Stop releases the reentrancy guard too.
		c.Stop()
		return errors.NewCameraUnavailable(err)
	}

	if err := c.engine.Start(ctx, track); err != nil {
		c.Stop()
		return err
	}
	return nil
}

// Resume restarts scanning after a blocking match confirmation.
func (c *Controller) Resume(ctx context.Context, session baggage.Session) error {
	c.arbiter.Continue()

	c.mu.Lock()
	c.scanning = false
	c.mu.Unlock()

	return c.Start(ctx, ModeRetrieve, session)
}

// Stop halts scanning and tears everything down. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.scanning = false
	c.mu.Unlock()
	c.teardown()
}

// Suspend is the page-hidden/unload hook: unconditionally stop camera and
// hardware capture so nothing runs in the background.
func (c *Controller) Suspend() {
	c.Stop()
}

// Scanning reports whether a scan session is active.
func (c *Controller) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// SetHardware switches the input method. The previous pipeline is fully
// stopped before the new one starts.
func (c *Controller) SetHardware(ctx context.Context, on bool, session baggage.Session) error {
	c.mu.Lock()
	if c.hardware == on {
		c.mu.Unlock()
		return nil
	}
	c.hardware = on
	wasScanning := c.scanning
	mode := c.arbiter.Mode()
	c.scanning = false
	c.mu.Unlock()

	c.teardown()

	if wasScanning && mode != "" {
		return c.Start(ctx, mode, session)
	}
	return nil
}

// pauseForConfirmation stops the camera when a retrieve matches; the
// blocking confirmation holds until Resume. Runs inside the decode
// callback, so the engine is halted without waiting on its goroutine.
func (c *Controller) pauseForConfirmation() {
	c.mu.Lock()
	c.scanning = false
	c.mu.Unlock()
	c.engine.Halt()
	c.camera.Stop()
}

// teardown is the single exit path: engine first so stale decodes are
// flagged, then camera, then capture.
func (c *Controller) teardown() {
	c.engine.Stop()
	c.stopCamera()
	c.capture.Disable()
}

func (c *Controller) stopCamera() {
	c.camera.Stop()
}
