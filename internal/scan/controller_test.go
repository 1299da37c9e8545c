package scan

import (
	"context"
	"testing"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

func controllerSession() baggage.Session {
	return baggage.NewSession("2024-05-01", "AB123", "alpha")
}

func newCameraController(rec Recorder) (*Controller, *fakeProvider, *fakeCamTrack) {
	track := &fakeCamTrack{id: "rear"}
	provider := &fakeProvider{
		devices: []DeviceInfo{{ID: "rear", Label: "back camera"}},
		tracks:  map[string]*fakeCamTrack{"rear": track},
	}
	c := NewController(ControllerConfig{
		Provider: provider,
		Engine:   EngineConfig{Fallback: newCaptureFallback()},
		Arbiter:  ArbiterConfig{Recorder: rec},
	})
	return c, provider, track
}

func TestControllerCameraStart(t *testing.T) {
	c, _, track := newCameraController(&fakeRecorder{})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if !c.Scanning() {
		t.Error("controller should be scanning")
	}
	if c.Camera().Track() == nil {
		t.Error("camera track should be active")
	}
	if !c.engine.Running() {
		t.Error("decode engine should be running")
	}
	if c.Capture().Active() {
		t.Error("key capture must stay off in camera mode")
	}

	c.Stop()
	if c.Scanning() {
		t.Error("controller should be stopped")
	}
	if !track.stopped {
		t.Error("camera track should be released")
	}
	if c.engine.Running() {
		t.Error("decode engine should be stopped")
	}
}

func TestControllerOverlappingStartRejected(t *testing.T) {
	c, _, _ := newCameraController(&fakeRecorder{})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	err := c.Start(context.Background(), ModeTag, controllerSession())
	if !errors.Is(err, errors.ErrScanActive) {
		t.Fatalf("err = %v, want SCAN_ACTIVE", err)
	}
}

func TestControllerCameraFailure(t *testing.T) {
	provider := &fakeProvider{} // everything fails
	c := NewController(ControllerConfig{
		Provider: provider,
		Engine:   EngineConfig{Fallback: newCaptureFallback()},
		Arbiter:  ArbiterConfig{Recorder: &fakeRecorder{}},
	})

	err := c.Start(context.Background(), ModeTag, controllerSession())
	if !errors.Is(err, errors.ErrCameraUnavailable) {
		t.Fatalf("err = %v, want CAMERA_UNAVAILABLE", err)
	}
	if c.Scanning() {
		t.Error("failed start must leave the controller idle")
	}

	// The failure released the reentrancy guard: a second attempt reports
	// the camera problem again, not an active scan.
	err = c.Start(context.Background(), ModeTag, controllerSession())
	if !errors.Is(err, errors.ErrCameraUnavailable) {
		t.Fatalf("second start: err = %v, want CAMERA_UNAVAILABLE", err)
	}
}

func TestControllerRecoversAfterCameraFailure(t *testing.T) {
	track := &fakeCamTrack{id: "rear"}
	provider := &fakeProvider{
		devices: []DeviceInfo{{ID: "rear", Label: "back camera"}},
		tracks:  map[string]*fakeCamTrack{}, // no device opens yet
	}
	c := NewController(ControllerConfig{
		Provider: provider,
		Engine:   EngineConfig{Fallback: newCaptureFallback()},
		Arbiter:  ArbiterConfig{Recorder: &fakeRecorder{}},
	})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err == nil {
		t.Fatal("want error while the camera is unavailable")
	}

	// Once the device comes back, scanning starts normally.
	provider.tracks["rear"] = track
	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatalf("start after recovery: %v", err)
	}
	defer c.Stop()
	if !c.Scanning() {
		t.Error("controller should be scanning after recovery")
	}
}

func TestControllerHardwareStart(t *testing.T) {
	provider := &fakeProvider{} // a camera attempt would fail the test
	c := NewController(ControllerConfig{
		Provider: provider,
		Engine:   EngineConfig{Fallback: newCaptureFallback()},
		Arbiter:  ArbiterConfig{Recorder: &fakeRecorder{}},
		Hardware: true,
	})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if !c.Capture().Active() {
		t.Error("key capture should be enabled in hardware mode")
	}
	if c.Camera().Track() != nil {
		t.Error("camera must stay off in hardware mode")
	}
	if c.engine.Running() {
		t.Error("decode engine must stay off in hardware mode")
	}
}

func TestControllerHardwareKeysReachArbiter(t *testing.T) {
	rec := &fakeRecorder{matchSet: map[string]bool{}}
	c := NewController(ControllerConfig{
		Provider: &fakeProvider{},
		Engine:   EngineConfig{Fallback: newCaptureFallback()},
		Arbiter:  ArbiterConfig{Recorder: rec},
		Hardware: true,
	})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	for _, r := range "4412345678901" {
		c.Capture().HandleKey(KeyEvent{Key: string(r)})
	}
	c.Capture().HandleKey(KeyEvent{Enter: true})

	if len(rec.tags) != 1 || rec.tags[0] != "4412345678901" {
		t.Fatalf("tags = %v", rec.tags)
	}
}

func TestControllerSetHardwareSwitchesPipeline(t *testing.T) {
	c, _, track := newCameraController(&fakeRecorder{})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if err := c.SetHardware(context.Background(), true, controllerSession()); err != nil {
		t.Fatal(err)
	}

	if !track.stopped {
		t.Error("camera pipeline must be torn down on switch")
	}
	if c.engine.Running() {
		t.Error("decode engine must be stopped on switch")
	}
	if !c.Capture().Active() {
		t.Error("key capture should be running after switch")
	}
	if !c.Scanning() {
		t.Error("scanning should continue across the switch")
	}
	if !c.HardwareMode() {
		t.Error("hardware mode should be reported")
	}
}

func TestControllerSetHardwareNoopWhenUnchanged(t *testing.T) {
	c, _, _ := newCameraController(&fakeRecorder{})

	if err := c.SetHardware(context.Background(), false, controllerSession()); err != nil {
		t.Fatal(err)
	}
	if c.Scanning() {
		t.Error("a no-op switch must not start scanning")
	}
}

func TestControllerMatchedRetrievePausesAndResumes(t *testing.T) {
	rec := &fakeRecorder{matchSet: map[string]bool{"4412345678901": true}}
	c, _, track := newCameraController(rec)

	if err := c.Start(context.Background(), ModeRetrieve, controllerSession()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	c.Arbiter().OnScan("4412345678901")

	if c.Scanning() {
		t.Error("matched retrieve must pause scanning")
	}
	if !track.stopped {
		t.Error("camera must be released during the confirmation")
	}
	if c.engine.Running() {
		t.Error("decode engine must be stopped during the confirmation")
	}

	if err := c.Resume(context.Background(), controllerSession()); err != nil {
		t.Fatal(err)
	}
	if !c.Scanning() {
		t.Error("resume should restart scanning")
	}
	if c.Camera().Track() == nil {
		t.Error("resume should reacquire the camera")
	}
}

func TestControllerSuspend(t *testing.T) {
	c, _, track := newCameraController(&fakeRecorder{})

	if err := c.Start(context.Background(), ModeTag, controllerSession()); err != nil {
		t.Fatal(err)
	}

	c.Suspend()

	if c.Scanning() {
		t.Error("suspend must stop scanning")
	}
	if !track.stopped {
		t.Error("suspend must release the camera")
	}
	if c.Capture().Active() {
		t.Error("suspend must disable key capture")
	}
}
