package scan

import (
	"context"
	"fmt"
	"testing"
)

// fakeCamTrack is a configurable Track double with call accounting.
type fakeCamTrack struct {
	id              string
	photoTorch      bool
	constraintTorch bool
	torchErr        error

	stopped    bool
	photoCalls []bool
	applyCalls []bool
}

func (t *fakeCamTrack) DeviceID() string               { return t.id }
func (t *fakeCamTrack) PhotoTorchSupported() bool      { return t.photoTorch }
func (t *fakeCamTrack) ConstraintTorchSupported() bool { return t.constraintTorch }

func (t *fakeCamTrack) SetPhotoTorch(on bool) error {
	t.photoCalls = append(t.photoCalls, on)
	return t.torchErr
}

func (t *fakeCamTrack) ApplyTorchConstraint(on bool) error {
	t.applyCalls = append(t.applyCalls, on)
	return t.torchErr
}

func (t *fakeCamTrack) Stop() { t.stopped = true }

// fakeProvider scripts device enumeration and opening.
type fakeProvider struct {
	provisional    *fakeCamTrack
	provisionalErr error
	devices        []DeviceInfo
	enumerateErr   error
	tracks         map[string]*fakeCamTrack // by device ID
	openOrder      []string
	lastResort     *fakeCamTrack
	lastResortNil  bool // generic request resolves to no track, no error
	lastResortErr  error
}

func (p *fakeProvider) OpenRearFacing(_ context.Context) (Track, error) {
	if p.provisionalErr != nil {
		return nil, p.provisionalErr
	}
	if p.provisional == nil {
		return nil, fmt.Errorf("no camera")
	}
	return p.provisional, nil
}

func (p *fakeProvider) Enumerate(_ context.Context) ([]DeviceInfo, error) {
	return p.devices, p.enumerateErr
}

func (p *fakeProvider) Open(_ context.Context, c StreamConstraints) (Track, error) {
	if c.DeviceID == "" {
		if p.lastResortErr != nil {
			return nil, p.lastResortErr
		}
		if p.lastResortNil {
			return nil, nil
		}
		if p.lastResort == nil {
			return nil, fmt.Errorf("no camera")
		}
		return p.lastResort, nil
	}
	p.openOrder = append(p.openOrder, c.DeviceID)
	track, ok := p.tracks[c.DeviceID]
	if !ok {
		return nil, fmt.Errorf("open %s failed", c.DeviceID)
	}
	return track, nil
}

func TestAcquireBestRearPrefersRearLabels(t *testing.T) {
	front := &fakeCamTrack{id: "front"}
	rear := &fakeCamTrack{id: "rear", constraintTorch: true}
	p := &fakeProvider{
		provisional: &fakeCamTrack{id: "prov"},
		devices: []DeviceInfo{
			{ID: "front", Label: "Front Camera"},
			{ID: "rear", Label: "Back Camera"},
		},
		tracks: map[string]*fakeCamTrack{"front": front, "rear": rear},
	}
	cam := NewCamera(p, nil)

	track, err := cam.AcquireBestRear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if track.DeviceID() != "rear" {
		t.Fatalf("acquired %s, want rear", track.DeviceID())
	}
	if len(p.openOrder) == 0 || p.openOrder[0] != "rear" {
		t.Errorf("open order = %v, rear-labeled devices must be tried first", p.openOrder)
	}
	if !p.provisional.stopped {
		t.Error("provisional stream must be released when a device wins")
	}
	if front.stopped {
		t.Error("never-opened loser should not be touched")
	}
	if cam.Track() != track {
		t.Error("winner must become the active track")
	}
}

func TestAcquireBestRearFirstTorchCapableWins(t *testing.T) {
	noTorch := &fakeCamTrack{id: "rear1"}
	withTorch := &fakeCamTrack{id: "rear2", photoTorch: true}
	p := &fakeProvider{
		devices: []DeviceInfo{
			{ID: "rear1", Label: "rear camera 1"},
			{ID: "rear2", Label: "rear camera 2"},
		},
		tracks: map[string]*fakeCamTrack{"rear1": noTorch, "rear2": withTorch},
	}
	cam := NewCamera(p, nil)

	track, err := cam.AcquireBestRear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if track.DeviceID() != "rear2" {
		t.Fatalf("acquired %s, want the torch-capable rear2", track.DeviceID())
	}
	if !noTorch.stopped {
		t.Error("the earlier torchless stream must be released")
	}
}

func TestAcquireBestRearFallsBackToFirstOpened(t *testing.T) {
	a := &fakeCamTrack{id: "a"}
	b := &fakeCamTrack{id: "b"}
	p := &fakeProvider{
		provisional: &fakeCamTrack{id: "prov"},
		devices: []DeviceInfo{
			{ID: "a", Label: "back camera"},
			{ID: "b", Label: "back camera wide"},
		},
		tracks: map[string]*fakeCamTrack{"a": a, "b": b},
	}
	cam := NewCamera(p, nil)

	track, err := cam.AcquireBestRear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if track.DeviceID() != "a" {
		t.Fatalf("acquired %s, want the first opened", track.DeviceID())
	}
	if !b.stopped {
		t.Error("the second torchless stream must be released")
	}
	if !p.provisional.stopped {
		t.Error("provisional stream must be released")
	}
}

func TestAcquireBestRearKeepsProvisionalWhenNothingOpens(t *testing.T) {
	p := &fakeProvider{
		provisional: &fakeCamTrack{id: "prov"},
		devices:     []DeviceInfo{{ID: "x", Label: "back camera"}},
		tracks:      map[string]*fakeCamTrack{}, // every open fails
	}
	cam := NewCamera(p, nil)

	track, err := cam.AcquireBestRear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if track.DeviceID() != "prov" {
		t.Fatalf("acquired %s, want the provisional stream", track.DeviceID())
	}
	if p.provisional.stopped {
		t.Error("adopted provisional must not be stopped")
	}
}

func TestAcquireBestRearLastResort(t *testing.T) {
	p := &fakeProvider{
		provisionalErr: fmt.Errorf("denied"),
		enumerateErr:   fmt.Errorf("denied"),
		lastResort:     &fakeCamTrack{id: "generic"},
	}
	cam := NewCamera(p, nil)

	track, err := cam.AcquireBestRear(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if track.DeviceID() != "generic" {
		t.Fatalf("acquired %s, want the generic request", track.DeviceID())
	}
}

func TestAcquireBestRearRejectsNilLastResort(t *testing.T) {
	p := &fakeProvider{
		provisionalErr: fmt.Errorf("denied"),
		enumerateErr:   fmt.Errorf("denied"),
		lastResortNil:  true,
	}
	cam := NewCamera(p, nil)

	if _, err := cam.AcquireBestRear(context.Background()); err == nil {
		t.Fatal("want error when the generic request yields no track")
	}
	if cam.Track() != nil {
		t.Error("no track must be adopted")
	}
}

func TestAcquireBestRearTotalFailure(t *testing.T) {
	p := &fakeProvider{
		provisionalErr: fmt.Errorf("denied"),
		enumerateErr:   fmt.Errorf("denied"),
		lastResortErr:  fmt.Errorf("denied"),
	}
	cam := NewCamera(p, nil)

	if _, err := cam.AcquireBestRear(context.Background()); err == nil {
		t.Fatal("want error when no stream can be opened")
	}
	if cam.Track() != nil {
		t.Error("failed acquisition must leave no active track")
	}
}

func TestTorchPrefersPhotoPath(t *testing.T) {
	track := &fakeCamTrack{id: "rear", photoTorch: true, constraintTorch: true}
	p := &fakeProvider{
		devices: []DeviceInfo{{ID: "rear", Label: "back"}},
		tracks:  map[string]*fakeCamTrack{"rear": track},
	}
	cam := NewCamera(p, nil)
	if _, err := cam.AcquireBestRear(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !cam.SetTorch(true) {
		t.Fatal("torch toggle should succeed")
	}
	if !cam.TorchOn() {
		t.Error("torch state should be on")
	}
	if len(track.photoCalls) != 1 || track.photoCalls[0] != true {
		t.Errorf("photo calls = %v", track.photoCalls)
	}
	if len(track.applyCalls) != 0 {
		t.Errorf("constraint path used despite photo support: %v", track.applyCalls)
	}
}

func TestTorchFallsBackToConstraintPath(t *testing.T) {
	track := &fakeCamTrack{id: "rear", constraintTorch: true}
	p := &fakeProvider{
		devices: []DeviceInfo{{ID: "rear", Label: "back"}},
		tracks:  map[string]*fakeCamTrack{"rear": track},
	}
	cam := NewCamera(p, nil)
	if _, err := cam.AcquireBestRear(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !cam.SetTorch(true) {
		t.Fatal("torch toggle should succeed")
	}
	if len(track.applyCalls) != 1 || track.applyCalls[0] != true {
		t.Errorf("constraint calls = %v", track.applyCalls)
	}
}

func TestTorchNoopInHardwareMode(t *testing.T) {
	track := &fakeCamTrack{id: "rear", photoTorch: true}
	p := &fakeProvider{
		devices: []DeviceInfo{{ID: "rear", Label: "back"}},
		tracks:  map[string]*fakeCamTrack{"rear": track},
	}
	cam := NewCamera(p, func() bool { return true })
	if _, err := cam.AcquireBestRear(context.Background()); err != nil {
		t.Fatal(err)
	}

	if cam.SetTorch(true) {
		t.Error("torch must be inert in hardware-scanner mode")
	}
	if len(track.photoCalls) != 0 {
		t.Errorf("photo calls = %v, want none", track.photoCalls)
	}
}

func TestCameraStop(t *testing.T) {
	track := &fakeCamTrack{id: "rear", photoTorch: true}
	p := &fakeProvider{
		devices: []DeviceInfo{{ID: "rear", Label: "back"}},
		tracks:  map[string]*fakeCamTrack{"rear": track},
	}
	cam := NewCamera(p, nil)
	if _, err := cam.AcquireBestRear(context.Background()); err != nil {
		t.Fatal(err)
	}
	cam.SetTorch(true)

	cam.Stop()

	if !track.stopped {
		t.Error("stop must release the track")
	}
	if cam.Track() != nil {
		t.Error("stop must clear the active track")
	}
	// Torch was turned off before release.
	last := track.photoCalls[len(track.photoCalls)-1]
	if last != false {
		t.Errorf("photo calls = %v, last toggle must be off", track.photoCalls)
	}

	// Idempotent with no active track.
	cam.Stop()
}
