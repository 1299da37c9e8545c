package scan

import (
	"context"
	stderrors "errors"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// rearLabelRegex scores devices whose label hints at the environment-facing
// camera.
var rearLabelRegex = regexp.MustCompile(`back|rear|environment`)

// Camera owns the active media track. All consumers (torch control, decode
// engine) borrow a reference but never outlive Stop.
type Camera struct {
	provider DeviceProvider

	mu           sync.Mutex
	track        Track
	torchOn      bool
	hardwareMode func() bool
}

// NewCamera creates a camera session manager. hardwareMode reports whether
// hardware-scanner input is active; torch control is a no-op while it is.
func NewCamera(provider DeviceProvider, hardwareMode func() bool) *Camera {
	if hardwareMode == nil {
		hardwareMode = func() bool { return false }
	}
	return &Camera{provider: provider, hardwareMode: hardwareMode}
}

// candidate is a scored enumerated device.
type candidate struct {
	id    string
	label string
	score int
}

// AcquireBestRear acquires the best rear camera track and makes it the active
// track. Candidates are scored by label, opened in descending score order at
// the target resolution, and the first torch-capable one wins; failing that,
// the first that opened, then the provisional stream, then a last-resort
// generic request. Streams not chosen are released.
func (c *Camera) AcquireBestRear(ctx context.Context) (Track, error) {
	provisional, err := c.provider.OpenRearFacing(ctx)
	if err != nil {
		provisional = nil
	}

	devices, err := c.provider.Enumerate(ctx)
	if err != nil {
		devices = nil
	}

	candidates := make([]candidate, 0, len(devices))
	for _, d := range devices {
		label := strings.ToLower(d.Label)
		score := 1
		if rearLabelRegex.MatchString(label) {
			score = 2
		}
		candidates = append(candidates, candidate{id: d.ID, label: label, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var firstOpened Track
	for _, cand := range candidates {
		track, err := c.provider.Open(ctx, DefaultConstraints(cand.id))
		if err != nil || track == nil {
			continue
		}
		if track.ConstraintTorchSupported() || track.PhotoTorchSupported() {
			if firstOpened != nil {
				firstOpened.Stop()
			}
			if provisional != nil {
				provisional.Stop()
			}
			return c.adopt(track), nil
		}
		if firstOpened == nil {
			firstOpened = track
			continue
		}
		track.Stop()
	}

	if firstOpened != nil {
		if provisional != nil {
			provisional.Stop()
		}
		return c.adopt(firstOpened), nil
	}

	if provisional != nil {
		return c.adopt(provisional), nil
	}

	// Last resort: a generic environment-facing request at the target
	// resolution.
	constraints := DefaultConstraints("")
	constraints.FacingRear = true
	track, err := c.provider.Open(ctx, constraints)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, stderrors.New("no camera stream available")
	}
	return c.adopt(track), nil
}

func (c *Camera) adopt(track Track) Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track = track
	c.torchOn = false
	return track
}

// Track returns the active track, or nil.
func (c *Camera) Track() Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track
}

// TorchSupported reports whether the active track has any torch path.
func (c *Camera) TorchSupported() bool {
	c.mu.Lock()
	track := c.track
	c.mu.Unlock()
	if track == nil {
		return false
	}
	return track.PhotoTorchSupported() || track.ConstraintTorchSupported()
}

// SetTorch toggles the torch, preferring the photo-capability path and
// falling back to the constraint path. No-op without an active track or in
// hardware-scanner mode. Returns whether the toggle succeeded.
func (c *Camera) SetTorch(on bool) bool {
	c.mu.Lock()
	track := c.track
	c.mu.Unlock()

	if track == nil || c.hardwareMode() {
		return false
	}

	if track.PhotoTorchSupported() {
		if err := track.SetPhotoTorch(on); err == nil {
			c.setTorchState(on)
			return true
		} else {
			log.Printf("torch control failed: %v", err)
		}
	}
	if track.ConstraintTorchSupported() {
		if err := track.ApplyTorchConstraint(on); err == nil {
			c.setTorchState(on)
			return true
		} else {
			log.Printf("torch control failed: %v", err)
		}
	}

	c.setTorchState(false)
	return false
}

func (c *Camera) setTorchState(on bool) {
	c.mu.Lock()
	c.torchOn = on
	c.mu.Unlock()
}

// TorchOn reports the last successful torch state.
func (c *Camera) TorchOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torchOn
}

// Stop disables the torch, stops the active track, and clears the reference.
// Idempotent and safe with no active track; every failure path funnels here.
func (c *Camera) Stop() {
	c.SetTorch(false)

	c.mu.Lock()
	track := c.track
	c.track = nil
	c.torchOn = false
	c.mu.Unlock()

	if track != nil {
		track.Stop()
	}
}
