package scan

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
)

// Mode routes a scan to tag-recording or retrieve-matching.
type Mode string

const (
	ModeTag      Mode = "tag"
	ModeRetrieve Mode = "retrieve"
)

// DefaultDuplicateWindow suppresses repeat reads of the same code. Distinct
// from the decode engine's re-arm cooldown; the two operate at different
// layers.
const DefaultDuplicateWindow = 1200 * time.Millisecond

// Recorder persists scan outcomes. Implemented over the session store.
type Recorder interface {
	// AppendTag records a check-in scan.
	AppendTag(session baggage.Session, code string) error
	// MatchRetrieve records a pickup scan and reports the match outcome
	// and the owning client.
	MatchRetrieve(session baggage.Session, code string) (matched bool, client string, err error)
}

// Presenter surfaces scan outcomes to the operator.
type Presenter interface {
	// Haptic triggers a vibration pattern (durations in ms).
	Haptic(pattern []int)
	// SavedTick shows the transient saved acknowledgement.
	SavedTick()
	// Toast shows a short transient notice.
	Toast(msg string)
	// ShowMatch presents the blocking match confirmation. Scanning stays
	// paused until the operator continues.
	ShowMatch(code string)
	// ShowUnmatched presents the brief non-blocking unmatched warning.
	ShowUnmatched(code string)
}

// ArbiterConfig wires a scan arbiter.
type ArbiterConfig struct {
	DuplicateWindow time.Duration // default DefaultDuplicateWindow
	Recorder        Recorder
	Presenter       Presenter

	// StopScanning pauses the acquisition pipeline when a retrieve
	// matches; the operator must explicitly continue.
	StopScanning func()

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Arbiter de-duplicates near-identical reads and routes a code to
// tag-recording or retrieve-matching based on the current mode.
//
// On a retrieve match scanning pauses behind a blocking confirmation; on no
// match the warning is non-blocking and scanning continues. A false negative
// must not halt throughput, but a false positive must be acknowledged.
type Arbiter struct {
	cfg ArbiterConfig

	mu       sync.Mutex
	mode     Mode
	session  *baggage.Session
	paused   bool
	lastCode string
	lastAt   time.Time
}

// NewArbiter creates a scan arbiter.
func NewArbiter(cfg ArbiterConfig) *Arbiter {
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = DefaultDuplicateWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Arbiter{cfg: cfg}
}

// SetSession sets the active scan scope.
func (a *Arbiter) SetSession(s baggage.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = &s
}

// SetMode sets the routing mode and clears any pause.
func (a *Arbiter) SetMode(m Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = m
	a.paused = false
}

// Mode returns the current routing mode.
func (a *Arbiter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Continue acknowledges a blocking match confirmation; the next scan is
// accepted again.
func (a *Arbiter) Continue() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = false
}

// OnScan reconciles one raw read. Empty input and repeats of the previous
// accepted read within the duplicate window are rejected.
func (a *Arbiter) OnScan(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		if a.cfg.Presenter != nil {
			a.cfg.Presenter.Toast("No active session")
		}
		return
	}
	if a.paused {
		a.mu.Unlock()
		return
	}

	now := a.cfg.Clock()
	if raw == a.lastCode && now.Sub(a.lastAt) < a.cfg.DuplicateWindow {
		a.mu.Unlock()
		return
	}
	a.lastCode = raw
	a.lastAt = now

	mode := a.mode
	session := *a.session
	a.mu.Unlock()

	code := baggage.CanonicalCode(raw)

	switch mode {
	case ModeTag:
		a.recordTag(session, code)
	case ModeRetrieve:
		a.recordRetrieve(session, code)
	}
}

func (a *Arbiter) recordTag(session baggage.Session, code string) {
	if err := a.cfg.Recorder.AppendTag(session, code); err != nil {
		// Storage failures never crash the interaction; the scan loop
		// keeps going without persistence.
		log.Printf("tag record failed: %v", err)
	}
	if p := a.cfg.Presenter; p != nil {
		p.Haptic([]int{30})
		p.SavedTick()
		p.Toast("Tag saved")
	}
}

func (a *Arbiter) recordRetrieve(session baggage.Session, code string) {
	matched, _, err := a.cfg.Recorder.MatchRetrieve(session, code)
	if err != nil {
		log.Printf("retrieve record failed: %v", err)
	}

	if matched {
		a.mu.Lock()
		a.paused = true
		a.mu.Unlock()

		if a.cfg.StopScanning != nil {
			a.cfg.StopScanning()
		}
		if p := a.cfg.Presenter; p != nil {
			p.Haptic([]int{40, 60, 40})
			p.ShowMatch(code)
		}
		return
	}

	if p := a.cfg.Presenter; p != nil {
		p.Haptic([]int{30, 40, 30})
		p.ShowUnmatched(code)
	}
}
