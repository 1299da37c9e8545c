package baggage

import (
	"sort"
	"time"
)

// Some symbologies deliver a long code as two adjacent frames. The assembler
// keeps a short rolling buffer of per-frame digit payloads and recombines the
// two freshest ones into a canonical code.

// DefaultFragmentWindow is how long a fragment stays eligible for assembly.
const DefaultFragmentWindow = 1000 * time.Millisecond

// defaultFragmentCap bounds the rolling buffer.
const defaultFragmentCap = 10

// Fragment is one decoded frame's numeric payload. Never persisted.
type Fragment struct {
	Digits string
	At     time.Time
}

// Assembler reconstructs codes split across consecutive decode frames.
// Not safe for concurrent use; the decode engine serializes access.
type Assembler struct {
	window time.Duration
	cap    int
	clock  func() time.Time
	frags  []Fragment
}

// NewAssembler creates an assembler with the given eligibility window.
// A non-positive window falls back to DefaultFragmentWindow.
func NewAssembler(window time.Duration) *Assembler {
	if window <= 0 {
		window = DefaultFragmentWindow
	}
	return &Assembler{
		window: window,
		cap:    defaultFragmentCap,
		clock:  time.Now,
	}
}

// Add buffers one frame's digit payload. Entries older than the window are
// pruned and immediate duplicates collapse into one.
func (a *Assembler) Add(digits string) {
	if digits == "" {
		return
	}
	now := a.clock()
	a.frags = append(a.frags, Fragment{Digits: digits, At: now})

	if len(a.frags) > a.cap {
		a.frags = a.frags[len(a.frags)-a.cap:]
	}

	kept := a.frags[:0]
	for i, f := range a.frags {
		if now.Sub(f.At) > a.window {
			continue
		}
		if i > 0 && f.Digits == a.frags[i-1].Digits {
			continue
		}
		kept = append(kept, f)
	}
	a.frags = kept
}

// TryAssemble combines the two most recent fragments into a canonical code.
// Combination priority: earlier+later, later+earlier, earlier alone, later
// alone; the first with canonical length wins. Returns "" when fewer than two
// fragments are buffered or no combination fits.
func (a *Assembler) TryAssemble() string {
	if len(a.frags) < 2 {
		return ""
	}

	sorted := make([]Fragment, len(a.frags))
	copy(sorted, a.frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.After(sorted[j].At)
	})

	later, earlier := sorted[0].Digits, sorted[1].Digits
	if earlier == "" || later == "" || earlier == later {
		return ""
	}

	for _, candidate := range []string{earlier + later, later + earlier, earlier, later} {
		if IsCanonicalLength(candidate) {
			return candidate
		}
	}
	return ""
}

// Reset drops all buffered fragments. Must be called after a successful
// full-code emission so stale halves cannot recombine with the next bag.
func (a *Assembler) Reset() {
	a.frags = nil
}

// Len returns the number of buffered fragments.
func (a *Assembler) Len() int {
	return len(a.frags)
}
