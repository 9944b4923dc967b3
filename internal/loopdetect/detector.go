// Package loopdetect spots an agent repeating itself.
package loopdetect

import (
	"fmt"
	"sort"
	"strings"
)

// minCycleLength is the shortest cycle reported; length 1 is an exact repeat.
const minCycleLength = 2

const (
	DefaultMaxHistory      = 20
	DefaultMaxExactRepeats = 3
	DefaultMaxCycleLength  = 3
)

// Detector keeps a bounded history of action signatures.
type Detector struct {
	maxHistory      int
	maxExactRepeats int
	maxCycleLength  int
	history         []string
}

// Option configures a Detector.
type Option func(*Detector)

func WithMaxHistory(n int) Option      { return func(d *Detector) { d.maxHistory = n } }
func WithMaxExactRepeats(n int) Option { return func(d *Detector) { d.maxExactRepeats = n } }
func WithMaxCycleLength(n int) Option  { return func(d *Detector) { d.maxCycleLength = n } }

func New(opts ...Option) *Detector {
	d := &Detector{
		maxHistory:      DefaultMaxHistory,
		maxExactRepeats: DefaultMaxExactRepeats,
		maxCycleLength:  DefaultMaxCycleLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.maxHistory = max(d.maxHistory, 1)
	d.history = make([]string, 0, d.maxHistory)
	return d
}

// RecordToolCall records a tool call as "tool_call|name|k=v|..." with keys sorted.
func (d *Detector) RecordToolCall(name string, args map[string]any) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{"tool_call", name}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	d.record(strings.Join(parts, "|"))
}

// RecordResponse records a text response as "response|text".
func (d *Detector) RecordResponse(text string) {
	d.record("response|" + text)
}

func (d *Detector) record(sig string) {
	if len(d.history) == d.maxHistory {
		copy(d.history, d.history[1:])
		d.history = d.history[:len(d.history)-1]
	}
	d.history = append(d.history, sig)
}

// CheckForLoop describes a detected loop, or returns "" if there is none.
// Exact repeats are checked first, then cycles from length 2 upwards; the
// shortest matching cycle is reported.
func (d *Detector) CheckForLoop() string {
	n := len(d.history)

	if d.maxExactRepeats > 0 && n >= d.maxExactRepeats {
		tail := d.history[n-d.maxExactRepeats:]
		same := true
		for _, s := range tail[1:] {
			if s != tail[0] {
				same = false
				break
			}
		}
		if same {
			return fmt.Sprintf("Same action repeated %d times: %s", d.maxExactRepeats, tail[0])
		}
	}

	// Two full repeats of the shortest cycle are enough to report it, so
	// A,B,A,B is caught before history holds 2*maxCycleLength entries.
	if n >= 2*minCycleLength {
		for cycleLen := minCycleLength; cycleLen <= d.maxCycleLength && cycleLen <= n/2; cycleLen++ {
			tail := d.history[n-2*cycleLen:]
			if equal(tail[:cycleLen], tail[cycleLen:]) {
				return fmt.Sprintf("Detected repeating cycle of length %d", cycleLen)
			}
		}
	}

	return ""
}

// Clear empties the history.
func (d *Detector) Clear() {
	d.history = d.history[:0]
}

// History returns a copy of the recorded signatures, oldest first.
func (d *Detector) History() []string {
	return append([]string(nil), d.history...)
}

func equal(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
