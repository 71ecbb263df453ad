// Package slider is the dual-handle range input primitive. It is a pure
// interaction state machine: pointer, track-click and keyboard gestures go
// in, and a committed [min,max] interval comes out through a single commit
// exit point. Intermediate drag positions update the live value only;
// onChange fires once per discrete gesture, never per pointer move, so
// dependent network queries are not flooded.
package slider

import (
	"fmt"
	"math"
)

// Handle identifies one of the two thumbs.
type Handle int

const (
	HandleMin Handle = iota
	HandleMax
)

// Key is a discrete keyboard gesture on a focused handle.
type Key int

const (
	KeyArrowLeft Key = iota
	KeyArrowRight
	KeyArrowUp
	KeyArrowDown
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
)

// Range is a closed numeric interval with Min <= Max.
type Range struct {
	Min float64
	Max float64
}

type state int

const (
	stateIdle state = iota
	stateDragMin
	stateDragMax
)

// pageFactor is how many steps a PageUp/PageDown jump covers.
const pageFactor = 10

type Slider struct {
	min, max, step float64

	trackWidth float64

	state state
	// current is the live display value during a drag; committed is the
	// last value handed to onChange. Keeping them separate means a fast
	// pointer-up cannot race against a stale intermediate value.
	current   Range
	committed Range

	onChange    func(Range)
	formatValue func(float64) string
}

type Option func(*Slider)

// WithFormatValue overrides the display formatting used by Label.
func WithFormatValue(f func(float64) string) Option {
	return func(s *Slider) { s.formatValue = f }
}

// New builds a slider over [min,max] with the given step. onChange may be
// nil. The initial value spans the whole domain.
func New(min, max, step float64, onChange func(Range), opts ...Option) *Slider {
	if max < min {
		min, max = max, min
	}
	if step <= 0 {
		step = 1
	}
	s := &Slider{
		min:       min,
		max:       max,
		step:      step,
		current:   Range{Min: min, Max: max},
		committed: Range{Min: min, Max: max},
		onChange:  onChange,
		formatValue: func(v float64) string {
			return fmt.Sprintf("%g", v)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTrack records the track's pixel width for position mapping.
func (s *Slider) SetTrack(width float64) {
	if width < 0 {
		width = 0
	}
	s.trackWidth = width
}

// SetValue installs an externally supplied value. Out-of-range input is
// clamped on receipt, not trusted. Any drag in progress is abandoned
// without a commit.
func (s *Slider) SetValue(r Range) {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	r.Min = s.clampDomain(r.Min)
	r.Max = s.clampDomain(r.Max)
	s.state = stateIdle
	s.current = r
	s.committed = r
}

// PointerDown starts a drag on the given handle at pixel offset x.
func (s *Slider) PointerDown(h Handle, x float64) {
	if s.state != stateIdle {
		return
	}
	if h == HandleMin {
		s.state = stateDragMin
	} else {
		s.state = stateDragMax
	}
	s.moveActiveHandle(x)
}

// PointerMove updates the live value while dragging. Display-only: no
// commit happens here.
func (s *Slider) PointerMove(x float64) {
	if s.state == stateIdle {
		return
	}
	s.moveActiveHandle(x)
}

// PointerUp ends the drag and commits the live value.
func (s *Slider) PointerUp() {
	if s.state == stateIdle {
		return
	}
	s.state = stateIdle
	s.commit()
}

// TrackClick snaps the nearer handle to the clicked position and commits
// immediately. Ties resolve to the min handle. Ignored while dragging.
func (s *Slider) TrackClick(x float64) {
	if s.state != stateIdle {
		return
	}
	v := s.valueAt(x)
	if math.Abs(v-s.current.Min) <= math.Abs(v-s.current.Max) {
		s.current.Min = s.clampCross(HandleMin, v)
	} else {
		s.current.Max = s.clampCross(HandleMax, v)
	}
	s.commit()
}

// KeyPress applies a discrete keyboard step to the focused handle and
// commits immediately; there is no intermediate drag state. Ignored while
// dragging.
func (s *Slider) KeyPress(h Handle, k Key) {
	if s.state != stateIdle {
		return
	}
	v := s.handleValue(h)
	switch k {
	case KeyArrowLeft, KeyArrowDown:
		v -= s.step
	case KeyArrowRight, KeyArrowUp:
		v += s.step
	case KeyPageDown:
		v -= s.step * pageFactor
	case KeyPageUp:
		v += s.step * pageFactor
	case KeyHome:
		v = s.min
	case KeyEnd:
		v = s.max
	default:
		return
	}
	v = s.clampCross(h, s.clampDomain(v))
	if h == HandleMin {
		s.current.Min = v
	} else {
		s.current.Max = v
	}
	s.commit()
}

// Value returns the committed interval.
func (s *Slider) Value() Range {
	return s.committed
}

// Current returns the live display interval, which differs from Value only
// mid-drag.
func (s *Slider) Current() Range {
	return s.current
}

// Dragging reports whether a drag is in progress.
func (s *Slider) Dragging() bool {
	return s.state != stateIdle
}

// Label formats a handle's live value for display.
func (s *Slider) Label(h Handle) string {
	return s.formatValue(s.handleValue(h))
}

// commit is the single exit point of every gesture.
func (s *Slider) commit() {
	s.committed = s.current
	if s.onChange != nil {
		s.onChange(s.committed)
	}
}

func (s *Slider) moveActiveHandle(x float64) {
	v := s.valueAt(x)
	if s.state == stateDragMin {
		s.current.Min = s.clampCross(HandleMin, v)
	} else {
		s.current.Max = s.clampCross(HandleMax, v)
	}
}

// valueAt maps a pixel offset within the track linearly into the domain,
// snapped to the nearest step multiple and clamped. A zero-width track
// yields the domain minimum rather than dividing by zero.
func (s *Slider) valueAt(x float64) float64 {
	if s.trackWidth <= 0 || s.max == s.min {
		return s.min
	}
	ratio := x / s.trackWidth
	v := s.min + ratio*(s.max-s.min)
	v = s.min + math.Round((v-s.min)/s.step)*s.step
	return s.clampDomain(v)
}

// clampCross enforces the cross-handle invariant: the two handles can
// touch but never cross.
func (s *Slider) clampCross(h Handle, v float64) float64 {
	if h == HandleMin && v > s.current.Max {
		return s.current.Max
	}
	if h == HandleMax && v < s.current.Min {
		return s.current.Min
	}
	return v
}

func (s *Slider) clampDomain(v float64) float64 {
	if v < s.min {
		return s.min
	}
	if v > s.max {
		return s.max
	}
	return v
}

func (s *Slider) handleValue(h Handle) float64 {
	if h == HandleMin {
		return s.current.Min
	}
	return s.current.Max
}
