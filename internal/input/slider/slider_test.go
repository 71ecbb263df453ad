package slider

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func collect(changes *[]Range) func(Range) {
	return func(r Range) { *changes = append(*changes, r) }
}

func TestDragCommitsOnceOnPointerUp(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	s.SetTrack(1000)

	s.PointerDown(HandleMax, 900)
	s.PointerMove(800)
	s.PointerMove(700)
	s.PointerMove(620)
	require.Empty(t, changes, "intermediate moves must not fire onChange")
	require.Equal(t, float64(620), s.Current().Max, "live value tracks the pointer")
	require.Equal(t, float64(1000), s.Value().Max, "committed value unchanged mid-drag")

	s.PointerUp()
	require.Len(t, changes, 1)
	require.Equal(t, Range{Min: 0, Max: 620}, changes[0])
	require.Equal(t, changes[0], s.Value())
}

func TestDragMinClampsAtMaxHandle(t *testing.T) {
	// Min dragged toward 550 while max sits at 300: the handles touch
	// at 300, never cross.
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	s.SetTrack(1000)
	s.SetValue(Range{Min: 0, Max: 300})

	s.PointerDown(HandleMin, 550)
	s.PointerMove(550)
	s.PointerUp()

	require.Len(t, changes, 1)
	require.Equal(t, Range{Min: 300, Max: 300}, changes[0])
}

func TestTrackClickSnapsNearerHandle(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	s.SetTrack(1000)
	s.SetValue(Range{Min: 100, Max: 900})

	s.TrackClick(200)
	require.Len(t, changes, 1)
	require.Equal(t, Range{Min: 200, Max: 900}, changes[0])

	s.TrackClick(800)
	require.Len(t, changes, 2)
	require.Equal(t, Range{Min: 200, Max: 800}, changes[1])
}

func TestTrackClickTieGoesToMin(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	s.SetTrack(1000)
	s.SetValue(Range{Min: 400, Max: 600})

	// 500 is equidistant from both handles.
	s.TrackClick(500)
	require.Equal(t, Range{Min: 500, Max: 600}, changes[0])
}

func TestKeyboardStepsCommitImmediately(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	s.SetValue(Range{Min: 100, Max: 900})

	s.KeyPress(HandleMin, KeyArrowRight)
	require.Equal(t, Range{Min: 110, Max: 900}, s.Value())

	s.KeyPress(HandleMin, KeyPageUp)
	require.Equal(t, Range{Min: 210, Max: 900}, s.Value())

	s.KeyPress(HandleMax, KeyPageDown)
	require.Equal(t, Range{Min: 210, Max: 800}, s.Value())

	s.KeyPress(HandleMax, KeyHome)
	require.Equal(t, Range{Min: 210, Max: 210}, s.Value(), "Home clamps max onto min")

	s.KeyPress(HandleMin, KeyEnd)
	require.Equal(t, Range{Min: 210, Max: 210}, s.Value(), "End clamps min onto max")

	s.KeyPress(HandleMax, KeyEnd)
	require.Equal(t, Range{Min: 210, Max: 1000}, s.Value())

	// One commit per key press.
	require.Len(t, changes, 6)
}

func TestKeyboardStopsAtDomainEdges(t *testing.T) {
	s := New(0, 100, 10, nil)
	s.SetValue(Range{Min: 0, Max: 100})
	s.KeyPress(HandleMin, KeyArrowLeft)
	require.Equal(t, float64(0), s.Value().Min)
	s.KeyPress(HandleMax, KeyArrowRight)
	require.Equal(t, float64(100), s.Value().Max)
}

func TestZeroWidthTrackDoesNotPanic(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	// No SetTrack call: width is zero.
	s.PointerDown(HandleMin, 500)
	s.PointerMove(700)
	s.PointerUp()
	require.Len(t, changes, 1)
	require.Equal(t, float64(0), changes[0].Min)
}

func TestSetValueClampsUntrustedInput(t *testing.T) {
	s := New(0, 1000, 10, nil)
	s.SetValue(Range{Min: -200, Max: 5000})
	require.Equal(t, Range{Min: 0, Max: 1000}, s.Value())

	s.SetValue(Range{Min: 800, Max: 200})
	v := s.Value()
	require.LessOrEqual(t, v.Min, v.Max)
}

func TestSetValueAbortsDragWithoutCommit(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 10, collect(&changes))
	s.SetTrack(1000)

	s.PointerDown(HandleMin, 100)
	s.SetValue(Range{Min: 50, Max: 500})
	require.False(t, s.Dragging())
	s.PointerUp()
	require.Empty(t, changes)
}

func TestClickToSeekSnapsToStep(t *testing.T) {
	var changes []Range
	s := New(0, 1000, 50, collect(&changes))
	s.SetTrack(1000)
	s.SetValue(Range{Min: 0, Max: 1000})

	s.TrackClick(226)
	require.Equal(t, float64(250), changes[0].Min)
}

// Property: after any gesture sequence the committed interval satisfies
// min <= max with both inside the domain, and each discrete gesture fires
// at most one onChange.
func TestRandomGestureSequenceKeepsInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		commits := 0
		var last Range
		s := New(0, 1000, 10, func(r Range) {
			commits++
			last = r
		})
		s.SetTrack(500)

		n := rapid.IntRange(1, 60).Draw(t, "n")
		for i := 0; i < n; i++ {
			before := commits
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				h := Handle(rapid.IntRange(0, 1).Draw(t, "handle"))
				s.PointerDown(h, rapid.Float64Range(-100, 600).Draw(t, "x"))
			case 1:
				s.PointerMove(rapid.Float64Range(-100, 600).Draw(t, "mx"))
				require.Equal(t, before, commits, "moves never commit")
			case 2:
				s.PointerUp()
			case 3:
				s.TrackClick(rapid.Float64Range(-100, 600).Draw(t, "cx"))
			case 4:
				h := Handle(rapid.IntRange(0, 1).Draw(t, "kh"))
				k := Key(rapid.IntRange(0, 7).Draw(t, "key"))
				s.KeyPress(h, k)
			}
			require.LessOrEqual(t, commits, before+1, "at most one commit per gesture")

			for _, r := range []Range{s.Current(), s.Value()} {
				require.LessOrEqual(t, r.Min, r.Max)
				require.GreaterOrEqual(t, r.Min, float64(0))
				require.LessOrEqual(t, r.Max, float64(1000))
			}
		}
		if commits > 0 {
			require.Equal(t, last, s.Value())
		}
	})
}
