package window

import "fmt"

// Hint biases where a requested index sits inside the window.
type Hint uint8

const (
	// Centered places the target near the middle of the window.
	Centered Hint = iota
	// Forward keeps one entry behind the target and fills the rest ahead of it.
	Forward
	// Backward keeps one entry ahead of the target and fills the rest behind it.
	Backward
)

func (h Hint) String() string {
	switch h {
	case Centered:
		return "centered"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Hint(%d)", uint8(h))
	}
}

// Span is an inclusive, contiguous range of time axis indices. Lo > Hi is empty.
type Span struct {
	Lo, Hi int
}

// EmptySpan returns a span containing no index.
func EmptySpan() Span { return Span{Lo: 0, Hi: -1} }

// Empty reports whether the span contains no index.
func (s Span) Empty() bool { return s.Hi < s.Lo }

// Len returns the number of indices in the span.
func (s Span) Len() int {
	if s.Empty() {
		return 0
	}
	return s.Hi - s.Lo + 1
}

// Contains reports whether j lies in the span.
func (s Span) Contains(j int) bool { return j >= s.Lo && j <= s.Hi }

// Covers reports whether o lies entirely in s.
func (s Span) Covers(o Span) bool { return o.Empty() || (!s.Empty() && o.Lo >= s.Lo && o.Hi <= s.Hi) }

// Disjoint reports whether s and o share no index.
func (s Span) Disjoint(o Span) bool { return s.Empty() || o.Empty() || o.Lo > s.Hi || o.Hi < s.Lo }

func (s Span) String() string {
	if s.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d, %d]", s.Lo, s.Hi)
}

// Plan returns the window of width min(capacity, n) that holds target, for an
// axis of n entries. The hint decides how many entries precede the target:
// one for Forward, capacity-1 for Backward and capacity/2 for Centered. Near
// either end of the axis the window slides inwards instead of shrinking.
func Plan(target, n, capacity int, hint Hint) Span {
	width := min(capacity, n)
	if width <= 0 {
		return EmptySpan()
	}

	var before int
	switch hint {
	case Forward:
		before = 1
	case Backward:
		before = capacity - 1
	default:
		before = capacity / 2
	}
	before = min(before, width-1)

	lo := min(max(target-before, 0), n-width)
	return Span{Lo: lo, Hi: lo + width - 1}
}
