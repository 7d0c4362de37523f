// Package carousel implements the cyclic slide index of the home page
// carousel. The index lives in the visitor session; this package only
// computes transitions.
package carousel

// Actions accepted by the carousel endpoint. The names are part of the
// page markup contract and appear verbatim on the control buttons.
const (
	ActionNext = "carousel_next"
	ActionPrev = "carousel_prev"
)

// State is a position in a sequence of Len slides. The zero value is the
// initial state.
type State struct {
	Index int
	Len   int
}

// New returns the state for a carousel of n slides positioned at index,
// clamped into range.
func New(index, n int) State {
	return State{Index: index, Len: n}.Clamp()
}

// Clamp brings Index back into [0, Len). Anything out of range resets to 0,
// which also covers a featured list that shrank since the index was stored.
func (s State) Clamp() State {
	if s.Len <= 1 || s.Index < 0 || s.Index >= s.Len {
		s.Index = 0
	}
	if s.Len < 0 {
		s.Len = 0
	}
	return s
}

// Next advances one slide, wrapping to the first.
func (s State) Next() State {
	s = s.Clamp()
	if s.Len <= 1 {
		return s
	}
	s.Index = (s.Index + 1) % s.Len
	return s
}

// Prev moves back one slide, wrapping to the last.
func (s State) Prev() State {
	s = s.Clamp()
	if s.Len <= 1 {
		return s
	}
	s.Index = (s.Index - 1 + s.Len) % s.Len
	return s
}

// Apply performs the named action. Unknown actions leave the state clamped
// but otherwise unchanged; ok reports whether the action was recognised.
func (s State) Apply(action string) (next State, ok bool) {
	switch action {
	case ActionNext:
		return s.Next(), true
	case ActionPrev:
		return s.Prev(), true
	}
	return s.Clamp(), false
}
