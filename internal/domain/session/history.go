package session

import "github.com/peakform/stork/internal/domain/pose"

// History is the ordered, append-only frame record of one trial's active
// window. It is owned exclusively by the session while the trial runs and is
// frozen the moment a terminal state is reached; Result hands the frozen
// record to exactly one downstream consumer.
type History struct {
	// ActiveEntry is the media timestamp at which the trial went active.
	ActiveEntry float64
	Frames      []pose.Frame
}

// Duration is the media time covered by the history, from active entry to
// the last recorded frame.
func (h History) Duration() float64 {
	if len(h.Frames) == 0 {
		return 0
	}
	d := h.Frames[len(h.Frames)-1].Timestamp - h.ActiveEntry
	if d < 0 {
		return 0
	}
	return d
}

// Clone deep-copies the history so live previews can never mutate frames the
// trial still owns.
func (h History) Clone() History {
	c := History{ActiveEntry: h.ActiveEntry}
	if h.Frames != nil {
		c.Frames = make([]pose.Frame, len(h.Frames))
		for i, f := range h.Frames {
			c.Frames[i] = f.Clone()
		}
	}
	return c
}
