package eclipse

import "time"

// Transition records an illumination flip: the satellite moved from
// sunlight into shadow or vice versa. FromShadow is always the negation
// of ToShadow.
type Transition struct {
	Time       time.Time `json:"time"`
	FromShadow bool      `json:"from_shadow"`
	ToShadow   bool      `json:"to_shadow"`
}

// FindTransitions scans [start, end] at a fixed step and emits a Transition
// at every sample where the shadow state differs from the previous sample.
// Intended for already-identified pass windows, which are short enough that
// a fixed step is adequate. Returns an empty list when no flip occurs.
//
// Samples whose position cannot be propagated are skipped without
// resetting the previous state.
func (s *Scanner) FindTransitions(start, end time.Time, step time.Duration) []Transition {
	if step <= 0 {
		step = 30 * time.Second
	}

	transitions := []Transition{}

	var prev bool
	havePrev := false

	for t := start; !t.After(end); t = t.Add(step) {
		cur, ok := s.InShadowAt(t)
		if !ok {
			continue
		}

		if havePrev && cur != prev {
			transitions = append(transitions, Transition{
				Time:       t,
				FromShadow: prev,
				ToShadow:   cur,
			})
		}
		prev = cur
		havePrev = true
	}

	return transitions
}
