package failure

import "github.com/peakform/stork/internal/domain/pose"

// footTouchdown fires when the raised-foot ankle descends to within epsilon
// of the standing-foot ankle height.
type footTouchdown struct {
	epsilon float64
}

// NewFootTouchdown creates the touchdown check. epsilon is in subject-scale
// units.
func NewFootTouchdown(epsilon float64) Check {
	return footTouchdown{epsilon: epsilon}
}

func (footTouchdown) Reason() Reason { return FootTouchdown }

func (c footTouchdown) Fires(s Sample) bool {
	standing, ok := s.Frame.At(s.Leg.Ankle())
	if !ok || standing.Visibility < s.Visibility {
		return false
	}
	raised, ok := s.Frame.At(s.Leg.Opposite().Ankle())
	if !ok || raised.Visibility < s.Visibility {
		return false
	}
	// Image Y grows downward: the raised ankle sits at a smaller Y than the
	// standing ankle. The gap shrinking under epsilon, or going negative
	// (raised foot below the standing one), is a touchdown.
	return standing.Y-raised.Y < c.epsilon*s.Scale
}

// handsOnHips fires when either wrist strays too far from its same-side hip.
type handsOnHips struct {
	threshold float64
}

// NewHandsOnHips creates the hands-off-hips check. threshold is in
// subject-scale units.
func NewHandsOnHips(threshold float64) Check {
	return handsOnHips{threshold: threshold}
}

func (handsOnHips) Reason() Reason { return HandsLeftHips }

func (c handsOnHips) Fires(s Sample) bool {
	for _, side := range []pose.Leg{pose.LegLeft, pose.LegRight} {
		wrist, ok := s.Frame.At(side.Wrist())
		if !ok || wrist.Visibility < s.Visibility {
			continue
		}
		hip, ok := s.Frame.At(side.Hip())
		if !ok || hip.Visibility < s.Visibility {
			continue
		}
		if pose.PlanarDist(wrist, hip) > c.threshold*s.Scale {
			return true
		}
	}
	return false
}

// supportFoot fires when the standing ankle drifts from its active-entry
// position.
type supportFoot struct {
	threshold float64
}

// NewSupportFoot creates the support-foot displacement check. threshold is
// in subject-scale units.
func NewSupportFoot(threshold float64) Check {
	return supportFoot{threshold: threshold}
}

func (supportFoot) Reason() Reason { return SupportFootMoved }

func (c supportFoot) Fires(s Sample) bool {
	ankle, ok := s.Frame.At(s.Leg.Ankle())
	if !ok || ankle.Visibility < s.Visibility {
		return false
	}
	return pose.PlanarDist(ankle, s.SupportRef) > c.threshold*s.Scale
}
