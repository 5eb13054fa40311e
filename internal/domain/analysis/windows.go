package analysis

import "math"

// temporal splits the active window into three equal-duration thirds and
// recomputes the per-window sub-metrics independently for each.
func (c *Calculator) temporal(s series, entry, hold float64) Temporal {
	third := hold / 3
	return Temporal{
		First:  c.window(s, entry, entry+third, false),
		Middle: c.window(s, entry+third, entry+2*third, false),
		Final:  c.window(s, entry+2*third, entry+hold, true),
	}
}

// segments cuts the active window into fixed-width slices; the last one may
// be shorter. A non-positive width disables segmentation.
func (c *Calculator) segments(s series, entry, hold float64) []Window {
	if c.segmentSeconds <= 0 || hold <= timeEpsilon {
		return nil
	}
	var out []Window
	for start := entry; start < entry+hold-timeEpsilon; start += c.segmentSeconds {
		end := math.Min(start+c.segmentSeconds, entry+hold)
		out = append(out, c.window(s, start, end, end >= entry+hold-timeEpsilon))
	}
	return out
}

// window recomputes average sway velocity, corrections and arm angles over
// [start, end); the final window of a range includes its end timestamp.
func (c *Calculator) window(s series, start, end float64, closed bool) Window {
	w := Window{Start: start, End: end}
	duration := end - start
	if duration <= timeEpsilon {
		return w
	}

	inWindow := func(ts float64) bool {
		if ts < start {
			return false
		}
		if closed {
			return ts <= end+timeEpsilon
		}
		return ts < end
	}

	// Path within the window: steps whose both endpoints fall inside.
	var path float64
	var xs, ys, ts []float64
	prevIn := false
	for i := range s.ts {
		in := inWindow(s.ts[i])
		if in {
			xs = append(xs, s.midX[i])
			ys = append(ys, s.midY[i])
			ts = append(ts, s.ts[i])
			if prevIn && i > 0 {
				path += s.steps[i-1]
			}
		}
		prevIn = in
	}
	w.AvgVelocity = path / duration
	w.Corrections, _ = roundTripCorrections(xs, ys, ts, c.correctionThreshold*s.scale)

	w.ArmAngleLeft = meanInWindow(s.armLeftTs, s.armLeftDeg, inWindow)
	w.ArmAngleRight = meanInWindow(s.armRightTs, s.armRightDeg, inWindow)
	return w
}

func meanInWindow(ts, vals []float64, inWindow func(float64) bool) float64 {
	var sum float64
	var n int
	for i := range ts {
		if inWindow(ts[i]) {
			sum += vals[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
