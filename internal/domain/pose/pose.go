// Package pose defines the landmark vocabulary shared by every stage of the
// balance pipeline: frames, points, landmark names and the small geometric
// helpers the detectors and the metrics calculator are built on.
package pose

import "math"

// Point is one tracked keypoint in normalized image coordinates. X and Y are
// fractions of the frame width/height, Z is the estimator's relative depth,
// Visibility is the tracking confidence in [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is a single pose snapshot. Timestamp is media time in seconds,
// monotonically increasing within one trial.
type Frame struct {
	Timestamp float64          `json:"timestamp"`
	Landmarks map[string]Point `json:"landmarks"`
}

// At returns the named landmark and whether it is present in the frame.
func (f Frame) At(name string) (Point, bool) {
	p, ok := f.Landmarks[name]
	return p, ok
}

// Visible reports whether the named landmark is present and tracked with at
// least the given confidence.
func (f Frame) Visible(name string, threshold float64) bool {
	p, ok := f.Landmarks[name]
	return ok && p.Visibility >= threshold
}

// FirstMissing returns the first of the given landmarks that is absent or
// below the visibility threshold. The boolean is true when every landmark
// passed.
func (f Frame) FirstMissing(threshold float64, names ...string) (string, bool) {
	for _, name := range names {
		if !f.Visible(name, threshold) {
			return name, false
		}
	}
	return "", true
}

// Clone returns a deep copy of the frame. Histories hand out clones so a
// caller can never mutate frames a trial still owns.
func (f Frame) Clone() Frame {
	c := Frame{Timestamp: f.Timestamp}
	if f.Landmarks != nil {
		c.Landmarks = make(map[string]Point, len(f.Landmarks))
		for name, p := range f.Landmarks {
			c.Landmarks[name] = p
		}
	}
	return c
}

// SubjectScale estimates the subject's trunk length in image units: the
// planar distance from the shoulder midpoint to the hip midpoint. Thresholded
// landmarks below the given visibility do not contribute; the boolean is
// false when the scale cannot be estimated from this frame.
func (f Frame) SubjectScale(threshold float64) (float64, bool) {
	if _, ok := f.FirstMissing(threshold, LeftShoulder, RightShoulder, LeftHip, RightHip); !ok {
		return 0, false
	}
	shoulders := Midpoint(f.Landmarks[LeftShoulder], f.Landmarks[RightShoulder])
	hips := Midpoint(f.Landmarks[LeftHip], f.Landmarks[RightHip])
	scale := PlanarDist(shoulders, hips)
	if scale <= 0 {
		return 0, false
	}
	return scale, true
}

// Midpoint returns the point halfway between a and b. Its visibility is the
// weaker of the two so downstream thresholding stays conservative.
func Midpoint(a, b Point) Point {
	return Point{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// PlanarDist returns the Euclidean distance between a and b in the image
// plane. Depth is ignored: Z from monocular estimators is too noisy to key
// protocol decisions on.
func PlanarDist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
