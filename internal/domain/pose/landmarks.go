package pose

// Landmark names follow the MediaPipe Pose convention used by the upstream
// estimator. Only the subset the balance pipeline reads is named here; frames
// may carry the full 33-point set and the extras are ignored.
const (
	Nose          = "nose"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// StanceLandmarks are the points that must be tracked before a trial may
// start: both hips and both ankles.
var StanceLandmarks = []string{LeftHip, RightHip, LeftAnkle, RightAnkle}

// Leg identifies the standing/support side of a trial. The raised foot is
// always the opposite side.
type Leg string

// Supported legs.
const (
	LegLeft  Leg = "left"
	LegRight Leg = "right"
)

// Valid reports whether l is one of the supported legs.
func (l Leg) Valid() bool {
	return l == LegLeft || l == LegRight
}

// Opposite returns the other leg.
func (l Leg) Opposite() Leg {
	if l == LegLeft {
		return LegRight
	}
	return LegLeft
}

// Ankle returns the ankle landmark name on this side.
func (l Leg) Ankle() string {
	if l == LegLeft {
		return LeftAnkle
	}
	return RightAnkle
}

// Hip returns the hip landmark name on this side.
func (l Leg) Hip() string {
	if l == LegLeft {
		return LeftHip
	}
	return RightHip
}

// Shoulder returns the shoulder landmark name on this side.
func (l Leg) Shoulder() string {
	if l == LegLeft {
		return LeftShoulder
	}
	return RightShoulder
}

// Elbow returns the elbow landmark name on this side.
func (l Leg) Elbow() string {
	if l == LegLeft {
		return LeftElbow
	}
	return RightElbow
}

// Wrist returns the wrist landmark name on this side.
func (l Leg) Wrist() string {
	if l == LegLeft {
		return LeftWrist
	}
	return RightWrist
}
