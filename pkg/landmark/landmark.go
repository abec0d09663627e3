// Package landmark defines the body-landmark frame consumed by the
// posture and focus analyzers. The numeric indices follow the common
// 33-point pose topology and must not be reordered: every geometric
// threshold downstream assumes them.
package landmark

// Pose landmark indices.
const (
	Nose          = 0
	LeftEye       = 2
	RightEye      = 5
	LeftEar       = 7
	RightEar      = 8
	LeftShoulder  = 11
	RightShoulder = 12
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26

	// Count is the full frame length.
	Count = 33
)

// Point is one detected landmark in normalized image coordinates.
// Y grows downward. Visibility is the detector's confidence in [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// Frame is one capture tick's worth of landmarks, indexed by the
// constants above. Frames may arrive truncated from a degraded detector.
type Frame []Point

// At returns the point at idx, or a zero Point when the frame is too
// short. A zero Point fails every visibility threshold downstream.
func (f Frame) At(idx int) Point {
	if idx < 0 || idx >= len(f) {
		return Point{}
	}
	return f[idx]
}

// Midpoint returns the midpoint of two landmarks.
func (f Frame) Midpoint(a, b int) Point {
	pa, pb := f.At(a), f.At(b)
	return Point{
		X:          (pa.X + pb.X) / 2,
		Y:          (pa.Y + pb.Y) / 2,
		Z:          (pa.Z + pb.Z) / 2,
		Visibility: (pa.Visibility + pb.Visibility) / 2,
	}
}
