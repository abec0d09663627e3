// Package posture classifies a subject's posture from body-landmark geometry.
//
// Classification is a pure function over a single frame: it compares the
// torso length (shoulder center to hip center) against the leg length (hip
// center to knee center). A folded knee shortens the visible leg, so a high
// torso share of the total means the subject is seated.
package posture

import (
	"github.com/jmoon-dev/go-classwatch/pkg/landmark"
	"github.com/jmoon-dev/go-classwatch/pkg/protocol"
)

// CoreVisible reports whether the frame's core landmarks (nose and both
// shoulders) clear the confidence floor. Frames that fail this check carry
// no usable geometry and count as detection misses.
func CoreVisible(f landmark.Frame, minConfidence float64) bool {
	return f.At(landmark.Nose).Visibility > minConfidence &&
		f.At(landmark.LeftShoulder).Visibility > minConfidence &&
		f.At(landmark.RightShoulder).Visibility > minConfidence
}

// Classify derives a posture class from one landmark frame. It never fails:
// low-confidence input degrades to StatusUnknown.
func Classify(f landmark.Frame, cfg Config) protocol.Status {
	leftShoulder := f.At(landmark.LeftShoulder)
	rightShoulder := f.At(landmark.RightShoulder)

	if leftShoulder.Visibility < cfg.MinConfidence || rightShoulder.Visibility < cfg.MinConfidence {
		return protocol.StatusUnknown
	}

	nose := f.At(landmark.Nose)

	// Hand raise takes priority over posture: a visible wrist held above
	// the head by the configured margin.
	if cfg.DetectHandRaise {
		leftWrist := f.At(landmark.LeftWrist)
		rightWrist := f.At(landmark.RightWrist)

		leftRaised := leftWrist.Visibility > 0.5 && leftWrist.Y < nose.Y-cfg.HandRaiseMargin
		rightRaised := rightWrist.Visibility > 0.5 && rightWrist.Y < nose.Y-cfg.HandRaiseMargin
		if leftRaised || rightRaised {
			return protocol.StatusHandRaised
		}
	}

	shoulderCenterY := (leftShoulder.Y + rightShoulder.Y) / 2
	hipCenterY := f.Midpoint(landmark.LeftHip, landmark.RightHip).Y
	kneeCenterY := f.Midpoint(landmark.LeftKnee, landmark.RightKnee).Y

	torsoLength := hipCenterY - shoulderCenterY
	legLength := kneeCenterY - hipCenterY

	// Standing keeps torso and leg in proportion; sitting folds the knees
	// and inflates the torso's share of the total.
	if total := torsoLength + legLength; total != 0 {
		ratio := torsoLength / total
		if ratio < cfg.StandingMaxRatio {
			return protocol.StatusStanding
		}
		if ratio > cfg.SittingMinRatio {
			return protocol.StatusSitting
		}
	}

	// Dead zone: fall back to absolute nose height. Standing puts the head
	// near the top of the frame.
	if nose.Y < cfg.NoseStandingMaxY {
		return protocol.StatusStanding
	}
	if nose.Y > cfg.NoseSittingMinY {
		return protocol.StatusSitting
	}

	return protocol.StatusSitting
}
