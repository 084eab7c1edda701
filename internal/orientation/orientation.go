package orientation

import (
	"math"

	"github.com/relabs-tech/accel_computer/internal/accel"
)

// Pose is the tilt of the board derived from gravity.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ComputePoseFromAccel computes roll and pitch in degrees from
// accelerometer data in any unit. An accelerometer cannot observe yaw, so
// Yaw is always 0.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromSample computes the pose of a sample.
func FromSample(s accel.Sample) Pose {
	x, y, z := s.MilliG()
	return ComputePoseFromAccel(float64(x), float64(y), float64(z))
}
