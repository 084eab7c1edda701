package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/accel_computer/internal/accel"
)

func TestComputePoseFromAccel(t *testing.T) {
	patterns := []struct {
		name        string
		ax, ay, az  float64
		roll, pitch float64
	}{
		{"flat", 0, 0, 1000, 0, 0},
		{"rolled right", 0, 1000, 0, 90, 0},
		{"nose down", 1000, 0, 0, 0, -90},
		{"nose up", -1000, 0, 0, 0, 90},
		{"45 roll", 0, 1000, 1000, 45, 0},
	}
	for _, p := range patterns {
		t.Run(p.name, func(t *testing.T) {
			pose := ComputePoseFromAccel(p.ax, p.ay, p.az)
			assert.InDelta(t, p.roll, pose.Roll, 1e-9)
			assert.InDelta(t, p.pitch, pose.Pitch, 1e-9)
			assert.Zero(t, pose.Yaw)
		})
	}
}

func TestFromSample(t *testing.T) {
	pose := FromSample(accel.Sample{X: 0, Y: 0, Z: 33, Scale: 31})
	assert.InDelta(t, 0, pose.Roll, 1e-9)
	assert.InDelta(t, 0, pose.Pitch, 1e-9)
}
