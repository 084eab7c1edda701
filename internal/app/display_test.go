package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/accel_computer/internal/accel"
)

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	for _, b := range img.Pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestDisplayRenderWaiting(t *testing.T) {
	d := &DisplayData{}
	img := d.Render(time.Now())
	assert.Equal(t, displayWidth, img.Bounds().Dx())
	assert.Equal(t, displayHeight, img.Bounds().Dy())
	assert.Positive(t, litPixels(img))
}

func TestDisplayRenderSample(t *testing.T) {
	d := &DisplayData{}
	waiting := d.Render(time.Now())

	d.SetSample(accel.Sample{X: 1, Y: 2, Z: 256, Scale: 4})
	img := d.Render(time.Now())
	assert.NotEqual(t, waiting.Pix, img.Pix)

	d.SetSample(accel.Sample{X: 100, Y: 2, Z: 256, Scale: 4})
	assert.NotEqual(t, img.Pix, d.Render(time.Now()).Pix)
}

func TestDisplayRenderTapBanner(t *testing.T) {
	t0 := time.Now()
	d := &DisplayData{}
	d.SetSample(accel.Sample{Z: 256, Scale: 4})
	plain := d.Render(t0)

	d.SetTap(accel.TapEvent{Kind: accel.TapSingle}, t0)
	single := d.Render(t0.Add(time.Second))
	assert.NotEqual(t, plain.Pix, single.Pix)

	d.SetTap(accel.TapEvent{Kind: accel.TapDouble}, t0)
	double := d.Render(t0.Add(time.Second))
	assert.NotEqual(t, single.Pix, double.Pix)

	// The banner expires and the pose line returns.
	assert.Equal(t, plain.Pix, d.Render(t0.Add(3*time.Second)).Pix)
}
