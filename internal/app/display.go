package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/config"
	"github.com/relabs-tech/accel_computer/internal/orientation"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// DisplayData holds the latest MQTT data for the OLED.
type DisplayData struct {
	mu sync.RWMutex

	sample     accel.Sample
	haveSample bool

	tap     accel.TapEvent
	tapSeen time.Time
}

// SetSample records the latest sample.
func (d *DisplayData) SetSample(s accel.Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sample = s
	d.haveSample = true
}

// SetTap records a tap seen at now.
func (d *DisplayData) SetTap(t accel.TapEvent, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tap = t
	d.tapSeen = now
}

// Render draws the current state. A tap banner replaces the pose line
// for watchBanner after the tap was seen.
func (d *DisplayData) Render(now time.Time) *image1bit.VerticalLSB {
	d.mu.RLock()
	s, have := d.sample, d.haveSample
	tap, tapSeen := d.tap, d.tapSeen
	d.mu.RUnlock()

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	line := func(y int, text string) {
		drawer.Dot = fixed.P(0, y)
		drawer.DrawString(text)
	}

	if !have {
		line(26, "ADXL345")
		line(39, "Waiting...")
		return img
	}

	x, y, z := s.MilliG()
	line(13, fmt.Sprintf("X:%6d mg", x))
	line(26, fmt.Sprintf("Y:%6d mg", y))
	line(39, fmt.Sprintf("Z:%6d mg", z))

	if !tapSeen.IsZero() && now.Sub(tapSeen) < watchBanner {
		if tap.Kind == accel.TapDouble {
			line(56, "Double Tap!")
		} else {
			line(56, "Single Tap!")
		}
	} else {
		pose := orientation.FromSample(s)
		line(56, fmt.Sprintf("R%6.1f P%6.1f", pose.Roll, pose.Pitch))
	}
	return img
}

// subscribeDisplay feeds sample and tap topics into data.
func subscribeDisplay(client mqtt.Client, cfg *config.Config, data *DisplayData) error {
	l := log.WithField("component", "display")

	if token := client.Subscribe(cfg.TopicSample, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s accel.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			l.Warnf("bad sample JSON: %v", err)
			return
		}
		data.SetSample(s)
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicSample, token.Error())
	}

	if token := client.Subscribe(cfg.TopicTap, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var t accel.TapEvent
		if err := json.Unmarshal(msg.Payload(), &t); err != nil {
			l.Warnf("bad tap JSON: %v", err)
			return
		}
		data.SetTap(t, time.Now())
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicTap, token.Error())
	}
	return nil
}

// RunDisplay mirrors the published samples on an SSD1306 OLED until ctx
// is done.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()
	l := log.WithField("component", "display")

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.DisplayI2CBus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	l.Infof("display initialized at 0x%02X", cfg.DisplayI2CAddr)

	data := &DisplayData{}
	if err := dev.Draw(dev.Bounds(), data.Render(time.Now()), image.Point{}); err != nil {
		l.Warnf("error showing splash: %v", err)
	}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribeDisplay(client, cfg, data); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := dev.Draw(dev.Bounds(), data.Render(now), image.Point{}); err != nil {
				l.Warnf("error updating display: %v", err)
			}
		}
	}
}
