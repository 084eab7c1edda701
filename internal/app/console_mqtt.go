package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/config"
	"github.com/relabs-tech/accel_computer/internal/orientation"
)

func formatSampleLine(s accel.Sample) string {
	x, y, z := s.MilliG()
	return fmt.Sprintf("[ACCEL] x=%6d y=%6d z=%6d  (%6d %6d %6d mg)  flags=%s",
		s.X, s.Y, s.Z, x, y, z, s.Flags)
}

func formatPoseLine(p orientation.Pose) string {
	return fmt.Sprintf("[POSE]  ROLL=%6.2f  PITCH=%6.2f", p.Roll, p.Pitch)
}

func formatTapLine(t accel.TapEvent) string {
	return fmt.Sprintf("[TAP]   %s tap at %s", t.Kind, t.Time.Format("15:04:05.000"))
}

// consoleHandler decodes payloads of type T and prints them to out.
func consoleHandler[T any](out io.Writer, topic string, format func(T) string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.WithField("component", "console").Warnf("%s unmarshal error: %v", topic, err)
			return
		}
		fmt.Fprintln(out, format(v))
	}
}

// RunConsoleMQTT prints every sample, pose and tap published on the broker
// until ctx is done.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()
	l := log.WithField("component", "console")

	client, err := connectMQTT(cfg, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := map[string]mqtt.MessageHandler{
		cfg.TopicSample: consoleHandler(os.Stdout, cfg.TopicSample, formatSampleLine),
		cfg.TopicPose:   consoleHandler(os.Stdout, cfg.TopicPose, formatPoseLine),
		cfg.TopicTap:    consoleHandler(os.Stdout, cfg.TopicTap, formatTapLine),
	}
	for topic, handler := range subs {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		l.Infof("subscribed to %s", topic)
	}

	<-ctx.Done()
	l.Info("shutting down")
	return nil
}
