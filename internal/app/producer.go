package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/config"
	"github.com/relabs-tech/accel_computer/internal/orientation"
)

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, 0, retained, payload)
	token.Wait()
	return token.Error()
}

// connectMQTT connects to the configured broker with the given client ID.
func connectMQTT(cfg *config.Config, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	return client, nil
}

// Producer turns session reads into MQTT messages.
type Producer struct {
	sess *Session
	pub  Publisher
	cfg  *config.Config
	log  *log.Entry

	published int
	lastLog   time.Time
}

// NewProducer publishes what sess reads through pub, on the topics of cfg.
func NewProducer(sess *Session, pub Publisher, cfg *config.Config) *Producer {
	return &Producer{
		sess: sess,
		pub:  pub,
		cfg:  cfg,
		log:  log.WithField("component", "producer"),
	}
}

// Tick reads the device once. A fresh sample is published with its pose
// (both retained); a tap is published as an event.
func (p *Producer) Tick(ctx context.Context) error {
	s, fresh, err := p.sess.Read(ctx)
	if err != nil {
		return err
	}

	if tap, ok := accel.TapFromFlags(s.Source, s.Flags); ok {
		if err := p.publishJSON(p.cfg.TopicTap, false, tap); err != nil {
			return err
		}
		p.log.Infof("%s tap", tap.Kind)
	}
	if !fresh {
		return nil
	}

	if err := p.publishJSON(p.cfg.TopicSample, true, s); err != nil {
		return err
	}
	pose := orientation.FromSample(s)
	if err := p.publishJSON(p.cfg.TopicPose, true, pose); err != nil {
		return err
	}
	p.published++

	if time.Since(p.lastLog) >= time.Duration(p.cfg.ConsoleLogInterval)*time.Millisecond {
		p.lastLog = time.Now()
		p.log.Debugf("sample %s | pose R=%.2f P=%.2f | flags %s", s, pose.Roll, pose.Pitch, s.Flags)
	}
	return nil
}

func (p *Producer) publishJSON(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	if err := p.pub.Publish(topic, retained, payload); err != nil {
		return &publishError{topic: topic, err: err}
	}
	return nil
}

// publishError marks a failure that does not involve the device.
type publishError struct {
	topic string
	err   error
}

func (e *publishError) Error() string {
	return fmt.Sprintf("MQTT publish error (%s): %v", e.topic, e.err)
}

func (e *publishError) Unwrap() error {
	return e.err
}

// Run ticks every SAMPLE_INTERVAL until ctx is done. Publish errors are
// logged and skipped; device errors end the loop.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(p.cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Infof("stopping after %d samples", p.published)
			return nil
		case <-ticker.C:
		}
		if err := p.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var pe *publishError
			if errors.As(err, &pe) {
				p.log.Warn(err)
				continue
			}
			return err
		}
	}
}

// RunAccelProducer opens and sets up the accelerometer, connects to MQTT
// and publishes until ctx is done.
func RunAccelProducer(ctx context.Context) error {
	cfg := config.Get()
	l := log.WithField("component", "producer")
	l.Info("starting accel-computer producer (ADXL345 → MQTT)")

	sess, err := OpenSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := sess.Setup(ctx, cfg); err != nil {
		return err
	}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Infof("connected to MQTT %s, publishing every %d ms", cfg.MQTTBroker, cfg.SampleInterval)

	return NewProducer(sess, mqttPublisher{client}, cfg).Run(ctx)
}
