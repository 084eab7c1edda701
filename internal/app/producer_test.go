package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/config"
	"github.com/relabs-tech/accel_computer/internal/orientation"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic, retained, payload})
	return nil
}

func (p *fakePublisher) byTopic(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.msgs {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func testProducerConfig() *config.Config {
	return &config.Config{
		TopicSample:        "accel/sample",
		TopicTap:           "accel/tap",
		TopicPose:          "accel/pose",
		SampleInterval:     1,
		ConsoleLogInterval: 1000,
	}
}

func TestProducerTickPublishesSampleAndPose(t *testing.T) {
	ctx := context.Background()
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(ctx))
	d.Feed(adxl345.Axes{X: 0, Y: 0, Z: 33})

	pub := &fakePublisher{}
	p := NewProducer(sess, pub, testProducerConfig())
	require.NoError(t, p.Tick(ctx))

	samples := pub.byTopic("accel/sample")
	require.Len(t, samples, 1)
	assert.True(t, samples[0].retained)
	var s accel.Sample
	require.NoError(t, json.Unmarshal(samples[0].payload, &s))
	assert.Equal(t, int16(33), s.Z)
	assert.Equal(t, 31, s.Scale)
	assert.Equal(t, SourceName, s.Source)

	poses := pub.byTopic("accel/pose")
	require.Len(t, poses, 1)
	assert.True(t, poses[0].retained)
	var pose orientation.Pose
	require.NoError(t, json.Unmarshal(poses[0].payload, &pose))
	assert.InDelta(t, 0, pose.Roll, 1e-6)
	assert.InDelta(t, 0, pose.Pitch, 1e-6)

	assert.Empty(t, pub.byTopic("accel/tap"))
}

func TestProducerTickWithoutDataPublishesNothing(t *testing.T) {
	ctx := context.Background()
	sess, _ := newSimSession(t)
	require.NoError(t, sess.Initialize(ctx))

	pub := &fakePublisher{}
	require.NoError(t, NewProducer(sess, pub, testProducerConfig()).Tick(ctx))
	assert.Empty(t, pub.msgs)
}

func TestProducerTickPublishesTap(t *testing.T) {
	ctx := context.Background()
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(ctx))
	d.Raise(adxl345.SingleTap | adxl345.DoubleTap)

	pub := &fakePublisher{}
	require.NoError(t, NewProducer(sess, pub, testProducerConfig()).Tick(ctx))

	taps := pub.byTopic("accel/tap")
	require.Len(t, taps, 1)
	assert.False(t, taps[0].retained)
	var ev accel.TapEvent
	require.NoError(t, json.Unmarshal(taps[0].payload, &ev))
	assert.Equal(t, accel.TapDouble, ev.Kind)
	assert.Equal(t, SourceName, ev.Source)

	// The tap latch is cleared by the read.
	pub.msgs = nil
	require.NoError(t, NewProducer(sess, pub, testProducerConfig()).Tick(ctx))
	assert.Empty(t, pub.byTopic("accel/tap"))
}

func TestProducerTickPublishError(t *testing.T) {
	ctx := context.Background()
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(ctx))
	d.SetSteady(adxl345.Axes{Z: 256})

	boom := errors.New("broker gone")
	err := NewProducer(sess, &fakePublisher{err: boom}, testProducerConfig()).Tick(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var pe *publishError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "accel/sample", pe.topic)
}

func TestProducerRunSkipsPublishErrors(t *testing.T) {
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(context.Background()))
	d.SetSteady(adxl345.Axes{Z: 256})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := NewProducer(sess, &fakePublisher{err: errors.New("down")}, testProducerConfig()).Run(ctx)
	assert.NoError(t, err)
}

func TestProducerRunStopsOnDeviceError(t *testing.T) {
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(context.Background()))
	d.Hang(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := NewProducer(sess, &fakePublisher{}, testProducerConfig()).Run(ctx)
	assert.ErrorIs(t, err, adxl345.ErrTransportTimeout)
}

func TestProducerRunPublishes(t *testing.T) {
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(context.Background()))
	d.SetSteady(adxl345.Axes{Z: 256})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	pub := &fakePublisher{}
	p := NewProducer(sess, pub, testProducerConfig())
	require.NoError(t, p.Run(ctx))
	assert.NotEmpty(t, pub.byTopic("accel/sample"))
	assert.Equal(t, len(pub.byTopic("accel/sample")), p.published)
}
