package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

func TestRunPollDataReady(t *testing.T) {
	ctx := context.Background()
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(ctx))
	d.Feed(
		adxl345.Axes{X: 1, Y: 2, Z: 3},
		adxl345.Axes{X: -1, Y: 0, Z: 8},
		adxl345.Axes{X: 5, Y: 5, Z: 5},
	)

	var buf bytes.Buffer
	require.NoError(t, RunPoll(ctx, sess, &buf, PollOptions{Count: 2}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"X=31 mg, Y=62 mg, Z=93 mg",
		"X=-31 mg, Y=0 mg, Z=248 mg",
	}, lines)
	assert.Equal(t, 1, d.Pending())
}

func TestRunPollActivityTrigger(t *testing.T) {
	ctx := context.Background()
	sess, d := newSimSession(t)
	require.NoError(t, sess.Initialize(ctx))
	d.Feed(adxl345.Axes{X: 2, Y: 0, Z: 0})
	d.Raise(adxl345.Activity)

	var buf bytes.Buffer
	err := RunPoll(ctx, sess, &buf, PollOptions{
		Trigger:  adxl345.Activity,
		Interval: time.Millisecond,
		Count:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, "X=62 mg, Y=0 mg, Z=0 mg\n", buf.String())
}

func TestRunPollStopsOnCancel(t *testing.T) {
	sess, _ := newSimSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	require.NoError(t, RunPoll(ctx, sess, &buf, PollOptions{Interval: time.Millisecond}))
	assert.Empty(t, buf.String())
}
