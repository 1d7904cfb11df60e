package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpJobCreate, 10*time.Millisecond)
	c.RecordTiming(OpJobCreate, 30*time.Millisecond)
	c.RecordFailure(OpJobCreate)

	snap := c.Snapshot()
	require.NotNil(t, snap.JobCreate)
	assert.Equal(t, int64(2), snap.JobCreate.Count)
	assert.Equal(t, int64(1), snap.JobCreate.Failures)
	assert.Equal(t, int64(10), snap.JobCreate.MinTimeMs)
	assert.Equal(t, int64(30), snap.JobCreate.MaxTimeMs)
	assert.Equal(t, float64(20), snap.JobCreate.AvgTimeMs)
}

func TestCollectorEvents(t *testing.T) {
	c := NewCollector()

	c.RecordEvent(OpPushEvent)
	c.RecordEvent(OpPushEvent)
	c.RecordEvent(OpReconnect)

	snap := c.Snapshot()
	require.NotNil(t, snap.PushEvent)
	assert.Equal(t, int64(2), snap.PushEvent.Count)
	assert.Equal(t, int64(0), snap.PushEvent.MinTimeMs)
	require.NotNil(t, snap.Reconnect)
	assert.Equal(t, int64(1), snap.Reconnect.Count)
}

func TestCollectorEmptyOperationsAreNil(t *testing.T) {
	snap := NewCollector().Snapshot()
	assert.Nil(t, snap.Poll)
	assert.Nil(t, snap.JobCreate)
}

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *Collector

	c.RecordTiming(OpPoll, time.Second)
	c.RecordFailure(OpPoll)
	c.RecordEvent(OpPoll)

	assert.Zero(t, c.Snapshot())
}
