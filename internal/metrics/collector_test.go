package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	assert.Nil(t, snap.Turn)
	assert.Nil(t, snap.TurnFailed)
	assert.Nil(t, snap.FirstToken)
	assert.Nil(t, snap.Request)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpRequest, 10*time.Millisecond)
	c.RecordTiming(OpRequest, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.Request)
	assert.Equal(t, int64(2), snap.Request.Count)
	assert.Equal(t, int64(40), snap.Request.TotalTimeMs)
	assert.Equal(t, 20.0, snap.Request.AvgTimeMs)
	assert.Equal(t, int64(10), snap.Request.MinTimeMs)
	assert.Equal(t, int64(30), snap.Request.MaxTimeMs)
	assert.Nil(t, snap.Request.TotalTokens, "timing-only ops carry no stream stats")
}

func TestRecordStream(t *testing.T) {
	c := NewCollector()
	c.RecordStream(OpTurn, 2*time.Second, 12, 8)
	c.RecordStream(OpTurn, 4*time.Second, 30, 20)

	snap := c.Snapshot()
	require.NotNil(t, snap.Turn)
	assert.Equal(t, int64(2), snap.Turn.Count)
	require.NotNil(t, snap.Turn.TotalFrames)
	assert.Equal(t, int64(42), *snap.Turn.TotalFrames)
	assert.Equal(t, int64(28), *snap.Turn.TotalTokens)
	assert.Equal(t, 14.0, *snap.Turn.AvgTokens)
	assert.Equal(t, int64(8), *snap.Turn.MinTokens)
	assert.Equal(t, int64(20), *snap.Turn.MaxTokens)
}

func TestRecordStreamWithoutTokens(t *testing.T) {
	c := NewCollector()
	c.RecordStream(OpTurnFailed, time.Second, 0, 0)

	snap := c.Snapshot()
	require.NotNil(t, snap.TurnFailed)
	assert.Equal(t, int64(1), snap.TurnFailed.Count)
	assert.Nil(t, snap.TurnFailed.TotalTokens)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordTiming(OpRequest, time.Millisecond)
		c.RecordStream(OpTurn, time.Millisecond, 1, 1)
	})
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			c.RecordTiming(OpFirstToken, time.Millisecond)
			c.RecordStream(OpTurn, time.Millisecond, 2, 1)
		})
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.FirstToken.Count)
	assert.Equal(t, int64(100), *snap.Turn.TotalFrames)
}
