package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()

	c.RecordQuery("kpi_query", 10*time.Millisecond)
	c.RecordQuery("kpi_query", 20*time.Millisecond)
	c.RecordQuery("chitchat", 1*time.Millisecond)
	c.RecordRejection("profanity")
	c.RecordRejection("profanity")
	c.RecordRejection("pii")
	c.RecordLLMCall(false)
	c.RecordLLMCall(true)

	snap := c.Snapshot()

	require.Len(t, snap.Intents, 2)
	require.Equal(t, "chitchat", snap.Intents[0].Intent)
	require.Equal(t, "kpi_query", snap.Intents[1].Intent)
	require.Equal(t, int64(2), snap.Intents[1].Count)
	require.Equal(t, int64(2), snap.Rejections["profanity"])
	require.Equal(t, int64(1), snap.Rejections["pii"])
	require.Equal(t, int64(2), snap.LLMCalls)
	require.Equal(t, int64(1), snap.LLMFallbacks)
}

func TestCollectorLatencyWindowBounded(t *testing.T) {
	c := NewCollector()

	for i := 0; i < maxLatencySamples; i++ {
		c.RecordQuery("kpi_query", 5*time.Millisecond)
	}
	// These overwrite the oldest samples instead of growing the buffer.
	for i := 0; i < 100; i++ {
		c.RecordQuery("kpi_query", 50*time.Millisecond)
	}

	c.mu.RLock()
	stored := len(c.intents["kpi_query"].latencies)
	c.mu.RUnlock()
	require.Equal(t, maxLatencySamples, stored)

	snap := c.Snapshot()
	require.Equal(t, int64(maxLatencySamples+100), snap.Intents[0].Count)
	require.Equal(t, int64(5), snap.Intents[0].LatencyP50Ms)
}

func TestPercentile(t *testing.T) {
	require.Equal(t, int64(0), percentile(nil, 0.5))
	require.Equal(t, int64(5), percentile([]int64{5}, 0.95))

	values := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	require.Equal(t, int64(5), percentile(values, 0.5))
	require.Equal(t, int64(9), percentile(values, 0.95))
}
