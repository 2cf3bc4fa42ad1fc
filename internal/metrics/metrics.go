// Package metrics aggregates pipeline counters in memory for the
// system metrics endpoint.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector aggregates per-intent request metrics.
type Collector struct {
	mu sync.RWMutex

	intents    map[string]*intentBucket
	rejections map[string]int64

	llmCalls     int64
	llmFallbacks int64
}

// maxLatencySamples bounds the per-intent latency window. Older
// samples are overwritten ring-buffer style, so the percentiles track
// recent traffic instead of the whole process lifetime.
const maxLatencySamples = 1024

type intentBucket struct {
	count     int64
	latencies []int64 // milliseconds, ring of maxLatencySamples
}

func NewCollector() *Collector {
	return &Collector{
		intents:    make(map[string]*intentBucket),
		rejections: make(map[string]int64),
	}
}

// RecordQuery records a processed query with its final intent.
func (c *Collector) RecordQuery(intent string, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.intents[intent]
	if !ok {
		bucket = &intentBucket{latencies: make([]int64, 0, 100)}
		c.intents[intent] = bucket
	}
	bucket.count++
	if len(bucket.latencies) < maxLatencySamples {
		bucket.latencies = append(bucket.latencies, latency.Milliseconds())
	} else {
		bucket.latencies[(bucket.count-1)%maxLatencySamples] = latency.Milliseconds()
	}
}

// RecordRejection records a guardrail rejection by check name.
func (c *Collector) RecordRejection(check string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejections[check]++
}

// RecordLLMCall records an LLM invocation; fallback marks calls that
// failed over to the rule pipeline.
func (c *Collector) RecordLLMCall(fallback bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmCalls++
	if fallback {
		c.llmFallbacks++
	}
}

// IntentSnapshot is the aggregated view of one intent.
type IntentSnapshot struct {
	Intent       string `json:"intent"`
	Count        int64  `json:"count"`
	LatencyP50Ms int64  `json:"latency_p50_ms"`
	LatencyP95Ms int64  `json:"latency_p95_ms"`
}

// Snapshot is the full metrics view.
type Snapshot struct {
	Intents      []IntentSnapshot `json:"intents"`
	Rejections   map[string]int64 `json:"rejections"`
	LLMCalls     int64            `json:"llm_calls"`
	LLMFallbacks int64            `json:"llm_fallbacks"`
}

// Snapshot returns a copy of the current state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Rejections:   make(map[string]int64, len(c.rejections)),
		LLMCalls:     c.llmCalls,
		LLMFallbacks: c.llmFallbacks,
	}
	for check, n := range c.rejections {
		snap.Rejections[check] = n
	}

	for intent, bucket := range c.intents {
		snap.Intents = append(snap.Intents, IntentSnapshot{
			Intent:       intent,
			Count:        bucket.count,
			LatencyP50Ms: percentile(bucket.latencies, 0.50),
			LatencyP95Ms: percentile(bucket.latencies, 0.95),
		})
	}
	sort.Slice(snap.Intents, func(i, j int) bool {
		return snap.Intents[i].Intent < snap.Intents[j].Intent
	})
	return snap
}

func percentile(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
