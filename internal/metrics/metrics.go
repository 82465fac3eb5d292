// v1
// internal/metrics/metrics.go
// Package metrics exposes Prometheus-compatible counters for simulator activity.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type counterVec struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (c *counterVec) inc(label string) {
	c.mu.Lock()
	c.values[strings.TrimSpace(label)]++
	c.mu.Unlock()
}

func (c *counterVec) snapshot() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

var (
	ticksTotal       = newCounterVec()
	journalWritesTot = newCounterVec()
	journalSkipsTot  = newCounterVec()
	reducerRunsTotal = newCounterVec()
	publishTotal     = newCounterVec()
	feedPublishTotal = newCounterVec()
)

// IncTick increments the tick counter for the given room.
func IncTick(room string) { ticksTotal.inc(room) }

// IncJournalWrite counts a journal-worthy transition per appliance.
func IncJournalWrite(appliance string) { journalWritesTot.inc(appliance) }

// IncJournalSkip counts a de-duplicated (steady-state) record attempt per appliance.
func IncJournalSkip(appliance string) { journalSkipsTot.inc(appliance) }

// IncReducerRun counts energy reductions per appliance.
func IncReducerRun(appliance string) { reducerRunsTotal.inc(appliance) }

// IncPublish counts transition publish outcomes by result label.
func IncPublish(result string) { publishTotal.inc(result) }

// IncFeedPublish counts sensor sample publish outcomes by result label.
func IncFeedPublish(result string) { feedPublishTotal.inc(result) }

// Render returns the Prometheus exposition for all simulator metrics.
func Render() string {
	var b strings.Builder
	writeMetricHeader(&b, "homesim_ticks_total", "counter")
	writeCounter(&b, "homesim_ticks_total", "room", ticksTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "homesim_journal_writes_total", "counter")
	writeCounter(&b, "homesim_journal_writes_total", "appliance", journalWritesTot.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "homesim_journal_skips_total", "counter")
	writeCounter(&b, "homesim_journal_skips_total", "appliance", journalSkipsTot.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "homesim_reducer_runs_total", "counter")
	writeCounter(&b, "homesim_reducer_runs_total", "appliance", reducerRunsTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "homesim_publish_total", "counter")
	writeCounter(&b, "homesim_publish_total", "result", publishTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "homesim_feed_publish_total", "counter")
	writeCounter(&b, "homesim_feed_publish_total", "result", feedPublishTotal.snapshot())
	return b.String()
}

func writeMetricHeader(b *strings.Builder, name, typ string) {
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(typ)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, label string, values map[string]uint64) {
	if len(values) == 0 {
		fmt.Fprintf(b, "%s{} %d\n", name, 0)
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=\"%s\"} %d\n", name, label, escapeLabel(k), values[k])
	}
}

func escapeLabel(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\"", "\\\"")
	return replacer.Replace(v)
}
