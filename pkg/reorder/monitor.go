package reorder

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats holds lock-free statistics about an in-progress or finished
// search. All fields use atomic operations for safe concurrent reads
// while the search itself runs single-threaded.
type Stats struct {
	NodesExplored int64
	Backtracks    int64
	Probes        int64
	GroupsLearned int64
	OracleCalls   int64
	SearchTime    time.Duration
	MaxDepth      int64
}

// Monitor collects search statistics and emits structured log entries.
// A nil *Monitor is safe to call every method on (matches the nil-safe
// monitor convention of the teacher's constraint solver), so callers
// that don't want instrumentation can simply pass nil.
type Monitor struct {
	stats     Stats
	startTime time.Time
	log       *logrus.Entry
}

// NewMonitor creates a Monitor that logs through entry. A nil entry is
// replaced with a discarding logger, so logging is always safe to call.
func NewMonitor(entry *logrus.Entry) *Monitor {
	if entry == nil {
		discard := logrus.New()
		discard.SetOutput(discardWriter{})
		entry = logrus.NewEntry(discard)
	}
	return &Monitor{startTime: time.Now(), log: entry}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// GetStats returns a snapshot of the current statistics. Safe on a nil
// Monitor (returns nil).
func (m *Monitor) GetStats() *Stats {
	if m == nil {
		return nil
	}
	return &Stats{
		NodesExplored: atomic.LoadInt64(&m.stats.NodesExplored),
		Backtracks:    atomic.LoadInt64(&m.stats.Backtracks),
		Probes:        atomic.LoadInt64(&m.stats.Probes),
		GroupsLearned: atomic.LoadInt64(&m.stats.GroupsLearned),
		OracleCalls:   atomic.LoadInt64(&m.stats.OracleCalls),
		SearchTime:    time.Since(m.startTime),
		MaxDepth:      atomic.LoadInt64(&m.stats.MaxDepth),
	}
}

func (m *Monitor) recordNode() {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.stats.NodesExplored, 1)
}

func (m *Monitor) recordBacktrack(depth int) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.stats.Backtracks, 1)
	m.log.WithField("depth", depth).Debug("backtrack")
}

func (m *Monitor) recordProbe(group int, pos int, success bool) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.stats.Probes, 1)
	m.log.WithFields(logrus.Fields{
		"group":   group,
		"pos":     pos,
		"success": success,
	}).Debug("probe")
}

func (m *Monitor) recordDepth(depth int) {
	if m == nil {
		return
	}
	for {
		cur := atomic.LoadInt64(&m.stats.MaxDepth)
		if int64(depth) <= cur || atomic.CompareAndSwapInt64(&m.stats.MaxDepth, cur, int64(depth)) {
			return
		}
	}
}

func (m *Monitor) recordLearn(replaced []int, newSize int) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.stats.GroupsLearned, 1)
	m.log.WithFields(logrus.Fields{
		"replaced": replaced,
		"new_size": newSize,
	}).Info("learned dependency group")
}

func (m *Monitor) recordOracleCall(formulaLen int, status string) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.stats.OracleCalls, 1)
	m.log.WithFields(logrus.Fields{
		"formula_len":   formulaLen,
		"oracle_status": status,
	}).Info("oracle query")
}

func (m *Monitor) warnOracleNonZeroExit(err error) {
	if m == nil {
		return
	}
	m.log.WithField("exit_err", err).Warn("oracle process exited non-zero but produced a response")
}

func (m *Monitor) action(kind string, fields logrus.Fields) {
	if m == nil {
		return
	}
	entry := m.log.WithField("action", kind)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Debug("driver action")
}
