package harness

import (
	"runtime"
	"sync"
)

// memLock serializes measured regions. Heap statistics are process-wide
// state: two overlapping scopes would corrupt both readings, so a scope holds
// the lock for its whole duration and nesting is impossible by construction.
var memLock sync.Mutex

// memScope tracks peak heap growth over one measured region. The peak covers
// the region as a whole, not individual iterations.
type memScope struct {
	baseline uint64
	peak     uint64
}

func startMemScope() *memScope {
	memLock.Lock()
	runtime.GC()
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return &memScope{baseline: stats.HeapAlloc, peak: stats.HeapAlloc}
}

func (m *memScope) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if stats.HeapAlloc > m.peak {
		m.peak = stats.HeapAlloc
	}
}

// stop releases the scope and returns peak heap growth in kilobytes.
func (m *memScope) stop() float64 {
	m.sample()
	memLock.Unlock()
	if m.peak <= m.baseline {
		return 0
	}
	return float64(m.peak-m.baseline) / 1024
}
