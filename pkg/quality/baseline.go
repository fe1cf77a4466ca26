package quality

import (
	"math"
	"sync"

	"luciq/pkg/signal"
)

// RollingBaseline is a simple in-memory rolling per-platform engagement
// distribution, implementing EngagementBaseline via Welford's online
// mean/variance algorithm (stdlib math only — no statistics library appears
// anywhere in the retrieved corpus; see DESIGN.md).
type RollingBaseline struct {
	mu    sync.Mutex
	stats map[signal.Platform]*welford
}

// NewRollingBaseline constructs an empty baseline.
func NewRollingBaseline() *RollingBaseline {
	return &RollingBaseline{stats: make(map[signal.Platform]*welford)}
}

type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) push(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	delta2 := x - w.mean
	w.m2 += delta * delta2
}

func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n-1)
}

// Observe records one engagement value for platform, updating its rolling
// distribution. Call this as signals are ingested, independent of the
// quality gate's read path.
func (b *RollingBaseline) Observe(platform signal.Platform, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stats[platform]
	if !ok {
		s = &welford{}
		b.stats[platform] = s
	}
	s.push(value)
}

// ZScore implements EngagementBaseline. Returns ok=false until at least two
// observations exist for the platform (variance undefined otherwise).
func (b *RollingBaseline) ZScore(platform signal.Platform, value float64) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stats[platform]
	if !ok || s.n < 2 {
		return 0, false
	}
	variance := s.variance()
	if variance <= 0 {
		return 0, false
	}
	return (value - s.mean) / math.Sqrt(variance), true
}
