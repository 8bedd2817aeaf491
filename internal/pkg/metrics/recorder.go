package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// Recorder feeds pipeline results into the package counters.
type Recorder struct{}

// ChainsReduced implements ports.ZoneMetrics.
func (Recorder) ChainsReduced(n int) {
	chainsReduced.Add(float64(n))
}

// ZoneBuilt implements ports.ZoneMetrics.
func (Recorder) ZoneBuilt(res *domain.ZoneResult) {
	st := res.Stats
	zonesBuilt.Inc()
	zonePieces.WithLabelValues("included").Add(float64(st.Included))
	zonePieces.WithLabelValues("excluded").Add(float64(st.Excluded()))
	policySkips.WithLabelValues("ramp").Add(float64(st.SkippedRamp))
	policySkips.WithLabelValues("highway").Add(float64(st.SkippedHighway))
	buffersPerZone.Observe(float64(st.Buffered))
}

// Push sends every registered metric to a Prometheus pushgateway. Batch runs call it
// once before exiting.
func Push(url, job string) error {
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push()
}
