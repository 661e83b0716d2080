package prometheus

import (
	"net/http"

	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/metrics/export/internaldefs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() sessiongate.MetricsSnapshot
	AuditDropped() uint64
}

// Collector is a prometheus.Collector that reads engine metrics at scrape
// time. It holds no state of its own.
type Collector struct {
	source       metricsSource
	counters     []counterDesc
	histograms   []histogramDesc
	auditDropped *prom.Desc
}

type counterDesc struct {
	id   sessiongate.MetricID
	desc *prom.Desc
}

type histogramDesc struct {
	id   sessiongate.MetricID
	desc *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector returns a Collector reading from engine.
func NewCollector(engine *sessiongate.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource returns a Collector reading from any metrics
// source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counters:     make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms:   make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
		auditDropped: prom.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{id: def.ID, desc: prom.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{id: def.ID, desc: prom.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prom.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	for _, d := range c.histograms {
		ch <- d.desc
	}
	ch <- c.auditDropped
}

// Collect emits every counter present in the snapshot. A disabled metrics
// registry yields an empty snapshot, so only the audit drop counter is
// emitted. The latency histogram appears only when histograms are enabled.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for _, d := range c.counters {
		v, ok := snapshot.Counters[d.id]
		if !ok {
			continue
		}
		ch <- prom.MustNewConstMetric(d.desc, prom.CounterValue, float64(v))
	}

	bounds := internaldefs.UpperBoundsSeconds()
	for _, d := range c.histograms {
		raw, ok := snapshot.Histograms[d.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(bounds))
		for i, le := range bounds {
			buckets[le] = cumulative[i]
		}
		// The engine does not track a latency sum.
		ch <- prom.MustNewConstHistogram(d.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prom.MustNewConstMetric(c.auditDropped, prom.CounterValue, float64(c.source.AuditDropped()))
}

// Handler serves the engine metrics from a private registry, so nothing is
// added to prometheus.DefaultRegisterer. Extra collectors, such as the Go
// runtime collector, can be passed in.
func Handler(engine *sessiongate.Engine, extra ...prom.Collector) http.Handler {
	return HandlerFromSource(engine, extra...)
}

// HandlerFromSource is Handler for any metrics source.
func HandlerFromSource(source metricsSource, extra ...prom.Collector) http.Handler {
	registry := prom.NewRegistry()
	registry.MustRegister(NewCollectorFromSource(source))
	registry.MustRegister(extra...)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
