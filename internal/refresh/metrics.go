package refresh

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KonishchevDmitry/headlined/pkg/aggregate"
	"github.com/KonishchevDmitry/headlined/pkg/feed"
)

type metrics struct {
	startTime prometheus.Gauge
	cycleTime prometheus.Gauge

	cycleDuration   prometheus.Histogram
	fetchDuration   *prometheus.HistogramVec
	resolveDuration *prometheus.HistogramVec

	sourceStatus *prometheus.CounterVec
	headlines    *prometheus.GaugeVec
}

func makeMetrics() metrics {
	startTime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "headlines_start_time",
		Help: "Daemon start time",
	})
	startTime.SetToCurrentTime()

	return metrics{
		startTime: startTime,

		cycleTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "headlines_cycle_time",
			Help: "Last refresh cycle completion time",
		}),

		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "headlines_cycle_duration",
			Help:    "Refresh cycle duration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60, 120},
		}),

		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "headlines_fetch_duration",
			Help:    "Document fetch duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"name"}),

		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "headlines_resolve_duration",
			Help:    "Source resolution duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"name"}),

		sourceStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "headlines_source_status",
			Help: "Source resolution status",
		}, []string{"name", "status"}),

		headlines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "headlines_articles",
			Help: "Number of unique articles per category",
		}, []string{"category"}),
	}
}

func (m *metrics) observe(result *aggregate.Result) {
	m.cycleTime.Set(float64(result.Time.Unix()))
	m.cycleDuration.Observe(result.Duration.Seconds())

	for _, stats := range result.Sources {
		m.resolveDuration.WithLabelValues(stats.Name).Observe(stats.Duration.Seconds())
		m.sourceStatus.WithLabelValues(stats.Name, stats.Status.String()).Inc()
	}

	counts := make(map[feed.Category]int)
	for _, article := range result.Articles {
		counts[article.Category]++
	}
	for _, category := range feed.Categories {
		m.headlines.WithLabelValues(string(category)).Set(float64(counts[category]))
	}
}

var _ prometheus.Collector = &metrics{}

func (m *metrics) Describe(descs chan<- *prometheus.Desc) {
	m.startTime.Describe(descs)
	m.cycleTime.Describe(descs)
	m.cycleDuration.Describe(descs)
	m.fetchDuration.Describe(descs)
	m.resolveDuration.Describe(descs)
	m.sourceStatus.Describe(descs)
	m.headlines.Describe(descs)
}

func (m *metrics) Collect(metrics chan<- prometheus.Metric) {
	m.startTime.Collect(metrics)
	m.cycleTime.Collect(metrics)
	m.cycleDuration.Collect(metrics)
	m.fetchDuration.Collect(metrics)
	m.resolveDuration.Collect(metrics)
	m.sourceStatus.Collect(metrics)
	m.headlines.Collect(metrics)
}
