package telemetry

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	counterMetricMap   = map[string]prometheus.Counter{}
	counterMetricMutex = sync.Mutex{}

	gaugeMetricMap   = map[string]prometheus.Gauge{}
	gaugeMetricMutex = sync.Mutex{}

	panicMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "panics_recovered_total",
	}, []string{"entity", "msg"})
)

func LogPanic(entity, message string) {
	panicMetric.WithLabelValues(entity, message).Inc()
}

// getKey identifies a metric by name and sorted const labels, so the same
// series is registered once.
func getKey(metric string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(metric)
	for _, key := range keys {
		sb.WriteString("/" + key + ":" + labels[key])
	}
	return sb.String()
}

func NewCounter(metric string, labels map[string]string) prometheus.Counter {
	metricKey := getKey(metric, labels)

	counterMetricMutex.Lock()
	defer counterMetricMutex.Unlock()

	if existing, ok := counterMetricMap[metricKey]; ok {
		return existing
	}
	counter := promauto.NewCounter(prometheus.CounterOpts{Name: metric, ConstLabels: labels})
	counterMetricMap[metricKey] = counter
	return counter
}

func NewGauge(metric string, labels map[string]string) prometheus.Gauge {
	metricKey := getKey(metric, labels)

	gaugeMetricMutex.Lock()
	defer gaugeMetricMutex.Unlock()

	if existing, ok := gaugeMetricMap[metricKey]; ok {
		return existing
	}
	gauge := promauto.NewGauge(prometheus.GaugeOpts{Name: metric, ConstLabels: labels})
	gaugeMetricMap[metricKey] = gauge
	return gauge
}
