package terrain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeLabel = "mode"
)

var (
	nodesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrain_nodes_generated_total",
		Help: "The number of terrain nodes created by height refinement.",
	})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terrain_generation_duration_seconds",
		Help:    "The time spent in one terrain generation call.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{modeLabel})
)

func instrumentGeneration(mode string, start time.Time, created int) {
	nodesGenerated.Add(float64(created))
	generationDuration.
		With(prometheus.Labels{modeLabel: mode}).
		Observe(time.Since(start).Seconds())
}
