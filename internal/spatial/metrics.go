package spatial

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	dimensionLabel = "dimension"
)

var (
	nodeSplits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spatial_node_splits_total",
		Help: "The number of tree leaves split into branches.",
	}, []string{dimensionLabel})
)

func instrumentSplit(dimension int) {
	nodeSplits.
		With(prometheus.Labels{dimensionLabel: strconv.Itoa(dimension)}).
		Inc()
}
