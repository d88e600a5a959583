package physics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collisionPasses = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "physics_collision_passes",
		Help:    "The number of passes a resolved movement took.",
		Buckets: []float64{1, 2, 3, 4},
	})

	unresolvableCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "physics_unresolvable_collisions_total",
		Help: "The number of movements rejected as unresolvable.",
	})
)

func instrumentPasses(passes int) {
	collisionPasses.Observe(float64(passes))
}

func instrumentUnresolvable() {
	unresolvableCollisions.Inc()
}
