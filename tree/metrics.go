package tree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// spineLookups counts spine extractions by outcome.
	spineLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbor_spine_lookups_total",
		Help: "Spine extractions by result",
	}, []string{"result"})

	tableHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_lookup_table_hits_total",
		Help: "Identities resolved through a lookup table",
	})

	tableBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_lookup_table_builds_total",
		Help: "Lookup tables built and published",
	})

	// tableBuildRaces counts builds discarded because another goroutine
	// published first.
	tableBuildRaces = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arbor_lookup_table_build_races_total",
		Help: "Lookup table builds lost to a concurrent build",
	})
)
