package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the write paths. Queries are read-only and not counted.
var (
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_mutations_total",
		Help: "Successful mutations by collection and operation.",
	}, []string{"collection", "op"})

	MutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_mutation_errors_total",
		Help: "Rejected mutations by operation.",
	}, []string{"op"})

	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classlink_login_failures_total",
		Help: "Login attempts with bad credentials.",
	})

	ImportedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classlink_imported_records_total",
		Help: "Records merged in by imports, by collection.",
	}, []string{"collection"})
)
