// Package metrics exposes Prometheus instrumentation for the ledger and the RPC layer.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitledger/internal/apperrors"
)

var (
	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitledger",
		Name:      "ledger_operations_total",
		Help:      "Ledger operations by name and outcome.",
	}, []string{"operation", "outcome"})

	mutationRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitledger",
		Name:      "mutation_retries_total",
		Help:      "Mutations re-run after a concurrent update conflict.",
	}, []string{"operation"})

	balanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "splitledger",
		Name:      "balance_computation_seconds",
		Help:      "Time to fetch, split and consolidate a balance view.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"view"})

	rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitledger",
		Name:      "rpc_requests_total",
		Help:      "Connect RPCs by procedure and status code.",
	}, []string{"procedure", "code"})
)

// Outcome classifies err into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidExpense):
		return "invalid"
	case errors.Is(err, apperrors.ErrUnsupportedSplitKind):
		return "unsupported"
	case errors.Is(err, apperrors.ErrMutationConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "exists"
	default:
		return "error"
	}
}

// ObserveOperation counts one ledger operation.
func ObserveOperation(operation string, err error) {
	ledgerOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveRetry counts one conflict-driven retry of operation.
func ObserveRetry(operation string) {
	mutationRetries.WithLabelValues(operation).Inc()
}

// ObserveBalance records how long a balance view took since start.
func ObserveBalance(view string, start time.Time) {
	balanceDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

// ObserveRPC counts one RPC with its status code ("ok" on success).
func ObserveRPC(procedure, code string) {
	rpcRequests.WithLabelValues(procedure, code).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
