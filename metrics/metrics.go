// Package metrics exposes prometheus metrics of the resolution engine.
// All metrics are registered with the default prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ocm"
	subsystem = "resolution"
)

const (
	// CacheHitCounterLabel tracks how many lookups were answered from the cache.
	CacheHitCounterLabel = "cache_hit"
	// CacheMissCounterLabel tracks how many lookups could not be answered from the cache.
	CacheMissCounterLabel = "cache_miss"
	// CacheShareCounterLabel tracks how many artifact requests shared an in-flight resolution.
	CacheShareCounterLabel = "cache_share"
	// RemoteRequestCounterLabel tracks how many requests were sent to remote access points.
	RemoteRequestCounterLabel = "remote_request"
	// RetryCounterLabel tracks how many failed requests were retried.
	RetryCounterLabel = "retry"
	// RepositoryDisabledCounterLabel tracks how many repositories were disabled.
	RepositoryDisabledCounterLabel = "repository_disabled"
)

// CacheHitCounterTotal counts cache hits.
// [kind].
var CacheHitCounterTotal = MustRegisterCounterVec(
	namespace,
	subsystem,
	CacheHitCounterLabel,
	"Number of lookups answered from the cache.",
	"kind",
)

// CacheMissCounterTotal counts cache misses, including expired entries.
// [kind].
var CacheMissCounterTotal = MustRegisterCounterVec(
	namespace,
	subsystem,
	CacheMissCounterLabel,
	"Number of lookups that could not be answered from the cache.",
	"kind",
)

// CacheShareCounterTotal counts artifact requests deduplicated while in flight.
var CacheShareCounterTotal = MustRegisterCounter(
	namespace,
	subsystem,
	CacheShareCounterLabel,
	"Number of artifact resolutions shared between concurrent requests.",
)

// RemoteRequestCounterTotal counts requests to remote access points.
// [repository, operation].
var RemoteRequestCounterTotal = MustRegisterCounterVec(
	namespace,
	subsystem,
	RemoteRequestCounterLabel,
	"Number of requests sent to remote repositories.",
	"repository", "operation",
)

// RetryCounterTotal counts retried requests.
// [repository, operation].
var RetryCounterTotal = MustRegisterCounterVec(
	namespace,
	subsystem,
	RetryCounterLabel,
	"Number of retried repository requests.",
	"repository", "operation",
)

// RepositoryDisabledTotal counts disabled repositories.
// [repository].
var RepositoryDisabledTotal = MustRegisterCounterVec(
	namespace,
	subsystem,
	RepositoryDisabledCounterLabel,
	"Number of repositories disabled after a failure.",
	"repository",
)

// MustRegisterCounter creates and registers a counter.
// Must be called from `init`.
func MustRegisterCounter(namespace, component, name, help string) prometheus.Counter {
	m := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name + "_total",
		Help:      help,
	})
	prometheus.MustRegister(m)
	return m
}

// MustRegisterCounterVec creates and registers a counter vector.
// Must be called from `init`.
func MustRegisterCounterVec(namespace, component, name, help string, labelNames ...string) *prometheus.CounterVec {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name + "_total",
		Help:      help,
	}, labelNames)
	prometheus.MustRegister(m)
	return m
}
