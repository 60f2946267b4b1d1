// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics wraps prometheus/client_golang counters and
// histograms for the decision machine and provider resolver, grounded
// in the teacher's metrics package (metrics/middleware.go instruments
// router dispatch the same way: a request counter, a duration
// histogram, both labeled by route and status).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles the metrics this library records. Register it
// against a prometheus.Registerer once at startup.
type Collectors struct {
	DecisionHalts   *prometheus.CounterVec
	ProviderResolve *prometheus.HistogramVec
	RequestDuration *prometheus.HistogramVec
}

// NewCollectors builds an unregistered Collectors set. namespace
// prefixes every metric name, matching the teacher's metrics package
// convention of a caller-supplied namespace.
func NewCollectors(namespace string) *Collectors {
	return &Collectors{
		DecisionHalts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_halts_total",
			Help:      "Count of requests halted at each decision point, by step name and status.",
		}, []string{"step", "status"}),
		ProviderResolve: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_resolve_seconds",
			Help:      "Time spent resolving a provider's value, by provider name and scope.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "scope"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end decision machine duration, by route and final status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate registration (matching the teacher's metrics setup, which
// runs once at startup).
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(c.DecisionHalts, c.ProviderResolve, c.RequestDuration)
}
