/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics registers the orchestrator's Prometheus collectors with
// the controller-runtime manager's metrics registry, per the "Domain Stack"
// expansion of spec §4.1/§4.3: counters and gauges observing admission,
// queueing, and launches, exposed on the manager's existing /metrics
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// BenchmarksAdmittedTotal counts every Benchmark that has received an
	// initial queue position.
	BenchmarksAdmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bench_orchestrator_benchmarks_admitted_total",
		Help: "Total number of Benchmark records admitted into a namespace queue.",
	})

	// BenchmarksCompletedTotal counts every Benchmark that has reached the
	// Completed state.
	BenchmarksCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bench_orchestrator_benchmarks_completed_total",
		Help: "Total number of Benchmark records that reached the Completed state.",
	})

	// WorkloadLaunchFailuresTotal counts launch attempts that returned an
	// error, labeled by the workload variant attempted.
	WorkloadLaunchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_orchestrator_workload_launch_failures_total",
		Help: "Total number of workload launch failures, by workload variant.",
	}, []string{"variant"})

	// QueueDepth reports the current number of queued (Pending or Running)
	// Benchmarks in a namespace.
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bench_orchestrator_queue_depth",
		Help: "Current number of Pending or Running Benchmark records, by namespace.",
	}, []string{"namespace"})
)

// init registers every collector with the controller-runtime manager's
// registry, the same registry package/main.go wires into the manager's
// built-in /metrics endpoint.
func init() {
	ctrlmetrics.Registry.MustRegister(
		BenchmarksAdmittedTotal,
		BenchmarksCompletedTotal,
		WorkloadLaunchFailuresTotal,
		QueueDepth,
	)
}
