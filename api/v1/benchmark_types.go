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

package v1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// BenchmarkType tags what kind of resource a Benchmark exercises.
// +kubebuilder:validation:Enum=System;Network
type BenchmarkType string

const (
	// BenchmarkTypeSystem targets system resources (CPU, RAM, disk, ...).
	BenchmarkTypeSystem BenchmarkType = "System"
	// BenchmarkTypeNetwork targets network performance (load, latency, ...).
	BenchmarkTypeNetwork BenchmarkType = "Network"
)

// BenchmarkState is the closed set of states a Benchmark moves through.
// The progression Pending -> Running -> Done -> Completed is one-way; the
// orchestrator never writes a backwards transition.
// +kubebuilder:validation:Enum=Pending;Running;Done;Completed
type BenchmarkState string

const (
	// BenchmarkStatePending means the Benchmark has been admitted into the
	// queue but its workloads have not been observed running yet. The CRD
	// schema defaults status.state to Pending; the Go zero value (the empty
	// string) is not a state and means the Benchmark has not been admitted
	// yet (see HasStatus).
	BenchmarkStatePending BenchmarkState = "Pending"
	// BenchmarkStateRunning means a workload called the started RPC.
	BenchmarkStateRunning BenchmarkState = "Running"
	// BenchmarkStateDone means a workload called the done RPC; teardown and
	// reorder are still pending.
	BenchmarkStateDone BenchmarkState = "Done"
	// BenchmarkStateCompleted is terminal: workloads torn down, queue
	// reordered.
	BenchmarkStateCompleted BenchmarkState = "Completed"
)

// HelmSpec names a chart to install for a chart-backed workload.
type HelmSpec struct {
	// RepositoryURL is the Helm repository to install the chart from.
	// +kubebuilder:validation:MinLength=1
	RepositoryURL string `json:"repositoryUrl"`

	// ChartReference names the chart within the repository.
	// +kubebuilder:validation:MinLength=1
	ChartReference string `json:"chartReference"`
}

// BenchmarkWorkload is one of two variants: a pod-templated workload or a
// chart-backed workload. Exactly one of PodTemplate or HelmChart should be
// set; the Launcher dispatches on which is present.
type BenchmarkWorkload struct {
	// PodTemplate is the template for a container-backed workload. The
	// Launcher stamps in a generated name, namespace, and owner reference.
	// +optional
	PodTemplate *corev1.PodTemplateSpec `json:"podTemplate,omitempty"`

	// HelmChart is the reference for a chart-backed workload.
	// +optional
	HelmChart *HelmSpec `json:"helmChart,omitempty"`
}

// BenchmarkSpec is the desired state of a Benchmark. It is immutable once
// admitted (the orchestrator only ever reads it).
type BenchmarkSpec struct {
	// Title is a human-readable label for the benchmark run.
	// +kubebuilder:validation:MinLength=1
	Title string `json:"title"`

	// BenchmarkType tags what kind of resource this benchmark exercises.
	// +kubebuilder:default=System
	BenchmarkType BenchmarkType `json:"benchmarkType,omitempty"`

	// Workloads is the ordered sequence of workloads this benchmark
	// launches once it reaches the head of the queue.
	// +kubebuilder:validation:MinItems=1
	Workloads []BenchmarkWorkload `json:"workloads"`
}

// BenchmarkStatus is the observed state of a Benchmark, written only by the
// orchestrator via the status subresource.
type BenchmarkStatus struct {
	// State is the current position in the Pending -> Running -> Done ->
	// Completed state machine.
	// +kubebuilder:default=Pending
	State BenchmarkState `json:"state,omitempty"`

	// QueuePosition is this Benchmark's place among Pending/Running
	// Benchmarks in the namespace; 0 is the head of the queue.
	// +kubebuilder:validation:Minimum=0
	QueuePosition int32 `json:"queuePosition"`
}

// HasStatus reports whether this Benchmark has ever been admitted. A
// Benchmark with no status field has never gone through Queue Manager Admit.
func (s *Benchmark) HasStatus() bool {
	return s.Status.State != ""
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=bench
// +kubebuilder:printcolumn:name="State",type=string,JSONPath=".status.state"
// +kubebuilder:printcolumn:name="Queue Position",type=integer,JSONPath=".status.queuePosition"
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=".metadata.creationTimestamp"

// Benchmark is the Schema for the benchmarks API.
type Benchmark struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BenchmarkSpec   `json:"spec,omitempty"`
	Status BenchmarkStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// BenchmarkList contains a list of Benchmark.
type BenchmarkList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Benchmark `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Benchmark{}, &BenchmarkList{})
}
