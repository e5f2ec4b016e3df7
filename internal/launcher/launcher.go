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

// Package launcher materializes the workloads declared by a Benchmark:
// pods with owner references, and chart installs via the helm CLI.
package launcher

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	benchv1 "github.com/ugent-idlab/bench-orchestrator/api/v1"
	"github.com/ugent-idlab/bench-orchestrator/internal/metrics"
)

// ErrNoWorkloadVariant is returned when a BenchmarkWorkload names neither a
// pod template nor a chart reference.
var ErrNoWorkloadVariant = errors.New("launcher: workload has neither podTemplate nor helmChart")

// HelmRunner invokes the helm CLI. It is an interface so tests can swap in a
// fake instead of shelling out to a real binary.
type HelmRunner interface {
	Install(ctx context.Context, namespace, repositoryURL, chartReference string) error
	UninstallAll(ctx context.Context, namespace string) error
}

// Launcher materializes BenchmarkWorkloads for a Benchmark.
//
// Launch is not idempotent by construction: re-invoking it creates
// duplicate pods/charts. Callers must gate invocation behind the
// queuePosition==0-and-not-running admission claim described in spec §4.5.
type Launcher struct {
	Client client.Client
	Helm   HelmRunner
}

// NewLauncher builds a Launcher over c and helm. Chart workloads go through
// helm; pass a CLIHelmRunner to shell out to the helm binary.
func NewLauncher(c client.Client, helm HelmRunner) *Launcher {
	return &Launcher{Client: c, Helm: helm}
}

// Launch creates every workload declared by bm into ns, owned by bm where
// the platform GC affords ownership (pods), and tracked by namespace
// convention otherwise (chart installs).
func (l *Launcher) Launch(ctx context.Context, bm *benchv1.Benchmark) error {
	logger := log.FromContext(ctx)

	for i, workload := range bm.Spec.Workloads {
		switch {
		case workload.PodTemplate != nil:
			if err := l.launchPod(ctx, bm, workload.PodTemplate); err != nil {
				metrics.WorkloadLaunchFailuresTotal.WithLabelValues("pod").Inc()
				return fmt.Errorf("launcher: pod workload %d: %w", i, err)
			}
		case workload.HelmChart != nil:
			logger.Info("installing chart workload", "chart", workload.HelmChart.ChartReference, "repository", workload.HelmChart.RepositoryURL)
			if err := l.Helm.Install(ctx, bm.Namespace, workload.HelmChart.RepositoryURL, workload.HelmChart.ChartReference); err != nil {
				metrics.WorkloadLaunchFailuresTotal.WithLabelValues("helmChart").Inc()
				return fmt.Errorf("launcher: chart workload %d: %w", i, err)
			}
		default:
			metrics.WorkloadLaunchFailuresTotal.WithLabelValues("none").Inc()
			return fmt.Errorf("launcher: workload %d: %w", i, ErrNoWorkloadVariant)
		}
	}

	return nil
}

func (l *Launcher) launchPod(ctx context.Context, bm *benchv1.Benchmark, tmpl *corev1.PodTemplateSpec) error {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: bm.Name + "-",
			Namespace:    bm.Namespace,
			Labels:       tmpl.Labels,
			Annotations:  tmpl.Annotations,
		},
		Spec: *tmpl.Spec.DeepCopy(),
	}

	if err := controllerutil.SetControllerReference(bm, pod, l.Client.Scheme()); err != nil {
		return fmt.Errorf("set owner reference: %w", err)
	}

	return l.Client.Create(ctx, pod)
}

// TeardownPods deletes every pod in ns via a collection delete. This targets
// every pod in the namespace, which is only safe under the convention that
// the namespace is dedicated to benchmarking (spec §9 Open Question); this
// implementation preserves that convention rather than narrowing the
// delete to owner-referenced pods.
func (l *Launcher) TeardownPods(ctx context.Context, ns string) error {
	return l.Client.DeleteAllOf(ctx, &corev1.Pod{}, client.InNamespace(ns))
}

// UninstallCharts uninstalls every chart release tracked in ns.
func (l *Launcher) UninstallCharts(ctx context.Context, ns string) error {
	return l.Helm.UninstallAll(ctx, ns)
}
