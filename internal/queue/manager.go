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

// Package queue implements the Benchmark queue: admission position
// assignment and reorder-on-exit, per spec §4.3.
package queue

import (
	"context"
	"sort"

	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	benchv1 "github.com/ugent-idlab/bench-orchestrator/api/v1"
	"github.com/ugent-idlab/bench-orchestrator/internal/metrics"
)

// Manager assigns and maintains Benchmark queue positions within a
// namespace. The queue is scoped per-namespace, matching the "one global
// queue per namespace" Non-goal boundary in spec.md.
type Manager struct {
	Client client.Client
}

// NewManager returns a Manager backed by c.
func NewManager(c client.Client) *Manager {
	return &Manager{Client: c}
}

func inQueue(state benchv1.BenchmarkState) bool {
	return state == benchv1.BenchmarkStatePending || state == benchv1.BenchmarkStateRunning
}

// Admit computes bm's queue position and writes its initial status. It is
// idempotent under retry: calling Admit on a Benchmark that already has a
// status is a no-op.
func (m *Manager) Admit(ctx context.Context, bm *benchv1.Benchmark) error {
	if bm.HasStatus() {
		return nil
	}

	logger := log.FromContext(ctx)

	var list benchv1.BenchmarkList
	if err := m.Client.List(ctx, &list, client.InNamespace(bm.Namespace)); err != nil {
		return err
	}

	var position int32
	for i := range list.Items {
		other := &list.Items[i]
		if !inQueue(other.Status.State) {
			continue
		}
		if other.Status.QueuePosition+1 > position {
			position = other.Status.QueuePosition + 1
		}
	}

	before := bm.DeepCopy()
	bm.Status.State = benchv1.BenchmarkStatePending
	bm.Status.QueuePosition = position

	logger.Info("admitting benchmark", "name", bm.Name, "namespace", bm.Namespace, "queuePosition", position)
	if err := m.Client.Status().Patch(ctx, bm, client.MergeFrom(before)); err != nil {
		return err
	}

	metrics.BenchmarksAdmittedTotal.Inc()
	metrics.QueueDepth.WithLabelValues(bm.Namespace).Set(float64(position + 1))
	return nil
}

// Reorder decrements the queue position of every Pending Benchmark in ns
// whose position is greater than exitingPosition. Decrements are applied in
// descending order of current position: if a lower-positioned Pending were
// decremented first, it could momentarily read queuePosition == 0 while a
// higher-positioned record still reads a higher value, and a concurrent
// reconcile could promote two records. Descending order guarantees at most
// one record holds position 0 at any observable intermediate moment.
func (m *Manager) Reorder(ctx context.Context, ns string, exitingPosition int32) error {
	logger := log.FromContext(ctx)

	var list benchv1.BenchmarkList
	if err := m.Client.List(ctx, &list, client.InNamespace(ns)); err != nil {
		return err
	}

	var toShift []*benchv1.Benchmark
	for i := range list.Items {
		bm := &list.Items[i]
		if bm.Status.State == benchv1.BenchmarkStatePending && bm.Status.QueuePosition > exitingPosition {
			toShift = append(toShift, bm)
		}
	}

	sort.Slice(toShift, func(i, j int) bool {
		return toShift[i].Status.QueuePosition > toShift[j].Status.QueuePosition
	})

	for _, bm := range toShift {
		before := bm.DeepCopy()
		bm.Status.QueuePosition--
		logger.Info("reordering benchmark", "name", bm.Name, "namespace", ns, "queuePosition", bm.Status.QueuePosition)
		if err := m.Client.Status().Patch(ctx, bm, client.MergeFrom(before)); err != nil {
			return err
		}
	}

	var depth int
	for i := range list.Items {
		if inQueue(list.Items[i].Status.State) {
			depth++
		}
	}
	metrics.QueueDepth.WithLabelValues(ns).Set(float64(depth))
	return nil
}
