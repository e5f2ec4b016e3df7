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

// Package controller implements the Benchmark Reconciler: the
// level-triggered state-machine driver described in spec §4.5.
package controller

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	benchv1 "github.com/ugent-idlab/bench-orchestrator/api/v1"
	"github.com/ugent-idlab/bench-orchestrator/internal/launcher"
	"github.com/ugent-idlab/bench-orchestrator/internal/metrics"
	"github.com/ugent-idlab/bench-orchestrator/internal/queue"
	"github.com/ugent-idlab/bench-orchestrator/internal/state"
)

// Finalizer is added to every Benchmark on first reconcile and removed once
// its side effects (chart installs, queue position) have been cleaned up.
const Finalizer = "michiel.van.kenhove.ugent.be/benchmark-cleanup"

// BenchmarkReconciler reconciles a Benchmark object.
type BenchmarkReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	State    *state.Cell
	Queue    *queue.Manager
	Launcher *launcher.Launcher
}

// +kubebuilder:rbac:groups=michiel.van.kenhove.ugent.be,resources=benchmarks,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=michiel.van.kenhove.ugent.be,resources=benchmarks/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=michiel.van.kenhove.ugent.be,resources=benchmarks/finalizers,verbs=update
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch;create;delete;deletecollection
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

// Reconcile is the single entry point per observed Benchmark change. It is
// level-triggered: it reads current observed state and writes the next
// desired state, without memory of prior invocations.
func (r *BenchmarkReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := ctrl.LoggerFrom(ctx).WithValues("benchmark", req.NamespacedName)

	bm := &benchv1.Benchmark{}
	if err := r.Get(ctx, req.NamespacedName, bm); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if !bm.DeletionTimestamp.IsZero() {
		return r.reconcileDeletion(ctx, bm)
	}

	if !controllerutil.ContainsFinalizer(bm, Finalizer) {
		controllerutil.AddFinalizer(bm, Finalizer)
		if err := r.Update(ctx, bm); err != nil {
			return r.handleError(ctx, bm, NewReconcileError(CategoryStore, "failed to add finalizer", err))
		}
	}

	if !bm.HasStatus() {
		if err := r.Queue.Admit(ctx, bm); err != nil {
			return r.handleError(ctx, bm, NewReconcileError(CategoryStore, "failed to admit benchmark", err))
		}
		return ctrl.Result{Requeue: true}, nil
	}

	switch bm.Status.State {
	case benchv1.BenchmarkStatePending:
		return r.reconcilePending(ctx, bm)
	case benchv1.BenchmarkStateRunning:
		r.State.SetRunning(true)
		return ctrl.Result{}, nil
	case benchv1.BenchmarkStateDone:
		return r.reconcileDone(ctx, bm)
	case benchv1.BenchmarkStateCompleted:
		log.V(1).Info("benchmark completed, no-op")
		return ctrl.Result{}, nil
	default:
		return r.handleError(ctx, bm, NewReconcileError(CategoryMissingStatus, "unknown benchmark state: "+string(bm.Status.State), nil))
	}
}

// reconcilePending implements the Pending branch of spec §4.5: the launch
// gate. The declarative state stays Pending here — the transition to
// Running is driven by the workload's own "started" RPC call, not by this
// path, because workloads may take non-trivial time to come up.
func (r *BenchmarkReconciler) reconcilePending(ctx context.Context, bm *benchv1.Benchmark) (ctrl.Result, error) {
	log := ctrl.LoggerFrom(ctx)

	if r.State.IsRunning() {
		return ctrl.Result{}, nil
	}

	if bm.Status.QueuePosition != 0 {
		return ctrl.Result{}, nil
	}

	// Admission claim: from this point no other Pending can be admitted
	// past the launch gate until this benchmark clears the cell.
	r.State.NewBenchmark(bm.Name, bm.Namespace)

	if err := r.Launcher.Launch(ctx, bm); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryLaunch, "failed to launch workloads", err))
	}

	log.Info("launched benchmark workloads", "name", bm.Name, "namespace", bm.Namespace)
	return ctrl.Result{}, nil
}

// reconcileDone implements the Done branch of spec §4.5: teardown, mark
// Completed, clear the cell, and reorder the queue.
func (r *BenchmarkReconciler) reconcileDone(ctx context.Context, bm *benchv1.Benchmark) (ctrl.Result, error) {
	if err := r.Launcher.TeardownPods(ctx, bm.Namespace); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryCleanup, "failed to delete pods", err))
	}

	if err := r.Launcher.UninstallCharts(ctx, bm.Namespace); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryCleanup, "failed to uninstall charts", err))
	}

	exitingPosition := bm.Status.QueuePosition
	before := bm.DeepCopy()
	bm.Status.State = benchv1.BenchmarkStateCompleted
	if err := r.Status().Patch(ctx, bm, client.MergeFrom(before)); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryStore, "failed to mark benchmark completed", err))
	}

	r.State.SetRunning(false)
	r.State.SetDone(true)
	metrics.BenchmarksCompletedTotal.Inc()

	if err := r.Queue.Reorder(ctx, bm.Namespace, exitingPosition); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryStore, "failed to reorder queue", err))
	}

	if r.Recorder != nil {
		r.Recorder.Eventf(bm, corev1.EventTypeNormal, "Completed", "Benchmark %s completed", bm.Name)
	}

	return ctrl.Result{}, nil
}

// reconcileDeletion implements the Finalizer & Cascading Cleanup branch of
// spec §4.7. It is idempotent: re-entry after a crash performs the same
// list-and-delete and the same reorder, both of which converge.
func (r *BenchmarkReconciler) reconcileDeletion(ctx context.Context, bm *benchv1.Benchmark) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(bm, Finalizer) {
		return ctrl.Result{}, nil
	}

	if err := r.Launcher.UninstallCharts(ctx, bm.Namespace); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryCleanup, "failed to uninstall charts during deletion", err))
	}

	if bm.HasStatus() {
		if bm.Status.State == benchv1.BenchmarkStateRunning {
			r.State.ClearState()
		}

		if err := r.Queue.Reorder(ctx, bm.Namespace, bm.Status.QueuePosition); err != nil {
			return r.handleError(ctx, bm, NewReconcileError(CategoryStore, "failed to reorder queue during deletion", err))
		}
	}

	controllerutil.RemoveFinalizer(bm, Finalizer)
	if err := r.Update(ctx, bm); err != nil {
		return r.handleError(ctx, bm, NewReconcileError(CategoryStore, "failed to remove finalizer", err))
	}

	return ctrl.Result{}, nil
}

// handleError logs and events a categorized reconcile failure and applies
// the fixed 60-second requeue backoff described in spec §4.5/§7, instead of
// propagating the error to the controller-runtime workqueue's default
// exponential backoff.
func (r *BenchmarkReconciler) handleError(ctx context.Context, bm *benchv1.Benchmark, err *ReconcileError) (ctrl.Result, error) {
	log := ctrl.LoggerFrom(ctx)
	log.Error(err, "reconcile error", "category", string(err.Category))

	if r.Recorder != nil {
		r.Recorder.Eventf(bm, corev1.EventTypeWarning, string(err.Category), "%s", err.Error())
	}

	return ctrl.Result{RequeueAfter: DefaultRequeueDelay}, nil
}

// SetupWithManager sets up the controller with the Manager.
func (r *BenchmarkReconciler) SetupWithManager(mgr ctrl.Manager) error {
	// MaxConcurrentReconciles > 1: reconciles of different Benchmarks may
	// interleave (spec §5); controller-runtime still serializes reconciles
	// of the same object identity, so the single-writer invariant is
	// enforced by the Shared State Cell, not by reconcile concurrency.
	return ctrl.NewControllerManagedBy(mgr).
		For(&benchv1.Benchmark{}).
		Named("benchmark").
		WithOptions(controller.Options{MaxConcurrentReconciles: 5}).
		Complete(r)
}
