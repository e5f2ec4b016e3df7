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

package controller

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	benchv1 "github.com/ugent-idlab/bench-orchestrator/api/v1"
	"github.com/ugent-idlab/bench-orchestrator/internal/launcher"
	"github.com/ugent-idlab/bench-orchestrator/internal/queue"
	"github.com/ugent-idlab/bench-orchestrator/internal/state"
)

func TestController(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Controller Suite")
}

type fakeHelm struct {
	installs   []string
	uninstalls []string
}

func (f *fakeHelm) Install(_ context.Context, namespace, repositoryURL, chartReference string) error {
	f.installs = append(f.installs, namespace+"/"+repositoryURL+"/"+chartReference)
	return nil
}

func (f *fakeHelm) UninstallAll(_ context.Context, namespace string) error {
	f.uninstalls = append(f.uninstalls, namespace)
	return nil
}

func newScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	Expect(corev1.AddToScheme(s)).To(Succeed())
	Expect(benchv1.AddToScheme(s)).To(Succeed())
	return s
}

func newReconciler(s *runtime.Scheme, objs ...client.Object) (*BenchmarkReconciler, client.Client, *fakeHelm) {
	c := fake.NewClientBuilder().
		WithScheme(s).
		WithObjects(objs...).
		WithStatusSubresource(&benchv1.Benchmark{}).
		Build()

	helm := &fakeHelm{}
	r := &BenchmarkReconciler{
		Client:   c,
		Scheme:   s,
		Recorder: record.NewFakeRecorder(20),
		State:    state.New(),
		Queue:    queue.NewManager(c),
		Launcher: launcher.NewLauncher(c, helm),
	}
	return r, c, helm
}

func podWorkloadBenchmark(name, ns string) *benchv1.Benchmark {
	return &benchv1.Benchmark{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns},
		Spec: benchv1.BenchmarkSpec{
			Title:         "t",
			BenchmarkType: benchv1.BenchmarkTypeSystem,
			Workloads: []benchv1.BenchmarkWorkload{
				{PodTemplate: &corev1.PodTemplateSpec{
					Spec: corev1.PodSpec{
						Containers: []corev1.Container{{Name: "c", Image: "busybox"}},
					},
				}},
			},
		},
	}
}

var _ = Describe("BenchmarkReconciler", func() {
	ctx := context.Background()

	It("admits a Benchmark with no status into queue position 0", func() {
		s := newScheme()
		bm := podWorkloadBenchmark("a", "ns1")
		r, c, _ := newReconciler(s, bm)

		res, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "a", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Requeue).To(BeTrue())

		got := &benchv1.Benchmark{}
		Expect(c.Get(ctx, types.NamespacedName{Name: "a", Namespace: "ns1"}, got)).To(Succeed())
		Expect(got.Status.State).To(Equal(benchv1.BenchmarkStatePending))
		Expect(got.Status.QueuePosition).To(Equal(int32(0)))
	})

	It("assigns distinct increasing positions to concurrently admitted records", func() {
		s := newScheme()
		a := podWorkloadBenchmark("a", "ns1")
		b := podWorkloadBenchmark("b", "ns1")
		r, c, _ := newReconciler(s, a, b)

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "a", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())
		_, err = r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "b", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())

		gotA := &benchv1.Benchmark{}
		Expect(c.Get(ctx, types.NamespacedName{Name: "a", Namespace: "ns1"}, gotA)).To(Succeed())
		gotB := &benchv1.Benchmark{}
		Expect(c.Get(ctx, types.NamespacedName{Name: "b", Namespace: "ns1"}, gotB)).To(Succeed())

		Expect(gotA.Status.QueuePosition).To(Equal(int32(0)))
		Expect(gotB.Status.QueuePosition).To(Equal(int32(1)))
	})

	It("launches workloads only for the Pending record at queue position 0", func() {
		s := newScheme()
		bm := podWorkloadBenchmark("a", "ns1")
		bm.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStatePending, QueuePosition: 0}
		r, c, helm := newReconciler(s, bm)

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "a", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())

		var pods corev1.PodList
		Expect(c.List(ctx, &pods, client.InNamespace("ns1"))).To(Succeed())
		Expect(pods.Items).To(HaveLen(1))
		Expect(pods.Items[0].GenerateName).To(Equal("a-"))
		Expect(r.State.IsRunning()).To(BeFalse())

		name, ns := r.State.Selected()
		Expect(name).To(Equal("a"))
		Expect(ns).To(Equal("ns1"))
		Expect(helm.installs).To(BeEmpty())
	})

	It("does not launch a Pending record while one is already running", func() {
		s := newScheme()
		bm := podWorkloadBenchmark("b", "ns1")
		bm.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStatePending, QueuePosition: 0}
		r, c, _ := newReconciler(s, bm)
		r.State.NewBenchmark("a", "ns1")
		r.State.SetRunning(true)

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "b", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())

		var pods corev1.PodList
		Expect(c.List(ctx, &pods, client.InNamespace("ns1"))).To(Succeed())
		Expect(pods.Items).To(BeEmpty())
	})

	It("marks the cell running on observing Running state", func() {
		s := newScheme()
		bm := podWorkloadBenchmark("a", "ns1")
		bm.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStateRunning, QueuePosition: 0}
		r, _, _ := newReconciler(s, bm)

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "a", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.State.IsRunning()).To(BeTrue())
	})

	It("tears down, completes, and reorders on Done", func() {
		s := newScheme()
		a := podWorkloadBenchmark("a", "ns1")
		a.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStateDone, QueuePosition: 0}
		b := podWorkloadBenchmark("b", "ns1")
		b.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStatePending, QueuePosition: 1}
		pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "leftover", Namespace: "ns1"}, Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "c", Image: "busybox"}}}}

		r, c, helm := newReconciler(s, a, b, pod)
		r.State.NewBenchmark("a", "ns1")
		r.State.SetRunning(true)

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "a", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())

		gotA := &benchv1.Benchmark{}
		Expect(c.Get(ctx, types.NamespacedName{Name: "a", Namespace: "ns1"}, gotA)).To(Succeed())
		Expect(gotA.Status.State).To(Equal(benchv1.BenchmarkStateCompleted))

		gotB := &benchv1.Benchmark{}
		Expect(c.Get(ctx, types.NamespacedName{Name: "b", Namespace: "ns1"}, gotB)).To(Succeed())
		Expect(gotB.Status.QueuePosition).To(Equal(int32(0)))

		Expect(r.State.IsRunning()).To(BeFalse())
		Expect(helm.uninstalls).To(ContainElement("ns1"))

		var pods corev1.PodList
		Expect(c.List(ctx, &pods, client.InNamespace("ns1"))).To(Succeed())
		Expect(pods.Items).To(BeEmpty())
	})

	It("reorders and clears the cell when a Running record is deleted", func() {
		s := newScheme()
		a := podWorkloadBenchmark("a", "ns1")
		a.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStateRunning, QueuePosition: 0}
		a.Finalizers = []string{Finalizer}
		now := metav1.Now()
		a.DeletionTimestamp = &now
		b := podWorkloadBenchmark("b", "ns1")
		b.Status = benchv1.BenchmarkStatus{State: benchv1.BenchmarkStatePending, QueuePosition: 1}

		r, c, helm := newReconciler(s, a, b)
		r.State.NewBenchmark("a", "ns1")
		r.State.SetRunning(true)

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "a", Namespace: "ns1"}})
		Expect(err).NotTo(HaveOccurred())

		Expect(r.State.IsRunning()).To(BeFalse())
		name, _ := r.State.Selected()
		Expect(name).To(Equal(""))
		Expect(helm.uninstalls).To(ContainElement("ns1"))

		gotB := &benchv1.Benchmark{}
		Expect(c.Get(ctx, types.NamespacedName{Name: "b", Namespace: "ns1"}, gotB)).To(Succeed())
		Expect(gotB.Status.QueuePosition).To(Equal(int32(0)))
	})
})
