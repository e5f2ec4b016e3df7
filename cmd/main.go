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

package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"k8s.io/client-go/tools/record"

	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	benchv1 "github.com/ugent-idlab/bench-orchestrator/api/v1"
	"github.com/ugent-idlab/bench-orchestrator/internal/controller"
	"github.com/ugent-idlab/bench-orchestrator/internal/launcher"
	"github.com/ugent-idlab/bench-orchestrator/internal/queue"
	"github.com/ugent-idlab/bench-orchestrator/internal/rpc"
	"github.com/ugent-idlab/bench-orchestrator/internal/startup"
	"github.com/ugent-idlab/bench-orchestrator/internal/state"
	"github.com/ugent-idlab/bench-orchestrator/internal/statusapi"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntimeMust(clientgoscheme.AddToScheme(scheme))
	utilruntimeMust(benchv1.AddToScheme(scheme))
}

func utilruntimeMust(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	var metricsAddr string
	var probeAddr string
	var statusAddr string
	var grpcAddr string
	var enableLeaderElection bool

	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metrics endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.StringVar(&statusAddr, "status-bind-address", envOrDefault("STATUS_BIND_ADDRESS", ":8082"), "The address the status HTTP endpoint binds to.")
	flag.StringVar(&grpcAddr, "grpc-bind-address", envOrDefault("GRPC_SOCKET_ADDRESS", ":9090"), "The address the Coordination gRPC endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false, "Enable leader election. Only one replica should run at a time; see spec's single-replica assumption.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	setupLog := ctrl.Log.WithName("setup")

	restConfig := ctrl.GetConfigOrDie()

	startup.EnsureCRD(context.Background(), restConfig, ctrl.Log.WithName("startup"))

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "bench-orchestrator.michiel.van.kenhove.ugent.be",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	cell := state.New()
	queueManager := queue.NewManager(mgr.GetClient())
	benchLauncher := launcher.NewLauncher(mgr.GetClient(), &launcher.CLIHelmRunner{})

	reconciler := &controller.BenchmarkReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: eventRecorderOrDie(mgr),
		State:    cell,
		Queue:    queueManager,
		Launcher: benchLauncher,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Benchmark")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	rpcServer := rpc.NewServer(mgr.GetClient(), cell)
	statusHTTP := &http.Server{Addr: statusAddr, Handler: statusapi.NewRouter(cell)}

	ctx := ctrl.SetupSignalHandler()

	go func() {
		setupLog.Info("starting coordination RPC endpoint", "address", grpcAddr)
		if err := rpc.Serve(ctx, grpcAddr, rpcServer); err != nil {
			setupLog.Error(err, "coordination RPC endpoint exited")
			os.Exit(1)
		}
	}()

	go func() {
		setupLog.Info("starting status HTTP endpoint", "address", statusAddr)
		if err := statusHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			setupLog.Error(err, "status HTTP endpoint exited")
			os.Exit(1)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = statusHTTP.Close()
	}()

	setupLog.Info("starting manager")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func eventRecorderOrDie(mgr ctrl.Manager) record.EventRecorder {
	return mgr.GetEventRecorderFor("benchmark-controller")
}
