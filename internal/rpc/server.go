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

package rpc

import (
	"context"
	"errors"
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	benchv1 "github.com/ugent-idlab/bench-orchestrator/api/v1"
	"github.com/ugent-idlab/bench-orchestrator/internal/state"
)

// Server implements CoordinationServer. It is the RPC half of the two-phase
// Pending -> Running transition described in spec §4.5/§4.6: the reconciler
// gates launch, but only a workload's own BenchmarkStarted call flips the
// declarative record (and the Shared State Cell) to Running.
type Server struct {
	Client client.Client
	State  *state.Cell
}

// NewServer returns a Server wired to c and cell.
func NewServer(c client.Client, cell *state.Cell) *Server {
	return &Server{Client: c, State: cell}
}

var _ CoordinationServer = (*Server)(nil)

// BenchmarkStarted marks the currently selected benchmark Running and
// returns the address the workload should write its results to. The
// identity read, the declarative-store write, and the cell's running flag
// flip all happen under one exclusive lock (state.Cell.WithExclusive), so a
// concurrent admission claim cannot reassign the cell's identity mid-call.
func (s *Server) BenchmarkStarted(ctx context.Context, _ *BenchmarkStartRequest) (*BenchmarkStartedResponse, error) {
	logger := log.FromContext(ctx)

	var selectedName, selectedNS string
	err := s.State.WithExclusive(state.TransitionRunning, func(name, ns string) error {
		selectedName, selectedNS = name, ns
		return s.setBenchmarkState(ctx, name, ns, benchv1.BenchmarkStateRunning)
	})
	switch {
	case errors.Is(err, state.ErrNoBenchmarkSelected):
		return nil, status.Error(codes.FailedPrecondition, "no benchmark is currently selected")
	case err != nil:
		logger.Error(err, "failed to mark benchmark running", "name", selectedName, "namespace", selectedNS)
		return nil, status.Errorf(codes.FailedPrecondition, "failed to mark benchmark running: %v", err)
	}

	logger.Info("benchmark started", "name", selectedName, "namespace", selectedNS)

	return &BenchmarkStartedResponse{DatabaseConnectionString: os.Getenv("DATABASE_URL")}, nil
}

// BenchmarkDone marks the currently selected benchmark Done, letting the
// reconciler pick up teardown on its next pass. Identity read, store write,
// and flag flip are one exclusive critical section, same as BenchmarkStarted.
func (s *Server) BenchmarkDone(ctx context.Context, _ *BenchmarkDoneRequest) (*BenchmarkDoneResponse, error) {
	logger := log.FromContext(ctx)

	var selectedName, selectedNS string
	err := s.State.WithExclusive(state.TransitionDone, func(name, ns string) error {
		selectedName, selectedNS = name, ns
		return s.setBenchmarkState(ctx, name, ns, benchv1.BenchmarkStateDone)
	})
	switch {
	case errors.Is(err, state.ErrNoBenchmarkSelected):
		return nil, status.Error(codes.FailedPrecondition, "no benchmark is currently selected")
	case err != nil:
		logger.Error(err, "failed to mark benchmark done", "name", selectedName, "namespace", selectedNS)
		return nil, status.Errorf(codes.FailedPrecondition, "failed to mark benchmark done: %v", err)
	}

	logger.Info("benchmark done", "name", selectedName, "namespace", selectedNS)

	return &BenchmarkDoneResponse{Acknowledge: true}, nil
}

// setBenchmarkState merge-patches the given state onto the named
// Benchmark's status subresource, avoiding clobbering concurrent metadata
// edits (spec §4.2).
func (s *Server) setBenchmarkState(ctx context.Context, name, ns string, newState benchv1.BenchmarkState) error {
	bm := &benchv1.Benchmark{}
	if err := s.Client.Get(ctx, types.NamespacedName{Name: name, Namespace: ns}, bm); err != nil {
		return err
	}
	before := bm.DeepCopy()
	bm.Status.State = newState
	return s.Client.Status().Patch(ctx, bm, client.MergeFrom(before))
}
