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
	"net"

	"google.golang.org/grpc"
)

// Serve starts a gRPC server bound to addr (the GRPC_SOCKET_ADDRESS
// described in spec §6), registers srv as the Coordination service, and
// blocks until ctx is canceled, at which point it gracefully stops the
// server. It is meant to be run in its own goroutine from cmd/main.go
// alongside the manager and the status HTTP server.
func Serve(ctx context.Context, addr string, srv CoordinationServer) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s := grpc.NewServer(grpc.ForceServerCodec(Codec))
	RegisterCoordinationServer(s, srv)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
