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

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name for the Coordination
// endpoint.
const ServiceName = "michiel.van.kenhove.ugent.be.Coordination"

// CoordinationServer is implemented by the orchestrator's RPC endpoint.
type CoordinationServer interface {
	// BenchmarkStarted is invoked by a running workload once it is truly
	// up. See spec §4.6.
	BenchmarkStarted(ctx context.Context, req *BenchmarkStartRequest) (*BenchmarkStartedResponse, error)
	// BenchmarkDone is invoked by a workload after it has persisted its
	// results. See spec §4.6.
	BenchmarkDone(ctx context.Context, req *BenchmarkDoneRequest) (*BenchmarkDoneResponse, error)
}

// CoordinationClient is implemented by callers of the Coordination
// endpoint (workloads, and this repository's own tests).
type CoordinationClient interface {
	BenchmarkStarted(ctx context.Context, req *BenchmarkStartRequest, opts ...grpc.CallOption) (*BenchmarkStartedResponse, error)
	BenchmarkDone(ctx context.Context, req *BenchmarkDoneRequest, opts ...grpc.CallOption) (*BenchmarkDoneResponse, error)
}

type coordinationClient struct {
	cc grpc.ClientConnInterface
}

// NewCoordinationClient wraps cc as a CoordinationClient using the package's
// JSON codec.
func NewCoordinationClient(cc grpc.ClientConnInterface) CoordinationClient {
	return &coordinationClient{cc: cc}
}

func (c *coordinationClient) BenchmarkStarted(ctx context.Context, req *BenchmarkStartRequest, opts ...grpc.CallOption) (*BenchmarkStartedResponse, error) {
	out := new(BenchmarkStartedResponse)
	opts = append(opts, grpc.ForceCodec(Codec))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/BenchmarkStarted", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinationClient) BenchmarkDone(ctx context.Context, req *BenchmarkDoneRequest, opts ...grpc.CallOption) (*BenchmarkDoneResponse, error) {
	out := new(BenchmarkDoneResponse)
	opts = append(opts, grpc.ForceCodec(Codec))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/BenchmarkDone", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Coordination_BenchmarkStarted_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BenchmarkStartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinationServer).BenchmarkStarted(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/BenchmarkStarted"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinationServer).BenchmarkStarted(ctx, req.(*BenchmarkStartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordination_BenchmarkDone_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BenchmarkDoneRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinationServer).BenchmarkDone(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/BenchmarkDone"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinationServer).BenchmarkDone(ctx, req.(*BenchmarkDoneRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for the Coordination service,
// registered with RegisterCoordinationServer the way protoc-gen-go-grpc
// generated code registers a service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CoordinationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BenchmarkStarted", Handler: _Coordination_BenchmarkStarted_Handler},
		{MethodName: "BenchmarkDone", Handler: _Coordination_BenchmarkDone_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coordination.proto",
}

// RegisterCoordinationServer registers srv on s.
func RegisterCoordinationServer(s grpc.ServiceRegistrar, srv CoordinationServer) {
	s.RegisterService(&ServiceDesc, srv)
}
