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

import "encoding/json"

// jsonCodec implements grpc's Codec interface over plain Go structs.
//
// The Coordination RPC messages are hand-maintained structs rather than
// protoc-gen-go output: this build environment has no protoc pipeline
// available to produce wire-compatible generated code, so the transport
// (google.golang.org/grpc, its interceptor chain, status codes, and
// connection lifecycle) is real, but the wire codec is this small JSON
// shim instead of the binary protobuf codec. See DESIGN.md for the full
// rationale.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

// Codec is the shared codec instance used by both the server and the
// client so their wire format always matches.
var Codec = jsonCodec{}
