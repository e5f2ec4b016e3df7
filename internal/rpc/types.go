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

// Package rpc implements the Coordination RPC Endpoint described in spec
// §4.6 and §6: the two unary methods by which a running workload announces
// "started" and "done" and learns the result-sink address.
package rpc

// BenchmarkStartRequest is sent by a workload once it is truly up. The
// Running field is unused by the server; it exists only to give the call a
// non-empty payload, per spec §6.
type BenchmarkStartRequest struct {
	Running bool `json:"running"`
}

// BenchmarkStartedResponse carries the result-sink connection string back
// to the calling workload.
type BenchmarkStartedResponse struct {
	DatabaseConnectionString string `json:"databaseConnectionString"`
}

// BenchmarkDoneRequest is sent by a workload after it has persisted its
// results. The Done field is unused by the server.
type BenchmarkDoneRequest struct {
	Done bool `json:"done"`
}

// BenchmarkDoneResponse acknowledges a done call.
type BenchmarkDoneResponse struct {
	Acknowledge bool `json:"acknowledge"`
}
