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

package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugent-idlab/bench-orchestrator/internal/state"
)

func TestStatusEndpoint(t *testing.T) {
	cell := state.New()
	cell.NewBenchmark("a", "ns1")
	cell.SetRunning(true)

	srv := httptest.NewServer(NewRouter(cell))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got state.Data
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "a", got.BenchmarkName)
	assert.Equal(t, "ns1", got.Namespace)
	assert.True(t, got.IsBenchmarkRunning)
}

func TestHealthzEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewRouter(state.New()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
