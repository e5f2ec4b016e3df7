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

package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

func TestBenchmarkCRD_NamesAndScope(t *testing.T) {
	crd := benchmarkCRD()
	assert.Equal(t, CRDName, crd.Name)
	assert.Equal(t, "michiel.van.kenhove.ugent.be", crd.Spec.Group)
	assert.Equal(t, apiextensionsv1.NamespaceScoped, crd.Spec.Scope)
	assert.Equal(t, "Benchmark", crd.Spec.Names.Kind)
	assert.Contains(t, crd.Spec.Names.ShortNames, "bench")
	require.Len(t, crd.Spec.Versions, 1)
	assert.True(t, crd.Spec.Versions[0].Served)
	assert.NotNil(t, crd.Spec.Versions[0].Subresources.Status)
}

func TestWriteCRDManifest_ProducesValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crd.yaml")
	require.NoError(t, WriteCRDManifest(path))

	var crd apiextensionsv1.CustomResourceDefinition
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &crd))
	assert.Equal(t, CRDName, crd.Name)
}
