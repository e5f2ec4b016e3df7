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

// Package startup installs the Benchmark CustomResourceDefinition from code
// at process start, rather than relying on a pre-applied manifest. This
// matches the original controller's behavior: check for the CRD, create and
// wait for it to establish if absent, and exit the process with a
// remediation message if that fails.
package startup

import (
	"context"
	"os"
	"time"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/yaml"

	"github.com/go-logr/logr"
)

// CRDName is the fully qualified name the Benchmark CRD is installed under.
const CRDName = "benchmarks.michiel.van.kenhove.ugent.be"

// remediation is printed when automatic installation fails, pointing the
// operator at the manual fallback.
const remediation = "install the CRD manually: kubectl apply -f crd.yaml"

// EnsureCRD checks whether the Benchmark CRD is installed and, if absent,
// creates it and waits for the Established condition. On any failure it
// exits the process with status 1, matching the fail-fast startup behavior
// of the original controller; if creating the CRD or waiting for it to be
// established fails, it also logs a remediation message first.
func EnsureCRD(ctx context.Context, cfg *rest.Config, log logr.Logger) {
	clientset, err := apiextensionsclient.NewForConfig(cfg)
	if err != nil {
		log.Error(err, "failed to build apiextensions client")
		os.Exit(1)
	}

	crdClient := clientset.ApiextensionsV1().CustomResourceDefinitions()

	_, err = crdClient.Get(ctx, CRDName, metav1.GetOptions{})
	switch {
	case err == nil:
		log.Info("CRD is present", "name", CRDName)
		return
	case apierrors.IsNotFound(err):
		log.Info("CRD not found, installing", "name", CRDName)
	default:
		log.Error(err, "could not query CRD resources")
		os.Exit(1)
	}

	if _, err := crdClient.Create(ctx, benchmarkCRD(), metav1.CreateOptions{}); err != nil {
		log.Error(err, "error creating the CRD")
		log.Info(remediation)
		os.Exit(1)
	}

	log.Info("CRD resource created, waiting until it is established")

	waitCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	err = wait.PollUntilContextCancel(waitCtx, 2*time.Second, true, func(ctx context.Context) (bool, error) {
		got, err := crdClient.Get(ctx, CRDName, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		for _, cond := range got.Status.Conditions {
			if cond.Type == apiextensionsv1.Established && cond.Status == apiextensionsv1.ConditionTrue {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		log.Error(err, "error waiting on CRD establishment")
		log.Info(remediation)
		os.Exit(1)
	}

	log.Info("CRD successfully installed", "name", CRDName)
}

// benchmarkCRD builds the CustomResourceDefinition object installed by
// EnsureCRD. Its schema mirrors api/v1.BenchmarkSpec/BenchmarkStatus; it is
// intentionally permissive on the pod template and Helm chart fields
// (x-kubernetes-preserve-unknown-fields) rather than re-deriving the full
// corev1.PodTemplateSpec schema by hand.
func benchmarkCRD() *apiextensionsv1.CustomResourceDefinition {
	preserveUnknown := true

	return &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{Name: CRDName},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: "michiel.van.kenhove.ugent.be",
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Plural:     "benchmarks",
				Singular:   "benchmark",
				Kind:       "Benchmark",
				ShortNames: []string{"bench"},
				Categories: []string{"all"},
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				{
					Name:    "v1",
					Served:  true,
					Storage: true,
					Subresources: &apiextensionsv1.CustomResourceSubresources{
						Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
					},
					AdditionalPrinterColumns: []apiextensionsv1.CustomResourceColumnDefinition{
						{Name: "State", Type: "string", JSONPath: ".status.state"},
						{Name: "Queue Position", Type: "integer", JSONPath: ".status.queuePosition"},
						{Name: "Age", Type: "date", JSONPath: ".metadata.creationTimestamp"},
					},
					Schema: &apiextensionsv1.CustomResourceValidation{
						OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
							Type: "object",
							Properties: map[string]apiextensionsv1.JSONSchemaProps{
								"spec": {
									Type:     "object",
									Required: []string{"title", "workloads"},
									Properties: map[string]apiextensionsv1.JSONSchemaProps{
										"title": {Type: "string", MinLength: int64Ptr(1)},
										"benchmarkType": {
											Type:    "string",
											Enum:    []apiextensionsv1.JSON{{Raw: []byte(`"System"`)}, {Raw: []byte(`"Network"`)}},
											Default: &apiextensionsv1.JSON{Raw: []byte(`"System"`)},
										},
										"workloads": {
											Type: "array",
											Items: &apiextensionsv1.JSONSchemaPropsOrArray{
												Schema: &apiextensionsv1.JSONSchemaProps{
													Type:                   "object",
													XPreserveUnknownFields: &preserveUnknown,
												},
											},
										},
									},
								},
								"status": {
									Type: "object",
									Properties: map[string]apiextensionsv1.JSONSchemaProps{
										"state": {
											Type: "string",
											Enum: []apiextensionsv1.JSON{
												{Raw: []byte(`"Pending"`)},
												{Raw: []byte(`"Running"`)},
												{Raw: []byte(`"Done"`)},
												{Raw: []byte(`"Completed"`)},
											},
										},
										"queuePosition": {Type: "integer"},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

// WriteCRDManifest renders the Benchmark CustomResourceDefinition as YAML
// and writes it to path, for operators who prefer to `kubectl apply` the
// manifest instead of relying on EnsureCRD's install-from-code path. This
// is the Go equivalent of the original implementation's separate
// `generate_crd` binary (`cargo run --bin generate_crd`), which wrote the
// same object to crd.yaml via serde_yaml.
func WriteCRDManifest(path string) error {
	out, err := yaml.Marshal(benchmarkCRD())
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
