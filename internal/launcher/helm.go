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

package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// CLIHelmRunner shells out to the helm binary, matching the chart tool CLI
// dependency described in spec §6: `helm install`, `helm ls`, `helm
// delete`. A missing binary or non-zero exit is a hard runtime failure,
// surfaced as a reconcile error per spec §7.
type CLIHelmRunner struct{}

var _ HelmRunner = (*CLIHelmRunner)(nil)

// Install runs `helm install -n <namespace> --repo <repositoryURL>
// <chartReference> --generate-name`.
func (CLIHelmRunner) Install(ctx context.Context, namespace, repositoryURL, chartReference string) error {
	cmd := exec.CommandContext(ctx, "helm", "install",
		"-n", namespace,
		"--repo", repositoryURL,
		chartReference,
		"--generate-name",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.FromContext(ctx).Info("running helm install", "namespace", namespace, "chart", chartReference)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("helm install failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// UninstallAll lists every release in namespace and deletes each one,
// equivalent to `helm ls -n <namespace> --all --short | xargs -r helm
// delete -n <namespace>`.
func (CLIHelmRunner) UninstallAll(ctx context.Context, namespace string) error {
	logger := log.FromContext(ctx)

	listCmd := exec.CommandContext(ctx, "helm", "ls", "-n", namespace, "--all", "--short")
	var stdout, stderr bytes.Buffer
	listCmd.Stdout = &stdout
	listCmd.Stderr = &stderr
	if err := listCmd.Run(); err != nil {
		return fmt.Errorf("helm ls failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	releases := strings.Fields(stdout.String())
	if len(releases) == 0 {
		return nil
	}

	logger.Info("uninstalling chart releases", "namespace", namespace, "count", len(releases))

	args := append([]string{"delete", "-n", namespace}, releases...)
	deleteCmd := exec.CommandContext(ctx, "helm", args...)
	var delStderr bytes.Buffer
	deleteCmd.Stderr = &delStderr
	if err := deleteCmd.Run(); err != nil {
		return fmt.Errorf("helm delete failed: %w: %s", err, strings.TrimSpace(delStderr.String()))
	}
	return nil
}
