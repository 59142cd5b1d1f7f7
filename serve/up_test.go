// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/skiff-compute/skiff/fabric"
)

func TestUpSuccess(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.submitJobID = 7
	fake.respond(t, "wait-for-registration", RegistrationResult{LoadBalancerPort: 30007})
	fake.endpoint = "http://10.0.0.5:30007"
	driver := newTestDriver(t, fake)

	result, err := driver.Up(context.Background(), validSpec(), "my-service")
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if result.ServiceName != "my-service" {
		t.Errorf("service name = %q, want %q", result.ServiceName, "my-service")
	}
	if result.Endpoint != "http://10.0.0.5:30007" {
		t.Errorf("endpoint = %q, want %q", result.Endpoint, "http://10.0.0.5:30007")
	}

	want := []string{
		"submit:my-service",
		"run:wait-for-registration",
		"resolve-endpoint:30007",
	}
	if got := fake.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	var wait WaitForRegistrationRequest
	fake.lastArgs(t, "wait-for-registration", &wait)
	if wait.ServiceName != "my-service" || wait.JobID != 7 {
		t.Errorf("registration args = %+v, want service my-service job 7", wait)
	}

	if fake.submitSpec.ClusterName != "skiff-serve-controller" {
		t.Errorf("submitted to cluster %q", fake.submitSpec.ClusterName)
	}
	if !strings.Contains(string(fake.submitSpec.Task), "my-service") {
		t.Errorf("controller task does not mention the service:\n%s", fake.submitSpec.Task)
	}
}

func TestUpGeneratesServiceName(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.respond(t, "wait-for-registration", RegistrationResult{LoadBalancerPort: 30001})
	driver := newTestDriver(t, fake)

	result, err := driver.Up(context.Background(), validSpec(), "")
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if !strings.HasPrefix(result.ServiceName, "skiff-service-") {
		t.Errorf("generated name = %q, want skiff-service- prefix", result.ServiceName)
	}
}

func TestUpInvalidSpecMakesNoRemoteCalls(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver := newTestDriver(t, fake)

	spec := validSpec()
	spec.Service = nil
	_, err := driver.Up(context.Background(), spec, "my-service")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Up error = %v, want *ValidationError", err)
	}
	if len(fake.recorded()) != 0 {
		t.Errorf("remote calls made despite validation failure: %v", fake.recorded())
	}
}

func TestUpPendingJobIsCapacity(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.submitJobID = 9
	fake.fail("wait-for-registration", 1, "service name taken by job 3")
	fake.jobStatus = fabric.JobPending
	driver := newTestDriver(t, fake)

	_, err := driver.Up(context.Background(), validSpec(), "my-service")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Up error = %v, want ErrCapacityExceeded", err)
	}
	if errors.Is(err, ErrNameConflictOrCapacityExceeded) {
		t.Errorf("pending-job loss should be the specific capacity error")
	}

	want := []string{
		"submit:my-service",
		"run:wait-for-registration",
		"job-status:9",
		"cancel-job:9",
	}
	if got := fake.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestUpLostRegistrationIsAmbiguous(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.fail("wait-for-registration", 1, "service name taken by job 3")
	fake.jobStatus = fabric.JobRunning
	driver := newTestDriver(t, fake)

	_, err := driver.Up(context.Background(), validSpec(), "my-service")
	if !errors.Is(err, ErrNameConflictOrCapacityExceeded) {
		t.Fatalf("Up error = %v, want ErrNameConflictOrCapacityExceeded", err)
	}
	for _, call := range fake.recorded() {
		if strings.HasPrefix(call, "cancel-job") {
			t.Errorf("a running job must not be cancelled: %v", fake.recorded())
		}
	}
}

func TestUpCancelFailureStillReportsCapacity(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.fail("wait-for-registration", 1, "")
	fake.jobStatus = fabric.JobPending
	fake.cancelErr = errors.New("fabric hiccup")
	driver := newTestDriver(t, fake)

	_, err := driver.Up(context.Background(), validSpec(), "my-service")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Up error = %v, want ErrCapacityExceeded", err)
	}
}

func TestUpRegistrationWithoutPort(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.respond(t, "wait-for-registration", RegistrationResult{})
	driver := newTestDriver(t, fake)

	_, err := driver.Up(context.Background(), validSpec(), "my-service")
	if err == nil || !strings.Contains(err.Error(), "load balancer port") {
		t.Fatalf("Up error = %v, want missing port complaint", err)
	}
}

func TestUpNoEndpointExposed(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	fake.respond(t, "wait-for-registration", RegistrationResult{LoadBalancerPort: 30002})
	fake.endpoint = ""
	driver := newTestDriver(t, fake)

	_, err := driver.Up(context.Background(), validSpec(), "my-service")
	if err == nil || !strings.Contains(err.Error(), "no endpoint") {
		t.Fatalf("Up error = %v, want missing endpoint complaint", err)
	}
}

// rejectPolicy refuses every spec.
type rejectPolicy struct{}

func (rejectPolicy) Apply(string, *ServiceSpec) error {
	return errors.New("quota exhausted")
}

func TestUpPolicyRejection(t *testing.T) {
	t.Parallel()
	fake := newFakeFabric(t)
	driver, err := New(Options{Provisioner: fake, Channel: fake, Policy: rejectPolicy{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = driver.Up(context.Background(), validSpec(), "my-service")
	if err == nil || !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("Up error = %v, want policy rejection", err)
	}
	if len(fake.recorded()) != 0 {
		t.Errorf("remote calls made despite policy rejection: %v", fake.recorded())
	}
}
