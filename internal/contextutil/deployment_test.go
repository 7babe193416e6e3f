package contextutil

import (
	"context"
	"testing"

	"flecsd/internal/deployment"
)

func TestWithDeploymentAndGetDeployment(t *testing.T) {
	ctx := context.Background()
	mock := &deployment.Mock{KindFunc: "mock"}

	ctx = WithDeployment(ctx, mock)

	dep := GetDeployment(ctx)
	if dep.Kind() != "mock" {
		t.Fatalf("GetDeployment().Kind() = %q, want mock", dep.Kind())
	}
}

func TestGetDeploymentPanicsWhenMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("GetDeployment() did not panic on missing deployment")
		}
	}()
	GetDeployment(context.Background())
}

func TestGetDeploymentSafe(t *testing.T) {
	ctx := context.Background()
	if _, err := GetDeploymentSafe(ctx); err == nil {
		t.Fatal("GetDeploymentSafe() on empty context should error")
	}

	mock := &deployment.Mock{KindFunc: "mock"}
	ctx = WithDeployment(ctx, mock)
	dep, err := GetDeploymentSafe(ctx)
	if err != nil {
		t.Fatalf("GetDeploymentSafe: %v", err)
	}
	if dep.Kind() != "mock" {
		t.Fatalf("dep.Kind() = %q, want mock", dep.Kind())
	}
}

func TestHasDeployment(t *testing.T) {
	ctx := context.Background()
	if HasDeployment(ctx) {
		t.Fatal("HasDeployment() on empty context should be false")
	}
	ctx = WithDeployment(ctx, &deployment.Mock{})
	if !HasDeployment(ctx) {
		t.Fatal("HasDeployment() after WithDeployment should be true")
	}
}
