package instance

import (
	"context"
	"errors"
	"testing"

	"flecsd/internal/deployment"
)

func TestInstanceStatusDelegatesToDeployment(t *testing.T) {
	single := testManifest()
	e, v := newTestEngine(t, &deployment.Mock{
		InstanceStatusFunc: func(ctx context.Context, id string) (deployment.Status, error) {
			return deployment.StatusOrphaned, nil
		},
	})
	r := fullReservation(v)
	inst := createTestInstance(t, e, r, single)

	status, err := e.InstanceStatus(context.Background(), r, inst.ID)
	if err != nil {
		t.Fatalf("InstanceStatus: %v", err)
	}
	if status != deployment.StatusOrphaned {
		t.Fatalf("expected StatusOrphaned, got %v", status)
	}
}

func TestInstanceStatusUnknownInstance(t *testing.T) {
	e, v := newTestEngine(t, &deployment.Mock{})
	r := fullReservation(v)

	_, err := e.InstanceStatus(context.Background(), r, 999)
	var notFound *ErrInstanceNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
}
