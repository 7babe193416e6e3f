package instance

import (
	"context"

	"flecsd/internal/deployment"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// InstanceStatus implements Status: delegated directly to the deployment,
// keyed by the instance's hex id.
func (e *Engine) InstanceStatus(ctx context.Context, r *vault.Reservation, id pouch.InstanceId) (deployment.Status, error) {
	inst := r.Instances().Get(id)
	if inst == nil {
		return "", &ErrInstanceNotFound{ID: id}
	}
	return e.Deployment.InstanceStatus(ctx, id.Hex())
}
