package instance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"flecsd/internal/deployment"
	"flecsd/internal/logger"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func haltRequiresStop(status deployment.Status) bool {
	return status == deployment.StatusRunning || status == deployment.StatusUnknown || status == deployment.StatusOrphaned
}

// StopInstance implements Stop: marks desired Stopped, round-trips config
// files via the deployment when the container is up, and removes the
// instance's reverse-proxy server-port mappings (warn-and-continue).
func (e *Engine) StopInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId) error {
	inst := r.Instances().Get(id)
	if inst == nil {
		return &ErrInstanceNotFound{ID: id}
	}
	inst.Desired = pouch.DesiredStopped
	r.Instances().Put(inst)
	r.MarkInstancesDirty()

	status, err := e.Deployment.InstanceStatus(ctx, id.Hex())
	if err != nil {
		return fmt.Errorf("instance: query status: %w", err)
	}

	single, err := manifestFor(r, inst)
	if err != nil {
		return err
	}

	if haltRequiresStop(status) {
		configFiles := configFileTransfers(e.configDir(id), single)
		if err := e.Deployment.StopInstance(ctx, id.Hex(), configFiles); err != nil {
			return fmt.Errorf("instance: stop container: %w", err)
		}
	}

	log := logger.GetLogger(ctx)
	for _, editor := range single.Editors {
		if err := e.Proxy.DeleteInstanceConfig(id, editor.Port); err != nil {
			log.Warn("instance: delete reverse proxy entry failed",
				zap.String("instance_id", id.Hex()), zap.String("editor", editor.Name), zap.Error(err))
		}
	}
	return nil
}
