package instance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"flecsd/internal/logger"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// DeleteInstance implements Delete: sets desired NotCreated, best-effort
// deletes volumes and reverse-proxy configs (warn per failure), then
// deletes the container. A container deletion failure is returned so the
// caller can retry; the instance record is left in place until it
// succeeds.
func (e *Engine) DeleteInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId) error {
	inst := r.Instances().Get(id)
	if inst == nil {
		return &ErrInstanceNotFound{ID: id}
	}
	inst.Desired = pouch.DesiredNotCreated
	r.Instances().Put(inst)
	r.MarkInstancesDirty()

	log := logger.GetLogger(ctx)

	for volID := range inst.Config.VolumeMounts {
		if err := e.Deployment.DeleteVolume(ctx, string(volID)); err != nil {
			log.Warn("instance: delete volume failed", zap.String("instance_id", id.Hex()), zap.String("volume_id", string(volID)), zap.Error(err))
		}
	}

	single, err := manifestFor(r, inst)
	if err == nil {
		for _, editor := range single.Editors {
			if err := e.Proxy.DeleteInstanceConfig(id, editor.Port); err != nil {
				log.Warn("instance: delete reverse proxy entry failed", zap.String("instance_id", id.Hex()), zap.Error(err))
			}
		}
	}
	if err := e.Proxy.DeleteAdditionalLocations(id); err != nil {
		log.Warn("instance: delete additional locations failed", zap.String("instance_id", id.Hex()), zap.Error(err))
	}

	removeDirBestEffort(e.configDir(id))

	if err := e.Deployment.DeleteInstance(ctx, id.Hex()); err != nil {
		return fmt.Errorf("instance: delete container: %w", err)
	}
	r.Instances().Delete(id)
	r.MarkInstancesDirty()
	return nil
}

// StopAndDeleteInstance stops the instance first; if stopping fails the
// instance is left as NotCreated and the error surfaced for retry,
// otherwise delete proceeds.
func (e *Engine) StopAndDeleteInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId) error {
	if err := e.StopInstance(ctx, r, id); err != nil {
		if inst := r.Instances().Get(id); inst != nil {
			inst.Desired = pouch.DesiredNotCreated
			r.Instances().Put(inst)
			r.MarkInstancesDirty()
		}
		return fmt.Errorf("instance: stop before delete: %w", err)
	}
	return e.DeleteInstance(ctx, r, id)
}
