package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"flecsd/internal/deployment"
	"flecsd/internal/logger"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// ImportInstance implements Import: the inverse of Export. It halts the
// instance if running, transfers its address on every connected network to
// that network's current subnet, restores volumes and config files from
// src, then restarts it if it was running. As in UpdateInstance, and unlike
// CreateInstance, a failure partway through is not rolled back: the instance is left in
// whatever partially-imported state the failing step produced, matching the
// transfer/restore operations it is built from.
func (e *Engine) ImportInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId, src, dst string) error {
	inst := r.Instances().Get(id)
	if inst == nil {
		return &ErrInstanceNotFound{ID: id}
	}

	status, err := e.Deployment.InstanceStatus(ctx, id.Hex())
	if err != nil {
		return fmt.Errorf("instance: query status: %w", err)
	}
	wasRunning := status == deployment.StatusRunning
	if wasRunning {
		if err := e.StopInstance(ctx, r, id); err != nil {
			return fmt.Errorf("instance: halt before import: %w", err)
		}
	}

	for netID, oldIP := range inst.Config.Networks {
		newIP, err := e.TransferNetworkIP(ctx, string(netID), string(oldIP))
		if err != nil {
			return fmt.Errorf("instance: transfer address on network %s: %w", netID, err)
		}
		inst.Config.Networks[netID] = pouch.IPAddr(newIP)
	}
	r.Instances().Put(inst)
	r.MarkInstancesDirty()

	single, err := manifestFor(r, inst)
	if err != nil {
		return err
	}

	helperImage := defaultHelperImage
	for _, vm := range single.VolumeMounts {
		volID, ok := findVolumeID(inst.Config.VolumeMounts, vm.ContainerPath)
		if !ok {
			continue
		}
		importPath := filepath.Join(src, "volumes", vm.Name)
		if _, err := os.Stat(importPath); err != nil {
			continue
		}
		if _, err := e.Deployment.ImportVolume(ctx, importPath, vm.ContainerPath, string(volID), helperImage); err != nil {
			return fmt.Errorf("instance: import volume %s: %w", vm.Name, err)
		}
	}

	srcConfDir := filepath.Join(src, "conf")
	dstConfDir := filepath.Join(dst, "conf")
	for _, cf := range single.ConfigFiles {
		name := filepath.Base(cf.HostPath)
		srcFile := filepath.Join(srcConfDir, name)
		if _, err := os.Stat(srcFile); err != nil {
			continue
		}
		if err := copyFile(srcFile, filepath.Join(dstConfDir, name)); err != nil {
			return fmt.Errorf("instance: import config file %s: %w", cf.HostPath, err)
		}
	}

	if wasRunning {
		if err := e.StartInstance(ctx, r, id); err != nil {
			logger.GetLogger(ctx).Warn("instance: restart after import failed",
				zap.String("instance_id", id.Hex()), zap.Error(err))
		}
	}
	return nil
}
