package instance

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"flecsd/internal/deployment"
	"flecsd/internal/logger"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

// defaultHelperImage runs the short-lived containers the volume
// import/export protocol needs.
const defaultHelperImage = "alpine:latest"

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// ExportInstance implements Export: halts the instance if running,
// exports config files and volumes under dst, then restarts it if it was
// running (a restart failure is logged, not propagated, once export
// itself has succeeded).
func (e *Engine) ExportInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId, dst string) error {
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
			return fmt.Errorf("instance: halt before export: %w", err)
		}
	}

	single, err := manifestFor(r, inst)
	if err != nil {
		return err
	}

	confDir := filepath.Join(dst, "conf")
	for _, cf := range configFileTransfers(e.configDir(id), single) {
		if err := copyFile(cf.HostPath, filepath.Join(confDir, filepath.Base(cf.HostPath))); err != nil {
			return fmt.Errorf("instance: export config file %s: %w", cf.HostPath, err)
		}
	}

	helperImage := defaultHelperImage
	for _, vm := range single.VolumeMounts {
		volID, ok := findVolumeID(inst.Config.VolumeMounts, vm.ContainerPath)
		if !ok {
			continue
		}
		exportPath := filepath.Join(dst, "volumes", vm.Name)
		if err := e.Deployment.ExportVolume(ctx, string(volID), exportPath, vm.ContainerPath, helperImage); err != nil {
			return fmt.Errorf("instance: export volume %s: %w", vm.Name, err)
		}
	}

	if wasRunning {
		if err := e.StartInstance(ctx, r, id); err != nil {
			logger.GetLogger(ctx).Warn("instance: restart after export failed",
				zap.String("instance_id", id.Hex()), zap.Error(err))
		}
	}
	return nil
}

func findVolumeID(mounts map[pouch.VolumeId]string, containerPath string) (pouch.VolumeId, bool) {
	for volID, path := range mounts {
		if path == containerPath {
			return volID, true
		}
	}
	return "", false
}
