package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// backupSnapshotDir returns a fresh, never-before-used directory under
// <base>/backup/<id>/<version>, named by the current unix millisecond
// timestamp with a "-N" suffix appended on collision.
func backupSnapshotDir(base string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	path := filepath.Join(base, ts)
	for seq := 1; dirExists(path); seq++ {
		path = filepath.Join(base, fmt.Sprintf("%s-%d", ts, seq))
	}
	return path
}

// latestBackupDir returns the lexicographically greatest entry under root,
// or "" if root has no entries.
func latestBackupDir(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(root, names[len(names)-1]), nil
}

func (e *Engine) snapshotTo(ctx context.Context, inst *pouch.Instance, single *manifest.Single, dir string) error {
	for _, cf := range configFileTransfers(e.configDir(inst.ID), single) {
		if err := copyFile(cf.HostPath, filepath.Join(dir, "conf", filepath.Base(cf.HostPath))); err != nil {
			return fmt.Errorf("instance: snapshot config file %s: %w", cf.HostPath, err)
		}
	}
	for _, vm := range single.VolumeMounts {
		volID, ok := findVolumeID(inst.Config.VolumeMounts, vm.ContainerPath)
		if !ok {
			continue
		}
		exportPath := filepath.Join(dir, "volumes", vm.Name)
		if err := e.Deployment.ExportVolume(ctx, string(volID), exportPath, vm.ContainerPath, defaultHelperImage); err != nil {
			return fmt.Errorf("instance: snapshot volume %s: %w", vm.Name, err)
		}
	}
	return nil
}

func (e *Engine) restoreFrom(ctx context.Context, inst *pouch.Instance, single *manifest.Single, dir string) error {
	for _, cf := range configFileTransfers(e.configDir(inst.ID), single) {
		src := filepath.Join(dir, "conf", filepath.Base(cf.HostPath))
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, cf.HostPath); err != nil {
			return fmt.Errorf("instance: restore config file %s: %w", cf.HostPath, err)
		}
	}
	for _, vm := range single.VolumeMounts {
		volID, ok := findVolumeID(inst.Config.VolumeMounts, vm.ContainerPath)
		if !ok {
			continue
		}
		srcFile := filepath.Join(dir, "volumes", vm.Name)
		if _, err := os.Stat(srcFile); err != nil {
			continue
		}
		if _, err := e.Deployment.ImportVolume(ctx, srcFile, vm.ContainerPath, string(volID), defaultHelperImage); err != nil {
			return fmt.Errorf("instance: restore volume %s: %w", vm.Name, err)
		}
	}
	return nil
}

// UpdateInstance implements Update: halts a running instance, snapshots
// its current config/volumes under a per-version backup directory,
// replaces the manifest, imports from the newest matching-version backup
// on downgrade, and restarts if it was running. A freshly installed
// manifest's port/env differences are not reconciled eagerly — the next
// Start picks them up from the new manifest's construction rules.
func (e *Engine) UpdateInstance(ctx context.Context, r *vault.Reservation, id pouch.InstanceId, newManifest *manifest.Single) error {
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
			return fmt.Errorf("instance: halt before update: %w", err)
		}
	}

	currentManifest, err := manifestFor(r, inst)
	if err != nil {
		return err
	}
	currentVersion := inst.ManifestKey.Version

	snapshotDir := backupSnapshotDir(e.backupDir(id, currentVersion))
	if err := e.snapshotTo(ctx, inst, currentManifest, snapshotDir); err != nil {
		return err
	}

	oldKey := inst.ManifestKey
	if r.Manifests().Get(newManifest.Key()) == nil {
		r.Manifests().Put(newManifest)
	}
	r.Manifests().IncRef(newManifest.Key())
	r.Manifests().DecRef(oldKey)
	inst.ManifestKey = newManifest.Key()
	r.Instances().Put(inst)
	r.MarkInstancesDirty()
	r.MarkManifestsDirty()

	if manifest.CompareVersions(newManifest.AppKey.Version, currentVersion) < 0 {
		backupRoot := e.backupDir(id, newManifest.AppKey.Version)
		latest, err := latestBackupDir(backupRoot)
		if err != nil {
			return fmt.Errorf("instance: locate downgrade backup: %w", err)
		}
		if latest != "" {
			if err := e.restoreFrom(ctx, inst, newManifest, latest); err != nil {
				return err
			}
		}
	}

	if wasRunning {
		if err := e.StartInstance(ctx, r, id); err != nil {
			return fmt.Errorf("instance: restart after update: %w", err)
		}
	}
	return nil
}
