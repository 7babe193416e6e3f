package docker

import (
	"context"
	"io"
	"os"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/volume"

	"flecsd/internal/deployment"
)

// CreateVolume creates a named volume, returning its id (== name).
func (d *Deployment) CreateVolume(ctx context.Context, name string) (string, error) {
	vol, err := d.client.VolumeCreate(ctx, volume.CreateOptions{Name: name})
	if err != nil {
		return "", opErr("CreateVolume", name, err, true)
	}
	return vol.Name, nil
}

// DeleteVolume force-removes a volume.
func (d *Deployment) DeleteVolume(ctx context.Context, id string) error {
	if err := d.client.VolumeRemove(ctx, id, true); err != nil {
		return opErr("DeleteVolume", id, err, true)
	}
	return nil
}

// ImportVolume creates name, then unpacks the archive at srcFile into it
// at containerPath using a detached, networkless helper container built
// from image, removing the helper on every exit path.
func (d *Deployment) ImportVolume(ctx context.Context, srcFile, containerPath, name, helperImg string) (string, error) {
	volID, err := d.CreateVolume(ctx, name)
	if err != nil {
		return "", err
	}

	if helperImg == "" {
		helperImg = helperImage
	}
	if err := d.ensureHelperImage(ctx, helperImg); err != nil {
		return "", opErr("ImportVolume", name, err, true)
	}

	containerID, err := d.createHelperContainer(ctx, helperImg, volID, containerPath, false)
	if err != nil {
		return "", opErr("ImportVolume", name, err, true)
	}
	defer d.client.ContainerRemove(ctx, containerID, dockercontainer.RemoveOptions{Force: true})

	f, err := os.Open(srcFile)
	if err != nil {
		return "", opErr("ImportVolume", name, err, false)
	}
	defer f.Close()

	if err := d.client.CopyToContainer(ctx, containerID, containerPath, f, dockercontainer.CopyToContainerOptions{}); err != nil {
		return "", opErr("ImportVolume", name, err, true)
	}
	return volID, nil
}

// ExportVolume archives containerPath out of volume id into exportPath on
// the host, via the same helper-container protocol.
func (d *Deployment) ExportVolume(ctx context.Context, id, exportPath, containerPath, helperImg string) error {
	if helperImg == "" {
		helperImg = helperImage
	}
	if err := d.ensureHelperImage(ctx, helperImg); err != nil {
		return opErr("ExportVolume", id, err, true)
	}

	containerID, err := d.createHelperContainer(ctx, helperImg, id, containerPath, true)
	if err != nil {
		return opErr("ExportVolume", id, err, true)
	}
	defer d.client.ContainerRemove(ctx, containerID, dockercontainer.RemoveOptions{Force: true})

	rc, _, err := d.client.CopyFromContainer(ctx, containerID, containerPath)
	if err != nil {
		return opErr("ExportVolume", id, err, true)
	}
	defer rc.Close()

	out, err := os.Create(exportPath)
	if err != nil {
		return opErr("ExportVolume", id, err, false)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return opErr("ExportVolume", id, err, true)
	}
	return nil
}

func (d *Deployment) ensureHelperImage(ctx context.Context, imageRef string) error {
	if _, err := d.client.ImageInspect(ctx, imageRef); err == nil {
		return nil
	}
	return d.pullImage(ctx, imageRef, "")
}

// createHelperContainer creates (but does not remove) a detached,
// networkless container with volumeID mounted at containerPath, per the
// volume-container protocol of spec §4.3.
func (d *Deployment) createHelperContainer(ctx context.Context, imageRef, volumeID, containerPath string, readOnly bool) (string, error) {
	resp, err := d.client.ContainerCreate(ctx, &dockercontainer.Config{
		Image: imageRef,
		Cmd:   []string{"sleep", "infinity"},
	}, &dockercontainer.HostConfig{
		NetworkMode: "none",
		Mounts: []mount.Mount{{
			Type:     mount.TypeVolume,
			Source:   volumeID,
			Target:   containerPath,
			ReadOnly: readOnly,
		}},
	}, nil, nil, "")
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

var _ deployment.VolumeDeployment = (*Deployment)(nil)
