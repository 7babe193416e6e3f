package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"golang.org/x/oauth2"

	"flecsd/internal/deployment"
	"flecsd/internal/manifest"
)

func imageRefFor(m manifest.Manifest) (string, error) {
	single, ok := m.(*manifest.Single)
	if !ok {
		return "", fmt.Errorf("docker: %s is not a single-container app", m.Key())
	}
	return single.Image, nil
}

// InstallApp pulls the manifest's image, authenticating with token's access
// token as the registry bearer credential when given.
func (d *Deployment) InstallApp(ctx context.Context, m manifest.Manifest, token *oauth2.Token) error {
	imageRef, err := imageRefFor(m)
	if err != nil {
		return err
	}
	var authToken string
	if token != nil {
		authToken = token.AccessToken
	}
	if err := d.pullImage(ctx, imageRef, authToken); err != nil {
		return opErr("InstallApp", m.Key().String(), err, true)
	}
	return nil
}

// UninstallApp removes the app's image from the local image store.
func (d *Deployment) UninstallApp(ctx context.Context, key manifest.AppKey) error {
	imageRef, err := d.resolveInstalledImage(ctx, key)
	if err != nil {
		return err
	}
	_, err = d.client.ImageRemove(ctx, imageRef, image.RemoveOptions{Force: true})
	if err != nil {
		return opErr("UninstallApp", key.String(), err, true)
	}
	return nil
}

// IsAppInstalled reports whether the app's image is present locally.
func (d *Deployment) IsAppInstalled(ctx context.Context, key manifest.AppKey) (bool, error) {
	_, err := d.resolveInstalledImage(ctx, key)
	if err != nil {
		if err == deployment.ErrAppNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InstalledAppSize returns the on-disk size of the app's image.
func (d *Deployment) InstalledAppSize(ctx context.Context, key manifest.AppKey) (int64, error) {
	imageRef, err := d.resolveInstalledImage(ctx, key)
	if err != nil {
		return 0, err
	}
	inspect, err := d.client.ImageInspect(ctx, imageRef)
	if err != nil {
		return 0, opErr("InstalledAppSize", key.String(), err, true)
	}
	return inspect.Size, nil
}

// ExportApp saves the app's image as a tar archive at path.
func (d *Deployment) ExportApp(ctx context.Context, key manifest.AppKey, path string) error {
	imageRef, err := d.resolveInstalledImage(ctx, key)
	if err != nil {
		return err
	}
	rc, err := d.client.ImageSave(ctx, []string{imageRef})
	if err != nil {
		return opErr("ExportApp", key.String(), err, true)
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return opErr("ExportApp", key.String(), err, false)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return opErr("ExportApp", key.String(), err, true)
	}
	return nil
}

// ImportApp loads an app image from a tar archive at path. It does not
// report which image the archive contained: the returned AppKey is always
// the zero value.
func (d *Deployment) ImportApp(ctx context.Context, path string) (manifest.AppKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return manifest.AppKey{}, opErr("ImportApp", path, err, false)
	}
	defer f.Close()

	resp, err := d.client.ImageLoad(ctx, f, true)
	if err != nil {
		return manifest.AppKey{}, opErr("ImportApp", path, err, true)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return manifest.AppKey{}, nil
}

// AppInfo returns the deployment's view of an installed app.
func (d *Deployment) AppInfo(ctx context.Context, key manifest.AppKey) (deployment.AppInfo, error) {
	imageRef, err := d.resolveInstalledImage(ctx, key)
	if err != nil {
		return deployment.AppInfo{}, err
	}
	inspect, err := d.client.ImageInspect(ctx, imageRef)
	if err != nil {
		return deployment.AppInfo{}, opErr("AppInfo", key.String(), err, true)
	}
	return deployment.AppInfo{Key: key, Image: imageRef, Size: inspect.Size}, nil
}

// CopyFromAppImage copies src out of a temporary, never-started container
// created from image into dst on the host.
func (d *Deployment) CopyFromAppImage(ctx context.Context, imageRef, src, dst string, isFile bool) error {
	resp, err := d.client.ContainerCreate(ctx, &dockercontainer.Config{Image: imageRef}, &dockercontainer.HostConfig{
		NetworkMode: "none",
	}, nil, nil, "")
	if err != nil {
		return opErr("CopyFromAppImage", imageRef, err, true)
	}
	defer d.client.ContainerRemove(ctx, resp.ID, dockercontainer.RemoveOptions{Force: true})

	rc, _, err := d.client.CopyFromContainer(ctx, resp.ID, src)
	if err != nil {
		return opErr("CopyFromAppImage", imageRef, err, true)
	}
	defer rc.Close()

	return extractTarEntry(rc, dst, isFile)
}

// resolveInstalledImage finds the locally installed image ref matching
// key by scanning image labels; returns ErrAppNotFound when none match.
func (d *Deployment) resolveInstalledImage(ctx context.Context, key manifest.AppKey) (string, error) {
	images, err := d.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return "", opErr("resolveInstalledImage", key.String(), err, true)
	}
	for _, img := range images {
		if img.Labels[labelAppKey] == key.String() {
			if len(img.RepoTags) > 0 {
				return img.RepoTags[0], nil
			}
			return img.ID, nil
		}
	}
	return "", deployment.ErrAppNotFound
}

// extractTarEntry writes the first regular file (or, for directories,
// every entry) found in the tar stream rc to dst.
func extractTarEntry(rc io.Reader, dst string, isFile bool) error {
	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return err
		}
		if err := os.WriteFile(dst, buf.Bytes(), os.FileMode(hdr.Mode)); err != nil {
			return err
		}
		if isFile {
			return nil
		}
	}
}
