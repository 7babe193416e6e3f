// Package compose implements the multi-container ("Multi" manifest)
// deployment variant named alongside Docker in spec §4.3. Instance, volume
// and network operations run against the same daemon a Single app would use
// and are delegated to the wrapped docker.Deployment; the app capability
// set differs, since a compose app has no single image to pull or inspect
// but a project document to parse and validate: InstallApp validates the
// document, and ExportApp/ImportApp are unsupported.
package compose

import (
	"context"
	"fmt"
	"io"

	composeloader "github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	"golang.org/x/oauth2"

	"flecsd/internal/deployment"
	"flecsd/internal/deployment/docker"
	"flecsd/internal/manifest"
)

// Deployment implements deployment.Deployment for compose-style apps. It
// wraps a docker.Deployment for every capability that still operates on
// plain containers (instance lifecycle, volumes, networks) and replaces
// the app capability set, with compose-project parsing as the install path.
type Deployment struct {
	docker *docker.Deployment
}

var _ deployment.Deployment = (*Deployment)(nil)

// New connects to the same Docker daemon a docker.Deployment would, for use
// as the backing runtime of compose-style instances.
func New(cfg *docker.Config) (*Deployment, error) {
	d, err := docker.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	return &Deployment{docker: d}, nil
}

// Kind identifies this deployment variant.
func (d *Deployment) Kind() string { return "compose" }

// Close releases the underlying Docker client connection.
func (d *Deployment) Close() error { return d.docker.Close() }

// parseProject validates a compose document against the compose-spec
// schema and returns the parsed project, used by InstallApp to reject
// malformed documents before anything is recorded.
func parseProject(key manifest.AppKey, yaml string) (*composetypes.Project, error) {
	details := composetypes.ConfigDetails{
		ConfigFiles: []composetypes.ConfigFile{{Content: []byte(yaml)}},
	}
	project, err := composeloader.LoadWithContext(context.Background(), details, func(o *composeloader.Options) {
		o.SetProjectName(key.Name, true)
		o.SkipNormalization = true
		o.SkipConsistencyCheck = true
	})
	if err != nil {
		return nil, fmt.Errorf("compose: parse project %s: %w", key.Name, err)
	}
	return project, nil
}

// InstallApp validates the Multi manifest's compose document. It does not
// pull service images or stand up containers, and no other method of this
// variant pulls service images either. token is accepted for interface
// parity with the docker variant but unused.
func (d *Deployment) InstallApp(ctx context.Context, m manifest.Manifest, token *oauth2.Token) error {
	multi, ok := m.(*manifest.Multi)
	if !ok {
		return fmt.Errorf("compose: InstallApp requires a Multi manifest, got %T", m)
	}
	_, err := parseProject(multi.Key(), multi.ComposeYAML)
	return err
}

// UninstallApp is a no-op: a compose project owns no single image to
// remove, and per-service images are left to the docker deployment's own
// image garbage collection.
func (d *Deployment) UninstallApp(ctx context.Context, key manifest.AppKey) error { return nil }

// IsAppInstalled always reports installed, whether or not InstallApp has
// run for key; compose apps have no separate pulled-image state to query.
func (d *Deployment) IsAppInstalled(ctx context.Context, key manifest.AppKey) (bool, error) {
	return true, nil
}

// InstalledAppSize is not meaningful for a multi-service project with no
// single image; spec.md does not define a per-service aggregation.
func (d *Deployment) InstalledAppSize(ctx context.Context, key manifest.AppKey) (int64, error) {
	return 0, nil
}

// ExportApp is unsupported: exporting a compose project means archiving its
// document plus every referenced service image, which has no single-image
// analogue in deployment.Deployment's ExportApp/ImportApp contract.
func (d *Deployment) ExportApp(ctx context.Context, key manifest.AppKey, path string) error {
	return fmt.Errorf("compose: ExportApp: %w", deployment.ErrAppNotFound)
}

// ImportApp is unsupported for the same reason as ExportApp.
func (d *Deployment) ImportApp(ctx context.Context, path string) (manifest.AppKey, error) {
	return manifest.AppKey{}, fmt.Errorf("compose: ImportApp: %w", deployment.ErrAppNotFound)
}

// AppInfo reports the compose variant's own image field as the project
// name, since there is no single backing image reference.
func (d *Deployment) AppInfo(ctx context.Context, key manifest.AppKey) (deployment.AppInfo, error) {
	return deployment.AppInfo{Key: key, Image: "compose:" + key.Name}, nil
}

// CopyFromAppImage delegates to the wrapped docker deployment: service
// images are ordinary Docker images once pulled.
func (d *Deployment) CopyFromAppImage(ctx context.Context, imageRef, src, dst string, isFile bool) error {
	return d.docker.CopyFromAppImage(ctx, imageRef, src, dst, isFile)
}

// The remaining capability sets operate on ordinary containers regardless
// of which manifest variant produced them, so they delegate unchanged.

func (d *Deployment) StartInstance(ctx context.Context, cfg deployment.ContainerConfig, id string, configFiles []deployment.ConfigFileTransfer) (string, error) {
	return d.docker.StartInstance(ctx, cfg, id, configFiles)
}

func (d *Deployment) StopInstance(ctx context.Context, id string, configFiles []deployment.ConfigFileTransfer) error {
	return d.docker.StopInstance(ctx, id, configFiles)
}

func (d *Deployment) DeleteInstance(ctx context.Context, id string) error {
	return d.docker.DeleteInstance(ctx, id)
}

func (d *Deployment) InstanceStatus(ctx context.Context, id string) (deployment.Status, error) {
	return d.docker.InstanceStatus(ctx, id)
}

func (d *Deployment) InstanceLogs(ctx context.Context, id string) (deployment.InstanceLogs, error) {
	return d.docker.InstanceLogs(ctx, id)
}

func (d *Deployment) CopyFromInstance(ctx context.Context, id, src, dst string, isFile bool) error {
	return d.docker.CopyFromInstance(ctx, id, src, dst, isFile)
}

func (d *Deployment) CopyToInstance(ctx context.Context, id, src, dst string, isFile bool) error {
	return d.docker.CopyToInstance(ctx, id, src, dst, isFile)
}

func (d *Deployment) CreateVolume(ctx context.Context, name string) (string, error) {
	return d.docker.CreateVolume(ctx, name)
}

func (d *Deployment) DeleteVolume(ctx context.Context, id string) error {
	return d.docker.DeleteVolume(ctx, id)
}

func (d *Deployment) ImportVolume(ctx context.Context, srcFile, containerPath, name, image string) (string, error) {
	return d.docker.ImportVolume(ctx, srcFile, containerPath, name, image)
}

func (d *Deployment) ExportVolume(ctx context.Context, id, exportPath, containerPath, image string) error {
	return d.docker.ExportVolume(ctx, id, exportPath, containerPath, image)
}

func (d *Deployment) CreateNetwork(ctx context.Context, cfg deployment.NetworkConfig) (deployment.Network, error) {
	return d.docker.CreateNetwork(ctx, cfg)
}

func (d *Deployment) DefaultNetwork(ctx context.Context) (deployment.Network, error) {
	return d.docker.DefaultNetwork(ctx)
}

func (d *Deployment) DeleteNetwork(ctx context.Context, id string) error {
	return d.docker.DeleteNetwork(ctx, id)
}

func (d *Deployment) GetNetwork(ctx context.Context, id string) (deployment.Network, error) {
	return d.docker.GetNetwork(ctx, id)
}

func (d *Deployment) Networks(ctx context.Context) ([]deployment.Network, error) {
	return d.docker.Networks(ctx)
}

func (d *Deployment) ConnectNetwork(ctx context.Context, networkID, ip, instanceID string) error {
	return d.docker.ConnectNetwork(ctx, networkID, ip, instanceID)
}

func (d *Deployment) DisconnectNetwork(ctx context.Context, networkID, instanceID string) error {
	return d.docker.DisconnectNetwork(ctx, networkID, instanceID)
}

var _ io.Closer = (*Deployment)(nil)
