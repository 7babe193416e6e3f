package docker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"

	"flecsd/internal/deployment"
)

const (
	containerNamePrefix = "flecs-"
	labelInstanceID     = "tech.flecs.instance-id"
	labelAppKey         = "tech.flecs.app-key"
	labelManaged        = "tech.flecs.managed"

	defaultStopTimeout = 10 * time.Second
	helperImage         = "alpine:latest"
)

// Deployment implements deployment.Deployment against a single Docker
// daemon. It satisfies all four capability sets: app, instance, volume
// and network.
type Deployment struct {
	client *client.Client
	config *Config
}

var _ deployment.Deployment = (*Deployment)(nil)

// New connects to the Docker daemon described by cfg.
func New(cfg *Config) (*Deployment, error) {
	cli, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Deployment{client: cli, config: cfg}, nil
}

// Kind identifies this deployment variant.
func (d *Deployment) Kind() string { return "docker" }

// Close releases the underlying Docker client connection.
func (d *Deployment) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

func containerName(instanceID string) string {
	return containerNamePrefix + instanceID
}

func (d *Deployment) findContainer(ctx context.Context, instanceID string) (string, error) {
	inspect, err := d.client.ContainerInspect(ctx, containerName(instanceID))
	if err == nil {
		return inspect.ID, nil
	}
	inspect, err = d.client.ContainerInspect(ctx, instanceID)
	if err == nil {
		return inspect.ID, nil
	}
	return "", deployment.ErrInstanceNotFound
}

func (d *Deployment) pullImage(ctx context.Context, imageRef, authToken string) error {
	var authStr string
	switch {
	case authToken != "":
		authStr = authToken
	case d.config.RegistryAuth != nil:
		authCfg := registry.AuthConfig{
			Username:      d.config.RegistryAuth.Username,
			Password:      d.config.RegistryAuth.Password,
			ServerAddress: d.config.RegistryAuth.ServerAddress,
		}
		data, err := json.Marshal(authCfg)
		if err != nil {
			return err
		}
		authStr = base64.URLEncoding.EncodeToString(data)
	}

	out, err := d.client.ImagePull(ctx, imageRef, image.PullOptions{RegistryAuth: authStr})
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(io.Discard, out)
	return err
}

// mapDockerStatus implements the status mapping table of spec §4.3.
func mapDockerStatus(state *dockercontainer.State) deployment.Status {
	if state == nil {
		return deployment.StatusUnknown
	}
	switch {
	case state.Running, state.Paused, state.Restarting, state.Removing:
		return deployment.StatusRunning
	case state.Status == "created" || state.Status == "exited" || state.Status == "dead" || state.Status == "":
		return deployment.StatusOrphaned
	default:
		return deployment.StatusUnknown
	}
}

func opErr(op, target string, err error, retryable bool) error {
	if err == nil {
		return nil
	}
	return deployment.NewOperationError(op, target, err, retryable)
}

