package deployment

import (
	"context"

	"golang.org/x/oauth2"

	"flecsd/internal/manifest"
)

// Mock is a scriptable no-op Deployment for tests. Every *Func field left
// nil falls back to a success response: mostly zero values, except that
// IsAppInstalled reports true, InstanceStatus reports StatusStopped,
// StartInstance/CreateVolume/ImportVolume echo their id or name, AppInfo,
// CreateNetwork and GetNetwork echo their inputs, and DefaultNetwork
// returns a bridge network named "default".
type Mock struct {
	KindFunc string

	InstallAppFunc        func(ctx context.Context, m manifest.Manifest, token *oauth2.Token) error
	UninstallAppFunc      func(ctx context.Context, key manifest.AppKey) error
	IsAppInstalledFunc    func(ctx context.Context, key manifest.AppKey) (bool, error)
	InstalledAppSizeFunc  func(ctx context.Context, key manifest.AppKey) (int64, error)
	ExportAppFunc         func(ctx context.Context, key manifest.AppKey, path string) error
	ImportAppFunc         func(ctx context.Context, path string) (manifest.AppKey, error)
	AppInfoFunc           func(ctx context.Context, key manifest.AppKey) (AppInfo, error)
	CopyFromAppImageFunc  func(ctx context.Context, image, src, dst string, isFile bool) error

	StartInstanceFunc   func(ctx context.Context, cfg ContainerConfig, id string, configFiles []ConfigFileTransfer) (string, error)
	StopInstanceFunc    func(ctx context.Context, id string, configFiles []ConfigFileTransfer) error
	DeleteInstanceFunc  func(ctx context.Context, id string) error
	InstanceStatusFunc  func(ctx context.Context, id string) (Status, error)
	InstanceLogsFunc    func(ctx context.Context, id string) (InstanceLogs, error)
	CopyFromInstanceFunc func(ctx context.Context, id, src, dst string, isFile bool) error
	CopyToInstanceFunc  func(ctx context.Context, id, src, dst string, isFile bool) error

	CreateVolumeFunc func(ctx context.Context, name string) (string, error)
	DeleteVolumeFunc func(ctx context.Context, id string) error
	ImportVolumeFunc func(ctx context.Context, srcFile, containerPath, name, image string) (string, error)
	ExportVolumeFunc func(ctx context.Context, id, exportPath, containerPath, image string) error

	CreateNetworkFunc     func(ctx context.Context, cfg NetworkConfig) (Network, error)
	DefaultNetworkFunc    func(ctx context.Context) (Network, error)
	DeleteNetworkFunc     func(ctx context.Context, id string) error
	GetNetworkFunc        func(ctx context.Context, id string) (Network, error)
	NetworksFunc          func(ctx context.Context) ([]Network, error)
	ConnectNetworkFunc    func(ctx context.Context, networkID, ip, instanceID string) error
	DisconnectNetworkFunc func(ctx context.Context, networkID, instanceID string) error
}

var _ Deployment = (*Mock)(nil)

func (m *Mock) Kind() string {
	if m.KindFunc != "" {
		return m.KindFunc
	}
	return "mock"
}

func (m *Mock) InstallApp(ctx context.Context, mf manifest.Manifest, token *oauth2.Token) error {
	if m.InstallAppFunc != nil {
		return m.InstallAppFunc(ctx, mf, token)
	}
	return nil
}

func (m *Mock) UninstallApp(ctx context.Context, key manifest.AppKey) error {
	if m.UninstallAppFunc != nil {
		return m.UninstallAppFunc(ctx, key)
	}
	return nil
}

func (m *Mock) IsAppInstalled(ctx context.Context, key manifest.AppKey) (bool, error) {
	if m.IsAppInstalledFunc != nil {
		return m.IsAppInstalledFunc(ctx, key)
	}
	return true, nil
}

func (m *Mock) InstalledAppSize(ctx context.Context, key manifest.AppKey) (int64, error) {
	if m.InstalledAppSizeFunc != nil {
		return m.InstalledAppSizeFunc(ctx, key)
	}
	return 0, nil
}

func (m *Mock) ExportApp(ctx context.Context, key manifest.AppKey, path string) error {
	if m.ExportAppFunc != nil {
		return m.ExportAppFunc(ctx, key, path)
	}
	return nil
}

func (m *Mock) ImportApp(ctx context.Context, path string) (manifest.AppKey, error) {
	if m.ImportAppFunc != nil {
		return m.ImportAppFunc(ctx, path)
	}
	return manifest.AppKey{}, nil
}

func (m *Mock) AppInfo(ctx context.Context, key manifest.AppKey) (AppInfo, error) {
	if m.AppInfoFunc != nil {
		return m.AppInfoFunc(ctx, key)
	}
	return AppInfo{Key: key}, nil
}

func (m *Mock) CopyFromAppImage(ctx context.Context, image, src, dst string, isFile bool) error {
	if m.CopyFromAppImageFunc != nil {
		return m.CopyFromAppImageFunc(ctx, image, src, dst, isFile)
	}
	return nil
}

func (m *Mock) StartInstance(ctx context.Context, cfg ContainerConfig, id string, configFiles []ConfigFileTransfer) (string, error) {
	if m.StartInstanceFunc != nil {
		return m.StartInstanceFunc(ctx, cfg, id, configFiles)
	}
	return id, nil
}

func (m *Mock) StopInstance(ctx context.Context, id string, configFiles []ConfigFileTransfer) error {
	if m.StopInstanceFunc != nil {
		return m.StopInstanceFunc(ctx, id, configFiles)
	}
	return nil
}

func (m *Mock) DeleteInstance(ctx context.Context, id string) error {
	if m.DeleteInstanceFunc != nil {
		return m.DeleteInstanceFunc(ctx, id)
	}
	return nil
}

func (m *Mock) InstanceStatus(ctx context.Context, id string) (Status, error) {
	if m.InstanceStatusFunc != nil {
		return m.InstanceStatusFunc(ctx, id)
	}
	return StatusStopped, nil
}

func (m *Mock) InstanceLogs(ctx context.Context, id string) (InstanceLogs, error) {
	if m.InstanceLogsFunc != nil {
		return m.InstanceLogsFunc(ctx, id)
	}
	return InstanceLogs{}, nil
}

func (m *Mock) CopyFromInstance(ctx context.Context, id, src, dst string, isFile bool) error {
	if m.CopyFromInstanceFunc != nil {
		return m.CopyFromInstanceFunc(ctx, id, src, dst, isFile)
	}
	return nil
}

func (m *Mock) CopyToInstance(ctx context.Context, id, src, dst string, isFile bool) error {
	if m.CopyToInstanceFunc != nil {
		return m.CopyToInstanceFunc(ctx, id, src, dst, isFile)
	}
	return nil
}

func (m *Mock) CreateVolume(ctx context.Context, name string) (string, error) {
	if m.CreateVolumeFunc != nil {
		return m.CreateVolumeFunc(ctx, name)
	}
	return name, nil
}

func (m *Mock) DeleteVolume(ctx context.Context, id string) error {
	if m.DeleteVolumeFunc != nil {
		return m.DeleteVolumeFunc(ctx, id)
	}
	return nil
}

func (m *Mock) ImportVolume(ctx context.Context, srcFile, containerPath, name, image string) (string, error) {
	if m.ImportVolumeFunc != nil {
		return m.ImportVolumeFunc(ctx, srcFile, containerPath, name, image)
	}
	return name, nil
}

func (m *Mock) ExportVolume(ctx context.Context, id, exportPath, containerPath, image string) error {
	if m.ExportVolumeFunc != nil {
		return m.ExportVolumeFunc(ctx, id, exportPath, containerPath, image)
	}
	return nil
}

func (m *Mock) CreateNetwork(ctx context.Context, cfg NetworkConfig) (Network, error) {
	if m.CreateNetworkFunc != nil {
		return m.CreateNetworkFunc(ctx, cfg)
	}
	return Network{Name: cfg.Name, Kind: cfg.Kind}, nil
}

func (m *Mock) DefaultNetwork(ctx context.Context) (Network, error) {
	if m.DefaultNetworkFunc != nil {
		return m.DefaultNetworkFunc(ctx)
	}
	return Network{ID: "default", Name: "default", Kind: NetworkBridge}, nil
}

func (m *Mock) DeleteNetwork(ctx context.Context, id string) error {
	if m.DeleteNetworkFunc != nil {
		return m.DeleteNetworkFunc(ctx, id)
	}
	return nil
}

func (m *Mock) GetNetwork(ctx context.Context, id string) (Network, error) {
	if m.GetNetworkFunc != nil {
		return m.GetNetworkFunc(ctx, id)
	}
	return Network{ID: id}, nil
}

func (m *Mock) Networks(ctx context.Context) ([]Network, error) {
	if m.NetworksFunc != nil {
		return m.NetworksFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) ConnectNetwork(ctx context.Context, networkID, ip, instanceID string) error {
	if m.ConnectNetworkFunc != nil {
		return m.ConnectNetworkFunc(ctx, networkID, ip, instanceID)
	}
	return nil
}

func (m *Mock) DisconnectNetwork(ctx context.Context, networkID, instanceID string) error {
	if m.DisconnectNetworkFunc != nil {
		return m.DisconnectNetworkFunc(ctx, networkID, instanceID)
	}
	return nil
}
