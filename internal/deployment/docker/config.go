// Package docker implements deployment.Deployment against a Docker
// daemon via github.com/docker/docker/client.
package docker

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/docker/docker/client"
)

// Config configures the connection to one Docker daemon.
type Config struct {
	Host         string
	TLSVerify    bool
	CertPEM      string
	KeyPEM       string
	CAPEM        string
	APIVersion   string
	Network      string
	RegistryAuth *RegistryAuth
}

// RegistryAuth carries credentials for pulling from a private registry.
type RegistryAuth struct {
	Username      string
	Password      string
	ServerAddress string
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("docker: host is required")
	}
	if c.TLSVerify && (c.CertPEM == "" || c.KeyPEM == "" || c.CAPEM == "") {
		return fmt.Errorf("docker: cert_pem, key_pem and ca_pem are required when tls_verify is enabled")
	}
	return nil
}

// newClient builds a docker client.Client for the given Config,
// negotiating the API version and, if TLSVerify is set, configuring
// mutual TLS from the in-memory PEM material.
func newClient(cfg *Config) (*client.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("docker: config cannot be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []client.Opt{client.WithHost(cfg.Host), client.WithAPIVersionNegotiation()}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	}

	if cfg.TLSVerify {
		tlsConfig, err := loadTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("docker: load tls config: %w", err)
		}
		opts = append(opts, client.WithHTTPClient(&http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		}))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker: create client: %w", err)
	}
	return cli, nil
}

func loadTLSConfig(cfg *Config) (*tls.Config, error) {
	cert, err := tls.X509KeyPair([]byte(cfg.CertPEM), []byte(cfg.KeyPEM))
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(cfg.CAPEM)) {
		return nil, fmt.Errorf("append CA certificate")
	}

	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool}

	host := cfg.Host
	if strings.HasPrefix(host, "tcp://") {
		host = strings.TrimPrefix(host, "tcp://")
		if i := strings.Index(host, ":"); i > 0 {
			host = host[:i]
		}
		tlsConfig.ServerName = host
	}
	return tlsConfig, nil
}

// ConfigFromEnv builds a Config from the FLECSD_DOCKER_* environment
// variables, falling back to the local daemon socket when unset.
func ConfigFromEnv() *Config {
	host := os.Getenv("FLECSD_DOCKER_HOST")
	if host == "" {
		host = "unix:///var/run/docker.sock"
	}
	return &Config{
		Host:       host,
		APIVersion: os.Getenv("FLECSD_DOCKER_API_VERSION"),
		Network:    os.Getenv("FLECSD_DOCKER_NETWORK"),
	}
}
