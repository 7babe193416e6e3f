package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"flecsd/internal/deployment"
	"flecsd/internal/deployment/compose"
	"flecsd/internal/deployment/docker"
	"flecsd/internal/instance"
	"flecsd/internal/jobs"
	"flecsd/internal/logger"
	"flecsd/internal/pubsub"
	"flecsd/internal/quest"
	"flecsd/internal/reverseproxy"
	"flecsd/internal/secrets"
	"flecsd/internal/usbdevice"
	"flecsd/internal/vault"
	"flecsd/internal/vault/pouch"
)

const defaultDeploymentID pouch.DeploymentId = "default"

// closeableDeployment is what buildDeployment actually returns: both
// concrete variants also implement io.Closer to release their Docker
// client, which deployment.Deployment itself doesn't require.
type closeableDeployment interface {
	deployment.Deployment
	Close() error
}

// server bundles every daemon-wide collaborator the HTTP handlers need.
type server struct {
	vault  *vault.Vault
	deploy deployment.Deployment
	engine *instance.Engine
	jobs   *jobs.Registry
	pub    pubsub.PubSub
	log    *zap.Logger
}

func runServe(c *cli.Context) error {
	log := logger.NewLoggerFromEnv()
	defer log.Sync()

	if err := initSecrets(c); err != nil {
		return fmt.Errorf("flecsd: init secrets: %w", err)
	}

	v, err := vault.Open(c.String("vault-root"))
	if err != nil {
		return fmt.Errorf("flecsd: open vault: %w", err)
	}

	deploy, err := buildDeployment(c)
	if err != nil {
		return fmt.Errorf("flecsd: build deployment: %w", err)
	}
	defer func() {
		if err := deploy.Close(); err != nil {
			log.Warn("deployment close failed", zap.Error(err))
		}
	}()

	recordDefaultDeployment(v, deploy, c)

	pub := buildPubSub(c)
	defer pub.Close()

	questEngine := quest.NewEngine()
	jobRegistry := jobs.NewRegistry(questEngine, pub)

	eng := &instance.Engine{
		Deployment:         deploy,
		Proxy:              &reverseproxy.FileWriter{Dir: c.String("reverseproxy-dir")},
		USB:                usbdevice.NewSysfsReader(),
		DeploymentID:       defaultDeploymentID,
		BaseDir:            c.String("vault-root"),
		CoreGatewayAddress: c.String("core-gateway-address"),
	}

	srv := &server{
		vault:  v,
		deploy: deploy,
		engine: eng,
		jobs:   jobRegistry,
		pub:    pub,
		log:    log,
	}

	addr := fmt.Sprintf("%s:%d", c.String("host"), c.Int("port"))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      newRouter(srv),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	go func() {
		log.Info("flecsd listening", zap.String("addr", addr), zap.String("deployment", deploy.Kind()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	log.Info("flecsd stopped")
	return nil
}

func initSecrets(c *cli.Context) error {
	key := c.String("secrets-key")
	if key == "" {
		return nil
	}
	return secrets.Init(key, c.StringSlice("secrets-old-keys")...)
}

func buildDeployment(c *cli.Context) (closeableDeployment, error) {
	cfg := docker.ConfigFromEnv()
	cfg.Host = c.String("docker-host")
	cfg.APIVersion = c.String("docker-api-version")
	cfg.Network = c.String("docker-network")
	cfg.TLSVerify = c.Bool("docker-tls-verify")

	if cfg.TLSVerify {
		certPEM, keyPEM, caPEM, err := loadDockerTLSMaterial(c.String("docker-cert-path"))
		if err != nil {
			return nil, err
		}
		cfg.CertPEM, cfg.KeyPEM, cfg.CAPEM = certPEM, keyPEM, caPEM
	}

	switch c.String("deployment-kind") {
	case "docker", "":
		return docker.New(cfg)
	case "compose":
		return compose.New(cfg)
	default:
		return nil, fmt.Errorf("flecsd: unknown deployment kind %q", c.String("deployment-kind"))
	}
}

func loadDockerTLSMaterial(certPath string) (certPEM, keyPEM, caPEM string, err error) {
	if certPath == "" {
		return "", "", "", fmt.Errorf("flecsd: docker-cert-path is required when docker-tls-verify is set")
	}
	read := func(name string) (string, error) {
		data, err := os.ReadFile(certPath + "/" + name)
		if err != nil {
			return "", fmt.Errorf("flecsd: read %s: %w", name, err)
		}
		return string(data), nil
	}
	if certPEM, err = read("cert.pem"); err != nil {
		return "", "", "", err
	}
	if keyPEM, err = read("key.pem"); err != nil {
		return "", "", "", err
	}
	if caPEM, err = read("ca.pem"); err != nil {
		return "", "", "", err
	}
	return certPEM, keyPEM, caPEM, nil
}

// recordDefaultDeployment persists a DeploymentRecord for the configured
// backend the first time the daemon starts against a fresh vault, so
// later runs (and any operator tooling reading the vault directly) can see
// which backend an instance's DeploymentID refers to.
func recordDefaultDeployment(v *vault.Vault, deploy deployment.Deployment, c *cli.Context) {
	r := v.Reserve(vault.Request{Deployments: vault.Exclusive})
	defer func() {
		if err := r.Release(); err != nil {
			log.Printf("flecsd: persist deployment record: %v", err)
		}
	}()

	if r.Deployments().Get(defaultDeploymentID) != nil {
		return
	}
	kind := pouch.KindDocker
	if deploy.Kind() == "compose" {
		kind = pouch.KindCompose
	}
	r.Deployments().Put(&pouch.DeploymentRecord{
		ID:   defaultDeploymentID,
		Kind: kind,
		Host: c.String("docker-host"),
	})
	r.MarkDeploymentsDirty()
}

func buildPubSub(c *cli.Context) pubsub.PubSub {
	addr := c.String("redis-addr")
	if addr == "" {
		return pubsub.NewMemoryPubSub()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return pubsub.NewRedisPubSub(client)
}
