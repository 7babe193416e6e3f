package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "flecsd",
		Usage:   "flecs app daemon - manages containerized apps and their instances",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the flecsd daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Usage:   "HTTP server bind host",
						Value:   "0.0.0.0",
						EnvVars: []string{"FLECSD_HOST"},
					},
					&cli.IntFlag{
						Name:    "port",
						Usage:   "HTTP server bind port",
						Value:   8951,
						EnvVars: []string{"FLECSD_PORT"},
					},
					&cli.StringFlag{
						Name:    "vault-root",
						Usage:   "Root directory for vault state, instance configs and backups",
						Value:   "/var/lib/flecs",
						EnvVars: []string{"FLECSD_VAULT_ROOT"},
					},
					&cli.StringFlag{
						Name:    "docker-host",
						Usage:   "Docker daemon endpoint",
						Value:   "unix:///var/run/docker.sock",
						EnvVars: []string{"FLECSD_DOCKER_HOST"},
					},
					&cli.BoolFlag{
						Name:    "docker-tls-verify",
						Usage:   "Verify TLS when connecting to the Docker daemon",
						EnvVars: []string{"FLECSD_DOCKER_TLS_VERIFY"},
					},
					&cli.StringFlag{
						Name:    "docker-cert-path",
						Usage:   "Directory holding cert.pem/key.pem/ca.pem for Docker TLS",
						EnvVars: []string{"FLECSD_DOCKER_CERT_PATH"},
					},
					&cli.StringFlag{
						Name:    "docker-api-version",
						Usage:   "Docker API version to negotiate, empty for auto-negotiation",
						EnvVars: []string{"FLECSD_DOCKER_API_VERSION"},
					},
					&cli.StringFlag{
						Name:    "docker-network",
						Usage:   "Default Docker network name for new instances",
						Value:   "flecs",
						EnvVars: []string{"FLECSD_DOCKER_NETWORK"},
					},
					&cli.StringFlag{
						Name:    "deployment-kind",
						Usage:   "Deployment backend: docker or compose",
						Value:   "docker",
						EnvVars: []string{"FLECSD_DEPLOYMENT_KIND"},
					},
					&cli.StringFlag{
						Name:    "reverseproxy-dir",
						Usage:   "Directory reverse-proxy routing documents are written to",
						Value:   "/var/lib/flecs/reverse-proxy",
						EnvVars: []string{"FLECSD_REVERSEPROXY_DIR"},
					},
					&cli.StringFlag{
						Name:    "redis-addr",
						Usage:   "Redis address for the job event stream; empty runs an in-memory pub/sub",
						EnvVars: []string{"FLECSD_REDIS_ADDR"},
					},
					&cli.StringFlag{
						Name:    "secrets-key",
						Usage:   "Base64-encoded key for secret pouch field encryption; empty disables it",
						EnvVars: []string{"FLECSD_SECRETS_KEY"},
					},
					&cli.StringSliceFlag{
						Name:    "secrets-old-keys",
						Usage:   "Base64-encoded retired keys, still accepted for decryption",
						EnvVars: []string{"FLECSD_SECRETS_OLD_KEYS"},
					},
					&cli.StringFlag{
						Name:    "core-gateway-address",
						Usage:   "Known address of the core instance's gateway for the extra-hosts binding",
						EnvVars: []string{"FLECSD_CORE_GATEWAY_ADDRESS"},
					},
				},
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
