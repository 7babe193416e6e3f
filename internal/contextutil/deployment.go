// Package contextutil threads request-scoped collaborators (the active
// deployment backend) through a context.Context using the fail-fast
// accessor pattern: GetDeployment panics if nothing was stored, while
// GetDeploymentSafe/HasDeployment let a caller handle absence explicitly.
package contextutil

import (
	"context"
	"fmt"

	"flecsd/internal/deployment"
)

type contextKey string

const deploymentKey contextKey = "deployment"

// WithDeployment stores dep in ctx.
func WithDeployment(ctx context.Context, dep deployment.Deployment) context.Context {
	return context.WithValue(ctx, deploymentKey, dep)
}

// GetDeployment retrieves the deployment stored in ctx. Panics if none is
// present — every request path that reaches into C4/C5 runs under a
// deployment already resolved at the daemon's wiring layer.
func GetDeployment(ctx context.Context) deployment.Deployment {
	dep, ok := ctx.Value(deploymentKey).(deployment.Deployment)
	if !ok || dep == nil {
		panic("contextutil: deployment not found in context - did you forget WithDeployment?")
	}
	return dep
}

// GetDeploymentSafe retrieves the deployment stored in ctx, returning an
// error instead of panicking when absent.
func GetDeploymentSafe(ctx context.Context) (deployment.Deployment, error) {
	dep, ok := ctx.Value(deploymentKey).(deployment.Deployment)
	if !ok || dep == nil {
		return nil, fmt.Errorf("contextutil: deployment not found in context")
	}
	return dep, nil
}

// HasDeployment reports whether a deployment is present in ctx.
func HasDeployment(ctx context.Context) bool {
	dep, ok := ctx.Value(deploymentKey).(deployment.Deployment)
	return ok && dep != nil
}
