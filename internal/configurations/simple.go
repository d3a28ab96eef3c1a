package simple

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wpselfhosted/wpdeploy/internal/artifacts"
	"github.com/wpselfhosted/wpdeploy/internal/deploy"
	"github.com/wpselfhosted/wpdeploy/internal/logging"
	"github.com/wpselfhosted/wpdeploy/internal/models"
	"github.com/wpselfhosted/wpdeploy/internal/restclient"
	"github.com/wpselfhosted/wpdeploy/internal/setup"
)

// Request carries everything one deploy invocation was given.
type Request struct {
	Account   setup.Account
	Options   setup.Options
	UserAgent string
}

// Plan is the validated local half of a run.
type Plan struct {
	Target   models.DeploymentTarget
	Artifact models.Artifact
}

// Prepare resolves the artifact, reads its version and builds the target.
// It performs no remote calls.
func Prepare(req Request, logger *slog.Logger) (Plan, error) {
	logger = logging.Ensure(logger).With("component", "config.simple")

	// The kind is checked before touching the filesystem so that a bad
	// --type is reported first.
	if _, err := models.ParseProjectKind(req.Options.Type); err != nil {
		return Plan{}, err
	}

	artifact, err := artifacts.Resolve(req.Options.Path)
	if err != nil {
		return Plan{}, err
	}

	version, ok, err := artifacts.ReadVersion(artifact.ReadmePath)
	switch {
	case err != nil:
		logger.Warn("could not read version from readme", "readme", artifact.ReadmePath, "error", err)
	case !ok:
		logger.Warn("readme declares no stable tag", "readme", artifact.ReadmePath)
	default:
		artifact.Version = version
	}

	target, err := setup.NewTarget(req.Account, req.Options, artifact.ArchivePath)
	if err != nil {
		return Plan{}, err
	}

	logger.Info("artifact resolved",
		"readme", artifact.ReadmePath,
		"archive", artifact.ArchivePath,
		"version", artifact.Version,
		"slug", target.Slug,
		"type", target.Kind,
	)
	return Plan{Target: target, Artifact: artifact}, nil
}

// Deploy prepares and publishes the artifact described by req.
func Deploy(ctx context.Context, req Request, logger *slog.Logger) (deploy.Report, error) {
	plan, err := Prepare(req, logger)
	if err != nil {
		return deploy.Report{}, err
	}
	return Publish(ctx, plan, req.UserAgent, logger)
}

// Publish runs the remote half of a deployment for an already prepared plan.
func Publish(ctx context.Context, plan Plan, userAgent string, logger *slog.Logger) (deploy.Report, error) {
	logger = logging.Ensure(logger)

	if plan.Target.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled", "url", plan.Target.BaseURL)
	}

	client, err := restclient.New(restclient.Config{
		BaseURL:            plan.Target.BaseURL,
		Username:           plan.Target.Username,
		Password:           plan.Target.Credential,
		InsecureSkipVerify: plan.Target.InsecureSkipVerify,
		Timeout:            plan.Target.Timeout,
		UserAgent:          userAgent,
	}, logger)
	if err != nil {
		return deploy.Report{}, fmt.Errorf("create rest client: %w", err)
	}

	orchestrator := deploy.NewOrchestrator(client, logger.With("service", "deploy"))
	return orchestrator.Run(ctx, plan.Target, plan.Artifact)
}
