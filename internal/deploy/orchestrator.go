package deploy

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wpselfhosted/wpdeploy/internal/logging"
	"github.com/wpselfhosted/wpdeploy/internal/models"
	"github.com/wpselfhosted/wpdeploy/internal/restclient"
)

// PageFinder resolves the page a slug publishes to.
type PageFinder interface {
	Resolve(ctx context.Context, slug string) (models.RemotePage, error)
}

// Publisher uploads a local file and links it to a page.
type Publisher interface {
	Publish(ctx context.Context, path string, parentID int64, filename string) (models.MediaAsset, error)
}

// Report describes what a run did. On failure it holds everything completed
// before the failing step.
type Report struct {
	RunID   string
	Slug    string
	Version string
	Page    models.RemotePage
	Readme  models.MediaAsset
	Archive models.MediaAsset
	State   State
	// Trace lists every state entered, in order.
	Trace []State
}

// Orchestrator sequences page resolution and the two media uploads.
type Orchestrator struct {
	Pages  PageFinder
	Media  Publisher
	Logger *slog.Logger
}

// NewOrchestrator wires a PageResolver and a MediaPublisher around client.
func NewOrchestrator(client restclient.RestClient, logger *slog.Logger) *Orchestrator {
	logger = logging.Ensure(logger)
	return &Orchestrator{
		Pages:  &PageResolver{Client: client, Logger: logger.With("component", "pages")},
		Media:  &MediaPublisher{Client: client, Logger: logger.With("component", "media")},
		Logger: logger,
	}
}

// Run publishes artifact to target. Steps run strictly in order and the
// first failure aborts the run; that error is returned unchanged.
func (o *Orchestrator) Run(ctx context.Context, target models.DeploymentTarget, artifact models.Artifact) (Report, error) {
	if o.Pages == nil || o.Media == nil {
		return Report{}, errors.New("orchestrator is not configured")
	}
	if target.Slug == "" {
		return Report{}, models.Invalidf(models.ErrInvalidTarget, "slug is required")
	}

	report := Report{
		RunID:   uuid.NewString(),
		Slug:    target.Slug,
		Version: artifact.Version,
		State:   StatePending,
	}
	logger := logging.Ensure(o.Logger).With("run_id", report.RunID, "slug", target.Slug)
	m := newMachine()

	if artifact.Version != "" {
		logger.Info("starting deployment", "version", artifact.Version)
	} else {
		logger.Info("starting deployment", "version", "unknown")
	}

	err := o.run(ctx, m, &report, target, artifact, logger)
	if err != nil {
		failedIn := m.state
		if abortErr := m.transition(StateAborted); abortErr != nil {
			err = errors.Join(err, abortErr)
		}
		logger.Error("deployment aborted", "state", failedIn, "error", err)
	} else {
		logger.Info("deployment completed",
			"page_id", report.Page.ID,
			"readme_id", report.Readme.ID,
			"archive_id", report.Archive.ID,
		)
	}
	report.State = m.state
	report.Trace = m.trace
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, m *machine, report *Report, target models.DeploymentTarget, artifact models.Artifact, logger *slog.Logger) error {
	if err := m.transition(StateResolvingPage); err != nil {
		return err
	}
	page, err := o.Pages.Resolve(ctx, target.Slug)
	if err != nil {
		return err
	}
	report.Page = page

	pageState := StatePageFound
	if page.Created {
		pageState = StatePageCreated
	}
	if err := m.transition(pageState); err != nil {
		return err
	}
	logger.Info("page ready", "page_id", page.ID, "created", page.Created)

	if err := m.transition(StateUploadingReadme); err != nil {
		return err
	}
	readme, err := o.Media.Publish(ctx, artifact.ReadmePath, page.ID, ReadmeFilename(target.Slug))
	if err != nil {
		return err
	}
	report.Readme = readme

	if err := m.transition(StateUploadingArchive); err != nil {
		return err
	}
	archive, err := o.Media.Publish(ctx, artifact.ArchivePath, page.ID, filepath.Base(artifact.ArchivePath))
	if err != nil {
		return err
	}
	report.Archive = archive

	return m.transition(StateDone)
}
