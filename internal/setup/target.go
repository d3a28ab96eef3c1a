package setup

import (
	"net/url"
	"strings"

	"github.com/wpselfhosted/wpdeploy/internal/models"
)

// Account identifies the remote repository and the user publishing to it.
type Account struct {
	URL      string
	Username string
	Password string
}

// NewTarget validates account and opts and builds the deployment target.
// An empty slug in opts is derived from archivePath.
func NewTarget(account Account, opts Options, archivePath string) (models.DeploymentTarget, error) {
	kind, err := models.ParseProjectKind(opts.Type)
	if err != nil {
		return models.DeploymentTarget{}, err
	}

	baseURL := models.NormalizeBaseURL(account.URL)
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return models.DeploymentTarget{}, &models.ValidationError{Kind: models.ErrInvalidTarget, Msg: "target url", Err: err}
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return models.DeploymentTarget{}, models.Invalidf(models.ErrInvalidTarget, "target url %q must be an absolute http(s) url", account.URL)
	}
	if strings.TrimSpace(account.Username) == "" {
		return models.DeploymentTarget{}, models.Invalidf(models.ErrInvalidTarget, "username is required")
	}
	if account.Password == "" {
		return models.DeploymentTarget{}, models.Invalidf(models.ErrInvalidTarget, "password is required")
	}

	slug := strings.TrimSpace(opts.Slug)
	if slug == "" {
		slug = models.DeriveSlug(archivePath)
	}
	if slug == "" || slug == "." || slug == "/" {
		return models.DeploymentTarget{}, models.Invalidf(models.ErrInvalidTarget, "cannot derive a slug from %q", archivePath)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = models.DefaultTimeout
	}

	return models.DeploymentTarget{
		BaseURL:            baseURL,
		Username:           strings.TrimSpace(account.Username),
		Credential:         account.Password,
		Kind:               kind,
		Slug:               slug,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		Timeout:            timeout,
	}, nil
}
