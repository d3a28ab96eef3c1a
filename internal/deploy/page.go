package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/wpselfhosted/wpdeploy/internal/logging"
	"github.com/wpselfhosted/wpdeploy/internal/models"
	"github.com/wpselfhosted/wpdeploy/internal/restclient"
)

const (
	pagesPath = "wp-json/wp/v2/pages"

	// PagePlaceholder is the body of pages created by this tool.
	PagePlaceholder = "[wp-self-hosted]"
)

// remoteObject is the part of a WordPress REST object this tool reads.
type remoteObject struct {
	ID   *int64 `json:"id"`
	Slug string `json:"slug"`
}

// PageResolver finds or creates the listing page of a slug.
type PageResolver struct {
	Client restclient.RestClient
	Logger *slog.Logger
}

// Resolve returns the page for slug, creating it when no page exists in
// any status.
func (r *PageResolver) Resolve(ctx context.Context, slug string) (models.RemotePage, error) {
	logger := logging.Ensure(r.Logger).With("slug", slug)

	page, found, err := r.lookup(ctx, slug)
	if err != nil {
		return models.RemotePage{}, err
	}
	if found {
		logger.Info("found existing page", "page_id", page.ID)
		return page, nil
	}

	logger.Info("no page for slug, creating one")
	page, err = r.create(ctx, slug)
	if err != nil {
		return models.RemotePage{}, err
	}
	logger.Info("created page", "page_id", page.ID)
	return page, nil
}

func (r *PageResolver) lookup(ctx context.Context, slug string) (models.RemotePage, bool, error) {
	query := url.Values{
		"slug":   {slug},
		"status": {"any"},
	}

	var pages []remoteObject
	if err := r.Client.Get(ctx, pagesPath, query, &pages); err != nil {
		return models.RemotePage{}, false, remoteFailure(models.ErrLookupFailed, "lookup page", err)
	}

	switch len(pages) {
	case 0:
		return models.RemotePage{}, false, nil
	case 1:
	default:
		return models.RemotePage{}, false, &models.RemoteError{
			Kind: models.ErrInconsistentPageState,
			Step: "lookup page",
			Msg:  fmt.Sprintf("%d pages share slug %q", len(pages), slug),
		}
	}

	if pages[0].ID == nil {
		return models.RemotePage{}, false, &models.RemoteError{
			Kind: models.ErrInconsistentPageState,
			Step: "lookup page",
			Msg:  "page has no id",
		}
	}
	return models.RemotePage{ID: *pages[0].ID, Slug: slug}, true, nil
}

func (r *PageResolver) create(ctx context.Context, slug string) (models.RemotePage, error) {
	body := restclient.Form(url.Values{
		"title":   {slug},
		"slug":    {slug},
		"content": {PagePlaceholder},
	})

	var created remoteObject
	if err := r.Client.Post(ctx, pagesPath, body, &created); err != nil {
		return models.RemotePage{}, remoteFailure(models.ErrCreateFailed, "create page", err)
	}
	if created.ID == nil {
		return models.RemotePage{}, &models.RemoteError{
			Kind: models.ErrCreateFailed,
			Step: "create page",
			Msg:  "response has no id",
		}
	}
	return models.RemotePage{ID: *created.ID, Slug: slug, Created: true}, nil
}

// remoteFailure classifies an error from the RestClient. Undecodable bodies
// are reported as malformed responses, everything else under kind.
func remoteFailure(kind error, step string, err error) error {
	if errors.Is(err, restclient.ErrMalformedBody) {
		kind = models.ErrMalformedResponse
	}
	return &models.RemoteError{Kind: kind, Step: step, Err: err}
}
