package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/wpselfhosted/wpdeploy/internal/artifacts"
	"github.com/wpselfhosted/wpdeploy/internal/logging"
	"github.com/wpselfhosted/wpdeploy/internal/models"
	"github.com/wpselfhosted/wpdeploy/internal/restclient"
)

const mediaPath = "wp-json/wp/v2/media"

// MediaPublisher uploads files as media and links them to a page.
type MediaPublisher struct {
	Client restclient.RestClient
	Logger *slog.Logger
}

// Publish uploads the file at path under filename and sets its parent to
// parentID. Upload and link form one unit: if linking fails the uploaded
// media is left on the server and the error is returned.
func (p *MediaPublisher) Publish(ctx context.Context, path string, parentID int64, filename string) (models.MediaAsset, error) {
	logger := logging.Ensure(p.Logger).With("file", filename, "page_id", parentID)

	mediaID, err := p.upload(ctx, path, filename)
	if err != nil {
		return models.MediaAsset{}, err
	}
	logger.Debug("uploaded media", "media_id", mediaID)

	if err := p.link(ctx, mediaID, parentID); err != nil {
		logger.Warn("media uploaded but not linked", "media_id", mediaID)
		return models.MediaAsset{}, err
	}
	logger.Info("published media", "media_id", mediaID)

	return models.MediaAsset{ID: mediaID, Filename: filename, ParentID: parentID}, nil
}

func (p *MediaPublisher) upload(ctx context.Context, path, filename string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, &models.RemoteError{Kind: models.ErrUploadFailed, Step: "upload media", Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, &models.RemoteError{Kind: models.ErrUploadFailed, Step: "upload media", Err: fmt.Errorf("stat %s: %w", path, err)}
	}

	body := restclient.Body{
		Reader:        file,
		ContentType:   artifacts.ContentType(filename),
		ContentLength: info.Size(),
		Header:        http.Header{"Content-Disposition": {ContentDisposition(filename)}},
	}

	var created remoteObject
	if err := p.Client.Post(ctx, mediaPath, body, &created); err != nil {
		return 0, remoteFailure(models.ErrUploadFailed, "upload media", err)
	}
	if created.ID == nil {
		return 0, &models.RemoteError{Kind: models.ErrUploadFailed, Step: "upload media", Msg: "response has no id"}
	}
	return *created.ID, nil
}

func (p *MediaPublisher) link(ctx context.Context, mediaID, parentID int64) error {
	body := restclient.Form(url.Values{"post": {strconv.FormatInt(parentID, 10)}})
	path := mediaPath + "/" + strconv.FormatInt(mediaID, 10)

	if err := p.Client.Patch(ctx, path, body, nil); err != nil {
		return remoteFailure(models.ErrLinkFailed, "link media", err)
	}
	return nil
}

// ContentDisposition is the header value that names an uploaded file.
func ContentDisposition(filename string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(filename)
	return `form-data; filename="` + escaped + `"`
}

// ReadmeFilename is the media filename a slug's readme is uploaded as.
func ReadmeFilename(slug string) string {
	return slug + "-readme.txt"
}
