package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/wpselfhosted/wpdeploy/internal/restclient"
)

// call is one request seen by fakeClient.
type call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// respondFunc returns the JSON document to decode into out, or an error.
type respondFunc func(c call) (string, error)

// fakeClient is an in-memory RestClient that records every call.
type fakeClient struct {
	mu      sync.Mutex
	calls   []call
	respond respondFunc
}

var _ restclient.RestClient = (*fakeClient)(nil)

func (f *fakeClient) Get(_ context.Context, path string, query url.Values, out any) error {
	return f.handle(call{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (f *fakeClient) Post(_ context.Context, path string, body restclient.Body, out any) error {
	return f.handleBody(http.MethodPost, path, body, out)
}

func (f *fakeClient) Patch(_ context.Context, path string, body restclient.Body, out any) error {
	return f.handleBody(http.MethodPatch, path, body, out)
}

func (f *fakeClient) handleBody(method, path string, body restclient.Body, out any) error {
	c := call{Method: method, Path: path, Header: body.Header.Clone()}
	if c.Header == nil {
		c.Header = http.Header{}
	}
	if body.ContentType != "" {
		c.Header.Set("Content-Type", body.ContentType)
	}
	if body.Reader != nil {
		data, err := io.ReadAll(body.Reader)
		if err != nil {
			return err
		}
		c.Body = string(data)
	}
	return f.handle(c, out)
}

func (f *fakeClient) handle(c call, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	payload, err := f.respond(c)
	if err != nil {
		return err
	}
	if out == nil || payload == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %v", restclient.ErrMalformedBody, err)
	}
	return nil
}

func (f *fakeClient) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// summary renders calls as "METHOD path" lines for order assertions.
func summary(calls []call) string {
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, c.Method+" "+c.Path)
	}
	return strings.Join(lines, "\n")
}

func countCalls(calls []call, method, path string) int {
	n := 0
	for _, c := range calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// wordpress is a stateful fake of the pages and media endpoints.
type wordpress struct {
	mu     sync.Mutex
	nextID int64
	pages  map[string]int64
	media  map[int64]int64
	fail   map[string]error
}

func newWordPress(firstID int64) *wordpress {
	return &wordpress{
		nextID: firstID,
		pages:  map[string]int64{},
		media:  map[int64]int64{},
		fail:   map[string]error{},
	}
}

func (w *wordpress) respond(c call) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err, ok := w.fail[c.Method+" "+c.Path]; ok {
		return "", err
	}

	switch {
	case c.Method == http.MethodGet && c.Path == pagesPath:
		id, ok := w.pages[c.Query.Get("slug")]
		if !ok {
			return "[]", nil
		}
		return fmt.Sprintf(`[{"id":%d,"slug":%q}]`, id, c.Query.Get("slug")), nil
	case c.Method == http.MethodPost && c.Path == pagesPath:
		form, err := url.ParseQuery(c.Body)
		if err != nil {
			return "", err
		}
		id := w.take()
		w.pages[form.Get("slug")] = id
		return fmt.Sprintf(`{"id":%d}`, id), nil
	case c.Method == http.MethodPost && c.Path == mediaPath:
		id := w.take()
		w.media[id] = 0
		return fmt.Sprintf(`{"id":%d}`, id), nil
	case c.Method == http.MethodPatch && strings.HasPrefix(c.Path, mediaPath+"/"):
		var id int64
		if _, err := fmt.Sscanf(strings.TrimPrefix(c.Path, mediaPath+"/"), "%d", &id); err != nil {
			return "", err
		}
		form, err := url.ParseQuery(c.Body)
		if err != nil {
			return "", err
		}
		var parent int64
		if _, err := fmt.Sscanf(form.Get("post"), "%d", &parent); err != nil {
			return "", err
		}
		w.media[id] = parent
		return fmt.Sprintf(`{"id":%d,"post":%d}`, id, parent), nil
	}
	return "", fmt.Errorf("unexpected call %s %s", c.Method, c.Path)
}

func (w *wordpress) take() int64 {
	id := w.nextID
	w.nextID++
	return id
}
