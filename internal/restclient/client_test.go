package restclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func newTestClient(t *testing.T, srv *httptest.Server, insecure bool) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:            srv.URL + "/site",
		Username:           "admin",
		Password:           "app-pass",
		InsecureSkipVerify: insecure,
		Timeout:            5 * time.Second,
		UserAgent:          "wpdeploy/test",
	}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestClientGet(t *testing.T) {
	g := NewWithT(t)

	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":7,"slug":"my-plugin"}]`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, false)

	var pages []struct {
		ID   int64  `json:"id"`
		Slug string `json:"slug"`
	}
	err := client.Get(context.Background(), "wp-json/wp/v2/pages", url.Values{"slug": {"my-plugin"}, "status": {"any"}}, &pages)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(pages).To(HaveLen(1))
	g.Expect(pages[0].ID).To(Equal(int64(7)))

	g.Expect(gotReq.Method).To(Equal(http.MethodGet))
	g.Expect(gotReq.URL.Path).To(Equal("/site/wp-json/wp/v2/pages"))
	g.Expect(gotReq.URL.Query().Get("slug")).To(Equal("my-plugin"))
	g.Expect(gotReq.URL.Query().Get("status")).To(Equal("any"))
	g.Expect(gotReq.Header.Get("User-Agent")).To(Equal("wpdeploy/test"))

	user, pass, ok := gotReq.BasicAuth()
	g.Expect(ok).To(BeTrue())
	g.Expect(user).To(Equal("admin"))
	g.Expect(pass).To(Equal("app-pass"))
}

func TestClientPostForm(t *testing.T) {
	g := NewWithT(t)

	var (
		contentType string
		form        url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, false)

	var created struct {
		ID int64 `json:"id"`
	}
	err := client.Post(context.Background(), "wp-json/wp/v2/pages", Form(url.Values{"title": {"x"}, "slug": {"x"}}), &created)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(created.ID).To(Equal(int64(42)))
	g.Expect(contentType).To(Equal("application/x-www-form-urlencoded"))
	g.Expect(form.Get("slug")).To(Equal("x"))
}

func TestClientPostRawWithHeaders(t *testing.T) {
	g := NewWithT(t)

	var (
		disposition string
		received    string
		length      int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		disposition = r.Header.Get("Content-Disposition")
		length = r.ContentLength
		data, _ := io.ReadAll(r.Body)
		received = string(data)
		_, _ = io.WriteString(w, `{"id":9}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, false)

	body := Body{
		Reader:        strings.NewReader("zip-bytes"),
		ContentType:   "application/zip",
		ContentLength: int64(len("zip-bytes")),
		Header:        http.Header{"Content-Disposition": {`form-data; filename="p.zip"`}},
	}
	g.Expect(client.Post(context.Background(), "wp-json/wp/v2/media", body, nil)).To(Succeed())
	g.Expect(disposition).To(Equal(`form-data; filename="p.zip"`))
	g.Expect(received).To(Equal("zip-bytes"))
	g.Expect(length).To(Equal(int64(9)))
}

func TestClientHTTPError(t *testing.T) {
	g := NewWithT(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"rest_not_logged_in","message":"You are not currently logged in.","data":{"status":401}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, false)
	err := client.Patch(context.Background(), "wp-json/wp/v2/media/3", Form(url.Values{"post": {"1"}}), nil)

	var httpErr *HTTPError
	g.Expect(errors.As(err, &httpErr)).To(BeTrue())
	g.Expect(httpErr.StatusCode).To(Equal(http.StatusUnauthorized))
	g.Expect(httpErr.Code).To(Equal("rest_not_logged_in"))
	g.Expect(httpErr.Method).To(Equal(http.MethodPatch))
	g.Expect(err.Error()).To(ContainSubstring("You are not currently logged in."))
}

func TestClientMalformedBody(t *testing.T) {
	g := NewWithT(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, false)
	var out map[string]any
	err := client.Get(context.Background(), "wp-json/wp/v2/pages", nil, &out)
	g.Expect(errors.Is(err, ErrMalformedBody)).To(BeTrue())
}

func TestClientTLSVerification(t *testing.T) {
	g := NewWithT(t)

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	var out []any
	strict := newTestClient(t, srv, false)
	g.Expect(strict.Get(context.Background(), "wp-json/wp/v2/pages", nil, &out)).ToNot(Succeed())

	insecure := newTestClient(t, srv, true)
	g.Expect(insecure.Get(context.Background(), "wp-json/wp/v2/pages", nil, &out)).To(Succeed())
}

func TestClientHonoursContext(t *testing.T) {
	g := NewWithT(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := newTestClient(t, srv, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Get(ctx, "wp-json/wp/v2/pages", nil, nil)
	g.Expect(errors.Is(err, context.Canceled)).To(BeTrue())
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	g := NewWithT(t)

	for _, raw := range []string{"ftp://example.com/", "example.com", "https://"} {
		_, err := New(Config{BaseURL: raw}, nil)
		g.Expect(err).To(HaveOccurred(), raw)
	}
}
