package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/samvad-hq/newsapi-harvester/pkg/httpclient"
)

const sampleArticles = `{
  "status": "ok",
  "totalResults": 37,
  "articles": [
    {
      "source": {"id": null, "name": "Lenta.ru"},
      "author": null,
      "title": "Headline one",
      "description": "First description",
      "url": "https://lenta.ru/news/1",
      "urlToImage": "https://lenta.ru/img/1.jpg",
      "publishedAt": "2024-03-18T09:30:00Z",
      "content": null
    },
    {
      "source": {"id": "rbc", "name": "RBC"},
      "author": "Ivan Petrov",
      "title": "Headline two",
      "description": null,
      "url": "https://rbc.ru/news/2",
      "urlToImage": null,
      "publishedAt": "2024-03-18T10:15:42.123Z",
      "content": "Body [+120 chars]"
    }
  ]
}`

const sampleSources = `{
  "status": "ok",
  "sources": [
    {"id": "rbc", "name": "RBC", "description": "Business news", "url": "https://www.rbc.ru", "category": "business", "language": "ru", "country": "ru"},
    {"id": "lenta", "name": "Lenta", "description": "", "url": "https://lenta.ru", "category": "general", "language": "ru", "country": "ru"}
  ]
}`

const sampleError = `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid or incorrect."}`

type recordedRequest struct {
	path   string
	query  url.Values
	apiKey string
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.apiKey = r.Header.Get(APIKeyHeader)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient("test-key", WithBaseURL(srv.URL+"/v2/"), WithTimeout(2*time.Second))
}

func TestHeadlinesDefaultRequest(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, sampleArticles)

	resp, err := newTestClient(srv).Headlines(context.Background(), HeadlinesRequest{})
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}

	if rec.path != "/v2/top-headlines" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if rec.apiKey != "test-key" {
		t.Fatalf("expected api key header, got %q", rec.apiKey)
	}
	wantQuery := url.Values{"country": {"ru"}, "pageSize": {"20"}, "page": {"1"}}
	if diff := cmp.Diff(wantQuery, rec.query); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	if resp.Status != "ok" || resp.TotalResults != 37 {
		t.Fatalf("unexpected envelope %+v", resp)
	}
	if len(resp.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(resp.Articles))
	}
	first := resp.Articles[0]
	if first.Author != "" || first.Content != "" || first.Source.ID != "" || first.Source.Name != "Lenta.ru" {
		t.Fatalf("unexpected first article %+v", first)
	}
	if !first.PublishedAt.Equal(time.Date(2024, time.March, 18, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected publishedAt %v", first.PublishedAt)
	}
	second := resp.Articles[1]
	if second.Source.ID != "rbc" || second.Author != "Ivan Petrov" {
		t.Fatalf("unexpected second article %+v", second)
	}
	if second.PublishedAt.Nanosecond() != 123000000 {
		t.Fatalf("expected fractional seconds to survive, got %v", second.PublishedAt)
	}
}

func TestArticlesElectionRequest(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, sampleArticles)

	if _, err := newTestClient(srv).Articles(context.Background(), ArticlesRequest{Query: "election"}); err != nil {
		t.Fatalf("Articles: %v", err)
	}

	if rec.path != "/v2/everything" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	wantQuery := url.Values{
		"q":        {"election"},
		"sortBy":   {"publishedAt"},
		"pageSize": {"20"},
		"page":     {"1"},
	}
	if diff := cmp.Diff(wantQuery, rec.query); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestSourcesRequest(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, sampleSources)

	resp, err := newTestClient(srv).Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if rec.path != "/v2/top-headlines/sources" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if len(rec.query) != 0 {
		t.Fatalf("expected no query params, got %v", rec.query)
	}
	if len(resp.Sources) != 2 || resp.Sources[0].Category != "business" {
		t.Fatalf("unexpected sources %+v", resp.Sources)
	}
}

func TestErrorResponseIsReturned(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, sampleError)

	resp, err := newTestClient(srv).Headlines(context.Background(), HeadlinesRequest{})
	if resp != nil {
		t.Fatalf("expected nil payload alongside error, got %+v", resp)
	}
	var apiErr *ErrorResponse
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *ErrorResponse, got %v", err)
	}
	if apiErr.Status != "error" || apiErr.Code != "apiKeyInvalid" || apiErr.Message == "" {
		t.Fatalf("unexpected error payload %+v", apiErr)
	}
	if KindOf(err) != KindErrorResponse {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
}

func TestUndecodableBodyIsDecodingError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, "<html>bad gateway</html>")

	resp, err := newTestClient(srv).Articles(context.Background(), ArticlesRequest{Query: "x"})
	if resp != nil {
		t.Fatalf("expected nil payload, got %+v", resp)
	}
	if !errors.Is(err, ErrDecoding) {
		t.Fatalf("expected ErrDecoding, got %v", err)
	}
}

func TestOKStatusWithIncompletePayloadIsDecodingError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"status":"ok","totalResults":3}`)

	_, err := newTestClient(srv).Headlines(context.Background(), HeadlinesRequest{})
	if !errors.Is(err, ErrDecoding) {
		t.Fatalf("expected ErrDecoding, got %v", err)
	}
	var apiErr *ErrorResponse
	if errors.As(err, &apiErr) {
		t.Fatalf("ok status must not surface as an error response")
	}
}

func TestArticleWithoutSourceIsNotASuccess(t *testing.T) {
	body := `{"status":"ok","totalResults":1,"articles":[{"title":"orphan"}]}`
	srv, _ := newTestServer(t, http.StatusOK, body)

	_, err := newTestClient(srv).Headlines(context.Background(), HeadlinesRequest{})
	if !errors.Is(err, ErrDecoding) {
		t.Fatalf("expected ErrDecoding, got %v", err)
	}
}

type stubTransport struct {
	err    error
	calls  int
	status int
	body   string
}

type stubResponse struct {
	body   []byte
	status int
}

func (r stubResponse) Body() []byte    { return r.body }
func (r stubResponse) StatusCode() int { return r.status }

func (s *stubTransport) Get(_ context.Context, _ string, _ map[string]string) (httpclient.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return stubResponse{body: []byte(s.body), status: s.status}, nil
}

func TestTransportFailureIsFailedRequest(t *testing.T) {
	cause := errors.New("connection reset")
	transport := &stubTransport{err: cause}
	client := NewClient("k", WithHTTPClient(transport))

	resp, err := client.Sources(context.Background())
	if resp != nil {
		t.Fatalf("expected nil payload, got %+v", resp)
	}
	if !errors.Is(err, ErrFailedRequest) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrFailedRequest wrapping cause, got %v", err)
	}
	if KindOf(err) != KindFailedRequest {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
}

func TestInvalidBaseURLIsInvalidURL(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: sampleSources}
	client := NewClient("k", WithBaseURL("://missing-scheme/"), WithHTTPClient(transport))

	_, err := client.Sources(context.Background())
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if transport.calls != 0 {
		t.Fatalf("transport must not be called for an invalid url")
	}
}

func TestBaseURLWithoutTrailingSlash(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, sampleSources)

	client := NewClient("test-key", WithBaseURL(srv.URL+"/v2"))
	if _, err := client.Sources(context.Background()); err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if rec.path != "/v2/top-headlines/sources" {
		t.Fatalf("unexpected path %q", rec.path)
	}
}

func TestTimeoutKeepsInjectedTransport(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: sampleSources}
	client := NewClient("k", WithHTTPClient(transport), WithTimeout(time.Second))

	if _, err := client.Sources(context.Background()); err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if transport.calls != 1 {
		t.Fatalf("expected injected transport to be used, got %d calls", transport.calls)
	}
}

func TestCancelledContextIsFailedRequest(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, sampleSources)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).Sources(ctx)
	if !errors.Is(err, ErrFailedRequest) {
		t.Fatalf("expected ErrFailedRequest, got %v", err)
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/top-headlines/sources" {
			_, _ = w.Write([]byte(sampleSources))
			return
		}
		_, _ = w.Write([]byte(sampleArticles))
	}))
	defer srv.Close()
	client := newTestClient(srv)

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := client.Headlines(context.Background(), HeadlinesRequest{Page: i})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := client.Articles(context.Background(), ArticlesRequest{Query: "go"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := client.Sources(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent call failed: %v", err)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{errors.New("other"), ""},
		{ErrInvalidURL, KindInvalidURL},
		{ErrDecoding, KindDecoding},
		{&ErrorResponse{Status: "error"}, KindErrorResponse},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestErrorResponseMessage(t *testing.T) {
	err := &ErrorResponse{Status: "error", Code: "rateLimited", Message: "slow down"}
	if got := err.Error(); got != "newsapi: rateLimited: slow down" {
		t.Fatalf("unexpected message %q", got)
	}
}
