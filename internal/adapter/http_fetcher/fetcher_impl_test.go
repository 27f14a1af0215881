package http_fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/frontier-crawler/internal/proxy"
	"github.com/user/frontier-crawler/internal/repository"
	"go.uber.org/zap/zaptest"
)

func TestFetchResolvesLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("unexpected user agent %q", got)
		}
		fmt.Fprint(w, `<html><body>
			<a href="a">relative</a>
			<a href="/b">root</a>
			<a href="https://other.co/c">external</a>
			<a>no href</a>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, proxy.NewManager(nil, []string{"test-agent"}), zaptest.NewLogger(t))
	page, err := f.Fetch(context.Background(), srv.URL+"/docs/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	want := []string{srv.URL + "/docs/a", srv.URL + "/b", "https://other.co/c"}
	if len(page.Links) != len(want) {
		t.Fatalf("expected links %v, got %v", want, page.Links)
	}
	for i := range want {
		if page.Links[i] != want[i] {
			t.Fatalf("expected links %v, got %v", want, page.Links)
		}
	}
	if page.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", page.StatusCode)
	}
	if page.HTML == "" {
		t.Fatal("expected html to be captured")
	}
}

func TestFetchHonoursBaseHref(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><base href="/static/"></head><body><a href="x">x</a></body></html>`)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, proxy.NewManager(nil, nil), zaptest.NewLogger(t))
	page, err := f.Fetch(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Links) != 1 || page.Links[0] != srv.URL+"/static/x" {
		t.Fatalf("unexpected links %v", page.Links)
	}
}

func TestFetchErrorStatusIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><body>missing</body></html>`)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, proxy.NewManager(nil, nil), zaptest.NewLogger(t))
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", page.StatusCode)
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewHTTPFetcher(50*time.Millisecond, proxy.NewManager(nil, nil), zaptest.NewLogger(t))
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, repository.ErrCrawlTimeout) {
		t.Fatalf("expected ErrCrawlTimeout, got %v", err)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewHTTPFetcher(time.Second, proxy.NewManager(nil, nil), zaptest.NewLogger(t))
	_, err := f.Fetch(context.Background(), addr)
	if !errors.Is(err, repository.ErrNavigationFailed) {
		t.Fatalf("expected ErrNavigationFailed, got %v", err)
	}
}
