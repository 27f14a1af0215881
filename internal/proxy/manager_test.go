package proxy

import (
	"net/http"
	"testing"
)

func TestGetProxyRotates(t *testing.T) {
	m := NewManager([]string{"http://p0:8080", "http://p1:8080"}, nil)
	got := []string{m.GetProxy(), m.GetProxy(), m.GetProxy()}
	want := []string{"http://p0:8080", "http://p1:8080", "http://p0:8080"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNoProxyMeansDirect(t *testing.T) {
	m := NewManager(nil, nil)
	if p := m.GetProxy(); p != "" {
		t.Fatalf("expected no proxy, got %q", p)
	}
	req, _ := http.NewRequest(http.MethodGet, "https://ex.co/", nil)
	u, err := m.ProxyFunc()(req)
	if err != nil || u != nil {
		t.Fatalf("expected direct connection, got %v, %v", u, err)
	}
}

func TestGetUserAgentUsesConfiguredList(t *testing.T) {
	m := NewManager(nil, []string{"frontier-crawler/1.0"})
	if ua := m.GetUserAgent(); ua != "frontier-crawler/1.0" {
		t.Fatalf("unexpected user agent %q", ua)
	}
	if ua := NewManager(nil, nil).GetUserAgent(); ua == "" {
		t.Fatal("expected a default user agent")
	}
}
