package usecase

import (
	"reflect"
	"testing"
)

func TestFilterSameOrigin(t *testing.T) {
	got := FilterSameOrigin("https://a.co/x", []string{
		"https://a.co/x/y",
		"https://b.co/",
		"https://a.co/",
		"https://a.co/x",
		"https://A.co/x/z",
		"https://a.co/x#top",
		"https://a.co/xyz",
	})
	want := []string{
		"https://a.co/x/y",
		"https://a.co/x",
		"https://a.co/x#top",
		"https://a.co/xyz",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFilterSameOriginEmpty(t *testing.T) {
	if got := FilterSameOrigin("https://a.co/", nil); len(got) != 0 {
		t.Fatalf("expected no links, got %v", got)
	}
}
