package countryloader

import (
	"context"
	"errors"
	"sort"
	"testing"
)

type stubTitles struct {
	titles   map[int64]string
	err      error
	langcode string
	calls    [][]int64
}

func (s *stubTitles) TitlesByIDs(_ context.Context, langcode string, nids []int64) (map[int64]string, error) {
	s.langcode = langcode
	ids := append([]int64(nil), nids...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.calls = append(s.calls, ids)
	if s.err != nil {
		return nil, s.err
	}
	return s.titles, nil
}

func TestCountryLoaderResolvesTitle(t *testing.T) {
	repo := &stubTitles{titles: map[int64]string{42: "Schweiz"}}
	loader := NewCountryLoader(repo, "")

	title, err := loader.Title(context.Background(), "42")
	if err != nil {
		t.Fatalf("Title returned error: %v", err)
	}
	if title != "Schweiz" {
		t.Fatalf("expected Schweiz, got %q", title)
	}
	if repo.langcode != "de" {
		t.Fatalf("expected default langcode de, got %q", repo.langcode)
	}

	// Cached on the second call.
	if _, err := loader.Title(context.Background(), "42"); err != nil {
		t.Fatalf("Title returned error: %v", err)
	}
	if len(repo.calls) != 1 {
		t.Fatalf("expected a single repository call, got %d", len(repo.calls))
	}
}

func TestCountryLoaderUnknownAndInvalidKeys(t *testing.T) {
	repo := &stubTitles{titles: map[int64]string{}}
	loader := NewCountryLoader(repo, "fr")

	for _, value := range []string{"", "7", "not-a-node"} {
		title, err := loader.Title(context.Background(), value)
		if err != nil {
			t.Fatalf("Title(%q) returned error: %v", value, err)
		}
		if title != "" {
			t.Fatalf("Title(%q) = %q, want empty", value, title)
		}
	}
}

func TestCountryLoaderPropagatesErrors(t *testing.T) {
	repo := &stubTitles{err: errors.New("db down")}
	loader := NewCountryLoader(repo, "de")

	if _, err := loader.Title(context.Background(), "3"); err == nil {
		t.Fatalf("expected error")
	}
}
