package newsapi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClampPageSize(t *testing.T) {
	cases := map[int]int{
		-5:  20,
		0:   20,
		19:  20,
		20:  20,
		55:  55,
		100: 100,
		101: 100,
		500: 100,
	}
	for in, want := range cases {
		if got := ClampPageSize(in); got != want {
			t.Errorf("ClampPageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 7: 7}
	for in, want := range cases {
		if got := ClampPage(in); got != want {
			t.Errorf("ClampPage(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildHeadlinesParamsDefaults(t *testing.T) {
	got := buildHeadlinesParams(HeadlinesRequest{})
	want := map[string]string{
		"country":  "ru",
		"pageSize": "20",
		"page":     "1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headline params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildHeadlinesParamsOptionals(t *testing.T) {
	got := buildHeadlinesParams(HeadlinesRequest{
		Country:  CountryUS,
		Category: CategoryScience,
		Query:    "mars",
		PageSize: 250,
		Page:     3,
	})
	want := map[string]string{
		"country":  "us",
		"category": "science",
		"q":        "mars",
		"pageSize": "100",
		"page":     "3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headline params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArticlesParamsQueryOnly(t *testing.T) {
	got := buildArticlesParams(ArticlesRequest{Query: "election"})
	want := map[string]string{
		"q":        "election",
		"sortBy":   "publishedAt",
		"pageSize": "20",
		"page":     "1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("article params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArticlesParamsListsUseOwnValues(t *testing.T) {
	got := buildArticlesParams(ArticlesRequest{
		Query:          "climate",
		SearchIn:       []SearchIn{SearchInTitle, SearchInContent},
		Sources:        []string{"bbc-news", "rbc"},
		Domains:        []string{"bbc.co.uk", "rbc.ru"},
		ExcludeDomains: []string{"example.com"},
		From:           "2024-03-01",
		To:             "2024-03-18T12:00:00",
		Language:       LanguageEN,
		SortBy:         SortByPopularity,
		PageSize:       10,
		Page:           -1,
	})
	want := map[string]string{
		"q":              "climate",
		"searchIn":       "title,content",
		"sources":        "bbc-news,rbc",
		"domains":        "bbc.co.uk,rbc.ru",
		"excludeDomains": "example.com",
		"from":           "2024-03-01",
		"to":             "2024-03-18T12:00:00",
		"language":       "en",
		"sortBy":         "popularity",
		"pageSize":       "20",
		"page":           "1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("article params mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArticlesParamsOmitsEmptyLists(t *testing.T) {
	got := buildArticlesParams(ArticlesRequest{
		SearchIn:       []SearchIn{},
		Sources:        nil,
		Domains:        []string{},
		ExcludeDomains: nil,
	})
	for _, key := range []string{"searchIn", "sources", "domains", "excludeDomains", "q", "from", "to", "language"} {
		if v, ok := got[key]; ok {
			t.Errorf("expected %s to be omitted, got %q", key, v)
		}
	}
}

func TestBuildSourcesParamsEmpty(t *testing.T) {
	if got := buildSourcesParams(); len(got) != 0 {
		t.Fatalf("expected no params, got %v", got)
	}
}

func TestCategoriesOrder(t *testing.T) {
	want := []Category{"all", "business", "entertainment", "general", "health", "science", "sports", "technology"}
	if diff := cmp.Diff(want, Categories()); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
}
