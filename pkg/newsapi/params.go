package newsapi

import (
	"strconv"
	"strings"
)

const (
	MinPageSize = 20
	MaxPageSize = 100
	DefaultPage = 1

	DefaultCountry = CountryRU
	DefaultSortBy  = SortByPublishedAt
)

// HeadlinesRequest describes a top-headlines query. Zero values fall back to
// the defaults: country ru, page size 20, page 1.
type HeadlinesRequest struct {
	Country  Country
	Category Category
	Query    string
	PageSize int
	Page     int
}

// ArticlesRequest describes a full-text search across all articles. Empty
// lists and strings are left out of the request.
type ArticlesRequest struct {
	Query          string
	SearchIn       []SearchIn
	Sources        []string
	Domains        []string
	ExcludeDomains []string
	From           string
	To             string
	Language       Language
	SortBy         SortBy
	PageSize       int
	Page           int
}

// ClampPageSize corrects size into [MinPageSize, MaxPageSize].
func ClampPageSize(size int) int {
	switch {
	case size < MinPageSize:
		return MinPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

// ClampPage turns non-positive pages into the first page.
func ClampPage(page int) int {
	if page <= 0 {
		return DefaultPage
	}
	return page
}

func buildHeadlinesParams(req HeadlinesRequest) map[string]string {
	country := req.Country
	if country == "" {
		country = DefaultCountry
	}

	params := map[string]string{
		"country":  string(country),
		"pageSize": strconv.Itoa(ClampPageSize(req.PageSize)),
		"page":     strconv.Itoa(ClampPage(req.Page)),
	}
	setIfPresent(params, "category", string(req.Category))
	setIfPresent(params, "q", req.Query)
	return params
}

func buildArticlesParams(req ArticlesRequest) map[string]string {
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = DefaultSortBy
	}

	params := map[string]string{
		"sortBy":   string(sortBy),
		"pageSize": strconv.Itoa(ClampPageSize(req.PageSize)),
		"page":     strconv.Itoa(ClampPage(req.Page)),
	}

	searchIn := make([]string, 0, len(req.SearchIn))
	for _, s := range req.SearchIn {
		searchIn = append(searchIn, string(s))
	}
	setList(params, "searchIn", searchIn)
	setList(params, "sources", req.Sources)
	setList(params, "domains", req.Domains)
	setList(params, "excludeDomains", req.ExcludeDomains)

	setIfPresent(params, "q", req.Query)
	setIfPresent(params, "from", req.From)
	setIfPresent(params, "to", req.To)
	setIfPresent(params, "language", string(req.Language))
	return params
}

func buildSourcesParams() map[string]string {
	return map[string]string{}
}

func setIfPresent(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}

func setList(params map[string]string, key string, values []string) {
	if len(values) > 0 {
		params[key] = strings.Join(values, ",")
	}
}
