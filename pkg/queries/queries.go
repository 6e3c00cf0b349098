// Package queries loads the saved newsapi queries a harvester polls.
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/newsapi-harvester/pkg/newsapi"
)

// Query is one saved request against either the top-headlines or the
// everything endpoint.
type Query struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Endpoint       string   `json:"endpoint" yaml:"endpoint"`
	Enabled        *bool    `json:"enabled" yaml:"enabled"`
	Country        string   `json:"country" yaml:"country"`
	Category       string   `json:"category" yaml:"category"`
	Q              string   `json:"q" yaml:"q"`
	SearchIn       []string `json:"search_in" yaml:"search_in"`
	Sources        []string `json:"sources" yaml:"sources"`
	Domains        []string `json:"domains" yaml:"domains"`
	ExcludeDomains []string `json:"exclude_domains" yaml:"exclude_domains"`
	From           string   `json:"from" yaml:"from"`
	To             string   `json:"to" yaml:"to"`
	Language       string   `json:"language" yaml:"language"`
	SortBy         string   `json:"sort_by" yaml:"sort_by"`
	PageSize       int      `json:"page_size" yaml:"page_size"`
	Page           int      `json:"page" yaml:"page"`
}

type fileRegistry struct {
	Queries []Query `json:"queries" yaml:"queries"`
}

// Registry holds the validated queries loaded from a file.
type Registry struct {
	mu      sync.RWMutex
	queries []Query
	idx     map[string]Query
}

// LoadRegistry loads saved queries from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("queries file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Queries) == 0 {
		return nil, errors.New("queries file contains no queries entries")
	}

	reg := &Registry{
		queries: make([]Query, len(parsed.Queries)),
		idx:     make(map[string]Query, len(parsed.Queries)),
	}
	for i := range parsed.Queries {
		q := sanitizeQuery(parsed.Queries[i])
		if err := validateQuery(q); err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		if _, exists := reg.idx[q.ID]; exists {
			return nil, fmt.Errorf("duplicate query id %q", q.ID)
		}
		reg.queries[i] = q
		reg.idx[q.ID] = q
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg fileRegistry
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("queries file format not recognized (expected YAML or JSON)")
}

func sanitizeQuery(q Query) Query {
	q.ID = strings.TrimSpace(q.ID)
	q.Name = strings.TrimSpace(q.Name)
	q.Endpoint = strings.ToLower(strings.TrimSpace(q.Endpoint))
	q.Country = strings.ToLower(strings.TrimSpace(q.Country))
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	q.Q = strings.TrimSpace(q.Q)
	q.From = strings.TrimSpace(q.From)
	q.To = strings.TrimSpace(q.To)
	q.Language = strings.ToLower(strings.TrimSpace(q.Language))
	q.SortBy = strings.TrimSpace(q.SortBy)
	q.SearchIn = trimList(q.SearchIn)
	q.Sources = trimList(q.Sources)
	q.Domains = trimList(q.Domains)
	q.ExcludeDomains = trimList(q.ExcludeDomains)

	if q.Name == "" {
		q.Name = q.ID
	}
	if q.Enabled == nil {
		def := true
		q.Enabled = &def
	}
	return q
}

func trimList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateQuery(q Query) error {
	if q.ID == "" {
		return errors.New("id is required")
	}
	switch newsapi.Endpoint(q.Endpoint) {
	case newsapi.EndpointTopHeadlines:
		if len(q.SearchIn) > 0 || len(q.Domains) > 0 || len(q.ExcludeDomains) > 0 {
			return fmt.Errorf("query %q: search_in, domains and exclude_domains need the everything endpoint", q.ID)
		}
	case newsapi.EndpointEverything:
		if q.Country != "" || q.Category != "" {
			return fmt.Errorf("query %q: country and category need the top-headlines endpoint", q.ID)
		}
	default:
		return fmt.Errorf("query %q: unsupported endpoint %q", q.ID, q.Endpoint)
	}
	return nil
}

// ByID returns the query with the given id.
func (r *Registry) ByID(id string) (Query, bool) {
	if r == nil {
		return Query{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Query{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.idx[id]
	return q, ok
}

// All returns every loaded query in file order.
func (r *Registry) All() []Query {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Query, len(r.queries))
	copy(out, r.queries)
	return out
}

// Enabled returns the queries that should be polled.
func (r *Registry) Enabled() []Query {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Query, 0, len(all))
	for _, q := range all {
		if q.EnabledValue() {
			out = append(out, q)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (q Query) EnabledValue() bool {
	if q.Enabled == nil {
		return true
	}
	return *q.Enabled
}

// HeadlinesRequest converts q into a top-headlines request.
func (q Query) HeadlinesRequest() newsapi.HeadlinesRequest {
	return newsapi.HeadlinesRequest{
		Country:  newsapi.Country(q.Country),
		Category: newsapi.Category(q.Category),
		Query:    q.Q,
		PageSize: q.PageSize,
		Page:     q.Page,
	}
}

// ArticlesRequest converts q into a full-text search request.
func (q Query) ArticlesRequest() newsapi.ArticlesRequest {
	var searchIn []newsapi.SearchIn
	for _, s := range q.SearchIn {
		searchIn = append(searchIn, newsapi.SearchIn(s))
	}
	return newsapi.ArticlesRequest{
		Query:          q.Q,
		SearchIn:       searchIn,
		Sources:        q.Sources,
		Domains:        q.Domains,
		ExcludeDomains: q.ExcludeDomains,
		From:           q.From,
		To:             q.To,
		Language:       newsapi.Language(q.Language),
		SortBy:         newsapi.SortBy(q.SortBy),
		PageSize:       q.PageSize,
		Page:           q.Page,
	}
}
