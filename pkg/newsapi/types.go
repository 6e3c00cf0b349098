package newsapi

import (
	"encoding/json"
	"errors"
	"time"
)

// Country selects the edition of top headlines.
type Country string

const (
	CountryRU Country = "ru"
	CountryUS Country = "us"
)

// Language restricts full-text search results.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
)

// SortBy orders full-text search results.
type SortBy string

const (
	SortByRelevancy   SortBy = "relevancy"
	SortByPopularity  SortBy = "popularity"
	SortByPublishedAt SortBy = "publishedAt"
)

// SearchIn limits which article fields a query is matched against.
type SearchIn string

const (
	SearchInTitle       SearchIn = "title"
	SearchInDescription SearchIn = "description"
	SearchInContent     SearchIn = "content"
)

// Category narrows top headlines to a section.
type Category string

const (
	CategoryAll           Category = "all"
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryGeneral       Category = "general"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
)

// Categories returns every known category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryAll,
		CategoryBusiness,
		CategoryEntertainment,
		CategoryGeneral,
		CategoryHealth,
		CategoryScience,
		CategorySports,
		CategoryTechnology,
	}
}

// Source identifies the publication an article came from. The catalogue
// fields are only populated by the sources endpoint.
type Source struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	Language    string `json:"language,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Article is a single news item. Optional fields are left empty when the API
// omits them or sends null.
type Article struct {
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
	Source      Source    `json:"source"`
}

// ArticlesResponse is returned by the headlines and full-text search endpoints.
type ArticlesResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// SourceResponse is returned by the sources endpoint.
type SourceResponse struct {
	Status  string   `json:"status"`
	Sources []Source `json:"sources"`
}

// shape is a success payload the dispatcher can decode a body into.
type shape interface {
	decode(data []byte) error
}

var errMissingField = errors.New("required field missing")

func (r *ArticlesResponse) decode(data []byte) error {
	var wire struct {
		Status       *string `json:"status"`
		TotalResults *int    `json:"totalResults"`
		Articles     *[]struct {
			Article
			Source *Source `json:"source"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Status == nil || wire.TotalResults == nil || wire.Articles == nil {
		return errMissingField
	}

	articles := make([]Article, 0, len(*wire.Articles))
	for _, a := range *wire.Articles {
		if a.Source == nil {
			return errMissingField
		}
		art := a.Article
		art.Source = *a.Source
		articles = append(articles, art)
	}

	*r = ArticlesResponse{
		Status:       *wire.Status,
		TotalResults: *wire.TotalResults,
		Articles:     articles,
	}
	return nil
}

func (r *SourceResponse) decode(data []byte) error {
	var wire struct {
		Status  *string   `json:"status"`
		Sources *[]Source `json:"sources"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Status == nil || wire.Sources == nil {
		return errMissingField
	}
	*r = SourceResponse{Status: *wire.Status, Sources: *wire.Sources}
	return nil
}
