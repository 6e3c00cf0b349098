package domain

import "time"

// Domain contains core models and interfaces.

// Article is the harvested, source-agnostic form of a news item.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Author      string    `json:"author,omitempty"`
	Content     string    `json:"content,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	SourceName  string    `json:"source_name,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
