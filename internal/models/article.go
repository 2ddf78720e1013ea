package models

import "time"

// MaxContentLength is the maximum number of runes kept in Article.Content.
const MaxContentLength = 5000

// Article is the normalized record every source adapter produces.
type Article struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	Source             string    `json:"source"`
	SourceURL          string    `json:"source_url"`
	PublishedAt        time.Time `json:"published_at"`
	TimeEstimated      bool      `json:"time_estimated,omitempty"`
	Category           Category  `json:"category"`
	Author             string    `json:"author,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	RelevanceScore     float64   `json:"relevance_score"`
	ReadingTimeMinutes int       `json:"reading_time_minutes,omitempty"`

	// Signals carries provider quality hints consumed by the scorer.
	Signals Signals `json:"-"`
}

// Signals are optional quality hints reported by a provider.
type Signals struct {
	// Sentiment is the provider's sentiment label, empty when not reported.
	Sentiment string
	// Tags are topical tags attached by the provider.
	Tags []string
	// Priority is the provider's external rank for the outlet (lower is more
	// prominent). Zero means unknown.
	Priority int
	// SourceDomain is the outlet's home URL or domain when the provider
	// aggregates many outlets.
	SourceDomain string
}

// StoredArticle is an article persisted by a fetch-and-store call or sweep.
type StoredArticle struct {
	ID                 string     `json:"id"`
	ExternalID         string     `json:"external_id,omitempty"`
	Title              string     `json:"title"`
	Content            string     `json:"content,omitempty"`
	Source             string     `json:"source"`
	SourceURL          string     `json:"source_url,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	Category           Category   `json:"category"`
	Author             string     `json:"author,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	RelevanceScore     float64    `json:"relevance_score"`
	ReadingTimeMinutes int        `json:"reading_time_minutes,omitempty"`
	FetchedAt          time.Time  `json:"fetched_at"`
	CreatedAt          time.Time  `json:"created_at"`
}
