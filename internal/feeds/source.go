// Package feeds implements the news source adapters and the HTTP plumbing
// they share.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/samber/lo"
)

// DefaultLimit is the number of articles an adapter returns when the caller
// does not set FetchOptions.Limit.
const DefaultLimit = 20

var (
	// ErrUnknownSource is returned when a source name matches no registered
	// adapter.
	ErrUnknownSource = errors.New("unknown source")

	// ErrMissingCredential is returned by adapters that need an API key when
	// none is configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrArchiveEntitlement is returned when the provider refuses historical
	// access for the current plan.
	ErrArchiveEntitlement = errors.New("archive access not included in plan")
)

// FetchOptions controls a single adapter fetch.
type FetchOptions struct {
	// Category is an abstract category name. Unknown values fall back to the
	// adapter's default feed.
	Category string
	// Keywords is a free-text query for adapters that support searching.
	Keywords string
	// Limit caps the number of returned articles. Zero means DefaultLimit.
	Limit int
	// FromDate drops articles published strictly before it. Zero disables the
	// filter.
	FromDate time.Time
}

func (o FetchOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

// ArchiveQuery is a date-bounded historical search.
type ArchiveQuery struct {
	Keywords string
	Category string
	From     time.Time
	To       time.Time
	Limit    int
}

// Source fetches articles from one provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error)
}

// ArchiveSource is a Source that also supports historical date-range search.
type ArchiveSource interface {
	Source
	Archive(ctx context.Context, q ArchiveQuery) ([]models.Article, error)
}

// Categorized is implemented by sources that can report which abstract
// categories they map natively.
type Categorized interface {
	Categories() []string
}

// SourceInfo describes a registered source.
type SourceInfo struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories,omitempty"`
	Archive    bool     `json:"archive"`
}

// Registry is the ordered set of sources an aggregation fans out to.
type Registry struct {
	sources []Source
}

// NewRegistry creates a Registry of the given sources, skipping nil entries.
func NewRegistry(sources ...Source) *Registry {
	return &Registry{sources: lo.Filter(sources, func(s Source, _ int) bool { return s != nil })}
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// ArchiveSources returns the registered sources that support archive search.
func (r *Registry) ArchiveSources() []ArchiveSource {
	var out []ArchiveSource
	for _, s := range r.sources {
		if a, ok := s.(ArchiveSource); ok {
			out = append(out, a)
		}
	}
	return out
}

// Lookup finds a source by name. An exact case-insensitive match wins;
// otherwise the first source whose name contains name is returned.
func (r *Registry) Lookup(name string) (Source, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownSource)
	}
	for _, s := range r.sources {
		if strings.ToLower(s.Name()) == want {
			return s, nil
		}
	}
	for _, s := range r.sources {
		if strings.Contains(strings.ToLower(s.Name()), want) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

// Describe returns a summary of every registered source.
func (r *Registry) Describe() []SourceInfo {
	return lo.Map(r.sources, func(s Source, _ int) SourceInfo {
		info := SourceInfo{Name: s.Name()}
		if c, ok := s.(Categorized); ok {
			info.Categories = c.Categories()
		}
		_, info.Archive = s.(ArchiveSource)
		return info
	})
}
