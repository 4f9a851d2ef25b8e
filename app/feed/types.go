package feed

import (
	"cmp"
	"time"
)

type Metadata struct {
	Title string
	Link  string
}

type Entry struct {
	ID      string
	Title   string
	Link    string
	Summary string

	// Raw timestamp text as found in the feed
	Published string
	Updated   string

	PublishedAt *time.Time
	UpdatedAt   *time.Time

	Hash string
}

// Timestamp returns the moment used for staleness checks, preferring the
// published time over the updated time.
func (e Entry) Timestamp() (time.Time, bool) {
	if e.PublishedAt != nil {
		return *e.PublishedAt, true
	}
	if e.UpdatedAt != nil {
		return *e.UpdatedAt, true
	}
	return time.Time{}, false
}

// RawTimestamp returns the original timestamp text that feeds into the entry hash.
func (e Entry) RawTimestamp() string {
	return cmp.Or(e.Published, e.Updated)
}

// Source is one configured feed.
type Source struct {
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`   // display name override
	Stream  string `yaml:"stream"` // destination override
	Enabled *bool  `yaml:"enabled"`
}

func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// DisplayName picks the source override, then the feed title, then the URL.
func (s Source) DisplayName(metadata *Metadata) string {
	title := ""
	if metadata != nil {
		title = metadata.Title
	}
	return cmp.Or(s.Name, title, s.URL)
}
