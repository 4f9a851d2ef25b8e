package feed

import (
	"bytes"
	"cmp"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title: strings.TrimSpace(feed.Title),
		Link:  feed.Link,
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entry := p.normalizeItem(item)
		entry.Hash = EntryHash(entry.ID, entry.RawTimestamp())
		entries = append(entries, entry)
	}

	return metadata, entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		ID:        cmp.Or(item.GUID, item.Link),
		Title:     strings.TrimSpace(item.Title),
		Link:      item.Link,
		Summary:   cmp.Or(item.Description, item.Content),
		Published: item.Published,
		Updated:   item.Updated,
	}

	if item.PublishedParsed != nil {
		publishedAt := *item.PublishedParsed
		entry.PublishedAt = &publishedAt
	}

	if item.UpdatedParsed != nil {
		updatedAt := *item.UpdatedParsed
		entry.UpdatedAt = &updatedAt
	}

	return entry
}

// EntryHash identifies an entry by its id and the original timestamp text.
// MD5 keeps state written by earlier deployments of the bot readable.
func EntryHash(id, rawTimestamp string) string {
	hash := md5.Sum([]byte(id + rawTimestamp))
	return hex.EncodeToString(hash[:])
}
