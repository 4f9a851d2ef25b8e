package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
)

// SeenRepository persists the append-only seen-set of each feed.
// Load on a key that was never written returns an empty set.
type SeenRepository interface {
	Load(ctx context.Context, key string) (SeenSet, error)
	Append(ctx context.Context, key string, hashes []string) error
	Close() error
}

type KeyMode string

const (
	// KeyByHost shares one seen-set between all feeds on the same host[:port].
	KeyByHost KeyMode = "host"
	// KeyByURL gives every feed URL its own seen-set.
	KeyByURL KeyMode = "url"
)

// FeedKey derives the storage key for a feed URL.
func FeedKey(feedURL string, mode KeyMode) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse feed URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("feed URL %q has no host", feedURL)
	}

	switch mode {
	case KeyByHost, "":
		return u.Host, nil
	case KeyByURL:
		sum := sha256.Sum256([]byte(feedURL))
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unknown key mode: %s", mode)
	}
}
