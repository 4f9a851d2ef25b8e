package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFeedFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSourceListPlainText(t *testing.T) {
	content := `# news
https://example.com/feed.xml

  https://blog.example.org/atom.xml
# disabled: https://old.example.net/rss
`
	sources, err := NewSourceList(writeFeedFile(t, "rss-feeds", content)).Run()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].URL != "https://example.com/feed.xml" {
		t.Errorf("Unexpected first URL: %s", sources[0].URL)
	}
	if sources[1].URL != "https://blog.example.org/atom.xml" {
		t.Errorf("Expected trimmed second URL, got: %q", sources[1].URL)
	}
	for _, source := range sources {
		if !source.IsEnabled() {
			t.Errorf("Expected %s to be enabled by default", source.URL)
		}
	}
}

func TestSourceListYAML(t *testing.T) {
	content := `
feeds:
  - url: "https://example.com/feed.xml"
    name: "Example News"
    stream: "news"
  - url: "https://example.org/rss"
    enabled: false
  - url: "https://example.net/atom"
`
	sources, err := NewSourceList(writeFeedFile(t, "feeds.yml", content)).Run()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(sources))
	}
	if sources[0].Name != "Example News" || sources[0].Stream != "news" {
		t.Errorf("Expected overrides on first source, got %+v", sources[0])
	}
	if sources[1].IsEnabled() {
		t.Error("Expected second source to be disabled")
	}
	if !sources[2].IsEnabled() {
		t.Error("Expected third source to default to enabled")
	}
}

func TestSourceListInvalidURL(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"relative", "rss-feeds", "example.com/feed\n"},
		{"unsupported scheme", "rss-feeds", "ftp://example.com/feed\n"},
		{"missing url in yaml", "feeds.yaml", "feeds:\n  - name: nameless\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSourceList(writeFeedFile(t, tt.file, tt.content)).Run()
			if err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSourceListInvalidYAML(t *testing.T) {
	_, err := NewSourceList(writeFeedFile(t, "feeds.yml", "feeds: [unclosed")).Run()
	if err == nil {
		t.Fatal("Expected YAML error")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestSourceListMissingFile(t *testing.T) {
	_, err := NewSourceList(filepath.Join(t.TempDir(), "missing")).Run()
	if err == nil {
		t.Error("Expected error for missing feed file")
	}
}
