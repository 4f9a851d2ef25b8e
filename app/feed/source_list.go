package feed

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceList loads the feeds to poll. Plain files hold one URL per line;
// .yml/.yaml files hold a `feeds:` list with per-feed settings.
type SourceList struct {
	path string
}

type sourceFile struct {
	Feeds []Source `yaml:"feeds"`
}

func NewSourceList(path string) *SourceList {
	return &SourceList{path: path}
}

func (sl *SourceList) Run() ([]Source, error) {
	data, err := os.ReadFile(sl.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}

	var sources []Source
	switch strings.ToLower(filepath.Ext(sl.path)) {
	case ".yml", ".yaml":
		sources, err = sl.parseYAML(data)
	default:
		sources, err = sl.parseLines(data)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", sl.path, err)
	}

	for i, source := range sources {
		if err := sl.validateSource(source); err != nil {
			return nil, fmt.Errorf("invalid feed at index %d in %s: %w", i, sl.path, err)
		}
	}

	slog.Debug("Feed list loaded", "path", sl.path, "count", len(sources))

	return sources, nil
}

func (sl *SourceList) parseLines(data []byte) ([]Source, error) {
	var sources []Source

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, Source{URL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan feed list: %w", err)
	}

	return sources, nil
}

func (sl *SourceList) parseYAML(data []byte) ([]Source, error) {
	var file sourceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range file.Feeds {
		file.Feeds[i].URL = strings.TrimSpace(file.Feeds[i].URL)
	}

	return file.Feeds, nil
}

func (sl *SourceList) validateSource(source Source) error {
	if source.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	u, err := url.Parse(source.URL)
	if err != nil {
		return fmt.Errorf("invalid feed URL %q: %w", source.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed URL %q must use http or https", source.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL %q has no host", source.URL)
	}

	return nil
}
