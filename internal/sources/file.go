package sources

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"os"
	"path/filepath"
	"strings"
)

// File reads a feed written by an external scraper: either a JSON array of
// objects or one JSON object per line.
type File struct {
	name string
	path string
}

func NewFile(name, path string) *File {
	return &File{name: name, path: path}
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Fetch(ctx context.Context) ([]models.RawPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", f.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' || strings.EqualFold(filepath.Ext(f.path), ".json") {
		return parseArray(trimmed)
	}
	return parseLines(trimmed)
}

func parseArray(data []byte) ([]models.RawPosting, error) {
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	postings := make([]models.RawPosting, 0, len(items))
	for _, item := range items {
		if item != nil {
			postings = append(postings, models.NewRawPosting(item))
		}
	}
	return postings, nil
}

// parseLines skips lines that are not JSON objects; the normalizer reports
// postings that decode but miss required fields.
func parseLines(data []byte) ([]models.RawPosting, error) {
	var postings []models.RawPosting

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item map[string]any
		if err := json.Unmarshal(line, &item); err != nil || item == nil {
			continue
		}
		postings = append(postings, models.NewRawPosting(item))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return postings, nil
}
